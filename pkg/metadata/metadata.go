// ============================================================================
// beanval - Bean Validation Engine
// ============================================================================
//
// Package:     metadata
// Description: Bean metamodel, property accessors and providers
// Author:      Mike Stoffels
// Created:     2026-10-15
// License:     MIT
// ============================================================================

// Package metadata holds the metamodel the validator walks: beans, their
// properties with accessors and the constraint descriptors attached to
// both. Providers build metamodels from struct tags or, in package mapping,
// from descriptor files.
package metadata

import (
	"fmt"
	"reflect"

	"github.com/msto63/beanval/pkg/constraints"
	"github.com/msto63/beanval/pkg/groups"

	bverror "github.com/msto63/beanval/foundation/core/error"
)

// Provider supplies the metamodel for a bean type.
type Provider interface {
	MetaBeanFor(t reflect.Type) (*MetaBean, error)
}

// IDProvider is implemented by providers that also know beans by identifier,
// such as beans declared in mapping files for map documents.
type IDProvider interface {
	MetaBeanByID(id string) (*MetaBean, error)
}

// ContainerKind says how a cascaded property value is traversed.
type ContainerKind int

const (
	// ContainerAuto decides from the runtime value: slices and arrays are
	// iterated, maps are iterated by key, anything else is a bean.
	ContainerAuto ContainerKind = iota
	// ContainerNone treats the value as a single bean even when it is a map.
	ContainerNone
	// ContainerList iterates a slice or array.
	ContainerList
	// ContainerMap iterates map values.
	ContainerMap
)

var containerNames = map[ContainerKind]string{
	ContainerAuto: "auto",
	ContainerNone: "bean",
	ContainerList: "list",
	ContainerMap:  "map",
}

func (k ContainerKind) String() string {
	if s, ok := containerNames[k]; ok {
		return s
	}
	return fmt.Sprintf("ContainerKind(%d)", int(k))
}

// ParseContainerKind parses the names used by String. The empty string
// yields ContainerAuto.
func ParseContainerKind(s string) (ContainerKind, error) {
	if s == "" {
		return ContainerAuto, nil
	}
	for k, name := range containerNames {
		if name == s {
			return k, nil
		}
	}
	return ContainerAuto, bverror.New(fmt.Sprintf("unknown container kind %q", s)).
		WithCode(bverror.CodeMetadata).
		WithDetail("container", s)
}

// ConstraintDescriptor is one declared constraint.
type ConstraintDescriptor struct {
	Kind       string
	Constraint constraints.Constraint
	// Groups the constraint was declared for. Never empty; defaults to Default.
	Groups []groups.Group
	// Host is the group of the bean declaring the constraint.
	Host groups.Group
	// DeclaringType is the embedded struct a promoted field comes from, nil
	// for fields declared directly on the bean.
	DeclaringType reflect.Type
	// Message is the message template, e.g. "{constraint.maxValue}".
	Message string
	Params  map[string]interface{}
}

// NewDescriptor returns a descriptor in the given groups, defaulting to
// Default, with the catalog message template for kind unless message is set.
func NewDescriptor(kind string, c constraints.Constraint, params map[string]interface{}, message string, gs ...groups.Group) *ConstraintDescriptor {
	if len(gs) == 0 {
		gs = []groups.Group{groups.Default}
	}
	if message == "" {
		message = "{" + constraints.MessageKey(kind) + "}"
	}
	if params == nil {
		params = map[string]interface{}{}
	}
	return &ConstraintDescriptor{
		Kind:       kind,
		Constraint: c,
		Groups:     gs,
		Message:    message,
		Params:     params,
	}
}

// InGroup reports explicit membership in g.
func (d *ConstraintDescriptor) InGroup(g groups.Group) bool {
	for _, dg := range d.Groups {
		if dg == g {
			return true
		}
	}
	return false
}

// ImplicitlyIn reports whether a Default constraint also belongs to g
// because g is its host's group, or because the struct the constraint was
// promoted from implements g's marker interface. Empty marker interfaces
// are satisfied by every type and never match the latter rule.
func (d *ConstraintDescriptor) ImplicitlyIn(g groups.Group) bool {
	if g == groups.Default || !d.InGroup(groups.Default) {
		return false
	}
	if !d.Host.IsZero() && d.Host == g {
		return true
	}
	gt := g.Type()
	if d.DeclaringType == nil || gt == nil || gt.Kind() != reflect.Interface || gt.NumMethod() == 0 {
		return false
	}
	return d.DeclaringType.Implements(gt) || reflect.PointerTo(d.DeclaringType).Implements(gt)
}

// AppliesTo reports whether the descriptor is evaluated for g.
func (d *ConstraintDescriptor) AppliesTo(g groups.Group) bool {
	return d.InGroup(g) || d.ImplicitlyIn(g)
}

// MetaProperty describes one property of a bean.
type MetaProperty struct {
	Name        string
	Accessor    Accessor
	Constraints []*ConstraintDescriptor
	Cascade     bool
	Container   ContainerKind
	// ConvertGroups maps the group in effect to the group the cascaded
	// value is validated with.
	ConvertGroups map[groups.Group]groups.Group
	// TargetBean names the bean cascaded values are validated against when
	// they cannot be resolved by type.
	TargetBean string
}

// ConvertGroup returns the group a cascaded value is validated with when
// the owner is validated with g.
func (p *MetaProperty) ConvertGroup(g groups.Group) groups.Group {
	if to, ok := p.ConvertGroups[g]; ok {
		return to
	}
	return g
}

// MetaBean describes a bean type or a bean declared by identifier.
type MetaBean struct {
	ID   string
	Type reflect.Type
	// Group is the bean's own group, used inside a redefined default
	// sequence to mean "the Default constraints of this bean".
	Group       groups.Group
	Properties  []*MetaProperty
	Constraints []*ConstraintDescriptor
	// DefaultSequence redefines the Default group for this bean when set.
	DefaultSequence []groups.Group

	byName map[string]*MetaProperty
}

// NewMetaBean creates an empty bean description.
func NewMetaBean(id string, t reflect.Type, own groups.Group) *MetaBean {
	return &MetaBean{ID: id, Type: t, Group: own, byName: make(map[string]*MetaProperty)}
}

// AddProperty appends p, rejecting duplicate names.
func (b *MetaBean) AddProperty(p *MetaProperty) error {
	if _, ok := b.byName[p.Name]; ok {
		return bverror.New(fmt.Sprintf("duplicate property %q on bean %s", p.Name, b.ID)).
			WithCode(bverror.CodeMetadata).
			WithDetail("bean", b.ID)
	}
	b.Properties = append(b.Properties, p)
	b.byName[p.Name] = p
	return nil
}

// Property returns the property called name.
func (b *MetaBean) Property(name string) (*MetaProperty, bool) {
	p, ok := b.byName[name]
	return p, ok
}

// SetDefaultSequence redefines Default for this bean. The sequence must
// contain the bean's own group.
func (b *MetaBean) SetDefaultSequence(seq []groups.Group) error {
	for _, g := range seq {
		if g == b.Group {
			b.DefaultSequence = seq
			return nil
		}
	}
	return bverror.New(fmt.Sprintf("default group sequence of %s must contain its own group %s", b.ID, b.Group)).
		WithCode(bverror.CodeInvalidSequence).
		WithDetail("bean", b.ID)
}

// HasDefaultSequence reports whether Default is redefined.
func (b *MetaBean) HasDefaultSequence() bool {
	return len(b.DefaultSequence) > 0
}

func (b *MetaBean) String() string {
	return fmt.Sprintf("MetaBean{%s, %d properties}", b.ID, len(b.Properties))
}
