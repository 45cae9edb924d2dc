package metadata

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/msto63/beanval/pkg/constraints"
	"github.com/msto63/beanval/pkg/groups"

	bverror "github.com/msto63/beanval/foundation/core/error"
)

// Struct tags read by TagProvider.
const (
	TagValidate = "validate" // constraint rules: "mandatory;maxValue:10"
	TagGroups   = "groups"   // group names: "Insert,Update"
	TagValid    = "valid"    // "cascade" marks the field for cascading
	TagConvert  = "convert"  // group conversion: "Default->Insert"
	TagMessage  = "message"  // message template for the field's constraints
	TagTarget   = "target"   // bean id for cascaded values resolved by id
)

// ClassConstraint declares a constraint on the bean as a whole.
type ClassConstraint struct {
	Kind string
	// Constraint is used as is when set; otherwise it is built from Kind and
	// Params through the constraint registry.
	Constraint constraints.Constraint
	Params     map[string]interface{}
	Groups     []groups.Group
	Message    string
}

// BeanConstraints is implemented by beans declaring class-level constraints.
type BeanConstraints interface {
	BeanConstraints() []ClassConstraint
}

// DefaultSequencer is implemented by beans redefining their Default group.
// The sequence must contain groups.ForType of the bean type.
type DefaultSequencer interface {
	DefaultSequence() []groups.Group
}

// GetterProperty declares a property read through a getter method, using
// the same syntax as the struct tags.
type GetterProperty struct {
	Method  string
	Name    string // defaults to Method
	Rules   string
	Groups  string
	Message string
	Cascade bool
}

// GetterDeclarer is implemented by beans exposing validated getters.
type GetterDeclarer interface {
	GetterProperties() []GetterProperty
}

var (
	beanConstraintsType  = reflect.TypeOf((*BeanConstraints)(nil)).Elem()
	defaultSequencerType = reflect.TypeOf((*DefaultSequencer)(nil)).Elem()
	getterDeclarerType   = reflect.TypeOf((*GetterDeclarer)(nil)).Elem()
)

// TagProvider builds metamodels from struct tags. Metamodels are built once
// per type and shared; the provider is safe for concurrent use.
type TagProvider struct {
	constraints *constraints.Registry
	groups      *groups.Registry

	types  sync.Map // reflect.Type -> *MetaBean
	flight singleflight.Group
}

// NewTagProvider creates a provider resolving constraint kinds through cr and
// group names through gr. Nil registries are replaced by fresh ones.
func NewTagProvider(cr *constraints.Registry, gr *groups.Registry) *TagProvider {
	if cr == nil {
		cr = constraints.NewRegistry()
	}
	if gr == nil {
		gr = groups.NewRegistry()
	}
	return &TagProvider{constraints: cr, groups: gr}
}

// MetaBeanFor returns the metamodel of t, which must be a struct or a
// pointer to one.
func (p *TagProvider) MetaBeanFor(t reflect.Type) (*MetaBean, error) {
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, bverror.New(fmt.Sprintf("no metadata for non-struct type %v", t)).
			WithCode(bverror.CodeMetadata).
			WithOperation("metadata.MetaBeanFor")
	}

	if mb, ok := p.types.Load(t); ok {
		return mb.(*MetaBean), nil
	}

	v, err, _ := p.flight.Do(typeKey(t), func() (interface{}, error) {
		if mb, ok := p.types.Load(t); ok {
			return mb, nil
		}
		mb, err := p.build(t)
		if err != nil {
			return nil, err
		}
		p.types.Store(t, mb)
		return mb, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*MetaBean), nil
}

// Len returns the number of cached metamodels.
func (p *TagProvider) Len() int {
	n := 0
	p.types.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n
}

func typeKey(t reflect.Type) string {
	return t.PkgPath() + "#" + t.String()
}

func (p *TagProvider) build(t reflect.Type) (*MetaBean, error) {
	own := groups.ForType(t)
	mb := NewMetaBean(t.String(), t, own)

	for _, f := range reflect.VisibleFields(t) {
		if f.Anonymous || !f.IsExported() || f.Tag.Get(TagValidate) == "-" {
			continue
		}
		prop, err := p.fieldProperty(t, f, own)
		if err != nil {
			return nil, bverror.Wrap(err, "building metadata for "+t.String()).
				WithCode(bverror.CodeMetadata).
				WithOperation("metadata.MetaBeanFor").
				WithDetail("field", f.Name)
		}
		if err := mb.AddProperty(prop); err != nil {
			return nil, err
		}
	}

	zero := reflect.New(t)
	if zero.Type().Implements(getterDeclarerType) {
		for _, g := range zero.Interface().(GetterDeclarer).GetterProperties() {
			prop, err := p.getterProperty(t, g, own)
			if err != nil {
				return nil, bverror.Wrap(err, "building metadata for "+t.String()).
					WithCode(bverror.CodeMetadata).
					WithOperation("metadata.MetaBeanFor").
					WithDetail("method", g.Method)
			}
			if err := mb.AddProperty(prop); err != nil {
				return nil, err
			}
		}
	}
	if zero.Type().Implements(beanConstraintsType) {
		for _, cc := range zero.Interface().(BeanConstraints).BeanConstraints() {
			d, err := p.classDescriptor(cc, own)
			if err != nil {
				return nil, bverror.Wrap(err, "building class constraints for "+t.String()).
					WithCode(bverror.CodeMetadata).
					WithOperation("metadata.MetaBeanFor")
			}
			mb.Constraints = append(mb.Constraints, d)
		}
	}
	if zero.Type().Implements(defaultSequencerType) {
		if err := mb.SetDefaultSequence(zero.Interface().(DefaultSequencer).DefaultSequence()); err != nil {
			return nil, err
		}
	}
	return mb, nil
}

// propertySpec carries the declaration of one property in tag syntax.
type propertySpec struct {
	validate string
	groups   string
	valid    string
	convert  string
	message  string
	target   string
}

func tagSpec(tag reflect.StructTag) propertySpec {
	return propertySpec{
		validate: tag.Get(TagValidate),
		groups:   tag.Get(TagGroups),
		valid:    tag.Get(TagValid),
		convert:  tag.Get(TagConvert),
		message:  tag.Get(TagMessage),
		target:   tag.Get(TagTarget),
	}
}

func (p *TagProvider) fieldProperty(t reflect.Type, f reflect.StructField, own groups.Group) (*MetaProperty, error) {
	name := propertyName(f)

	var declaring reflect.Type
	if len(f.Index) > 1 {
		declaring = t.FieldByIndex(f.Index[:len(f.Index)-1]).Type
		for declaring.Kind() == reflect.Ptr {
			declaring = declaring.Elem()
		}
	}
	return p.property(name, NewFieldAccessor(name, f), declaring, own, tagSpec(f.Tag))
}

func (p *TagProvider) property(name string, acc Accessor, declaring reflect.Type, own groups.Group, spec propertySpec) (*MetaProperty, error) {
	prop := &MetaProperty{
		Name:       name,
		Accessor:   acc,
		TargetBean: spec.target,
	}

	gs, err := p.lookupGroups(spec.groups)
	if err != nil {
		return nil, err
	}

	rules, err := constraints.ParseRules(spec.validate)
	if err != nil {
		return nil, err
	}
	for _, rule := range rules {
		c, params, err := p.constraints.BuildRule(rule)
		if err != nil {
			return nil, err
		}
		d := NewDescriptor(rule.Kind, c, params, spec.message, gs...)
		d.Host = own
		d.DeclaringType = declaring
		prop.Constraints = append(prop.Constraints, d)
	}

	if spec.valid != "" {
		kind, container, _ := strings.Cut(spec.valid, ",")
		if strings.TrimSpace(kind) != "cascade" {
			return nil, bverror.New(fmt.Sprintf("unknown valid tag %q", spec.valid)).WithCode(bverror.CodeMetadata)
		}
		prop.Cascade = true
		if prop.Container, err = ParseContainerKind(strings.TrimSpace(container)); err != nil {
			return nil, err
		}
	}

	if spec.convert != "" {
		if !prop.Cascade {
			return nil, bverror.New("group conversion requires a cascaded property").WithCode(bverror.CodeMetadata)
		}
		if prop.ConvertGroups, err = p.ParseConversions(spec.convert); err != nil {
			return nil, err
		}
	}
	return prop, nil
}

func (p *TagProvider) getterProperty(t reflect.Type, g GetterProperty, own groups.Group) (*MetaProperty, error) {
	m, ok := reflect.PointerTo(t).MethodByName(g.Method)
	if !ok {
		return nil, bverror.New(fmt.Sprintf("%s has no method %s", t, g.Method)).
			WithCode(bverror.CodeMetadata).
			WithDetail("method", g.Method)
	}
	name := g.Name
	if name == "" {
		name = g.Method
	}
	acc, err := NewMethodAccessor(name, m)
	if err != nil {
		return nil, err
	}
	valid := ""
	if g.Cascade {
		valid = "cascade"
	}
	return p.property(name, acc, nil, own, propertySpec{
		validate: g.Rules,
		groups:   g.Groups,
		valid:    valid,
		message:  g.Message,
	})
}

func (p *TagProvider) classDescriptor(cc ClassConstraint, own groups.Group) (*ConstraintDescriptor, error) {
	c := cc.Constraint
	if c == nil {
		var err error
		if c, _, err = p.constraints.Build(cc.Kind, cc.Params); err != nil {
			return nil, err
		}
	}
	d := NewDescriptor(cc.Kind, c, cc.Params, cc.Message, cc.Groups...)
	d.Host = own
	return d, nil
}

func (p *TagProvider) lookupGroups(list string) ([]groups.Group, error) {
	var gs []groups.Group
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		g, err := p.lookupGroup(name)
		if err != nil {
			return nil, err
		}
		gs = append(gs, g)
	}
	return gs, nil
}

func (p *TagProvider) lookupGroup(name string) (groups.Group, error) {
	g, ok := p.groups.Lookup(name)
	if !ok {
		return groups.Group{}, bverror.New(fmt.Sprintf("unknown group %q", name)).
			WithCode(bverror.CodeInvalidGroup).
			WithDetail("group", name)
	}
	return g, nil
}

// ParseConversions parses "From->To" pairs separated by commas, resolving
// group names through the provider's group registry.
func (p *TagProvider) ParseConversions(text string) (map[groups.Group]groups.Group, error) {
	return ParseConversions(text, p.lookupGroup)
}

// ParseConversions parses "From->To" pairs separated by commas.
func ParseConversions(text string, lookup func(string) (groups.Group, error)) (map[groups.Group]groups.Group, error) {
	out := make(map[groups.Group]groups.Group)
	for _, pair := range strings.Split(text, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		from, to, ok := strings.Cut(pair, "->")
		if !ok {
			return nil, bverror.New(fmt.Sprintf("malformed group conversion %q", pair)).
				WithCode(bverror.CodeInvalidGroup)
		}
		fg, err := lookup(strings.TrimSpace(from))
		if err != nil {
			return nil, err
		}
		tg, err := lookup(strings.TrimSpace(to))
		if err != nil {
			return nil, err
		}
		if _, dup := out[fg]; dup {
			return nil, bverror.New(fmt.Sprintf("group %s is converted twice", fg)).
				WithCode(bverror.CodeInvalidGroup)
		}
		out[fg] = tg
	}
	return out, nil
}

// propertyName uses the first json tag component when present so that
// paths match the serialized form.
func propertyName(f reflect.StructField) string {
	if name, _, _ := strings.Cut(f.Tag.Get("json"), ","); name != "" && name != "-" {
		return name
	}
	return f.Name
}
