package mapping

import (
	"fmt"

	"github.com/msto63/beanval/pkg/constraints"
	"github.com/msto63/beanval/pkg/groups"
	"github.com/msto63/beanval/pkg/metadata"

	bverror "github.com/msto63/beanval/foundation/core/error"
	bvlog "github.com/msto63/beanval/foundation/core/log"
)

// Loader turns documents into metadata. Groups declared in a document are
// registered with Groups so that validation requests and struct tags can
// name them.
type Loader struct {
	Groups      *groups.Registry
	Constraints *constraints.Registry
	// Fallback serves types and ids the documents do not declare.
	Fallback metadata.Provider
	Logger   *bvlog.Logger
}

// NewLoader creates a loader. Nil registries are replaced by fresh ones.
func NewLoader(gr *groups.Registry, cr *constraints.Registry, fallback metadata.Provider) *Loader {
	if gr == nil {
		gr = groups.NewRegistry()
	}
	if cr == nil {
		cr = constraints.NewRegistry()
	}
	return &Loader{Groups: gr, Constraints: cr, Fallback: fallback, Logger: bvlog.Discard()}
}

// Load registers the groups of all documents, then builds their beans.
// Bean targets may refer to beans of any of the documents.
func (l *Loader) Load(docs ...*Document) (*metadata.Beans, error) {
	beanIDs := make(map[string]bool)
	for _, doc := range docs {
		for _, b := range doc.Beans {
			if b.ID == "" {
				return nil, loadError("bean without id", "")
			}
			if beanIDs[b.ID] {
				return nil, loadError(fmt.Sprintf("bean %q is declared twice", b.ID), b.ID)
			}
			beanIDs[b.ID] = true
		}
	}

	for _, doc := range docs {
		if err := l.registerGroups(doc.Groups, beanIDs); err != nil {
			return nil, err
		}
	}

	beans := metadata.NewBeans(l.Fallback)
	for _, doc := range docs {
		for _, spec := range doc.Beans {
			mb, err := l.bean(spec)
			if err != nil {
				return nil, err
			}
			if err := beans.Add(mb); err != nil {
				return nil, err
			}
			l.Logger.Debug("bean mapped", bvlog.Fields{"bean": mb.ID, "properties": len(mb.Properties)})
		}
	}

	if err := checkTargets(beans, docs); err != nil {
		return nil, err
	}
	return beans, nil
}

// LoadFiles reads every file and loads them together.
func (l *Loader) LoadFiles(paths ...string) (*metadata.Beans, error) {
	docs := make([]*Document, 0, len(paths))
	for _, p := range paths {
		doc, err := LoadFile(p)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return l.Load(docs...)
}

// registerGroups registers names first so that extends and sequence
// entries may refer to groups declared later in the document.
func (l *Loader) registerGroups(specs []GroupSpec, beanIDs map[string]bool) error {
	for _, s := range specs {
		if s.Name == "" {
			return loadError("group without name", "")
		}
		if beanIDs[s.Name] {
			return loadError(fmt.Sprintf("group %q has the same name as a bean", s.Name), s.Name)
		}
		if _, ok := l.Groups.Lookup(s.Name); ok {
			continue
		}
		if err := l.Groups.Register(groups.Named(s.Name)); err != nil {
			return err
		}
	}

	for _, s := range specs {
		if len(s.Extends) > 0 && len(s.Sequence) > 0 {
			return loadError(fmt.Sprintf("group %q both extends groups and defines a sequence", s.Name), s.Name)
		}
		g, _ := l.Groups.Lookup(s.Name)
		if len(s.Extends) > 0 {
			parents, err := l.lookupGroups(s.Extends)
			if err != nil {
				return err
			}
			if err := l.Groups.DefineExtends(g, parents...); err != nil {
				return err
			}
		}
		if len(s.Sequence) > 0 {
			members, err := l.lookupGroups(s.Sequence)
			if err != nil {
				return err
			}
			if err := l.Groups.DefineSequence(g, members...); err != nil {
				return err
			}
		}
	}
	return nil
}

func (l *Loader) bean(spec BeanSpec) (*metadata.MetaBean, error) {
	own := groups.Named(spec.ID)
	mb := metadata.NewMetaBean(spec.ID, nil, own)

	class, err := l.descriptors(spec.Validate, spec.Groups, spec.Message, own)
	if err != nil {
		return nil, withBean(err, spec.ID)
	}
	mb.Constraints = class

	for _, ps := range spec.Properties {
		p, err := l.property(ps, own)
		if err != nil {
			return nil, withBean(err, spec.ID)
		}
		if err := mb.AddProperty(p); err != nil {
			return nil, err
		}
	}

	if len(spec.DefaultSequence) > 0 {
		seq := make([]groups.Group, 0, len(spec.DefaultSequence))
		for _, name := range spec.DefaultSequence {
			if name == spec.ID {
				seq = append(seq, own)
				continue
			}
			g, err := l.lookupGroup(name)
			if err != nil {
				return nil, withBean(err, spec.ID)
			}
			seq = append(seq, g)
		}
		if err := mb.SetDefaultSequence(seq); err != nil {
			return nil, err
		}
	}
	return mb, nil
}

func (l *Loader) property(spec PropertySpec, own groups.Group) (*metadata.MetaProperty, error) {
	if spec.Name == "" {
		return nil, loadError("property without name", "")
	}
	p := &metadata.MetaProperty{
		Name:       spec.Name,
		Accessor:   metadata.NewMapKeyAccessor(spec.Name),
		Cascade:    spec.Cascade,
		TargetBean: spec.Target,
	}

	var err error
	if p.Constraints, err = l.descriptors(spec.Validate, spec.Groups, spec.Message, own); err != nil {
		return nil, withProperty(err, spec.Name)
	}
	if p.Container, err = metadata.ParseContainerKind(spec.Container); err != nil {
		return nil, withProperty(err, spec.Name)
	}

	if !spec.Cascade && (spec.Container != "" || spec.Target != "" || len(spec.Convert) > 0) {
		return nil, loadError(fmt.Sprintf("property %q sets cascade options without cascade", spec.Name), spec.Name)
	}
	if len(spec.Convert) > 0 {
		p.ConvertGroups = make(map[groups.Group]groups.Group, len(spec.Convert))
		for from, to := range spec.Convert {
			fg, err := l.lookupGroup(from)
			if err != nil {
				return nil, withProperty(err, spec.Name)
			}
			tg, err := l.lookupGroup(to)
			if err != nil {
				return nil, withProperty(err, spec.Name)
			}
			p.ConvertGroups[fg] = tg
		}
	}
	return p, nil
}

func (l *Loader) descriptors(rules string, groupNames []string, message string, own groups.Group) ([]*metadata.ConstraintDescriptor, error) {
	parsed, err := constraints.ParseRules(rules)
	if err != nil {
		return nil, err
	}
	gs, err := l.lookupGroups(groupNames)
	if err != nil {
		return nil, err
	}
	out := make([]*metadata.ConstraintDescriptor, 0, len(parsed))
	for _, rule := range parsed {
		c, params, err := l.Constraints.BuildRule(rule)
		if err != nil {
			return nil, err
		}
		d := metadata.NewDescriptor(rule.Kind, c, params, message, gs...)
		d.Host = own
		out = append(out, d)
	}
	return out, nil
}

func (l *Loader) lookupGroups(names []string) ([]groups.Group, error) {
	out := make([]groups.Group, 0, len(names))
	for _, name := range names {
		g, err := l.lookupGroup(name)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

func (l *Loader) lookupGroup(name string) (groups.Group, error) {
	g, ok := l.Groups.Lookup(name)
	if !ok {
		return groups.Group{}, bverror.New(fmt.Sprintf("unknown group %q", name)).
			WithCode(bverror.CodeInvalidGroup).
			WithOperation("mapping.Load").
			WithDetail("group", name)
	}
	return g, nil
}

func checkTargets(beans *metadata.Beans, docs []*Document) error {
	for _, doc := range docs {
		for _, b := range doc.Beans {
			for _, p := range b.Properties {
				if p.Target == "" {
					continue
				}
				if _, err := beans.MetaBeanByID(p.Target); err != nil {
					return bverror.Wrap(err, fmt.Sprintf("property %s.%s targets unknown bean %q", b.ID, p.Name, p.Target)).
						WithCode(bverror.CodeMetadata).
						WithOperation("mapping.Load")
				}
			}
		}
	}
	return nil
}

func loadError(msg, subject string) error {
	err := bverror.New(msg).
		WithCode(bverror.CodeMetadata).
		WithOperation("mapping.Load")
	if subject != "" {
		err = err.WithDetail("name", subject)
	}
	return err
}

func withBean(err error, id string) error {
	return bverror.Wrap(err, "mapping bean "+id).
		WithCode(bverror.GetCode(err)).
		WithOperation("mapping.Load").
		WithDetail("bean", id)
}

func withProperty(err error, name string) error {
	return bverror.Wrap(err, "mapping property "+name).
		WithCode(bverror.GetCode(err)).
		WithDetail("property", name)
}
