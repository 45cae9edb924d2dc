package validator

import (
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/msto63/beanval/pkg/groups"
	"github.com/msto63/beanval/pkg/message"
	"github.com/msto63/beanval/pkg/metadata"
	"github.com/msto63/beanval/pkg/path"
	"github.com/msto63/beanval/pkg/traversable"

	bverror "github.com/msto63/beanval/foundation/core/error"
	bvlog "github.com/msto63/beanval/foundation/core/log"
)

type visitKey struct {
	typ   reflect.Type
	ptr   uintptr
	group groups.Group
}

// call holds the state of one validation call. It is not safe for
// concurrent use.
type call struct {
	v         *Validator
	operation string
	ctx       *Context
	resolver  traversable.Resolver
	cache     *traversable.Cache
	visited   map[visitKey]bool
	logger    *bvlog.Logger
	timer     *bvlog.Timer
	started   time.Time
}

func (v *Validator) newCall(operation string, root interface{}, rootType reflect.Type, meta *metadata.MetaBean) *call {
	logger := v.opts.Logger.WithCorrelationID(uuid.NewString()).
		WithFields(bvlog.Fields{"operation": operation})
	c := &call{
		v:         v,
		operation: operation,
		ctx:       newContext(root, rootType, meta, v.opts.Locale),
		resolver:  v.opts.Resolver,
		visited:   make(map[visitKey]bool),
		logger:    logger,
		timer:     logger.StartTimer(operation),
		started:   time.Now(),
	}
	if !v.opts.DisableTraversableCache {
		c.resolver = traversable.Cached(c.resolver)
		c.cache, _ = c.resolver.(*traversable.Cache)
	}
	if rootType != nil {
		c.timer.WithField("root_type", rootType.String())
	}
	return c
}

// finish reports the call and returns its result. An error discards the
// violations collected so far.
func (c *call) finish(err error) (Violations, error) {
	violations := c.ctx.listener.violations
	c.timer.WithFields(bvlog.Fields{"violations": len(violations), "failed": err != nil}).Stop()

	report := Report{
		Operation:  c.operation,
		RootType:   c.ctx.rootType,
		Duration:   time.Since(c.started),
		Violations: violations,
		Err:        err,
	}
	if limit := c.v.opts.SlowCallThreshold; limit > 0 && report.Duration > limit {
		c.logger.Warn("slow validation call", bvlog.Fields{"duration": report.Duration.String(), "threshold": limit.String()})
	}
	if c.cache != nil {
		report.CacheHits, report.CacheMisses = c.cache.Stats()
	}
	if c.v.opts.Observer != nil {
		c.v.opts.Observer.ObserveValidation(report)
	}

	if err != nil {
		c.logger.LogError(err)
		return nil, err
	}
	if violations == nil {
		violations = Violations{}
	}
	return violations, nil
}

// runPlan calls fn for the groups of each step. A sequence step stops at the
// first group that adds violations and, when it does, the steps after it are
// skipped. Independent steps never stop the plan.
func (c *call) runPlan(plan *groups.Plan, fn func(g groups.Group) error) error {
	c.logger.Debug("evaluation plan resolved", bvlog.Field("plan", plan.String()))
	for _, step := range plan.Steps {
		if !step.IsSequence() {
			if err := fn(step.Group); err != nil {
				return err
			}
			continue
		}
		for _, g := range step.Sequence {
			before := c.ctx.listener.count()
			if err := fn(g); err != nil {
				return err
			}
			if c.ctx.listener.count() > before {
				c.logger.Debug("group sequence stopped", bvlog.Fields{"sequence": step.Group.String(), "group": g.String()})
				return nil
			}
		}
	}
	return nil
}

// forEachGroup calls fn with g, or, when g is Default and meta redefines
// it, with each group of the redefined sequence until one adds violations.
func (c *call) forEachGroup(meta *metadata.MetaBean, g groups.Group, fn func(g groups.Group) error) error {
	if g != groups.Default || !meta.HasDefaultSequence() {
		return fn(g)
	}
	for _, member := range meta.DefaultSequence {
		expanded, err := c.v.opts.Groups.Expand(member)
		if err != nil {
			return err
		}
		for _, eg := range expanded {
			before := c.ctx.listener.count()
			if err := fn(eg); err != nil {
				return err
			}
			if c.ctx.listener.count() > before {
				return nil
			}
		}
	}
	return nil
}

// validateBean validates the current bean for g unless the same bean is
// already being validated for g further up the graph.
func (c *call) validateBean(g groups.Group) error {
	if key, ok := visitKeyOf(c.ctx.bean, g); ok {
		if c.visited[key] {
			c.logger.Debug("cycle skipped", bvlog.Fields{"path": c.ctx.path.String(), "group": g.String()})
			return nil
		}
		c.visited[key] = true
		defer delete(c.visited, key)
	}
	return c.forEachGroup(c.ctx.meta, g, c.validateGroup)
}

// validateGroup evaluates class-level constraints, then each property in
// declaration order, cascading where declared.
func (c *call) validateGroup(g groups.Group) error {
	meta := c.ctx.meta
	for _, d := range meta.Constraints {
		if !d.AppliesTo(g) {
			continue
		}
		if err := c.evaluate(d, c.ctx.bean, g); err != nil {
			return err
		}
	}

	cascadeGroup := cascadeGroupOf(meta, g)
	for _, p := range meta.Properties {
		if err := c.validateProperty(p, g, cascadeGroup); err != nil {
			return err
		}
	}
	return nil
}

// cascadeGroupOf returns the group values cascaded from meta are validated
// for. The bean's own group stands for its Default constraints, so cascaded
// values continue with Default.
func cascadeGroupOf(meta *metadata.MetaBean, g groups.Group) groups.Group {
	if g == meta.Group {
		return groups.Default
	}
	return g
}

func (c *call) validateProperty(p *metadata.MetaProperty, g, cascadeGroup groups.Group) error {
	node := c.ctx.enterProperty(p)
	defer c.ctx.leaveProperty()

	if err := c.evaluateProperty(p, g); err != nil {
		return err
	}
	if !p.Cascade {
		return nil
	}
	return c.cascade(p, node, cascadeGroup)
}

// evaluateProperty evaluates the constraints of the entered property p that
// apply to g.
func (c *call) evaluateProperty(p *metadata.MetaProperty, g groups.Group) error {
	for _, d := range p.Constraints {
		if !d.AppliesTo(g) {
			continue
		}
		value, err := c.ctx.PropertyValue()
		if err != nil {
			return c.accessError(err)
		}
		if err := c.evaluate(d, value, g); err != nil {
			return err
		}
	}
	return nil
}

// evaluate runs one constraint and records a violation when it fails.
func (c *call) evaluate(d *metadata.ConstraintDescriptor, value interface{}, g groups.Group) error {
	ok, err := d.Constraint.Evaluate(value, c.ctx)
	if err != nil {
		return bverror.Wrap(err, fmt.Sprintf("evaluating %s at %q", d.Kind, c.ctx.path.String())).
			WithCode(bverror.CodeConstraintEvaluation).
			WithOperation("validator." + c.operation).
			WithDetail("constraint", d.Kind).
			WithDetail("path", c.ctx.path.String())
	}
	if ok {
		return nil
	}

	msg := c.v.opts.Interpolator.Interpolate(d.Message, message.Context{
		Kind:     d.Kind,
		Params:   d.Params,
		Value:    value,
		Property: c.ctx.PropertyName(),
		Locale:   c.ctx.locale,
	})
	c.ctx.listener.add(Violation{
		RootBean:        c.ctx.root,
		RootType:        c.ctx.rootType,
		LeafBean:        c.ctx.bean,
		InvalidValue:    value,
		Message:         msg,
		MessageTemplate: d.Message,
		Path:            c.ctx.Path(),
		Constraint:      d,
		Group:           g,
	})
	c.logger.Trace("constraint violated", bvlog.Fields{"path": c.ctx.path.String(), "constraint": d.Kind, "group": g.String()})
	return nil
}

// cascade descends into the value of the entered property p.
func (c *call) cascade(p *metadata.MetaProperty, node *path.Node, g groups.Group) error {
	value, err := c.ctx.PropertyValue()
	if err != nil {
		return c.accessError(err)
	}
	if value == nil {
		return nil
	}
	if ok, err := c.traversable(p, node); err != nil || !ok {
		return err
	}

	childGroup := p.ConvertGroup(g)
	if childGroup != g {
		c.logger.Debug("group converted", bvlog.Fields{"path": c.ctx.path.String(), "from": g.String(), "to": childGroup.String()})
	}

	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}

	container := p.Container
	if container == metadata.ContainerAuto {
		switch rv.Kind() {
		case reflect.Slice, reflect.Array:
			container = metadata.ContainerList
		case reflect.Map:
			container = metadata.ContainerMap
			if c.v.opts.TreatMapsLikeBeans && p.TargetBean != "" {
				container = metadata.ContainerNone
			}
		default:
			container = metadata.ContainerNone
		}
	}

	switch container {
	case metadata.ContainerList:
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return c.containerError(p, value)
		}
		for i := 0; i < rv.Len(); i++ {
			node.SetIndex(i)
			if err := c.cascadeBean(valueOf(rv.Index(i)), p, childGroup); err != nil {
				return err
			}
		}
	case metadata.ContainerMap:
		if rv.Kind() != reflect.Map {
			return c.containerError(p, value)
		}
		keys := rv.MapKeys()
		sortKeys(keys)
		for _, k := range keys {
			node.SetKey(k.Interface())
			if err := c.cascadeBean(valueOf(rv.MapIndex(k)), p, childGroup); err != nil {
				return err
			}
		}
	default:
		return c.cascadeBean(value, p, childGroup)
	}
	return nil
}

// traversable asks the resolver whether the entered property may be
// cascaded.
func (c *call) traversable(p *metadata.MetaProperty, node *path.Node) (bool, error) {
	if ok, err := c.reachable(p, node); err != nil || !ok {
		return false, err
	}
	cascadable, err := c.resolver.IsCascadable(c.ctx.bean, node, c.ctx.rootType, c.ctx.pathToBean(), p.Accessor.Kind())
	if err != nil {
		return false, c.resolverError(err)
	}
	if !cascadable {
		c.logger.Debug("cascade skipped, not cascadable", bvlog.Field("path", c.ctx.path.String()))
	}
	return cascadable, nil
}

// reachable asks the resolver whether the entered property may be read.
func (c *call) reachable(p *metadata.MetaProperty, node *path.Node) (bool, error) {
	ok, err := c.resolver.IsReachable(c.ctx.bean, node, c.ctx.rootType, c.ctx.pathToBean(), p.Accessor.Kind())
	if err != nil {
		return false, c.resolverError(err)
	}
	if !ok {
		c.logger.Debug("property skipped, not reachable", bvlog.Field("path", c.ctx.path.String()))
	}
	return ok, nil
}

// cascadeBean validates value for g as a bean of its own.
func (c *call) cascadeBean(value interface{}, p *metadata.MetaProperty, g groups.Group) error {
	if value == nil {
		return nil
	}
	meta, err := c.metaFor(value, p.TargetBean)
	if err != nil {
		return err
	}
	if meta == nil {
		c.logger.Trace("cascade skipped, not a bean", bvlog.Fields{"path": c.ctx.path.String(), "type": fmt.Sprintf("%T", value)})
		return nil
	}

	c.ctx.MoveDown(value, meta)
	defer c.ctx.MoveUp()
	c.logger.Debug("cascading", bvlog.Fields{"path": c.ctx.path.String(), "bean": meta.ID, "group": g.String()})
	return c.validateBean(g)
}

// metaFor returns the metadata for a cascaded value: the target bean when
// one is named, the value's struct type otherwise, or nil for values that
// are not beans.
func (c *call) metaFor(value interface{}, target string) (*metadata.MetaBean, error) {
	if target != "" {
		idp, ok := c.v.opts.Provider.(metadata.IDProvider)
		if !ok {
			return nil, bverror.New(fmt.Sprintf("provider cannot resolve bean %q by id", target)).
				WithCode(bverror.CodeMetadata).
				WithOperation("validator." + c.operation)
		}
		return idp.MetaBeanByID(target)
	}

	t := reflect.TypeOf(value)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, nil
	}
	return c.v.opts.Provider.MetaBeanFor(reflect.TypeOf(value))
}

func (c *call) accessError(err error) error {
	return bverror.Wrap(err, "reading "+c.ctx.path.String()).
		WithCode(bverror.GetCode(err)).
		WithOperation("validator." + c.operation)
}

func (c *call) resolverError(err error) error {
	return bverror.Wrap(err, "traversable resolution failed at "+c.ctx.path.String()).
		WithCode(bverror.CodeTraversableResolution).
		WithOperation("validator." + c.operation)
}

func (c *call) containerError(p *metadata.MetaProperty, value interface{}) error {
	return bverror.New(fmt.Sprintf("property %s is declared as %s but holds %T", p.Name, p.Container, value)).
		WithCode(bverror.CodeMetadata).
		WithOperation("validator." + c.operation).
		WithDetail("path", c.ctx.path.String())
}

// visitKeyOf identifies beans that can take part in a cycle.
func visitKeyOf(bean interface{}, g groups.Group) (visitKey, bool) {
	rv := reflect.ValueOf(bean)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map:
		if rv.IsNil() {
			return visitKey{}, false
		}
		return visitKey{typ: rv.Type(), ptr: rv.Pointer(), group: g}, true
	default:
		return visitKey{}, false
	}
}

// valueOf unwraps interfaces and maps nil pointers to nil.
func valueOf(v reflect.Value) interface{} {
	for v.IsValid() && v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if !v.IsValid() || (v.Kind() == reflect.Ptr && v.IsNil()) {
		return nil
	}
	return v.Interface()
}

// sortKeys orders map keys so that traversal is deterministic.
func sortKeys(keys []reflect.Value) {
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		switch a.Kind() {
		case reflect.String:
			return a.String() < b.String()
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return a.Int() < b.Int()
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			return a.Uint() < b.Uint()
		case reflect.Float32, reflect.Float64:
			return a.Float() < b.Float()
		default:
			return fmt.Sprint(a.Interface()) < fmt.Sprint(b.Interface())
		}
	})
}
