package validator

import (
	"reflect"
	"time"

	"github.com/msto63/beanval/foundation/core/config"
	"github.com/msto63/beanval/foundation/core/i18n"
	"github.com/msto63/beanval/pkg/constraints"
	"github.com/msto63/beanval/pkg/groups"
	"github.com/msto63/beanval/pkg/message"
	"github.com/msto63/beanval/pkg/metadata"
	"github.com/msto63/beanval/pkg/traversable"

	bverror "github.com/msto63/beanval/foundation/core/error"
	bvlog "github.com/msto63/beanval/foundation/core/log"
)

// Options configures a Validator. Zero values select defaults.
type Options struct {
	// Provider supplies bean metadata. Defaults to a metadata.TagProvider
	// sharing Groups' registry and Constraints.
	Provider metadata.Provider
	// Groups computes evaluation plans. Defaults to a fresh resolver.
	Groups *groups.Resolver
	// Constraints resolves constraint kinds for the default provider and
	// default messages.
	Constraints *constraints.Registry
	// Resolver decides reachability and cascadability. Defaults to
	// traversable.Always.
	Resolver traversable.Resolver
	// DisableTraversableCache calls Resolver directly instead of through a
	// per-call traversable.Cache.
	DisableTraversableCache bool
	// Interpolator renders violation messages. Defaults to a
	// message.Template over the constraint registry's messages.
	Interpolator message.Interpolator
	// TreatMapsLikeBeans validates a cascaded map that names a target bean
	// as that bean instead of iterating its values.
	TreatMapsLikeBeans bool
	// Locale is passed to the interpolator.
	Locale string
	// SlowCallThreshold, when positive, logs a warning for every call that
	// takes longer.
	SlowCallThreshold time.Duration
	// Logger receives debug output. Defaults to a logger at warn level.
	Logger *bvlog.Logger
	// Observer is notified after each call.
	Observer Observer
}

// Report summarizes one validation call for an Observer.
type Report struct {
	Operation   string
	RootType    reflect.Type
	Duration    time.Duration
	Violations  Violations
	Err         error
	CacheHits   int
	CacheMisses int
}

// Observer is notified after each validation call.
type Observer interface {
	ObserveValidation(r Report)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(r Report)

// ObserveValidation calls f.
func (f ObserverFunc) ObserveValidation(r Report) { f(r) }

// ConfigRules are the configuration keys read by OptionsFromConfig.
var ConfigRules = config.ValidationRules{
	"validator.treat_maps_like_beans": {Type: "bool", Default: false},
	"validator.cache_traversable":     {Type: "bool", Default: true},
	"validator.slow_call_threshold":   {Type: "duration"},
	"validator.groups":                {Type: "[]string"},
	"log.level":                       {Type: "string", OneOf: []string{"trace", "debug", "info", "warn", "error", "off"}, Default: "warn"},
	"log.format":                      {Type: "string", OneOf: []string{"json", "text"}, Default: "text"},
	"messages.locale":                 {Type: "string", Pattern: `^([a-zA-Z]{2,3}([_-][a-zA-Z]{2,4})?)?$`},
	"messages.dir":                    {Type: "string"},
}

// OptionsFromConfig builds options from the keys in ConfigRules. When a
// message locale or directory is configured, messages are rendered through
// an i18n catalog.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	var opts Options
	if err := cfg.Validate(ConfigRules).Err(); err != nil {
		return opts, err
	}

	level, err := bvlog.ParseLevel(cfg.GetString("log.level", "warn"))
	if err != nil {
		return opts, bverror.Wrap(err, "invalid log level").WithCode(bverror.CodeInvalidConfig)
	}
	format, err := bvlog.ParseFormat(cfg.GetString("log.format", "text"))
	if err != nil {
		return opts, bverror.Wrap(err, "invalid log format").WithCode(bverror.CodeInvalidConfig)
	}
	opts.Logger = bvlog.NewWithConfig(bvlog.Config{Level: level, Format: format, Name: "beanval"})

	opts.TreatMapsLikeBeans = cfg.GetBool("validator.treat_maps_like_beans", false)
	opts.DisableTraversableCache = !cfg.GetBool("validator.cache_traversable", true)
	opts.SlowCallThreshold = cfg.GetDuration("validator.slow_call_threshold")

	locale := cfg.GetString("messages.locale")
	dir := cfg.GetString("messages.dir")
	if locale == "" && dir == "" {
		return opts, nil
	}
	if locale != "" {
		locale = i18n.NormalizeLocale(locale)
	}
	manager, err := i18n.New(i18n.Options{DefaultLocale: "en", LocalesDir: dir})
	if err != nil {
		return opts, bverror.Wrap(err, "loading message catalogs").
			WithCode(bverror.CodeInvalidConfig).
			WithOperation("validator.OptionsFromConfig")
	}
	if language, _ := i18n.SplitLocale(locale); locale != "" && !manager.HasLocale(locale) && !manager.HasLocale(language) {
		opts.Logger.Warn("no message catalog for locale, using the default", bvlog.Fields{"locale": locale, "default": "en"})
	}
	opts.Constraints = constraints.NewRegistry()
	opts.Interpolator = message.NewCatalog(manager, message.NewTemplate(opts.Constraints.Messages()))
	opts.Locale = locale
	return opts, nil
}

func (o Options) withDefaults() Options {
	if o.Groups == nil {
		o.Groups = groups.NewResolver(nil, nil)
	}
	if o.Constraints == nil {
		o.Constraints = constraints.NewRegistry()
	}
	if o.Provider == nil {
		o.Provider = metadata.NewTagProvider(o.Constraints, o.Groups.Registry())
	}
	if o.Resolver == nil {
		o.Resolver = traversable.Always
	}
	if o.Interpolator == nil {
		o.Interpolator = message.NewTemplate(o.Constraints.Messages())
	}
	if o.Logger == nil {
		o.Logger = bvlog.New()
	}
	return o
}
