package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/msto63/beanval/foundation/core/config"
	"github.com/msto63/beanval/foundation/core/i18n"
	"github.com/msto63/beanval/pkg/constraints"
	"github.com/msto63/beanval/pkg/groups"
	"github.com/msto63/beanval/pkg/mapping"
	"github.com/msto63/beanval/pkg/metrics"
	"github.com/msto63/beanval/pkg/validator"

	bverror "github.com/msto63/beanval/foundation/core/error"
	bvlog "github.com/msto63/beanval/foundation/core/log"
)

type validateOptions struct {
	*rootOptions
	mappings []string
	bean     string
	groups   []string
	output   string
	metrics  bool
}

func newValidateCommand(root *rootOptions) *cobra.Command {
	o := &validateOptions{rootOptions: root}
	cmd := &cobra.Command{
		Use:   "validate <document>",
		Short: "Validate a document against a mapped bean",
		Long: `Validates a JSON, YAML or TOML document against a bean declared in one
or more mapping files. Exits non-zero when the document has violations.

Example:
  beanval validate --mapping customer.yaml --bean customer --groups Basic order.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0])
		},
	}
	cmd.Flags().StringSliceVarP(&o.mappings, "mapping", "m", nil, "mapping file (repeatable)")
	cmd.Flags().StringVarP(&o.bean, "bean", "b", "", "id of the bean the document is validated as")
	cmd.Flags().StringSliceVarP(&o.groups, "groups", "g", nil, "groups to validate (default: Default)")
	cmd.Flags().StringVarP(&o.output, "output", "o", "text", "output format: text or json")
	cmd.Flags().BoolVar(&o.metrics, "metrics", false, "print Prometheus metrics of the run")
	_ = cmd.MarkFlagRequired("mapping")
	_ = cmd.MarkFlagRequired("bean")
	return cmd
}

func (o *validateOptions) run(out, errOut io.Writer, document string) error {
	if o.output != "text" && o.output != "json" {
		return bverror.New(fmt.Sprintf("unknown output format %q", o.output)).
			WithCode(bverror.CodeInvalidInput)
	}

	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	catalog, err := reportCatalog(cfg)
	if err != nil {
		return err
	}
	opts, err := validator.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}
	opts.Logger = opts.Logger.WithOutput(errOut)
	if o.verbose && opts.Logger.GetLevel() > bvlog.LevelDebug {
		opts.Logger = opts.Logger.WithLevel(bvlog.LevelDebug)
	}
	opts.Logger.Debug("configuration loaded", bvlog.Fields{"file": cfg.FilePath(), "locale": catalog.GetCurrentLocale()})
	if opts.Constraints == nil {
		opts.Constraints = constraints.NewRegistry()
	}

	registry := groups.NewRegistry()
	loader := mapping.NewLoader(registry, opts.Constraints, nil)
	loader.Logger = opts.Logger.WithName("beanval.mapping")
	beans, err := loader.LoadFiles(o.mappings...)
	if err != nil {
		return err
	}
	opts.Provider = beans
	opts.Groups = groups.NewResolver(registry, nil)

	var reg *prometheus.Registry
	if o.metrics {
		reg = prometheus.NewRegistry()
		mcfg := metrics.DefaultConfig()
		mcfg.Registerer = reg
		m, err := metrics.New(mcfg)
		if err != nil {
			return err
		}
		opts.Observer = m
	}

	meta, err := beans.MetaBeanByID(o.bean)
	if err != nil {
		return err
	}
	names := o.groups
	if len(names) == 0 {
		names = cfg.GetStringSlice("validator.groups")
	}
	gs, err := lookupGroups(registry, names)
	if err != nil {
		return err
	}
	doc, err := readDocument(document)
	if err != nil {
		return err
	}

	vs, err := validator.New(opts).ValidateBean(doc, meta, gs...)
	if err != nil {
		return err
	}

	if o.output == "json" {
		err = writeJSON(out, vs)
	} else {
		writeText(out, catalog, o.bean, vs)
	}
	if err != nil {
		return err
	}
	if reg != nil {
		if err := writeMetrics(out, reg); err != nil {
			return err
		}
	}
	if !vs.Valid() {
		return errInvalid
	}
	return nil
}

func lookupGroups(registry *groups.Registry, names []string) ([]groups.Group, error) {
	gs := make([]groups.Group, 0, len(names))
	for _, name := range names {
		g, ok := registry.Lookup(strings.TrimSpace(name))
		if !ok {
			return nil, bverror.New(fmt.Sprintf("unknown group %q", name)).
				WithCode(bverror.CodeInvalidGroup).
				WithDetail("group", name)
		}
		gs = append(gs, g)
	}
	return gs, nil
}

// readDocument decodes the document at path into a map, choosing the
// decoder by file extension.
func readDocument(path string) (map[string]interface{}, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, bverror.Wrap(err, "reading document").
			WithCode(bverror.CodeNotFound).
			WithDetail("path", path)
	}

	doc := make(map[string]interface{})
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(content, &doc)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(content, &doc)
	case ".toml":
		_, err = toml.Decode(string(content), &doc)
	default:
		return nil, bverror.New(fmt.Sprintf("unsupported document type %q", filepath.Ext(path))).
			WithCode(bverror.CodeInvalidInput).
			WithDetail("path", path)
	}
	if err != nil {
		return nil, bverror.Wrap(err, "decoding document").
			WithCode(bverror.CodeInvalidInput).
			WithDetail("path", path)
	}
	return doc, nil
}

// reportCatalog returns the catalog the report header is rendered from. The
// locale is messages.locale or, when unset, the locale of the environment
// matched against the available catalogs. A detected locale other than the
// default is also used for the violation messages.
func reportCatalog(cfg *config.Config) (*i18n.Manager, error) {
	catalog, err := i18n.New(i18n.Options{DefaultLocale: "en", LocalesDir: cfg.GetString("messages.dir")})
	if err != nil {
		return nil, bverror.Wrap(err, "loading message catalogs").
			WithCode(bverror.CodeInvalidConfig).
			WithOperation("cmd.validate")
	}

	configured := cfg.Has("messages.locale")
	requested := i18n.NormalizeLocale(cfg.GetString("messages.locale"))
	if !configured {
		requested = i18n.LocaleFromEnvironment()
	}
	locale := catalog.DetectLocale(requested)
	if err := catalog.SetLocale(locale); err != nil {
		return nil, err
	}
	if !configured && locale != "en" {
		cfg.Set("messages.locale", locale)
	}
	return catalog, nil
}

func writeText(w io.Writer, catalog *i18n.Manager, bean string, vs validator.Violations) {
	if vs.Valid() {
		fmt.Fprintln(w, validStyle.Render("✓ "+bean+": "+catalog.T("report.valid")))
		return
	}
	header := catalog.Plural("report.violations", len(vs), nil)
	fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("✗ %s: %s", bean, header)))

	width := 0
	for _, v := range vs {
		if n := len(v.Path.String()); n > width {
			width = n
		}
	}
	for _, v := range vs {
		fmt.Fprintf(w, "  %s  %s %s\n",
			column(pathStyle, v.Path.String(), width),
			v.Message,
			mutedStyle.Render("("+v.Reason()+")"))
	}
}

type violationJSON struct {
	Path         string      `json:"path"`
	Message      string      `json:"message"`
	Constraint   string      `json:"constraint"`
	Group        string      `json:"group"`
	InvalidValue interface{} `json:"invalid_value"`
}

func writeJSON(w io.Writer, vs validator.Violations) error {
	out := make([]violationJSON, 0, len(vs))
	for _, v := range vs {
		out = append(out, violationJSON{
			Path:         v.Path.String(),
			Message:      v.Message,
			Constraint:   v.Reason(),
			Group:        v.Group.String(),
			InvalidValue: v.InvalidValue,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writeMetrics(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return bverror.Wrap(err, "gathering metrics").WithCode(bverror.CodeInternal)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return bverror.Wrap(err, "writing metrics").WithCode(bverror.CodeInternal)
		}
	}
	return nil
}
