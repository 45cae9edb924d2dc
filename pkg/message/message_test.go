package message

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msto63/beanval/foundation/core/i18n"
	"github.com/msto63/beanval/pkg/constraints"
)

func TestIdentity(t *testing.T) {
	assert.Equal(t, "{constraint.maxValue}", Identity.Interpolate("{constraint.maxValue}", Context{}))
}

func TestTemplateExpandsKeysAndParams(t *testing.T) {
	tmpl := NewTemplate(constraints.NewRegistry().Messages())
	ctx := Context{Kind: "maxValue", Params: map[string]interface{}{"max": "10"}, Value: 12, Property: "age"}

	assert.Equal(t, "must be less than or equal to 10", tmpl.Interpolate("{constraint.maxValue}", ctx))
	assert.Equal(t, "age=12 exceeds 10", tmpl.Interpolate("{property}={value} exceeds {max}", ctx))
	assert.Equal(t, "{unknown} stays", tmpl.Interpolate("{unknown} stays", ctx))
	assert.Equal(t, "literal {max}", tmpl.Interpolate(`literal \{max\}`, ctx))
	assert.Equal(t, "open {max", tmpl.Interpolate("open {max", ctx))
	assert.Equal(t, "plain", tmpl.Interpolate("plain", ctx))
}

func TestTemplateStopsOnSelfReference(t *testing.T) {
	tmpl := NewTemplate(map[string]string{"loop": "x{loop}"})
	assert.Equal(t, "xxxx{loop}", tmpl.Interpolate("{loop}", Context{}))
}

func TestCatalogUsesLocaleAndFallback(t *testing.T) {
	m, err := i18n.New(i18n.Options{
		DefaultLocale: "en",
		FS: fstest.MapFS{
			"de.toml": {Data: []byte("[constraint]\nmaxValue = \"darf höchstens {{.max}} sein\"\n")},
		},
	})
	require.NoError(t, err)

	c := NewCatalog(m, NewTemplate(map[string]string{"custom.key": "custom {max}"}))
	ctx := Context{Params: map[string]interface{}{"max": 3}}

	assert.Equal(t, "must be less than or equal to 3", c.Interpolate("{constraint.maxValue}", ctx))

	ctx.Locale = "de"
	assert.Equal(t, "darf höchstens 3 sein", c.Interpolate("{constraint.maxValue}", ctx))
	assert.Equal(t, "custom 3", c.Interpolate("{custom.key}", ctx))
	assert.Equal(t, "{missing.key}", c.Interpolate("{missing.key}", ctx))
}
