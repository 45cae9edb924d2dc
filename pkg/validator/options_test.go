package validator

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msto63/beanval/foundation/core/config"
	"github.com/msto63/beanval/pkg/message"

	bverror "github.com/msto63/beanval/foundation/core/error"
	bvlog "github.com/msto63/beanval/foundation/core/log"
)

func TestOptionsFromConfig(t *testing.T) {
	cfg, err := config.LoadFromString(`
[validator]
treat_maps_like_beans = true
cache_traversable = false

[log]
level = "debug"
format = "json"

[messages]
locale = "de_DE"
`, config.FormatTOML)
	require.NoError(t, err)

	opts, err := OptionsFromConfig(cfg)
	require.NoError(t, err)
	assert.True(t, opts.TreatMapsLikeBeans)
	assert.True(t, opts.DisableTraversableCache)
	assert.Equal(t, "de-de", strings.ToLower(opts.Locale))
	assert.IsType(t, &message.Catalog{}, opts.Interpolator)
	assert.True(t, opts.Logger.IsLevelEnabled(bvlog.LevelDebug))
}

func TestOptionsFromConfigDefaults(t *testing.T) {
	opts, err := OptionsFromConfig(config.Empty())
	require.NoError(t, err)
	assert.False(t, opts.TreatMapsLikeBeans)
	assert.False(t, opts.DisableTraversableCache)
	assert.Nil(t, opts.Interpolator)
	assert.False(t, opts.Logger.IsLevelEnabled(bvlog.LevelInfo))
}

func TestSlowCallsAreLogged(t *testing.T) {
	cfg, err := config.LoadFromString(`
[validator]
slow_call_threshold = "1ns"

[log]
format = "json"
`, config.FormatTOML)
	require.NoError(t, err)
	opts, err := OptionsFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, time.Nanosecond, opts.SlowCallThreshold)

	var buf bytes.Buffer
	opts.Logger = opts.Logger.WithOutput(&buf)
	_, err = New(opts).Validate(&Person{Name: "Ada", Age: 30})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "slow validation call")
	assert.Contains(t, buf.String(), `"operation":"Validate"`)

	buf.Reset()
	opts.SlowCallThreshold = time.Hour
	_, err = New(opts).Validate(&Person{Name: "Ada", Age: 30})
	require.NoError(t, err)
	assert.Empty(t, buf.String())
}

func TestOptionsFromConfigRejectsInvalidValues(t *testing.T) {
	for _, content := range []string{
		"[log]\nlevel = \"loud\"\n",
		"[validator]\nslow_call_threshold = \"soon\"\n",
		"[validator]\ngroups = 3\n",
	} {
		cfg, err := config.LoadFromString(content, config.FormatTOML)
		require.NoError(t, err)

		_, err = OptionsFromConfig(cfg)
		assert.True(t, bverror.HasCode(err, bverror.CodeInvalidConfig), content)
	}
}

func TestCatalogMessagesFromConfig(t *testing.T) {
	cfg, err := config.LoadFromString("[messages]\nlocale = \"de\"\n", config.FormatTOML)
	require.NoError(t, err)
	opts, err := OptionsFromConfig(cfg)
	require.NoError(t, err)
	opts.Logger = bvlog.Discard()

	vs, err := New(opts).Validate(&Person{Age: 151})
	require.NoError(t, err)
	require.Len(t, vs, 2)
	assert.Equal(t, "darf nicht leer sein", vs[0].Message)
	assert.Equal(t, "muss kleiner oder gleich 150 sein", vs[1].Message)
}

func TestCallsAreLoggedWithCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	logger := bvlog.NewWithConfig(bvlog.Config{Level: bvlog.LevelDebug, Format: bvlog.FormatJSON, Output: &buf})
	v := New(Options{Logger: logger})

	_, err := v.Validate(&Pair{Left: &Link{Name: "x"}})
	require.NoError(t, err)

	var ids = map[string]bool{}
	var messages []string
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		ids[entry["correlation_id"].(string)] = true
		messages = append(messages, entry["message"].(string))
	}
	assert.Len(t, ids, 1, "one correlation id per call")
	assert.Contains(t, messages, "evaluation plan resolved")
	assert.Contains(t, messages, "cascading")
	assert.Contains(t, messages, "Validate completed")
}
