package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bverror "github.com/msto63/beanval/foundation/core/error"
)

const tomlConfig = `
[validator]
treat_maps_like_beans = true
cache_traversable = false

[log]
level = "debug"
format = "json"

[messages]
locale = "de"
timeout = "2s"
groups = ["Default", "Insert"]
`

const yamlConfig = `
validator:
  treat_maps_like_beans: true
log:
  level: info
limits:
  depth: 12
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadTOML(t *testing.T) {
	cfg, err := Load(writeFile(t, "beanval.toml", tomlConfig))
	require.NoError(t, err)

	assert.Equal(t, FormatTOML, cfg.Format())
	assert.True(t, cfg.GetBool("validator.treat_maps_like_beans"))
	assert.False(t, cfg.GetBool("validator.cache_traversable", true))
	assert.Equal(t, "debug", cfg.GetString("log.level"))
	assert.Equal(t, 2*time.Second, cfg.GetDuration("messages.timeout"))
	assert.Equal(t, []string{"Default", "Insert"}, cfg.GetStringSlice("messages.groups"))
	assert.Equal(t, "fallback", cfg.GetString("missing.key", "fallback"))
	assert.True(t, cfg.Has("log"))
	assert.False(t, cfg.Has("log.missing"))
}

func TestLoadYAML(t *testing.T) {
	cfg, err := Load(writeFile(t, "beanval.yml", yamlConfig))
	require.NoError(t, err)

	assert.Equal(t, FormatYAML, cfg.Format())
	assert.True(t, cfg.GetBool("validator.treat_maps_like_beans"))
	assert.Equal(t, "info", cfg.GetString("log.level"))
	assert.Equal(t, "12", cfg.GetString("limits.depth"))
}

func TestLoadErrors(t *testing.T) {
	_, err := Load("")
	assert.True(t, bverror.HasCode(err, bverror.CodeMissingConfig))

	_, err = Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.True(t, bverror.HasCode(err, bverror.CodeNotFound))

	_, err = Load(writeFile(t, "broken.toml", "[validator\n"))
	assert.True(t, bverror.HasCode(err, bverror.CodeInvalidConfig))
}

func TestEnvironmentOverride(t *testing.T) {
	cfg, err := LoadFromString(tomlConfig, FormatTOML)
	require.NoError(t, err)

	assert.Equal(t, "BEANVAL_VALIDATOR_CACHE_TRAVERSABLE", cfg.EnvKey("validator.cache_traversable"))

	t.Setenv("BEANVAL_VALIDATOR_CACHE_TRAVERSABLE", "true")
	t.Setenv("BEANVAL_LOG_LEVEL", "error")
	assert.True(t, cfg.GetBool("validator.cache_traversable"))
	assert.Equal(t, "error", cfg.GetString("log.level"))
}

func TestEnvironmentOverrideDisabled(t *testing.T) {
	cfg, err := LoadWithOptions(writeFile(t, "c.toml", tomlConfig), LoadOptions{EnvPrefix: "-"})
	require.NoError(t, err)

	t.Setenv("LOG_LEVEL", "error")
	assert.Equal(t, "debug", cfg.GetString("log.level"))
}

func TestDefaultsMergeNestedSections(t *testing.T) {
	cfg, err := LoadWithOptions(writeFile(t, "c.toml", tomlConfig), LoadOptions{
		Defaults: map[string]interface{}{
			"log":       map[string]interface{}{"level": "warn", "output": "stderr"},
			"validator": map[string]interface{}{"max_depth": 64},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.GetString("log.level"))
	assert.Equal(t, "stderr", cfg.GetString("log.output"))
	assert.Equal(t, "64", cfg.GetString("validator.max_depth"))
}

func TestSetCreatesSections(t *testing.T) {
	cfg := Empty()
	cfg.Set("messages.dir", "./messages")
	assert.Equal(t, "./messages", cfg.GetString("messages.dir"))
	assert.True(t, cfg.Has("messages"))
}

func TestValidate(t *testing.T) {
	cfg, err := LoadFromString(tomlConfig, FormatTOML)
	require.NoError(t, err)

	result := cfg.Validate(ValidationRules{
		"log.level":                       {Type: "string", OneOf: []string{"trace", "debug", "info", "warn", "error", "off"}},
		"log.format":                      {OneOf: []string{"json", "text"}},
		"validator.treat_maps_like_beans": {Type: "bool"},
		"messages.dir":                    {Default: "./messages"},
	})
	require.True(t, result.Valid, result.Errors)
	assert.NoError(t, result.Err())
	assert.Equal(t, "./messages", cfg.GetString("messages.dir"))

	result = cfg.Validate(ValidationRules{
		"log.level":     {OneOf: []string{"warn"}},
		"required.key":  {Required: true},
		"messages.dir":  {Pattern: "^/"},
		"messages.sub":  {},
		"messages.list": {Type: "[]string"},
	})
	assert.False(t, result.Valid)
	assert.Len(t, result.Errors, 3)

	var bvErr *bverror.Error
	require.True(t, errors.As(result.Err(), &bvErr))
	assert.Equal(t, bverror.CodeInvalidConfig, bvErr.Code())
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "beanval.yaml"), []byte(yamlConfig), 0o644))

	options := DiscoveryOptions{Paths: []string{t.TempDir(), dir}, Filenames: []string{"beanval"}}
	cfg, err := Discover(options)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "beanval.yaml"), cfg.FilePath())

	options.Paths = []string{t.TempDir()}
	cfg, err = Discover(options)
	require.NoError(t, err)
	assert.Empty(t, cfg.FilePath())

	options.Required = true
	_, err = Discover(options)
	assert.True(t, bverror.HasCode(err, bverror.CodeMissingConfig))
}
