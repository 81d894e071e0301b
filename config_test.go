package nasc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toutaio/toutago-nasc-scopes/config"
)

const manifest = `
log:
  level: warn
services:
  - name: db
    lifetime: singleton
    aliases: [database]
  - name: buffer
    lifetime: transient
    strategy: pooled
    pool: 2
`

func TestFromConfig(t *testing.T) {
	cfg, err := config.Parse([]byte(manifest))
	require.NoError(t, err)

	strategies := map[string]Strategy{
		"db":     Factory(widgetFactory()),
		"pooled": Factory(widgetFactory()),
	}
	root, err := FromConfig(cfg, strategies)
	require.NoError(t, err)
	defer root.Dispose()

	assert.Equal(t, []string{"buffer", "db"}, root.Registered())

	db, ok := root.Lookup("db")
	require.True(t, ok)
	assert.Equal(t, LifetimeSingleton, db.Lifetime())
	assert.Equal(t, []string{"db", "database"}, db.AliasNames())

	buffer, ok := root.Lookup("buffer")
	require.True(t, ok)
	assert.Equal(t, 2, buffer.PoolSize())

	first, err := root.GetInstance("db")
	require.NoError(t, err)
	second, err := root.GetInstance("database")
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestFromConfig_Errors(t *testing.T) {
	tests := []struct {
		name       string
		services   []config.ServiceConfig
		strategies map[string]Strategy
	}{
		{
			name:     "unknown lifetime",
			services: []config.ServiceConfig{{Name: "db", Lifetime: "forever"}},
			strategies: map[string]Strategy{
				"db": Factory(widgetFactory()),
			},
		},
		{
			name:       "missing strategy",
			services:   []config.ServiceConfig{{Name: "db", Lifetime: "scoped", Strategy: "sql"}},
			strategies: map[string]Strategy{"db": Factory(widgetFactory())},
		},
		{
			name:       "nil strategy",
			services:   []config.ServiceConfig{{Name: "db", Lifetime: "scoped"}},
			strategies: map[string]Strategy{"db": nil},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Services = tt.services

			_, err := FromConfig(cfg, tt.strategies)
			var invalid *InvalidDescriptorError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, "db", invalid.Name)
		})
	}

	cfg := config.Default()
	cfg.Log.Level = "loud"
	_, err := FromConfig(cfg, nil)
	require.Error(t, err, "invalid manifest is rejected before building")
}
