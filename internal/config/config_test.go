package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("SOURCE_KIND", "")
	t.Setenv("SERVER_PORT", "")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 15*time.Second, cfg.HTTP.WriteTimeout)
	assert.Equal(t, SourceFile, cfg.Source.Kind)
	assert.Equal(t, "data", cfg.Source.DatasetDir)
	assert.Zero(t, cfg.Source.RefreshInterval)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SERVER_READ_TIMEOUT", "3s")
	t.Setenv("SERVER_ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("SOURCE_KIND", "NEO4J")
	t.Setenv("GRAPH_URI", "bolt://localhost:7687")
	t.Setenv("SOURCE_REFRESH_INTERVAL", "5m")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, 3*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.HTTP.AllowedOrigins())
	assert.Equal(t, SourceNeo4j, cfg.Source.Kind)
	assert.Equal(t, 5*time.Minute, cfg.Source.RefreshInterval)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestFromEnv_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "bad port", env: map[string]string{"SERVER_PORT": "70000"}},
		{name: "bad duration", env: map[string]string{"SERVER_IDLE_TIMEOUT": "soon"}},
		{name: "unknown source", env: map[string]string{"SOURCE_KIND": "s3"}},
		{name: "neo4j without uri", env: map[string]string{"SOURCE_KIND": "neo4j", "GRAPH_URI": ""}},
		{name: "negative refresh", env: map[string]string{"SOURCE_REFRESH_INTERVAL": "-1m"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}
