package observability

import (
	"testing"

	"github.com/smallbiznis/invoicebuilder/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	cfg := LoadConfig(config.Config{
		Telemetry: config.TelemetryConfig{Environment: "production", LogLevel: "info", OtelProtocol: "http"},
	})
	assert.Equal(t, "invoicebuilder", cfg.ServiceName)
	assert.Equal(t, "http", cfg.OtelExporterProtocol)
	assert.False(t, cfg.Debug())

	assert.True(t, Config{Environment: "Local"}.Debug())
	assert.True(t, Config{LogLevel: "debug", Environment: "production"}.Debug())
}
