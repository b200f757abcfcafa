package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Ledger-api/pkg/logger"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, logger.ParseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, logger.ParseLevel("warn"))
	assert.Equal(t, zerolog.InfoLevel, logger.ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, logger.ParseLevel("ruido"))
}

func TestComponent_AgregaCampos(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.Config{Env: "production", Level: "info", App: "ledger-api", Output: &buf})

	log := l.Component("ledger")
	log.Warn().Str("account_id", "a1").Msg("drift")

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "ledger-api", got["app"])
	assert.Equal(t, "ledger", got["component"])
	assert.Equal(t, "a1", got["account_id"])
	assert.Equal(t, "warn", got["level"])
}

func TestNew_FiltraPorNivel(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.Config{Env: "production", Level: "error", Output: &buf})
	l.Info().Msg("no aparece")
	assert.Zero(t, buf.Len())
}
