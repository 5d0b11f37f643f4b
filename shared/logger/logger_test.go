package logger_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"

	"lodge/config"
	"lodge/shared/constant"
	"lodge/shared/logger"
)

func restore(t *testing.T) {
	t.Helper()

	original := log.Logger
	level := zerolog.GlobalLevel()

	t.Cleanup(func() {
		log.Logger = original
		zerolog.SetGlobalLevel(level)
	})
}

func TestErrorWithStack(t *testing.T) {
	restore(t)

	buf := bytes.Buffer{}
	log.Logger = zerolog.New(&buf)

	logger.ErrorWithStack(errors.New("payment upsert failed"))

	assert.Contains(t, buf.String(), "payment upsert failed")
	assert.Contains(t, buf.String(), `"level":"error"`)
}

func TestSetLogLevel(t *testing.T) {
	restore(t)

	tests := []struct {
		name  string
		level string
		want  zerolog.Level
	}{
		{name: "configured", level: "warn", want: zerolog.WarnLevel},
		{name: "empty", level: "", want: zerolog.TraceLevel},
		{name: "unknown", level: "chatty", want: zerolog.TraceLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{}
			cfg.Server.LogLevel = tt.level

			logger.SetLogLevel(cfg)

			assert.Equal(t, tt.want, zerolog.GlobalLevel())
		})
	}
}

func TestSetLogLevel_Production(t *testing.T) {
	restore(t)

	cfg := &config.Config{}
	cfg.Server.Env = constant.ServerEnvProduction
	cfg.Server.LogLevel = "info"
	cfg.App.Name = "lodge"

	logger.SetLogLevel(cfg)

	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
