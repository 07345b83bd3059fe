package log

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

// MigrationLogger routes goose output into the context logger. Applied
// migrations are logged at debug level so normal startup stays quiet.
type MigrationLogger struct {
	logger zerolog.Logger
}

func NewMigrationLogger(ctx context.Context) *MigrationLogger {
	return &MigrationLogger{
		logger: FromCtx(ctx).With().Str("component", "migrations").Logger(),
	}
}

func (m *MigrationLogger) Fatalf(format string, v ...any) {
	m.logger.Fatal().Msgf(strings.TrimSpace(format), v...)
}

func (m *MigrationLogger) Printf(format string, v ...any) {
	m.logger.Debug().Msgf(strings.TrimSpace(format), v...)
}
