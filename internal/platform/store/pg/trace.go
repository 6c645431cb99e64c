package pg

import (
	"context"
	"strings"
	"time"

	"postlens/internal/platform/logger"

	"github.com/rs/zerolog"
)

// QueryEvent is one finished statement
type QueryEvent struct {
	SQL  string
	Args []any
	Took time.Duration
	Err  error
	Slow bool
}

// QueryTracer receives statement events
type QueryTracer interface {
	OnQuery(ctx context.Context, ev QueryEvent)
}

// LogTracer logs statements under component=pg. It logs at debug regardless of the
// root level since LOG_SQL is an explicit opt in; slow or failed statements log at warn
func LogTracer(root logger.Logger) QueryTracer {
	return logTracer{log: root.Level(zerolog.DebugLevel).With().Str("component", "pg").Logger()}
}

type logTracer struct{ log logger.Logger }

func (t logTracer) OnQuery(ctx context.Context, ev QueryEvent) {
	e := t.log.Debug()
	if ev.Slow || ev.Err != nil {
		e = t.log.Warn()
	}
	e.Ctx(ctx).
		Dur("took", ev.Took).
		Bool("slow", ev.Slow).
		Str("sql", squash(ev.SQL)).
		Interface("args", ev.Args).
		Err(ev.Err).
		Msg("pg query")
}

// squash folds runs of whitespace into one space so multi-line SQL logs on one line
func squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
