// Package logger owns the process zerolog logger. Request, user and post ids
// ride on the context and are added by C
package logger

import (
	"context"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"postlens/internal/platform/config/raw"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// Logger is the project-wide logging type
type Logger = zerolog.Logger

// Options configures the root logger
type Options struct {
	Level        string
	Format       string // console or json
	Service      string
	Component    string
	Writer       io.Writer
	WithCaller   bool
	SampleEvery  int
	StaticFields map[string]string
}

// FromEnv reads LOG_LEVEL, LOG_FORMAT, LOG_SERVICE, LOG_COMPONENT, LOG_CALLER
// and LOG_SAMPLE_EVERY
func FromEnv() Options {
	env := raw.New().Prefix("LOG_")
	return Options{
		Level:       strings.ToLower(env.Get("LEVEL", "debug")),
		Format:      strings.ToLower(env.Get("FORMAT", "console")),
		Service:     env.Get("SERVICE", "postlens"),
		Component:   env.Get("COMPONENT", ""),
		WithCaller:  env.GetBool("CALLER", false),
		SampleEvery: env.GetInt("SAMPLE_EVERY", 0),
	}
}

var (
	once sync.Once
	root *Logger
)

// Init builds the root logger. Only the first call, or the first Get, counts
func Init(opt Options) {
	once.Do(func() { root = build(opt) })
}

// Get returns the root logger, initializing it from the environment if needed
func Get() *Logger {
	Init(FromEnv())
	return root
}

func build(opt Options) *Logger {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = time.RFC3339Nano

	w := opt.Writer
	if w == nil {
		w = os.Stdout
	}
	if opt.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	with := zerolog.New(w).Level(parseLevel(opt.Level)).With().Timestamp()
	if bi, ok := debug.ReadBuildInfo(); ok {
		with = with.Str("go_version", bi.GoVersion)
	}
	fields := map[string]string{"service": opt.Service, "component": opt.Component}
	for k, v := range opt.StaticFields {
		fields[k] = v
	}
	for k, v := range fields {
		if v != "" {
			with = with.Str(k, v)
		}
	}
	if opt.WithCaller {
		with = with.Caller()
	}

	l := with.Logger()
	if opt.SampleEvery > 1 {
		l = l.Sample(&zerolog.BasicSampler{N: uint32(opt.SampleEvery)})
	}
	return &l
}

// parseLevel accepts zerolog level names plus "warning"; anything else is debug
func parseLevel(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || s == "" {
		return zerolog.DebugLevel
	}
	return lvl
}

type scope struct {
	requestID string
	userID    string
	postID    string
}

type scopeKey struct{}

func scoped(ctx context.Context, set func(*scope)) context.Context {
	s, _ := ctx.Value(scopeKey{}).(scope)
	set(&s)
	return context.WithValue(ctx, scopeKey{}, s)
}

// WithRequest records the request id and authenticated user on ctx. Empty
// values keep what ctx already carries
func WithRequest(ctx context.Context, reqID, userID string) context.Context {
	if reqID == "" && userID == "" {
		return ctx
	}
	return scoped(ctx, func(s *scope) {
		if reqID != "" {
			s.requestID = reqID
		}
		if userID != "" {
			s.userID = userID
		}
	})
}

// WithPost records the post being ingested or analyzed
func WithPost(ctx context.Context, postID string) context.Context {
	if postID == "" {
		return ctx
	}
	return scoped(ctx, func(s *scope) { s.postID = postID })
}

// C is the root logger plus the request_id, user_id and post_id found on ctx
func C(ctx context.Context) *Logger {
	s, ok := ctx.Value(scopeKey{}).(scope)
	if !ok {
		return Get()
	}
	with := Get().With()
	for _, f := range [...]struct{ k, v string }{
		{"request_id", s.requestID},
		{"user_id", s.userID},
		{"post_id", s.postID},
	} {
		if f.v != "" {
			with = with.Str(f.k, f.v)
		}
	}
	l := with.Logger()
	return &l
}

// Named is the root logger with a component field
func Named(component string) *Logger {
	if component == "" {
		return Get()
	}
	l := Get().With().Str("component", component).Logger()
	return &l
}
