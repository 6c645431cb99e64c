package logger

import (
	"bytes"
	"context"
	"testing"

	kit "postlens/internal/platform/testkit"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{" warning ", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"", zerolog.DebugLevel},
		{"chatty", zerolog.DebugLevel},
	}
	for _, c := range cases {
		if got := parseLevel(c.in); got != c.want {
			t.Fatalf("parseLevel(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestBuild_StaticAndServiceFields(t *testing.T) {
	var buf bytes.Buffer
	l := build(Options{
		Level:        "info",
		Format:       "json",
		Service:      "postlens-test",
		Component:    "worker",
		Writer:       &buf,
		StaticFields: map[string]string{"build": "abc123", "empty": ""},
	})
	l.Debug().Msg("dropped")
	l.Info().Msg("kept")

	out := buf.String()
	for _, want := range []string{`"service":"postlens-test"`, `"component":"worker"`, `"build":"abc123"`, `"message":"kept"`} {
		kit.MustContain(t, out, want)
	}
	if bytes.Contains(buf.Bytes(), []byte("dropped")) || bytes.Contains(buf.Bytes(), []byte(`"empty"`)) {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestScopeFields(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: "debug", Format: "json", Writer: &buf})
	if Get() != root {
		t.Fatalf("Get should return the root logger")
	}

	ctx := WithRequest(context.Background(), "req-123", "")
	ctx = WithRequest(ctx, "", "user-7")
	ctx = WithPost(ctx, "post-9")

	// swap in a writer we control, scoped loggers derive from root
	saved := root
	l := build(Options{Level: "debug", Format: "json", Writer: &buf})
	root = l
	defer func() { root = saved }()

	C(ctx).Info().Msg("ctx-msg")
	Named("ingest").Info().Msg("named-msg")

	out := buf.String()
	for _, want := range []string{
		`"request_id":"req-123"`, `"user_id":"user-7"`, `"post_id":"post-9"`,
		`"component":"ingest"`, "ctx-msg", "named-msg",
	} {
		kit.MustContain(t, out, want)
	}
}

func TestScopeEmptyValuesAreNoops(t *testing.T) {
	ctx := context.Background()
	if WithPost(ctx, "") != ctx || WithRequest(ctx, "", "") != ctx {
		t.Fatalf("empty ids should return ctx unchanged")
	}
	if C(ctx) != Get() {
		t.Fatalf("C without scope should be the root logger")
	}
	if Named("") != Get() {
		t.Fatalf("Named(\"\") should be the root logger")
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "WARN")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_SERVICE", "capture")
	t.Setenv("LOG_CALLER", "yes")
	t.Setenv("LOG_SAMPLE_EVERY", "5")

	opt := FromEnv()
	if opt.Level != "warn" || opt.Format != "json" || opt.Service != "capture" {
		t.Fatalf("FromEnv fields mismatch: %+v", opt)
	}
	if !opt.WithCaller || opt.SampleEvery != 5 {
		t.Fatalf("FromEnv caller/sample mismatch: %+v", opt)
	}

	t.Setenv("LOG_SERVICE", "")
	if got := FromEnv().Service; got != "postlens" {
		t.Fatalf("default service = %q, want postlens", got)
	}
}
