package module

import (
	"net/http"
	"net/http/httptest"
	"testing"

	perr "postlens/internal/platform/errors"
	phttp "postlens/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

type Counter interface{ Count() int }

type counter int

func (c counter) Count() int { return int(c) }

type fake struct {
	name  string
	ports any
}

func (f fake) Name() string       { return f.name }
func (f fake) Prefixes() []string { return []string{"/" + f.name} }
func (f fake) Ports() any         { return f.ports }
func (f fake) MountRoutes(r phttp.Router) {
	r.Get("/"+f.name, func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(f.name)) })
}

type bundle struct {
	Counter Counter
	Label   string
	hidden  Counter
}

func TestPortsOf(t *testing.T) {
	cases := []struct {
		name  string
		ports any
		want  int
		ok    bool
	}{
		{"nil", nil, 0, false},
		{"direct", counter(7), 7, true},
		{"field", bundle{Counter: counter(3)}, 3, true},
		{"pointer bundle", &bundle{Counter: counter(4)}, 4, true},
		{"nil pointer", (*bundle)(nil), 0, false},
		{"unexported only", bundle{hidden: counter(9)}, 0, false},
		{"scalar", "nope", 0, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, ok := PortsOf[Counter](fake{name: "m", ports: c.ports})
			require.Equal(t, c.ok, ok)
			if ok {
				require.Equal(t, c.want, got.Count())
			}
		})
	}
}

func TestMustPortsOf(t *testing.T) {
	require.Equal(t, 5, MustPortsOf[Counter](fake{name: "m", ports: counter(5)}).Count())
	require.PanicsWithValue(t, "module usage: no port of type module.Counter", func() {
		MustPortsOf[Counter](fake{name: "usage"})
	})
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Add(fake{name: "meta"}, fake{name: "usage", ports: bundle{Counter: counter(1)}}))

	err := reg.Add(fake{name: "meta"})
	require.True(t, perr.IsCode(err, perr.ErrorCodeConflict))

	require.Equal(t, []Info{
		{Name: "meta", Prefixes: []string{"/meta"}},
		{Name: "usage", Prefixes: []string{"/usage"}},
	}, reg.Describe())

	c, ok := Ports[Counter](reg, "usage")
	require.True(t, ok)
	require.Equal(t, 1, c.Count())
	_, ok = Ports[Counter](reg, "ingest")
	require.False(t, ok)

	mux := chi.NewRouter()
	reg.MountAll(phttp.AdaptChi(mux))
	for _, name := range []string{"meta", "usage"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/"+name, nil))
		require.Equal(t, name, rec.Body.String())
	}
}
