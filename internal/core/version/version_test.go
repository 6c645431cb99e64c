package version

import "testing"

func TestFor(t *testing.T) {
	t.Parallel()

	if got := For("").Service; got != "postlens" {
		t.Fatalf("For(\"\").Service = %q, want postlens", got)
	}
	bi := For("postlens-capture")
	if bi.Service != "postlens-capture" || bi.Version != Info().Version {
		t.Fatalf("For() = %+v", bi)
	}
}
