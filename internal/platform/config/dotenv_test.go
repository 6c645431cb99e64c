package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDotenv(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "test.env")
	if err := os.WriteFile(f, []byte("POSTLENS_DOTENV_A=from-file\nPOSTLENS_DOTENV_B=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("POSTLENS_DOTENV_B", "from-env")
	t.Setenv("POSTLENS_DOTENV_A", "")
	_ = os.Unsetenv("POSTLENS_DOTENV_A")

	loaded, err := LoadDotenv(filepath.Join(dir, "missing.env"), f)
	if err != nil {
		t.Fatalf("LoadDotenv: %v", err)
	}
	if len(loaded) != 1 || loaded[0] != f {
		t.Fatalf("loaded = %v, want [%s]", loaded, f)
	}
	c := New().Prefix("POSTLENS_DOTENV_")
	if got := c.MayString("A", ""); got != "from-file" {
		t.Fatalf("A = %q, want from-file", got)
	}
	if got := c.MayString("B", ""); got != "from-env" {
		t.Fatalf("B = %q, existing env should win", got)
	}
	_ = os.Unsetenv("POSTLENS_DOTENV_A")
}
