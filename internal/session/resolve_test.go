package session

import (
	"testing"

	"github.com/matheus3301/lnf/internal/config"
)

func TestResolve(t *testing.T) {
	t.Setenv(HomeEnv, t.TempDir())

	if got, err := Resolve(""); err != nil || got != DefaultSessionName {
		t.Errorf("Resolve(\"\") = %q, %v; want main", got, err)
	}

	cfg := config.Default()
	cfg.DefaultSession = "work"
	if err := config.Save(ConfigPath(), cfg); err != nil {
		t.Fatal(err)
	}
	if got, _ := Resolve(""); got != "work" {
		t.Errorf("Resolve with config = %q, want work", got)
	}
	if got, _ := Resolve("demo"); got != "demo" {
		t.Errorf("Resolve(demo) = %q", got)
	}
	if _, err := Resolve("Bad Name"); err == nil {
		t.Error("Resolve should reject invalid names")
	}
}
