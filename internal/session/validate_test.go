package session

import (
	"strings"
	"testing"
)

func TestValidateName(t *testing.T) {
	valid := []string{"main", "demo", "campus-2024", "lost_and_found", "a", strings.Repeat("x", 64)}
	for _, name := range valid {
		if err := ValidateName(name); err != nil {
			t.Errorf("ValidateName(%q) = %v, want nil", name, err)
		}
	}

	invalid := map[string]string{
		"empty":        "",
		"uppercase":    "Demo",
		"space":        "lost found",
		"dot":          "../main",
		"too long":     strings.Repeat("x", 65),
		"leading dash": "-session",
		"flag":         "--help",
	}
	for label, name := range invalid {
		if err := ValidateName(name); err == nil {
			t.Errorf("%s: ValidateName(%q) = nil, want error", label, name)
		}
	}
}
