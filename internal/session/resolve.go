package session

import "github.com/matheus3301/lnf/internal/config"

const DefaultSessionName = "main"

// Resolve picks the session name from the --session flag, then default_session in
// config.toml, then "main", and validates the result.
func Resolve(flagOverride string) (string, error) {
	name := flagOverride
	if name == "" {
		if cfg, err := config.Load(ConfigPath()); err == nil {
			name = cfg.DefaultSession
		}
	}
	if name == "" {
		name = DefaultSessionName
	}
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return name, nil
}
