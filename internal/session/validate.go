package session

import (
	"fmt"
	"regexp"
	"strings"
)

var nameRegexp = regexp.MustCompile(`^[a-z0-9_-]{1,64}$`)

// ValidateName checks that name is usable as a directory under ~/.lnf/sessions and as
// the value of lnfd's --session flag.
func ValidateName(name string) error {
	if !nameRegexp.MatchString(name) {
		return fmt.Errorf("invalid session name %q: use 1-64 of a-z, 0-9, '_' or '-'", name)
	}
	if strings.HasPrefix(name, "-") {
		return fmt.Errorf("invalid session name %q: must not start with '-'", name)
	}
	return nil
}
