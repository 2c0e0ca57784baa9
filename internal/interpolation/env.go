// Package interpolation expands ${VAR} and ${VAR:default} references to
// environment variables in tagged fields of config structs.
package interpolation

import (
	"errors"
	"fmt"
	"os"
	"regexp"
)

// ErrUndefined is returned for a reference without a default whose
// variable is not set.
var ErrUndefined = errors.New("environment variable not defined")

// captures name, an optional colon, and the default
var reference = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:)?([^}]*)\}`)

// LookupFunc resolves a variable name, like os.LookupEnv.
type LookupFunc func(name string) (string, bool)

// ExpandEnv expands references in input from the process environment.
func ExpandEnv(input string) (string, error) {
	return Expand(input, os.LookupEnv)
}

// Expand replaces every ${NAME} or ${NAME:default} in input. A set
// variable wins over the default, even when empty; ${NAME:} defaults to the
// empty string. Unresolved references are left in place and reported
// together.
func Expand(input string, lookup LookupFunc) (string, error) {
	if input == "" {
		return "", nil
	}

	var missing []error
	out := reference.ReplaceAllStringFunc(input, func(match string) string {
		parts := reference.FindStringSubmatch(match)
		name, hasDefault, fallback := parts[1], parts[2] == ":", parts[3]

		if value, ok := lookup(name); ok {
			return value
		}
		if hasDefault {
			return fallback
		}
		missing = append(missing, fmt.Errorf("%w: %s", ErrUndefined, name))
		return match
	})
	return out, errors.Join(missing...)
}
