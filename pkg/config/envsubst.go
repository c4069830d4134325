// Copyright 2026 Subspace Registry Project
//
// Env Substitution - the ${VAR}/${VAR:-default} environment
// substitution and YAML Duration type shared by every config loader
// in this package. Kept standalone so AuthorityConfig and any future
// config document can reuse them without depending on each other's
// loaders.

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration for YAML unmarshaling, accepting the
// same strings time.ParseDuration does ("5s", "250ms", "2h").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// substituteEnvVars replaces $VAR/${VAR} and ${VAR:-default} references
// in content with the named environment variable's value, or the
// default when the variable is unset or empty. Uses os.Expand for the
// $VAR/${...} scanning rather than a hand-rolled regexp, resolving the
// optional ":-default" suffix ourselves since os.Expand only splits out
// the token between the braces.
func substituteEnvVars(content string) string {
	return os.Expand(content, expandToken)
}

func expandToken(token string) string {
	name, def, hasDefault := strings.Cut(token, ":-")
	if value := os.Getenv(name); value != "" {
		return value
	}
	if hasDefault {
		return def
	}
	return ""
}
