package config

import "os"

// ExpandEnv replaces ${NAME} tokens in s with the value of the named
// environment variable, substituting the empty string for unset
// variables, per spec.md §6's "Environment substitution" contract.
func ExpandEnv( s string ) string {
	return os.Expand( s, os.Getenv )
}
