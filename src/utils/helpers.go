package utils

import (
	"fmt"
	"os"
	"strings"

	"github.com/judy2649/the-grey-pegeant/src/types"
)

func IsProd() bool {
	return os.Getenv("API_ENV") == string(types.Production)
}

// WithSuffix appends the environment to a queue or topic name outside production.
func WithSuffix(name string) string {
	env := os.Getenv("API_ENV")
	if env == "" || env == string(types.Production) {
		return name
	}
	return fmt.Sprintf("%s_%s", name, env)
}

// NormalizeClaimKey upper-cases and trims a provider reference or user-typed code.
func NormalizeClaimKey(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}
