//go:build debug

package gasserttest

import "github.com/gordian-engine/gpms/gassert"

// DefaultEnv returns an environment with every assertion enabled.
func DefaultEnv() gassert.Env {
	env, err := gassert.EnvironmentFromString("*")
	if err != nil {
		panic(err)
	}
	return env
}
