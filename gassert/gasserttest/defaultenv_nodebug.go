//go:build !debug

package gasserttest

import "github.com/gordian-engine/gpms/gassert"

// DefaultEnv returns the empty Env of non-debug builds.
func DefaultEnv() gassert.Env {
	return gassert.Env{}
}
