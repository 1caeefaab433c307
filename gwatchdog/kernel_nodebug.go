//go:build !debug

package gwatchdog

import "github.com/gordian-engine/gpms/gassert"

// No-op functions to match the debug build.

func invariantActiveOrder(gassert.Env, *activeList) {}

func invariantPlacement(gassert.Env, *activeList, []*element) {}
