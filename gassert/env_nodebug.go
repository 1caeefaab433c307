//go:build !debug

package gassert

// Env is the assertion environment handed to components that carry invariant checks.
//
// Outside debug builds it is an empty struct with no methods,
// so code that inspects it must itself live behind the "debug" build tag.
type Env struct{}
