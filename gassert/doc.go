// Package gassert gates expensive runtime invariant checks.
//
// Assertions are compiled in only with the "debug" build tag
// ("go test -tags debug ./..."). In other builds [Env] is an empty struct
// and the checking functions compile to no-ops.
//
// In debug builds an [Environment] is built from a set of rules,
// and components ask [*Environment.Enabled] with a dot-separated path
// such as "gwatchdog.kernel.active_order" before doing the check.
//
// Rules:
//   - No path is enabled by default.
//   - "*" enables everything.
//   - "a.b.*" enables every path below a.b, but not a.b itself.
//   - "!a.b.c" removes an exact path from a wildcard match.
//   - Any other rule is an exact match.
//
// [EnvironmentFromString] takes comma-separated rules.
// [ParseEnvironment] reads one rule per line and skips blank lines and "#" comments.
package gassert
