//go:build debug

package gassert

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// Env aliases *Environment in debug builds,
// so a field of type Env costs nothing in release builds.
type Env = *Environment

// Environment holds the parsed assertion rules.
// Its methods are safe for concurrent use once configured;
// OnlyLogFailures must be called before the Environment is shared.
type Environment struct {
	wildcards []rule
	excludes  []rule
	exacts    []rule

	cache sync.Map // map[string]bool

	log *slog.Logger
}

type rule []string

func (r rule) isPrefixOf(path []string) bool {
	if len(r) >= len(path) {
		return false
	}
	for i, p := range r {
		if path[i] != p {
			return false
		}
	}
	return true
}

func (r rule) equals(path []string) bool {
	if len(r) != len(path) {
		return false
	}
	for i, p := range r {
		if path[i] != p {
			return false
		}
	}
	return true
}

// EnvironmentFromString parses comma-separated rules.
func EnvironmentFromString(in string) (*Environment, error) {
	e := new(Environment)
	if in == "" {
		return e, nil
	}

	for _, r := range strings.Split(in, ",") {
		if err := e.add(r); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// ParseEnvironment reads one rule per line from r.
// Blank lines and lines starting with "#" are ignored.
func ParseEnvironment(r io.Reader) (*Environment, error) {
	e := new(Environment)

	s := bufio.NewScanner(r)
	var errs error
	for line := 1; s.Scan(); line++ {
		text := strings.TrimSpace(s.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if err := e.add(text); err != nil {
			errs = errors.Join(errs, fmt.Errorf("line %d: %w", line, err))
		}
	}
	if err := s.Err(); err != nil {
		errs = errors.Join(errs, err)
	}
	if errs != nil {
		return nil, errs
	}
	return e, nil
}

func (e *Environment) add(r string) error {
	if r == "" {
		return errors.New("empty rule")
	}
	if strings.Contains(r, "..") {
		return fmt.Errorf("invalid rule %q: empty path segment", r)
	}

	if ex, ok := strings.CutPrefix(r, "!"); ok {
		if strings.ContainsAny(ex, "!*") {
			return fmt.Errorf("invalid rule %q: exclusions must be exact paths", r)
		}
		e.excludes = append(e.excludes, strings.Split(ex, "."))
		return nil
	}
	if strings.Contains(r, "!") {
		return fmt.Errorf("invalid rule %q: ! only allowed as the first character", r)
	}

	switch strings.Count(r, "*") {
	case 0:
		e.exacts = append(e.exacts, strings.Split(r, "."))
		return nil
	case 1:
		if r == "*" {
			e.wildcards = append(e.wildcards, rule{})
			return nil
		}
		p, ok := strings.CutSuffix(r, ".*")
		if !ok {
			return fmt.Errorf("invalid rule %q: * must be the final path segment", r)
		}
		e.wildcards = append(e.wildcards, strings.Split(p, "."))
		return nil
	default:
		return fmt.Errorf("invalid rule %q: at most one *", r)
	}
}

// OnlyLogFailures makes [*Environment.HandleAssertionFailure]
// log at error level instead of panicking.
func (e *Environment) OnlyLogFailures(log *slog.Logger) {
	e.log = log
}

// HandleAssertionFailure panics with err,
// or logs it if [*Environment.OnlyLogFailures] was called.
// A nil err always panics.
func (e *Environment) HandleAssertionFailure(err error) {
	if err == nil {
		panic(errors.New("BUG: HandleAssertionFailure called with nil error"))
	}
	if e.log == nil {
		panic(fmt.Errorf("assertion failure: %w", err))
	}
	e.log.Error("Assertion failure", "err", err)
}

// Enabled reports whether the dot-separated path is enabled.
// A wildcard match is cancelled by an exact exclusion;
// otherwise an exact rule may enable the path.
func (e *Environment) Enabled(path string) bool {
	if len(e.wildcards) == 0 && len(e.exacts) == 0 {
		return false
	}

	if v, ok := e.cache.Load(path); ok {
		return v.(bool)
	}
	v := e.enabled(strings.Split(path, "."))
	e.cache.Store(path, v)
	return v
}

func (e *Environment) enabled(path []string) bool {
	for _, w := range e.wildcards {
		if !w.isPrefixOf(path) {
			continue
		}
		for _, ex := range e.excludes {
			if ex.equals(path) {
				return false
			}
		}
		return true
	}

	for _, ex := range e.exacts {
		if ex.equals(path) {
			return true
		}
	}
	return false
}
