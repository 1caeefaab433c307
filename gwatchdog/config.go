package gwatchdog

import (
	"errors"

	"github.com/gordian-engine/gpms/gassert"
	"github.com/gordian-engine/gpms/gwatchdog/gwclock"
	"github.com/gordian-engine/gpms/gwnotify"
)

const (
	DefaultCapacity = 64
	DefaultRingSize = 16
)

// Config holds the dependencies and sizes for [NewEngine].
type Config struct {
	Clock gwclock.Clock

	// Creates the single hardware timer driving the worker.
	NewTimer gwclock.TimerFactory

	// Receives transition notifications.
	// Defaults to [gwnotify.NopPoster].
	Poster gwnotify.Poster

	// Maximum number of live watchdogs.
	// Defaults to [DefaultCapacity].
	Capacity int

	// Number of created watchdogs that may await the worker at once.
	// Defaults to [DefaultRingSize].
	RingSize int

	AssertEnv gassert.Env
}

func (c Config) withDefaults() Config {
	if c.Poster == nil {
		c.Poster = gwnotify.NopPoster{}
	}
	if c.Capacity == 0 {
		c.Capacity = DefaultCapacity
	}
	if c.RingSize == 0 {
		c.RingSize = DefaultRingSize
	}
	return c
}

func (c Config) validate() error {
	var err error

	if c.Clock == nil {
		err = errors.Join(err, errors.New("Clock must not be nil"))
	} else if c.Clock.TicksPer100ms() == 0 {
		err = errors.Join(err, errors.New("Clock must have at least one tick per 100ms"))
	}

	if c.NewTimer == nil {
		err = errors.Join(err, errors.New("NewTimer must not be nil"))
	}

	if c.Capacity < 0 {
		err = errors.Join(err, errors.New("Capacity must not be negative"))
	}

	if c.RingSize < 0 {
		err = errors.Join(err, errors.New("RingSize must not be negative"))
	}

	return err
}
