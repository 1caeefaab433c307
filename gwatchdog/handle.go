package gwatchdog

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// Handle identifies a watchdog created by [*Engine.Create].
//
// A handle is an arena slot index plus the generation of that slot
// at creation time. Once the slot is reused for another watchdog,
// the old handle is rejected with [ErrInvalidHandle].
// The zero Handle is never valid.
type Handle struct {
	idx, gen uint32
}

// MakeHandle reassembles a handle from the values reported by
// [Handle.Index] and [Handle.Generation].
func MakeHandle(idx, gen uint32) Handle {
	return Handle{idx: idx, gen: gen}
}

// ParseHandle parses the "index/generation" form produced by [Handle.String].
func ParseHandle(s string) (Handle, error) {
	i, g, ok := strings.Cut(s, "/")
	if !ok {
		return Handle{}, fmt.Errorf("malformed watchdog handle %q", s)
	}
	idx, err := strconv.ParseUint(i, 10, 32)
	if err != nil {
		return Handle{}, fmt.Errorf("malformed watchdog handle index %q: %w", i, err)
	}
	gen, err := strconv.ParseUint(g, 10, 32)
	if err != nil {
		return Handle{}, fmt.Errorf("malformed watchdog handle generation %q: %w", g, err)
	}
	return Handle{idx: uint32(idx), gen: uint32(gen)}, nil
}

func (h Handle) Index() uint32      { return h.idx }
func (h Handle) Generation() uint32 { return h.gen }
func (h Handle) IsZero() bool       { return h.gen == 0 }

func (h Handle) String() string {
	return strconv.FormatUint(uint64(h.idx), 10) + "/" + strconv.FormatUint(uint64(h.gen), 10)
}

func (h Handle) LogValue() slog.Value {
	return slog.StringValue(h.String())
}

func (h Handle) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Handle) UnmarshalText(b []byte) error {
	p, err := ParseHandle(string(b))
	if err != nil {
		return err
	}
	*h = p
	return nil
}

// Status is the state of a watchdog reported by the query methods,
// and the kind of transition selected by [*Engine.SetNotification].
type Status uint8

//go:generate go run golang.org/x/tools/cmd/stringer -type Status -trimprefix=Status .

const (
	// Returned alongside errors.
	StatusInvalid Status = iota

	// Armed; activity was seen within the timeout.
	StatusNotExpired

	// No activity was seen for the full timeout.
	StatusExpired

	// Deleted through [*Engine.Delete].
	StatusDeleted
)

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	for c := StatusInvalid; c <= StatusDeleted; c++ {
		if c.String() == string(b) {
			*s = c
			return nil
		}
	}
	return fmt.Errorf("unknown watchdog status %q", b)
}
