package gwstore

import (
	"fmt"

	"github.com/gordian-engine/gpms/gwnotify"
)

type InvalidEventKindError struct {
	Kind gwnotify.Kind
}

func (e InvalidEventKindError) Error() string {
	return fmt.Sprintf("invalid event kind %s", e.Kind)
}

type InvalidLimitError struct {
	Limit int
}

func (e InvalidLimitError) Error() string {
	return fmt.Sprintf("load limit must be positive; got %d", e.Limit)
}

// ValidateEvent returns an error if e cannot be stored.
func ValidateEvent(e gwnotify.Event) error {
	switch e.Kind {
	case gwnotify.KindActive, gwnotify.KindExpired, gwnotify.KindDeleted:
		return nil
	default:
		return InvalidEventKindError{Kind: e.Kind}
	}
}
