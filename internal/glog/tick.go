package glog

import (
	"fmt"
	"log/slog"
)

// TickSpan renders a deadline relative to a tick counter
// as "deadline(+delta)", which is easier to scan than two raw fields.
type TickSpan struct {
	Now, Deadline uint32
	Rollover      bool
}

func (s TickSpan) LogValue() slog.Value {
	if s.Rollover {
		return slog.StringValue(fmt.Sprintf("%d(after wrap)", s.Deadline))
	}
	return slog.StringValue(fmt.Sprintf("%d(+%d)", s.Deadline, int64(s.Deadline)-int64(s.Now)))
}
