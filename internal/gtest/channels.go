package gtest

import (
	"time"
)

// TestingFatalHelper is the subset of [testing.TB] used by the channel helpers.
// It is an interface so the helpers themselves can be tested.
type TestingFatalHelper interface {
	Helper()

	Fatalf(format string, args ...any)
}

// ReceiveSoon receives a value from ch,
// calling tb.Fatalf if nothing arrives within a short scaled timeout.
func ReceiveSoon[T any](tb TestingFatalHelper, ch <-chan T) T {
	tb.Helper()
	return ReceiveOrTimeout(tb, ch, ScaleMs(100))
}

// ReceiveOrTimeout receives a value from ch,
// calling tb.Fatalf if nothing arrives within timeout.
func ReceiveOrTimeout[T any](tb TestingFatalHelper, ch <-chan T, timeout ScaledDuration) T {
	tb.Helper()

	if ch == nil {
		tb.Fatalf("refusing to block receiving from nil channel %T", ch)
		panic("unreachable")
	}

	timer := time.NewTimer(time.Duration(timeout))
	defer timer.Stop()

	select {
	case <-timer.C:
		tb.Fatalf(
			"timed out receiving from channel %T; if this only flakes on one machine, raise GPMS_TEST_TIME_FACTOR above %d",
			ch, TimeFactor,
		)
		// Fatalf stops the test goroutine for a real testing.T,
		// but a fake helper returns here.
		panic("unreachable")
	case x := <-ch:
		return x
	}
}

// SendSoon sends x to ch,
// calling tb.Fatalf if the send blocks for a short scaled timeout.
func SendSoon[T any](tb TestingFatalHelper, ch chan<- T, x T) {
	tb.Helper()

	if ch == nil {
		tb.Fatalf("refusing to block sending to nil channel %T", ch)
		panic("unreachable")
	}

	timer := time.NewTimer(time.Duration(ScaleMs(100)))
	defer timer.Stop()

	select {
	case <-timer.C:
		tb.Fatalf(
			"timed out sending to channel %T; if this only flakes on one machine, raise GPMS_TEST_TIME_FACTOR above %d",
			ch, TimeFactor,
		)
		panic("unreachable")
	case ch <- x:
	}
}

// NotSending calls tb.Fatalf if a value is immediately available on ch.
func NotSending[T any](tb TestingFatalHelper, ch <-chan T) {
	tb.Helper()

	select {
	case x := <-ch:
		tb.Fatalf("expected no value on channel %T; got %v", ch, x)
	default:
	}
}

// NotSendingSoon asserts that ch stays silent for a short scaled duration.
// Prefer [NotSending] when another synchronization point exists,
// since this blocks the test.
func NotSendingSoon[T any](tb TestingFatalHelper, ch <-chan T) {
	tb.Helper()

	timer := time.NewTimer(time.Duration(ScaleMs(50)))
	defer timer.Stop()

	select {
	case <-timer.C:
	case x := <-ch:
		tb.Fatalf("expected channel %T to stay silent; got %v", ch, x)
	}
}
