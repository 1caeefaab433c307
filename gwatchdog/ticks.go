package gwatchdog

// tickTime is a tick value qualified by the number of counter wraps
// the worker has observed, so deadlines on either side of a wrap
// compare in real time order.
type tickTime struct {
	epoch uint64
	tick  uint32
}

func (t tickTime) before(o tickTime) bool {
	if t.epoch != o.epoch {
		return t.epoch < o.epoch
	}
	return t.tick < o.tick
}

// addTicks returns t advanced by d on a counter that wraps to zero after max.
func addTicks(t tickTime, d, max uint32) tickTime {
	room := max - t.tick
	if d <= room {
		return tickTime{epoch: t.epoch, tick: t.tick + d}
	}
	return tickTime{epoch: t.epoch + 1, tick: d - room - 1}
}

// tickSub returns the ticks elapsed from earlier to later,
// assuming the counter wrapped at most once in between.
func tickSub(later, earlier, max uint32) uint32 {
	if later >= earlier {
		return later - earlier
	}
	return (max - earlier) + later + 1
}

// tickDistance returns the ticks from a to a later b.
// b may be at most one epoch ahead of a.
func tickDistance(a, b tickTime, max uint32) uint32 {
	if a.epoch == b.epoch {
		return b.tick - a.tick
	}
	return (max - a.tick) + b.tick + 1
}

// packActivity and its accessors encode the reset sequence number
// and the tick of the latest reset into one word.
func packActivity(seq, tick uint32) uint64 {
	return uint64(seq)<<32 | uint64(tick)
}

func activitySeq(a uint64) uint32  { return uint32(a >> 32) }
func activityTick(a uint64) uint32 { return uint32(a) }
