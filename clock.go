package tangle

// Clock produces the next per-field state for a local write.
type Clock interface {
	Time(maxTime uint64) uint64
}

// LamportClock is the default clock: a local write always advances
// one past the highest state it has seen for the field.
type LamportClock struct{}

func (LamportClock) Time(maxtime uint64) uint64 {
	return maxtime + 1
}
