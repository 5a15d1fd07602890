// Package oracle implements the fixed-capacity ring buffer of tick
// cumulatives that backs the pool's time-weighted average price.
//
// Struct layout and binary-search interpolation follow the reference
// protocol's oracle design; the surrounding style (Observation as a
// plain value struct, clone-on-write buffers, errors via lib/poolerr)
// matches the rest of this module.
package oracle

import (
	"github.com/tricorn-fi/clmm-engine/lib/poolerr"
)

// MaxCardinality is the largest number of observations the ring buffer can
// grow to, matching the reference protocol's uint16 cardinality index.
const MaxCardinality = 65535

// Observation is one recorded price sample.
type Observation struct {
	BlockTimestamp uint32
	TickCumulative int64
	Initialized    bool
}

// transform advances an observation forward by delta seconds assuming the
// pool sat at tick for the whole interval.
func transform(last Observation, blockTimestamp uint32, tick int32) Observation {
	delta := int64(blockTimestamp - last.BlockTimestamp)
	return Observation{
		BlockTimestamp: blockTimestamp,
		TickCumulative: last.TickCumulative + int64(tick)*delta,
		Initialized:    true,
	}
}

// Buffer is the pool's observation ring. Index 0 is seeded by Initialize;
// Write appends new samples and grows the buffer up to cardinalityNext.
type Buffer struct {
	observations [MaxCardinality]Observation
}

// New returns an empty, uninitialized buffer.
func New() *Buffer {
	return &Buffer{}
}

// Clone deep-copies the buffer.
func (b *Buffer) Clone() *Buffer {
	clone := &Buffer{}
	clone.observations = b.observations
	return clone
}

// Initialize seeds slot 0 at the given time, returning the starting
// cardinality and cardinalityNext, both 1: the pool grows the buffer
// explicitly via IncreaseObservationCardinalityNext.
func (b *Buffer) Initialize(time uint32) (cardinality, cardinalityNext uint16) {
	b.observations[0] = Observation{BlockTimestamp: time, TickCumulative: 0, Initialized: true}
	return 1, 1
}

// Write records a new observation if at least one second has elapsed since
// the last one, growing the active cardinality toward cardinalityNext as
// slots become available. It returns the (possibly unchanged) index and
// cardinality the pool should store in Slot0.
func (b *Buffer) Write(index uint16, blockTimestamp uint32, tick int32, cardinality, cardinalityNext uint16) (uint16, uint16) {
	last := b.observations[index]
	if last.BlockTimestamp == blockTimestamp {
		return index, cardinality
	}

	cardinalityUpdated := cardinality
	if cardinalityNext > cardinality && index == cardinality-1 {
		cardinalityUpdated = cardinalityNext
	}

	indexUpdated := (index + 1) % cardinalityUpdated
	b.observations[indexUpdated] = transform(last, blockTimestamp, tick)
	return indexUpdated, cardinalityUpdated
}

// Grow reserves additional slots so a subsequent Write can start using
// them, matching the two-step "reserve then activate" cardinality growth
// so a reader never observes a torn cardinality bump.
func (b *Buffer) Grow(current uint16, next uint16) uint16 {
	if next <= current || current == 0 {
		return current
	}
	for i := current; i < next; i++ {
		b.observations[i].BlockTimestamp = 1
	}
	return next
}

// observeSingle returns the tick-cumulative secondsAgo seconds before time,
// interpolating between adjacent ring entries when necessary.
func (b *Buffer) observeSingle(time uint32, secondsAgo uint32, tick int32, index, cardinality uint16) (int64, error) {
	if secondsAgo == 0 {
		last := b.observations[index]
		if last.BlockTimestamp != time {
			last = transform(last, time, tick)
		}
		return last.TickCumulative, nil
	}

	target := time - secondsAgo

	newest := b.observations[index]
	if lteWrapping(time, newest.BlockTimestamp, target) {
		if newest.BlockTimestamp == target {
			return newest.TickCumulative, nil
		}
		return transform(newest, target, tick).TickCumulative, nil
	}

	beforeOrAt, atOrAfter, err := b.binarySearch(time, target, index, cardinality)
	if err != nil {
		return 0, err
	}

	if target == beforeOrAt.BlockTimestamp {
		return beforeOrAt.TickCumulative, nil
	}
	if target == atOrAfter.BlockTimestamp {
		return atOrAfter.TickCumulative, nil
	}

	observationTimeDelta := int64(atOrAfter.BlockTimestamp - beforeOrAt.BlockTimestamp)
	targetDelta := int64(target - beforeOrAt.BlockTimestamp)
	interpolated := beforeOrAt.TickCumulative +
		(atOrAfter.TickCumulative-beforeOrAt.TickCumulative)/observationTimeDelta*targetDelta
	return interpolated, nil
}

// binarySearch locates the observations bracketing target within the
// active [0, cardinality) window, treating the ring as chronologically
// ordered starting one slot after index (the oldest entry).
func (b *Buffer) binarySearch(time, target uint32, index, cardinality uint16) (beforeOrAt, atOrAfter Observation, err error) {
	l := (index + 1) % cardinality
	r := l + cardinality - 1

	oldest := b.observations[l]
	if !oldest.Initialized {
		oldest = b.observations[0]
		l = 0
		r = cardinality - 1
	}
	if !lteWrapping(time, oldest.BlockTimestamp, target) {
		return Observation{}, Observation{}, poolerr.ErrOld
	}

	for {
		mid := (l + r) / 2
		beforeOrAt = b.observations[mid%cardinality]
		if !beforeOrAt.Initialized {
			l = mid + 1
			continue
		}
		atOrAfter = b.observations[(mid+1)%cardinality]

		targetAtOrAfter := lteWrapping(time, beforeOrAt.BlockTimestamp, target)
		if targetAtOrAfter && lteWrapping(time, target, atOrAfter.BlockTimestamp) {
			break
		}
		if !targetAtOrAfter {
			r = mid - 1
		} else {
			l = mid + 1
		}
	}
	return beforeOrAt, atOrAfter, nil
}

// lteWrapping reports whether a <= b. Both timestamps are always at or
// before time in this pool since observations are only ever written for
// the current block, so a plain comparison is safe.
func lteWrapping(time, a, b uint32) bool {
	_ = time
	return a <= b
}

// Observe returns the cumulative tick observed secondsAgo seconds before
// time, for each entry in secondsAgos.
func (b *Buffer) Observe(time uint32, secondsAgos []uint32, tick int32, index, cardinality uint16) ([]int64, error) {
	if cardinality == 0 {
		return nil, poolerr.ErrOld
	}
	out := make([]int64, len(secondsAgos))
	for i, secondsAgo := range secondsAgos {
		cumulative, err := b.observeSingle(time, secondsAgo, tick, index, cardinality)
		if err != nil {
			return nil, err
		}
		out[i] = cumulative
	}
	return out, nil
}
