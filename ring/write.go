package ring

import (
	"fmt"
	"time"

	"github.com/maandree/shr/sem"
)

// Write acquires the writable token for the writer's current slot, blocking
// until it is available, and exposes that slot's payload region (capacity
// SlotSize) for the caller to fill. The caller must follow with WriteDone
// before calling Write, WriteTry, or WriteTimed again.
func (e *Endpoint) Write() ([]byte, error) {
	return e.write(e.sems.Acquire)
}

// WriteTry is the non-blocking variant of Write: it fails immediately with
// ErrWouldBlock if the ring is full (every slot holds undrained data).
func (e *Endpoint) WriteTry() ([]byte, error) {
	return e.write(e.sems.TryAcquire)
}

// WriteTimed is the bounded-wait variant of Write: it fails with
// ErrWouldBlock after approximately timeout if the ring stays full that
// long. No cursor advance and no token acquisition happens on timeout.
func (e *Endpoint) WriteTimed(timeout time.Duration) ([]byte, error) {
	return e.write(func(counter uint16) error {
		return e.sems.AcquireTimed(counter, timeout)
	})
}

func (e *Endpoint) write(acquire func(uint16) error) ([]byte, error) {
	if e.direction != Write {
		return nil, fmt.Errorf("ring: write: endpoint opened for reading")
	}
	if e.pending {
		return nil, fmt.Errorf("ring: write: previous slot awaits WriteDone")
	}

	i := e.cursor
	if err := acquire(sem.WriteToken(i)); err != nil {
		return nil, err
	}

	e.pendingSlot = i
	e.pending = true
	return e.segment.SlotBytes(i), nil
}

// WriteDone stores length into the slot most recently returned by Write (or
// a variant), releases its readable token so the reader can observe it, and
// advances the writer's cursor to the next slot. length must be at most
// the slot size Write exposed.
func (e *Endpoint) WriteDone(length int) error {
	if !e.pending {
		return fmt.Errorf("ring: write done: no slot pending")
	}
	if length < 0 || uint32(length) > e.layout.SlotSize {
		return fmt.Errorf("%w: write done: length %d exceeds slot size %d", ErrInvalidArgument, length, e.layout.SlotSize)
	}

	i := e.pendingSlot
	e.segment.StoreLength(i, uint64(length))
	if err := e.sems.Release(sem.ReadToken(i)); err != nil {
		return err
	}

	e.cursor = (e.cursor + 1) % e.key.SlotCount
	e.pending = false
	return nil
}

// WriteRecord composes Write and WriteDone for the common case of handing
// over an already-assembled record: it fails before acquiring any token if
// p does not fit in a slot, so a record too large to ever fit never blocks
// or consumes a slot.
func (e *Endpoint) WriteRecord(p []byte) error {
	if uint32(len(p)) > e.layout.SlotSize {
		return fmt.Errorf("%w: write record: record length %d exceeds slot size %d", ErrInvalidArgument, len(p), e.layout.SlotSize)
	}
	buf, err := e.Write()
	if err != nil {
		return err
	}
	n := copy(buf, p)
	return e.WriteDone(n)
}
