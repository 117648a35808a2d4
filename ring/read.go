package ring

import (
	"fmt"
	"time"

	"github.com/maandree/shr/sem"
)

// Read acquires the readable token for the reader's current slot, blocking
// until data is available, and exposes a read-only view of the first
// length bytes of that slot. The caller must follow with ReadDone before
// calling Read, ReadTry, or ReadTimed again.
func (e *Endpoint) Read() ([]byte, error) {
	return e.read(e.sems.Acquire)
}

// ReadTry is the non-blocking variant of Read: it fails immediately with
// ErrWouldBlock if the ring is empty (every slot is idle or held by the
// writer).
func (e *Endpoint) ReadTry() ([]byte, error) {
	return e.read(e.sems.TryAcquire)
}

// ReadTimed is the bounded-wait variant of Read: it fails with
// ErrWouldBlock after approximately timeout if the ring stays empty that
// long.
func (e *Endpoint) ReadTimed(timeout time.Duration) ([]byte, error) {
	return e.read(func(counter uint16) error {
		return e.sems.AcquireTimed(counter, timeout)
	})
}

func (e *Endpoint) read(acquire func(uint16) error) ([]byte, error) {
	if e.direction != Read {
		return nil, fmt.Errorf("ring: read: endpoint opened for writing")
	}
	if e.pending {
		return nil, fmt.Errorf("ring: read: previous slot awaits ReadDone")
	}

	i := e.cursor
	if err := acquire(sem.ReadToken(i)); err != nil {
		return nil, err
	}

	e.pendingSlot = i
	e.pending = true

	length := e.segment.LoadLength(i)
	return e.segment.SlotBytes(i)[:length], nil
}

// ReadDone releases the writable token of the slot most recently returned
// by Read (or a variant), so the writer may reuse it, and advances the
// reader's cursor. It reports eof=true once the writer has closed and the
// slot just released was the last one the writer produced — matching the
// design notes' requirement that the cursor advance happen before the EOF
// comparison.
func (e *Endpoint) ReadDone() (eof bool, err error) {
	if !e.pending {
		return false, fmt.Errorf("ring: read done: no slot pending")
	}

	i := e.pendingSlot
	if err := e.sems.Release(sem.WriteToken(i)); err != nil {
		return false, err
	}

	e.cursor = (e.cursor + 1) % e.key.SlotCount
	e.pending = false

	marker := e.segment.LoadMarker()
	eof = marker != 0 && marker == uint64(e.cursor)+1
	return eof, nil
}

// ReadRecord composes Read and ReadDone for the common case of consuming a
// whole record as a fresh byte slice. It returns eof=true together with
// the last record the writer produced, once the writer has closed and that
// record has been consumed.
func (e *Endpoint) ReadRecord() (record []byte, eof bool, err error) {
	buf, err := e.Read()
	if err != nil {
		return nil, false, err
	}
	record = append([]byte(nil), buf...)
	eof, err = e.ReadDone()
	if err != nil {
		return nil, false, err
	}
	return record, eof, nil
}
