package ring

import (
	"errors"

	"github.com/maandree/shr/sem"
	"github.com/maandree/shr/shm"
)

// Error kinds surfaced by this package, per spec.md §7. Every fallible
// operation returns one of these, possibly wrapped with additional context
// via fmt.Errorf's %w — classify with errors.Is, never by string matching.
var (
	// ErrInvalidArgument covers a zero slot count, a zero slot size paired
	// with a non-zero slot count, or permission bits outside the
	// recognized mask.
	ErrInvalidArgument = shm.ErrInvalidArgument

	// ErrWouldBlock is returned by the non-blocking and timed variants of
	// Read/Write when the acquire saw its counter at zero.
	ErrWouldBlock = sem.ErrWouldBlock

	// ErrInterrupted is returned when a blocking acquire is interrupted by
	// a signal; the caller may retry.
	ErrInterrupted = sem.ErrInterrupted

	// ErrRemoved is returned when the underlying semaphore set or segment
	// was destroyed out from under a live endpoint.
	ErrRemoved = sem.ErrRemoved

	// ErrAlreadyReversed is returned by ReverseDup if it is called more
	// than once on the same endpoint — the C original leaves this as
	// undefined behavior; this package makes it a defined error instead.
	ErrAlreadyReversed = errors.New("ring: already reversed")
)
