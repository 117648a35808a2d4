package ring

import (
	"fmt"

	"github.com/maandree/shr/shm"
)

// Chown sets the owning uid/gid of both the segment and the semaphore set.
// Either failure is fatal — ownership is not left split between the two.
func (e *Endpoint) Chown(uid, gid uint32) error {
	if err := shm.Chown(e.segment.ID, uid, gid); err != nil {
		return fmt.Errorf("ring: chown: %w", err)
	}
	if err := e.sems.Chown(uid, gid); err != nil {
		return fmt.Errorf("ring: chown: %w", err)
	}
	return nil
}

// Chmod sets the permission bits of both the segment and the semaphore set,
// after applying the normalization policy (any access for a class promotes
// to full read+write, execute always cleared).
func (e *Endpoint) Chmod(perm uint32) error {
	perm = normalizePermissions(perm)
	if err := shm.Chmod(e.segment.ID, perm); err != nil {
		return fmt.Errorf("ring: chmod: %w", err)
	}
	if err := e.sems.Chmod(perm); err != nil {
		return fmt.Errorf("ring: chmod: %w", err)
	}
	return nil
}

// Stat returns the owning uid/gid and permission bits of the ring, read
// from the segment — the authoritative source, per spec.md §4.5.
func (e *Endpoint) Stat() (uid, gid, perm uint32, err error) {
	uid, gid, perm, err = shm.Stat(e.segment.ID)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("ring: stat: %w", err)
	}
	return uid, gid, perm, nil
}

// ReverseDup produces a second Endpoint pointing at the same ring with the
// opposite direction, by re-attaching the existing segment; the semaphore
// set reference is shared between the two Endpoints. This is only useful
// for a PRIVATE ring a single process created: the creator calls
// ReverseDup before forking (or, in Go, before spawning a child process and
// handing it the reversed Endpoint's Key), then each side uses its own
// direction.
//
// Calling ReverseDup a second time on e, or calling it on the Endpoint it
// returned, is an error — the C original leaves this undefined behavior;
// here it is ErrAlreadyReversed.
func (e *Endpoint) ReverseDup() (*Endpoint, error) {
	if e.reversed {
		return nil, ErrAlreadyReversed
	}

	newDirection := Read
	if e.direction == Read {
		newDirection = Write
	}

	segment, err := shm.Attach(e.key.ShmName, e.layout, newDirection)
	if err != nil {
		return nil, fmt.Errorf("ring: reverse dup: %w", err)
	}

	e.reversed = true
	return &Endpoint{
		key:       e.key,
		direction: newDirection,
		segment:   segment,
		sems:      e.sems,
		layout:    e.layout,
		reversed:  true,
	}, nil
}
