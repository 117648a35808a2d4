// Package ring is the public API of the shared-memory ring buffer: the
// Protocol and Admin modules from spec.md §4.4/§4.5, built on package shm
// (Storage) and package sem (Synchronization).
//
// Exactly one writer and one reader are supported per ring. Concurrent use
// of either endpoint's API from more than one goroutine, let alone more
// than one process, is undefined — each Endpoint is owned by a single
// execution context at a time, matching spec.md §5.
package ring

import (
	"fmt"

	"github.com/maandree/shr/key"
	"github.com/maandree/shr/sem"
	"github.com/maandree/shr/shm"
)

// Direction selects which half of the ring an Endpoint drives.
type Direction = shm.Direction

const (
	Write Direction = shm.Write
	Read  Direction = shm.Read
)

// ownerOnly is the permission mode private rings are created with: only the
// creating user may read or write the segment and semaphore set.
const ownerOnly = 0600

// Endpoint is a live attachment to one side of a ring buffer. The zero
// value is not usable; obtain one via Open.
type Endpoint struct {
	key       key.Key
	direction Direction
	segment   *shm.Segment
	sems      *sem.Set
	layout    shm.Layout

	cursor   uint32
	reversed bool

	// pending tracks an acquired-but-not-yet-released token between the
	// acquire step and the Done step of the read or write half-state
	// machine, along with the slot index it belongs to.
	pendingSlot uint32
	pending     bool
}

// Key returns the finalized key for e's ring: for a ring opened from a
// PRIVATE key, this is the key with its IPC names filled in by Open.
func (e *Endpoint) Key() key.Key { return e.key }

// Direction reports which half of the ring e drives.
func (e *Endpoint) Direction() Direction { return e.direction }

// normalizePermissions applies spec.md's permission policy: any access bit
// granted to a class is promoted to full read+write within that class, and
// execute bits are always cleared.
func normalizePermissions(perm uint32) uint32 {
	const (
		rwxUser  = 0700
		rwxGroup = 0070
		rwxOther = 0007
		noExec   = 0111
	)

	out := perm
	if perm&rwxUser != 0 {
		out |= 0600
	}
	if perm&rwxGroup != 0 {
		out |= 0060
	}
	if perm&rwxOther != 0 {
		out |= 0006
	}
	out &^= noExec
	return out
}

// Create allocates a new, named ring with the given slot capacity and
// permission bits, and returns the finalized Key that names it. It does not
// open an Endpoint on the ring; call Open with the returned Key (from
// either this process or another) to do that.
func Create(slotSize, slotCount, perm uint32) (key.Key, error) {
	layout, err := shm.NewLayout(slotSize, slotCount)
	if err != nil {
		return key.Key{}, err
	}
	if perm&^0777 != 0 {
		return key.Key{}, fmt.Errorf("%w: permission bits %o outside 0777", ErrInvalidArgument, perm)
	}
	perm = normalizePermissions(perm)

	shmName, shmID, err := shm.CreateSegment(layout, perm)
	if err != nil {
		return key.Key{}, fmt.Errorf("ring: create: %w", err)
	}

	semName, semID, err := sem.CreateSet(slotCount, perm)
	if err != nil {
		_ = shm.Destroy(shmID)
		return key.Key{}, fmt.Errorf("ring: create: %w", err)
	}
	_ = semID

	return key.Key{ShmName: shmName, SemName: semName, SlotSize: slotSize, SlotCount: slotCount}, nil
}

// Open produces an Endpoint for the given direction.
//
// If k is PRIVATE (see key.MakePrivate), Open creates both the segment and
// the semaphore set fresh, with owner-only permissions, exactly as Create
// would, and fills in k's IPC names on the returned Endpoint's Key.
// Otherwise Open attaches to the pre-existing segment and semaphore set
// k already names.
//
// Partial failures restore the pre-call state: any segment or semaphore set
// this call created is destroyed before the error is returned.
func Open(k key.Key, direction Direction) (*Endpoint, error) {
	owned := k.IsPrivate()
	if owned {
		created, err := Create(k.SlotSize, k.SlotCount, ownerOnly)
		if err != nil {
			return nil, err
		}
		k = created
	}

	layout, err := shm.NewLayout(k.SlotSize, k.SlotCount)
	if err != nil {
		if owned {
			_ = RemoveByKey(k)
		}
		return nil, err
	}

	segment, err := shm.Attach(k.ShmName, layout, direction)
	if err != nil {
		if owned {
			_ = RemoveByKey(k)
		}
		return nil, fmt.Errorf("ring: open: %w", err)
	}

	semSet, err := sem.Attach(k.SemName, k.SlotCount)
	if err != nil {
		_ = shm.Detach(segment)
		if owned {
			_ = RemoveByKey(k)
		}
		return nil, fmt.Errorf("ring: open: %w", err)
	}

	return &Endpoint{key: k, direction: direction, segment: segment, sems: semSet, layout: layout}, nil
}

// Close detaches the segment. The writer, when closing, first stamps the
// terminal marker with cursor+1, with no token release accompanying it:
// EOF is discovered by the reader, not pushed to it. Close is a no-op on a
// already-closed Endpoint.
func (e *Endpoint) Close() error {
	if e.segment == nil {
		return nil
	}
	if e.direction == Write {
		e.segment.StoreMarker(uint64(e.cursor) + 1)
	}
	if err := shm.Detach(e.segment); err != nil {
		return err
	}
	e.segment = nil
	return nil
}

// Remove closes e, then destroys both the segment and the semaphore set.
func Remove(e *Endpoint) error {
	if e == nil {
		return nil
	}
	shmID, semID := -1, -1
	if e.segment != nil {
		shmID = e.segment.ID
	}
	if e.sems != nil {
		semID = e.sems.ID
	}

	if err := e.Close(); err != nil {
		return err
	}
	if err := shm.Destroy(shmID); err != nil {
		return err
	}
	if err := sem.Destroy(semID); err != nil {
		return err
	}
	return nil
}

// RemoveByKey destroys the segment and semaphore set k names without
// opening an Endpoint first. Missing objects are ignored, so repeated or
// racing calls are harmless; RemoveByKey on a PRIVATE key is a no-op since
// no concrete objects are named yet.
func RemoveByKey(k key.Key) error {
	if k.IsPrivate() {
		return nil
	}
	if err := shm.DestroyByName(k.ShmName); err != nil {
		return err
	}
	if err := sem.DestroyByName(k.SemName); err != nil {
		return err
	}
	return nil
}
