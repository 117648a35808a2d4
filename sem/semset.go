// Package sem allocates and operates the System V semaphore set backing a
// ring buffer's per-slot token pairs.
//
// A set has 2*slotCount counters: counter 2*i is the writable token for
// slot i, counter 2*i+1 is the readable token. On creation every writable
// token is 1 and every readable token is 0 — every slot starts idle and
// owned by the writer. Exactly one of the three disciplines below is used
// per call; no multi-counter atomic operation is required by this package
// or by the ring protocol built on it.
package sem

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/unix"

	"github.com/maandree/shr/internal/ipcname"
)

// ErrWouldBlock is returned by TryAcquire when the counter is already zero,
// and by AcquireTimed when the wait expires before the counter becomes
// positive. Neither case advances any state: no counter is touched.
var ErrWouldBlock = errors.New("sem: would block")

// ErrInterrupted is returned by Acquire and AcquireTimed when the blocking
// wait is interrupted by a signal before the counter becomes positive. The
// caller may retry; this package never retries on the caller's behalf.
var ErrInterrupted = errors.New("sem: interrupted")

// ErrRemoved is returned when the underlying semaphore set was destroyed
// while a call was in flight or pending.
var ErrRemoved = errors.New("sem: removed")

// WriteToken returns the index of the writable token for slot i.
func WriteToken(i uint32) uint16 { return uint16(2 * i) }

// ReadToken returns the index of the readable token for slot i.
func ReadToken(i uint32) uint16 { return uint16(2*i + 1) }

// Set is a live reference to a System V semaphore set of 2*slotCount
// counters.
type Set struct {
	ID        int
	Name      int32
	SlotCount uint32
}

// CreateSet allocates a new semaphore set of 2*slotCount counters under a
// randomly chosen, not-yet-used name, with the given permission bits, and
// initializes every slot's tokens to {writable: 1, readable: 0}. It retries
// name collisions (EEXIST) and interrupted calls (EINTR).
func CreateSet(slotCount uint32, perm uint32) (int32, int, error) {
	nsems := int(2 * slotCount)

	for {
		name, err := ipcname.Random()
		if err != nil {
			return 0, -1, err
		}

		id, err := unix.Semget(int(name), nsems, unix.IPC_CREAT|unix.IPC_EXCL|int(perm))
		if err != nil {
			if errors.Is(err, unix.EEXIST) || errors.Is(err, unix.EINTR) {
				continue
			}
			return 0, -1, fmt.Errorf("sem: create: %w", err)
		}

		values := make([]uint16, nsems)
		for i := uint32(0); i < slotCount; i++ {
			values[WriteToken(i)] = 1
			values[ReadToken(i)] = 0
		}
		if err := setAll(id, values); err != nil {
			_ = destroy(id)
			return 0, -1, fmt.Errorf("sem: create: initialize: %w", err)
		}

		return name, id, nil
	}
}

// Attach looks a semaphore set up by name; it retries on EINTR.
func Attach(name int32, slotCount uint32) (*Set, error) {
	nsems := int(2 * slotCount)
	for {
		id, err := unix.Semget(int(name), nsems, 0)
		if err == nil {
			return &Set{ID: id, Name: name, SlotCount: slotCount}, nil
		}
		if errors.Is(err, unix.EINTR) {
			continue
		}
		return nil, fmt.Errorf("sem: attach: %w", err)
	}
}

// Destroy removes the semaphore set, ignoring "already removed" errors.
func Destroy(id int) error {
	if id < 0 {
		return nil
	}
	return destroy(id)
}

func destroy(id int) error {
	if err := rmid(id); err != nil && !errors.Is(err, unix.EINVAL) {
		return fmt.Errorf("sem: destroy: %w", err)
	}
	return nil
}

// DestroyByName looks a semaphore set up by name and destroys it, ignoring
// a missing set and a private sentinel name.
func DestroyByName(name int32) error {
	if name == 0 {
		return nil
	}
	id, err := unix.Semget(int(name), 0, 0)
	if err != nil {
		if errors.Is(err, unix.ENOENT) {
			return nil
		}
		return fmt.Errorf("sem: destroy by name: %w", err)
	}
	return Destroy(id)
}

// Acquire decrements counter, blocking until it is positive. It fails with
// ErrInterrupted if a signal interrupts the wait, and with ErrRemoved if
// the set is destroyed underneath the caller.
func (s *Set) Acquire(counter uint16) error {
	return s.op(counter, -1, 0, nil)
}

// TryAcquire decrements counter without blocking, failing immediately with
// ErrWouldBlock if it is zero.
func (s *Set) TryAcquire(counter uint16) error {
	return s.op(counter, -1, unix.IPC_NOWAIT, nil)
}

// AcquireTimed decrements counter, blocking for at most timeout before
// failing with ErrWouldBlock. No partial state change occurs on timeout:
// the counter is left untouched.
func (s *Set) AcquireTimed(counter uint16, timeout time.Duration) error {
	ts := unix.NsecToTimespec(timeout.Nanoseconds())
	return s.op(counter, -1, 0, &ts)
}

// Release increments counter by one.
func (s *Set) Release(counter uint16) error {
	return s.op(counter, 1, 0, nil)
}

// Stat returns the owning uid/gid and the permission bits of the set, read
// via semctl(IPC_STAT) — the authoritative source for both.
func (s *Set) Stat() (uid, gid, perm uint32, err error) {
	p, err := statPerm(s.ID)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("sem: stat: %w", err)
	}
	return p.Uid, p.Gid, uint32(p.Mode), nil
}

// Chown sets the owning uid/gid of the set.
func (s *Set) Chown(uid, gid uint32) error {
	p, err := statPerm(s.ID)
	if err != nil {
		return fmt.Errorf("sem: chown: %w", err)
	}
	p.Uid = uid
	p.Gid = gid
	if err := setPerm(s.ID, p); err != nil {
		return fmt.Errorf("sem: chown: %w", err)
	}
	return nil
}

// Chmod sets the permission bits of the set. perm is expected to already be
// normalized (any access for a class promotes to full read+write, execute
// bits cleared) — see normalizePermissions in package ring.
func (s *Set) Chmod(perm uint32) error {
	p, err := statPerm(s.ID)
	if err != nil {
		return fmt.Errorf("sem: chmod: %w", err)
	}
	p.Mode = uint16(perm)
	if err := setPerm(s.ID, p); err != nil {
		return fmt.Errorf("sem: chmod: %w", err)
	}
	return nil
}

func (s *Set) op(counter uint16, delta int16, flags int16, timeout *unix.Timespec) error {
	sops := []unix.Sembuf{{SemNum: counter, SemOp: delta, SemFlg: flags}}

	var err error
	if timeout != nil {
		err = unix.Semtimedop(s.ID, sops, timeout)
	} else {
		err = unix.Semop(s.ID, sops)
	}
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, unix.EAGAIN):
		return ErrWouldBlock
	case errors.Is(err, unix.EINTR):
		return ErrInterrupted
	case errors.Is(err, unix.EIDRM), errors.Is(err, unix.EINVAL):
		return ErrRemoved
	default:
		return fmt.Errorf("sem: op: %w", err)
	}
}
