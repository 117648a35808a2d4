// Package shm allocates, attaches to, and destroys the System V shared
// memory segment that backs a ring buffer, and defines the fixed layout of
// that segment.
//
// The layout is:
//
//	0 .. wordSize                          terminal marker (size word)
//	wordSize .. wordSize+slotSize          slot 0 payload
//	wordSize+slotSize .. +wordSize          slot 0 length word
//	...                                     (slotCount entries)
//
// Total size = wordSize + slotCount*(slotSize+wordSize). Both endpoints read
// this layout without negotiation; it is fixed at creation time and encoded
// entirely by a Key's SlotSize/SlotCount.
package shm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"golang.org/x/sys/unix"

	"github.com/maandree/shr/internal/ipcname"
)

// wordSize is the size, in bytes, of the terminal marker and of each slot's
// length word. A fixed 8-byte word is used regardless of host pointer width
// so that the layout does not change across 32- and 64-bit builds of this
// package; the marker and the length words are little-endian uint64s.
const wordSize = 8

// Direction selects whether a segment is attached for reading or writing.
// Read attaches read-only (SHM_RDONLY); Write attaches read-write, since the
// writer must be able to store length words as well as payload bytes.
type Direction int

const (
	Write Direction = iota
	Read
)

// ErrInvalidArgument reports a slot size/count combination that is zero, or
// that would overflow the segment size computation.
var ErrInvalidArgument = errors.New("shm: invalid argument")

// Layout describes the byte offsets of a ring's slots within its segment.
type Layout struct {
	SlotSize  uint32
	SlotCount uint32
	Total     uint64
}

// NewLayout validates slotSize/slotCount and computes the segment's total
// size. It rejects a zero slot count, a zero slot size with a non-zero slot
// count, and any combination whose total size would overflow.
func NewLayout(slotSize, slotCount uint32) (Layout, error) {
	if slotCount == 0 {
		return Layout{}, fmt.Errorf("%w: slot count must be positive", ErrInvalidArgument)
	}
	if slotSize == 0 {
		return Layout{}, fmt.Errorf("%w: slot size must be positive", ErrInvalidArgument)
	}

	perSlot := uint64(slotSize) + wordSize
	count := uint64(slotCount)

	if perSlot != 0 && count > (math.MaxUint64-wordSize)/perSlot {
		return Layout{}, fmt.Errorf("%w: segment size overflows", ErrInvalidArgument)
	}

	total := wordSize + count*perSlot
	if total > uint64(math.MaxInt) {
		return Layout{}, fmt.Errorf("%w: segment size exceeds host limit", ErrInvalidArgument)
	}

	return Layout{SlotSize: slotSize, SlotCount: slotCount, Total: total}, nil
}

// MarkerOffset is the offset of the terminal marker, always 0.
func (l Layout) MarkerOffset() uint64 { return 0 }

// SlotOffset returns the byte offset of slot i's payload region.
func (l Layout) SlotOffset(i uint32) uint64 {
	return wordSize + uint64(i)*(uint64(l.SlotSize)+wordSize)
}

// LengthOffset returns the byte offset of slot i's length word.
func (l Layout) LengthOffset(i uint32) uint64 {
	return l.SlotOffset(i) + uint64(l.SlotSize)
}

// Segment is a live attachment to a System V shared-memory segment.
type Segment struct {
	ID     int
	Name   int32
	Base   []byte
	Layout Layout
}

// LoadMarker reads the terminal marker as a single atomic-aligned word load.
func (s *Segment) LoadMarker() uint64 {
	return binary.LittleEndian.Uint64(s.Base[0:wordSize])
}

// StoreMarker writes the terminal marker as a single aligned word store.
// Per the open question in the design notes, this implementation always
// performs a full word store, never a narrower one, so the reader's
// full-word load is well defined.
func (s *Segment) StoreMarker(v uint64) {
	binary.LittleEndian.PutUint64(s.Base[0:wordSize], v)
}

// SlotBytes returns the mutable payload region of slot i. Callers must only
// call this while holding that slot's token for the corresponding
// direction; the shm package does not itself enforce that discipline — see
// package ring.
func (s *Segment) SlotBytes(i uint32) []byte {
	off := s.Layout.SlotOffset(i)
	return s.Base[off : off+uint64(s.Layout.SlotSize)]
}

// LoadLength reads slot i's length word.
func (s *Segment) LoadLength(i uint32) uint64 {
	off := s.Layout.LengthOffset(i)
	return binary.LittleEndian.Uint64(s.Base[off : off+wordSize])
}

// StoreLength writes slot i's length word.
func (s *Segment) StoreLength(i uint32, length uint64) {
	off := s.Layout.LengthOffset(i)
	binary.LittleEndian.PutUint64(s.Base[off:off+wordSize], length)
}

// CreateSegment allocates a new shared-memory segment of the given layout
// under a randomly chosen, not-yet-used name, with the given permission
// bits (already normalized by the caller — see normalizePermissions in
// package ring).
// It retries name collisions (EEXIST) and interrupted calls (EINTR); any
// other shmget failure is terminal. On success the segment's terminal
// marker has been initialized to 0 and the segment has been detached again.
func CreateSegment(layout Layout, perm uint32) (int32, int, error) {
	for {
		name, err := ipcname.Random()
		if err != nil {
			return 0, -1, err
		}

		id, err := unix.Shmget(int(name), int(layout.Total), unix.IPC_CREAT|unix.IPC_EXCL|int(perm))
		if err != nil {
			if errors.Is(err, unix.EEXIST) || errors.Is(err, unix.EINTR) {
				continue
			}
			return 0, -1, fmt.Errorf("shm: create: %w", err)
		}

		base, err := attachRaw(id, Write)
		if err != nil {
			_, _ = unix.Shmctl(id, unix.IPC_RMID, nil)
			return 0, -1, fmt.Errorf("shm: create: attach to initialize: %w", err)
		}
		binary.LittleEndian.PutUint64(base[0:wordSize], 0)
		if err := unix.Shmdt(uintptrOf(base)); err != nil {
			return 0, -1, fmt.Errorf("shm: create: detach after initialize: %w", err)
		}

		return name, id, nil
	}
}

// Attach maps an existing, named segment into the caller's address space
// for the given direction. It retries on EINTR. The returned Segment's Base
// is ready for use by package ring.
func Attach(name int32, layout Layout, direction Direction) (*Segment, error) {
	var id int
	var err error
	for {
		id, err = unix.Shmget(int(name), int(layout.Total), 0)
		if err == nil {
			break
		}
		if errors.Is(err, unix.EINTR) {
			continue
		}
		return nil, fmt.Errorf("shm: attach: %w", err)
	}

	base, err := attachRaw(id, direction)
	if err != nil {
		return nil, fmt.Errorf("shm: attach: %w", err)
	}

	return &Segment{ID: id, Name: name, Base: base, Layout: layout}, nil
}

// Detach unmaps the segment from the caller's address space. The Segment
// must not be used again afterwards.
func Detach(s *Segment) error {
	if s == nil || s.Base == nil {
		return nil
	}
	if err := unix.Shmdt(uintptrOf(s.Base)); err != nil {
		return fmt.Errorf("shm: detach: %w", err)
	}
	s.Base = nil
	return nil
}

// Stat returns the owning uid/gid and permission bits of the segment,
// identified by id, via shmctl(IPC_STAT) — the authoritative source for
// both, per spec.md's Admin module.
func Stat(id int) (uid, gid, perm uint32, err error) {
	var desc unix.SysvShmDesc
	if _, err := unix.Shmctl(id, unix.IPC_STAT, &desc); err != nil {
		return 0, 0, 0, fmt.Errorf("shm: stat: %w", err)
	}
	return desc.Perm.Uid, desc.Perm.Gid, uint32(desc.Perm.Mode), nil
}

// Chown sets the owning uid/gid of the segment identified by id.
func Chown(id int, uid, gid uint32) error {
	var desc unix.SysvShmDesc
	if _, err := unix.Shmctl(id, unix.IPC_STAT, &desc); err != nil {
		return fmt.Errorf("shm: chown: %w", err)
	}
	desc.Perm.Uid = uid
	desc.Perm.Gid = gid
	if _, err := unix.Shmctl(id, unix.IPC_SET, &desc); err != nil {
		return fmt.Errorf("shm: chown: %w", err)
	}
	return nil
}

// Chmod sets the permission bits of the segment identified by id. perm is
// expected to already be normalized — see normalizePermissions in package
// ring.
func Chmod(id int, perm uint32) error {
	var desc unix.SysvShmDesc
	if _, err := unix.Shmctl(id, unix.IPC_STAT, &desc); err != nil {
		return fmt.Errorf("shm: chmod: %w", err)
	}
	desc.Perm.Mode = uint16(perm)
	if _, err := unix.Shmctl(id, unix.IPC_SET, &desc); err != nil {
		return fmt.Errorf("shm: chmod: %w", err)
	}
	return nil
}

// Destroy removes a segment by its live ID, ignoring "already removed"
// errors so repeated calls are harmless.
func Destroy(id int) error {
	if id < 0 {
		return nil
	}
	if _, err := unix.Shmctl(id, unix.IPC_RMID, nil); err != nil && !errors.Is(err, unix.EINVAL) {
		return fmt.Errorf("shm: destroy: %w", err)
	}
	return nil
}

// DestroyByName looks a segment up by name and destroys it, ignoring a
// missing segment (there is nothing to remove by definition) and a private
// sentinel name (there is no segment that name could ever refer to).
func DestroyByName(name int32) error {
	if name == 0 {
		return nil
	}
	id, err := unix.Shmget(int(name), 0, 0)
	if err != nil {
		if errors.Is(err, unix.ENOENT) {
			return nil
		}
		return fmt.Errorf("shm: destroy by name: %w", err)
	}
	return Destroy(id)
}
