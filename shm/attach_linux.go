//go:build linux

package shm

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// attachRaw calls shmat for the given direction and turns the raw address
// it returns into a byte slice spanning the segment, via unix.Shmctl's
// IPC_STAT to recover the segment's size.
func attachRaw(id int, direction Direction) ([]byte, error) {
	var flag int
	if direction == Read {
		flag = unix.SHM_RDONLY
	}

	addr, err := unix.Shmat(id, 0, flag)
	if err != nil {
		return nil, err
	}

	var desc unix.SysvShmDesc
	if _, err := unix.Shmctl(id, unix.IPC_STAT, &desc); err != nil {
		_ = unix.Shmdt(addr)
		return nil, err
	}

	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), int(desc.Segsz)), nil
}

// uintptrOf recovers the raw address shmat returned from the byte slice
// attachRaw built around it, so it can be passed back to shmdt.
func uintptrOf(b []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))
}
