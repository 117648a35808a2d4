//go:build linux

package sem

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// setAll initializes every counter in the set via semctl(SETALL). It is
// kept in its own build-tagged file, together with the rest of this
// package's semctl calls, because semctl's variadic union argument isn't
// exposed uniformly across unix package versions — isolating the raw
// syscalls here keeps that detail out of the rest of the package.
func setAll(id int, values []uint16) error {
	_, _, errno := unix.Syscall6(unix.SYS_SEMCTL, uintptr(id), 0, unix.SETALL,
		uintptr(unsafe.Pointer(&values[0])), 0, 0)
	if errno != 0 {
		return errno
	}
	return nil
}

// rmid destroys the semaphore set.
func rmid(id int) error {
	_, _, errno := unix.Syscall6(unix.SYS_SEMCTL, uintptr(id), 0, unix.IPC_RMID, 0, 0, 0)
	if errno != 0 {
		return errno
	}
	return nil
}

// semidDS mirrors enough of the kernel's struct semid_ds to read and write
// ownership and permission bits via IPC_STAT/IPC_SET. struct ipc_perm has
// the same shape for shared-memory, semaphore, and message-queue objects on
// Linux, so this reuses unix.SysvIpcPerm rather than redeclaring it.
type semidDS struct {
	Perm   unix.SysvIpcPerm
	Otime  int64
	Ctime  int64
	Nsems  uint64
	_      [4]uint64 // kernel-internal pointers/padding, unused here
}

// ipc64 must be OR'd into the IPC_STAT/IPC_SET cmd argument on
// Linux so the kernel copies the modern 32-bit-uid/gid ipc_perm shape
// unix.SysvIpcPerm describes, instead of the legacy 16-bit one. unix.Shmctl
// already does this internally for the shm path; semctl has no such
// wrapper here, so it's applied by hand.
const ipc64 = 0x100

func statPerm(id int) (unix.SysvIpcPerm, error) {
	var ds semidDS
	_, _, errno := unix.Syscall6(unix.SYS_SEMCTL, uintptr(id), 0, unix.IPC_STAT|ipc64,
		uintptr(unsafe.Pointer(&ds)), 0, 0)
	if errno != 0 {
		return unix.SysvIpcPerm{}, errno
	}
	return ds.Perm, nil
}

func setPerm(id int, perm unix.SysvIpcPerm) error {
	ds, err := semidDSFor(id)
	if err != nil {
		return err
	}
	ds.Perm.Uid = perm.Uid
	ds.Perm.Gid = perm.Gid
	ds.Perm.Mode = perm.Mode

	_, _, errno := unix.Syscall6(unix.SYS_SEMCTL, uintptr(id), 0, unix.IPC_SET|ipc64,
		uintptr(unsafe.Pointer(&ds)), 0, 0)
	if errno != 0 {
		return errno
	}
	return nil
}

func semidDSFor(id int) (semidDS, error) {
	var ds semidDS
	_, _, errno := unix.Syscall6(unix.SYS_SEMCTL, uintptr(id), 0, unix.IPC_STAT|ipc64,
		uintptr(unsafe.Pointer(&ds)), 0, 0)
	if errno != 0 {
		return semidDS{}, errno
	}
	return ds, nil
}
