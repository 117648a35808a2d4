// Package ipcname draws candidate System V IPC key values for the shm and
// sem packages' create paths. It is the one piece of naming logic both
// modules need identically, per spec.md §4.2/§4.3: a random key in the
// legal key_t range, excluding the IPC_PRIVATE sentinel.
package ipcname

import (
	"crypto/rand"
	"encoding/binary"
)

// Random draws a candidate System V key in the full positive int32 range,
// excluding the IPC_PRIVATE sentinel (0).
//
// The original C implementation derived its candidate from a scaled
// rand() call, which per the design notes' open question can produce only
// ~2^30 distinct values on typical hosts. This draws from crypto/rand
// across the full positive range instead.
func Random() (int32, error) {
	var buf [4]byte
	for {
		if _, err := rand.Read(buf[:]); err != nil {
			return 0, err
		}
		v := int32(binary.LittleEndian.Uint32(buf[:]) & 0x7fffffff)
		if v != 0 {
			return v, nil
		}
	}
}
