// Package key describes the portable, textualizable descriptor that names a
// ring buffer and its capacities.
//
// A Key never touches the operating system: it is pure data, built so it can
// be passed between unrelated processes (over argv, the environment, or any
// other out-of-band channel) and later handed to the ring package to attach
// to, or create, the shared-memory segment and semaphore set it names.
package key

import "fmt"

// Private is the sentinel IPC name meaning "allocate a fresh name on open".
// It mirrors IPC_PRIVATE in the System V namespace: zero is never handed out
// to a real shmget/semget call.
const Private int32 = 0

// Key identifies a ring buffer on a host. ShmName and SemName are System V
// IPC key values; SlotSize and SlotCount describe the ring's capacity. Two
// Keys with the same four fields name the same ring.
type Key struct {
	ShmName   int32
	SemName   int32
	SlotSize  uint32
	SlotCount uint32
}

// IsPrivate reports whether k was produced by MakePrivate and has not yet
// been resolved to concrete IPC names by Create or Open.
func (k Key) IsPrivate() bool {
	return k.ShmName == Private && k.SemName == Private
}

// MakePrivate returns a Key tagged as "create a new private ring on open",
// carrying the requested capacities but no IPC names yet. Passing it to
// ring.Open creates both the shared-memory segment and the semaphore set
// with owner-only permissions instead of attaching to existing ones.
func MakePrivate(slotSize, slotCount uint32) Key {
	return Key{ShmName: Private, SemName: Private, SlotSize: slotSize, SlotCount: slotCount}
}

// String implements fmt.Stringer via the key-text codec, so a Key can be
// dropped straight into a log.Printf call.
func (k Key) String() string {
	return ToText(k)
}

var _ fmt.Stringer = Key{}
