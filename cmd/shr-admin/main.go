// Command shr-admin inspects or tears down an existing ring by key text:
// `shr-admin stat <key>` prints ownership and permission bits, `shr-admin
// chown <key> <uid> <gid>` and `shr-admin chmod <key> <perm>` change them,
// and `shr-admin remove <key>` destroys the ring's segment and semaphore
// set.
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/maandree/shr/key"
	"github.com/maandree/shr/ring"
)

func main() {
	if len(os.Args) < 3 {
		log.Fatalf("usage: %s {stat|chown|chmod|remove} <key> [args...]", os.Args[0])
	}

	cmd := os.Args[1]
	k := key.FromText(os.Args[2])

	switch cmd {
	case "stat":
		stat(k)
	case "chown":
		if len(os.Args) != 5 {
			log.Fatalf("usage: %s chown <key> <uid> <gid>", os.Args[0])
		}
		chown(k, os.Args[3], os.Args[4])
	case "chmod":
		if len(os.Args) != 4 {
			log.Fatalf("usage: %s chmod <key> <perm>", os.Args[0])
		}
		chmod(k, os.Args[3])
	case "remove":
		if err := ring.RemoveByKey(k); err != nil {
			log.Fatalf("remove: %v", err)
		}
	default:
		log.Fatalf("unknown subcommand %q", cmd)
	}
}

func stat(k key.Key) {
	r, err := ring.Open(k, ring.Read)
	if err != nil {
		log.Fatalf("open: %v", err)
	}
	defer r.Close()

	uid, gid, perm, err := r.Stat()
	if err != nil {
		log.Fatalf("stat: %v", err)
	}

	fmt.Printf("slot size: %d\n", k.SlotSize)
	fmt.Printf("slot count: %d\n", k.SlotCount)
	fmt.Printf("owner: %d\n", uid)
	fmt.Printf("group: %d\n", gid)
	fmt.Printf("mode: %o\n", perm)
}

func chown(k key.Key, uidArg, gidArg string) {
	uid, err := strconv.ParseUint(uidArg, 10, 32)
	if err != nil {
		log.Fatalf("uid: %v", err)
	}
	gid, err := strconv.ParseUint(gidArg, 10, 32)
	if err != nil {
		log.Fatalf("gid: %v", err)
	}

	// Opened for reading, not writing: admin operations only need the
	// segment/semaphore IDs, and a writer's Close stamps the terminal
	// marker, which would plant a spurious EOF in a ring still in use.
	r, err := ring.Open(k, ring.Read)
	if err != nil {
		log.Fatalf("open: %v", err)
	}
	defer r.Close()

	if err := r.Chown(uint32(uid), uint32(gid)); err != nil {
		log.Fatalf("chown: %v", err)
	}
}

func chmod(k key.Key, permArg string) {
	perm, err := strconv.ParseUint(permArg, 8, 32)
	if err != nil {
		log.Fatalf("perm: %v", err)
	}

	// Opened for reading, not writing — see the comment in chown above.
	r, err := ring.Open(k, ring.Read)
	if err != nil {
		log.Fatalf("open: %v", err)
	}
	defer r.Close()

	if err := r.Chmod(uint32(perm)); err != nil {
		log.Fatalf("chmod: %v", err)
	}
}
