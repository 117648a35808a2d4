// Command shr-recv attaches to a ring named by a key-text argument and
// copies every record it produces to stdout until the writer closes and
// the ring drains.
package main

import (
	"log"
	"os"

	"github.com/maandree/shr/key"
	"github.com/maandree/shr/ring"
)

func main() {
	if len(os.Args) != 2 {
		log.Fatalf("usage: %s <key>", os.Args[0])
	}

	k := key.FromText(os.Args[1])
	r, err := ring.Open(k, ring.Read)
	if err != nil {
		log.Fatalf("open: %v", err)
	}

	for {
		buf, eof, err := r.ReadRecord()
		if err != nil {
			log.Fatalf("read: %v", err)
		}
		if _, err := os.Stdout.Write(buf); err != nil {
			log.Fatalf("stdout: %v", err)
		}
		if eof {
			break
		}
	}

	if err := r.Close(); err != nil {
		log.Fatalf("close: %v", err)
	}
	if err := ring.Remove(r); err != nil {
		log.Fatalf("remove: %v", err)
	}
}
