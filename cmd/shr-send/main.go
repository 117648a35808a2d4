// Command shr-send creates a ring, prints its key text on stdout, and
// streams stdin into the ring one slot at a time until stdin closes.
package main

import (
	"fmt"
	"io"
	"log"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/maandree/shr/config"
	"github.com/maandree/shr/ring"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	flags := flag.NewFlagSet("shr-send", flag.ExitOnError)
	slotSize := flags.Uint32("slot-size", cfg.Ring.SlotSize, "bytes per slot")
	slotCount := flags.Uint32("slot-count", cfg.Ring.SlotCount, "number of slots")
	perm := flags.Uint32("perm", cfg.Ring.Perm, "permission bits for the new ring")
	flags.Parse(os.Args[1:])

	k, err := ring.Create(*slotSize, *slotCount, *perm)
	if err != nil {
		log.Fatalf("create: %v", err)
	}

	w, err := ring.Open(k, ring.Write)
	if err != nil {
		_ = ring.RemoveByKey(k)
		log.Fatalf("open: %v", err)
	}

	fmt.Printf("key: %s\n", k.String())

	buf := make([]byte, *slotSize)
	for {
		n, err := os.Stdin.Read(buf)
		if n > 0 {
			if werr := w.WriteRecord(buf[:n]); werr != nil {
				log.Fatalf("write: %v", werr)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("stdin: %v", err)
		}
	}

	if err := w.Close(); err != nil {
		log.Fatalf("close: %v", err)
	}
}
