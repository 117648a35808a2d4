// Command shr-private demonstrates a PRIVATE ring: the parent creates it
// anonymously, reverse-dups an endpoint for the opposite direction, and
// hands that endpoint's key to a freshly spawned child process over the
// shrPrivateChildEnv environment variable. The parent streams stdin into
// the ring; the child streams whatever it reads out to its own stdout.
package main

import (
	"io"
	"log"
	"os"
	"os/exec"

	"github.com/maandree/shr/key"
	"github.com/maandree/shr/ring"
)

const shrPrivateChildEnv = "SHR_PRIVATE_CHILD_KEY"

func main() {
	if childKey := os.Getenv(shrPrivateChildEnv); childKey != "" {
		runChild(childKey)
		return
	}
	runParent()
}

func runParent() {
	k := key.MakePrivate(4096, 8)

	w, err := ring.Open(k, ring.Write)
	if err != nil {
		log.Fatalf("open: %v", err)
	}

	r, err := w.ReverseDup()
	if err != nil {
		log.Fatalf("reverse dup: %v", err)
	}

	child := exec.Command(os.Args[0])
	child.Env = append(os.Environ(), shrPrivateChildEnv+"="+r.Key().String())
	child.Stdout = os.Stdout
	child.Stderr = os.Stderr
	if err := child.Start(); err != nil {
		log.Fatalf("spawn child: %v", err)
	}

	buf := make([]byte, w.Key().SlotSize)
	for {
		n, rerr := os.Stdin.Read(buf)
		if n > 0 {
			if werr := w.WriteRecord(buf[:n]); werr != nil {
				log.Fatalf("write: %v", werr)
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			log.Fatalf("stdin: %v", rerr)
		}
	}

	if err := w.Close(); err != nil {
		log.Fatalf("close: %v", err)
	}
	if err := child.Wait(); err != nil {
		log.Fatalf("child: %v", err)
	}
	if err := ring.RemoveByKey(w.Key()); err != nil {
		log.Fatalf("remove: %v", err)
	}
}

func runChild(childKey string) {
	k := key.FromText(childKey)
	r, err := ring.Open(k, ring.Read)
	if err != nil {
		log.Fatalf("open: %v", err)
	}

	for {
		buf, eof, rerr := r.ReadRecord()
		if rerr != nil {
			log.Fatalf("read: %v", rerr)
		}
		if _, werr := os.Stdout.Write(buf); werr != nil {
			log.Fatalf("stdout: %v", werr)
		}
		if eof {
			break
		}
	}

	if err := r.Close(); err != nil {
		log.Fatalf("close: %v", err)
	}
}
