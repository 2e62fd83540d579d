package quash

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
)

// interruptGuard keeps Ctrl-C from killing the shell while a foreground
// child runs. Each interrupt only prints a newline.
type interruptGuard struct {
	signals chan os.Signal
	done    chan struct{}
	once    sync.Once
}

func absorbInterrupts(w io.Writer) *interruptGuard {
	g := &interruptGuard{
		signals: make(chan os.Signal, 1),
		done:    make(chan struct{}),
	}
	signal.Notify(g.signals, os.Interrupt)
	go func() {
		for {
			select {
			case <-g.signals:
				fmt.Fprintln(w)
			case <-g.done:
				return
			}
		}
	}()
	return g
}

// Release restores the default terminate-on-interrupt behavior.
func (g *interruptGuard) Release() {
	g.once.Do(func() {
		signal.Stop(g.signals)
		close(g.done)
		signal.Reset(os.Interrupt)
	})
}
