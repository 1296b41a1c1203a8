package terminal

import (
	"context"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/keycast/internal/key"
)

// Sink receives translated key events, typically the dispatcher's
// HandleKey.
type Sink func(ev key.Event)

// Pump polls the screen and feeds translated key events into the sink
// until the context ends or the screen is finalized. Resize events sync
// the screen; everything else is dropped.
//
// Pump blocks; run it on its own goroutine.
func Pump(ctx context.Context, screen tcell.Screen, sink Sink) {
	// PollEvent blocks, so cancellation is delivered as an interrupt
	// event.
	go func() {
		<-ctx.Done()
		_ = screen.PostEvent(tcell.NewEventInterrupt(nil))
	}()

	for {
		ev := screen.PollEvent()
		if ev == nil {
			return
		}

		switch e := ev.(type) {
		case *tcell.EventInterrupt:
			if ctx.Err() != nil {
				return
			}

		case *tcell.EventKey:
			if kev, ok := Translate(e); ok {
				sink(kev)
			}

		case *tcell.EventResize:
			screen.Sync()
		}
	}
}
