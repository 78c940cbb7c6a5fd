package llm

import (
	"context"
	"io"
)

// eventStream adapts a generator function (which pushes Events onto a
// channel from its own goroutine) to the Stream interface.
type eventStream struct {
	events chan Event
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// newEventStream starts fn in its own goroutine and returns a Stream backed
// by the channel fn writes to. fn's return value becomes the error Recv
// returns once the channel is drained, unless it is nil, in which case Recv
// reports io.EOF as usual.
func newEventStream(ctx context.Context, fn func(ctx context.Context, events chan<- Event) error) Stream {
	ctx, cancel := context.WithCancel(ctx)
	s := &eventStream{
		events: make(chan Event, 16),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(s.events)
		defer close(s.done)
		s.err = fn(ctx, s.events)
	}()

	return s
}

func (s *eventStream) Recv() (Event, error) {
	ev, ok := <-s.events
	if !ok {
		if s.err != nil {
			return Event{}, s.err
		}
		return Event{}, io.EOF
	}
	return ev, nil
}

func (s *eventStream) Close() error {
	s.cancel()
	<-s.done
	return nil
}
