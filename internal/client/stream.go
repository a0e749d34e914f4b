package client

import (
	"context"
	"time"

	"taskchat/internal/config"
	"taskchat/internal/logging"
	"taskchat/internal/types"
)

const (
	defaultInitialBackoff = 500 * time.Millisecond
	defaultMaxBackoff     = 15 * time.Second
	eventBufferSize       = 64
)

type StreamState int

const (
	StreamConnected StreamState = iota
	StreamDisconnected
)

type StreamOptions struct {
	Transport      string
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Debug          bool
	// OnState is called from the stream goroutine whenever a connection
	// is established or lost.
	OnState func(StreamState)
}

func DefaultStreamOptions() StreamOptions {
	return StreamOptions{
		Transport:      config.StreamTransportSSE,
		InitialBackoff: defaultInitialBackoff,
		MaxBackoff:     defaultMaxBackoff,
	}
}

func (c *Client) StreamOptions() StreamOptions {
	return c.stream
}

// SetStreamOptions replaces the stream settings used by later Events calls.
func (c *Client) SetStreamOptions(opts StreamOptions) {
	c.stream = opts
}

type streamSource func(ctx context.Context, deliver func(types.Event) bool, connected func()) (int, error)

// Events returns the live event sequence. The sequence never ends on its
// own: every disconnect is followed by a reconnect after a capped
// exponential delay, and the channel closes only once ctx is done.
// Events are delivered in server order; the stream blocks rather than
// dropping when the consumer falls behind.
func (c *Client) Events(ctx context.Context) <-chan types.Event {
	ch := make(chan types.Event, eventBufferSize)
	source := c.openSSE
	if c.stream.Transport == config.StreamTransportWebSocket {
		source = c.openWebSocket
	}
	go c.runStream(ctx, source, ch, time.After)
	return ch
}

func (c *Client) runStream(ctx context.Context, source streamSource, ch chan<- types.Event, after func(time.Duration) <-chan time.Time) {
	defer close(ch)

	opts := c.stream
	delays := newBackoff(opts.InitialBackoff, opts.MaxBackoff)
	deliver := func(event types.Event) bool {
		select {
		case ch <- event:
			return true
		case <-ctx.Done():
			return false
		}
	}
	connected := func() {
		if opts.OnState != nil {
			opts.OnState(StreamConnected)
		}
	}

	for attempt := 1; ; attempt++ {
		if ctx.Err() != nil {
			return
		}
		count, err := source(ctx, deliver, connected)
		if ctx.Err() != nil {
			return
		}
		if opts.OnState != nil {
			opts.OnState(StreamDisconnected)
		}
		if count > 0 {
			delays.Reset()
		}
		delay := delays.Next()
		c.log().Warn("stream disconnected",
			logging.F("attempt", attempt),
			logging.F("events", count),
			logging.F("retry_in", delay),
			logging.F("reason", describeStreamErr(err)),
		)
		select {
		case <-ctx.Done():
			return
		case <-after(delay):
		}
	}
}
