package client

import "time"

// backoff yields capped exponential reconnect delays.
type backoff struct {
	initial time.Duration
	max     time.Duration
	next    time.Duration
}

func newBackoff(initial, max time.Duration) *backoff {
	if initial <= 0 {
		initial = defaultInitialBackoff
	}
	if max < initial {
		max = initial
	}
	return &backoff{initial: initial, max: max, next: initial}
}

func (b *backoff) Next() time.Duration {
	delay := b.next
	doubled := b.next * 2
	if doubled > b.max || doubled <= 0 {
		doubled = b.max
	}
	b.next = doubled
	return delay
}

func (b *backoff) Reset() {
	b.next = b.initial
}
