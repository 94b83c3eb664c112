// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package sink

import "sync"

// Channel is a bounded in-process queue. When the buffer is full the record is
// dropped and Enqueue returns SINK_FULL.
type Channel struct {
	ch     chan Envelope
	mu     sync.RWMutex
	closed bool
}

// NewChannel creates a channel sink holding up to buffer records.
func NewChannel(buffer int) *Channel {
	if buffer < 0 {
		buffer = 0
	}
	return &Channel{ch: make(chan Envelope, buffer)}
}

func (c *Channel) Name() string { return "channel" }

// C returns the receive side.
func (c *Channel) C() <-chan Envelope { return c.ch }

func (c *Channel) Enqueue(env Envelope) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrFull(c.Name())
	}
	select {
	case c.ch <- env:
		return nil
	default:
		return ErrFull(c.Name())
	}
}

// Close closes the receive side. Later enqueues are dropped.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.ch)
	}
}
