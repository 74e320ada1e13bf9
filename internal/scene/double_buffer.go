package scene

import (
	"context"
	"sync/atomic"
)

// doubleBuffer is a front/back pair with a two-phase flip: the producer
// requests a swap, the consumer adopts it at a point of its choosing.
type doubleBuffer struct {
	halves  [2]*Mesh
	front   atomic.Int32
	pending atomic.Bool
	adopted chan struct{}
}

// Producer is the writing side of a double buffer. It owns the back half.
type Producer struct {
	db *doubleBuffer
}

// Consumer is the reading side of a double buffer. It owns the front half.
type Consumer struct {
	db *doubleBuffer
}

// NewDoubleBuffer pairs two meshes. front is what the consumer reads first.
func NewDoubleBuffer(front, back *Mesh) (*Producer, *Consumer) {
	db := &doubleBuffer{
		halves:  [2]*Mesh{front, back},
		adopted: make(chan struct{}, 1),
	}
	return &Producer{db: db}, &Consumer{db: db}
}

// Back returns the half designated for writing. While a swap is pending it
// is the half about to become the front and must not be modified.
func (p *Producer) Back() *Mesh {
	return p.db.halves[1-p.db.front.Load()]
}

// Front returns the half the consumer is reading. The producer may read it
// but must not modify it.
func (p *Producer) Front() *Mesh {
	return p.db.halves[p.db.front.Load()]
}

// Swap requests a flip. It fails with ErrSwapPending if the previous request
// has not been adopted yet.
func (p *Producer) Swap() error {
	if !p.db.pending.CompareAndSwap(false, true) {
		return ErrSwapPending
	}
	return nil
}

// Pending reports whether a requested swap awaits adoption.
func (p *Producer) Pending() bool {
	return p.db.pending.Load()
}

// Wait blocks until no swap is pending or ctx is done.
func (p *Producer) Wait(ctx context.Context) error {
	for p.db.pending.Load() {
		select {
		case <-p.db.adopted:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Current returns the half designated for reading.
func (c *Consumer) Current() *Mesh {
	return c.db.halves[c.db.front.Load()]
}

// Update adopts a pending swap and reports whether the halves flipped.
func (c *Consumer) Update() bool {
	if !c.db.pending.Load() {
		return false
	}
	c.db.front.Store(1 - c.db.front.Load())
	c.db.pending.Store(false)
	select {
	case c.db.adopted <- struct{}{}:
	default:
	}
	return true
}
