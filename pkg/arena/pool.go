package arena

import "unsafe"

// Pool hands out fixed-size records of type T from blocks of blockLen
// records. Released records go on a free list and are reused before a new
// block is reserved. Each block is charged against the budget arena so the
// compiler's bookkeeping honours the scratch limit.
type Pool[T any] struct {
	budget   *Linear
	blockLen int
	blocks   [][]T
	used     int
	free     []*T
	live     int
}

// NewPool creates a pool. A nil budget means unlimited.
func NewPool[T any](budget *Linear, blockLen int) *Pool[T] {
	if blockLen <= 0 {
		blockLen = 64
	}
	return &Pool[T]{budget: budget, blockLen: blockLen}
}

// Get returns a zeroed record.
func (p *Pool[T]) Get() (*T, error) {
	if n := len(p.free); n > 0 {
		x := p.free[n-1]
		p.free = p.free[:n-1]
		var zero T
		*x = zero
		p.live++
		return x, nil
	}
	if len(p.blocks) == 0 || p.used == p.blockLen {
		if err := p.grow(); err != nil {
			return nil, err
		}
	}
	block := p.blocks[len(p.blocks)-1]
	x := &block[p.used]
	p.used++
	p.live++
	return x, nil
}

// Put returns a record to the free list.
func (p *Pool[T]) Put(x *T) {
	if x == nil {
		return
	}
	p.free = append(p.free, x)
	p.live--
}

// Live returns the number of records handed out and not yet released.
func (p *Pool[T]) Live() int { return p.live }

func (p *Pool[T]) grow() error {
	var zero T
	if p.budget != nil {
		size := int(unsafe.Sizeof(zero)) * p.blockLen
		if _, err := p.budget.Allocate(size, int(unsafe.Alignof(zero))); err != nil {
			return err
		}
	}
	p.blocks = append(p.blocks, make([]T, p.blockLen))
	p.used = 0
	return nil
}
