package transop

import "github.com/coregx/qdfa/internal/conv"

// TempAllocator hands out temporary counter slots for one quantifier.
//
// Temps are numbered from Base upward, where Base must lie above every real
// state id. The scheduler resets the allocator after each transition; the
// high-water mark survives so the executor can size its storage.
type TempAllocator struct {
	Base uint16
	next uint16
	high uint16
}

// Alloc returns a fresh temp slot.
func (a *TempAllocator) Alloc() uint16 {
	id := conv.IntToUint16(int(a.Base) + int(a.next))
	if id == NoSource {
		panic("transop: temp slots exhausted")
	}
	a.next++
	a.high = max(a.high, a.next)
	return id
}

// Reset makes every temp available again.
func (a *TempAllocator) Reset() {
	a.next = 0
}

// HighWater returns the largest number of temps in use at once.
func (a *TempAllocator) HighWater() int {
	return int(a.high)
}

// TempPool holds one TempAllocator per quantifier.
type TempPool struct {
	base       uint16
	allocators []TempAllocator
}

// NewTempPool creates a pool whose temps start at base, typically the
// number of NFA states.
func NewTempPool(base int) *TempPool {
	return &TempPool{base: conv.IntToUint16(base)}
}

// Get returns the allocator of quantifier q, creating it on first use.
func (p *TempPool) Get(q uint32) *TempAllocator {
	for uint32(len(p.allocators)) <= q {
		p.allocators = append(p.allocators, TempAllocator{Base: p.base})
	}
	return &p.allocators[q]
}

// HighWater returns the temp high-water mark of quantifier q.
func (p *TempPool) HighWater(q uint32) int {
	if int(q) >= len(p.allocators) {
		return 0
	}
	return p.allocators[q].HighWater()
}
