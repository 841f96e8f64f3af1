package dsp

// BufferPool is a fixed ring of sample buffers. Each call of Get hands out the next slot of the ring,
// a slot is valid until the ring wraps around to it again.
type BufferPool struct {
	buffers [][]float32
	cursor  int
}

// NewBufferPool returns a new ring of the given number of buffers, at least 2.
func NewBufferPool(count int) *BufferPool {
	if count < 2 {
		count = 2
	}
	return &BufferPool{
		buffers: make([][]float32, count),
	}
}

// Get the next buffer of the ring with the given length. The buffer is only reallocated if its
// capacity does not fit, its content is undefined.
func (p *BufferPool) Get(length int) []float32 {
	result := p.buffers[p.cursor]
	if cap(result) < length {
		result = make([]float32, length)
	} else {
		result = result[:length]
	}
	p.buffers[p.cursor] = result
	p.cursor = (p.cursor + 1) % len(p.buffers)
	return result
}

// Size of the ring.
func (p *BufferPool) Size() int {
	return len(p.buffers)
}
