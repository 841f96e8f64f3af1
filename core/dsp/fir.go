package dsp

// FIRFilter applies a FIR kernel to a stream of sample blocks. The last len(kernel)-1 samples
// of each block are carried over as the head of the next block, so consecutive blocks
// are filtered without a seam. A filter must be used sequentially.
type FIRFilter struct {
	kernel []float32
	buffer []float32
	loaded int
}

// NewFIRFilter returns a new filter with the given kernel. The kernel is shared, not copied.
func NewFIRFilter(kernel []float32) *FIRFilter {
	tail := len(kernel) - 1
	if tail < 0 {
		tail = 0
	}
	return &FIRFilter{
		kernel: kernel,
		buffer: make([]float32, tail),
	}
}

// LoadSamples appends the given block to the carried tail of the previous block.
func (f *FIRFilter) LoadSamples(samples []float32) {
	tail := len(f.kernel) - 1
	if tail < 0 {
		tail = 0
	}
	need := tail + len(samples)
	current := f.buffer[len(f.buffer)-tail:]
	if cap(f.buffer) < need {
		buffer := make([]float32, need)
		copy(buffer, current)
		f.buffer = buffer
	} else {
		copy(f.buffer[:tail], current)
		f.buffer = f.buffer[:need]
	}
	copy(f.buffer[tail:], samples)
	f.loaded = len(samples)
}

// Get the filtered value for the sample with the given index of the loaded block.
func (f *FIRFilter) Get(index int) float32 {
	var result float32
	window := f.buffer[index : index+len(f.kernel)]
	for j, k := range f.kernel {
		result += k * window[j]
	}
	return result
}

// GetDelayed returns the unfiltered sample with the given index, delayed by the group delay of the kernel.
func (f *FIRFilter) GetDelayed(index int) float32 {
	return f.buffer[index+len(f.kernel)/2]
}

// Length of the currently loaded block.
func (f *FIRFilter) Length() int {
	return f.loaded
}
