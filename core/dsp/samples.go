package dsp

// The dongle delivers unsigned 8-bit samples. The offset is slightly off-center to compensate its DC bias.
const (
	uint8Scale  = 128.0
	uint8Offset = 0.995
)

// IQSamplesFromUint8 converts a block of interleaved unsigned 8-bit samples (I0,Q0,I1,Q1,...) into
// separate centered I and Q sample buffers. A trailing odd byte is ignored.
func IQSamplesFromUint8(raw []byte) (I, Q []float32) {
	n := len(raw) / 2
	I = make([]float32, n)
	Q = make([]float32, n)
	IQSamplesFromUint8Into(raw, I, Q)
	return I, Q
}

// IQSamplesFromUint8Into converts the raw samples into the given I and Q buffers. It returns the number
// of converted samples, which is limited by the shortest of the buffers.
func IQSamplesFromUint8Into(raw []byte, I, Q []float32) int {
	n := len(raw) / 2
	if len(I) < n {
		n = len(I)
	}
	if len(Q) < n {
		n = len(Q)
	}
	for i := 0; i < n; i++ {
		I[i] = float32(raw[2*i])/uint8Scale - uint8Offset
		Q[i] = float32(raw[2*i+1])/uint8Scale - uint8Offset
	}
	return n
}
