package audio

import "encoding/binary"

// Float32ToPCM16 converts normalized float samples to little-endian 16-bit
// PCM, clamping anything outside [-1, 1].
func Float32ToPCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, sample := range samples {
		if sample > 1 {
			sample = 1
		} else if sample < -1 {
			sample = -1
		}

		value := int16(sample * 32767)
		binary.LittleEndian.PutUint16(out[i*2:], uint16(value))
	}
	return out
}

// Int16ToBytes renders samples as little-endian 16-bit PCM.
func Int16ToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, sample := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(sample))
	}
	return out
}

// Chunker rebuffers an arbitrary byte stream into fixed-size chunks so
// downstream consumers see uniform frames regardless of device buffer sizes.
type Chunker struct {
	size     int
	leftover []byte
}

// NewChunker creates a chunker emitting chunks of exactly size bytes.
func NewChunker(size int) *Chunker {
	if size <= 0 {
		size = 1
	}
	return &Chunker{size: size}
}

// Push appends data and emits every complete chunk it can form. The emitted
// slice is only valid for the duration of the callback.
func (c *Chunker) Push(data []byte, emit func(chunk []byte)) {
	c.leftover = append(c.leftover, data...)
	for len(c.leftover) >= c.size {
		emit(c.leftover[:c.size])
		c.leftover = c.leftover[c.size:]
	}
}

// Flush emits any trailing partial chunk and resets the buffer.
func (c *Chunker) Flush(emit func(chunk []byte)) {
	if len(c.leftover) > 0 {
		emit(c.leftover)
	}
	c.leftover = nil
}

// Reset drops any buffered bytes without emitting them.
func (c *Chunker) Reset() {
	c.leftover = nil
}
