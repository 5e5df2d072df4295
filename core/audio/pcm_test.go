package audio

import (
	"bytes"
	"testing"
)

func TestFloat32ToPCM16ClampsOutOfRangeSamples(t *testing.T) {
	out := Float32ToPCM16([]float32{0, 1, -1, 2.5, -2.5})

	expected := Int16ToBytes([]int16{0, 32767, -32767, 32767, -32767})
	if !bytes.Equal(out, expected) {
		t.Fatalf("expected %v, got %v", expected, out)
	}
}

func TestChunkerEmitsFixedSizeChunks(t *testing.T) {
	chunker := NewChunker(4)

	var chunks [][]byte
	emit := func(chunk []byte) {
		copied := make([]byte, len(chunk))
		copy(copied, chunk)
		chunks = append(chunks, copied)
	}

	chunker.Push([]byte{1, 2, 3}, emit)
	if len(chunks) != 0 {
		t.Fatalf("expected no chunks before a full frame accumulates, got %d", len(chunks))
	}

	chunker.Push([]byte{4, 5, 6, 7, 8, 9}, emit)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if !bytes.Equal(chunks[0], []byte{1, 2, 3, 4}) || !bytes.Equal(chunks[1], []byte{5, 6, 7, 8}) {
		t.Fatalf("unexpected chunk contents: %v", chunks)
	}

	chunker.Flush(emit)
	if len(chunks) != 3 || !bytes.Equal(chunks[2], []byte{9}) {
		t.Fatalf("expected trailing partial chunk [9], got %v", chunks)
	}

	chunker.Flush(emit)
	if len(chunks) != 3 {
		t.Fatalf("expected flush on an empty chunker to emit nothing")
	}
}

func TestEncodingInfoMimeType(t *testing.T) {
	encoding := DefaultCaptureEncoding()
	if got := encoding.MimeType(); got != "audio/pcm;rate=16000" {
		t.Fatalf("expected audio/pcm;rate=16000, got %q", got)
	}
}
