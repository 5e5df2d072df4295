package audio

import "fmt"

const (
	// DefaultCaptureSampleRate is the rate requested from capture devices.
	// The device may grant a different rate; pipelines adopt the granted
	// rate rather than mismatching silently.
	DefaultCaptureSampleRate = 16000
	// DefaultPlaybackSampleRate is the rate remote synthesized audio
	// arrives at.
	DefaultPlaybackSampleRate = 24000
)

// EncodingInfo describes a raw audio stream: its sample rate and sample
// format. Mono is assumed throughout the session core.
type EncodingInfo struct {
	SampleRate int
	Format     Format
}

// DefaultCaptureEncoding is the encoding requested for microphone capture.
func DefaultCaptureEncoding() EncodingInfo {
	return EncodingInfo{SampleRate: DefaultCaptureSampleRate, Format: FormatLinear16}
}

// DefaultPlaybackEncoding is the encoding used for remote synthesized audio.
func DefaultPlaybackEncoding() EncodingInfo {
	return EncodingInfo{SampleRate: DefaultPlaybackSampleRate, Format: FormatLinear16}
}

func (e EncodingInfo) IsZero() bool {
	return e.SampleRate == 0 || e.Format.Name() == ""
}

// MimeType renders the encoding as the media chunk mime type used on the
// primary transport, e.g. "audio/pcm;rate=16000".
func (e EncodingInfo) MimeType() string {
	return fmt.Sprintf("audio/pcm;rate=%d", e.SampleRate)
}

// BytesPerSecond is the raw stream bandwidth for one mono channel.
func (e EncodingInfo) BytesPerSecond() int {
	return e.SampleRate * e.Format.ByteSize()
}

// Format is a raw sample format name.
type Format string

const (
	FormatLinear16 Format = "linear16"
	FormatMulaw    Format = "mulaw"
	FormatALaw     Format = "alaw"
)

func (f Format) Name() string { return string(f) }

// ByteSize is the size of one sample in bytes, or -1 if unknown.
func (f Format) ByteSize() int {
	switch f {
	case FormatMulaw, FormatALaw:
		return 1
	case FormatLinear16:
		return 2
	}
	return -1
}
