package audio

import (
	"testing"
)

func TestPacer_ChunkSize(t *testing.T) {
	p := NewPacer(16000) // 20ms at 16kHz = 320 samples = 640 bytes

	p.Write(make([]byte, 2000))

	chunk := p.NextChunk()
	if len(chunk) != 640 {
		t.Errorf("expected 640-byte chunk, got %d", len(chunk))
	}

	// Drain: 640 + 640 + 640 + 80
	total := len(chunk)
	for {
		c := p.NextChunk()
		if c == nil {
			break
		}
		total += len(c)
	}
	if total != 2000 {
		t.Errorf("expected 2000 bytes total, got %d", total)
	}
	if p.Buffered() != 0 {
		t.Errorf("expected drained pacer, got %d buffered", p.Buffered())
	}
}

func TestPacer_NextChunkEmpty(t *testing.T) {
	p := NewPacer(16000)
	if p.NextChunk() != nil {
		t.Error("expected nil chunk from empty pacer")
	}
}

func TestPacer_Discard(t *testing.T) {
	p := NewPacer(16000)
	p.Write(make([]byte, 5000))
	p.Discard()
	if p.Buffered() != 0 {
		t.Errorf("expected empty buffer after discard, got %d", p.Buffered())
	}
}

func TestPacer_DiscardWithFadeOut(t *testing.T) {
	p := NewPacer(16000)

	// 100ms of full-scale-ish samples.
	samples := make([]int16, 1600)
	for i := range samples {
		samples[i] = 10000
	}
	p.Write(Int16ToBytes(samples))

	p.DiscardWithFadeOut(20) // keep 20ms = 320 samples = 640 bytes

	if p.Buffered() != 640 {
		t.Fatalf("expected 640 bytes after fade-out, got %d", p.Buffered())
	}

	faded := BytesToInt16(p.NextChunk())
	if faded[0] != 10000 {
		t.Errorf("expected first faded sample at full amplitude, got %d", faded[0])
	}
	last := faded[len(faded)-1]
	if last < 0 || last > 100 {
		t.Errorf("expected last faded sample near zero, got %d", last)
	}
}

func TestRMS(t *testing.T) {
	if got := RMS(nil); got != 0 {
		t.Errorf("expected 0 RMS for empty input, got %f", got)
	}

	silence := make([]int16, 320)
	if got := RMS(Int16ToBytes(silence)); got != 0 {
		t.Errorf("expected 0 RMS for silence, got %f", got)
	}

	loud := make([]int16, 320)
	for i := range loud {
		loud[i] = 16384 // half scale
	}
	got := RMS(Int16ToBytes(loud))
	if got < 0.49 || got > 0.51 {
		t.Errorf("expected RMS ~0.5 for half-scale DC, got %f", got)
	}
}

func TestInt16RoundTrip(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768, 12345, -12345}
	got := BytesToInt16(Int16ToBytes(samples))
	for i := range samples {
		if got[i] != samples[i] {
			t.Errorf("round trip mismatch at %d: %d != %d", i, got[i], samples[i])
		}
	}
}

func TestFrameDuration(t *testing.T) {
	f := Frame{Data: make([]byte, 1024), SampleRate: 16000} // 512 samples
	if f.Samples() != 512 {
		t.Errorf("expected 512 samples, got %d", f.Samples())
	}
	if ms := f.Duration().Milliseconds(); ms != 32 {
		t.Errorf("expected 32ms duration, got %dms", ms)
	}
}

func TestEncodeWAV(t *testing.T) {
	pcm := make([]byte, 3200)
	wav := EncodeWAV(pcm, 16000, 1)

	if len(wav) != 44+len(pcm) {
		t.Fatalf("expected %d bytes, got %d", 44+len(pcm), len(wav))
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		t.Error("missing RIFF/WAVE markers")
	}
	if string(wav[36:40]) != "data" {
		t.Error("missing data chunk marker")
	}
}
