package audio

import (
	"bytes"
	"testing"
)

func TestNewRingBuffer(t *testing.T) {
	// 300ms at 16kHz = 4800 samples = 9600 bytes
	rb := NewRingBuffer(16000, 300)
	if rb.Capacity() != 9600 {
		t.Errorf("expected capacity 9600, got %d", rb.Capacity())
	}
	if rb.Size() != 0 {
		t.Errorf("expected size 0, got %d", rb.Size())
	}
}

func TestRingBuffer_WriteAndReadAll(t *testing.T) {
	rb := NewRingBuffer(16000, 100) // 3200 bytes capacity

	data := make([]byte, 1000)
	for i := range data {
		data[i] = byte(i % 256)
	}
	rb.Write(data)

	if rb.Size() != 1000 {
		t.Errorf("expected size 1000, got %d", rb.Size())
	}

	got := rb.ReadAll()
	if !bytes.Equal(got, data) {
		t.Error("ReadAll did not return written data")
	}

	// ReadAll must not consume.
	if rb.Size() != 1000 {
		t.Errorf("expected size 1000 after read, got %d", rb.Size())
	}
}

func TestRingBuffer_Wraparound(t *testing.T) {
	rb := NewRingBuffer(16000, 100) // 3200 bytes capacity

	older := make([]byte, 2000)
	for i := range older {
		older[i] = 1
	}
	rb.Write(older)

	newer := make([]byte, 2000)
	for i := range newer {
		newer[i] = 2
	}
	rb.Write(newer)

	if rb.Size() != rb.Capacity() {
		t.Errorf("expected full buffer, got size %d", rb.Size())
	}

	got := rb.ReadAll()
	if len(got) != rb.Capacity() {
		t.Fatalf("expected %d bytes, got %d", rb.Capacity(), len(got))
	}

	// The newest 2000 bytes must survive at the tail.
	for i, b := range got[len(got)-2000:] {
		if b != 2 {
			t.Errorf("expected byte 2 at tail position %d, got %d", i, b)
			break
		}
	}
}

func TestRingBuffer_OversizedWrite(t *testing.T) {
	rb := NewRingBuffer(16000, 100) // 3200 bytes capacity

	big := make([]byte, 10000)
	for i := range big {
		big[i] = byte(i % 256)
	}
	rb.Write(big)

	got := rb.ReadAll()
	if !bytes.Equal(got, big[len(big)-rb.Capacity():]) {
		t.Error("oversized write should keep the trailing capacity bytes")
	}
}

func TestRingBuffer_Clear(t *testing.T) {
	rb := NewRingBuffer(16000, 100)
	rb.Write(make([]byte, 500))
	rb.Clear()
	if rb.Size() != 0 {
		t.Errorf("expected size 0 after clear, got %d", rb.Size())
	}
	if rb.ReadAll() != nil {
		t.Error("expected nil from ReadAll after clear")
	}
}
