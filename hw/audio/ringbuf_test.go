package audio

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRingBufferCapacity(t *testing.T) {
	rb := NewRingBuffer(8)
	if rb.Cap() != 7 {
		t.Fatalf("Cap() = %d, want 7", rb.Cap())
	}

	if n := rb.Write([]int16{1, 2, 3, 4, 5}); n != 5 {
		t.Fatalf("Write() = %d, want 5", n)
	}
	// Only 2 free slots left: the rest is dropped.
	if n := rb.Write([]int16{6, 7, 8, 9}); n != 2 {
		t.Fatalf("Write() = %d, want 2", n)
	}
	if rb.Len() != rb.Cap() {
		t.Fatalf("Len() = %d, want %d", rb.Len(), rb.Cap())
	}
	if n := rb.Write([]int16{10}); n != 0 {
		t.Fatalf("Write() on full buffer = %d, want 0", n)
	}

	out := make([]int16, 10)
	if n := rb.Read(out); n != 7 {
		t.Fatalf("Read() = %d, want 7", n)
	}
	want := []int16{1, 2, 3, 4, 5, 6, 7, 0, 0, 0}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("Read() mismatch (-want +got):\n%s", diff)
	}
}

func TestRingBufferWrapAround(t *testing.T) {
	rb := NewRingBuffer(5)
	out := make([]int16, 3)

	var next, expect int16
	for range 50 {
		in := []int16{next, next + 1, next + 2}
		if n := rb.Write(in); n != 3 {
			t.Fatalf("Write() = %d, want 3", n)
		}
		next += 3

		if n := rb.Read(out); n != 3 {
			t.Fatalf("Read() = %d, want 3", n)
		}
		want := []int16{expect, expect + 1, expect + 2}
		if diff := cmp.Diff(want, out); diff != "" {
			t.Fatalf("Read() mismatch (-want +got):\n%s", diff)
		}
		expect += 3
	}
}

func TestRingBufferUnderrun(t *testing.T) {
	rb := NewRingBuffer(16)
	rb.Write([]int16{-1, 1})

	out := []int16{9, 9, 9, 9}
	if n := rb.Read(out); n != 2 {
		t.Fatalf("Read() = %d, want 2", n)
	}
	if diff := cmp.Diff([]int16{-1, 1, 0, 0}, out); diff != "" {
		t.Errorf("Read() mismatch (-want +got):\n%s", diff)
	}

	rb.Write([]int16{5, 5, 5})
	rb.Reset()
	if rb.Len() != 0 {
		t.Errorf("Len() = %d after Reset, want 0", rb.Len())
	}
}

// A single producer and a single consumer running concurrently: whatever
// isn't dropped comes out in order.
func TestRingBufferSPSC(t *testing.T) {
	const total = 100000
	rb := NewRingBuffer(1024)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		buf := make([]int16, 0, 64)
		for i := 0; i < total; {
			buf = buf[:0]
			for j := 0; j < 64 && i+j < total; j++ {
				buf = append(buf, int16(i+j))
			}
			// Retry what was dropped, so that the whole sequence goes through.
			n := rb.Write(buf)
			i += n
		}
	}()

	var got []int16
	out := make([]int16, 100)
	for len(got) < total {
		n := rb.Read(out)
		got = append(got, out[:n]...)
	}
	wg.Wait()

	for i, v := range got {
		if v != int16(i) {
			t.Fatalf("sample %d = %d, want %d", i, v, int16(i))
		}
	}
}
