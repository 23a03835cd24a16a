package kfmt

import "io"

// earlyBufferSize bounds how much boot output is retained before a console
// is registered; roughly one 80x25 screen of text.
const earlyBufferSize = 2048

// bootBuffer retains the tail of the output generated while no sink is
// registered. Once full, the oldest bytes are discarded so that whatever
// console eventually shows up replays the most recent output. It tracks the
// retained window as (start, count) over a fixed backing array.
type bootBuffer struct {
	data  [earlyBufferSize]byte
	start int // index of the oldest retained byte
	count int // number of retained bytes
}

// Write appends p to the buffer, discarding from the front once the
// retained window is full. It never fails.
func (b *bootBuffer) Write(p []byte) (int, error) {
	for _, c := range p {
		b.data[(b.start+b.count)%earlyBufferSize] = c
		if b.count < earlyBufferSize {
			b.count++
		} else {
			b.start = (b.start + 1) % earlyBufferSize
		}
	}

	return len(p), nil
}

// Read drains up to len(p) of the retained bytes, oldest first, returning
// io.EOF once the buffer is empty.
func (b *bootBuffer) Read(p []byte) (int, error) {
	if b.count == 0 {
		return 0, io.EOF
	}

	n := 0
	for ; n < len(p) && b.count > 0; n++ {
		p[n] = b.data[b.start]
		b.start = (b.start + 1) % earlyBufferSize
		b.count--
	}

	return n, nil
}
