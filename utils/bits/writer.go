// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bits

import "fmt"

// Writer 按位构建字节序列
type Writer struct {
	buf    []byte
	offset int // bit base
}

// NewWriter returns a new Writer with the given capacity hint in bytes.
func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

// AddBit write one bit.
func (w *Writer) AddBit(v uint8) error {
	return w.AddBits(1, uint32(v))
}

// AddBool write one bit bool.
func (w *Writer) AddBool(b bool) error {
	if b {
		return w.AddBits(1, 1)
	}
	return w.AddBits(1, 0)
}

// FillOnes writes n bits of 1.
func (w *Writer) FillOnes(n int) error {
	if n < 0 || n > 32 {
		return fmt.Errorf("%w: %d", ErrInvalidWidth, n)
	}
	return w.AddBits(n, uint32(uint64(1)<<uint(n)-1))
}

// AddBits writes the n low bits of v MSB first, v must be in [0, 2^n-1].
func (w *Writer) AddBits(n int, v uint32) error {
	if n < 0 || n > 32 {
		return fmt.Errorf("%w: %d", ErrInvalidWidth, n)
	}
	if uint64(v) > uint64(1)<<uint(n)-1 {
		return fmt.Errorf("bits: value %d does not fit in %d bits", v, n)
	}

	for n > 0 {
		if w.offset&0x7 == 0 {
			w.buf = append(w.buf, 0)
		}
		idx := w.offset >> 3
		available := 8 - w.offset&0x7
		if n <= available {
			w.buf[idx] |= byte(v << uint(available-n))
			w.offset += n
			return nil
		}
		w.buf[idx] |= byte(v>>uint(n-available)) & bitsMask[available]
		w.offset += available
		n -= available
	}
	return nil
}

// AddBytes writes the bytes, the writer must be byte aligned.
func (w *Writer) AddBytes(p []byte) error {
	if w.offset&0x7 != 0 {
		return ErrNotAligned
	}
	w.buf = append(w.buf, p...)
	w.offset += len(p) << 3
	return nil
}

// Bytes returns the created bytes, a partial last byte is zero padded.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of bits written.
func (w *Writer) Len() int {
	return w.offset
}
