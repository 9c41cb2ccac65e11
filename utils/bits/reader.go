// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bits

import (
	"errors"
	"fmt"

	"github.com/cnotch/xlog"
)

// 读取错误
var (
	ErrNoMoreData   = errors.New("bits: no more data")
	ErrNotAligned   = errors.New("bits: cursor is not byte aligned")
	ErrBoundary     = errors.New("bits: read exceeded boundary")
	ErrInvalidWidth = errors.New("bits: invalid bit width")
	ErrNotMarked    = errors.New("bits: the buffer has not been marked")
	ErrEmptyStack   = errors.New("bits: position stack is empty")
)

// Option 配置 Reader
type Option func(r *Reader)

// WithStrict 越过声明边界的读取是否作为错误返回，默认仅记录警告
func WithStrict(strict bool) Option {
	return func(r *Reader) { r.strict = strict }
}

// WithLogger 设置警告日志输出
func WithLogger(logger *xlog.Logger) Option {
	return func(r *Reader) { r.logger = logger }
}

// Reader 按位读取的游标.
// buf 为物理数据，end 为逻辑边界（可被 Truncate 缩短）。
type Reader struct {
	buf    []byte
	end    int // logical end in bytes
	offset int // bit base

	stack  []int
	marks  []int
	strict bool
	logger *xlog.Logger
}

// NewReader retruns a new Reader.
func NewReader(buf []byte, opts ...Option) *Reader {
	r := &Reader{
		buf: buf,
		end: len(buf),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = xlog.L()
	}
	return r
}

// Reset 重新设置数据，清空位置栈和标记
func (r *Reader) Reset(buf []byte) {
	r.buf = buf
	r.end = len(buf)
	r.offset = 0
	r.stack = r.stack[:0]
	r.marks = r.marks[:0]
}

// Logger returns the logger used for warnings.
func (r *Reader) Logger() *xlog.Logger { return r.logger }

// Strict reports whether boundary warnings are fatal.
func (r *Reader) Strict() bool { return r.strict }

// ReadBit read a bit.
func (r *Reader) ReadBit() (uint8, error) {
	if r.offset>>3 >= r.end {
		return 0, ErrNoMoreData
	}
	bit := (r.buf[r.offset>>3] >> (7 - r.offset&0x7)) & 1
	r.offset++
	return bit, nil
}

// ReadBool read one bit bool.
func (r *Reader) ReadBool() (bool, error) {
	bit, err := r.ReadBit()
	return bit == 1, err
}

// ReadBits read n bits(MSB first), n in [0,32].
func (r *Reader) ReadBits(n int) (uint32, error) {
	if n < 0 || n > 32 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidWidth, n)
	}
	if n == 0 {
		return 0, nil
	}
	if r.offset+n > r.end<<3 {
		return 0, ErrNoMoreData
	}

	idx := r.offset >> 3
	validBits := 8 - r.offset&0x7
	r.offset += n

	var tmp uint64
	for n >= validBits {
		n -= validBits
		tmp |= uint64(r.buf[idx]&bitsMask[validBits]) << n
		idx++
		validBits = 8
	}
	if n > 0 {
		tmp |= uint64((r.buf[idx] >> (validBits - n)) & bitsMask[n])
	}
	return uint32(tmp), nil
}

// ReadByte read 8 bits.
func (r *Reader) ReadByte() (byte, error) {
	if r.offset&0x7 == 0 {
		idx := r.offset >> 3
		if idx >= r.end {
			return 0, ErrNoMoreData
		}
		r.offset += 8
		return r.buf[idx], nil
	}
	v, err := r.ReadBits(8)
	return byte(v), err
}

// ReadUint16 read 16 bits.
func (r *Reader) ReadUint16() (uint16, error) {
	v, err := r.ReadBits(16)
	return uint16(v), err
}

// ReadUint32 read 32 bits.
func (r *Reader) ReadUint32() (uint32, error) {
	return r.ReadBits(32)
}

// ReadBytes returns the next n bytes; the cursor must be byte aligned.
// The returned slice aliases the underlying buffer.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if r.offset&0x7 != 0 {
		return nil, ErrNotAligned
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWidth, n)
	}

	start := r.offset >> 3
	if start+n > r.end {
		if r.strict {
			return nil, fmt.Errorf("%w: %d > %d", ErrBoundary, start+n, r.end)
		}
		r.logger.Warnf("bits: read bytes exceeded boundary: %d > %d", start+n, r.end)
	}
	if start+n > len(r.buf) {
		return nil, ErrNoMoreData
	}
	r.offset += n << 3
	return r.buf[start : start+n], nil
}

// ReadInt read a signed number of n bits. The first bit is the sign.
func (r *Reader) ReadInt(n int) (int32, error) {
	if n <= 0 || n > 32 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidWidth, n)
	}
	sign, err := r.ReadBit()
	if err != nil || n == 1 {
		return int32(sign), err
	}
	v, err := r.ReadBits(n - 1)
	if err != nil {
		return 0, err
	}
	if sign == 1 {
		return int32(-(int64(1) << uint(n-1)) + int64(v)), nil
	}
	return int32(v), nil
}

// ReadUe read the unsigned Exp-Golomb code.
func (r *Reader) ReadUe() (uint32, error) {
	leadingZeroBits := 0
	for {
		bit, err := r.ReadBit()
		if err != nil {
			return 0, err
		}
		if bit == 1 {
			break
		}
		leadingZeroBits++
		if leadingZeroBits > 31 {
			return 0, fmt.Errorf("%w: exp-golomb prefix too long", ErrInvalidWidth)
		}
	}

	suffix, err := r.ReadBits(leadingZeroBits)
	if err != nil {
		return 0, err
	}
	return uint32(1)<<uint(leadingZeroBits) - 1 + suffix, nil
}

// ReadSe read the signed Exp-Golomb code.
func (r *Reader) ReadSe() (int32, error) {
	v, err := r.ReadUe()
	if err != nil {
		return 0, err
	}
	mag := int32((int64(v) + 1) / 2)
	if v&0x01 == 0 {
		return -mag, nil
	}
	return mag, nil
}

// ReadCString reads a null-terminated string and moves past the null byte.
func (r *Reader) ReadCString() (string, error) {
	if r.offset&0x7 != 0 {
		return "", ErrNotAligned
	}
	start := r.offset >> 3
	nullPos := IndexByte(r.buf[:r.end], 0x00, start)
	if nullPos < 0 {
		return "", fmt.Errorf("bits: the string is not null-terminated")
	}
	r.offset = (nullPos + 1) << 3
	return string(r.buf[start:nullPos]), nil
}

// Skip skip n bits.
func (r *Reader) Skip(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWidth, n)
	}
	if r.offset+n > len(r.buf)<<3 {
		return ErrNoMoreData
	}
	r.offset += n
	return nil
}

// SkipBytes skip n bytes.
func (r *Reader) SkipBytes(n int) error {
	return r.Skip(n << 3)
}

// SkipBytesEqualTo skips the bytes equal to value, returns the count skipped.
func (r *Reader) SkipBytesEqualTo(value byte) int {
	count := 0
	for {
		b, err := r.ReadByte()
		if err != nil {
			return count
		}
		if b != value {
			r.offset -= 8
			return count
		}
		count++
	}
}

// UnreadBits moves the cursor n bits back.
func (r *Reader) UnreadBits(n int) error {
	if n < 0 || n > r.offset {
		return fmt.Errorf("%w: cannot rewind %d bits", ErrInvalidWidth, n)
	}
	r.offset -= n
	return nil
}

// UnreadBytes moves the cursor n bytes back.
func (r *Reader) UnreadBytes(n int) error {
	return r.UnreadBits(n << 3)
}

// AlignByte reads until the cursor is byte aligned, returns the sum of the bits read.
func (r *Reader) AlignByte() (sum int) {
	for r.offset&0x7 != 0 {
		sum += int((r.buf[r.offset>>3] >> (7 - r.offset&0x7)) & 1)
		r.offset++
	}
	return
}

// Push saves the current position.
func (r *Reader) Push() {
	r.stack = append(r.stack, r.offset)
}

// Pop restores the last pushed position.
func (r *Reader) Pop() error {
	if len(r.stack) == 0 {
		return ErrEmptyStack
	}
	r.offset = r.stack[len(r.stack)-1]
	r.stack = r.stack[:len(r.stack)-1]
	return nil
}

// Mark records the current byte index.
func (r *Reader) Mark() {
	r.marks = append(r.marks, r.offset>>3)
}

// MarkedBytes returns the bytes read since the last Mark, the mark is consumed.
func (r *Reader) MarkedBytes() ([]byte, error) {
	if len(r.marks) == 0 {
		return nil, ErrNotMarked
	}
	start := r.marks[len(r.marks)-1]
	r.marks = r.marks[:len(r.marks)-1]
	return r.buf[start : r.offset>>3], nil
}

// ByteAt peeks the byte at byteOffset bytes after the cursor without consuming.
// The cursor may be unaligned.
func (r *Reader) ByteAt(byteOffset int) (byte, error) {
	pos := r.offset + byteOffset<<3
	if pos < 0 || pos+8 > r.end<<3 {
		return 0, ErrNoMoreData
	}
	if pos&0x7 == 0 {
		return r.buf[pos>>3], nil
	}
	return byte(ParseUint(r.buf, pos, 8)), nil
}

// LastByte returns the byte at offsetFromEnd counted back from the logical end.
func (r *Reader) LastByte(offsetFromEnd int) (byte, error) {
	idx := r.end - 1 - offsetFromEnd
	if idx < 0 || offsetFromEnd < 0 {
		return 0, ErrNoMoreData
	}
	return r.buf[idx], nil
}

// Truncate removes n trailing bytes from the logical view.
func (r *Reader) Truncate(n int) {
	if n > r.end {
		r.logger.Warnf("bits: truncate length (%d) exceeds buffer length (%d)", n, r.end)
		n = r.end
	}
	r.end -= n
}

// LastIndexOfBit scans backward from the logical end down to the cursor and
// returns the position of the last bit equal to bit.
func (r *Reader) LastIndexOfBit(bit uint8) (byteIndex, bitIndex int, ok bool) {
	for i := r.end - 1; i >= r.offset>>3; i-- {
		b := r.buf[i]
		if (bit == 1 && b == 0x00) || (bit == 0 && b == 0xff) {
			continue
		}
		for col := 0; col < 8; col++ {
			pos := i<<3 + 7 - col
			if pos < r.offset {
				return 0, 0, false
			}
			if (b>>uint(col))&0x01 == bit {
				return i, 7 - col, true
			}
		}
	}
	return 0, 0, false
}

// Offset returns the offset of bits.
func (r *Reader) Offset() int {
	return r.offset
}

// Position returns the byte index and bit index of the cursor.
func (r *Reader) Position() (byteIndex, bitIndex int) {
	return r.offset >> 3, r.offset & 0x7
}

// ByteAligned reports whether the cursor is on a byte boundary.
func (r *Reader) ByteAligned() bool {
	return r.offset&0x7 == 0
}

// HasMore reports whether bits are left before the logical end.
func (r *Reader) HasMore() bool {
	return r.BitsLeft() > 0
}

// BitsLeft returns the number of left bits.
func (r *Reader) BitsLeft() int {
	return r.end<<3 - r.offset
}

// BytesLeft returns the number of whole bytes left.
func (r *Reader) BytesLeft() int {
	n := r.end - r.offset>>3
	if n < 0 {
		return 0
	}
	return n
}

// Remaining returns the left byte slice up to the logical end.
func (r *Reader) Remaining() []byte {
	if r.offset&0x7 != 0 {
		r.logger.Warn("bits: remaining buffer requested while not byte aligned")
	}
	start := r.offset >> 3
	if start >= r.end {
		return r.buf[r.end:r.end]
	}
	return r.buf[start:r.end]
}

var bitsMask = [9]byte{
	0x00,
	0x01, 0x03, 0x07, 0x0f,
	0x1f, 0x3f, 0x7f, 0xff,
}
