// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bits

import (
	"bytes"
	"strings"
)

// IndexByte returns the index of the first b in buf at or after from, or -1.
// A negative from counts back from the end.
func IndexByte(buf []byte, b byte, from int) int {
	if from < 0 {
		from += len(buf)
		if from < 0 {
			from = 0
		}
	}
	if from >= len(buf) {
		return -1
	}
	i := bytes.IndexByte(buf[from:], b)
	if i < 0 {
		return -1
	}
	return from + i
}

// IndexBytes returns the index of the first needle in haystack at or after from, or -1.
func IndexBytes(haystack, needle []byte, from int) int {
	if from < 0 || from >= len(haystack) {
		return -1
	}
	i := bytes.Index(haystack[from:], needle)
	if i < 0 {
		return -1
	}
	return from + i
}

// IndexBits returns the index of the first run of bytes in haystack where
// haystack[i+k] & needle[k] == needle[k] for every k, or -1.
func IndexBits(haystack, needle []byte, from int) int {
	if from < 0 || len(needle) == 0 {
		return -1
	}
	for i := from; i+len(needle) <= len(haystack); i++ {
		matched := true
		for k, mask := range needle {
			if haystack[i+k]&mask != mask {
				matched = false
				break
			}
		}
		if matched {
			return i
		}
	}
	return -1
}

// ParseUint reads n bits (n <= 32) at bit position pos of buf without a cursor.
func ParseUint(buf []byte, pos, n int) uint32 {
	var v uint64
	for i := 0; i < n; i++ {
		p := pos + i
		v = v<<1 | uint64((buf[p>>3]>>(7-uint(p&0x7)))&1)
	}
	return uint32(v)
}

// ToBinary formats the bytes as groups of 8 binary digits.
func ToBinary(buf []byte) string {
	var sb strings.Builder
	for i, b := range buf {
		if i > 0 {
			sb.WriteByte(' ')
		}
		for bit := 7; bit >= 0; bit-- {
			sb.WriteByte('0' + (b>>uint(bit))&1)
		}
	}
	return sb.String()
}
