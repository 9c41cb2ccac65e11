// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bits

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndexByte(t *testing.T) {
	buf := []byte{0, 1, 2, 1}
	assert.Equal(t, 1, IndexByte(buf, 1, 0))
	assert.Equal(t, 3, IndexByte(buf, 1, 2))
	assert.Equal(t, 3, IndexByte(buf, 1, -1))
	assert.Equal(t, -1, IndexByte(buf, 9, 0))
	assert.Equal(t, -1, IndexByte(buf, 1, 4))
}

func TestIndexBytes(t *testing.T) {
	buf := []byte{0, 0, 0, 1, 0x67, 0, 0, 1, 0x68}
	assert.Equal(t, 1, IndexBytes(buf, []byte{0, 0, 1}, 0))
	assert.Equal(t, 5, IndexBytes(buf, []byte{0, 0, 1}, 2))
	assert.Equal(t, -1, IndexBytes(buf, []byte{0, 0, 1}, 6))
}

func TestIndexBits(t *testing.T) {
	// sync word 0xfff (ADTS) masked in two bytes
	buf := []byte{0x00, 0xff, 0xf1, 0x50}
	assert.Equal(t, 1, IndexBits(buf, []byte{0xff, 0xf0}, 0))
	assert.Equal(t, -1, IndexBits(buf, []byte{0xff, 0xf0}, 2))
}

func TestParseUint(t *testing.T) {
	buf := []byte{0x12, 0x34, 0x56}
	assert.Equal(t, uint32(0x234), ParseUint(buf, 4, 12))
	assert.Equal(t, uint32(0x12), ParseUint(buf, 0, 8))
	assert.Equal(t, uint32(0), ParseUint(buf, 0, 0))
}
