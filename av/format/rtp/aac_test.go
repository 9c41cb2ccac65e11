// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rtp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAACPayload(t *testing.T) {
	frames := [][]byte{
		bytes.Repeat([]byte{0x21}, 6),
		bytes.Repeat([]byte{0x42}, 300),
	}
	header, err := AudioHeader(frames)
	require.NoError(t, err)
	buf := append(header, frames[0]...)
	buf = append(buf, frames[1]...)

	p, err := ParseAACPayload(buf, DefaultAACParams)
	require.NoError(t, err)
	assert.Equal(t, uint16(32), p.HeadersLength)
	require.Len(t, p.Headers, 2)
	assert.Equal(t, uint32(6), p.Headers[0].Size)
	assert.Equal(t, uint32(300), p.Headers[1].Size)
	assert.Equal(t, frames, p.AccessUnits)
}

func TestParseAACPayload_ShortHeaders(t *testing.T) {
	// sizelength=6 indexlength=2: AU 头只有 8 位，头的个数仍按 16 位计算
	params := AACParams{SizeLength: 6, IndexLength: 2, IndexDeltaLength: 2}
	tests := []struct {
		name    string
		buf     []byte
		headers int
		want    [][]byte
	}{
		{"one header", []byte{0x00, 16, 0x04, 0x04, 0xaa, 0xbb}, 1, [][]byte{{0xaa}}},
		{"two headers", []byte{
			0x00, 32,
			0x04, 0x08, // size 1 index 0, size 2 delta 0
			0x00, 0x00, // 头区剩余部分
			0xaa,
			0xbb, 0xcc,
		}, 2, [][]byte{{0xaa}, {0xbb, 0xcc}}},
		{"partial word", []byte{0x00, 20, 0x04, 0x00, 0x00, 0xaa}, 1, [][]byte{{0xaa}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParseAACPayload(tt.buf, params)
			require.NoError(t, err)
			assert.Len(t, p.Headers, tt.headers)
			assert.Equal(t, tt.want, p.AccessUnits)
		})
	}

	// 第二个 AU 头需要 indexdeltalength
	buf := []byte{0x00, 32, 0x04, 0x00, 0x00, 0x00, 0xaa}
	_, err := ParseAACPayload(buf, AACParams{SizeLength: 6, IndexLength: 2})
	assert.ErrorIs(t, err, ErrFormatViolation)
}

func TestParseAACPayload_MissingParams(t *testing.T) {
	buf := []byte{0x00, 0x10, 0x00, 0x08, 0x01}
	tests := []struct {
		name   string
		params AACParams
	}{
		{"size", AACParams{IndexLength: 3, IndexDeltaLength: 3}},
		{"index", AACParams{SizeLength: 13, IndexDeltaLength: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAACPayload(buf, tt.params)
			assert.ErrorIs(t, err, ErrFormatViolation)
		})
	}

	// 只有一个 AU 头时不需要 indexdeltalength
	p, err := ParseAACPayload(buf, AACParams{SizeLength: 13, IndexLength: 3})
	require.NoError(t, err)
	assert.Equal(t, [][]byte{{0x01}}, p.AccessUnits)
}

func TestParseAACPacket(t *testing.T) {
	h := FixedHeader{Marker: true, PayloadType: 97, SequenceNumber: 9, Timestamp: 1024}
	buf := append(h.Marshal(), 0x00, 0x10, 0x00, 0x10, 0x01, 0x02)
	p, err := ParseAACPacket(buf, DefaultAACParams)
	require.NoError(t, err)
	assert.Equal(t, uint32(1024), p.RTPHeader().Timestamp)
	assert.Equal(t, [][]byte{{0x01, 0x02}}, p.Payload.AccessUnits)

	// AU 长度超出载荷
	buf = append(h.Marshal(), 0x00, 0x10, 0x00, 0x40, 0x01)
	_, err = ParseAACPacket(buf, DefaultAACParams)
	assert.Error(t, err)
}

func TestEncodeAUHeader(t *testing.T) {
	assert.Equal(t, [2]byte{0x00, 0x08}, EncodeAUHeader(1))
	assert.Equal(t, [2]byte{0x09, 0x60}, EncodeAUHeader(300))
	assert.Equal(t, [2]byte{0xff, 0xf8}, EncodeAUHeader(8191))

	_, err := AudioHeader(make([][]byte, 4096))
	assert.Error(t, err)
}

func TestGroupAudioFrames(t *testing.T) {
	assert.Empty(t, GroupAudioFrames(nil))

	frame := bytes.Repeat([]byte{1}, 400)
	groups := GroupAudioFrames([][]byte{frame, frame, frame, frame})
	require.Len(t, groups, 2)
	assert.Len(t, groups[0], 3) // 12 + 3*402 = 1218
	assert.Len(t, groups[1], 1)

	// 超大的单帧独占一组
	big := bytes.Repeat([]byte{2}, 2000)
	groups = GroupAudioFrames([][]byte{big, frame})
	require.Len(t, groups, 2)
	assert.Equal(t, [][]byte{big}, groups[0])
	for _, g := range groups {
		assert.NotEmpty(t, g)
	}
}
