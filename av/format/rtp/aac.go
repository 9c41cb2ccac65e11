// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rtp

import (
	"fmt"

	"github.com/cnotch/rtpcore/utils/bits"
)

// AACParams AU 头各字段的位宽，通常来自 SDP 的 fmtp 属性。
// 0 表示未提供。
type AACParams struct {
	SizeLength       int
	IndexLength      int
	IndexDeltaLength int
}

// DefaultAACParams AAC-hbr 模式的参数
var DefaultAACParams = AACParams{SizeLength: 13, IndexLength: 3, IndexDeltaLength: 3}

// AUHeader .
type AUHeader struct {
	Size       uint32
	Index      uint32 // 仅第一个 AU 头
	IndexDelta uint32 // 后续 AU 头
}

// AACPayload RFC 3640 载荷
type AACPayload struct {
	HeadersLength uint16 // AU-headers-length, in bits
	Headers       []AUHeader
	AccessUnits   [][]byte
}

// AACPacket 解码后的 AAC RTP 包
type AACPacket struct {
	Header  FixedHeader
	Payload AACPayload
}

// RTPHeader .
func (p *AACPacket) RTPHeader() *FixedHeader { return &p.Header }

// ParseAACPacket 解析 RTP 固定头和 AAC 载荷
func ParseAACPacket(buf []byte, params AACParams, opts ...bits.Option) (*AACPacket, error) {
	r := bits.NewReader(buf, opts...)
	h, err := readFixedHeader(r)
	if err != nil {
		return nil, err
	}
	payload, err := readAACPayload(r, params)
	if err != nil {
		return nil, err
	}
	return &AACPacket{Header: h, Payload: *payload}, nil
}

// ParseAACPayload 解析 AAC 载荷
func ParseAACPayload(buf []byte, params AACParams, opts ...bits.Option) (*AACPayload, error) {
	return readAACPayload(bits.NewReader(buf, opts...), params)
}

//  以下是当 sizelength=13;indexlength=3;indexdeltalength=3 时
//  Au-header = 13+3 bits(2byte) 的示意图
// 	0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5
//  +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-|
//  |       AU-headers-length     |
//  +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-|
//  |       AU-header(1)          |
//  +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-|
//  |       ...                   |
//  +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-|
//  |       AU-header(n)          |
//  +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-|
//  |       pading bits           |
//  +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-|
func readAACPayload(r *bits.Reader, params AACParams) (*AACPayload, error) {
	length, err := r.ReadUint16()
	if err != nil {
		return nil, err
	}
	payload := &AACPayload{HeadersLength: length}

	// 头的个数固定按每个 16 位计算
	count := int(length) / 16
	start := r.Offset()
	payload.Headers = make([]AUHeader, 0, count)
	for i := 0; i < count; i++ {
		hdr, err := readAUHeader(r, params, i)
		if err != nil {
			return nil, err
		}
		payload.Headers = append(payload.Headers, hdr)
	}
	// AU 数据从头区结束后的字节边界开始
	if rest := start + int(length) - r.Offset(); rest > 0 {
		if err = r.Skip(rest); err != nil {
			return nil, err
		}
	}
	r.AlignByte()

	payload.AccessUnits = make([][]byte, len(payload.Headers))
	for i, hdr := range payload.Headers {
		if payload.AccessUnits[i], err = r.ReadBytes(int(hdr.Size)); err != nil {
			return nil, err
		}
	}
	return payload, nil
}

func readAUHeader(r *bits.Reader, params AACParams, index int) (hdr AUHeader, err error) {
	if params.SizeLength <= 0 {
		err = formatErrorf("aac", "sizelength is not defined in params")
		return
	}
	if hdr.Size, err = r.ReadBits(params.SizeLength); err != nil {
		return
	}
	if index == 0 {
		if params.IndexLength <= 0 {
			err = formatErrorf("aac", "indexlength is not defined in params")
			return
		}
		hdr.Index, err = r.ReadBits(params.IndexLength)
		return
	}
	if params.IndexDeltaLength <= 0 {
		err = formatErrorf("aac", "indexdeltalength is not defined in params")
		return
	}
	hdr.IndexDelta, err = r.ReadBits(params.IndexDeltaLength)
	return
}

// EncodeAUHeader 编码 13 位 AU-size 和 3 位 AU-Index(-Delta)=0
func EncodeAUHeader(auSize int) [2]byte {
	return [2]byte{byte(auSize >> 5), byte(auSize&0x1f) << 3}
}

// AudioHeader 编码 AU-headers-length 和 AU 头，每个 AU 两个字节
func AudioHeader(accessUnits [][]byte) ([]byte, error) {
	if len(accessUnits) > 4095 {
		return nil, fmt.Errorf("rtp: too many audio access units: %d (must be <= 4095)", len(accessUnits))
	}
	numBits := len(accessUnits) * 16
	header := make([]byte, 2, 2+len(accessUnits)*2)
	header[0] = byte(numBits >> 8)
	header[1] = byte(numBits)
	for _, au := range accessUnits {
		h := EncodeAUHeader(len(au))
		header = append(header, h[:]...)
	}
	return header, nil
}

// GroupAudioFrames 将音频帧分组，使每组打包后不超过 MaxPayloadSize
func GroupAudioFrames(frames [][]byte) [][][]byte {
	var groups [][][]byte
	var current [][]byte
	packetSize := HeaderLength
	for _, frame := range frames {
		packetSize += len(frame) + 2 // 2 bytes for AU-Header
		if packetSize > MaxPayloadSize && len(current) > 0 {
			groups = append(groups, current)
			current = nil
			packetSize = HeaderLength + len(frame) + 2
		}
		current = append(current, frame)
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}
