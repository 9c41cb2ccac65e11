// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rtp

import (
	"github.com/cnotch/rtpcore/av/codec/h264"
	"github.com/cnotch/rtpcore/utils/bits"
)

// H264Payload H.264 RTP 载荷 (RFC 6184)，具体类型为
// *SingleNALUnit、*STAPA 或 *FUA
type H264Payload interface {
	// NalRefIdc 载荷 NAL 头中的 nal_ref_idc
	NalRefIdc() uint8
	// NalType 载荷 NAL 头中的类型（1-23、24 或 28）
	NalType() uint8
}

type nalHeader struct {
	refIdc uint8
	typ    uint8
}

func (h nalHeader) NalRefIdc() uint8 { return h.refIdc }
func (h nalHeader) NalType() uint8   { return h.typ }

// SingleNALUnit 单一 NAL 单元包，Data 包含 NAL 头
type SingleNALUnit struct {
	nalHeader
	Data []byte
}

// STAPA 单一时间聚合包，NALUnits 按包内顺序排列
type STAPA struct {
	nalHeader
	NALUnits [][]byte
}

// FUA 分片单元
type FUA struct {
	nalHeader
	Start    bool
	End      bool
	Type     uint8 // 被分片的 NAL 单元的真实类型
	Fragment []byte
}

// Header 重建被分片 NAL 单元的头字节
func (fu *FUA) Header() byte {
	return fu.refIdc<<5 | fu.Type
}

// H264Packet 解码后的 H.264 RTP 包
type H264Packet struct {
	Header  FixedHeader
	Payload H264Payload
}

// RTPHeader .
func (p *H264Packet) RTPHeader() *FixedHeader { return &p.Header }

// ParseH264Packet 解析 RTP 固定头和 H.264 载荷
func ParseH264Packet(buf []byte, opts ...bits.Option) (*H264Packet, error) {
	r := bits.NewReader(buf, opts...)
	h, err := readFixedHeader(r)
	if err != nil {
		return nil, err
	}
	payload, err := readH264Payload(r)
	if err != nil {
		return nil, err
	}
	return &H264Packet{Header: h, Payload: payload}, nil
}

// ParseH264Payload 解析 H.264 载荷
func ParseH264Payload(buf []byte, opts ...bits.Option) (H264Payload, error) {
	return readH264Payload(bits.NewReader(buf, opts...))
}

//	+---------------+
//	|0|1|2|3|4|5|6|7|
//	+-+-+-+-+-+-+-+-+
//	|F|NRI|  Type   |
//	+---------------+
func readH264Payload(r *bits.Reader) (H264Payload, error) {
	forbidden, err := r.ReadBit()
	if err != nil {
		return nil, err
	}
	if forbidden != 0 {
		return nil, formatErrorf("forbidden_zero_bit", "must be 0 (got %d)", forbidden)
	}
	v, err := r.ReadBits(2)
	if err != nil {
		return nil, err
	}
	hdr := nalHeader{refIdc: uint8(v)}
	if v, err = r.ReadBits(5); err != nil {
		return nil, err
	}
	hdr.typ = uint8(v)

	switch {
	case hdr.typ >= h264.NalSlice && hdr.typ < h264.NalStapaInRtp:
		r.UnreadBytes(1)
		return &SingleNALUnit{nalHeader: hdr, Data: r.Remaining()}, nil
	case hdr.typ == h264.NalStapaInRtp:
		return readSTAPA(r, hdr)
	case hdr.typ == h264.NalFuAInRtp:
		return readFUA(r, hdr)
	case hdr.typ >= h264.NalStapbInRtp && hdr.typ <= h264.NalFuBInRtp:
		return nil, formatErrorf("nal_unit_type", "%d is not implemented", hdr.typ)
	}
	return nil, formatErrorf("nal_unit_type", "invalid type %d", hdr.typ)
}

//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	|STAP-A NAL HDR |         NALU 1 Size           | NALU 1 HDR    |
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	|                         NALU 1 Data                           |
//	:                                                               :
//	+               +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	|               | NALU 2 Size                   | NALU 2 HDR    |
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
func readSTAPA(r *bits.Reader, hdr nalHeader) (*STAPA, error) {
	stap := &STAPA{nalHeader: hdr}
	for r.BytesLeft() >= 2 {
		size, err := r.ReadUint16()
		if err != nil {
			return nil, err
		}
		nalu, err := r.ReadBytes(int(size))
		if err != nil {
			return nil, err
		}
		stap.NALUnits = append(stap.NALUnits, nalu)
	}
	if len(stap.NALUnits) == 0 {
		r.Logger().Error("rtp: STAP-A does not contain a NAL unit")
	}
	return stap, nil
}

//	+---------------+---------------+
//	| FU indicator  |   FU header   |
//	+---------------+---------------+
//	                |S|E|R|  Type   |
//	                +---------------+
func readFUA(r *bits.Reader, hdr nalHeader) (*FUA, error) {
	fu := &FUA{nalHeader: hdr}
	var err error
	if fu.Start, err = r.ReadBool(); err != nil {
		return nil, err
	}
	if fu.End, err = r.ReadBool(); err != nil {
		return nil, err
	}
	reserved, err := r.ReadBit()
	if err != nil {
		return nil, err
	}
	if reserved != 0 {
		return nil, formatErrorf("fu header", "reserved bit must be 0 (got %d)", reserved)
	}
	v, err := r.ReadBits(5)
	if err != nil {
		return nil, err
	}
	fu.Type = uint8(v)
	fu.Fragment = r.Remaining()
	return fu, nil
}

// FUHeader 生成 FU-A 的 FU indicator 和 FU header，nalRefIdc 为 2 位值
func FUHeader(nalRefIdc uint8, start, end bool, nalType uint8) [2]byte {
	var hdr [2]byte
	hdr[0] = (nalRefIdc&0x03)<<5 | h264.NalFuAInRtp
	hdr[1] = nalType & h264.NalTypeBitmask
	if start {
		hdr[1] |= 0x80
	}
	if end {
		hdr[1] |= 0x40
	}
	return hdr
}
