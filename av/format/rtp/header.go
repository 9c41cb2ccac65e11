// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rtp

import (
	"encoding/binary"
	"errors"

	"github.com/cnotch/rtpcore/utils/bits"
)

// RTP 常量
const (
	Version         = 2
	HeaderLength    = 12   // 不含 CSRC 的固定头长度
	MaxPayloadSize  = 1360 // 打包时单个 RTP 包的最大载荷
	MaxSequence     = 65535
	ssrcOffset      = 8
	extensionLength = 4
	maxCSRC         = 15
)

// FixedHeader RTP 固定头 (RFC 3550 5.1)
//
//	 0                   1                   2                   3
//	 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	|V=2|P|X|  CC   |M|     PT      |       sequence number         |
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	|                           timestamp                           |
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	|           synchronization source (SSRC) identifier            |
//	+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+
//	|            contributing source (CSRC) identifiers             |
//	|                             ....                              |
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
type FixedHeader struct {
	Version        uint8
	Padding        bool
	Extension      bool
	CSRCCount      uint8
	Marker         bool
	PayloadType    uint8
	SequenceNumber uint16
	Timestamp      uint32
	SSRC           uint32
	CSRC           []uint32

	// 头扩展，仅在 Extension 为 true 时有效
	ExtensionProfile uint16
	ExtensionPayload []byte
}

// readFixedHeader 读取固定头；存在填充时截去尾部的填充字节
func readFixedHeader(r *bits.Reader) (h FixedHeader, err error) {
	var v uint32
	if v, err = r.ReadBits(2); err != nil {
		return
	}
	h.Version = uint8(v)
	if h.Version != Version {
		err = formatErrorf("version", "must be %d (got %d)", Version, h.Version)
		return
	}
	if h.Padding, err = r.ReadBool(); err != nil {
		return
	}
	if h.Padding {
		if err = removeTrailingPadding(r); err != nil {
			return
		}
	}
	if h.Extension, err = r.ReadBool(); err != nil {
		return
	}
	if v, err = r.ReadBits(4); err != nil {
		return
	}
	h.CSRCCount = uint8(v)
	if h.Marker, err = r.ReadBool(); err != nil {
		return
	}
	if v, err = r.ReadBits(7); err != nil {
		return
	}
	h.PayloadType = uint8(v)
	if h.SequenceNumber, err = r.ReadUint16(); err != nil {
		return
	}
	if h.Timestamp, err = r.ReadUint32(); err != nil {
		return
	}
	if h.SSRC, err = r.ReadUint32(); err != nil {
		return
	}
	if h.CSRCCount > 0 {
		h.CSRC = make([]uint32, h.CSRCCount)
		for i := range h.CSRC {
			if h.CSRC[i], err = r.ReadUint32(); err != nil {
				return
			}
		}
	}

	if h.Extension {
		if h.ExtensionProfile, err = r.ReadUint16(); err != nil {
			return
		}
		var words uint16
		if words, err = r.ReadUint16(); err != nil {
			return
		}
		if h.ExtensionPayload, err = r.ReadBytes(int(words) * 4); err != nil {
			return
		}
	}
	return
}

// removeTrailingPadding 最后一个字节为填充长度（包含自身）
func removeTrailingPadding(r *bits.Reader) error {
	padLen, err := r.LastByte(0)
	if err != nil {
		return err
	}
	r.Truncate(int(padLen))
	return nil
}

// ParseFixedHeader 解析 RTP 固定头，返回去掉填充后的载荷
func ParseFixedHeader(buf []byte, opts ...bits.Option) (*FixedHeader, []byte, error) {
	r := bits.NewReader(buf, opts...)
	h, err := readFixedHeader(r)
	if err != nil {
		return nil, nil, err
	}
	return &h, r.Remaining(), nil
}

// Size 编码后的头长度
func (h *FixedHeader) Size() int {
	size := HeaderLength + h.csrcCount()*4
	if h.Extension {
		size += extensionLength + (len(h.ExtensionPayload)+3)/4*4
	}
	return size
}

// csrcCount CC 只有 4 位，最多编码 15 个 CSRC
func (h *FixedHeader) csrcCount() int {
	if len(h.CSRC) > maxCSRC {
		return maxCSRC
	}
	return len(h.CSRC)
}

// Marshal 编码固定头。版本总是 2，填充位总是 0，CC 取自 CSRC 列表长度
func (h *FixedHeader) Marshal() []byte {
	cc := h.csrcCount()
	w := bits.NewWriter(h.Size())
	w.AddBits(2, Version)
	w.AddBit(0)
	w.AddBool(h.Extension)
	w.AddBits(4, uint32(cc))
	w.AddBool(h.Marker)
	w.AddBits(7, uint32(h.PayloadType&0x7f))
	w.AddBits(16, uint32(h.SequenceNumber))
	w.AddBits(32, h.Timestamp)
	w.AddBits(32, h.SSRC)
	for i := 0; i < cc; i++ {
		w.AddBits(32, h.CSRC[i])
	}
	if h.Extension {
		words := (len(h.ExtensionPayload) + 3) / 4
		w.AddBits(16, uint32(h.ExtensionProfile))
		w.AddBits(16, uint32(words))
		w.AddBytes(h.ExtensionPayload)
		for i := len(h.ExtensionPayload); i < words*4; i++ {
			w.AddBits(8, 0)
		}
	}
	return w.Bytes()
}

// ReplaceSSRC 就地替换 RTP 包中的 SSRC
func ReplaceSSRC(packet []byte, ssrc uint32) error {
	if len(packet) < HeaderLength {
		return errors.New("rtp: packet is too short to replace ssrc")
	}
	binary.BigEndian.PutUint32(packet[ssrcOffset:], ssrc)
	return nil
}
