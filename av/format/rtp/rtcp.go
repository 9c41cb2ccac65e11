// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rtp

import (
	"time"

	"github.com/cnotch/rtpcore/utils/bits"
)

// RTCP 包类型 (RFC 3550 6)
const (
	TypeSenderReport       = 200 // SR
	TypeReceiverReport     = 201 // RR
	TypeSourceDescription  = 202 // SDES
	TypeGoodbye            = 203 // BYE
	TypeApplicationDefined = 204 // APP
)

// SDES 条目类型
const (
	SDESEnd   = 0
	SDESCNAME = 1
	SDESName  = 2
	SDESEmail = 3
	SDESPhone = 4
	SDESLoc   = 5
	SDESTool  = 6
	SDESNote  = 7
	SDESPriv  = 8
)

// ControlPacket 已解码的 RTCP 包
type ControlPacket interface {
	PacketType() uint8
}

// ControlHeader RTCP 公共头
//
//	 0                   1                   2                   3
//	 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	|V=2|P|   RC    |      PT       |             length            |
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
type ControlHeader struct {
	Version uint8
	Padding bool
	Count   uint8 // RC/SC，APP 中为 subtype
	Type    uint8
	Length  uint16 // 32 位字长度减一
}

// PacketType .
func (h ControlHeader) PacketType() uint8 { return h.Type }

// TotalBytes 包含公共头在内的包长度
func (h ControlHeader) TotalBytes() int { return (int(h.Length) + 1) * 4 }

// ReportBlock 接收报告块
type ReportBlock struct {
	SSRC             uint32
	FractionLost     uint8
	PacketsLost      int32 // 24 位有符号累计丢包
	HighestSequence  uint32
	Jitter           uint32
	LastSR           uint32
	DelaySinceLastSR uint32
}

// SenderReport SR (RFC 3550 6.4.1)
type SenderReport struct {
	ControlHeader
	SSRC        uint32
	NTPSec      uint32
	NTPFrac     uint32
	RTPTime     uint32
	PacketCount uint32
	OctetCount  uint32
	Reports     []ReportBlock
}

// Time NTP 时间戳对应的绝对时间
func (sr *SenderReport) Time() time.Time {
	return NTPTime(sr.NTPSec, sr.NTPFrac)
}

// ReceiverReport RR (RFC 3550 6.4.2)
type ReceiverReport struct {
	ControlHeader
	SSRC    uint32
	Reports []ReportBlock
}

// SDESItem .
type SDESItem struct {
	Type uint8
	Text string
}

// SDESChunk 一个源的描述项
type SDESChunk struct {
	Source uint32
	Items  []SDESItem

	CNAME string
	Name  string
	Email string
	Phone string
	Loc   string
	Tool  string
	Note  string
	Priv  string
}

// SourceDescription SDES (RFC 3550 6.5)
type SourceDescription struct {
	ControlHeader
	Chunks []SDESChunk
}

// Goodbye BYE (RFC 3550 6.6)
type Goodbye struct {
	ControlHeader
	Sources []uint32
	Reason  string
}

// ApplicationDefined APP (RFC 3550 6.7)，Subtype 保存在 Count 中
type ApplicationDefined struct {
	ControlHeader
	SSRC uint32
	Name string
	Data []byte
}

// Subtype .
func (app *ApplicationDefined) Subtype() uint8 { return app.Count }

// readControlHeader 读取公共头并校验类型；返回包在 r 中的起始字节
func readControlHeader(r *bits.Reader, want uint8) (h ControlHeader, start int, err error) {
	start, _ = r.Position()
	var v uint32
	if v, err = r.ReadBits(2); err != nil {
		return
	}
	h.Version = uint8(v)
	if h.Padding, err = r.ReadBool(); err != nil {
		return
	}
	if h.Padding {
		if err = removeTrailingPadding(r); err != nil {
			return
		}
	}
	if v, err = r.ReadBits(5); err != nil {
		return
	}
	h.Count = uint8(v)
	if h.Type, err = r.ReadByte(); err != nil {
		return
	}
	if h.Type != want {
		err = formatErrorf("payload type", "must be %d (got %d)", want, h.Type)
		return
	}
	h.Length, err = r.ReadUint16()
	return
}

// finishControlPacket 跳过未读取的剩余字节，使每个包恰好消费 4*(length+1) 字节
func finishControlPacket(r *bits.Reader, h *ControlHeader, start int) error {
	pos, _ := r.Position()
	read := pos - start
	total := h.TotalBytes()
	if read > total {
		return formatErrorf("length", "packet type %d declares %d bytes but %d were read", h.Type, total, read)
	}
	if read < total {
		return r.SkipBytes(total - read)
	}
	return nil
}

func readReportBlocks(r *bits.Reader, count uint8) (blocks []ReportBlock, err error) {
	if count == 0 {
		return
	}
	blocks = make([]ReportBlock, count)
	for i := range blocks {
		b := &blocks[i]
		if b.SSRC, err = r.ReadUint32(); err != nil {
			return
		}
		if b.FractionLost, err = r.ReadByte(); err != nil {
			return
		}
		if b.PacketsLost, err = r.ReadInt(24); err != nil {
			return
		}
		if b.HighestSequence, err = r.ReadUint32(); err != nil {
			return
		}
		if b.Jitter, err = r.ReadUint32(); err != nil {
			return
		}
		if b.LastSR, err = r.ReadUint32(); err != nil {
			return
		}
		if b.DelaySinceLastSR, err = r.ReadUint32(); err != nil {
			return
		}
	}
	return
}

func readSenderReport(r *bits.Reader) (*SenderReport, error) {
	h, start, err := readControlHeader(r, TypeSenderReport)
	if err != nil {
		return nil, err
	}
	sr := &SenderReport{ControlHeader: h}
	for _, field := range []*uint32{&sr.SSRC, &sr.NTPSec, &sr.NTPFrac,
		&sr.RTPTime, &sr.PacketCount, &sr.OctetCount} {
		if *field, err = r.ReadUint32(); err != nil {
			return nil, err
		}
	}
	if sr.Reports, err = readReportBlocks(r, h.Count); err != nil {
		return nil, err
	}
	if err = finishControlPacket(r, &sr.ControlHeader, start); err != nil {
		return nil, err
	}
	return sr, nil
}

func readReceiverReport(r *bits.Reader) (*ReceiverReport, error) {
	h, start, err := readControlHeader(r, TypeReceiverReport)
	if err != nil {
		return nil, err
	}
	rr := &ReceiverReport{ControlHeader: h}
	if rr.SSRC, err = r.ReadUint32(); err != nil {
		return nil, err
	}
	if rr.Reports, err = readReportBlocks(r, h.Count); err != nil {
		return nil, err
	}
	if err = finishControlPacket(r, &rr.ControlHeader, start); err != nil {
		return nil, err
	}
	return rr, nil
}

func readSourceDescription(r *bits.Reader) (*SourceDescription, error) {
	h, start, err := readControlHeader(r, TypeSourceDescription)
	if err != nil {
		return nil, err
	}
	sdes := &SourceDescription{ControlHeader: h}
	sdes.Chunks = make([]SDESChunk, h.Count)
	for i := range sdes.Chunks {
		if err = readSDESChunk(r, &sdes.Chunks[i], start); err != nil {
			return nil, err
		}
	}
	if err = finishControlPacket(r, &sdes.ControlHeader, start); err != nil {
		return nil, err
	}
	return sdes, nil
}

func readSDESChunk(r *bits.Reader, chunk *SDESChunk, start int) (err error) {
	if chunk.Source, err = r.ReadUint32(); err != nil {
		return
	}
	for {
		var typ, length byte
		if typ, err = r.ReadByte(); err != nil {
			return
		}
		if typ == SDESEnd {
			// 终止符之后补齐到相对包起始的 32 位边界，填充必须为 0
			pos, _ := r.Position()
			if past := (pos - start) % 4; past > 0 {
				for ; past < 4; past++ {
					var b byte
					if b, err = r.ReadByte(); err != nil {
						return
					}
					if b != 0 {
						return formatErrorf("sdes", "padding octet must be 0x00 (got %#02x)", b)
					}
				}
			}
			return nil
		}

		if length, err = r.ReadByte(); err != nil {
			return
		}
		var text []byte
		if text, err = r.ReadBytes(int(length)); err != nil {
			return
		}
		item := SDESItem{Type: typ, Text: string(text)}
		switch typ {
		case SDESCNAME:
			chunk.CNAME = item.Text
		case SDESName:
			chunk.Name = item.Text
		case SDESEmail:
			chunk.Email = item.Text
		case SDESPhone:
			chunk.Phone = item.Text
		case SDESLoc:
			chunk.Loc = item.Text
		case SDESTool:
			chunk.Tool = item.Text
		case SDESNote:
			chunk.Note = item.Text
		case SDESPriv:
			chunk.Priv = item.Text
		default:
			return formatErrorf("sdes", "unknown item type %d", typ)
		}
		chunk.Items = append(chunk.Items, item)
	}
}

func readGoodbye(r *bits.Reader) (*Goodbye, error) {
	h, start, err := readControlHeader(r, TypeGoodbye)
	if err != nil {
		return nil, err
	}
	bye := &Goodbye{ControlHeader: h}
	if h.Count > 0 {
		bye.Sources = make([]uint32, h.Count)
		for i := range bye.Sources {
			if bye.Sources[i], err = r.ReadUint32(); err != nil {
				return nil, err
			}
		}
	}

	// 可选的离开原因
	pos, _ := r.Position()
	if pos-start < h.TotalBytes() && r.BytesLeft() > 0 {
		var n byte
		if n, err = r.ReadByte(); err != nil {
			return nil, err
		}
		var reason []byte
		if reason, err = r.ReadBytes(int(n)); err != nil {
			return nil, err
		}
		bye.Reason = string(reason)
	}
	if err = finishControlPacket(r, &bye.ControlHeader, start); err != nil {
		return nil, err
	}
	return bye, nil
}

func readApplicationDefined(r *bits.Reader) (*ApplicationDefined, error) {
	h, start, err := readControlHeader(r, TypeApplicationDefined)
	if err != nil {
		return nil, err
	}
	app := &ApplicationDefined{ControlHeader: h}
	if app.SSRC, err = r.ReadUint32(); err != nil {
		return nil, err
	}
	var name []byte
	if name, err = r.ReadBytes(4); err != nil {
		return nil, err
	}
	app.Name = string(name)

	// 剩余的应用数据，不含填充
	pos, _ := r.Position()
	n := h.TotalBytes() - (pos - start)
	if left := r.BytesLeft(); n > left {
		n = left
	}
	if n > 0 {
		if app.Data, err = r.ReadBytes(n); err != nil {
			return nil, err
		}
	}
	if err = finishControlPacket(r, &app.ControlHeader, start); err != nil {
		return nil, err
	}
	return app, nil
}

// readControlPacket 根据第二个字节分派 RTCP 包
func readControlPacket(r *bits.Reader, typ byte) (ControlPacket, error) {
	switch typ {
	case TypeSenderReport:
		return readSenderReport(r)
	case TypeReceiverReport:
		return readReceiverReport(r)
	case TypeSourceDescription:
		return readSourceDescription(r)
	case TypeGoodbye:
		return readGoodbye(r)
	case TypeApplicationDefined:
		return readApplicationDefined(r)
	}
	return nil, formatErrorf("payload type", "%d is not a RTCP packet type", typ)
}

// IsControlPacket 第二个字节（含 marker 位）是否为 RTCP 包类型
func IsControlPacket(buf []byte) bool {
	return len(buf) > 1 && buf[1] >= TypeSenderReport && buf[1] <= TypeApplicationDefined
}

// ParsedPacket ParsePacket 的结果，RTP 与 RTCP 二者之一
type ParsedPacket struct {
	RTP     *FixedHeader
	Payload []byte // RTP 载荷
	RTCP    ControlPacket
}

// ParsePacket 解析一个 RTP 或 RTCP 包
func ParsePacket(buf []byte, opts ...bits.Option) (*ParsedPacket, error) {
	r := bits.NewReader(buf, opts...)
	return readPacket(r)
}

func readPacket(r *bits.Reader) (*ParsedPacket, error) {
	typ, err := r.ByteAt(1)
	if err != nil {
		return nil, err
	}
	p := new(ParsedPacket)
	if typ >= TypeSenderReport && typ <= TypeApplicationDefined {
		if p.RTCP, err = readControlPacket(r, typ); err != nil {
			return nil, err
		}
		return p, nil
	}

	h, err := readFixedHeader(r)
	if err != nil {
		return nil, err
	}
	p.RTP = &h
	p.Payload = r.Remaining()
	return p, nil
}

// ParsePackets 解析复合包，RTP 包的其余部分作为其载荷
func ParsePackets(buf []byte, opts ...bits.Option) ([]*ParsedPacket, error) {
	r := bits.NewReader(buf, opts...)
	var packets []*ParsedPacket
	for r.HasMore() {
		p, err := readPacket(r)
		if err != nil {
			return packets, err
		}
		packets = append(packets, p)
		if p.RTP != nil {
			break
		}
	}
	return packets, nil
}
