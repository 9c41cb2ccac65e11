// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rtp

import (
	"fmt"
	"sort"

	"github.com/cnotch/rtpcore/stats"
	"github.com/cnotch/rtpcore/utils/bits"
	"github.com/cnotch/xlog"
)

// Codec 流的载荷协议
type Codec string

// 支持的载荷协议
const (
	CodecH264 Codec = "h264"
	CodecAAC  Codec = "aac"
)

// StreamTag 流的标识：载荷协议 + 客户端ID
type StreamTag struct {
	Codec    Codec
	ClientID string
}

func (t StreamTag) String() string {
	return string(t.Codec) + ":" + t.ClientID
}

// Option 配置 Demuxer
type Option func(d *Demuxer)

// WithReorderDepth 设置乱序缓冲深度，默认 DefaultReorderDepth
func WithReorderDepth(depth int) Option {
	return func(d *Demuxer) {
		if depth > 0 {
			d.depth = depth
		}
	}
}

// WithStrict 越过声明边界的读取作为错误返回
func WithStrict(strict bool) Option {
	return func(d *Demuxer) { d.strict = strict }
}

// WithLogger 设置日志
func WithLogger(logger *xlog.Logger) Option {
	return func(d *Demuxer) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithStats 设置汇总统计，各流的计数同时累加到 parent，默认 stats.Total
func WithStats(parent stats.Stream) Option {
	return func(d *Demuxer) {
		if parent != nil {
			d.total = parent
		}
	}
}

// Demuxer 按流重排序 RTP 包并重组 NAL 单元和 AAC access unit。
// Demuxer 不是并发安全的，多个生产者需要使用 AsyncDemuxer。
type Demuxer struct {
	depth     int
	strict    bool
	logger    *xlog.Logger
	total     stats.Stream
	streams   map[StreamTag]*stream
	listeners listeners
}

// NewDemuxer 创建 Demuxer
func NewDemuxer(opts ...Option) *Demuxer {
	d := &Demuxer{
		depth:   DefaultReorderDepth,
		logger:  xlog.L(),
		total:   stats.Total,
		streams: make(map[StreamTag]*stream),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Demuxer) readerOptions() []bits.Option {
	return []bits.Option{bits.WithStrict(d.strict), bits.WithLogger(d.logger)}
}

// On 注册事件监听
func (d *Demuxer) On(e Event, l Listener) ListenerID {
	return d.listeners.add(e, l)
}

// Off 移除事件监听
func (d *Demuxer) Off(e Event, id ListenerID) bool {
	return d.listeners.remove(e, id)
}

func (d *Demuxer) stream(tag StreamTag) *stream {
	s, ok := d.streams[tag]
	if !ok {
		s = newStream(d, tag)
		d.streams[tag] = s
		stats.ActiveStreams.Add()
	}
	return s
}

// FeedH264 解码一个 H.264 RTP 包并输入
func (d *Demuxer) FeedH264(clientID string, buf []byte) error {
	p, err := ParseH264Packet(buf, d.readerOptions()...)
	if err != nil {
		return err
	}
	return d.Feed(clientID, p)
}

// FeedAAC 解码一个 AAC RTP 包并输入
func (d *Demuxer) FeedAAC(clientID string, buf []byte, params AACParams) error {
	p, err := ParseAACPacket(buf, params, d.readerOptions()...)
	if err != nil {
		return err
	}
	return d.Feed(clientID, p)
}

// Feed 输入一个已解码的媒体包，流标识由包类型和 clientID 决定
func (d *Demuxer) Feed(clientID string, p MediaPacket) error {
	var tag StreamTag
	size := 0
	switch pkt := p.(type) {
	case *H264Packet:
		tag = StreamTag{CodecH264, clientID}
		size = pkt.payloadSize()
	case *AACPacket:
		tag = StreamTag{CodecAAC, clientID}
		for _, au := range pkt.Payload.AccessUnits {
			size += len(au)
		}
	default:
		return fmt.Errorf("rtp: unsupported media packet %T", p)
	}

	s := d.stream(tag)
	s.stats.AddPacket(size)
	s.feed(p)
	return nil
}

// Control 解码 RTCP 复合包，tag 为该控制通道所属的媒体流
func (d *Demuxer) Control(tag StreamTag, buf []byte) ([]ControlPacket, error) {
	packets, err := ParsePackets(buf, d.readerOptions()...)
	s := d.stream(tag)
	var cps []ControlPacket
	for _, p := range packets {
		if p.RTCP == nil {
			continue
		}
		s.stats.AddControl()
		s.onControl(p.RTCP)
		cps = append(cps, p.RTCP)
	}
	return cps, err
}

// Expect 预设流下一个期望的序号
func (d *Demuxer) Expect(tag StreamTag, seq uint16) {
	d.stream(tag).reorder.expect(seq)
}

// Reset 清除客户端所有流的状态
func (d *Demuxer) Reset(clientID string) {
	for _, codec := range []Codec{CodecH264, CodecAAC} {
		tag := StreamTag{codec, clientID}
		if _, ok := d.streams[tag]; ok {
			delete(d.streams, tag)
			stats.ActiveStreams.Release()
		}
	}
}

// ResetAll 清除所有流的状态
func (d *Demuxer) ResetAll() {
	for tag := range d.streams {
		delete(d.streams, tag)
		stats.ActiveStreams.Release()
	}
}

// Stats 流的统计采样
func (d *Demuxer) Stats(tag StreamTag) (stats.StreamSample, bool) {
	s, ok := d.streams[tag]
	if !ok {
		return stats.StreamSample{}, false
	}
	return s.stats.GetSample(), true
}

// Tags 当前有状态的流，按字串排序
func (d *Demuxer) Tags() []StreamTag {
	tags := make([]StreamTag, 0, len(d.streams))
	for tag := range d.streams {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool {
		return tags[i].String() < tags[j].String()
	})
	return tags
}

func (p *H264Packet) payloadSize() int {
	switch pl := p.Payload.(type) {
	case *SingleNALUnit:
		return len(pl.Data)
	case *STAPA:
		n := 0
		for _, nalu := range pl.NALUnits {
			n += len(nalu)
		}
		return n
	case *FUA:
		return len(pl.Fragment)
	}
	return 0
}
