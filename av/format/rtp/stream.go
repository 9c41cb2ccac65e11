// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rtp

import (
	"github.com/cnotch/rtpcore/stats"
	"github.com/cnotch/xlog"
)

// stream 单个流的重排序、分片和批次状态
type stream struct {
	d      *Demuxer
	tag    StreamTag
	logger *xlog.Logger
	stats  stats.Stream

	reorder reorderBuffer

	fragmenting bool
	fuHeader    byte
	fragments   [][]byte

	batch [][]byte
}

func newStream(d *Demuxer, tag StreamTag) *stream {
	return &stream{
		d:       d,
		tag:     tag,
		logger:  d.logger.With(xlog.Fields(xlog.F("tag", tag.String()))),
		stats:   stats.NewChildStream(d.total),
		reorder: reorderBuffer{depth: d.depth},
	}
}

func (s *stream) feed(p MediaPacket) {
	seq := seqOf(p)
	if s.reorder.duplicate(seq) {
		s.stats.AddDuplicate()
		s.logger.Warnf("rtp: %s: discarded duplicate incoming packet: %d", s.tag, seq)
		return
	}
	if s.reorder.push(p, s.deliver, s.onLoss) {
		s.stats.AddReordered()
	}
}

func (s *stream) onLoss(lr lossRange) {
	s.stats.AddLost(lr.count())
	s.logger.Warnf("rtp: %s: incoming packet loss: sequence number %s", s.tag, lr)
}

// deliver 处理按序到达的包
func (s *stream) deliver(p MediaPacket) {
	s.stats.AddDelivered()
	switch pkt := p.(type) {
	case *H264Packet:
		s.onH264(pkt)
	case *AACPacket:
		s.onAAC(pkt)
	}
}

func (s *stream) onH264(p *H264Packet) {
	switch pl := p.Payload.(type) {
	case *SingleNALUnit:
		s.appendUnits(&p.Header, EventH264NALUnits, pl.Data)
	case *STAPA:
		if len(pl.NALUnits) > 0 {
			s.appendUnits(&p.Header, EventH264NALUnits, pl.NALUnits...)
		}
	case *FUA:
		// 同一个 FU header 中 start 和 end 不会同时为 1
		switch {
		case pl.Start:
			s.fragmenting = true
			s.fuHeader = pl.Header()
			s.fragments = append(s.fragments[:0], pl.Fragment)
		case s.fragmenting:
			s.fragments = append(s.fragments, pl.Fragment)
		default:
			s.stats.AddDroppedFragment()
			s.logger.Warnf("rtp: %s: discarded fragmented incoming packet: %d", s.tag, p.Header.SequenceNumber)
			return
		}
		if pl.End {
			s.appendUnits(&p.Header, EventH264NALUnits, s.joinFragments())
		}
	}
}

func (s *stream) joinFragments() []byte {
	size := 1
	for _, f := range s.fragments {
		size += len(f)
	}
	nalu := make([]byte, 1, size)
	nalu[0] = s.fuHeader
	for i, f := range s.fragments {
		nalu = append(nalu, f...)
		s.fragments[i] = nil
	}
	s.fragments = s.fragments[:0]
	s.fragmenting = false
	return nalu
}

func (s *stream) onAAC(p *AACPacket) {
	s.appendUnits(&p.Header, EventAACAccessUnits, p.Payload.AccessUnits...)
}

// appendUnits 累积单元，marker 为 1 时输出整个批次
func (s *stream) appendUnits(h *FixedHeader, e Event, units ...[]byte) {
	s.batch = append(s.batch, units...)
	s.stats.AddUnits(len(units))
	if !h.Marker || len(s.batch) == 0 {
		return
	}

	batch := s.batch
	s.batch = nil
	s.stats.AddFlush()
	if s.logger.LevelEnabled(xlog.DebugLevel) {
		s.logger.Debugf("rtp: %s: flush %d units, timestamp %d", s.tag, len(batch), h.Timestamp)
	}
	s.d.listeners.emit(e, s.tag.ClientID, batch, h.Timestamp)
}

func (s *stream) onControl(cp ControlPacket) {
	switch p := cp.(type) {
	case *SenderReport:
		if s.logger.LevelEnabled(xlog.DebugLevel) {
			s.logger.Debugf("rtp: %s: sender report ssrc=%d ntp=%s rtp=%d packets=%d octets=%d",
				s.tag, p.SSRC, p.Time().Format("2006-01-02T15:04:05.000Z07:00"), p.RTPTime, p.PacketCount, p.OctetCount)
		}
	case *Goodbye:
		s.logger.Infof("rtp: %s: goodbye ssrc=%v reason=%q", s.tag, p.Sources, p.Reason)
	}
}
