// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rtp

import (
	"testing"
	"time"

	"github.com/cnotch/rtpcore/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testClient = "c1"

var h264Tag = StreamTag{CodecH264, testClient}

// rtpPacket 时间戳取序号，方便从事件中还原交付顺序
func rtpPacket(seq uint16, marker bool, payload ...byte) []byte {
	h := FixedHeader{Marker: marker, PayloadType: 96, SequenceNumber: seq, Timestamp: uint32(seq), SSRC: 0x1234}
	return append(h.Marshal(), payload...)
}

func h264Packet(seq uint16) []byte {
	return rtpPacket(seq, true, 0x41, byte(seq))
}

type batch struct {
	clientID  string
	units     [][]byte
	timestamp uint32
}

type recorder struct {
	batches []batch
}

func (rec *recorder) listen(clientID string, units [][]byte, timestamp uint32) {
	rec.batches = append(rec.batches, batch{clientID, units, timestamp})
}

func (rec *recorder) timestamps() []uint32 {
	ts := make([]uint32, len(rec.batches))
	for i, b := range rec.batches {
		ts[i] = b.timestamp
	}
	return ts
}

func newTestDemuxer(opts ...Option) (*Demuxer, *recorder) {
	opts = append([]Option{WithStats(stats.NewStream())}, opts...)
	d := NewDemuxer(opts...)
	rec := &recorder{}
	d.On(EventH264NALUnits, rec.listen)
	d.On(EventAACAccessUnits, rec.listen)
	return d, rec
}

func feedAll(t *testing.T, d *Demuxer, seqs ...uint16) {
	t.Helper()
	for _, seq := range seqs {
		require.NoError(t, d.FeedH264(testClient, h264Packet(seq)))
	}
}

func TestSeqBefore(t *testing.T) {
	tests := []struct {
		a, b uint16
		want bool
	}{
		{1, 2, true},
		{2, 1, false},
		{5, 5, false},
		{65535, 0, true},
		{0, 65535, false},
		{65000, 10, true},
		{10, 65000, false},
		{30000, 1000, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, seqBefore(tt.a, tt.b), "%d < %d", tt.a, tt.b)
	}
}

func TestDemuxer_Reorder(t *testing.T) {
	d, rec := newTestDemuxer()
	d.Expect(h264Tag, 3)
	feedAll(t, d, 5, 3, 4, 6)

	assert.Equal(t, []uint32{3, 4, 5, 6}, rec.timestamps())
	sample, ok := d.Stats(h264Tag)
	require.True(t, ok)
	assert.Equal(t, int64(4), sample.Packets)
	assert.Equal(t, int64(4), sample.Delivered)
	assert.Equal(t, int64(1), sample.Reordered)
	assert.Zero(t, sample.Lost)
}

func TestDemuxer_Wraparound(t *testing.T) {
	tests := []struct {
		name   string
		expect uint16
		seqs   []uint16
		want   []uint32
	}{
		{"in order", 65535, []uint16{65535, 0, 1}, []uint32{65535, 0, 1}},
		{"reordered", 65534, []uint16{65534, 0, 65535}, []uint32{65534, 65535, 0}},
		{"across buffer", 65533, []uint16{0, 65535, 65533, 65534}, []uint32{65533, 65534, 65535, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, rec := newTestDemuxer()
			d.Expect(h264Tag, tt.expect)
			feedAll(t, d, tt.seqs...)
			assert.Equal(t, tt.want, rec.timestamps())
		})
	}
}

func TestDemuxer_LossBound(t *testing.T) {
	d, rec := newTestDemuxer()
	d.Expect(h264Tag, 0)
	for seq := uint16(11); seq <= 20; seq++ {
		feedAll(t, d, seq)
	}

	require.NotEmpty(t, rec.batches)
	assert.Equal(t, uint32(11), rec.batches[0].timestamp)
	assert.Len(t, rec.batches, 10)
	sample, _ := d.Stats(h264Tag)
	assert.Equal(t, int64(11), sample.Lost)
}

func TestDemuxer_ForceDeliveryKeepsOrder(t *testing.T) {
	d, rec := newTestDemuxer(WithReorderDepth(3))
	d.Expect(h264Tag, 1)
	feedAll(t, d, 3, 5, 4)

	// 1、2 丢失，3 被强制交付后 4、5 连续
	assert.Equal(t, []uint32{3, 4, 5}, rec.timestamps())
	sample, _ := d.Stats(h264Tag)
	assert.Equal(t, int64(2), sample.Lost)
}

func TestDemuxer_Duplicates(t *testing.T) {
	d, rec := newTestDemuxer(WithReorderDepth(2))
	feedAll(t, d, 100, 101, 100, 102)
	assert.Equal(t, []uint32{100, 101, 102}, rec.timestamps())
	sample, _ := d.Stats(h264Tag)
	assert.Equal(t, int64(1), sample.Duplicates)
	assert.Zero(t, sample.Lost)

	// 发送端回退重启，旧序号进入缓冲后被强制交付
	feedAll(t, d, 10, 11)
	assert.Equal(t, []uint32{100, 101, 102, 10, 11}, rec.timestamps())
	sample, _ = d.Stats(h264Tag)
	assert.Equal(t, int64(5), sample.Delivered)
	assert.Equal(t, int64(65443), sample.Lost) // 103..9
}

func TestDemuxer_SequenceJump(t *testing.T) {
	d, rec := newTestDemuxer()
	d.Expect(h264Tag, 100)
	feedAll(t, d, 40000, 40001, 40002, 40003, 40004, 40005)

	assert.Equal(t, []uint32{40000, 40001, 40002, 40003, 40004, 40005}, rec.timestamps())
	sample, _ := d.Stats(h264Tag)
	assert.Equal(t, int64(39900), sample.Lost)
	assert.Zero(t, sample.Duplicates)
}

type seqPacket struct {
	h FixedHeader
}

func (p *seqPacket) RTPHeader() *FixedHeader { return &p.h }

func TestReorderBuffer_LossRange(t *testing.T) {
	tests := []struct {
		name   string
		expect uint16
		seqs   []uint16
		loss   string
		count  int
		want   []uint16
	}{
		{"single", 5, []uint16{6, 7}, "5", 1, []uint16{6, 7}},
		{"range", 10, []uint16{13, 14}, "10-12", 3, []uint16{13, 14}},
		{"wraparound", 65534, []uint16{1, 2}, "65534-0", 3, []uint16{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rb := reorderBuffer{depth: 2}
			rb.expect(tt.expect)
			var delivered []uint16
			var losses []lossRange
			for _, seq := range tt.seqs {
				rb.push(&seqPacket{FixedHeader{SequenceNumber: seq}},
					func(p MediaPacket) { delivered = append(delivered, seqOf(p)) },
					func(lr lossRange) { losses = append(losses, lr) })
			}
			require.Len(t, losses, 1)
			assert.Equal(t, tt.loss, losses[0].String())
			assert.Equal(t, tt.count, losses[0].count())
			assert.Equal(t, tt.want, delivered)
		})
	}
}

func TestDemuxer_FUA(t *testing.T) {
	d, rec := newTestDemuxer()
	start := FUHeader(3, true, false, 5)
	end := FUHeader(3, false, true, 5)
	require.NoError(t, d.FeedH264(testClient, rtpPacket(1, false, append(start[:], 0xaa, 0xbb)...)))
	require.NoError(t, d.FeedH264(testClient, rtpPacket(2, false, 0x7c, 0x05, 0xcc)))
	require.NoError(t, d.FeedH264(testClient, rtpPacket(3, true, append(end[:], 0xdd)...)))

	require.Len(t, rec.batches, 1)
	assert.Equal(t, [][]byte{{0x65, 0xaa, 0xbb, 0xcc, 0xdd}}, rec.batches[0].units)
	assert.Equal(t, testClient, rec.batches[0].clientID)
	assert.Equal(t, uint32(3), rec.batches[0].timestamp)
}

func TestDemuxer_OrphanFragment(t *testing.T) {
	d, rec := newTestDemuxer()
	end := FUHeader(3, false, true, 5)
	require.NoError(t, d.FeedH264(testClient, rtpPacket(1, false, 0x7c, 0x05, 0xcc)))
	require.NoError(t, d.FeedH264(testClient, rtpPacket(2, true, append(end[:], 0xdd)...)))

	assert.Empty(t, rec.batches)
	sample, _ := d.Stats(h264Tag)
	assert.Equal(t, int64(2), sample.DroppedFragments)
	assert.Zero(t, sample.Flushes)
}

func TestDemuxer_STAPA(t *testing.T) {
	d, rec := newTestDemuxer()
	payload := []byte{0x78, 0x00, 0x02, 0x67, 0x42, 0x00, 0x02, 0x68, 0xce}
	require.NoError(t, d.FeedH264(testClient, rtpPacket(1, true, payload...)))

	require.Len(t, rec.batches, 1)
	assert.Equal(t, [][]byte{{0x67, 0x42}, {0x68, 0xce}}, rec.batches[0].units)
	sample, _ := d.Stats(h264Tag)
	assert.Equal(t, int64(1), sample.Flushes)
	assert.Equal(t, int64(2), sample.Units)
}

func TestDemuxer_BatchUntilMarker(t *testing.T) {
	d, rec := newTestDemuxer()
	require.NoError(t, d.FeedH264(testClient, rtpPacket(1, false, 0x67, 0x42)))
	require.NoError(t, d.FeedH264(testClient, rtpPacket(2, false, 0x68, 0xce)))
	assert.Empty(t, rec.batches)
	require.NoError(t, d.FeedH264(testClient, rtpPacket(3, true, 0x65, 0x88)))

	require.Len(t, rec.batches, 1)
	assert.Len(t, rec.batches[0].units, 3)
}

func TestDemuxer_AAC(t *testing.T) {
	d, rec := newTestDemuxer()
	aacTag := StreamTag{CodecAAC, testClient}

	first := rtpPacket(7, false, 0x00, 0x10, 0x00, 0x08, 0x01)
	second := rtpPacket(8, true, 0x00, 0x20, 0x00, 0x08, 0x00, 0x10, 0x02, 0x03, 0x04)
	require.NoError(t, d.FeedAAC(testClient, first, DefaultAACParams))
	require.NoError(t, d.FeedAAC(testClient, second, DefaultAACParams))

	require.Len(t, rec.batches, 1)
	assert.Equal(t, [][]byte{{0x01}, {0x02}, {0x03, 0x04}}, rec.batches[0].units)
	assert.Equal(t, uint32(8), rec.batches[0].timestamp)

	sample, ok := d.Stats(aacTag)
	require.True(t, ok)
	assert.Equal(t, int64(4), sample.Bytes)

	err := d.FeedAAC(testClient, first, AACParams{})
	assert.ErrorIs(t, err, ErrFormatViolation)
}

func TestDemuxer_StreamsAreIndependent(t *testing.T) {
	d, rec := newTestDemuxer()
	require.NoError(t, d.FeedH264("a", h264Packet(10)))
	require.NoError(t, d.FeedH264("b", h264Packet(500)))
	require.NoError(t, d.FeedH264("a", h264Packet(11)))

	assert.Equal(t, []uint32{10, 500, 11}, rec.timestamps())
	assert.Equal(t, []StreamTag{{CodecH264, "a"}, {CodecH264, "b"}}, d.Tags())
}

func TestDemuxer_Reset(t *testing.T) {
	d, rec := newTestDemuxer()
	feedAll(t, d, 100, 102)
	d.Reset(testClient)
	_, ok := d.Stats(h264Tag)
	assert.False(t, ok)
	assert.Empty(t, d.Tags())

	// 重置后从任意序号开始
	feedAll(t, d, 5)
	assert.Equal(t, []uint32{100, 5}, rec.timestamps())

	d.ResetAll()
	assert.Empty(t, d.Tags())
}

func TestDemuxer_Off(t *testing.T) {
	d := NewDemuxer(WithStats(stats.NewStream()))
	rec := &recorder{}
	id := d.On(EventH264NALUnits, rec.listen)
	other := d.On(EventAACAccessUnits, rec.listen)
	assert.NotEqual(t, id, other)

	assert.True(t, d.Off(EventH264NALUnits, id))
	assert.False(t, d.Off(EventH264NALUnits, id))
	assert.False(t, d.Off(EventH264NALUnits, other))
	feedAll(t, d, 1)
	assert.Empty(t, rec.batches)
}

func TestDemuxer_Control(t *testing.T) {
	total := stats.NewStream()
	d := NewDemuxer(WithStats(total))
	sr := MarshalSenderReport(0x1234, time.Now(), 90000, 10, 1000)
	bye, err := MarshalGoodbye([]uint32{0x1234}, "bye")
	require.NoError(t, err)

	cps, err := d.Control(h264Tag, append(sr, bye...))
	require.NoError(t, err)
	require.Len(t, cps, 2)
	assert.IsType(t, &SenderReport{}, cps[0])
	assert.IsType(t, &Goodbye{}, cps[1])

	sample, _ := d.Stats(h264Tag)
	assert.Equal(t, int64(2), sample.Controls)
	assert.Equal(t, int64(2), total.GetSample().Controls)

	_, err = d.Control(h264Tag, []byte{0x80, TypeSenderReport, 0x00})
	assert.Error(t, err)
}

func TestDemuxer_InvalidPacket(t *testing.T) {
	d, rec := newTestDemuxer()
	err := d.FeedH264(testClient, rtpPacket(1, true, 0x7f))
	assert.ErrorIs(t, err, ErrFormatViolation)
	assert.Empty(t, rec.batches)

	err = d.Feed(testClient, nil)
	assert.Error(t, err)
}
