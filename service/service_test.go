// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package service

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cnotch/rtpcore/av/codec/aac"
	"github.com/cnotch/rtpcore/av/format/rtp"
	"github.com/cnotch/xlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mediaPacket(channel byte, seq uint16, payload ...byte) *rtp.Packet {
	h := rtp.FixedHeader{Marker: true, PayloadType: 96, SequenceNumber: seq, Timestamp: uint32(seq) * 3000}
	return &rtp.Packet{Channel: channel, Data: append(h.Marshal(), payload...)}
}

func writeCapture(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	packets := []*rtp.Packet{
		mediaPacket(rtp.ChannelVideo, 1, 0x67, 0x42),
		mediaPacket(rtp.ChannelVideo, 3, 0x41, 0x03),
		mediaPacket(rtp.ChannelVideo, 2, 0x65, 0x02),
		mediaPacket(rtp.ChannelAudio, 9, 0x00, 0x10, 0x00, 0x10, 0xaa, 0xbb),
		{Channel: rtp.ChannelVideoControl, Data: rtp.MarshalSenderReport(1, time.Now(), 0, 3, 6)},
	}
	for _, p := range packets {
		require.NoError(t, p.Write(f, rtp.DefaultChannelConfig))
	}
}

func TestService_Replay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cam1.rtp")
	writeCapture(t, path)

	s, err := NewService(context.Background(), xlog.L())
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.replay(context.Background(), path))

	sample, ok := s.capture("cam1")
	require.True(t, ok)
	assert.Equal(t, int64(4), sample.Packets)
	assert.Equal(t, int64(4), sample.Delivered)
	assert.Equal(t, int64(1), sample.Reordered)
	assert.Equal(t, int64(4), sample.Flushes)
	assert.Equal(t, int64(1), sample.Controls)
	assert.Zero(t, sample.Lost)

	// 统计 API
	srv := httptest.NewServer(s.http.Handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/streams/cam1")
	require.NoError(t, err)
	var info CaptureInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	resp.Body.Close()
	assert.Equal(t, "cam1", info.Name)
	assert.Equal(t, sample, info.Stats)

	resp, err = http.Get(srv.URL + "/api/v1/streams")
	require.NoError(t, err)
	var sum Summary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sum))
	resp.Body.Close()
	require.Len(t, sum.Captures, 1)
	assert.Equal(t, sample, sum.Total)

	resp, err = http.Get(srv.URL + "/api/v1/streams/none")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/v1/runtime")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestService_ReplayErrors(t *testing.T) {
	s, err := NewService(context.Background(), xlog.L())
	require.NoError(t, err)
	defer s.Close()

	assert.Error(t, s.replay(context.Background(), filepath.Join(t.TempDir(), "missing.rtp")))

	path := filepath.Join(t.TempDir(), "bad.rtp")
	require.NoError(t, ioutil.WriteFile(path, []byte{'#', 0, 0, 0}, 0644))
	assert.ErrorIs(t, s.replay(context.Background(), path), rtp.ErrInvalidPrefix)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	good := filepath.Join(t.TempDir(), "good.rtp")
	writeCapture(t, good)
	assert.ErrorIs(t, s.replay(ctx, good), context.Canceled)
}

func TestESWriter(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "out")
	asc := new(aac.AudioSpecificConfig)
	require.NoError(t, asc.Decode([]byte{0x12, 0x10}))
	w, err := newESWriter(prefix, asc, xlog.L())
	require.NoError(t, err)

	d := rtp.NewDemuxer()
	w.attach(d)
	require.NoError(t, d.FeedH264("c", mediaPacket(rtp.ChannelVideo, 1, 0x65, 0x88).Data))
	require.NoError(t, d.FeedAAC("c", mediaPacket(rtp.ChannelAudio, 1, 0x00, 0x10, 0x00, 0x10, 0xaa, 0xbb).Data, rtp.DefaultAACParams))
	require.NoError(t, w.Close())

	video, err := ioutil.ReadFile(prefix + ".h264")
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 1, 0x65, 0x88}, video)

	audio, err := ioutil.ReadFile(prefix + ".aac")
	require.NoError(t, err)
	require.Len(t, audio, aac.ADTSHeaderSize+2)
	hdr := aac.ADTSHeader{}
	copy(hdr[:], audio)
	assert.Equal(t, 2, hdr.PayloadSize())
	assert.Equal(t, 44100, hdr.SampleRate())
	assert.Equal(t, []byte{0xaa, 0xbb}, audio[aac.ADTSHeaderSize:])
}

func TestCaptureName(t *testing.T) {
	assert.Equal(t, "cam1", captureName("/data/cam1.rtp"))
	assert.Equal(t, "cam.2", captureName("cam.2.rtp"))
	assert.Equal(t, "raw", captureName("raw"))
}
