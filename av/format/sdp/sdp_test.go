// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sdp

import (
	"testing"

	"github.com/cnotch/rtpcore/av/format/rtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sdpRaw = `v=0
o=- 0 0 IN IP4 127.0.0.1
s=No Name
c=IN IP4 127.0.0.1
t=0 0
a=tool:libavformat 58.20.100
m=video 0 RTP/AVP 96
b=AS:2500
a=rtpmap:96 H264/90000
a=fmtp:96 packetization-mode=1; sprop-parameter-sets=Z2QAH6zZQFAFuhAAAAMAEAAAAwPI8YMZYA==,aO+8sA==; profile-level-id=64001F
a=control:streamid=0
m=audio 0 RTP/AVP 97
b=AS:160
a=rtpmap:97 MPEG4-GENERIC/44100/2
a=fmtp:97 profile-level-id=1;mode=AAC-hbr;sizelength=13;indexlength=3;indexdeltalength=3; config=121056E500
a=control:streamid=1
`

// 无效的 sprop-parameter-sets
const sdpRawBadSprop = `v=0
o=- 946684871882903 1 IN IP4 192.168.1.154
s=RTSP/RTP stream from IPNC
t=0 0
a=control:*
m=video 16666 RTP/AVP 96
c=IN IP4 232.248.88.236/255
a=rtpmap:96 H264/90000
a=fmtp:96 packetization-mode=1;profile-level-id=EE3CB0;sprop-parameter-sets=H264
a=control:track2
`

const sdpRawNoConfig = `v=0
o=- 0 0 IN IP4 127.0.0.1
s=No Name
t=0 0
m=audio 0 RTP/AVP 97
a=rtpmap:97 MPEG4-GENERIC/16000/1
a=fmtp:97 mode=AAC-hbr;sizelength=13;indexlength=3
`

func TestParse(t *testing.T) {
	meta, err := Parse(sdpRaw)
	require.NoError(t, err)
	require.True(t, meta.HasVideo())
	require.True(t, meta.HasAudio())

	video := meta.Video
	assert.Equal(t, "H264", video.Codec)
	assert.Equal(t, 90000, video.ClockRate)
	assert.Equal(t, float64(2500), video.DataRate)
	assert.Equal(t, "streamid=0", video.Control)
	assert.Equal(t, 1280, video.Width)
	assert.Equal(t, 720, video.Height)
	assert.Equal(t, float64(30), video.FrameRate)
	assert.Equal(t, byte(0x67), video.Sps[0])
	assert.Equal(t, byte(0x68), video.Pps[0])

	audio := meta.Audio
	assert.Equal(t, "AAC", audio.Codec)
	assert.Equal(t, 44100, audio.ClockRate)
	assert.Equal(t, 44100, audio.SampleRate)
	assert.Equal(t, 2, audio.Channels)
	assert.Equal(t, "streamid=1", audio.Control)
	assert.Equal(t, []byte{0x12, 0x10, 0x56, 0xe5, 0x00}, audio.Config)
	assert.Equal(t, rtp.DefaultAACParams, audio.Params)
}

func TestParse_BadSprop(t *testing.T) {
	meta, err := Parse(sdpRawBadSprop)
	require.NoError(t, err)
	assert.Equal(t, "H264", meta.Video.Codec)
	assert.Empty(t, meta.Video.Sps)
	assert.Zero(t, meta.Video.Width)
	assert.Equal(t, "track2", meta.Video.Control)
}

func TestParse_NoConfig(t *testing.T) {
	meta, err := Parse(sdpRawNoConfig)
	require.NoError(t, err)
	assert.False(t, meta.HasVideo())
	audio := meta.Audio
	assert.Equal(t, 16000, audio.SampleRate)
	assert.Equal(t, 1, audio.Channels)
	assert.Equal(t, []byte{0x14, 0x08}, audio.Config)
	// 缺少 indexdeltalength，解析 AAC 载荷时由解包器报告
	assert.Equal(t, rtp.AACParams{SizeLength: 13, IndexLength: 3}, audio.Params)
}
