// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package sdp 从会话描述中提取解包所需的参数
package sdp

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/cnotch/rtpcore/av/codec/aac"
	"github.com/cnotch/rtpcore/av/codec/h264"
	"github.com/cnotch/rtpcore/av/format/rtp"
	"github.com/cnotch/rtpcore/utils/scan"
	"github.com/pixelbender/go-sdp/sdp"
)

// 默认时钟频率
const (
	DefaultVideoClockRate = 90000
	DefaultAudioClockRate = 44100
)

// VideoMeta 视频媒体描述
type VideoMeta struct {
	Codec     string
	ClockRate int
	DataRate  float64 // kbps
	Control   string
	Sps       []byte
	Pps       []byte
	Width     int
	Height    int
	FrameRate float64
}

// AudioMeta 音频媒体描述
type AudioMeta struct {
	Codec      string
	ClockRate  int
	Channels   int
	DataRate   float64 // kbps
	Control    string
	Config     []byte // AudioSpecificConfig
	SampleRate int
	Params     rtp.AACParams
}

// Metadata 会话中的音视频描述，不存在的媒体 Codec 为空
type Metadata struct {
	Video VideoMeta
	Audio AudioMeta
}

// HasVideo .
func (m *Metadata) HasVideo() bool { return m.Video.Codec != "" }

// HasAudio .
func (m *Metadata) HasAudio() bool { return m.Audio.Codec != "" }

// Parse 解析 SDP 文本
func Parse(rawsdp string) (*Metadata, error) {
	session, err := sdp.ParseString(rawsdp)
	if err != nil {
		return nil, err
	}

	meta := new(Metadata)
	for _, media := range session.Media {
		if len(media.Format) == 0 {
			continue
		}
		format := media.Format[0]
		var dataRate float64
		for _, bw := range media.Bandwidth {
			if bw.Type == "AS" {
				dataRate = float64(bw.Value)
			}
		}

		switch media.Type {
		case "video":
			if meta.HasVideo() {
				continue
			}
			meta.Video.DataRate = dataRate
			meta.Video.Control = media.Attributes.Get("control")
			if err = parseVideoMeta(format, &meta.Video); err != nil {
				return nil, err
			}
		case "audio":
			if meta.HasAudio() {
				continue
			}
			meta.Audio.DataRate = dataRate
			meta.Audio.Control = media.Attributes.Get("control")
			if err = parseAudioMeta(format, &meta.Audio); err != nil {
				return nil, err
			}
		}
	}
	return meta, nil
}

func fmtpParams(f *sdp.Format) map[string]string {
	return scan.Semicolon.Pairs(strings.Join(f.Params, ";"), scan.EqualPair)
}

func parseVideoMeta(f *sdp.Format, video *VideoMeta) error {
	video.Codec = strings.ToUpper(f.Name)
	video.ClockRate = DefaultVideoClockRate
	if f.ClockRate > 0 {
		video.ClockRate = f.ClockRate
	}
	if video.Codec != "H264" {
		return nil
	}

	sprop, ok := fmtpParams(f)["sprop-parameter-sets"]
	if !ok {
		return nil
	}
	for _, ps := range scan.Comma.Split(sprop) {
		nalu, err := base64.StdEncoding.DecodeString(ps)
		if err != nil || len(nalu) == 0 {
			// 部分设备填写无效的参数集，忽略
			continue
		}
		nalu = h264.RemoveNaluSeparator(nalu)
		switch {
		case h264.IsSps(nalu[0]):
			video.Sps = nalu
		case h264.IsPps(nalu[0]):
			video.Pps = nalu
		}
	}

	if len(video.Sps) > 0 {
		var sps h264.SPS
		if err := sps.Decode(video.Sps); err != nil {
			return fmt.Errorf("sdp: decode sps: %w", err)
		}
		video.Width = sps.Width()
		video.Height = sps.Height()
		video.FrameRate = sps.FrameRate()
	}
	return nil
}

func parseAudioMeta(f *sdp.Format, audio *AudioMeta) error {
	audio.Codec = strings.ToUpper(f.Name)
	if audio.Codec == "MPEG4-GENERIC" {
		audio.Codec = "AAC"
	}
	audio.ClockRate = DefaultAudioClockRate
	if f.ClockRate > 0 {
		audio.ClockRate = f.ClockRate
	}
	audio.SampleRate = audio.ClockRate
	audio.Channels = 1
	if f.Channels > 0 {
		audio.Channels = f.Channels
	}
	if audio.Codec != "AAC" {
		return nil
	}

	params := fmtpParams(f)
	var err error
	lengths := []struct {
		name string
		v    *int
	}{
		{"sizelength", &audio.Params.SizeLength},
		{"indexlength", &audio.Params.IndexLength},
		{"indexdeltalength", &audio.Params.IndexDeltaLength},
	}
	for _, l := range lengths {
		s, ok := params[l.name]
		if !ok {
			continue
		}
		if *l.v, err = strconv.Atoi(s); err != nil {
			return fmt.Errorf("sdp: invalid %s %q", l.name, s)
		}
	}

	if config, ok := params["config"]; ok {
		if audio.Config, err = hex.DecodeString(config); err != nil {
			return fmt.Errorf("sdp: invalid aac config %q", config)
		}
	} else {
		// 没有 config 时根据 rtpmap 生成 AAC-LC 配置
		idx := aac.SamplingIndex(audio.ClockRate)
		if idx < 0 {
			return fmt.Errorf("sdp: unsupported aac sample rate %d", audio.ClockRate)
		}
		audio.Config = aac.Encode2BytesASC(2, byte(idx), byte(audio.Channels))
	}

	var asc aac.AudioSpecificConfig
	if err = asc.Decode(audio.Config); err != nil {
		return fmt.Errorf("sdp: decode aac config: %w", err)
	}
	audio.SampleRate = asc.OutputSampleRate()
	if asc.Channels > 0 {
		audio.Channels = int(asc.Channels)
	}
	return nil
}
