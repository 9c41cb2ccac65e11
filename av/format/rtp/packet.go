// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rtp

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/pion/rtp"
)

const (
	// TransferPrefix RTP 包交织传输时的前缀
	TransferPrefix = byte(0x24) // $
)

// 预定义 RTP 通道类型
const (
	ChannelVideo        = iota // 视频通道
	ChannelVideoControl        // 视频控制通道
	ChannelAudio               // 音频通道
	ChannelAudioControl        // 音频控制通道
	ChannelCount               // 支持的 RTP 通道类型数量
)

// 交织帧错误
var (
	ErrInvalidPrefix  = errors.New("rtp: interleaved frame must start with `$`")
	ErrIllegalChannel = errors.New("rtp: illegal interleaved channel")
)

// DefaultChannelConfig 默认的通道配置，下标为通道类型，值为交织通道号
var DefaultChannelConfig = []int{
	ChannelVideo,
	ChannelVideoControl,
	ChannelAudio,
	ChannelAudioControl,
}

// ChannelName 通道名
func ChannelName(channel int) string {
	switch channel {
	case ChannelAudio:
		return "audio"
	case ChannelVideo:
		return "video"
	case ChannelAudioControl:
		return "audio control"
	case ChannelVideoControl:
		return "video control"
	}
	return "unknow"
}

// Packet 交织传输的 RTP/RTCP 数据包
type Packet struct {
	Channel    byte   // 通道类型
	Data       []byte // 完整的 RTP 或 RTCP 数据
	rtp.Header        // 媒体通道的 RTP 头
}

// PacketWriter 包装 WriteRtpPacket 方法的接口
type PacketWriter interface {
	WriteRtpPacket(packet *Packet) error
}

// IsControl 是否控制通道的包
func (p *Packet) IsControl() bool {
	return p.Channel == ChannelVideoControl || p.Channel == ChannelAudioControl
}

// ReadPacket 从 r 中读取一个交织帧: '$' channel(8) length(16) data.
// channelConfig 提供通道类型所在通道的配置信息
func ReadPacket(r *bufio.Reader, channelConfig []int) (*Packet, error) {
	var prefix [4]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, err
	}
	if prefix[0] != TransferPrefix {
		return nil, ErrInvalidPrefix
	}

	channel := int(prefix[1])
	data := make([]byte, binary.BigEndian.Uint16(prefix[2:]))
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}

	for i, v := range channelConfig {
		if v != channel {
			continue
		}
		p := &Packet{Channel: byte(i), Data: data}
		if !p.IsControl() {
			if err := p.Header.Unmarshal(p.Data); err != nil {
				return nil, fmt.Errorf("rtp: channel %d: %w", channel, err)
			}
		}
		return p, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrIllegalChannel, channel)
}

// Write 将包以交织帧输出到 w
func (p *Packet) Write(w io.Writer, channelConfig []int) error {
	if int(p.Channel) >= ChannelCount || int(p.Channel) >= len(channelConfig) {
		return fmt.Errorf("%w: type %d", ErrIllegalChannel, p.Channel)
	}

	ch := channelConfig[p.Channel]
	if ch < 0 || ch > 255 { // 可能是未订阅，忽略
		return nil
	}

	var prefix [4]byte
	prefix[0] = TransferPrefix
	prefix[1] = byte(ch)
	binary.BigEndian.PutUint16(prefix[2:], uint16(len(p.Data)))
	if _, err := w.Write(prefix[:]); err != nil {
		return err
	}
	_, err := w.Write(p.Data)
	return err
}

// Size 包在交织传输中的总大小
func (p *Packet) Size() int {
	return len(p.Data) + 4
}
