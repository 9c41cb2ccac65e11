// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aac

import "github.com/cnotch/rtpcore/utils/bits"

// ADTSHeaderSize 无 CRC 的 ADTS 头长度
const ADTSHeaderSize = 7

// ADTSHeader adts fixed and variable header (ISO 13818-7 6.2)
type ADTSHeader [ADTSHeaderSize]byte

// NewADTSHeader 构造一个 ADTS 头，profile = ObjectType - 1
func NewADTSHeader(profile, sampleRateIdx, channelConfig byte, payloadSize int) ADTSHeader {
	w := bits.NewWriter(ADTSHeaderSize)
	w.AddBits(12, 0xfff)                                     // syncword
	w.AddBits(1, 0)                                          // ID, MPEG-4
	w.AddBits(2, 0)                                          // layer
	w.AddBits(1, 1)                                          // protection_absent
	w.AddBits(2, uint32(profile&0x3))                        // profile
	w.AddBits(4, uint32(sampleRateIdx&0xf))                  // sampling_frequency_index
	w.AddBits(1, 0)                                          // private_bit
	w.AddBits(3, uint32(channelConfig&0x7))                  // channel_configuration
	w.AddBits(4, 0)                                          // original_copy, home, copyright bits
	w.AddBits(13, uint32(payloadSize+ADTSHeaderSize)&0x1fff) // frame_length
	w.FillOnes(11)                                           // adts_buffer_fullness, VBR
	w.AddBits(2, 0)                                          // number_of_raw_data_blocks_in_frame

	var h ADTSHeader
	copy(h[:], w.Bytes())
	return h
}

// ADTSHeader 根据配置为一个 access unit 生成 ADTS 头
func (asc *AudioSpecificConfig) ADTSHeader(payloadSize int) ADTSHeader {
	return NewADTSHeader(asc.ObjectType-1, asc.SamplingIndex, asc.ChannelConfig, payloadSize)
}

// Profile .
func (h ADTSHeader) Profile() uint8 {
	return h[2] >> 6
}

// SamplingIndex .
func (h ADTSHeader) SamplingIndex() uint8 {
	return h[2] >> 2 & 0xf
}

// SampleRate .
func (h ADTSHeader) SampleRate() int {
	return SampleRate(int(h.SamplingIndex()))
}

// ChannelConfig .
func (h ADTSHeader) ChannelConfig() uint8 {
	return (h[2]&0x1)<<2 | h[3]>>6
}

// FrameLength 包括头在内的帧长度
func (h ADTSHeader) FrameLength() int {
	return int(bits.ParseUint(h[:], 30, 13))
}

// PayloadSize .
func (h ADTSHeader) PayloadSize() int {
	return h.FrameLength() - len(h)
}

// ToAsc 转换成 2 字节的 AudioSpecificConfig
func (h ADTSHeader) ToAsc() []byte {
	return Encode2BytesASC(h.Profile()+1, h.SamplingIndex(), h.ChannelConfig())
}
