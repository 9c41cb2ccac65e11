// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aac

import (
	"encoding/hex"
	"fmt"

	"github.com/cnotch/rtpcore/utils/bits"
)

// AudioSpecificConfig 是 SDP fmtp 中 config= 参数携带的解码配置(ISO 14496-3 1.6.2.1)
type AudioSpecificConfig struct {
	ObjectType       uint8
	SamplingIndex    uint8
	SampleRate       int
	ChannelConfig    uint8
	Channels         uint8
	Sbr              int // -1 implicit, 1 presence
	ExtObjectType    uint8
	ExtSamplingIndex uint8
	ExtSampleRate    int
}

// DecodeString 从 hex 字串解码
func (asc *AudioSpecificConfig) DecodeString(config string) error {
	data, err := hex.DecodeString(config)
	if err != nil {
		return err
	}
	return asc.Decode(data)
}

type ascReader struct {
	r   *bits.Reader
	err error
}

func (ar *ascReader) u(n int) uint32 {
	if ar.err != nil {
		return 0
	}
	v, err := ar.r.ReadBits(n)
	ar.err = err
	return v
}

func (ar *ascReader) objectType() uint8 {
	objType := uint8(ar.u(5))
	if objType == AOT_ESCAPE {
		objType = uint8(ar.u(6)) + 32
	}
	return objType
}

func (ar *ascReader) sampleRate() (idx uint8, rate int) {
	idx = uint8(ar.u(4))
	if idx == 0xf {
		rate = int(ar.u(24))
	} else {
		rate = SampleRate(int(idx))
	}
	return
}

// Decode 从字节序列中解码
func (asc *AudioSpecificConfig) Decode(config []byte) error {
	ar := &ascReader{r: bits.NewReader(config)}

	asc.ObjectType = ar.objectType()
	asc.SamplingIndex, asc.SampleRate = ar.sampleRate()
	asc.ChannelConfig = uint8(ar.u(4))
	if int(asc.ChannelConfig) < len(aacAudioChannels) {
		asc.Channels = aacAudioChannels[asc.ChannelConfig]
	}
	asc.Sbr = -1
	asc.ExtObjectType = AOT_NULL
	asc.ExtSampleRate = 0

	if asc.ObjectType == AOT_SBR || asc.ObjectType == AOT_PS {
		// explicit hierarchical signaling
		asc.ExtObjectType = AOT_SBR
		asc.Sbr = 1
		asc.ExtSamplingIndex, asc.ExtSampleRate = ar.sampleRate()
		asc.ObjectType = ar.objectType()
		if asc.ObjectType == AOT_ER_BSAC {
			ar.u(4) // extensionChannelConfiguration
		}
	} else {
		// backward compatible signaling: look for the sync extension
		for ar.err == nil && ar.r.BitsLeft() > 15 {
			ar.r.Push()
			sync := ar.u(11)
			if sync != 0x2b7 {
				ar.r.Pop()
				ar.u(1)
				continue
			}
			asc.ExtObjectType = ar.objectType()
			if asc.ExtObjectType == AOT_SBR {
				asc.Sbr = int(ar.u(1))
				if asc.Sbr == 1 {
					asc.ExtSamplingIndex, asc.ExtSampleRate = ar.sampleRate()
					if asc.ExtSampleRate == asc.SampleRate {
						asc.Sbr = -1
					}
				}
			}
			break
		}
	}

	if ar.err != nil {
		return fmt.Errorf("aac: decode AudioSpecificConfig: %w", ar.err)
	}
	if asc.SampleRate == 0 {
		return fmt.Errorf("aac: invalid sampling index %d", asc.SamplingIndex)
	}
	return nil
}

// OutputSampleRate 返回解码后的输出采样率（SBR 存在时为扩展采样率）
func (asc *AudioSpecificConfig) OutputSampleRate() int {
	if asc.ExtSampleRate > 0 && asc.Sbr == 1 {
		return asc.ExtSampleRate
	}
	return asc.SampleRate
}

// Encode2BytesASC 编码最常见的 2 字节 AudioSpecificConfig
func Encode2BytesASC(objType, samplingIdx, channelConfig byte) []byte {
	var config = make([]byte, 2)
	config[0] = objType<<3 | (samplingIdx>>1)&0x07
	config[1] = samplingIdx<<7 | (channelConfig&0x0f)<<3
	return config
}
