// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aac

import "sort"

const (
	// SamplesPerFrame 每帧采样数
	SamplesPerFrame = 1024
)

// Auido Object Type, only the ones the decoder inspects.
const (
	AOT_NULL     = 0
	AOT_AAC_MAIN = 1 // Main
	AOT_AAC_LC   = 2 // Low Complexity
	AOT_AAC_SSR  = 3 // Scalable Sample Rate
	AOT_AAC_LTP  = 4 // Long Term Prediction
	AOT_SBR      = 5 // Spectral Band Replication HE-AAC
	AOT_ER_BSAC  = 22
	AOT_PS       = 29 // Parametric Stereo
	AOT_ESCAPE   = 31 // Escape Value
)

// SampleRate 获取采用频率具体值
func SampleRate(index int) int {
	if index < 0 || index >= len(SampleRates) {
		return 0
	}
	return SampleRates[index]
}

// SamplingIndex 返回采样频率的索引，不支持的频率返回 -1
func SamplingIndex(rate int) int {
	i := sort.Search(13, func(i int) bool { return SampleRates[i] <= rate })
	if i < 13 && SampleRates[i] == rate {
		return i
	}
	return -1
}

// SampleRates 采用频率集合
var SampleRates = [16]int{
	96000, 88200, 64000, 48000,
	44100, 32000, 24000, 22050,
	16000, 12000, 11025, 8000,
	7350}

// channel_configuration -> channels; 0 is defined in the stream itself
var aacAudioChannels = [8]uint8{
	0, 1, 2, 3,
	4, 5, 6, 8,
}
