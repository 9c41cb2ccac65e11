// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAudioSpecificConfig_DecodeString(t *testing.T) {
	tests := []struct {
		name       string
		config     string
		wantErr    bool
		objectType uint8
		sampleRate int
		channels   uint8
	}{
		{"case1", "121056E500", false, 2, 44100, 2},
		{"case2", "1190", false, 2, 48000, 2},
		{"case3", "1408", false, 2, 16000, 1},
		{"short", "12", true, 2, 0, 0},
		{"badhex", "1z", true, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var asc AudioSpecificConfig
			err := asc.DecodeString(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.objectType, asc.ObjectType)
			assert.Equal(t, tt.sampleRate, asc.SampleRate)
			assert.Equal(t, tt.channels, asc.Channels)
		})
	}
}

func TestSamplingIndex(t *testing.T) {
	assert.Equal(t, 3, SamplingIndex(48000))
	assert.Equal(t, 12, SamplingIndex(7350))
	assert.Equal(t, -1, SamplingIndex(12345))
	assert.Equal(t, 0, SampleRate(15))
	assert.Equal(t, 0, SampleRate(-1))
}

func TestNewADTSHeader(t *testing.T) {
	tests := []struct {
		name          string
		profile       byte
		sampleRateIdx byte
		channelConfig byte
		payloadSize   int
	}{
		{"case1", 1, 4, 2, 200},
		{"case2", 2, 3, 4, 5345},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewADTSHeader(tt.profile, tt.sampleRateIdx, tt.channelConfig, tt.payloadSize)
			assert.Equal(t, byte(0xff), got[0])
			assert.Equal(t, byte(0xf1), got[1])
			assert.Equal(t, tt.profile, got.Profile())
			assert.Equal(t, tt.sampleRateIdx, got.SamplingIndex())
			assert.Equal(t, tt.channelConfig, got.ChannelConfig())
			assert.Equal(t, tt.payloadSize, got.PayloadSize())

			var asc AudioSpecificConfig
			require.NoError(t, asc.Decode(got.ToAsc()))
			assert.Equal(t, tt.profile, asc.ObjectType-1)
			assert.Equal(t, tt.sampleRateIdx, asc.SamplingIndex)
			assert.Equal(t, tt.channelConfig, asc.ChannelConfig)
		})
	}
}

func TestAudioSpecificConfig_ADTSHeader(t *testing.T) {
	var asc AudioSpecificConfig
	require.NoError(t, asc.DecodeString("1190"))
	h := asc.ADTSHeader(100)
	assert.Equal(t, 48000, h.SampleRate())
	assert.Equal(t, 107, h.FrameLength())
}
