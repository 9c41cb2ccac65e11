// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rtp

import (
	"errors"
	"fmt"
	"time"

	"github.com/cnotch/rtpcore/utils/bits"
)

// 编码限制
const (
	maxSources      = 0x1f
	maxReasonLength = 0xff
)

// MarshalSenderReport 编码不含接收报告块的 SR
func MarshalSenderReport(ssrc uint32, t time.Time, rtpTime, packetCount, octetCount uint32) []byte {
	const length = 6 // 28 bytes / 4 - 1
	sec, frac := ToNTP(t)

	w := bits.NewWriter(28)
	w.AddBits(2, Version)
	w.AddBit(0) // padding
	w.AddBits(5, 0)
	w.AddBits(8, TypeSenderReport)
	w.AddBits(16, length)
	for _, v := range []uint32{ssrc, sec, frac, rtpTime, packetCount, octetCount} {
		w.AddBits(32, v)
	}
	return w.Bytes()
}

// MarshalGoodbye 编码 BYE，原因文本后以 0 填充到 32 位边界
func MarshalGoodbye(sources []uint32, reason string) ([]byte, error) {
	if len(sources) == 0 {
		return nil, errors.New("rtp: goodbye requires at least one ssrc")
	}
	if len(sources) > maxSources {
		return nil, fmt.Errorf("rtp: too many ssrcs: %d (must be <= %d)", len(sources), maxSources)
	}
	if len(reason) > maxReasonLength {
		return nil, fmt.Errorf("rtp: goodbye reason is too long: %d (must be <= %d)", len(reason), maxReasonLength)
	}

	padLen := 0
	reasonSize := 0
	if len(reason) > 0 {
		reasonSize = 1 + len(reason)
		padLen = (4 - reasonSize%4) % 4
	}
	size := 4 + len(sources)*4 + reasonSize + padLen

	w := bits.NewWriter(size)
	w.AddBits(2, Version)
	w.AddBit(0)
	w.AddBits(5, uint32(len(sources)))
	w.AddBits(8, TypeGoodbye)
	w.AddBits(16, uint32(size/4-1))
	for _, ssrc := range sources {
		w.AddBits(32, ssrc)
	}
	if reasonSize > 0 {
		w.AddBits(8, uint32(len(reason)))
		w.AddBytes([]byte(reason))
		for ; padLen > 0; padLen-- {
			w.AddBits(8, 0)
		}
	}
	return w.Bytes(), nil
}
