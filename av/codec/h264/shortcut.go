// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package h264

import "bytes"

// NalType .
func NalType(nt byte) byte {
	return nt & NalTypeBitmask
}

// NalRefIdc returns the 2-bit nal_ref_idc of a NAL header byte.
func NalRefIdc(nt byte) byte {
	return (nt >> 5) & 0x03
}

// IsSps .
func IsSps(nt byte) bool {
	return nt&NalTypeBitmask == NalSps
}

// IsPps .
func IsPps(nt byte) bool {
	return nt&NalTypeBitmask == NalPps
}

// IsIdrSlice .
func IsIdrSlice(nt byte) bool {
	return nt&NalTypeBitmask == NalIdrSlice
}

// IsFillerData .
func IsFillerData(nt byte) bool {
	return nt&NalTypeBitmask == NalFillerData
}

// RemoveNaluSeparator 移除 NALU 分隔符 0x00000001 或 0x000001
func RemoveNaluSeparator(nalu []byte) []byte {
	if bytes.HasPrefix(nalu, []byte{0x0, 0x0, 0x0, 0x1}) {
		return nalu[4:]
	}
	if bytes.HasPrefix(nalu, []byte{0x0, 0x0, 0x1}) {
		return nalu[3:]
	}
	return nalu
}

// RemoveEmulationBytes returns a copy of the NAL unit with the
// emulation_prevention_three_byte (00 00 03) sequences reduced to 00 00.
func RemoveEmulationBytes(nalu []byte) []byte {
	nalu = RemoveNaluSeparator(nalu)
	to := make([]byte, 0, len(nalu))
	zeros := 0
	for _, b := range nalu {
		if zeros >= 2 && b == 0x03 {
			zeros = 0
			continue
		}
		if b == 0 {
			zeros++
		} else {
			zeros = 0
		}
		to = append(to, b)
	}
	return to
}
