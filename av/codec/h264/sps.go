// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package h264

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/cnotch/rtpcore/utils/bits"
)

// SPS 序列参数集中用于描述画面的部分字段
type SPS struct {
	NalRefIdc         uint8
	ProfileIdc        uint8
	ConstraintFlags   uint8 // constraint_set0..5_flag + reserved_zero_2bits
	LevelIdc          uint8
	SeqParameterSetID uint32
	ChromaFormatIdc   uint32

	Log2MaxFrameNumMinus4 uint32
	PicOrderCntType       uint32
	MaxNumRefFrames       uint32

	PicWidthInMbsMinus1       uint32
	PicHeightInMapUnitsMinus1 uint32
	FrameMbsOnlyFlag          uint8

	FrameCropLeftOffset   uint32
	FrameCropRightOffset  uint32
	FrameCropTopOffset    uint32
	FrameCropBottomOffset uint32

	// VUI timing
	TimingInfoPresentFlag uint8
	NumUnitsInTick        uint32
	TimeScale             uint32
	FixedFrameRateFlag    uint8
}

// Width 视频宽度（像素）
func (sps *SPS) Width() int {
	return int((sps.PicWidthInMbsMinus1+1)*16 - sps.FrameCropLeftOffset*2 - sps.FrameCropRightOffset*2)
}

// Height 视频高度（像素）
func (sps *SPS) Height() int {
	return int((2-uint32(sps.FrameMbsOnlyFlag))*(sps.PicHeightInMapUnitsMinus1+1)*16 -
		sps.FrameCropTopOffset*2 - sps.FrameCropBottomOffset*2)
}

// FrameRate Video frame rate
func (sps *SPS) FrameRate() float64 {
	if sps.NumUnitsInTick == 0 {
		return 0.0
	}
	return float64(sps.TimeScale) / float64(sps.NumUnitsInTick*2)
}

// IsFixedFrameRate 是否固定帧率
func (sps *SPS) IsFixedFrameRate() bool {
	return sps.FixedFrameRateFlag == 1
}

// DecodeString 从 base64 字串解码 sps NAL
func (sps *SPS) DecodeString(b64 string) error {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return err
	}
	return sps.Decode(data)
}

// spsReader keeps the first read error so the syntax can be read straight through.
type spsReader struct {
	r   *bits.Reader
	err error
}

func (sr *spsReader) u(n int) uint32 {
	if sr.err != nil {
		return 0
	}
	v, err := sr.r.ReadBits(n)
	sr.err = err
	return v
}

func (sr *spsReader) flag() uint8 { return uint8(sr.u(1)) }

func (sr *spsReader) ue() uint32 {
	if sr.err != nil {
		return 0
	}
	v, err := sr.r.ReadUe()
	sr.err = err
	return v
}

func (sr *spsReader) se() int32 {
	if sr.err != nil {
		return 0
	}
	v, err := sr.r.ReadSe()
	sr.err = err
	return v
}

// Decode 从字节序列中解码 sps NAL，解析到 VUI 的时间信息为止
func (sps *SPS) Decode(data []byte) error {
	rbsp := RemoveEmulationBytes(data)
	if len(rbsp) < 4 {
		return errors.New("h264: the data is not enough")
	}
	if rbsp[0]&0x80 != 0 {
		return errors.New("h264: forbidden_zero_bit is not zero")
	}
	if NalType(rbsp[0]) != NalSps {
		return fmt.Errorf("h264: nal_unit_type %d is not sps", NalType(rbsp[0]))
	}

	sr := &spsReader{r: bits.NewReader(rbsp[1:])}
	sps.NalRefIdc = NalRefIdc(rbsp[0])
	sps.ProfileIdc = uint8(sr.u(8))
	sps.ConstraintFlags = uint8(sr.u(8))
	sps.LevelIdc = uint8(sr.u(8))
	sps.SeqParameterSetID = sr.ue()

	sps.ChromaFormatIdc = 1
	switch sps.ProfileIdc {
	case 100, 110, 122, 244, 44, 83, 86, 118, 128, 138, 139, 134, 135:
		sps.ChromaFormatIdc = sr.ue()
		if sps.ChromaFormatIdc == 3 {
			sr.flag() // separate_colour_plane_flag
		}
		sr.ue()   // bit_depth_luma_minus8
		sr.ue()   // bit_depth_chroma_minus8
		sr.flag() // qpprime_y_zero_transform_bypass_flag
		if sr.flag() == 1 { // seq_scaling_matrix_present_flag
			count := 8
			if sps.ChromaFormatIdc == 3 {
				count = 12
			}
			for i := 0; i < count; i++ {
				if sr.flag() == 1 {
					size := 16
					if i >= 6 {
						size = 64
					}
					sr.skipScalingList(size)
				}
			}
		}
	case 183:
		sps.ChromaFormatIdc = 0
	}

	sps.Log2MaxFrameNumMinus4 = sr.ue()
	sps.PicOrderCntType = sr.ue()
	switch sps.PicOrderCntType {
	case 0:
		sr.ue() // log2_max_pic_order_cnt_lsb_minus4
	case 1:
		sr.flag() // delta_pic_order_always_zero_flag
		sr.se()   // offset_for_non_ref_pic
		sr.se()   // offset_for_top_to_bottom_field
		cycle := sr.ue()
		for i := uint32(0); i < cycle && sr.err == nil; i++ {
			sr.se() // offset_for_ref_frame
		}
	}

	sps.MaxNumRefFrames = sr.ue()
	sr.flag() // gaps_in_frame_num_value_allowed_flag
	sps.PicWidthInMbsMinus1 = sr.ue()
	sps.PicHeightInMapUnitsMinus1 = sr.ue()
	sps.FrameMbsOnlyFlag = sr.flag()
	if sps.FrameMbsOnlyFlag == 0 {
		sr.flag() // mb_adaptive_frame_field_flag
	}
	sr.flag() // direct_8x8_inference_flag

	if sr.flag() == 1 { // frame_cropping_flag
		sps.FrameCropLeftOffset = sr.ue()
		sps.FrameCropRightOffset = sr.ue()
		sps.FrameCropTopOffset = sr.ue()
		sps.FrameCropBottomOffset = sr.ue()
	}

	if sr.flag() == 1 { // vui_parameters_present_flag
		sps.decodeVuiTiming(sr)
	}
	if sr.err != nil {
		return fmt.Errorf("h264: decode sps: %w", sr.err)
	}
	return nil
}

func (sr *spsReader) skipScalingList(size int) {
	last, next := int32(8), int32(8)
	for j := 0; j < size && sr.err == nil; j++ {
		if next != 0 {
			delta := sr.se()
			next = (last + delta + 256) % 256
		}
		if next != 0 {
			last = next
		}
	}
}

func (sps *SPS) decodeVuiTiming(sr *spsReader) {
	if sr.flag() == 1 { // aspect_ratio_info_present_flag
		if sr.u(8) == 255 { // Extended_SAR
			sr.u(16)
			sr.u(16)
		}
	}
	if sr.flag() == 1 { // overscan_info_present_flag
		sr.flag()
	}
	if sr.flag() == 1 { // video_signal_type_present_flag
		sr.u(3)
		sr.flag()
		if sr.flag() == 1 { // colour_description_present_flag
			sr.u(24)
		}
	}
	if sr.flag() == 1 { // chroma_loc_info_present_flag
		sr.ue()
		sr.ue()
	}
	sps.TimingInfoPresentFlag = sr.flag()
	if sps.TimingInfoPresentFlag == 1 {
		sps.NumUnitsInTick = sr.u(32)
		sps.TimeScale = sr.u(32)
		sps.FixedFrameRateFlag = sr.flag()
	}
}
