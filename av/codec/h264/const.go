// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package h264

/*
 * Table 7-1 – NAL unit type codes, syntax element categories, and NAL unit type classes in
 * T-REC-H.264-201704
 */
// H264 NAL 单元类型
const (
	NalUnspecified     = 0
	NalSlice           = 1  // 不分区非IDR图像的片
	NalDpa             = 2  // 片分区A
	NalDpb             = 3  // 片分区B
	NalDpc             = 4  // 片分区C
	NalIdrSlice        = 5  // IDR图像中的片（I帧）
	NalSei             = 6  // 补充增强信息单元
	NalSps             = 7  // 序列参数集
	NalPps             = 8  // 图像参数集
	NalAud             = 9  // 分界符
	NalEndSequence     = 10 // 序列结束
	NalEndStream       = 11 // 码流结束
	NalFillerData      = 12 // 填充
	NalSpsExt          = 13
	NalPrefix          = 14
	NalSubSps          = 15
	NalDps             = 16
	NalAuxiliarySlice  = 19
	NalExtenSlice      = 20
	NalDepthExtenSlice = 21

	// NAL 在 RTP 包中的扩展(RFC 6184)
	NalStapaInRtp  = 24 // 单一时间的组合包
	NalStapbInRtp  = 25 // 单一时间的组合包
	NalMtap16InRtp = 26 // 多个时间的组合包
	NalMtap24InRtp = 27 // 多个时间的组合包
	NalFuAInRtp    = 28 // 分片的单元
	NalFuBInRtp    = 29 // 分片的单元

	NalTypeBitmask = 0x1F
)

// 其他常量
const (
	// A.3: MaxDpbFrames is bounded above by 16.
	MaxDpbFrames = 16
)
