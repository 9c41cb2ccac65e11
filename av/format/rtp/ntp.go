// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rtp

import "time"

// 1900-01-01 到 1970-01-01 的秒数
const jan1970 = 0x83aa7e80

// NTPTime 将 NTP 时间戳（秒，1/2^32 秒）转换为时间
func NTPTime(sec, frac uint32) time.Time {
	nsec := (int64(frac) * int64(time.Second)) >> 32
	return time.Unix(int64(sec)-jan1970, nsec)
}

// ToNTP 将时间转换为 NTP 时间戳
func ToNTP(t time.Time) (sec, frac uint32) {
	sec = uint32(t.Unix() + jan1970)
	nsec := uint64(t.Nanosecond())
	frac = uint32(((nsec << 32) + uint64(time.Second)/2) / uint64(time.Second))
	return
}

// NTPTimestamp 64 位 NTP 时间戳
func NTPTimestamp(t time.Time) uint64 {
	sec, frac := ToNTP(t)
	return uint64(sec)<<32 | uint64(frac)
}
