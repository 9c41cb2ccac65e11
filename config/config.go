// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"flag"

	"github.com/cnotch/rtpcore/av/format/rtp"
)

// config 工具配置
type config struct {
	ReorderDepth  int       `json:"reorder_depth"`    // 乱序缓冲深度
	Strict        bool      `json:"strict"`           // 越过声明边界的读取作为错误
	SdpFile       string    `json:"sdp,omitempty"`    // 描述捕获文件的 SDP
	Rate          int       `json:"rate"`             // 每秒回放的包数，0 不限速
	ListenAddr    string    `json:"listen,omitempty"` // 统计 API 的侦听地址
	StatsInterval int       `json:"stats_interval"`   // 周期输出统计的间隔（秒），0 不输出
	OutputDir     string    `json:"output,omitempty"` // 重组后的基本流输出目录
	Log           LogConfig `json:"log"`              // 日志配置
}

func (c *config) initFlags() {
	flag.IntVar(&c.ReorderDepth, "reorder-depth", rtp.DefaultReorderDepth,
		"Set the depth of the reorder buffer")
	flag.BoolVar(&c.Strict, "strict", false,
		"Determines if reads past a declared boundary are errors")
	flag.StringVar(&c.SdpFile, "sdp", "",
		"Set the SDP file describing the capture files")
	flag.IntVar(&c.Rate, "rate", 0,
		"Set the replay rate in packets per second, 0 means unlimited")
	flag.StringVar(&c.ListenAddr, "listen", "",
		"Set the stats api listen address, empty means disabled")
	flag.IntVar(&c.StatsInterval, "stats-interval", 0,
		"Set the interval in seconds to log stream stats, 0 means disabled")
	flag.StringVar(&c.OutputDir, "output", "",
		"Set the dir to write reassembled elementary streams to")

	// 初始化日志配置
	c.Log.initFlags()
}
