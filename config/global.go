// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cnotch/rtpcore/av/format/rtp"
	cfg "github.com/cnotch/loader"
	"github.com/cnotch/xlog"
)

// 工具名
const (
	Vendor  = "CAOHONGJU"
	Name    = "rtpdump"
	Version = "V1.0.0"
)

var globalC *config

// InitConfig 初始化 Config
func InitConfig() {
	exe, err := os.Executable()
	if err != nil {
		xlog.Panic(err.Error())
	}

	configPath := filepath.Join(filepath.Dir(exe), Name+".conf")

	globalC = new(config)
	globalC.initFlags()

	// 创建或加载配置文件
	if err := cfg.Load(globalC,
		&cfg.JSONLoader{Path: configPath, CreatedIfNonExsit: true},
		&cfg.EnvLoader{Prefix: strings.ToUpper(Name)},
		&cfg.FlagLoader{}); err != nil {
		// 异常，直接退出
		xlog.Panic(err.Error())
	}

	if globalC.OutputDir != "" {
		if !filepath.IsAbs(globalC.OutputDir) {
			globalC.OutputDir = filepath.Join(filepath.Dir(exe), globalC.OutputDir)
		}
		if err = os.MkdirAll(globalC.OutputDir, os.ModePerm); err != nil {
			panic(err)
		}
	}

	// 初始化日志
	globalC.Log.initLogger()
}

// ReorderDepth 乱序缓冲深度
func ReorderDepth() int {
	if globalC == nil || globalC.ReorderDepth <= 0 {
		return rtp.DefaultReorderDepth
	}
	return globalC.ReorderDepth
}

// Strict 是否严格检查边界
func Strict() bool {
	if globalC == nil {
		return false
	}
	return globalC.Strict
}

// SdpFile SDP 文件路径
func SdpFile() string {
	if globalC == nil {
		return ""
	}
	return globalC.SdpFile
}

// Rate 每秒回放的包数
func Rate() int {
	if globalC == nil || globalC.Rate < 0 {
		return 0
	}
	return globalC.Rate
}

// Addr 统计 API 的侦听地址
func Addr() string {
	if globalC == nil {
		return ""
	}
	return globalC.ListenAddr
}

// StatsInterval 周期输出统计的间隔
func StatsInterval() time.Duration {
	if globalC == nil || globalC.StatsInterval <= 0 {
		return 0
	}
	return time.Duration(globalC.StatsInterval) * time.Second
}

// OutputDir 基本流输出目录
func OutputDir() string {
	if globalC == nil {
		return ""
	}
	return globalC.OutputDir
}

// CaptureFiles 命令行中的捕获文件
func CaptureFiles() []string {
	return flag.Args()
}

// EngineOptions 根据配置生成 Demuxer 选项
func EngineOptions(logger *xlog.Logger) []rtp.Option {
	return []rtp.Option{
		rtp.WithReorderDepth(ReorderDepth()),
		rtp.WithStrict(Strict()),
		rtp.WithLogger(logger),
	}
}
