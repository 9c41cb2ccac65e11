// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"flag"
	"os"

	"github.com/cnotch/xlog"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig 日志配置
type LogConfig struct {
	// Level 输出的最低级别，debug 时记录每个输出批次和 SR
	Level xlog.Level `json:"level"`

	// JSON 控制台是否以 JSON 格式输出，便于管道处理
	JSON bool `json:"json"`

	// ToFile 是否同时将日志滚动记录到文件（JSON 格式）
	ToFile     bool   `json:"tofile"`
	Filename   string `json:"filename"`
	MaxSize    int    `json:"maxsize"` // MB
	MaxDays    int    `json:"maxdays"`
	MaxBackups int    `json:"maxbackups"`
	Compress   bool   `json:"compress"`
}

func (c *LogConfig) initFlags() {
	flag.Var(&c.Level, "log-level",
		"Set the log level to output")
	flag.BoolVar(&c.JSON, "log-json", false,
		"Determines if console logs are JSON encoded")
	flag.BoolVar(&c.ToFile, "log-tofile", false,
		"Determines if logs should be saved to file")
	flag.StringVar(&c.Filename, "log-filename",
		"./logs/"+Name+".log", "Set the file to write logs to")
	flag.IntVar(&c.MaxSize, "log-maxsize", 20,
		"Set the maximum size in megabytes of the log file before it gets rotated")
	flag.IntVar(&c.MaxDays, "log-maxdays", 7,
		"Set the maximum days of old log files to retain")
	flag.IntVar(&c.MaxBackups, "log-maxbackups", 14,
		"Set the maximum number of old log files to retain")
	flag.BoolVar(&c.Compress, "log-compress", false,
		"Determines if the log files should be compressed")
}

// initLogger 替换全局日志，回放过程中各组件通过 xlog.L() 派生
func (c *LogConfig) initLogger() {
	core := xlog.NewCore(xlog.NewConsoleEncoder(xlog.LstdFlags|xlog.Lmicroseconds|xlog.Llongfile),
		xlog.Lock(os.Stderr), c.Level)
	if c.JSON {
		core = xlog.NewCore(xlog.NewJSONEncoder(xlog.Llongfile), xlog.Lock(os.Stderr), c.Level)
	}
	if c.ToFile {
		rotated := &lumberjack.Logger{
			Filename:   c.Filename,
			MaxSize:    c.MaxSize,
			MaxBackups: c.MaxBackups,
			MaxAge:     c.MaxDays,
			LocalTime:  true,
			Compress:   c.Compress,
		}
		core = xlog.NewTee(core, xlog.NewCore(xlog.NewJSONEncoder(xlog.Llongfile), rotated, c.Level))
	}
	xlog.ReplaceGlobal(xlog.New(core, xlog.AddCaller()))
}
