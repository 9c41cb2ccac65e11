// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// rtpdump 回放 RTSP 交织格式的 RTP 捕获文件，
// 输出重排序与重组统计，可选输出 H.264/AAC 基本流。
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/cnotch/rtpcore/config"
	"github.com/cnotch/rtpcore/service"
	"github.com/cnotch/rtpcore/stats"
	"github.com/cnotch/scheduler"
	"github.com/cnotch/xlog"
)

func main() {
	// 初始化配置
	config.InitConfig()
	// 初始化全局计划任务
	scheduler.SetPanicHandler(func(job *scheduler.ManagedJob, r interface{}) {
		xlog.Errorf("scheduler task panic. tag: %v, recover: %v", job.Tag, r)
	})

	files := config.CaptureFiles()
	if len(files) == 0 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] capture.rtp...\n", config.Name)
		os.Exit(2)
	}

	svc, err := service.NewService(context.Background(), xlog.L())
	if err != nil {
		xlog.L().Panic(err.Error())
	}

	if err = svc.Run(files); err != nil {
		xlog.L().Error(err.Error())
	}

	proc := stats.MeasureRuntime()
	total := stats.Total.GetSample()
	xlog.L().Infof("%s %s done: captures=%d packets=%d lost=%d units=%d cpu=%.2f priv=%dKB uptime=%ds",
		config.Name, config.Version, len(files), total.Packets, total.Lost, total.Units,
		proc.CPU, proc.Priv, proc.Uptime)
	if err != nil {
		os.Exit(1)
	}
}
