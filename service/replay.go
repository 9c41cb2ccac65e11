// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package service

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cnotch/rtpcore/av/format/rtp"
	"github.com/cnotch/rtpcore/config"
	"github.com/cnotch/rtpcore/stats"
	"github.com/cnotch/xlog"
	"github.com/kelindar/rate"
)

// captureName 捕获文件名（不含扩展名）作为客户端ID
func captureName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// replay 读取交织格式的捕获文件，经 AsyncDemuxer 重排序和重组
func (s *Service) replay(ctx context.Context, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	name := captureName(path)
	logger := s.logger.With(xlog.Fields(xlog.F("capture", name)))
	counter := stats.NewChildStream(stats.Total)
	s.register(name, counter)

	opts := append(config.EngineOptions(logger), rtp.WithStats(counter))
	d := rtp.NewDemuxer(opts...)

	if dir := config.OutputDir(); dir != "" {
		asc, err := s.audioConfig()
		if err != nil {
			return err
		}
		w, err := newESWriter(filepath.Join(dir, name), asc, logger)
		if err != nil {
			return err
		}
		defer w.Close()
		w.attach(d)
	}

	ad := rtp.NewAsyncDemuxer(d, name, s.aacParams())
	defer ad.Close()

	var limit *rate.Limiter
	if r := config.Rate(); r > 0 {
		limit = rate.New(r, time.Second)
	}

	start := time.Now()
	reader := bufio.NewReader(file)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		packet, err := rtp.ReadPacket(reader, rtp.DefaultChannelConfig)
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("%s: read packet: %w", path, err)
		}

		// 超过回放频率，等待下一个时间窗口
		for limit != nil && limit.Limit() {
			time.Sleep(time.Millisecond)
		}
		ad.WriteRtpPacket(packet)
	}

	ad.Flush()
	sample := counter.GetSample()
	logger.Infof("replay %s finished in %s: packets=%d lost=%d units=%d",
		path, time.Since(start).Round(time.Millisecond), sample.Packets, sample.Lost, sample.Units)
	return nil
}
