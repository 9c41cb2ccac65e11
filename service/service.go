// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package service

import (
	"context"
	"fmt"
	"io/ioutil"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"sync"
	"syscall"

	"github.com/cnotch/rtpcore/av/codec/aac"
	"github.com/cnotch/rtpcore/av/format/rtp"
	"github.com/cnotch/rtpcore/av/format/sdp"
	"github.com/cnotch/rtpcore/config"
	"github.com/cnotch/rtpcore/stats"
	"github.com/cnotch/rtpcore/utils"
	"github.com/cnotch/scheduler"
	"github.com/cnotch/xlog"
	"golang.org/x/sync/errgroup"
)

// Service 回放捕获文件的服务对象(工具的入口)
type Service struct {
	context context.Context
	cancel  context.CancelFunc
	logger  *xlog.Logger
	meta    *sdp.Metadata
	http    *http.Server

	mu       sync.RWMutex
	captures map[string]stats.Stream
}

// NewService 创建服务，存在 SDP 文件时从中读取 AAC 参数和编码配置
func NewService(ctx context.Context, l *xlog.Logger) (s *Service, err error) {
	ctx, cancel := context.WithCancel(ctx)
	s = &Service{
		context:  ctx,
		cancel:   cancel,
		logger:   l,
		meta:     new(sdp.Metadata),
		captures: make(map[string]stats.Stream),
	}

	if path := config.SdpFile(); path != "" {
		raw, err := ioutil.ReadFile(path)
		if err != nil {
			cancel()
			return nil, err
		}
		if s.meta, err = sdp.Parse(string(raw)); err != nil {
			cancel()
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		s.logger.Infof("sdp loaded: video=%s audio=%s", s.meta.Video.Codec, s.meta.Audio.Codec)
	}

	mux := http.NewServeMux()
	s.initApis(mux)
	s.http = &http.Server{Handler: mux}

	s.logger.Info("service configured")
	return s, nil
}

// aacParams 捕获文件的 AU 头参数，SDP 缺失时使用 AAC-hbr 默认值
func (s *Service) aacParams() rtp.AACParams {
	if s.meta.HasAudio() && s.meta.Audio.Params.SizeLength > 0 {
		return s.meta.Audio.Params
	}
	return rtp.DefaultAACParams
}

// audioConfig 输出 ADTS 时使用的音频配置
func (s *Service) audioConfig() (*aac.AudioSpecificConfig, error) {
	raw := s.meta.Audio.Config
	if len(raw) == 0 {
		raw = aac.Encode2BytesASC(aac.AOT_AAC_LC, byte(aac.SamplingIndex(44100)), 2)
	}
	asc := new(aac.AudioSpecificConfig)
	if err := asc.Decode(raw); err != nil {
		return nil, err
	}
	return asc, nil
}

// Run 并发回放所有捕获文件，任一文件失败时取消其余的回放
func (s *Service) Run(files []string) error {
	defer s.Close()
	s.hookSignals()

	if addr := config.Addr(); addr != "" {
		if err := s.listen(addr); err != nil {
			return err
		}
	}

	if interval := config.StatsInterval(); interval > 0 {
		scheduler.PeriodFunc(interval, interval, s.logStats,
			"The task of logging stream statistics periodically")
	}

	g, ctx := errgroup.WithContext(s.context)
	for _, file := range files {
		file := file
		g.Go(func() error {
			return s.replay(ctx, file)
		})
	}
	err := g.Wait()

	s.logStats()
	if dir := config.OutputDir(); dir != "" {
		if werr := utils.EncodeJSONFile(filepath.Join(dir, "summary.json"), s.summary()); werr != nil {
			s.logger.Errorf("write summary failed: %s", werr.Error())
		}
	}
	return err
}

// listen 启动统计 API
func (s *Service) listen(addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.logger.Infof("starting the api listener, addr = %s.", l.Addr().String())
	go func() {
		if err := s.http.Serve(l); err != nil && err != http.ErrServerClosed {
			s.logger.Warn(err.Error())
		}
	}()
	return nil
}

func (s *Service) register(capture string, counter stats.Stream) {
	s.mu.Lock()
	s.captures[capture] = counter
	s.mu.Unlock()
}

func (s *Service) capture(name string) (stats.StreamSample, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counter, ok := s.captures[name]
	if !ok {
		return stats.StreamSample{}, false
	}
	return counter.GetSample(), true
}

// CaptureInfo 单个捕获文件的统计
type CaptureInfo struct {
	Name  string             `json:"name"`
	Stats stats.StreamSample `json:"stats"`
}

// Summary 回放统计
type Summary struct {
	Total    stats.StreamSample `json:"total"`
	Captures []CaptureInfo      `json:"captures"`
}

func (s *Service) summary() *Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := &Summary{Captures: make([]CaptureInfo, 0, len(s.captures))}
	for name, counter := range s.captures {
		sample := counter.GetSample()
		sum.Total.Add(sample)
		sum.Captures = append(sum.Captures, CaptureInfo{Name: name, Stats: sample})
	}
	sort.Slice(sum.Captures, func(i, j int) bool {
		return sum.Captures[i].Name < sum.Captures[j].Name
	})
	return sum
}

func (s *Service) logStats() {
	for _, c := range s.summary().Captures {
		st := c.Stats
		s.logger.Infof("%s: packets=%d delivered=%d reordered=%d lost=%d duplicates=%d dropped=%d units=%d flushes=%d controls=%d",
			c.Name, st.Packets, st.Delivered, st.Reordered, st.Lost, st.Duplicates, st.DroppedFragments, st.Units, st.Flushes, st.Controls)
	}
}

// Close closes gracefully the service.
func (s *Service) Close() {
	if s.cancel != nil {
		s.cancel()
	}

	// 停止计划任务
	for _, job := range scheduler.Jobs() {
		job.Cancel()
	}
	s.http.Close()
}

func (s *Service) hookSignals() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		for sig := range c {
			s.onSignal(sig)
		}
	}()
}

// onSignal 收到退出信号时取消所有回放
func (s *Service) onSignal(sig os.Signal) {
	switch sig {
	case syscall.SIGTERM, syscall.SIGINT:
		s.logger.Warn(fmt.Sprintf("received signal %s, exiting...", sig.String()))
		s.cancel()
	}
}
