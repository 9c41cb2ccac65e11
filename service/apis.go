// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package service

import (
	"net/http"
	"strings"
	"time"

	"github.com/cnotch/apirouter"
	"github.com/cnotch/rtpcore/config"
	"github.com/cnotch/rtpcore/stats"
	"github.com/cnotch/rtpcore/utils"
)

func (s *Service) initApis(mux *http.ServeMux) {
	api := apirouter.NewForGRPC(
		apirouter.GET("/api/v1/runtime", s.onGetRuntime),
		apirouter.GET("/api/v1/streams", s.onListStreams),
		apirouter.GET("/api/v1/streams/{name=*}", s.onGetStream),
	)

	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		api.ServeHTTP(w, r)
	})
}

// 获取运行时信息
func (s *Service) onGetRuntime(w http.ResponseWriter, r *http.Request, pathParams apirouter.Params) {
	type runtime struct {
		On      string             `json:"on"`
		Version string             `json:"version"`
		Proc    stats.Proc         `json:"proc"`
		Streams stats.GaugeSample  `json:"streams"`
		Total   stats.StreamSample `json:"total"`
		Memory  *stats.Memory      `json:"memory,omitempty"`
	}

	rt := runtime{
		On:      time.Now().Format(time.RFC3339Nano),
		Version: config.Version,
		Proc:    stats.MeasureRuntime(),
		Streams: stats.ActiveStreams.GetSample(),
		Total:   stats.Total.GetSample(),
	}

	if strings.TrimSpace(r.URL.Query().Get("extra")) == "1" {
		mem := stats.MeasureMemory()
		rt.Memory = &mem
	}

	if err := utils.WriteJSON(w, &rt); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Service) onListStreams(w http.ResponseWriter, r *http.Request, pathParams apirouter.Params) {
	if err := utils.WriteJSON(w, s.summary()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Service) onGetStream(w http.ResponseWriter, r *http.Request, pathParams apirouter.Params) {
	name := pathParams.ByName("name")
	sample, ok := s.capture(name)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := utils.WriteJSON(w, &CaptureInfo{Name: name, Stats: sample}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
