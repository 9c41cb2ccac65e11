// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package service

import (
	"bufio"
	"os"

	"github.com/cnotch/rtpcore/av/codec/aac"
	"github.com/cnotch/rtpcore/av/format/rtp"
	"github.com/cnotch/xlog"
)

var startCode = []byte{0x00, 0x00, 0x00, 0x01}

// esFile 延迟创建的输出文件
type esFile struct {
	path string
	f    *os.File
	w    *bufio.Writer
}

func (ef *esFile) write(p ...[]byte) error {
	if ef.w == nil {
		f, err := os.Create(ef.path)
		if err != nil {
			return err
		}
		ef.f = f
		ef.w = bufio.NewWriterSize(f, 64*1024)
	}
	for _, b := range p {
		if _, err := ef.w.Write(b); err != nil {
			return err
		}
	}
	return nil
}

func (ef *esFile) close() error {
	if ef.f == nil {
		return nil
	}
	err := ef.w.Flush()
	if cerr := ef.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// esWriter 将重组后的单元写为 Annex-B (.h264) 和 ADTS (.aac) 基本流
type esWriter struct {
	video  esFile
	audio  esFile
	asc    *aac.AudioSpecificConfig
	logger *xlog.Logger
	err    error
}

func newESWriter(prefix string, asc *aac.AudioSpecificConfig, logger *xlog.Logger) (*esWriter, error) {
	return &esWriter{
		video:  esFile{path: prefix + ".h264"},
		audio:  esFile{path: prefix + ".aac"},
		asc:    asc,
		logger: logger,
	}, nil
}

func (w *esWriter) attach(d *rtp.Demuxer) {
	d.On(rtp.EventH264NALUnits, w.onNALUnits)
	d.On(rtp.EventAACAccessUnits, w.onAccessUnits)
}

func (w *esWriter) onNALUnits(clientID string, units [][]byte, timestamp uint32) {
	for _, nalu := range units {
		w.check(w.video.write(startCode, nalu))
	}
}

func (w *esWriter) onAccessUnits(clientID string, units [][]byte, timestamp uint32) {
	for _, au := range units {
		hdr := w.asc.ADTSHeader(len(au))
		w.check(w.audio.write(hdr[:], au))
	}
}

// check 只记录第一个写错误
func (w *esWriter) check(err error) {
	if err != nil && w.err == nil {
		w.err = err
		w.logger.Errorf("write elementary stream failed: %s", err.Error())
	}
}

func (w *esWriter) Close() error {
	w.check(w.video.close())
	w.check(w.audio.close())
	return w.err
}
