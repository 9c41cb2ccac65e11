// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rtp

import (
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/cnotch/queue"
	"github.com/cnotch/xlog"
)

// AsyncDemuxer 在单独的 goroutine 中串行处理交织包，
// 可供多个生产者并发写入。
type AsyncDemuxer struct {
	d         *Demuxer
	clientID  string
	aacParams AACParams
	closed    int32
	recvQueue *queue.SyncQueue
	done      chan struct{}
	closeOnce sync.Once
	logger    *xlog.Logger
}

// NewAsyncDemuxer 创建异步处理器，包按 Packet.Channel 分派到 Demuxer。
// 监听者在处理 goroutine 中被回调。
func NewAsyncDemuxer(d *Demuxer, clientID string, aacParams AACParams) *AsyncDemuxer {
	ad := &AsyncDemuxer{
		d:         d,
		clientID:  clientID,
		aacParams: aacParams,
		recvQueue: queue.NewSyncQueue(),
		done:      make(chan struct{}),
		logger:    d.logger.With(xlog.Fields(xlog.F("client", clientID))),
	}
	go ad.process()
	return ad
}

func (ad *AsyncDemuxer) process() {
	defer func() {
		defer func() { // 避免 handler 再 panic
			recover()
		}()

		if r := recover(); r != nil {
			ad.logger.Errorf("rtp demuxer routine panic；r = %v \n %s", r, debug.Stack())
		}

		// 尽早通知GC，回收内存
		ad.recvQueue.Reset()
		close(ad.done)
	}()

	for !ad.isClosed() {
		p := ad.recvQueue.Pop()
		if p == nil {
			if !ad.isClosed() {
				ad.logger.Warn("rtp demuxer: receive nil packet")
			}
			continue
		}

		if flushed, ok := p.(chan struct{}); ok {
			close(flushed)
			continue
		}

		packet := p.(*Packet)
		var err error
		switch packet.Channel {
		case ChannelVideo:
			err = ad.d.FeedH264(ad.clientID, packet.Data)
		case ChannelVideoControl:
			_, err = ad.d.Control(StreamTag{CodecH264, ad.clientID}, packet.Data)
		case ChannelAudio:
			err = ad.d.FeedAAC(ad.clientID, packet.Data, ad.aacParams)
		case ChannelAudioControl:
			_, err = ad.d.Control(StreamTag{CodecAAC, ad.clientID}, packet.Data)
		}

		if err != nil {
			ad.logger.Errorf("rtp demuxer: depacketize %s packet error :%s",
				ChannelName(int(packet.Channel)), err.Error())
		}
	}
}

// WriteRtpPacket 将包放入处理队列
func (ad *AsyncDemuxer) WriteRtpPacket(packet *Packet) error {
	ad.recvQueue.Push(packet)
	return nil
}

// Close 停止处理，队列中尚未处理的包会被丢弃
func (ad *AsyncDemuxer) Close() error {
	ad.closeOnce.Do(func() {
		atomic.StoreInt32(&ad.closed, 1)
		ad.recvQueue.Signal()
	})
	<-ad.done
	return nil
}

func (ad *AsyncDemuxer) isClosed() bool {
	return atomic.LoadInt32(&ad.closed) == 1
}

// Flush 等待此前写入的包全部处理完毕，已关闭时立即返回
func (ad *AsyncDemuxer) Flush() {
	flushed := make(chan struct{})
	ad.recvQueue.Push(flushed)
	select {
	case <-flushed:
	case <-ad.done:
	}
}
