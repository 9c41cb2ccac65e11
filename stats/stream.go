// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stats

import (
	"sync/atomic"
)

// Total 所有流的汇总计数
var Total = NewStream()

// StreamSample 流统计采样
type StreamSample struct {
	Packets          int64 `json:"packets"`           // 输入的媒体包
	Bytes            int64 `json:"bytes"`             // 输入的字节
	Delivered        int64 `json:"delivered"`         // 按序交付的包
	Reordered        int64 `json:"reordered"`         // 乱序到达而进入缓冲的包
	Lost             int64 `json:"lost"`              // 判定丢失的序号数
	Duplicates       int64 `json:"duplicates"`        // 丢弃的重复包
	DroppedFragments int64 `json:"dropped_fragments"` // 丢弃的孤立分片
	Units            int64 `json:"units"`             // 输出的 NAL 单元或 AU
	Flushes          int64 `json:"flushes"`           // 输出的事件批次
	Controls         int64 `json:"controls"`          // RTCP 包
}

func (s *StreamSample) clone() StreamSample {
	return StreamSample{
		Packets:          atomic.LoadInt64(&s.Packets),
		Bytes:            atomic.LoadInt64(&s.Bytes),
		Delivered:        atomic.LoadInt64(&s.Delivered),
		Reordered:        atomic.LoadInt64(&s.Reordered),
		Lost:             atomic.LoadInt64(&s.Lost),
		Duplicates:       atomic.LoadInt64(&s.Duplicates),
		DroppedFragments: atomic.LoadInt64(&s.DroppedFragments),
		Units:            atomic.LoadInt64(&s.Units),
		Flushes:          atomic.LoadInt64(&s.Flushes),
		Controls:         atomic.LoadInt64(&s.Controls),
	}
}

// Add 采样累加
func (s *StreamSample) Add(o StreamSample) {
	s.Packets += o.Packets
	s.Bytes += o.Bytes
	s.Delivered += o.Delivered
	s.Reordered += o.Reordered
	s.Lost += o.Lost
	s.Duplicates += o.Duplicates
	s.DroppedFragments += o.DroppedFragments
	s.Units += o.Units
	s.Flushes += o.Flushes
	s.Controls += o.Controls
}

// Stream 流统计接口
type Stream interface {
	AddPacket(size int)      // 输入一个包
	AddDelivered()           // 按序交付一个包
	AddReordered()           // 一个包进入乱序缓冲
	AddLost(n int)           // 丢失 n 个序号
	AddDuplicate()           // 丢弃一个重复包
	AddDroppedFragment()     // 丢弃一个分片
	AddUnits(n int)          // 输出 n 个单元
	AddFlush()               // 输出一个事件批次
	AddControl()             // 收到一个 RTCP 包
	GetSample() StreamSample // 获取当前时点采样
}

type counter struct {
	sample StreamSample
}

func (c *counter) AddPacket(size int) {
	atomic.AddInt64(&c.sample.Packets, 1)
	atomic.AddInt64(&c.sample.Bytes, int64(size))
}
func (c *counter) AddDelivered()       { atomic.AddInt64(&c.sample.Delivered, 1) }
func (c *counter) AddReordered()       { atomic.AddInt64(&c.sample.Reordered, 1) }
func (c *counter) AddLost(n int)       { atomic.AddInt64(&c.sample.Lost, int64(n)) }
func (c *counter) AddDuplicate()       { atomic.AddInt64(&c.sample.Duplicates, 1) }
func (c *counter) AddDroppedFragment() { atomic.AddInt64(&c.sample.DroppedFragments, 1) }
func (c *counter) AddUnits(n int)      { atomic.AddInt64(&c.sample.Units, int64(n)) }
func (c *counter) AddFlush()           { atomic.AddInt64(&c.sample.Flushes, 1) }
func (c *counter) AddControl()         { atomic.AddInt64(&c.sample.Controls, 1) }
func (c *counter) GetSample() StreamSample {
	return c.sample.clone()
}

// NewStream 创建流统计
func NewStream() Stream {
	return &counter{}
}

type childStream struct {
	counter
	parent Stream
}

// NewChildStream 创建子流统计，它会把自己的计数同时累加到 parent 上
func NewChildStream(parent Stream) Stream {
	return &childStream{parent: parent}
}

func (c *childStream) AddPacket(size int) {
	c.counter.AddPacket(size)
	c.parent.AddPacket(size)
}

func (c *childStream) AddDelivered() {
	c.counter.AddDelivered()
	c.parent.AddDelivered()
}

func (c *childStream) AddReordered() {
	c.counter.AddReordered()
	c.parent.AddReordered()
}

func (c *childStream) AddLost(n int) {
	c.counter.AddLost(n)
	c.parent.AddLost(n)
}

func (c *childStream) AddDuplicate() {
	c.counter.AddDuplicate()
	c.parent.AddDuplicate()
}

func (c *childStream) AddDroppedFragment() {
	c.counter.AddDroppedFragment()
	c.parent.AddDroppedFragment()
}

func (c *childStream) AddUnits(n int) {
	c.counter.AddUnits(n)
	c.parent.AddUnits(n)
}

func (c *childStream) AddFlush() {
	c.counter.AddFlush()
	c.parent.AddFlush()
}

func (c *childStream) AddControl() {
	c.counter.AddControl()
	c.parent.AddControl()
}

// Gauge 活动数计数
type Gauge struct {
	total  int64
	active int64
}

// GaugeSample .
type GaugeSample struct {
	Total  int64 `json:"total"`
	Active int64 `json:"active"`
}

// Add 增加一个活动项
func (g *Gauge) Add() int64 {
	atomic.AddInt64(&g.total, 1)
	return atomic.AddInt64(&g.active, 1)
}

// Release 释放一个活动项
func (g *Gauge) Release() int64 {
	return atomic.AddInt64(&g.active, -1)
}

// GetSample .
func (g *Gauge) GetSample() GaugeSample {
	return GaugeSample{
		Total:  atomic.LoadInt64(&g.total),
		Active: atomic.LoadInt64(&g.active),
	}
}

// ActiveStreams 当前创建了状态的流
var ActiveStreams = &Gauge{}
