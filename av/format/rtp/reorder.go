// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rtp

import (
	"sort"
	"strconv"
)

const (
	// DefaultReorderDepth 乱序缓冲的默认深度
	DefaultReorderDepth = 10
	// 序号差不小于该值时认为发生了回绕
	wraparoundGap = 60000
)

// MediaPacket 可进入重排序的已解码媒体包
type MediaPacket interface {
	RTPHeader() *FixedHeader
}

func seqOf(p MediaPacket) uint16 {
	return p.RTPHeader().SequenceNumber
}

// seqBefore 判断序号 a 是否应排在 b 之前；相差超过 wraparoundGap 时，
// 数值较小的一方实际在回绕之后。
func seqBefore(a, b uint16) bool {
	diff := int(a) - int(b)
	switch {
	case diff >= wraparoundGap:
		return true
	case -diff >= wraparoundGap:
		return false
	}
	return diff < 0
}

// lossRange 描述被跳过的序号区间 [from, to]
type lossRange struct {
	from, to uint16
}

func (lr lossRange) String() string {
	if lr.from == lr.to {
		return strconv.Itoa(int(lr.from))
	}
	return strconv.Itoa(int(lr.from)) + "-" + strconv.Itoa(int(lr.to))
}

func (lr lossRange) count() int {
	return int(lr.to-lr.from) + 1
}

// reorderBuffer 单个流的重排序状态
type reorderBuffer struct {
	started bool
	next    uint16
	depth   int
	pending []MediaPacket

	// 最近交付的序号，用于丢弃重复包
	recent    []uint16
	recentPos int
}

// expect 预设下一个期望的序号
func (rb *reorderBuffer) expect(seq uint16) {
	rb.started = true
	rb.next = seq
}

// duplicate 序号与最近交付的某个包完全相同
func (rb *reorderBuffer) duplicate(seq uint16) bool {
	for _, s := range rb.recent {
		if s == seq {
			return true
		}
	}
	return false
}

func (rb *reorderBuffer) remember(seq uint16) {
	size := rb.depth
	if size < 1 {
		size = 1
	}
	if len(rb.recent) < size {
		rb.recent = append(rb.recent, seq)
		return
	}
	rb.recent[rb.recentPos] = seq
	rb.recentPos = (rb.recentPos + 1) % len(rb.recent)
}

// push 输入一个包，按序交付给 deliver；强制交付跳过的区间交给 lost
func (rb *reorderBuffer) push(p MediaPacket, deliver func(MediaPacket), lost func(lossRange)) (buffered bool) {
	seq := seqOf(p)
	if !rb.started {
		rb.expect(seq)
	}

	if seq == rb.next {
		rb.emit(p, deliver)
		rb.next++
		rb.drain(deliver)
		return false
	}

	rb.pending = append(rb.pending, p)
	if len(rb.pending) < 2 {
		return true
	}
	sort.SliceStable(rb.pending, func(i, j int) bool {
		return seqBefore(seqOf(rb.pending[i]), seqOf(rb.pending[j]))
	})
	rb.drain(deliver)

	// 缓冲跨度达到深度时，强制交付最早的包
	for len(rb.pending) >= 2 {
		newest := seqOf(rb.pending[len(rb.pending)-1])
		if int(newest-rb.next) < rb.depth {
			break
		}
		first := rb.shift()
		seq := seqOf(first)
		if seq != rb.next {
			lost(lossRange{from: rb.next, to: seq - 1})
		}
		rb.emit(first, deliver)
		rb.next = seq + 1
		rb.drain(deliver)
	}
	return true
}

func (rb *reorderBuffer) emit(p MediaPacket, deliver func(MediaPacket)) {
	rb.remember(seqOf(p))
	deliver(p)
}

// drain 交付队首连续的包
func (rb *reorderBuffer) drain(deliver func(MediaPacket)) {
	for len(rb.pending) > 0 && seqOf(rb.pending[0]) == rb.next {
		rb.emit(rb.shift(), deliver)
		rb.next++
	}
}

func (rb *reorderBuffer) shift() MediaPacket {
	p := rb.pending[0]
	copy(rb.pending, rb.pending[1:])
	rb.pending[len(rb.pending)-1] = nil
	rb.pending = rb.pending[:len(rb.pending)-1]
	return p
}

func (rb *reorderBuffer) reset() {
	rb.started = false
	rb.next = 0
	for i := range rb.pending {
		rb.pending[i] = nil
	}
	rb.pending = rb.pending[:0]
	rb.recent = rb.recent[:0]
	rb.recentPos = 0
}
