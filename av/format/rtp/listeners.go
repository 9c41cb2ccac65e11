// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rtp

// Event 重组结果事件名
type Event string

// 预定义事件
const (
	EventH264NALUnits    Event = "h264_nal_units"   // (clientID, NAL 单元, RTP 时间戳)
	EventAACAccessUnits  Event = "aac_access_units" // (clientID, AU, RTP 时间戳)
	maxListenerSequence        = 0x3fff_ffff
)

// Listener 接收一个完整的单元批次。units 在回调后归监听者所有，
// 其中的切片可能引用输入的包数据。
type Listener func(clientID string, units [][]byte, timestamp uint32)

// ListenerID 监听者ID
// event(2bits)+sequence(30bits)
type ListenerID uint32

type listenerEntry struct {
	id ListenerID
	fn Listener
}

type listeners struct {
	seed    uint32
	entries map[Event][]listenerEntry
}

func eventCode(e Event) uint32 {
	switch e {
	case EventH264NALUnits:
		return 1
	case EventAACAccessUnits:
		return 2
	}
	return 0
}

func (ls *listeners) add(e Event, fn Listener) ListenerID {
	ls.seed++
	if ls.seed >= maxListenerSequence {
		ls.seed = 1
	}
	id := ListenerID(eventCode(e)<<30 | ls.seed&maxListenerSequence)
	if ls.entries == nil {
		ls.entries = make(map[Event][]listenerEntry)
	}
	ls.entries[e] = append(ls.entries[e], listenerEntry{id: id, fn: fn})
	return id
}

func (ls *listeners) remove(e Event, id ListenerID) bool {
	entries := ls.entries[e]
	for i, entry := range entries {
		if entry.id == id {
			ls.entries[e] = append(entries[:i:i], entries[i+1:]...)
			return true
		}
	}
	return false
}

func (ls *listeners) emit(e Event, clientID string, units [][]byte, timestamp uint32) {
	for _, entry := range ls.entries[e] {
		entry.fn(clientID, units, timestamp)
	}
}

func (ls *listeners) count(e Event) int {
	return len(ls.entries[e])
}
