// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stats

import (
	"runtime"
	"time"

	"github.com/kelindar/process"
)

// 创建时间
var (
	StartingTime = time.Now()
)

// Proc 进程信息统计
type Proc struct {
	CPU    float64 `json:"cpu"`    // cpu使用情况
	Priv   int32   `json:"priv"`   // 私有内存 KB
	Virt   int32   `json:"virt"`   // 虚拟内存 KB
	Uptime int32   `json:"uptime"` // 运行时间 S
}

// Memory 运行时内存信息
type Memory struct {
	HeapInuse  int32   `json:"heap_inuse"`  // KB
	HeapAlloc  int32   `json:"heap_alloc"`  // KB
	TotalAlloc int32   `json:"total_alloc"` // KB
	Sys        int32   `json:"sys"`         // KB
	GCCPU      float64 `json:"gc_cpu"`
	NumGC      uint32  `json:"num_gc"`
	Goroutines int32   `json:"goroutines"`
}

// MeasureRuntime 获取进程信息
func MeasureRuntime() (p Proc) {
	defer func() { recover() }()
	var memoryPriv, memoryVirtual int64
	var cpu float64
	process.ProcUsage(&cpu, &memoryPriv, &memoryVirtual)
	return Proc{
		CPU:    cpu,
		Priv:   toKB(uint64(memoryPriv)),
		Virt:   toKB(uint64(memoryVirtual)),
		Uptime: int32(time.Since(StartingTime).Seconds()),
	}
}

// MeasureMemory 获取 Go 运行时内存信息
func MeasureMemory() Memory {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return Memory{
		HeapInuse:  toKB(m.HeapInuse),
		HeapAlloc:  toKB(m.HeapAlloc),
		TotalAlloc: toKB(m.TotalAlloc),
		Sys:        toKB(m.Sys),
		GCCPU:      m.GCCPUFraction,
		NumGC:      m.NumGC,
		Goroutines: int32(runtime.NumGoroutine()),
	}
}

// Converts the memory in bytes to KBs, otherwise it would overflow our int32
func toKB(v uint64) int32 {
	return int32(v / 1024)
}
