package vm

import (
	"sort"
	"sync"
	"sync/atomic"
)

// Profiler tracks opcode execution counts and per-loop iteration counts to
// identify hot loops, the natural compilation candidates. One Profiler may
// be shared across concurrent executions of the same program.
type Profiler struct {
	opCounts [256]uint64 // indexed by Opcode, atomically updated

	mu        sync.Mutex
	loopIters map[int]*uint64 // loop-open instruction index -> iterations

	// HotLoopThreshold marks a loop as hot once its iteration count
	// crosses it. Default: 10000.
	HotLoopThreshold uint64
}

// NewProfiler creates a profiler with the default hot-loop threshold.
func NewProfiler() *Profiler {
	return &Profiler{
		loopIters:        make(map[int]*uint64),
		HotLoopThreshold: 10000,
	}
}

// RecordOp counts one execution of the given opcode.
func (p *Profiler) RecordOp(code Opcode) {
	atomic.AddUint64(&p.opCounts[code], 1)
}

// RecordLoopIteration counts one back-edge taken for the loop opened at
// the given instruction index.
func (p *Profiler) RecordLoopIteration(openIndex int) {
	p.mu.Lock()
	counter, ok := p.loopIters[openIndex]
	if !ok {
		counter = new(uint64)
		p.loopIters[openIndex] = counter
	}
	p.mu.Unlock()
	atomic.AddUint64(counter, 1)
}

// OpCount returns the number of executions recorded for an opcode.
func (p *Profiler) OpCount(code Opcode) uint64 {
	return atomic.LoadUint64(&p.opCounts[code])
}

// LoopStat describes one profiled loop.
type LoopStat struct {
	OpenIndex  int
	Iterations uint64
	Hot        bool
}

// OpStat describes one profiled opcode.
type OpStat struct {
	Code       Opcode
	Executions uint64
}

// ProfileStats is a point-in-time aggregate of a profiler.
type ProfileStats struct {
	Ops        []OpStat   // nonzero opcodes, most-executed first
	Loops      []LoopStat // all profiled loops, most-iterated first
	TotalSteps uint64
}

// Stats aggregates the recorded counters, sorted for reporting.
func (p *Profiler) Stats() ProfileStats {
	var stats ProfileStats
	for code := range p.opCounts {
		count := atomic.LoadUint64(&p.opCounts[code])
		if count == 0 {
			continue
		}
		stats.Ops = append(stats.Ops, OpStat{Code: Opcode(code), Executions: count})
		stats.TotalSteps += count
	}
	sort.Slice(stats.Ops, func(i, j int) bool {
		return stats.Ops[i].Executions > stats.Ops[j].Executions
	})

	p.mu.Lock()
	for open, counter := range p.loopIters {
		iters := atomic.LoadUint64(counter)
		stats.Loops = append(stats.Loops, LoopStat{
			OpenIndex:  open,
			Iterations: iters,
			Hot:        iters >= p.HotLoopThreshold,
		})
	}
	p.mu.Unlock()

	sort.Slice(stats.Loops, func(i, j int) bool {
		return stats.Loops[i].Iterations > stats.Loops[j].Iterations
	})
	return stats
}
