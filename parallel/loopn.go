// Package parallel contains parallel LoopN() and parallel ForEach() concurrency primitives.
package parallel

import (
	"math"
	"sync"
	"sync/atomic"
)

// LoopStopper is an interface to check if the loop should stop.
type LoopStopper interface {

	// Load reports true if the loop should stop.
	Load() bool
}

// Loop represents the number of goroutines to run.
type Loop int

// LoopN starts 'l' goroutines that iterate until one of them stops the loop.
// Each goroutine processes a unique integer i starting from 0.
// The loop stops once n integers were handed out, or any goroutine's yield returns true.
func (l Loop) LoopN(n uint32, yield func(i uint32, ender LoopStopper) bool) {
	var (
		i     uint32
		ender atomic.Bool
		wg    sync.WaitGroup
	)
	if l <= 0 {
		l = 1
	}

	for g := 0; g < int(l); g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if ender.Load() {
					return
				}

				newI := atomic.AddUint32(&i, 1)
				if newI > n || newI == math.MaxUint32 {
					ender.Store(true)
					return
				}

				// the index to process is the previous value of i
				if yield(newI-1, &ender) {
					ender.Store(true)
					return
				}
			}
		}()
	}

	wg.Wait()
}
