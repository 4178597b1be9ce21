package trainer

import "sync"

import "github.com/neurlang/detector/net/feedforward"
import "github.com/neurlang/detector/parallel"

// NewEvaluateFunc returns a function scoring net on samples by balanced accuracy:
// the mean over expected outputs of the share of their samples inferred correctly.
// The score lies in [0, 1], an empty sample set scores 1.
func NewEvaluateFunc(net feedforward.FeedforwardNetwork, samples []feedforward.FeedforwardNetworkInOutput,
	threads int) func() float64 {
	return func() float64 {
		var mut sync.Mutex
		var total = make(map[uint16]int)
		var correct = make(map[uint16]int)

		parallel.ForEachChunk(len(samples), threads, func(from, to int) {
			var t = make(map[uint16]int)
			var c = make(map[uint16]int)
			for i := from; i < to; i++ {
				out := samples[i].Output()
				t[out]++
				if net.Infer(samples[i]) == out {
					c[out]++
				}
			}
			mut.Lock()
			for k, v := range t {
				total[k] += v
			}
			for k, v := range c {
				correct[k] += v
			}
			mut.Unlock()
		})

		if len(total) == 0 {
			return 1
		}
		var sum float64
		for k, v := range total {
			sum += float64(correct[k]) / float64(v)
		}
		return sum / float64(len(total))
	}
}
