package trainer

import "log/slog"
import "runtime"

import "github.com/pkg/errors"

import "github.com/neurlang/detector/datasets"
import "github.com/neurlang/detector/learning"
import "github.com/neurlang/detector/net/feedforward"
import "github.com/neurlang/detector/parallel"

// NewTrainWorstFunc returns a function retraining hashtron worst of net from the tally
// of samples. The returned undo restores the previous hashtron. A nil undo with nil
// error means the tally found nothing to improve.
func NewTrainWorstFunc(net feedforward.FeedforwardNetwork, h *learning.HyperParameters,
	samples []feedforward.FeedforwardNetworkInOutput, log *slog.Logger) func(worst int) (undo func(), err error) {
	h.Defaults()
	if log == nil {
		log = slog.Default()
	}
	return func(worst int) (undo func(), err error) {
		ptr := net.GetHashtron(worst)
		if ptr == nil {
			return nil, errors.Errorf("no hashtron %d", worst)
		}

		var tally datasets.Tally
		tally.Init()
		defer tally.Free()

		parallel.ForEachChunk(len(samples), h.Threads, func(from, to int) {
			for i := from; i < to; i++ {
				net.Tally(samples[i], worst, &tally, nil)
			}
		})

		if !tally.GetImprovementPossible() {
			return nil, nil
		}

		htron, err := h.Training(tally.Dataset(ptr.Bits()), ptr.Bits())
		if err != nil {
			return nil, errors.Wrapf(err, "train hashtron %d", worst)
		}
		log.Debug("hashtron retrained",
			"position", worst,
			"layer", net.GetLayer(worst),
			"job", tally.Len(),
			"filter_bytes", htron.LenQ(),
			"previous_filter_bytes", ptr.LenQ())

		var backup = *ptr
		*ptr = *htron
		runtime.GC()

		return func() {
			*ptr = backup
		}, nil
	}
}
