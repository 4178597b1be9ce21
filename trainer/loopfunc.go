package trainer

import "context"
import "log/slog"
import "math/rand"

import "github.com/pkg/errors"

import "github.com/neurlang/detector/learning"
import "github.com/neurlang/detector/net/feedforward"

// NewLoopFunc returns the training loop. An epoch retrains every hashtron of net once,
// final layer first. A retrained hashtron whose network scores lower is undone.
// The loop ends after epochs epochs, at a perfect score, or when ctx is done, and
// reports the last accepted score.
func NewLoopFunc(net feedforward.FeedforwardNetwork, epochs int, rng *rand.Rand, log *slog.Logger,
	evaluate func() float64, trainWorst func(worst int) (undo func(), err error)) func(ctx context.Context) (float64, error) {
	if log == nil {
		log = slog.Default()
	}
	return func(ctx context.Context) (float64, error) {
		var success = evaluate()
		log.Info("initial score", "score", success)

		for epoch := 0; epoch < epochs && success < 1; epoch++ {
			var kept, undone int
			for _, worst := range net.Sequence(rng) {
				if err := ctx.Err(); err != nil {
					return success, errors.Wrap(err, "training interrupted")
				}
				undo, err := trainWorst(worst)
				if errors.Is(err, learning.ErrNoSolution) {
					log.Warn("hashtron left untrained", "position", worst, "error", err)
					continue
				}
				if err != nil {
					return success, err
				}
				if undo == nil {
					continue
				}
				this := evaluate()
				if this < success {
					undo()
					undone++
					continue
				}
				success = this
				kept++
				if success >= 1 {
					break
				}
			}
			log.Info("epoch done",
				"epoch", epoch+1,
				"of", epochs,
				"score", success,
				"kept", kept,
				"undone", undone)
		}
		return success, nil
	}
}
