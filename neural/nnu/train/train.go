// Package train runs the online training protocol shared by every network:
// epochs over the corpus, accuracy reports every interval and a checkpoint
// whenever the accuracy improves.
package train

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/golangast/nlpnet/internal/nerror"
)

// Objective is a training corpus bound to the network it trains.
type Objective interface {
	Len() int
	// Step trains on example i and returns how many of its items were
	// predicted correctly before the update, out of total.
	Step(i int) (hits, total int, err error)
}

type funcObjective struct {
	n    int
	step func(i int) (int, int, error)
}

func (f funcObjective) Len() int {
	return f.n
}

func (f funcObjective) Step(i int) (int, int, error) {
	return f.step(i)
}

// Func creates an Objective over n examples.
func Func(n int, step func(i int) (hits, total int, err error)) Objective {
	return funcObjective{n: n, step: step}
}

// Report describes the accuracy reached at the end of an interval.
type Report struct {
	Epoch    int
	Hits     int
	Total    int
	Accuracy float64
	// Improved is set when the accuracy beat every previous report.
	Improved bool
	Elapsed  time.Duration
}

// Trainer iterates over an objective in corpus order.
type Trainer struct {
	Epochs int
	// Interval is the number of epochs between two reports.
	Interval int
	// TargetAccuracy stops the training once reached; 0 disables it.
	TargetAccuracy float64
	// Saver persists the model after a report improving the accuracy.
	Saver      func() error
	OnInterval func(Report)
	OnEpoch    func(epoch int)
}

// DefaultInterval reports about 200 times over the whole training.
func DefaultInterval(epochs int) int {
	return max(epochs/200, 1)
}

// Run trains until the configured epochs are done or the target accuracy
// is reached and returns the last report. A numeric overflow aborts the run
// immediately without saving.
func (t *Trainer) Run(obj Objective) (Report, error) {
	if t.Epochs <= 0 {
		return Report{}, nerror.NewConfigError("number of epochs must be positive, got %d", t.Epochs)
	}
	interval := t.Interval
	if interval <= 0 {
		interval = DefaultInterval(t.Epochs)
	}
	var last Report
	best := -1.0
	start := time.Now()
	hits, total := 0, 0
	for epoch := 1; epoch <= t.Epochs; epoch++ {
		for i := 0; i < obj.Len(); i++ {
			h, n, err := obj.Step(i)
			if err != nil {
				if errors.Is(err, nerror.ErrNumericOverflow) {
					log.Error().Err(err).Int("epoch", epoch).Int("example", i).Msg("numeric overflow, aborting training")
				}
				return last, fmt.Errorf("epoch %d, example %d: %w", epoch, i, err)
			}
			hits += h
			total += n
		}
		if t.OnEpoch != nil {
			t.OnEpoch(epoch)
		}
		if epoch%interval != 0 && epoch != t.Epochs {
			continue
		}
		last = Report{Epoch: epoch, Hits: hits, Total: total, Elapsed: time.Since(start)}
		if total > 0 {
			last.Accuracy = float64(hits) / float64(total)
		}
		hits, total = 0, 0
		last.Improved = last.Accuracy > best
		log.Debug().
			Int("epoch", epoch).
			Float64("accuracy", last.Accuracy).
			Bool("improved", last.Improved).
			Msg("training interval")
		if t.OnInterval != nil {
			t.OnInterval(last)
		}
		if last.Improved {
			best = last.Accuracy
			if t.Saver != nil {
				if err := t.Saver(); err != nil {
					return last, fmt.Errorf("failed to save model at epoch %d: %w", epoch, err)
				}
			}
		}
		if t.TargetAccuracy > 0 && last.Accuracy >= t.TargetAccuracy {
			log.Debug().Float64("accuracy", last.Accuracy).Msg("target accuracy reached")
			break
		}
	}
	return last, nil
}
