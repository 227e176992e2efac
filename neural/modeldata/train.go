package modeldata

import (
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"

	"github.com/golangast/nlpnet/internal/config"
	"github.com/golangast/nlpnet/neural/nn"
	"github.com/golangast/nlpnet/neural/nnu/train"
)

// TrainHooks lets the caller follow the training.
type TrainHooks struct {
	OnInterval func(train.Report)
	OnEpoch    func(epoch int)
}

// PrepareModel reads the corpus and creates a new model, or loads the saved
// one when opts.Load is set.
func PrepareModel(paths config.Paths, opts *config.TrainOptions, rng *rand.Rand) (*Model, *Corpus, error) {
	if err := opts.Validate(); err != nil {
		return nil, nil, err
	}
	corpus, err := ReadCorpus(opts.Task, opts.Gold, opts.Semi)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Int("sentences", corpus.Len()).Str("task", string(opts.Task)).Msg("corpus read")

	if opts.Load {
		m, err := LoadModel(paths, opts.Task)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("path", paths.Network(opts.Task)).Msg("loaded network")
		return m, corpus, nil
	}

	res, err := BuildResources(paths, opts, corpus)
	if err != nil {
		return nil, nil, err
	}
	md := NewMetadata(opts, res)
	conv, err := NewConverter(md, res)
	if err != nil {
		return nil, nil, err
	}
	SetFeatures(md, conv, FeatureWidths(opts))
	m, err := CreateNetwork(rng, md, res, conv)
	if err != nil {
		return nil, nil, err
	}
	log.Info().
		Int("window", md.Window).
		Int("tables", len(md.Features)).
		Int("outputs", numOutputs(md)).
		Msg("created new network")
	return m, corpus, nil
}

// Train runs a complete training: the model is prepared, trained with the
// shared protocol, saved on every improvement and once more at the end.
// A numeric overflow aborts without the final save.
func Train(paths config.Paths, opts config.TrainOptions, hooks TrainHooks) (train.Report, error) {
	rng := rand.New(rand.NewSource(opts.Seed))
	m, corpus, err := PrepareModel(paths, &opts, rng)
	if err != nil {
		return train.Report{}, err
	}
	m.SetLearningRates(nn.LearningRates{
		Weights:     opts.LearningRate,
		Features:    opts.LearningRateFeatures,
		Transitions: opts.LearningRateTransitions,
	})
	obj, err := NewObjective(corpus, m, rng, opts.Alpha)
	if err != nil {
		return train.Report{}, err
	}
	trainer := train.Trainer{
		Epochs:         opts.Epochs,
		Interval:       train.DefaultInterval(opts.Epochs),
		TargetAccuracy: opts.TargetAccuracy,
		Saver:          func() error { return SaveModel(paths, m) },
		OnInterval:     hooks.OnInterval,
		OnEpoch:        hooks.OnEpoch,
	}
	report, err := trainer.Run(obj)
	if err != nil {
		return report, err
	}
	if err := SaveModel(paths, m); err != nil {
		return report, err
	}
	log.Info().Str("path", paths.Network(opts.Task)).Float64("accuracy", report.Accuracy).Msg("saved trained model")
	return report, nil
}
