package config

import (
	"github.com/golangast/nlpnet/internal/nerror"
	"github.com/golangast/nlpnet/neural/nnu/metadata"
)

// TrainOptions are the parameters of one training run.
type TrainOptions struct {
	Task metadata.Task
	// Gold is the training corpus.
	Gold string
	// Semi is an optional corpus of automatically labelled SRL sentences
	// appended to Gold.
	Semi string
	// Load continues training a saved model instead of creating one.
	Load bool

	Epochs         int
	TargetAccuracy float64
	Seed           uint64

	Window          int
	HiddenSize      int
	ConvolutionSize int
	MaxDist         int

	WordWidth       int
	CapsWidth       int
	SuffixWidth     int
	PrefixWidth     int
	POSWidth        int
	ChunkWidth      int
	GazetteerWidth  int
	PredDistWidth   int
	TargetDistWidth int

	UseCaps      bool
	UseSuffix    bool
	UsePrefix    bool
	UsePOS       bool
	UseChunk     bool
	UseLemma     bool
	UseGazetteer bool

	// DictSize and MinOccurrences control word dictionaries built from
	// the training corpus (tasks without a dictionary in the data dir).
	DictSize       int
	MinOccurrences int

	// Alpha weights the language model part of the sentiment objective.
	Alpha float64

	LearningRate            float64
	LearningRateFeatures    float64
	LearningRateTransitions float64
}

// DefaultTrainOptions returns the options used when nothing else is set.
func DefaultTrainOptions(task metadata.Task) TrainOptions {
	return TrainOptions{
		Task:                    task,
		Epochs:                  15,
		Seed:                    42,
		Window:                  5,
		HiddenSize:              100,
		ConvolutionSize:         150,
		MaxDist:                 10,
		WordWidth:               50,
		CapsWidth:               5,
		SuffixWidth:             2,
		PrefixWidth:             2,
		POSWidth:                5,
		ChunkWidth:              5,
		GazetteerWidth:          5,
		PredDistWidth:           5,
		TargetDistWidth:         5,
		DictSize:                100000,
		MinOccurrences:          1,
		Alpha:                   0.5,
		LearningRate:            0.001,
		LearningRateFeatures:    0.01,
		LearningRateTransitions: 0.01,
	}
}

// Validate rejects inconsistent options. It runs before any corpus is read.
func (opts *TrainOptions) Validate() error {
	if _, err := metadata.ParseTask(string(opts.Task)); err != nil {
		return err
	}
	if opts.Gold == "" {
		return nerror.NewConfigError("training corpus not specified")
	}
	if opts.Semi != "" && !opts.Task.IsSRL() {
		return nerror.NewConfigError("semi-supervised data is only supported by SRL tasks")
	}
	if opts.Epochs <= 0 {
		return nerror.NewConfigError("number of epochs must be positive, got %d", opts.Epochs)
	}
	if opts.TargetAccuracy < 0 || opts.TargetAccuracy > 1 {
		return nerror.NewConfigError("target accuracy must be in [0, 1], got %g", opts.TargetAccuracy)
	}
	if opts.Window <= 0 || opts.Window%2 == 0 {
		return nerror.NewConfigError("window size must be a positive odd number, got %d", opts.Window)
	}
	if opts.HiddenSize <= 0 {
		return nerror.NewConfigError("hidden size must be positive, got %d", opts.HiddenSize)
	}
	if opts.Task.Convolutional() {
		if opts.ConvolutionSize <= 0 {
			return nerror.NewConfigError("convolution size must be positive, got %d", opts.ConvolutionSize)
		}
		if opts.MaxDist <= 0 {
			return nerror.NewConfigError("max distance must be positive, got %d", opts.MaxDist)
		}
		if opts.PredDistWidth <= 0 || opts.TargetDistWidth <= 0 {
			return nerror.NewConfigError("distance feature widths must be positive")
		}
	}
	widths := []struct {
		name  string
		on    bool
		width int
	}{
		{metadata.FeatureTypes, true, opts.WordWidth},
		{metadata.FeatureCaps, opts.UseCaps, opts.CapsWidth},
		{metadata.FeatureSuffix, opts.UseSuffix, opts.SuffixWidth},
		{metadata.FeaturePrefix, opts.UsePrefix, opts.PrefixWidth},
		{metadata.FeaturePOS, opts.UsePOS, opts.POSWidth},
		{metadata.FeatureChunk, opts.UseChunk, opts.ChunkWidth},
		{metadata.FeatureGazetteer, opts.UseGazetteer, opts.GazetteerWidth},
	}
	for _, w := range widths {
		if w.on && w.width <= 0 {
			return nerror.NewConfigError("%s feature width must be positive, got %d", w.name, w.width)
		}
	}
	if opts.UseGazetteer && opts.Task != metadata.TaskNER {
		return nerror.NewConfigError("gazetteer features are only supported by the ner task")
	}
	if (opts.UsePOS || opts.UseChunk || opts.UseLemma) && !opts.Task.IsSRL() {
		return nerror.NewConfigError("pos, chunk and lemma features need an SRL corpus")
	}
	if opts.Task == metadata.TaskSSLM && (opts.Alpha < 0 || opts.Alpha > 1) {
		return nerror.NewConfigError("alpha must be in [0, 1], got %g", opts.Alpha)
	}
	if opts.DictSize < 0 || opts.MinOccurrences < 1 {
		return nerror.NewConfigError("invalid dictionary limits %d, %d", opts.DictSize, opts.MinOccurrences)
	}
	if opts.LearningRate <= 0 || opts.LearningRateFeatures <= 0 {
		return nerror.NewConfigError("learning rates must be positive")
	}
	if opts.UsesTransitions() && opts.LearningRateTransitions <= 0 {
		return nerror.NewConfigError("transition learning rate must be positive")
	}
	return nil
}

// UsesTransitions reports whether the task trains a transition model.
func (opts *TrainOptions) UsesTransitions() bool {
	switch opts.Task {
	case metadata.TaskNER, metadata.TaskSRL, metadata.TaskSRLBoundary:
		return true
	}
	return false
}
