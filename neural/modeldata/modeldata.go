// Package modeldata puts a model together: it reads the resources of a
// task, builds the token converter the metadata describes and creates,
// loads or saves the network with its feature tables.
package modeldata

import (
	"fmt"
	"os"

	"golang.org/x/exp/rand"

	"github.com/golangast/nlpnet/crf/crf_model"
	"github.com/golangast/nlpnet/internal/config"
	"github.com/golangast/nlpnet/internal/nerror"
	"github.com/golangast/nlpnet/neural/nn"
	"github.com/golangast/nlpnet/neural/nnu/metadata"
	"github.com/golangast/nlpnet/tagger/attributes"
)

// Model is everything needed to tag with or train one task. Network is set
// for window tasks, Conv for the convolutional SRL tasks.
type Model struct {
	Metadata  *metadata.Metadata
	Resources *Resources
	Converter *attributes.TokenConverter
	Network   *nn.Network
	Conv      *nn.ConvolutionalNetwork
}

// Tables returns every feature table in storage order.
func (m *Model) Tables() []*nn.FeatureTable {
	if m.Conv != nil {
		return append(append([]*nn.FeatureTable{}, m.Conv.Tables...), m.Conv.PredDist, m.Conv.TargetDist)
	}
	return m.Network.Tables
}

// SetLearningRates configures the network being trained.
func (m *Model) SetLearningRates(rates nn.LearningRates) {
	if m.Conv != nil {
		m.Conv.SetLearningRates(rates)
		return
	}
	m.Network.SetLearningRates(rates)
}

// NewMetadata describes a new model trained with opts.
func NewMetadata(opts *config.TrainOptions, res *Resources) *metadata.Metadata {
	md := &metadata.Metadata{
		Task:         opts.Task,
		UseCaps:      opts.UseCaps,
		UseSuffix:    opts.UseSuffix,
		UsePrefix:    opts.UsePrefix,
		UsePOS:       opts.UsePOS,
		UseChunk:     opts.UseChunk,
		UseLemma:     opts.UseLemma,
		UseGazetteer: opts.UseGazetteer,
		Gazetteers:   res.GazetteerCategories(),
		Window:       opts.Window,
		Transitions:  opts.UsesTransitions(),
	}
	if res.Tags != nil {
		md.NumTags = res.Tags.Size()
	}
	if opts.Task.Convolutional() {
		md.ConvolutionSize = opts.ConvolutionSize
		md.Hidden2Size = opts.HiddenSize
		md.MaxDist = opts.MaxDist

	} else {
		md.HiddenSize = opts.HiddenSize
	}
	switch opts.Task {
	case metadata.TaskSRL:
		md.TagScheme = string(crf_model.SchemeIOB)
	case metadata.TaskSRLBoundary:
		md.TagScheme = string(crf_model.SchemeIOBES)
		md.OnlyBoundaries = true
	}
	return md
}

// NewConverter creates the converter of the features the metadata
// enables, in table order.
func NewConverter(md *metadata.Metadata, res *Resources) (*attributes.TokenConverter, error) {
	words, err := attributes.NewWordExtractor(res.Words, md.UseLemma)
	if err != nil {
		return nil, err
	}
	conv := attributes.NewTokenConverter(words)
	if md.UseCaps {
		conv.Add(attributes.NewCapsExtractor())
	}
	if md.UseSuffix {
		e, err := attributes.NewAffixExtractor(res.Suffixes)
		if err != nil {
			return nil, err
		}
		conv.Add(e)
	}
	if md.UsePrefix {
		e, err := attributes.NewAffixExtractor(res.Prefixes)
		if err != nil {
			return nil, err
		}
		conv.Add(e)
	}
	if md.UsePOS {
		e, err := attributes.NewPOSExtractor(res.POSTags)
		if err != nil {
			return nil, err
		}
		conv.Add(e)
	}
	if md.UseChunk {
		e, err := attributes.NewChunkExtractor(res.ChunkTags)
		if err != nil {
			return nil, err
		}
		conv.Add(e)
	}
	if md.UseGazetteer {
		if len(res.Gazetteers) != len(md.Gazetteers) {
			return nil, nerror.NewConfigError("metadata lists %d gazetteers, %d loaded", len(md.Gazetteers), len(res.Gazetteers))
		}
		for _, g := range res.Gazetteers {
			e, err := attributes.NewGazetteerExtractor(g)
			if err != nil {
				return nil, err
			}
			conv.Add(e)
		}
	}
	return conv, nil
}

// FeatureWidths maps a feature kind to its embedding width.
func FeatureWidths(opts *config.TrainOptions) map[string]int {
	return map[string]int{
		metadata.FeatureTypes:      opts.WordWidth,
		metadata.FeatureCaps:       opts.CapsWidth,
		metadata.FeatureSuffix:     opts.SuffixWidth,
		metadata.FeaturePrefix:     opts.PrefixWidth,
		metadata.FeaturePOS:        opts.POSWidth,
		metadata.FeatureChunk:      opts.ChunkWidth,
		metadata.FeatureGazetteer:  opts.GazetteerWidth,
		metadata.FeaturePredDist:   opts.PredDistWidth,
		metadata.FeatureTargetDist: opts.TargetDistWidth,
	}
}

// SetFeatures fills md.Features from the converter columns, adding the
// distance tables of convolutional tasks.
func SetFeatures(md *metadata.Metadata, conv *attributes.TokenConverter, widths map[string]int) {
	md.Features = md.Features[:0]
	gaz := 0
	for _, e := range conv.Extractors() {
		spec := metadata.FeatureSpec{Kind: e.Kind(), NumValues: e.NumValues(), Width: widths[e.Kind()]}
		if e.Kind() == metadata.FeatureGazetteer {
			spec.Name = md.Gazetteers[gaz]
			gaz++
		}
		md.Features = append(md.Features, spec)
	}
	if md.Task.Convolutional() {
		rows := 2*md.MaxDist + 1
		md.Features = append(md.Features,
			metadata.FeatureSpec{Kind: metadata.FeaturePredDist, NumValues: rows, Width: widths[metadata.FeaturePredDist]},
			metadata.FeatureSpec{Kind: metadata.FeatureTargetDist, NumValues: rows, Width: widths[metadata.FeatureTargetDist]},
		)
	}
}

func newTransitions(md *metadata.Metadata, res *Resources) (*crf_model.Transitions, error) {
	if !md.Transitions {
		return nil, nil
	}
	t := crf_model.NewTransitions(res.Tags.Size())
	if md.TagScheme == "" {
		return t, nil
	}
	if err := t.Init(crf_model.Scheme(md.TagScheme), md.OnlyBoundaries, res.Tags.Tags); err != nil {
		return nil, nerror.NewConfigError("cannot initialize transitions: %s", err)
	}
	return t, nil
}

func numOutputs(md *metadata.Metadata) int {
	switch md.Task {
	case metadata.TaskLM:
		return 1
	case metadata.TaskSSLM:
		return 2
	}
	return md.NumTags
}

// CreateNetwork creates a model with random weights. md.Features must be
// set.
func CreateNetwork(rng *rand.Rand, md *metadata.Metadata, res *Resources, conv *attributes.TokenConverter) (*Model, error) {
	if err := md.Validate(); err != nil {
		return nil, err
	}
	tables := make([]*nn.FeatureTable, len(md.Features))
	for i, spec := range md.Features {
		tables[i] = nn.NewFeatureTable(spec, rng)
	}
	trans, err := newTransitions(md, res)
	if err != nil {
		return nil, err
	}
	m := &Model{Metadata: md, Resources: res, Converter: conv}
	if md.Task.Convolutional() {
		k := len(tables) - 2
		m.Conv, err = nn.NewConvolutionalNetwork(rng, tables[:k], tables[k], tables[k+1], nn.ConvolutionConfig{
			Window:          md.Window,
			ConvolutionSize: md.ConvolutionSize,
			Hidden2Size:     md.Hidden2Size,
			NumOutputs:      numOutputs(md),
			MaxDist:         md.MaxDist,
			PaddingLeft:     conv.PaddingLeft(),
			PaddingRight:    conv.PaddingRight(),
		})
		if err != nil {
			return nil, err
		}
		m.Conv.Transitions = trans
		return m, nil
	}
	m.Network, err = nn.NewNetwork(rng, tables, nn.NetworkConfig{
		Window:       md.Window,
		HiddenSize:   md.HiddenSize,
		Hidden2Size:  md.Hidden2Size,
		NumOutputs:   numOutputs(md),
		PaddingLeft:  conv.PaddingLeft(),
		PaddingRight: conv.PaddingRight(),
	})
	if err != nil {
		return nil, err
	}
	m.Network.Transitions = trans
	return m, nil
}

// SaveModel writes the metadata, every feature table and the network.
func SaveModel(paths config.Paths, m *Model) error {
	if err := os.MkdirAll(paths.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}
	if err := m.Metadata.Save(paths.Metadata(m.Metadata.Task)); err != nil {
		return fmt.Errorf("failed to save metadata: %w", err)
	}
	if err := nn.SaveTables(m.Tables(), paths.FeatureTables(m.Metadata.Task, m.Metadata.Features)); err != nil {
		return err
	}
	if m.Conv != nil {
		return m.Conv.Save(paths.Network(m.Metadata.Task))
	}
	return m.Network.Save(paths.Network(m.Metadata.Task))
}

// LoadModel reads a model saved by SaveModel. Any disagreement between the
// metadata, the resources and the stored parameters is a
// nerror.ConfigError.
func LoadModel(paths config.Paths, task metadata.Task) (*Model, error) {
	md, err := metadata.Load(paths.Metadata(task))
	if err != nil {
		return nil, err
	}
	if md.Task != task {
		return nil, nerror.NewConfigError("metadata %s describes task %s", paths.Metadata(task), md.Task)
	}
	res, err := LoadResources(paths, md)
	if err != nil {
		return nil, err
	}
	conv, err := NewConverter(md, res)
	if err != nil {
		return nil, err
	}
	tokenSpecs := md.TokenFeatures()
	numValues := conv.NumValues()
	if len(numValues) != len(tokenSpecs) {
		return nil, nerror.NewConfigError("converter has %d features, metadata %d", len(numValues), len(tokenSpecs))
	}
	for i, spec := range tokenSpecs {
		if numValues[i] != spec.NumValues {
			return nil, nerror.NewConfigError("feature %s has %d values, metadata declares %d",
				spec.Key(), numValues[i], spec.NumValues)
		}
	}
	if res.Tags != nil && md.NumTags != res.Tags.Size() {
		return nil, nerror.NewConfigError("tag dictionary has %d tags, metadata declares %d", res.Tags.Size(), md.NumTags)
	}

	tables, err := nn.LoadTables(md.Features, paths.FeatureTables(task, md.Features))
	if err != nil {
		return nil, err
	}
	shapes := make([][2]int, len(tables))
	for i, t := range tables {
		shapes[i] = [2]int{t.NumValues(), t.Width()}
	}
	if err := md.CheckShapes(shapes); err != nil {
		return nil, err
	}

	m := &Model{Metadata: md, Resources: res, Converter: conv}
	if md.Task.Convolutional() {
		k := len(tables) - 2
		if m.Conv, err = nn.LoadConvolutionalNetwork(paths.Network(task), tables[:k], tables[k], tables[k+1]); err != nil {
			return nil, err
		}
		if err := checkConvolution(md, m.Conv); err != nil {
			return nil, err
		}
		return m, nil
	}
	if m.Network, err = nn.LoadNetwork(paths.Network(task), tables); err != nil {
		return nil, err
	}
	if err := checkNetwork(md, m.Network); err != nil {
		return nil, err
	}
	return m, nil
}

func checkNetwork(md *metadata.Metadata, n *nn.Network) error {
	if n.Window != md.Window {
		return nerror.NewConfigError("network window is %d, metadata declares %d", n.Window, md.Window)
	}
	if n.Hidden.OutputDim() != md.HiddenSize {
		return nerror.NewConfigError("hidden layer has %d units, metadata declares %d", n.Hidden.OutputDim(), md.HiddenSize)
	}
	hidden2 := 0
	if n.Hidden2 != nil {
		hidden2 = n.Hidden2.OutputDim()
	}
	if hidden2 != md.Hidden2Size {
		return nerror.NewConfigError("second hidden layer has %d units, metadata declares %d", hidden2, md.Hidden2Size)
	}
	if n.NumOutputs() != numOutputs(md) {
		return nerror.NewConfigError("network has %d outputs, metadata declares %d", n.NumOutputs(), numOutputs(md))
	}
	return checkTransitions(md, n.Transitions != nil)
}

func checkConvolution(md *metadata.Metadata, cn *nn.ConvolutionalNetwork) error {
	if cn.Window != md.Window {
		return nerror.NewConfigError("network window is %d, metadata declares %d", cn.Window, md.Window)
	}
	if cn.MaxDist != md.MaxDist {
		return nerror.NewConfigError("network distance limit is %d, metadata declares %d", cn.MaxDist, md.MaxDist)
	}
	if cn.Conv.OutputDim() != md.ConvolutionSize {
		return nerror.NewConfigError("convolution layer has %d units, metadata declares %d", cn.Conv.OutputDim(), md.ConvolutionSize)
	}
	if cn.Hidden2.OutputDim() != md.Hidden2Size {
		return nerror.NewConfigError("hidden layer has %d units, metadata declares %d", cn.Hidden2.OutputDim(), md.Hidden2Size)
	}
	if cn.NumOutputs() != numOutputs(md) {
		return nerror.NewConfigError("network has %d outputs, metadata declares %d", cn.NumOutputs(), numOutputs(md))
	}
	return checkTransitions(md, cn.Transitions != nil)
}

func checkTransitions(md *metadata.Metadata, stored bool) error {
	if stored != md.Transitions {
		return nerror.NewConfigError("network stores transitions=%t, metadata declares %t", stored, md.Transitions)
	}
	return nil
}
