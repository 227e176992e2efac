package nn

import (
	"fmt"

	"github.com/golangast/nlpnet/crf/crf_model"
	"github.com/golangast/nlpnet/internal/nerror"
	"github.com/golangast/nlpnet/neural/nnu/gobs"
	"github.com/golangast/nlpnet/neural/nnu/metadata"
	"github.com/golangast/nlpnet/neural/tensor"
)

// SaveTables writes every table to its own file, paths[i] receiving
// tables[i].
func SaveTables(tables []*FeatureTable, paths []string) error {
	if len(tables) != len(paths) {
		return fmt.Errorf("%d feature tables but %d paths", len(tables), len(paths))
	}
	for i, t := range tables {
		if err := gobs.Save(paths[i], t.Weights); err != nil {
			return fmt.Errorf("failed to save feature table %s: %w", t.Spec.Key(), err)
		}
	}
	return nil
}

// LoadTables reads the tables written by SaveTables. Each table must have
// exactly the shape its spec declares.
func LoadTables(specs []metadata.FeatureSpec, paths []string) ([]*FeatureTable, error) {
	if len(specs) != len(paths) {
		return nil, fmt.Errorf("%d feature specs but %d paths", len(specs), len(paths))
	}
	ans := make([]*FeatureTable, len(specs))
	for i, spec := range specs {
		weights := new(tensor.Tensor)
		if err := gobs.Load(paths[i], "feature table "+spec.Key(), weights); err != nil {
			return nil, err
		}
		t, err := NewFeatureTableFrom(spec, weights)
		if err != nil {
			return nil, err
		}
		ans[i] = t
	}
	return ans, nil
}

// networkFile holds everything of a Network except its feature tables.
type networkFile struct {
	Window       int
	Hidden       *Linear
	Hidden2      *Linear
	Output       *Linear
	Transitions  *crf_model.Transitions
	PaddingLeft  []int
	PaddingRight []int
}

// Save writes the weights, transitions and padding vectors of the network.
// The feature tables are saved separately with SaveTables.
func (n *Network) Save(filePath string) error {
	return gobs.Save(filePath, networkFile{
		Window:       n.Window,
		Hidden:       n.Hidden,
		Hidden2:      n.Hidden2,
		Output:       n.Output,
		Transitions:  n.Transitions,
		PaddingLeft:  n.PaddingLeft,
		PaddingRight: n.PaddingRight,
	})
}

// LoadNetwork reads a network written by Save and attaches the tables.
func LoadNetwork(filePath string, tables []*FeatureTable) (*Network, error) {
	var nf networkFile
	if err := gobs.Load(filePath, "network", &nf); err != nil {
		return nil, err
	}
	if nf.Hidden == nil || nf.Output == nil {
		return nil, nerror.NewConfigError("network file %s misses its layers", filePath)
	}
	if want := nf.Window * tablesWidth(tables); nf.Hidden.InputDim() != want {
		return nil, nerror.NewConfigError("network expects %d inputs, feature tables provide %d", nf.Hidden.InputDim(), want)
	}
	if err := checkPadding(tables, nf.PaddingLeft, nf.PaddingRight); err != nil {
		return nil, nerror.NewConfigError("network %s: %s", filePath, err)
	}
	if err := checkTransitions(nf.Transitions, nf.Output); err != nil {
		return nil, err
	}
	return &Network{
		Window:       nf.Window,
		Tables:       tables,
		Hidden:       nf.Hidden,
		Hidden2:      nf.Hidden2,
		Output:       nf.Output,
		Transitions:  nf.Transitions,
		PaddingLeft:  nf.PaddingLeft,
		PaddingRight: nf.PaddingRight,
	}, nil
}

func checkTransitions(t *crf_model.Transitions, output *Linear) error {
	if t != nil && t.NumTags != output.OutputDim() {
		return nerror.NewConfigError("transitions cover %d tags, network outputs %d", t.NumTags, output.OutputDim())
	}
	return nil
}

type convolutionFile struct {
	Window       int
	MaxDist      int
	Conv         *Linear
	Hidden2      *Linear
	Output       *Linear
	Transitions  *crf_model.Transitions
	PaddingLeft  []int
	PaddingRight []int
}

// Save writes the weights, transitions and padding vectors of the network.
// The token and distance tables are saved separately with SaveTables.
func (cn *ConvolutionalNetwork) Save(filePath string) error {
	return gobs.Save(filePath, convolutionFile{
		Window:       cn.Window,
		MaxDist:      cn.MaxDist,
		Conv:         cn.Conv,
		Hidden2:      cn.Hidden2,
		Output:       cn.Output,
		Transitions:  cn.Transitions,
		PaddingLeft:  cn.PaddingLeft,
		PaddingRight: cn.PaddingRight,
	})
}

// LoadConvolutionalNetwork reads a network written by Save and attaches
// the tables.
func LoadConvolutionalNetwork(filePath string, tables []*FeatureTable, predDist, targetDist *FeatureTable) (*ConvolutionalNetwork, error) {
	var cf convolutionFile
	if err := gobs.Load(filePath, "convolutional network", &cf); err != nil {
		return nil, err
	}
	if cf.Conv == nil || cf.Hidden2 == nil || cf.Output == nil {
		return nil, nerror.NewConfigError("network file %s misses its layers", filePath)
	}
	want := cf.Window*tablesWidth(tables) + predDist.Width() + targetDist.Width()
	if cf.Conv.InputDim() != want {
		return nil, nerror.NewConfigError("network expects %d inputs, feature tables provide %d", cf.Conv.InputDim(), want)
	}
	for _, dt := range []*FeatureTable{predDist, targetDist} {
		if dt.NumValues() != 2*cf.MaxDist+1 {
			return nil, nerror.NewConfigError("distance table %s has %d rows, network needs %d",
				dt.Spec.Key(), dt.NumValues(), 2*cf.MaxDist+1)
		}
	}
	if err := checkPadding(tables, cf.PaddingLeft, cf.PaddingRight); err != nil {
		return nil, nerror.NewConfigError("network %s: %s", filePath, err)
	}
	if err := checkTransitions(cf.Transitions, cf.Output); err != nil {
		return nil, err
	}
	return &ConvolutionalNetwork{
		Window:       cf.Window,
		MaxDist:      cf.MaxDist,
		Tables:       tables,
		PredDist:     predDist,
		TargetDist:   targetDist,
		Conv:         cf.Conv,
		Hidden2:      cf.Hidden2,
		Output:       cf.Output,
		Transitions:  cf.Transitions,
		PaddingLeft:  cf.PaddingLeft,
		PaddingRight: cf.PaddingRight,
	}, nil
}
