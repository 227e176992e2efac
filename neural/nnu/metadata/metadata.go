// Package metadata describes how a model was configured so that its token
// converter and network can be rebuilt at load time.
package metadata

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/czcorpus/cnc-gokit/collections"

	"github.com/golangast/nlpnet/internal/nerror"
)

// Task identifies what a model was trained for.
type Task string

const (
	TaskPOS           Task = "pos"
	TaskNER           Task = "ner"
	TaskSRL           Task = "srl"
	TaskSRLBoundary   Task = "srl_boundary"
	TaskSRLClassify   Task = "srl_classify"
	TaskSRLPredicates Task = "srl_predicates"
	TaskLM            Task = "lm"
	TaskSSLM          Task = "sslm"
)

// Tasks lists every supported task.
var Tasks = []Task{
	TaskPOS, TaskNER, TaskSRL, TaskSRLBoundary, TaskSRLClassify,
	TaskSRLPredicates, TaskLM, TaskSSLM,
}

// ParseTask validates a task identifier.
func ParseTask(s string) (Task, error) {
	t := Task(s)
	if !collections.SliceContains(Tasks, t) {
		return "", nerror.NewConfigError("unknown task: %s", s)
	}
	return t, nil
}

// IsSRL reports whether the task is one of the SRL variants.
func (t Task) IsSRL() bool {
	return t == TaskSRL || t == TaskSRLBoundary || t == TaskSRLClassify || t == TaskSRLPredicates
}

// Convolutional reports whether the task uses the convolutional network.
func (t Task) Convolutional() bool {
	return t == TaskSRL || t == TaskSRLBoundary || t == TaskSRLClassify
}

// Feature kinds, listed in the order their tables are stored.
const (
	FeatureTypes      = "types"
	FeatureCaps       = "caps"
	FeatureSuffix     = "suffix"
	FeaturePrefix     = "prefix"
	FeaturePOS        = "pos"
	FeatureChunk      = "chunk"
	FeatureGazetteer  = "gazetteer"
	FeaturePredDist   = "pred_dist"
	FeatureTargetDist = "target_dist"
)

// FeatureSpec records the shape of one feature table.
type FeatureSpec struct {
	Kind string `json:"kind"`
	// Name distinguishes tables of the same kind (gazetteer categories).
	Name      string `json:"name,omitempty"`
	NumValues int    `json:"numValues"`
	Width     int    `json:"width"`
}

// Key returns a file-name friendly identifier of the table.
func (fs FeatureSpec) Key() string {
	if fs.Name != "" {
		return fs.Kind + "-" + fs.Name
	}
	return fs.Kind
}

// Metadata is created once together with a new model and never
// modified afterwards.
type Metadata struct {
	Task         Task     `json:"task"`
	UseCaps      bool     `json:"useCaps"`
	UseSuffix    bool     `json:"useSuffix"`
	UsePrefix    bool     `json:"usePrefix"`
	UsePOS       bool     `json:"usePos"`
	UseChunk     bool     `json:"useChunk"`
	UseLemma     bool     `json:"useLemma"`
	UseGazetteer bool     `json:"useGazetteer"`
	Gazetteers   []string `json:"gazetteers,omitempty"`

	Window          int `json:"window"`
	HiddenSize      int `json:"hiddenSize"`
	Hidden2Size     int `json:"hidden2Size,omitempty"`
	ConvolutionSize int `json:"convolutionSize,omitempty"`
	MaxDist         int `json:"maxDist,omitempty"`
	NumTags         int `json:"numTags,omitempty"`

	// TagScheme is "iob", "iobes" or empty when no transitions are used.
	TagScheme      string `json:"tagScheme,omitempty"`
	OnlyBoundaries bool   `json:"onlyBoundaries,omitempty"`
	Transitions    bool   `json:"transitions"`

	Features []FeatureSpec `json:"features"`
}

// TokenFeatures returns the per-token feature specs (everything except the
// distance tables of the convolutional network).
func (md *Metadata) TokenFeatures() []FeatureSpec {
	ans := make([]FeatureSpec, 0, len(md.Features))
	for _, f := range md.Features {
		if f.Kind != FeaturePredDist && f.Kind != FeatureTargetDist {
			ans = append(ans, f)
		}
	}
	return ans
}

// Validate checks the internal consistency of the metadata.
func (md *Metadata) Validate() error {
	if _, err := ParseTask(string(md.Task)); err != nil {
		return err
	}
	if md.Window <= 0 || md.Window%2 == 0 {
		return nerror.NewConfigError("window size must be a positive odd number, got %d", md.Window)
	}
	if len(md.Features) == 0 || md.Features[0].Kind != FeatureTypes {
		return nerror.NewConfigError("first feature table must be %s", FeatureTypes)
	}
	order := map[string]int{
		FeatureTypes: 0, FeatureCaps: 1, FeatureSuffix: 2, FeaturePrefix: 3,
		FeaturePOS: 4, FeatureChunk: 5, FeatureGazetteer: 6, FeaturePredDist: 7,
		FeatureTargetDist: 8,
	}
	last := -1
	for _, f := range md.Features {
		pos, ok := order[f.Kind]
		if !ok {
			return nerror.NewConfigError("unknown feature kind %s", f.Kind)
		}
		if pos < last || (pos == last && f.Kind != FeatureGazetteer) {
			return nerror.NewConfigError("feature %s out of order", f.Key())
		}
		last = pos
		if f.NumValues <= 0 || f.Width <= 0 {
			return nerror.NewConfigError("feature %s has invalid shape [%d, %d]", f.Key(), f.NumValues, f.Width)
		}
	}
	enabled := map[string]bool{
		FeatureCaps: md.UseCaps, FeatureSuffix: md.UseSuffix, FeaturePrefix: md.UsePrefix,
		FeaturePOS: md.UsePOS, FeatureChunk: md.UseChunk, FeatureGazetteer: md.UseGazetteer,
	}
	for kind, on := range enabled {
		if on != md.hasFeature(kind) {
			return nerror.NewConfigError("feature %s enabled=%t but table presence differs", kind, on)
		}
	}
	return nil
}

func (md *Metadata) hasFeature(kind string) bool {
	for _, f := range md.Features {
		if f.Kind == kind {
			return true
		}
	}
	return false
}

// CheckShapes verifies that loaded tables have exactly the declared shapes.
// shapes[i] is [rows, cols] of the i-th table in storage order.
func (md *Metadata) CheckShapes(shapes [][2]int) error {
	if len(shapes) != len(md.Features) {
		return nerror.NewConfigError(
			"metadata declares %d feature tables, got %d", len(md.Features), len(shapes))
	}
	for i, f := range md.Features {
		if shapes[i][0] != f.NumValues || shapes[i][1] != f.Width {
			return nerror.NewConfigError(
				"feature table %s has shape %v, metadata declares [%d %d]",
				f.Key(), shapes[i], f.NumValues, f.Width)
		}
	}
	return nil
}

// Save writes the metadata as JSON.
func (md *Metadata) Save(filePath string) error {
	data, err := json.MarshalIndent(md, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	return os.WriteFile(filePath, data, 0644)
}

// Load reads and validates metadata written by Save.
func Load(filePath string) (*Metadata, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, nerror.MissingResourceError{Resource: "metadata", Path: filePath, Err: err}
	}
	var md Metadata
	if err := json.Unmarshal(data, &md); err != nil {
		return nil, fmt.Errorf("failed to decode metadata %s: %w", filePath, err)
	}
	if err := md.Validate(); err != nil {
		return nil, err
	}
	return &md, nil
}
