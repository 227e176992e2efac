// Package nn implements the window and convolutional networks scoring
// tags, together with the language and sentiment model variants sharing
// the same window core.
package nn

import (
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/golangast/nlpnet/crf/crf_model"
	"github.com/golangast/nlpnet/internal/nerror"
	"github.com/golangast/nlpnet/neural/tensor"
)

// NetworkConfig describes the layer sizes of a window network.
type NetworkConfig struct {
	Window      int
	HiddenSize  int
	Hidden2Size int // 0 disables the second hidden layer
	NumOutputs  int

	PaddingLeft  []int
	PaddingRight []int
}

// Network is the feedforward window classifier. Each token is scored from
// the embeddings of the Window tokens centred on it.
type Network struct {
	Window  int
	Tables  []*FeatureTable
	Hidden  *Linear
	Hidden2 *Linear
	Output  *Linear
	// Transitions is nil when tags are decoded independently.
	Transitions *crf_model.Transitions

	PaddingLeft  []int
	PaddingRight []int

	upd *updater
}

// NewNetwork creates a network with random weights over the given tables.
func NewNetwork(rng *rand.Rand, tables []*FeatureTable, cfg NetworkConfig) (*Network, error) {
	if cfg.Window <= 0 || cfg.Window%2 == 0 {
		return nil, nerror.NewConfigError("window size must be a positive odd number, got %d", cfg.Window)
	}
	if cfg.HiddenSize <= 0 || cfg.NumOutputs <= 0 || cfg.Hidden2Size < 0 {
		return nil, nerror.NewConfigError("invalid layer sizes %d/%d/%d", cfg.HiddenSize, cfg.Hidden2Size, cfg.NumOutputs)
	}
	if len(tables) == 0 {
		return nil, nerror.NewConfigError("a network needs at least one feature table")
	}
	if err := checkPadding(tables, cfg.PaddingLeft, cfg.PaddingRight); err != nil {
		return nil, err
	}
	n := &Network{
		Window:       cfg.Window,
		Tables:       tables,
		Hidden:       NewLinear(rng, cfg.Window*tablesWidth(tables), cfg.HiddenSize),
		PaddingLeft:  cfg.PaddingLeft,
		PaddingRight: cfg.PaddingRight,
	}
	top := cfg.HiddenSize
	if cfg.Hidden2Size > 0 {
		n.Hidden2 = NewLinear(rng, cfg.HiddenSize, cfg.Hidden2Size)
		top = cfg.Hidden2Size
	}
	n.Output = NewLinear(rng, top, cfg.NumOutputs)
	return n, nil
}

// SetLearningRates configures the step sizes used by the training methods.
func (n *Network) SetLearningRates(rates LearningRates) {
	n.upd = newUpdater(rates, []*Linear{n.Hidden, n.Hidden2, n.Output}, n.Tables)
}

func (n *Network) trainer() *updater {
	if n.upd == nil {
		n.SetLearningRates(DefaultLearningRates)
	}
	return n.upd
}

// NumOutputs returns the number of scores per window.
func (n *Network) NumOutputs() int {
	return n.Output.OutputDim()
}

// windowPass keeps the activations of one window for back-propagation.
type windowPass struct {
	x      []float64
	h      []float64
	h2     []float64
	scores []float64
}

func (n *Network) newPass() *windowPass {
	p := &windowPass{
		x:      make([]float64, n.Hidden.InputDim()),
		h:      make([]float64, n.Hidden.OutputDim()),
		scores: make([]float64, n.Output.OutputDim()),
	}
	if n.Hidden2 != nil {
		p.h2 = make([]float64, n.Hidden2.OutputDim())
	}
	return p
}

func (n *Network) pad(sentence [][]int) [][]int {
	return padSentence(sentence, n.PaddingLeft, n.PaddingRight, n.Window/2)
}

// forward scores the window of padded starting at start.
func (n *Network) forward(padded [][]int, start int, p *windowPass) {
	gatherWindow(n.Tables, padded, start, n.Window, p.x)
	n.Hidden.Forward(p.x, p.h)
	HardTanh(p.h)
	top := p.h
	if n.Hidden2 != nil {
		n.Hidden2.Forward(p.h, p.h2)
		HardTanh(p.h2)
		top = p.h2
	}
	n.Output.Forward(top, p.scores)
}

// backward accumulates the gradients of a window given the gradient of the
// loss with respect to its scores.
func (n *Network) backward(padded [][]int, start int, p *windowPass, gScores []float64) {
	top := p.h
	if n.Hidden2 != nil {
		top = p.h2
	}
	gTop := make([]float64, len(top))
	n.Output.Backward(top, gScores, gTop)
	gH := gTop
	if n.Hidden2 != nil {
		HardTanhBackward(p.h2, gTop)
		gH = make([]float64, len(p.h))
		n.Hidden2.Backward(p.h, gTop, gH)
	}
	HardTanhBackward(p.h, gH)
	gX := make([]float64, len(p.x))
	n.Hidden.Backward(p.x, gH, gX)
	scatterWindow(n.Tables, padded, start, n.Window, gX, n.trainer().sparse)
}

// Scores returns one score vector per token of a converted sentence.
func (n *Network) Scores(sentence [][]int) [][]float64 {
	scores, _ := n.run(sentence)
	return scores
}

func (n *Network) run(sentence [][]int) ([][]float64, []*windowPass) {
	padded := n.pad(sentence)
	scores := make([][]float64, len(sentence))
	passes := make([]*windowPass, len(sentence))
	for i := range sentence {
		p := n.newPass()
		n.forward(padded, i, p)
		passes[i] = p
		scores[i] = p.scores
	}
	return scores, passes
}

// Tag returns the best tag index of every token, decoded with the
// transitions when the network has them.
func (n *Network) Tag(sentence [][]int) []int {
	scores := n.Scores(sentence)
	if n.Transitions != nil {
		return crf_model.Viterbi(scores, n.Transitions).Path
	}
	ans := make([]int, len(scores))
	for i, s := range scores {
		ans[i] = tensor.ArgMax(s)
	}
	return ans
}

// TrainSentence performs one online update on a tagged sentence and
// returns how many tokens were tagged correctly before the update.
func (n *Network) TrainSentence(sentence [][]int, tags []int) (int, error) {
	if len(sentence) != len(tags) {
		return 0, fmt.Errorf("sentence has %d tokens but %d tags", len(sentence), len(tags))
	}
	if len(sentence) == 0 {
		return 0, nil
	}
	upd := n.trainer()
	scores, passes := n.run(sentence)
	predicted, grads, err := scoreGradients(scores, tags, asTransitionModel(n.Transitions), upd.rates.Transitions)
	if err != nil {
		return 0, err
	}
	padded := n.pad(sentence)
	for i, g := range grads {
		if g != nil {
			n.backward(padded, i, passes[i], g)
		}
	}
	return countHits(predicted, tags), upd.step()
}
