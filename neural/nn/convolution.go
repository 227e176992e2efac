package nn

import (
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/golangast/nlpnet/crf/crf_model"
	"github.com/golangast/nlpnet/internal/nerror"
	"github.com/golangast/nlpnet/neural/tensor"
	"github.com/golangast/nlpnet/tagger/tag"
)

// ConvolutionConfig describes the layer sizes of a convolutional network.
type ConvolutionConfig struct {
	Window          int
	ConvolutionSize int
	Hidden2Size     int
	NumOutputs      int
	// MaxDist clips distances; the distance tables need 2*MaxDist+1 rows.
	MaxDist int

	PaddingLeft  []int
	PaddingRight []int
}

// ConvolutionalNetwork scores the tags of one target (a token or an
// argument span) relative to a predicate. Every sentence position is
// passed through the convolution layer, the results are max-pooled over the
// whole sentence and over the target span, and both pooled vectors feed
// the second hidden layer.
type ConvolutionalNetwork struct {
	Window     int
	MaxDist    int
	Tables     []*FeatureTable
	PredDist   *FeatureTable
	TargetDist *FeatureTable
	Conv       *Linear
	Hidden2    *Linear
	Output     *Linear
	// Transitions is nil for argument classification.
	Transitions *crf_model.Transitions

	PaddingLeft  []int
	PaddingRight []int

	upd *updater
}

// NewConvolutionalNetwork creates a network with random weights.
func NewConvolutionalNetwork(rng *rand.Rand, tables []*FeatureTable, predDist, targetDist *FeatureTable,
	cfg ConvolutionConfig) (*ConvolutionalNetwork, error) {
	if cfg.Window <= 0 || cfg.Window%2 == 0 {
		return nil, nerror.NewConfigError("window size must be a positive odd number, got %d", cfg.Window)
	}
	if cfg.ConvolutionSize <= 0 || cfg.Hidden2Size <= 0 || cfg.NumOutputs <= 0 {
		return nil, nerror.NewConfigError("invalid layer sizes %d/%d/%d", cfg.ConvolutionSize, cfg.Hidden2Size, cfg.NumOutputs)
	}
	if cfg.MaxDist <= 0 {
		return nil, nerror.NewConfigError("maximum distance must be positive, got %d", cfg.MaxDist)
	}
	if len(tables) == 0 || predDist == nil || targetDist == nil {
		return nil, nerror.NewConfigError("a convolutional network needs token and distance tables")
	}
	for _, dt := range []*FeatureTable{predDist, targetDist} {
		if dt.NumValues() != 2*cfg.MaxDist+1 {
			return nil, nerror.NewConfigError("distance table %s has %d rows, expected %d",
				dt.Spec.Key(), dt.NumValues(), 2*cfg.MaxDist+1)
		}
	}
	if err := checkPadding(tables, cfg.PaddingLeft, cfg.PaddingRight); err != nil {
		return nil, err
	}
	inputDim := cfg.Window*tablesWidth(tables) + predDist.Width() + targetDist.Width()
	return &ConvolutionalNetwork{
		Window:       cfg.Window,
		MaxDist:      cfg.MaxDist,
		Tables:       tables,
		PredDist:     predDist,
		TargetDist:   targetDist,
		Conv:         NewLinear(rng, inputDim, cfg.ConvolutionSize),
		Hidden2:      NewLinear(rng, 2*cfg.ConvolutionSize, cfg.Hidden2Size),
		Output:       NewLinear(rng, cfg.Hidden2Size, cfg.NumOutputs),
		PaddingLeft:  cfg.PaddingLeft,
		PaddingRight: cfg.PaddingRight,
	}, nil
}

// SetLearningRates configures the step sizes used by the training methods.
func (cn *ConvolutionalNetwork) SetLearningRates(rates LearningRates) {
	tables := append(append([]*FeatureTable{}, cn.Tables...), cn.PredDist, cn.TargetDist)
	cn.upd = newUpdater(rates, []*Linear{cn.Conv, cn.Hidden2, cn.Output}, tables)
}

func (cn *ConvolutionalNetwork) trainer() *updater {
	if cn.upd == nil {
		cn.SetLearningRates(DefaultLearningRates)
	}
	return cn.upd
}

// NumOutputs returns the number of scores per target.
func (cn *ConvolutionalNetwork) NumOutputs() int {
	return cn.Output.OutputDim()
}

// DistanceCode returns the distance table row of position relative to a
// span: 0 inside it, negative before, positive after, clipped to maxDist.
func DistanceCode(position int, span tag.Span, maxDist int) int {
	d := 0
	switch {
	case position < span.Start:
		d = position - span.Start
	case position > span.End:
		d = position - span.End
	}
	d = max(-maxDist, min(maxDist, d))
	return d + maxDist
}

// convPass keeps the activations of one target for back-propagation.
type convPass struct {
	target tag.Span
	xs     [][]float64
	conv   [][]float64
	// argmax positions of the global and the target pooling
	maxGlobal []int
	maxLocal  []int
	pooled    []float64
	h2        []float64
	scores    []float64
}

func (cn *ConvolutionalNetwork) forward(padded [][]int, length, predicate int, target tag.Span) *convPass {
	size := cn.Conv.OutputDim()
	p := &convPass{
		target:    target,
		xs:        make([][]float64, length),
		conv:      make([][]float64, length),
		maxGlobal: make([]int, size),
		maxLocal:  make([]int, size),
		pooled:    make([]float64, 2*size),
		h2:        make([]float64, cn.Hidden2.OutputDim()),
		scores:    make([]float64, cn.Output.OutputDim()),
	}
	predSpan := tag.Span{Start: predicate, End: predicate}
	for j := 0; j < length; j++ {
		x := make([]float64, cn.Conv.InputDim())
		offset := gatherWindow(cn.Tables, padded, j, cn.Window, x)
		offset += copy(x[offset:], cn.PredDist.Row(DistanceCode(j, predSpan, cn.MaxDist)))
		copy(x[offset:], cn.TargetDist.Row(DistanceCode(j, target, cn.MaxDist)))
		p.xs[j] = x
		p.conv[j] = make([]float64, size)
		cn.Conv.Forward(x, p.conv[j])
	}
	for d := 0; d < size; d++ {
		g, l := 0, target.Start
		for j := 1; j < length; j++ {
			if p.conv[j][d] > p.conv[g][d] {
				g = j
			}
		}
		for j := target.Start + 1; j <= target.End; j++ {
			if p.conv[j][d] > p.conv[l][d] {
				l = j
			}
		}
		p.maxGlobal[d], p.maxLocal[d] = g, l
		p.pooled[d] = p.conv[g][d]
		p.pooled[size+d] = p.conv[l][d]
	}
	cn.Hidden2.Forward(p.pooled, p.h2)
	HardTanh(p.h2)
	cn.Output.Forward(p.h2, p.scores)
	return p
}

func (cn *ConvolutionalNetwork) backward(padded [][]int, predicate int, p *convPass, gScores []float64) {
	upd := cn.trainer()
	gH2 := make([]float64, len(p.h2))
	cn.Output.Backward(p.h2, gScores, gH2)
	HardTanhBackward(p.h2, gH2)
	gPooled := make([]float64, len(p.pooled))
	cn.Hidden2.Backward(p.pooled, gH2, gPooled)

	// only the positions reaching the maxima receive gradient
	size := cn.Conv.OutputDim()
	gConv := make(map[int][]float64)
	route := func(j, d int, g float64) {
		if g == 0 {
			return
		}
		if gConv[j] == nil {
			gConv[j] = make([]float64, size)
		}
		gConv[j][d] += g
	}
	for d := 0; d < size; d++ {
		route(p.maxGlobal[d], d, gPooled[d])
		route(p.maxLocal[d], d, gPooled[size+d])
	}

	predSpan := tag.Span{Start: predicate, End: predicate}
	numTables := len(cn.Tables)
	for j, g := range gConv {
		gX := make([]float64, len(p.xs[j]))
		cn.Conv.Backward(p.xs[j], g, gX)
		offset := scatterWindow(cn.Tables, padded, j, cn.Window, gX, upd.sparse)
		w := cn.PredDist.Width()
		upd.sparse[numTables].Add(DistanceCode(j, predSpan, cn.MaxDist), gX[offset:offset+w])
		offset += w
		upd.sparse[numTables+1].Add(DistanceCode(j, p.target, cn.MaxDist), gX[offset:])
	}
}

func (cn *ConvolutionalNetwork) checkInput(sentence [][]int, predicate int, targets []tag.Span) error {
	if predicate < 0 || predicate >= len(sentence) {
		return fmt.Errorf("predicate index %d outside a sentence of %d tokens", predicate, len(sentence))
	}
	for _, t := range targets {
		if t.Start < 0 || t.End < t.Start || t.End >= len(sentence) {
			return fmt.Errorf("target span [%d, %d] outside a sentence of %d tokens", t.Start, t.End, len(sentence))
		}
	}
	return nil
}

func (cn *ConvolutionalNetwork) run(sentence [][]int, predicate int, targets []tag.Span) ([][]float64, []*convPass, [][]int) {
	padded := padSentence(sentence, cn.PaddingLeft, cn.PaddingRight, cn.Window/2)
	scores := make([][]float64, len(targets))
	passes := make([]*convPass, len(targets))
	for i, t := range targets {
		passes[i] = cn.forward(padded, len(sentence), predicate, t)
		scores[i] = passes[i].scores
	}
	return scores, passes, padded
}

func tokenTargets(length int) []tag.Span {
	ans := make([]tag.Span, length)
	for i := range ans {
		ans[i] = tag.Span{Start: i, End: i}
	}
	return ans
}

// Scores returns one score vector per target.
func (cn *ConvolutionalNetwork) Scores(sentence [][]int, predicate int, targets []tag.Span) ([][]float64, error) {
	if err := cn.checkInput(sentence, predicate, targets); err != nil {
		return nil, err
	}
	scores, _, _ := cn.run(sentence, predicate, targets)
	return scores, nil
}

// TagSentence tags every token with respect to the predicate, decoding
// with the transitions when the network has them.
func (cn *ConvolutionalNetwork) TagSentence(sentence [][]int, predicate int) ([]int, error) {
	scores, err := cn.Scores(sentence, predicate, tokenTargets(len(sentence)))
	if err != nil {
		return nil, err
	}
	if cn.Transitions != nil {
		return crf_model.Viterbi(scores, cn.Transitions).Path, nil
	}
	return argMaxAll(scores), nil
}

// ClassifyArguments returns the best label of every argument span.
func (cn *ConvolutionalNetwork) ClassifyArguments(sentence [][]int, predicate int, spans []tag.Span) ([]int, error) {
	scores, err := cn.Scores(sentence, predicate, spans)
	if err != nil {
		return nil, err
	}
	return argMaxAll(scores), nil
}

func argMaxAll(scores [][]float64) []int {
	ans := make([]int, len(scores))
	for i, s := range scores {
		ans[i] = tensor.ArgMax(s)
	}
	return ans
}

func (cn *ConvolutionalNetwork) train(sentence [][]int, predicate int, targets []tag.Span, gold []int,
	trans transitionModel) (int, error) {
	if len(targets) != len(gold) {
		return 0, fmt.Errorf("%d targets but %d gold tags", len(targets), len(gold))
	}
	if len(targets) == 0 {
		return 0, nil
	}
	if err := cn.checkInput(sentence, predicate, targets); err != nil {
		return 0, err
	}
	upd := cn.trainer()
	scores, passes, padded := cn.run(sentence, predicate, targets)
	predicted, grads, err := scoreGradients(scores, gold, trans, upd.rates.Transitions)
	if err != nil {
		return 0, err
	}
	for i, g := range grads {
		if g != nil {
			cn.backward(padded, predicate, passes[i], g)
		}
	}
	return countHits(predicted, gold), upd.step()
}

// TrainSentence performs one online update on the token tags of a sentence
// relative to a predicate.
func (cn *ConvolutionalNetwork) TrainSentence(sentence [][]int, predicate int, tags []int) (int, error) {
	return cn.train(sentence, predicate, tokenTargets(len(sentence)), tags, asTransitionModel(cn.Transitions))
}

// TrainArguments performs one online update on the labels of the argument
// spans of a predicate.
func (cn *ConvolutionalNetwork) TrainArguments(sentence [][]int, predicate int, spans []tag.Span, labels []int) (int, error) {
	return cn.train(sentence, predicate, spans, labels, nil)
}
