package nn

import (
	"golang.org/x/exp/rand"

	"github.com/golangast/nlpnet/internal/nerror"
	"github.com/golangast/nlpnet/neural/nnu/vocab"
)

// firstCorpusWord is the lowest word index a corrupted window may receive;
// the reserved dictionary entries are never sampled.
const firstCorpusWord = vocab.PaddingRightIndex + 1

// LanguageModel scores how plausible a window is. It is trained by ranking
// every window of the corpus above the same window with its centre word
// replaced by a random one.
type LanguageModel struct {
	*Network
	rng *rand.Rand
}

// NewLanguageModel creates a single-output network. The word table must be
// the first one.
func NewLanguageModel(rng *rand.Rand, tables []*FeatureTable, cfg NetworkConfig) (*LanguageModel, error) {
	cfg.NumOutputs = 1
	n, err := NewNetwork(rng, tables, cfg)
	if err != nil {
		return nil, err
	}
	return WrapLanguageModel(n, rng)
}

// WrapLanguageModel turns a loaded single-output network into a language
// model.
func WrapLanguageModel(n *Network, rng *rand.Rand) (*LanguageModel, error) {
	if n.NumOutputs() != 1 {
		return nil, nerror.NewConfigError("a language model has 1 output, network has %d", n.NumOutputs())
	}
	if err := checkCorruptible(n); err != nil {
		return nil, err
	}
	return &LanguageModel{Network: n, rng: rng}, nil
}

func checkCorruptible(n *Network) error {
	if n.Tables[0].NumValues() <= firstCorpusWord+1 {
		return nerror.NewConfigError("the word table needs at least two corpus words to sample corrupted windows")
	}
	return nil
}

// corrupt returns a copy of padded whose centre word of the window starting
// at start is replaced by a different random word.
func corrupt(rng *rand.Rand, n *Network, padded [][]int, start int) [][]int {
	centre := start + n.Window/2
	original := padded[centre][0]
	numWords := n.Tables[0].NumValues()
	word := original
	for word == original {
		word = firstCorpusWord + rng.Intn(numWords-firstCorpusWord)
	}
	ans := make([][]int, len(padded))
	copy(ans, padded)
	token := append([]int(nil), padded[centre]...)
	token[0] = word
	ans[centre] = token
	return ans
}

// Score returns the plausibility of the window centred on every token.
func (lm *LanguageModel) Score(sentence [][]int) []float64 {
	scores := lm.Scores(sentence)
	ans := make([]float64, len(scores))
	for i, s := range scores {
		ans[i] = s[0]
	}
	return ans
}

// TrainSentence performs one ranking update per window of the sentence.
// It returns the number of windows already ranked above their corruption
// by the margin.
func (lm *LanguageModel) TrainSentence(sentence [][]int) (int, error) {
	upd := lm.trainer()
	padded := lm.pad(sentence)
	hits := 0
	for i := range sentence {
		corrupted := corrupt(lm.rng, lm.Network, padded, i)
		truePass, falsePass := lm.newPass(), lm.newPass()
		lm.forward(padded, i, truePass)
		lm.forward(corrupted, i, falsePass)
		if err := checkScores(truePass.scores, falsePass.scores); err != nil {
			return hits, err
		}
		if HingeLoss(truePass.scores[0], falsePass.scores[0]) == 0 {
			hits++
			continue
		}
		lm.backward(padded, i, truePass, []float64{-1})
		lm.backward(corrupted, i, falsePass, []float64{1})
		if err := upd.step(); err != nil {
			return hits, err
		}
	}
	return hits, nil
}
