package reader

import (
	"fmt"
	"io"
	"strings"

	"github.com/golangast/nlpnet/tagger/tag"
)

// PredicateTag and NoPredicateTag are the tags of the predicate detection
// task.
const (
	PredicateTag   = "V"
	NoPredicateTag = "O"
)

// Argument is a labelled span of a predicate.
type Argument struct {
	Label string
	Span  tag.Span
}

// Predicate is one predicate of a sentence with its arguments. The
// predicate's own V span is not part of Arguments.
type Predicate struct {
	Index     int
	Arguments []Argument
}

// SRLSentence is a sentence of an SRL corpus.
type SRLSentence struct {
	Tokens     []tag.Token
	Predicates []Predicate
}

// PredicateTags returns the tags of the predicate detection task.
func (s SRLSentence) PredicateTags() []string {
	ans := make([]string, len(s.Tokens))
	for i := range ans {
		ans[i] = NoPredicateTag
	}
	for _, p := range s.Predicates {
		ans[p.Index] = PredicateTag
	}
	return ans
}

// ReadSRL reads a CoNLL 2005 style corpus. Each token line has the columns
// word, lemma, POS, chunk, predicate and one proposition column per
// predicate, in bracket notation ("(A0*", "*", "*)", "(V*)"). The
// predicate column holds "-" for tokens that are not predicates.
// Sentences are separated by blank lines.
func ReadSRL(r io.Reader) ([]SRLSentence, error) {
	var ans []SRLSentence
	var rows [][]string
	startLine := 0
	flush := func() error {
		if len(rows) == 0 {
			return nil
		}
		s, err := parseSRLSentence(rows)
		if err != nil {
			return fmt.Errorf("sentence starting at line %d: %w", startLine, err)
		}
		ans = append(ans, s)
		rows = nil
		return nil
	}
	scanner := newScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		if len(rows) == 0 {
			startLine = lineNum
		}
		rows = append(rows, fields)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return ans, nil
}

// ReadSRLFile reads an SRL corpus from a file.
func ReadSRLFile(filePath string) ([]SRLSentence, error) {
	return readFile(filePath, ReadSRL)
}

func column(value string) string {
	if value == "-" || value == "" {
		return tag.NA
	}
	return value
}

func parseSRLSentence(rows [][]string) (SRLSentence, error) {
	numCols := len(rows[0])
	if numCols < 5 {
		return SRLSentence{}, fmt.Errorf("expected at least 5 columns, got %d", numCols)
	}
	var s SRLSentence
	var predicates []int
	for i, row := range rows {
		if len(row) != numCols {
			return SRLSentence{}, fmt.Errorf("token %d has %d columns, expected %d", i, len(row), numCols)
		}
		s.Tokens = append(s.Tokens, tag.Token{
			Word:  row[0],
			Lemma: column(row[1]),
			Pos:   column(row[2]),
			Morph: tag.NA,
			Chunk: column(row[3]),
		})
		if row[4] != "-" {
			predicates = append(predicates, i)
		}
	}
	if len(predicates) != numCols-5 {
		return SRLSentence{}, fmt.Errorf("%d predicates but %d proposition columns", len(predicates), numCols-5)
	}
	for p, index := range predicates {
		props := make([]string, len(rows))
		for i, row := range rows {
			props[i] = row[5+p]
		}
		args, err := parseProps(props)
		if err != nil {
			return SRLSentence{}, fmt.Errorf("predicate %d: %w", index, err)
		}
		s.Predicates = append(s.Predicates, Predicate{Index: index, Arguments: args})
	}
	return s, nil
}

// parseProps turns one bracket notation column into argument spans.
func parseProps(props []string) ([]Argument, error) {
	var ans []Argument
	open := ""
	start := 0
	for i, p := range props {
		if strings.HasPrefix(p, "(") {
			if open != "" {
				return nil, fmt.Errorf("token %d opens %q inside %q", i, p, open)
			}
			star := strings.Index(p, "*")
			if star < 0 {
				return nil, fmt.Errorf("token %d: malformed proposition %q", i, p)
			}
			open = p[1:star]
			start = i
		}
		if strings.HasSuffix(p, ")") {
			if open == "" {
				return nil, fmt.Errorf("token %d closes an argument that was never opened", i)
			}
			if open != "V" {
				ans = append(ans, Argument{Label: open, Span: tag.Span{Start: start, End: i}})
			}
			open = ""
		}
	}
	if open != "" {
		return nil, fmt.Errorf("argument %q is never closed", open)
	}
	return ans, nil
}
