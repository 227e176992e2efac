// Package reader parses the training corpora of every task into tokens and
// gold tags.
package reader

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/golangast/nlpnet/internal/nerror"
	"github.com/golangast/nlpnet/tagger/tag"
)

// TaggedSentence is a sentence with one gold tag per token.
type TaggedSentence struct {
	Tokens []tag.Token
	Tags   []string
}

// Words returns the surface forms of the sentence.
func (ts TaggedSentence) Words() []string {
	return tag.Words(ts.Tokens)
}

// OpenCorpus opens a corpus file, reporting a missing file as a
// nerror.MissingResourceError.
func OpenCorpus(filePath string) (*os.File, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, nerror.MissingResourceError{Resource: "corpus", Path: filePath, Err: err}
	}
	return f, nil
}

func readFile[T any](filePath string, read func(io.Reader) (T, error)) (T, error) {
	f, err := OpenCorpus(filePath)
	if err != nil {
		var zero T
		return zero, err
	}
	defer f.Close()
	ans, err := read(f)
	if err != nil {
		return ans, fmt.Errorf("failed to read %s: %w", filePath, err)
	}
	return ans, nil
}

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return scanner
}

// ReadPOS reads one sentence per line, tokens written as word_TAG. The tag
// starts after the last underscore so words may contain underscores.
func ReadPOS(r io.Reader) ([]TaggedSentence, error) {
	var ans []TaggedSentence
	scanner := newScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		var s TaggedSentence
		for _, f := range fields {
			i := strings.LastIndex(f, "_")
			if i <= 0 || i == len(f)-1 {
				return nil, fmt.Errorf("line %d: token %q is not in the word_TAG format", lineNum, f)
			}
			s.Tokens = append(s.Tokens, tag.NewToken(f[:i]))
			s.Tags = append(s.Tags, f[i+1:])
		}
		ans = append(ans, s)
	}
	return ans, scanner.Err()
}

// ReadPOSFile reads a POS corpus from a file.
func ReadPOSFile(filePath string) ([]TaggedSentence, error) {
	return readFile(filePath, ReadPOS)
}

// ReadNER reads CoNLL style columns: one token per line with the word in
// the first column and the tag in the last one, sentences separated by
// blank lines. A middle column, when present, is taken as the POS tag.
// -DOCSTART- lines are skipped.
func ReadNER(r io.Reader) ([]TaggedSentence, error) {
	var ans []TaggedSentence
	var current TaggedSentence
	flush := func() {
		if len(current.Tokens) > 0 {
			ans = append(ans, current)
		}
		current = TaggedSentence{}
	}
	scanner := newScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			flush()
			continue
		}
		if fields[0] == "-DOCSTART-" {
			continue
		}
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: expected at least a word and a tag column", lineNum)
		}
		token := tag.NewToken(fields[0])
		if len(fields) > 2 {
			token.Pos = fields[1]
		}
		current.Tokens = append(current.Tokens, token)
		current.Tags = append(current.Tags, fields[len(fields)-1])
	}
	flush()
	return ans, scanner.Err()
}

// ReadNERFile reads a NER corpus from a file.
func ReadNERFile(filePath string) ([]TaggedSentence, error) {
	return readFile(filePath, ReadNER)
}

// ReadPlain reads one whitespace tokenized sentence per line.
func ReadPlain(r io.Reader) ([][]string, error) {
	var ans [][]string
	scanner := newScanner(r)
	for scanner.Scan() {
		if fields := strings.Fields(scanner.Text()); len(fields) > 0 {
			ans = append(ans, fields)
		}
	}
	return ans, scanner.Err()
}

// ReadPlainFile reads a plain text corpus from a file.
func ReadPlainFile(filePath string) ([][]string, error) {
	return readFile(filePath, ReadPlain)
}

// Tags collects the tag sequences of tagged sentences.
func Tags(sentences []TaggedSentence) [][]string {
	ans := make([][]string, len(sentences))
	for i, s := range sentences {
		ans[i] = s.Tags
	}
	return ans
}
