package reader

import (
	"fmt"
	"io"
	"strings"
)

// Polarity of a tweet.
type Polarity int

const (
	Negative Polarity = -1
	Neutral  Polarity = 0
	Positive Polarity = 1
)

func (p Polarity) String() string {
	switch p {
	case Positive:
		return "positive"
	case Negative:
		return "negative"
	default:
		return "neutral"
	}
}

// ParsePolarity maps a SemEval label to a polarity. The objective labels
// count as neutral; any other label is an error.
func ParsePolarity(label string) (Polarity, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "positive":
		return Positive, nil
	case "negative":
		return Negative, nil
	case "neutral", "objective", "objective-or-neutral":
		return Neutral, nil
	}
	return Neutral, fmt.Errorf("unknown polarity %q", label)
}

// Tweet is one line of a SemEval 2013 file.
type Tweet struct {
	ID       string
	User     string
	Polarity Polarity
	Tokens   []string
}

// ReadTweets reads tab separated lines: SID, UID, polarity and the
// tokenized text.
func ReadTweets(r io.Reader) ([]Tweet, error) {
	var ans []Tweet
	scanner := newScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		cols := strings.SplitN(line, "\t", 4)
		if len(cols) < 4 {
			return nil, fmt.Errorf("line %d: expected 4 tab separated columns, got %d", lineNum, len(cols))
		}
		tokens := strings.Fields(cols[3])
		if len(tokens) == 0 {
			continue
		}
		polarity, err := ParsePolarity(cols[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		ans = append(ans, Tweet{
			ID:       cols[0],
			User:     cols[1],
			Polarity: polarity,
			Tokens:   tokens,
		})
	}
	return ans, scanner.Err()
}

// ReadTweetsFile reads a tweet corpus from a file.
func ReadTweetsFile(filePath string) ([]Tweet, error) {
	return readFile(filePath, ReadTweets)
}

// NGrams returns the space joined n-grams of the tokens for every n in
// [1, size], shorter ones first. The sentiment dictionary is built over
// them.
func NGrams(tokens []string, size int) []string {
	var ans []string
	for n := 1; n <= size; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			ans = append(ans, strings.Join(tokens[i:i+n], " "))
		}
	}
	return ans
}
