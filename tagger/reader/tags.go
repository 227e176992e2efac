package reader

import (
	"fmt"

	"github.com/golangast/nlpnet/tagger/tag"
)

// Tag schemes.
const (
	SchemeIOB   = "iob"
	SchemeIOBES = "iobes"
)

// OutsideTag marks tokens outside every argument.
const OutsideTag = "O"

// ConvertTags encodes argument spans as one tag per token. With
// onlyBoundaries the labels are dropped and only the span structure (B, I,
// E, S, O) is kept.
func ConvertTags(args []Argument, length int, scheme string, onlyBoundaries bool) ([]string, error) {
	if scheme != SchemeIOB && scheme != SchemeIOBES {
		return nil, fmt.Errorf("unknown tag scheme %s", scheme)
	}
	ans := make([]string, length)
	for i := range ans {
		ans[i] = OutsideTag
	}
	for _, a := range args {
		if a.Span.Start < 0 || a.Span.End >= length || a.Span.End < a.Span.Start {
			return nil, fmt.Errorf("argument %s span [%d, %d] outside a sentence of %d tokens",
				a.Label, a.Span.Start, a.Span.End, length)
		}
		for i := a.Span.Start; i <= a.Span.End; i++ {
			if ans[i] != OutsideTag {
				return nil, fmt.Errorf("argument %s overlaps another one at token %d", a.Label, i)
			}
			prefix := "I"
			switch {
			case scheme == SchemeIOBES && a.Span.Start == a.Span.End:
				prefix = "S"
			case i == a.Span.Start:
				prefix = "B"
			case scheme == SchemeIOBES && i == a.Span.End:
				prefix = "E"
			}
			if onlyBoundaries {
				ans[i] = prefix
			} else {
				ans[i] = prefix + "-" + a.Label
			}
		}
	}
	return ans, nil
}

// ArgumentsFromTags decodes a tag sequence produced by ConvertTags (or by a
// tagger) back into argument spans. Ill-formed sequences are repaired the
// lenient way: an I or E tag without an open span starts a new one.
func ArgumentsFromTags(tags []string) []Argument {
	var ans []Argument
	openLabel := ""
	start := -1
	closeSpan := func(end int) {
		if start >= 0 {
			ans = append(ans, Argument{Label: openLabel, Span: tag.Span{Start: start, End: end}})
		}
		start = -1
		openLabel = ""
	}
	for i, t := range tags {
		prefix, label := splitTag(t)
		switch prefix {
		case 'B', 'S':
			closeSpan(i - 1)
			start, openLabel = i, label
		case 'I', 'E':
			if start < 0 || label != openLabel {
				closeSpan(i - 1)
				start, openLabel = i, label
			}
		default:
			closeSpan(i - 1)
		}
		if prefix == 'S' || prefix == 'E' {
			closeSpan(i)
		}
	}
	closeSpan(len(tags) - 1)
	return ans
}

func splitTag(t string) (byte, string) {
	if t == "" || t == OutsideTag {
		return 'O', ""
	}
	switch t[0] {
	case 'B', 'I', 'E', 'S':
		if len(t) == 1 {
			return t[0], ""
		}
		if t[1] == '-' {
			return t[0], t[2:]
		}
	}
	return 'O', ""
}
