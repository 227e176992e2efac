package tag

import "sort"

// Span is an inclusive token range [Start, End].
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Contains reports whether position i lies inside the span.
func (s Span) Contains(i int) bool {
	return i >= s.Start && i <= s.End
}

// Labels returns the role labels of the structure in a stable order.
func (as ArgStructure) Labels() []string {
	labels := make([]string, 0, len(as.Arguments))
	for l := range as.Arguments {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}
