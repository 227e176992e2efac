package vocab

import (
	"fmt"

	"github.com/golangast/nlpnet/neural/nnu/gobs"
)

// TagDictionary maps tag strings to output indices. Tags are numbered in
// order of first appearance.
type TagDictionary struct {
	Tags []string
	// RareTag, when set, is the tag unknown tags are reduced to.
	RareTag string

	index map[string]int
}

// NewTagDictionary creates a dictionary from tagged sentences.
func NewTagDictionary(tagSequences [][]string) *TagDictionary {
	td := &TagDictionary{index: make(map[string]int)}
	for _, seq := range tagSequences {
		for _, t := range seq {
			td.Add(t)
		}
	}
	return td
}

// Add registers a tag if it is not present yet and returns its index.
func (td *TagDictionary) Add(tag string) int {
	if td.index == nil {
		td.buildIndex()
	}
	if i, ok := td.index[tag]; ok {
		return i
	}
	td.index[tag] = len(td.Tags)
	td.Tags = append(td.Tags, tag)
	return len(td.Tags) - 1
}

func (td *TagDictionary) buildIndex() {
	td.index = make(map[string]int, len(td.Tags))
	for i, t := range td.Tags {
		td.index[t] = i
	}
}

// Size returns the number of tags.
func (td *TagDictionary) Size() int {
	return len(td.Tags)
}

// Index returns the index of tag. Unknown tags map to the rare tag when one
// is configured, otherwise ok is false.
func (td *TagDictionary) Index(tag string) (int, bool) {
	if i, ok := td.index[tag]; ok {
		return i, true
	}
	if td.RareTag != "" {
		i, ok := td.index[td.RareTag]
		return i, ok
	}
	return -1, false
}

// Tag returns the tag stored at index i.
func (td *TagDictionary) Tag(i int) string {
	return td.Tags[i]
}

// Save writes the dictionary as a single gob object.
func (td *TagDictionary) Save(filePath string) error {
	return gobs.Save(filePath, td)
}

// LoadTagDictionary reads a dictionary written by Save.
func LoadTagDictionary(filePath string) (*TagDictionary, error) {
	td := new(TagDictionary)
	if err := gobs.Load(filePath, "tag dictionary", td); err != nil {
		return nil, err
	}
	if len(td.Tags) == 0 {
		return nil, fmt.Errorf("tag dictionary %s is empty", filePath)
	}
	td.buildIndex()
	if len(td.index) != len(td.Tags) {
		return nil, fmt.Errorf("tag dictionary %s contains duplicate tags", filePath)
	}
	return td, nil
}
