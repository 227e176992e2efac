package config

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/golangast/nlpnet/neural/nnu/metadata"
)

const gazetteerPrefix = "gazetteer-"

// Paths maps a data directory to the files models are stored in. Word
// dictionary and affix lists are shared by all tasks, everything else is
// stored per task.
type Paths struct {
	Dir string
}

func NewPaths(dir string) Paths {
	return Paths{Dir: dir}
}

func (p Paths) file(name string) string {
	return filepath.Join(p.Dir, name)
}

func (p Paths) WordDictionary() string {
	return p.file("vocabulary.gob")
}

// TagDictionary is the output tag dictionary of a task.
func (p Paths) TagDictionary(task metadata.Task) string {
	return p.file(string(task) + "-tags.gob")
}

// FeatureTagDictionary is the dictionary of the POS or chunk tags read as
// input features.
func (p Paths) FeatureTagDictionary(kind string) string {
	return p.file(kind + "-feature-tags.gob")
}

func (p Paths) Suffixes() string {
	return p.file("suffixes.txt")
}

func (p Paths) Prefixes() string {
	return p.file("prefixes.txt")
}

func (p Paths) Gazetteer(category string) string {
	return p.file(gazetteerPrefix + category + ".txt")
}

// GazetteerCategories lists the categories of the gazetteer files present
// in the data directory, sorted by name.
func (p Paths) GazetteerCategories() ([]string, error) {
	matches, err := filepath.Glob(p.file(gazetteerPrefix + "*.txt"))
	if err != nil {
		return nil, err
	}
	ans := make([]string, 0, len(matches))
	for _, m := range matches {
		name := strings.TrimSuffix(filepath.Base(m), ".txt")
		ans = append(ans, strings.TrimPrefix(name, gazetteerPrefix))
	}
	sort.Strings(ans)
	return ans, nil
}

func (p Paths) Metadata(task metadata.Task) string {
	return p.file(string(task) + "-metadata.json")
}

func (p Paths) Network(task metadata.Task) string {
	return p.file(string(task) + "-network.gob")
}

// FeatureTable is the embedding table file of one feature of a task.
func (p Paths) FeatureTable(task metadata.Task, spec metadata.FeatureSpec) string {
	return p.file(string(task) + "-features-" + spec.Key() + ".gob")
}

// FeatureTables returns the table files in the order of the specs.
func (p Paths) FeatureTables(task metadata.Task, specs []metadata.FeatureSpec) []string {
	ans := make([]string, len(specs))
	for i, s := range specs {
		ans[i] = p.FeatureTable(task, s)
	}
	return ans
}
