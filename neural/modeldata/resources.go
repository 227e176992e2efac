package modeldata

import (
	"fmt"

	"github.com/czcorpus/cnc-gokit/fs"
	"github.com/rs/zerolog/log"

	"github.com/golangast/nlpnet/internal/config"
	"github.com/golangast/nlpnet/internal/nerror"
	"github.com/golangast/nlpnet/neural/nnu/metadata"
	"github.com/golangast/nlpnet/neural/nnu/vocab"
	"github.com/golangast/nlpnet/tagger/attributes"
	"github.com/golangast/nlpnet/tagger/tag"
)

// Resources are the dictionaries and lists a token converter and an output
// layer are built from. Fields of disabled features stay nil.
type Resources struct {
	Words *vocab.WordDictionary
	// Tags is the output tag dictionary, nil for the language models.
	Tags       *vocab.TagDictionary
	Suffixes   *attributes.AffixTable
	Prefixes   *attributes.AffixTable
	POSTags    *vocab.TagDictionary
	ChunkTags  *vocab.TagDictionary
	Gazetteers []*attributes.Gazetteer
}

func hasTagOutput(task metadata.Task) bool {
	return task != metadata.TaskLM && task != metadata.TaskSSLM
}

// LoadResources reads everything the metadata enables from the data
// directory.
func LoadResources(paths config.Paths, md *metadata.Metadata) (*Resources, error) {
	var res Resources
	var err error
	res.Words, err = vocab.LoadWordDictionary(paths.WordDictionary())
	if err != nil {
		return nil, err
	}
	if hasTagOutput(md.Task) {
		if res.Tags, err = vocab.LoadTagDictionary(paths.TagDictionary(md.Task)); err != nil {
			return nil, err
		}
	}
	if md.UseSuffix {
		res.Suffixes, err = attributes.LoadAffixTable(attributes.Suffix, paths.Suffixes(), attributes.DefaultAffixSize)
		if err != nil {
			return nil, err
		}
	}
	if md.UsePrefix {
		res.Prefixes, err = attributes.LoadAffixTable(attributes.Prefix, paths.Prefixes(), attributes.DefaultAffixSize)
		if err != nil {
			return nil, err
		}
	}
	if md.UsePOS {
		if res.POSTags, err = vocab.LoadTagDictionary(paths.FeatureTagDictionary(metadata.FeaturePOS)); err != nil {
			return nil, err
		}
	}
	if md.UseChunk {
		if res.ChunkTags, err = vocab.LoadTagDictionary(paths.FeatureTagDictionary(metadata.FeatureChunk)); err != nil {
			return nil, err
		}
	}
	if md.UseGazetteer {
		for _, c := range md.Gazetteers {
			g, err := attributes.LoadGazetteer(c, paths.Gazetteer(c))
			if err != nil {
				return nil, err
			}
			res.Gazetteers = append(res.Gazetteers, g)
		}
	}
	return &res, nil
}

// BuildResources prepares the resources of a new model. Shared resources
// found in the data directory (word dictionary, affix lists, gazetteers and
// the POS and chunk feature tags) are loaded, the others are built from the
// corpus and saved. The output tag dictionary of a new model is always
// built from the corpus.
func BuildResources(paths config.Paths, opts *config.TrainOptions, corpus *Corpus) (*Resources, error) {
	var res Resources
	var err error
	sentences := corpus.Sentences()

	if fs.PathExists(paths.WordDictionary()) {
		if res.Words, err = vocab.LoadWordDictionary(paths.WordDictionary()); err != nil {
			return nil, err
		}
		log.Info().Int("size", res.Words.Size()).Msg("loaded word dictionary")

	} else {
		words := make([][]string, len(sentences))
		for i, s := range sentences {
			words[i] = tag.Words(s)
		}
		res.Words = vocab.NewWordDictionary(words, opts.DictSize, opts.MinOccurrences)
		if err := res.Words.Save(paths.WordDictionary()); err != nil {
			return nil, err
		}
		log.Info().Int("size", res.Words.Size()).Msg("created word dictionary")
	}

	if hasTagOutput(opts.Task) {
		tagSeqs, err := corpus.TagSequences()
		if err != nil {
			return nil, err
		}
		res.Tags = vocab.NewTagDictionary(tagSeqs)
		if res.Tags.Size() == 0 {
			return nil, nerror.NewConfigError("the corpus contains no tags")
		}
		if err := res.Tags.Save(paths.TagDictionary(opts.Task)); err != nil {
			return nil, err
		}
	}

	if opts.UseSuffix {
		if res.Suffixes, err = affixTable(attributes.Suffix, paths.Suffixes(), sentences, opts.MinOccurrences); err != nil {
			return nil, err
		}
	}
	if opts.UsePrefix {
		if res.Prefixes, err = affixTable(attributes.Prefix, paths.Prefixes(), sentences, opts.MinOccurrences); err != nil {
			return nil, err
		}
	}
	if opts.UsePOS {
		res.POSTags, err = featureTags(paths.FeatureTagDictionary(metadata.FeaturePOS), sentences,
			func(t tag.Token) string { return t.Pos })
		if err != nil {
			return nil, err
		}
	}
	if opts.UseChunk {
		res.ChunkTags, err = featureTags(paths.FeatureTagDictionary(metadata.FeatureChunk), sentences,
			func(t tag.Token) string { return t.Chunk })
		if err != nil {
			return nil, err
		}
	}
	if opts.UseGazetteer {
		categories, err := paths.GazetteerCategories()
		if err != nil {
			return nil, err
		}
		if len(categories) == 0 {
			return nil, nerror.MissingResourceError{Resource: "gazetteers", Path: paths.Gazetteer("*")}
		}
		for _, c := range categories {
			g, err := attributes.LoadGazetteer(c, paths.Gazetteer(c))
			if err != nil {
				return nil, err
			}
			res.Gazetteers = append(res.Gazetteers, g)
		}
	}
	return &res, nil
}

func affixTable(kind attributes.AffixKind, path string, sentences [][]tag.Token, minOccurrences int) (*attributes.AffixTable, error) {
	if fs.PathExists(path) {
		return attributes.LoadAffixTable(kind, path, attributes.DefaultAffixSize)
	}
	var words []string
	for _, s := range sentences {
		words = append(words, tag.Words(s)...)
	}
	t, err := attributes.BuildAffixes(kind, words, 0, attributes.DefaultAffixSize, minOccurrences)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s list: %w", kind, err)
	}
	if err := t.Save(path); err != nil {
		return nil, fmt.Errorf("failed to save %s list: %w", kind, err)
	}
	log.Info().Int("size", len(t.Affixes)).Str("kind", kind.String()).Msg("created affix list")
	return t, nil
}

// featureTags loads the tag dictionary of an input feature or builds it from
// the corpus. The file is shared by every task using the feature, so it is
// never rebuilt once it exists.
func featureTags(path string, sentences [][]tag.Token, field func(tag.Token) string) (*vocab.TagDictionary, error) {
	if fs.PathExists(path) {
		return vocab.LoadTagDictionary(path)
	}
	d := vocab.NewTagDictionary(tokenField(sentences, field))
	if err := d.Save(path); err != nil {
		return nil, err
	}
	log.Info().Int("size", d.Size()).Str("path", path).Msg("created feature tag dictionary")
	return d, nil
}

func tokenField(sentences [][]tag.Token, field func(tag.Token) string) [][]string {
	ans := make([][]string, len(sentences))
	for i, s := range sentences {
		ans[i] = make([]string, len(s))
		for j, t := range s {
			ans[i][j] = field(t)
		}
	}
	return ans
}

// GazetteerCategories returns the category names in table order.
func (res *Resources) GazetteerCategories() []string {
	ans := make([]string, len(res.Gazetteers))
	for i, g := range res.Gazetteers {
		ans[i] = g.Category
	}
	return ans
}
