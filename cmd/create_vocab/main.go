package main

import (
	"fmt"
	"os"

	"github.com/czcorpus/cnc-gokit/logging"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/golangast/nlpnet/internal/config"
	"github.com/golangast/nlpnet/neural/modeldata"
	"github.com/golangast/nlpnet/neural/nnu/gobs"
	"github.com/golangast/nlpnet/neural/nnu/metadata"
	"github.com/golangast/nlpnet/neural/nnu/vocab"
	"github.com/golangast/nlpnet/tagger/attributes"
	"github.com/golangast/nlpnet/tagger/tag"
)

func run(c *cli.Context) error {
	level := logging.LogLevel("info")
	if c.Bool("verbose") {
		level = "debug"
	}
	if err := config.SetupLogging("", level); err != nil {
		return err
	}
	task, err := metadata.ParseTask(c.String("format"))
	if err != nil {
		return err
	}
	corpus, err := modeldata.ReadCorpus(task, c.String("corpus"), "")
	if err != nil {
		return err
	}
	paths := config.NewPaths(c.String("data"))

	var sentences [][]string
	var words []string
	for _, s := range corpus.Sentences() {
		w := tag.Words(s)
		sentences = append(sentences, w)
		words = append(words, w...)
	}
	dict := vocab.NewWordDictionary(sentences, c.Int("dict-size"), c.Int("min-occurrences"))
	if err := dict.Save(paths.WordDictionary()); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "word dictionary: %d entries\n", dict.Size())

	affixes := []struct {
		kind attributes.AffixKind
		num  int
		path string
	}{
		{attributes.Suffix, c.Int("suffixes"), paths.Suffixes()},
		{attributes.Prefix, c.Int("prefixes"), paths.Prefixes()},
	}
	for _, a := range affixes {
		if a.num < 0 {
			continue
		}
		t, err := attributes.BuildAffixes(a.kind, words, a.num, attributes.DefaultAffixSize, c.Int("min-occurrences"))
		if err != nil {
			return err
		}
		if err := t.Save(a.path); err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "%s list: %d entries\n", a.kind, len(t.Affixes))
	}

	// networks trained with the old dictionary no longer fit it
	if c.Bool("clean") {
		for _, t := range metadata.Tasks {
			if err := gobs.DeleteGobFile(paths.Network(t)); err != nil {
				return err
			}
		}
		log.Info().Msg("removed the saved networks")
	}
	return nil
}

func main() {
	app := &cli.App{
		Name:  "create_vocab",
		Usage: "build the word dictionary and the affix lists shared by the models",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "corpus", Required: true, Usage: "corpus the words are read from"},
			&cli.StringFlag{Name: "format", Value: string(metadata.TaskLM), Usage: "task whose corpus format the file uses"},
			&cli.StringFlag{Name: "data", Value: "data", Usage: "data directory"},
			&cli.IntFlag{Name: "dict-size", Value: 100000, Usage: "maximum number of words, 0 for no limit"},
			&cli.IntFlag{Name: "min-occurrences", Value: 2},
			&cli.IntFlag{Name: "suffixes", Value: 0, Usage: "number of suffixes to keep, 0 for all, -1 for none"},
			&cli.IntFlag{Name: "prefixes", Value: 0, Usage: "number of prefixes to keep, 0 for all, -1 for none"},
			&cli.BoolFlag{Name: "clean", Usage: "remove the networks trained with a former dictionary"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		log.Error().Err(err).Msg("failed to create the vocabulary")
		os.Exit(1)
	}
}
