package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/golangast/nlpnet/internal/config"
	"github.com/golangast/nlpnet/neural/nnu/metadata"
	"github.com/golangast/nlpnet/neural/nnu/vocab"
)

func run(c *cli.Context) error {
	paths := config.NewPaths(c.String("data"))
	w := c.App.Writer
	n := c.Int("first")

	v, err := vocab.LoadWordDictionary(paths.WordDictionary())
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Word dictionary size: %d\n\n", v.Size())
	fmt.Fprintf(w, "First %d words:\n", n)
	for i := 0; i < n && i < v.Size(); i++ {
		fmt.Fprintf(w, "ID %2d: %q\n", i, v.Word(i))
	}

	if c.String("task") == "" {
		return nil
	}
	task, err := metadata.ParseTask(c.String("task"))
	if err != nil {
		return err
	}
	md, err := metadata.Load(paths.Metadata(task))
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%s model: window %d, %d tags, transitions %t\n", task, md.Window, md.NumTags, md.Transitions)
	for _, f := range md.Features {
		fmt.Fprintf(w, "  %-20s %6d x %d\n", f.Key(), f.NumValues, f.Width)
	}
	if md.NumTags > 0 {
		tags, err := vocab.LoadTagDictionary(paths.TagDictionary(task))
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Tags: %v\n", tags.Tags)
	}
	return nil
}

func main() {
	app := &cli.App{
		Name:  "inspect_vocab",
		Usage: "print the dictionaries and the metadata of the saved models",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "data", Value: "data", Usage: "data directory"},
			&cli.StringFlag{Name: "task", Usage: "also describe the model of this task"},
			&cli.IntFlag{Name: "first", Value: 40, Usage: "number of words to list"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		log.Error().Err(err).Msg("inspection failed")
		os.Exit(1)
	}
}
