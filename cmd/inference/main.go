package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	prompt "github.com/c-bata/go-prompt"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/golangast/nlpnet/internal/config"
	"github.com/golangast/nlpnet/neural/nnu/metadata"
	"github.com/golangast/nlpnet/tagger"
)

func loadTagger(c *cli.Context) (tagger.Tagger, error) {
	conf := &config.Conf{}
	if c.String("config") != "" {
		conf = config.LoadConfig(c.String("config"))
	}
	if c.IsSet("data") {
		conf.DataDir = c.String("data")
	}
	if c.Bool("verbose") {
		conf.LogLevel = "debug"
	}
	if err := config.ValidateAndDefaults(conf); err != nil {
		return nil, err
	}
	if err := config.SetupLogging(conf.LogFile, conf.LogLevel); err != nil {
		return nil, err
	}
	task, err := metadata.ParseTask(c.String("task"))
	if err != nil {
		return nil, err
	}
	return tagger.Load(conf.Paths(), task, conf.NoRepeat || c.Bool("no-repeat"))
}

func write(w io.Writer, res tagger.Result, inline bool) error {
	if inline && res.Task != metadata.TaskSRL {
		_, err := fmt.Fprintln(w, res.Inline())
		return err
	}
	return res.Write(w)
}

// tagLines tags the input one line at a time.
func tagLines(t tagger.Tagger, r io.Reader, w io.Writer, inline bool) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		res, err := tagger.TagText(t, line)
		if err != nil {
			return err
		}
		if err := write(w, res, inline); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func interactive(t tagger.Tagger, w io.Writer, inline bool) error {
	fmt.Fprintf(w, "tagging with the %s model, type quit to leave\n", t.Task())
	history := []string{}
	for {
		in := prompt.Input("> ", func(prompt.Document) []prompt.Suggest { return nil },
			prompt.OptionTitle("nlpnet "+string(t.Task())),
			prompt.OptionPrefixTextColor(prompt.Yellow),
			prompt.OptionHistory(history),
		)
		in = strings.TrimSpace(in)
		if in == "quit" {
			return nil
		}
		if in == "" {
			continue
		}
		history = append(history, in)
		res, err := tagger.TagText(t, in)
		if err != nil {
			fmt.Fprintf(w, "error: %s\n", err)
			continue
		}
		if err := write(w, res, inline); err != nil {
			return err
		}
	}
}

func run(c *cli.Context) error {
	t, err := loadTagger(c)
	if err != nil {
		return err
	}
	inline := c.Bool("inline")
	if c.Bool("interactive") {
		return interactive(t, c.App.Writer, inline)
	}
	if c.String("input") != "" {
		f, err := os.Open(c.String("input"))
		if err != nil {
			return err
		}
		defer f.Close()
		return tagLines(t, f, c.App.Writer, inline)
	}
	if c.Args().Present() {
		res, err := tagger.TagText(t, strings.Join(c.Args().Slice(), " "))
		if err != nil {
			return err
		}
		return write(c.App.Writer, res, inline)
	}
	return tagLines(t, os.Stdin, c.App.Writer, inline)
}

func main() {
	app := &cli.App{
		Name:      "inference",
		Usage:     "tag text with a trained model",
		ArgsUsage: "[text]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "JSON config file"},
			&cli.StringFlag{Name: "data", Usage: "data directory (overrides the config)"},
			&cli.StringFlag{Name: "task", Value: string(metadata.TaskPOS), Usage: "pos, ner or srl"},
			&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: "file to tag, one text per line"},
			&cli.BoolFlag{Name: "interactive", Usage: "tag the lines typed at a prompt"},
			&cli.BoolFlag{Name: "inline", Usage: "print token_TAG sentences on single lines"},
			&cli.BoolFlag{Name: "no-repeat", Usage: "forbid repeated roles for one predicate"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		log.Error().Err(err).Msg("tagging failed")
		os.Exit(1)
	}
}
