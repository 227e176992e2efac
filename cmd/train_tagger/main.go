package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/gosuri/uiprogress"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/golangast/nlpnet/internal/config"
	"github.com/golangast/nlpnet/internal/sqlite_db"
	"github.com/golangast/nlpnet/neural/modeldata"
	"github.com/golangast/nlpnet/neural/nnu/metadata"
	"github.com/golangast/nlpnet/neural/nnu/train"
)

func loadConf(c *cli.Context) (*config.Conf, error) {
	conf := &config.Conf{}
	if c.String("config") != "" {
		conf = config.LoadConfig(c.String("config"))
	}
	if c.IsSet("data") {
		conf.DataDir = c.String("data")
	}
	if c.IsSet("history") {
		conf.HistoryDB = c.String("history")
	}
	if c.Bool("verbose") {
		conf.LogLevel = "debug"
	}
	if err := config.ValidateAndDefaults(conf); err != nil {
		return nil, err
	}
	return conf, config.SetupLogging(conf.LogFile, conf.LogLevel)
}

// trainOptions starts from the defaults of the task and applies every flag
// given explicitly.
func trainOptions(c *cli.Context) (config.TrainOptions, error) {
	task, err := metadata.ParseTask(c.String("task"))
	if err != nil {
		return config.TrainOptions{}, err
	}
	opts := config.DefaultTrainOptions(task)
	opts.Gold = c.String("gold")
	opts.Semi = c.String("semi")
	opts.Load = c.Bool("load")

	ints := map[string]*int{
		"epochs":            &opts.Epochs,
		"window":            &opts.Window,
		"hidden":            &opts.HiddenSize,
		"convolution":       &opts.ConvolutionSize,
		"max-dist":          &opts.MaxDist,
		"word-width":        &opts.WordWidth,
		"caps-width":        &opts.CapsWidth,
		"suffix-width":      &opts.SuffixWidth,
		"prefix-width":      &opts.PrefixWidth,
		"pos-width":         &opts.POSWidth,
		"chunk-width":       &opts.ChunkWidth,
		"gazetteer-width":   &opts.GazetteerWidth,
		"pred-dist-width":   &opts.PredDistWidth,
		"target-dist-width": &opts.TargetDistWidth,
		"dict-size":         &opts.DictSize,
		"min-occurrences":   &opts.MinOccurrences,
	}
	for name, dst := range ints {
		if c.IsSet(name) {
			*dst = c.Int(name)
		}
	}
	floats := map[string]*float64{
		"accuracy":                  &opts.TargetAccuracy,
		"alpha":                     &opts.Alpha,
		"learning-rate":             &opts.LearningRate,
		"learning-rate-features":    &opts.LearningRateFeatures,
		"learning-rate-transitions": &opts.LearningRateTransitions,
	}
	for name, dst := range floats {
		if c.IsSet(name) {
			*dst = c.Float64(name)
		}
	}
	bools := map[string]*bool{
		"caps":      &opts.UseCaps,
		"suffix":    &opts.UseSuffix,
		"prefix":    &opts.UsePrefix,
		"pos":       &opts.UsePOS,
		"chunk":     &opts.UseChunk,
		"lemma":     &opts.UseLemma,
		"gazetteer": &opts.UseGazetteer,
	}
	for name, dst := range bools {
		*dst = c.Bool(name)
	}
	if c.IsSet("seed") {
		opts.Seed = c.Uint64("seed")
	}
	return opts, opts.Validate()
}

// history records the run in the optional SQLite database.
type history struct {
	db    *sql.DB
	runID string
}

func openHistory(conf *config.Conf, opts config.TrainOptions) (*history, error) {
	if conf.HistoryDB == "" {
		return nil, nil
	}
	db, err := sqlite_db.OpenDB(conf.HistoryDB)
	if err != nil {
		return nil, err
	}
	if best, ok, err := sqlite_db.BestAccuracy(db, string(opts.Task)); err == nil && ok {
		log.Info().Float64("accuracy", best).Msg("best accuracy of previous runs")
	}
	id, err := sqlite_db.StartRun(db, string(opts.Task), opts.Gold, opts.Epochs)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &history{db: db, runID: id}, nil
}

func (h *history) save(r train.Report) {
	if h == nil {
		return
	}
	err := sqlite_db.SaveReport(h.db, sqlite_db.Report{
		RunID:    h.runID,
		Epoch:    r.Epoch,
		Hits:     r.Hits,
		Total:    r.Total,
		Accuracy: r.Accuracy,
		Improved: r.Improved,
		Elapsed:  r.Elapsed,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to record report")
	}
}

func (h *history) close(failed bool) {
	if h == nil {
		return
	}
	if err := sqlite_db.FinishRun(h.db, h.runID, failed); err != nil {
		log.Error().Err(err).Msg("failed to finish run")
	}
	h.db.Close()
}

func run(c *cli.Context) error {
	conf, err := loadConf(c)
	if err != nil {
		return err
	}
	opts, err := trainOptions(c)
	if err != nil {
		return err
	}
	hist, err := openHistory(conf, opts)
	if err != nil {
		return err
	}

	var bar *uiprogress.Bar
	if !c.Bool("no-progress") {
		uiprogress.Start()
		bar = uiprogress.AddBar(opts.Epochs)
		bar.AppendCompleted()
		bar.PrependElapsed()
	}
	hooks := modeldata.TrainHooks{
		OnInterval: func(r train.Report) {
			hist.save(r)
			log.Debug().Int("epoch", r.Epoch).Float64("accuracy", r.Accuracy).Msg("interval")
		},
		OnEpoch: func(int) {
			if bar != nil {
				bar.Incr()
			}
		},
	}
	report, err := modeldata.Train(conf.Paths(), opts, hooks)
	if bar != nil {
		uiprogress.Stop()
	}
	hist.close(err != nil)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%s: accuracy %.4f (%d/%d) after %d epochs\n",
		opts.Task, report.Accuracy, report.Hits, report.Total, report.Epoch)
	return nil
}

func main() {
	app := &cli.App{
		Name:  "train_tagger",
		Usage: "train a tagging or language model network",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "JSON config file"},
			&cli.StringFlag{Name: "data", Usage: "data directory (overrides the config)"},
			&cli.StringFlag{Name: "history", Usage: "SQLite file recording the training reports"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "debug logging"},
			&cli.BoolFlag{Name: "no-progress", Usage: "do not draw the progress bar"},

			&cli.StringFlag{Name: "task", Required: true, Usage: "one of pos, ner, srl, srl_boundary, srl_classify, srl_predicates, lm, sslm"},
			&cli.StringFlag{Name: "gold", Required: true, Usage: "training corpus"},
			&cli.StringFlag{Name: "semi", Usage: "additional SRL corpus"},
			&cli.BoolFlag{Name: "load", Usage: "continue training the saved model"},
			&cli.IntFlag{Name: "epochs", Aliases: []string{"e"}},
			&cli.Float64Flag{Name: "accuracy", Usage: "stop once this accuracy is reached"},
			&cli.Uint64Flag{Name: "seed"},

			&cli.IntFlag{Name: "window", Aliases: []string{"w"}},
			&cli.IntFlag{Name: "hidden", Aliases: []string{"n"}},
			&cli.IntFlag{Name: "convolution", Usage: "convolution layer size of SRL networks"},
			&cli.IntFlag{Name: "max-dist", Usage: "distance beyond which SRL distances are clipped"},

			&cli.IntFlag{Name: "word-width"},
			&cli.IntFlag{Name: "caps-width"},
			&cli.IntFlag{Name: "suffix-width"},
			&cli.IntFlag{Name: "prefix-width"},
			&cli.IntFlag{Name: "pos-width"},
			&cli.IntFlag{Name: "chunk-width"},
			&cli.IntFlag{Name: "gazetteer-width"},
			&cli.IntFlag{Name: "pred-dist-width"},
			&cli.IntFlag{Name: "target-dist-width"},

			&cli.BoolFlag{Name: "caps", Usage: "use capitalization features"},
			&cli.BoolFlag{Name: "suffix", Usage: "use suffix features"},
			&cli.BoolFlag{Name: "prefix", Usage: "use prefix features"},
			&cli.BoolFlag{Name: "pos", Usage: "use POS features (SRL only)"},
			&cli.BoolFlag{Name: "chunk", Usage: "use chunk features (SRL only)"},
			&cli.BoolFlag{Name: "lemma", Usage: "use lemmas instead of words (SRL only)"},
			&cli.BoolFlag{Name: "gazetteer", Usage: "use gazetteer features (NER only)"},

			&cli.IntFlag{Name: "dict-size", Usage: "maximum size of a new word dictionary"},
			&cli.IntFlag{Name: "min-occurrences", Usage: "minimum count of a dictionary word"},
			&cli.Float64Flag{Name: "alpha", Usage: "sentiment loss weight of the sslm task"},
			&cli.Float64Flag{Name: "learning-rate", Aliases: []string{"l"}},
			&cli.Float64Flag{Name: "learning-rate-features", Aliases: []string{"lf"}},
			&cli.Float64Flag{Name: "learning-rate-transitions", Aliases: []string{"lt"}},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		log.Error().Err(err).Msg("training failed")
		os.Exit(1)
	}
}
