// Package config holds the runtime configuration of the executables: the
// JSON config file, the data directory layout and training options.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/czcorpus/cnc-gokit/collections"
	"github.com/czcorpus/cnc-gokit/logging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/golangast/nlpnet/internal/nerror"
	"github.com/golangast/nlpnet/neural/nnu/metadata"
)

const (
	dfltDataDir                = "data"
	dfltListenAddress          = "localhost:8080"
	dfltServerReadTimeoutSecs  = 10
	dfltServerWriteTimeoutSecs = 30
	dfltLogLevel               = "info"
)

// Conf is a global configuration of the tagging executables.
type Conf struct {
	DataDir                string           `json:"dataDir"`
	ListenAddress          string           `json:"listenAddress"`
	ServerReadTimeoutSecs  int              `json:"serverReadTimeoutSecs"`
	ServerWriteTimeoutSecs int              `json:"serverWriteTimeoutSecs"`
	LogFile                string           `json:"logFile"`
	LogLevel               logging.LogLevel `json:"logLevel"`
	// Tasks lists the models the tagging service loads on startup.
	Tasks []metadata.Task `json:"tasks"`
	// HistoryDB is the SQLite file training reports are recorded in.
	// Empty disables the history.
	HistoryDB string `json:"historyDb"`
	// NoRepeat forbids assigning the same role twice to one predicate.
	NoRepeat bool `json:"noRepeat"`

	srcPath string
}

func (conf *Conf) IsDebugMode() bool {
	return conf.LogLevel == "debug"
}

// Paths returns the file layout of the configured data directory.
func (conf *Conf) Paths() Paths {
	return NewPaths(conf.DataDir)
}

// GetSourcePath returns the path the config was loaded from.
func (conf *Conf) GetSourcePath() string {
	return conf.srcPath
}

func LoadConfig(path string) *Conf {
	if path == "" {
		log.Fatal().Msg("Cannot load config - path not specified")
	}
	rawData, err := os.ReadFile(path)
	if err != nil {
		log.Fatal().Err(err).Msg("Cannot load config")
	}
	var conf Conf
	conf.srcPath = path
	err = json.Unmarshal(rawData, &conf)
	if err != nil {
		log.Fatal().Err(err).Msg("Cannot load config")
	}
	return &conf
}

// ValidateAndDefaults fills in the missing values and reports the first
// invalid one.
func ValidateAndDefaults(conf *Conf) error {
	if conf.DataDir == "" {
		conf.DataDir = dfltDataDir
		log.Warn().Msgf("dataDir not specified, using default: %s", dfltDataDir)
	}
	if conf.ListenAddress == "" {
		conf.ListenAddress = dfltListenAddress
		log.Warn().Msgf("listenAddress not specified, using default: %s", dfltListenAddress)
	}
	if conf.ServerReadTimeoutSecs == 0 {
		conf.ServerReadTimeoutSecs = dfltServerReadTimeoutSecs
		log.Warn().Msgf(
			"serverReadTimeoutSecs not specified, using default: %d",
			dfltServerReadTimeoutSecs,
		)
	}
	if conf.ServerWriteTimeoutSecs == 0 {
		conf.ServerWriteTimeoutSecs = dfltServerWriteTimeoutSecs
		log.Warn().Msgf(
			"serverWriteTimeoutSecs not specified, using default: %d",
			dfltServerWriteTimeoutSecs,
		)
	}
	if conf.LogLevel == "" {
		conf.LogLevel = dfltLogLevel
	}
	if _, err := zerolog.ParseLevel(string(conf.LogLevel)); err != nil {
		return nerror.NewConfigError("invalid logLevel %s", conf.LogLevel)
	}
	if len(conf.Tasks) == 0 {
		conf.Tasks = []metadata.Task{metadata.TaskPOS}
		log.Warn().Msgf("tasks not specified, using default: %s", metadata.TaskPOS)
	}
	seen := make([]metadata.Task, 0, len(conf.Tasks))
	for _, t := range conf.Tasks {
		if _, err := metadata.ParseTask(string(t)); err != nil {
			return err
		}
		if t != metadata.TaskPOS && t != metadata.TaskNER && t != metadata.TaskSRL {
			return nerror.NewConfigError("task %s cannot be served as a tagger", t)
		}
		if collections.SliceContains(seen, t) {
			return nerror.NewConfigError("task %s listed twice", t)
		}
		seen = append(seen, t)
	}
	return nil
}

// SetupLogging directs the global logger to a file (or stderr when path
// is empty) and sets the global level.
func SetupLogging(path string, level logging.LogLevel) error {
	lvl, err := zerolog.ParseLevel(string(level))
	if err != nil {
		return nerror.NewConfigError("invalid log level %s", level)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	if path == "" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		return nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	log.Logger = log.Output(f)
	return nil
}
