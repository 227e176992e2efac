package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/golangast/nlpnet/internal/config"
	"github.com/golangast/nlpnet/tagger/server"
)

const shutdownTimeout = 10 * time.Second

func run(c *cli.Context) error {
	conf := config.LoadConfig(c.String("config"))
	if err := config.ValidateAndDefaults(conf); err != nil {
		return err
	}
	if err := config.SetupLogging(conf.LogFile, conf.LogLevel); err != nil {
		return err
	}
	if c.Bool("test") {
		log.Info().Msg("config OK")
		return nil
	}
	taggers, err := server.LoadTaggers(conf)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	srv := server.New(conf, taggers...)
	srv.Start(ctx)
	<-ctx.Done()
	log.Warn().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error shutting down the server")
		return err
	}
	log.Info().Msg("graceful shutdown completed")
	return nil
}

func main() {
	app := &cli.App{
		Name:  "tag_server",
		Usage: "serve the configured taggers over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Required: true, Usage: "JSON config file"},
			&cli.BoolFlag{Name: "test", Usage: "only validate the config"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		log.Error().Err(err).Msg("server failed")
		os.Exit(1)
	}
}
