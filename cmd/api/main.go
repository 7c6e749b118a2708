package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/tobiloba/kudiwallet/internal/app"
	"github.com/tobiloba/kudiwallet/internal/seeder"
	"github.com/tobiloba/kudiwallet/internal/version"
	"github.com/tobiloba/kudiwallet/internal/worker"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	err := run(logger)
	if err != nil {
		trace := string(debug.Stack())
		logger.Error(err.Error(), "trace", trace)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	showVersion := flag.Bool("version", false, "display version and exit")
	seed := flag.Bool("seed", false, "seed development fixtures and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("version: %s\n", version.Get())
		return nil
	}

	application, err := app.NewApplication(logger)
	if err != nil {
		return err
	}
	defer application.DB.Close()
	defer application.Cache.Close()

	if *seed {
		seeder.New(application.DB).Run()
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wk := worker.New(&worker.Worker{
		KafkaStream: application.Kafka,
		DB:          application.DB,
		Ctx:         ctx,
		Helper:      application.Helper(),
		Mailer:      application.Mailer,
		Logger:      logger,
	})

	go wk.CreditAlertWorker()
	go wk.DebitAlertWorker()
	go wk.TransferAlertWorker()

	return application.ServeHTTP()
}
