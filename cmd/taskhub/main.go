// Command taskhub is a terminal client for the taskhub backend: task and
// project lists, notifications, payments and real-time chat.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/p-blackswan/taskhub/internal/requestid"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, trace := requestid.Start(ctx)

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stderr).With().Timestamp().Str("trace", trace).Logger()
	log.Logger = logger

	app := NewApp(nil, logger, os.Stdout, os.Stderr)
	defer app.Close()

	if err := NewRootCmd(app).ExecuteContext(ctx); err != nil {
		app.Close()
		os.Exit(1)
	}
}
