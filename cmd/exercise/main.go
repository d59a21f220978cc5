package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/gogotex/personstore/pkg/logger"
)

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logger.Errorf("%v", err)
		stop()
		os.Exit(1)
	}
}
