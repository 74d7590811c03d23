// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command manage runs administrative tasks against the account directory:
// createsuperuser, createuser and migrate.
//
// Configuration comes from the same .env file and variables as the API.
// Logs go to stderr so prompts and results on stdout stay readable.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/taibuivan/realestate/internal/manage"
	"github.com/taibuivan/realestate/internal/platform/config"
	"github.com/taibuivan/realestate/internal/platform/constants"
	"github.com/taibuivan/realestate/internal/platform/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}

	log, logCloser, err := logging.New(logging.Options{
		App:    constants.AppName + "-manage",
		Level:  cfg.LogLevel,
		File:   cfg.LogFile,
		Stdout: os.Stderr,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := manage.NewRootCommand(&manage.Environment{
		Config: cfg,
		Logger: log,
		In:     os.Stdin,
		Out:    os.Stdout,
	})

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}
