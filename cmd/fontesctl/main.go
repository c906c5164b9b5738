// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command fontesctl is the terminal shell for the FONTES authentication core.
//
// It opens the same store as the HTTP server and calls the core in-process.
// A successful login is remembered in a local TOML file so later invocations
// act as that user until logout or expiry.
//
// Usage:
//
//	fontesctl login [-u username]
//	fontesctl whoami
//	fontesctl logout
//	fontesctl users list|create|update|passwd|activate|deactivate|delete ...
//	fontesctl logs [-user id] [-limit n]
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/sistema-fontes/fontes/internal/app"
	"github.com/sistema-fontes/fontes/internal/platform/config"
	"github.com/sistema-fontes/fontes/internal/platform/constants"
	"github.com/sistema-fontes/fontes/internal/platform/ctxutil"
	"github.com/sistema-fontes/fontes/internal/remember"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Startup chatter stays quiet; warnings such as the bootstrap notice still show.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})).With(slog.String("app", constants.AppName))

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = ctxutil.WithLogger(ctxutil.SystemContext(ctx), log)

	core, err := app.Build(ctx, cfg, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, msgUnavailable)
		log.Error("startup_failed", slog.Any("error", err))
		return 1
	}
	defer core.Close()

	file, err := remember.Open(cfg.RememberFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	sh := &shell{
		service:    core.Service,
		remembered: file,
		in:         bufio.NewReader(os.Stdin),
		out:        os.Stdout,
		errOut:     os.Stderr,
		readPassword: func() (string, error) {
			raw, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Fprintln(os.Stdout)
			return string(raw), err
		},
	}

	return sh.Run(ctx, os.Args[1:])
}
