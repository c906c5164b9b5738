// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/sistema-fontes/fontes/internal/auth"
	"github.com/sistema-fontes/fontes/internal/platform/apperr"
	"github.com/sistema-fontes/fontes/internal/platform/ctxutil"
	"github.com/sistema-fontes/fontes/internal/platform/sec"
	"github.com/sistema-fontes/fontes/internal/remember"
)

const (
	msgUnavailable   = "system temporarily unavailable"
	msgNotLoggedIn   = "not logged in; run `fontesctl login`"
	msgSessionEnded  = "session expired or invalid; run `fontesctl login`"
	msgAdminRequired = "administrator privileges required"

	usage = `usage: fontesctl <command> [arguments]

commands:
  login [-u username]     sign in and remember the session
  whoami                  show the remembered session
  logout                  end the remembered session
  users <subcommand>      manage accounts (admin)
  logs [-user id] [-limit n]
                          review the access log (admin)`
)

// errUsage marks a malformed command line. The message has already been shown.
var errUsage = errors.New("usage")

// shell executes one command against the core.
type shell struct {
	service    *auth.Service
	remembered *remember.File

	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer

	// readPassword reads a secret without echo.
	readPassword func() (string, error)
}

// Run dispatches args and returns the process exit code.
func (sh *shell) Run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(sh.errOut, usage)
		return 1
	}

	var err error
	switch args[0] {
	case "login":
		err = sh.login(ctx, args[1:])
	case "whoami":
		err = sh.whoami(ctx)
	case "logout":
		err = sh.logout(ctx)
	case "users":
		err = sh.users(ctx, args[1:])
	case "logs":
		err = sh.logs(ctx, args[1:])
	case "help", "-h", "--help":
		fmt.Fprintln(sh.out, usage)
		return 0
	default:
		fmt.Fprintf(sh.errOut, "unknown command %q\n%s\n", args[0], usage)
		return 1
	}

	if err != nil {
		sh.report(err)
		return 1
	}
	return 0
}

// report prints err the way a user should see it. Storage failures never
// surface as credential problems.
func (sh *shell) report(err error) {
	if errors.Is(err, errUsage) {
		return
	}
	if errors.Is(err, auth.ErrStorageUnavailable) {
		fmt.Fprintln(sh.errOut, msgUnavailable)
		return
	}

	appError := apperr.As(err)
	if appError == nil {
		fmt.Fprintln(sh.errOut, err)
		return
	}

	fmt.Fprintln(sh.errOut, appError.Message)
	for _, detail := range appError.Details {
		fmt.Fprintf(sh.errOut, "  %s: %s\n", detail.Field, detail.Message)
	}
}

// # Input

func (sh *shell) prompt(label string) (string, error) {
	fmt.Fprintf(sh.out, "%s: ", label)
	line, err := sh.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (sh *shell) promptPassword(label string) (string, error) {
	fmt.Fprintf(sh.out, "%s: ", label)
	return sh.readPassword()
}

// newFlagSet returns a flag set that reports errors on the shell's stderr.
func (sh *shell) newFlagSet(name string) *flag.FlagSet {
	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.SetOutput(sh.errOut)
	return flags
}

// # Session

// current resolves the remembered session. A stale entry is forgotten.
func (sh *shell) current(ctx context.Context) (*auth.User, string, error) {
	entry, err := sh.remembered.Load()
	if err != nil {
		return nil, "", err
	}
	if entry == nil {
		return nil, "", errors.New(msgNotLoggedIn)
	}

	user, err := sh.service.Validate(ctx, entry.Token)
	if err != nil {
		if errors.Is(err, auth.ErrStorageUnavailable) {
			return nil, "", err
		}
		_ = sh.remembered.Clear()
		return nil, "", errors.New(msgSessionEnded)
	}
	return user, entry.Token, nil
}

// actAs attaches the remembered identity so audit entries name the operator.
func (sh *shell) actAs(ctx context.Context, user *auth.User, token string) context.Context {
	return ctxutil.WithIdentity(ctx, user.Identity(token))
}

// requireAdmin resolves the remembered session and checks its role.
func (sh *shell) requireAdmin(ctx context.Context) (context.Context, *auth.User, error) {
	user, token, err := sh.current(ctx)
	if err != nil {
		return nil, nil, err
	}
	if user.Role != sec.RoleAdmin {
		return nil, nil, errors.New(msgAdminRequired)
	}
	return sh.actAs(ctx, user, token), user, nil
}
