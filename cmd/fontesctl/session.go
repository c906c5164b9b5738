// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/sistema-fontes/fontes/internal/auth"
	"github.com/sistema-fontes/fontes/internal/platform/constants"
	"github.com/sistema-fontes/fontes/internal/remember"
)

// shellAddress is recorded as the client address for local logins.
const shellAddress = "127.0.0.1"

var shellUserAgent = "fontesctl/" + constants.AppVersion

func (sh *shell) login(ctx context.Context, args []string) error {
	flags := sh.newFlagSet("login")
	username := flags.String("u", "", "username")
	if err := flags.Parse(args); err != nil {
		return errUsage
	}

	if *username == "" {
		name, err := sh.prompt("Username")
		if err != nil {
			return err
		}
		*username = name
	}

	password, err := sh.promptPassword("Password")
	if err != nil {
		return err
	}

	result, err := sh.service.Authenticate(ctx, auth.LoginInput{
		Username:  *username,
		Password:  password,
		IPAddress: shellAddress,
		UserAgent: shellUserAgent,
	})
	if err != nil {
		return err
	}

	if err := sh.remembered.Save(remember.Entry{
		Username:  result.User.Username,
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
	}); err != nil {
		return err
	}

	fmt.Fprintf(sh.out, "Welcome, %s.\n", result.User.FullName)
	return nil
}

func (sh *shell) whoami(ctx context.Context) error {
	user, _, err := sh.current(ctx)
	if err != nil {
		return err
	}

	entry, err := sh.remembered.Load()
	if err != nil {
		return err
	}

	fmt.Fprintf(sh.out, "%s (%s)\nrole: %s\n", user.Username, user.FullName, user.Role)
	if entry != nil {
		fmt.Fprintf(sh.out, "session expires: %s\n", entry.ExpiresAt.Local().Format(time.DateTime))
	}
	return nil
}

// logout ends the remembered session. The local file is cleared even when
// the session had already ended server-side.
func (sh *shell) logout(ctx context.Context) error {
	entry, err := sh.remembered.Load()
	if err != nil {
		return err
	}
	if entry == nil {
		fmt.Fprintln(sh.out, "not logged in")
		return nil
	}

	if err := sh.service.Logout(ctx, entry.Token); err != nil {
		return err
	}
	if err := sh.remembered.Clear(); err != nil {
		return err
	}

	fmt.Fprintln(sh.out, "logged out")
	return nil
}
