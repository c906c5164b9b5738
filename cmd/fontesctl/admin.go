// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/sistema-fontes/fontes/internal/auth"
	"github.com/sistema-fontes/fontes/internal/platform/sec"
	"github.com/sistema-fontes/fontes/pkg/pagination"
)

const usersUsage = `usage: fontesctl users <subcommand>

subcommands:
  list
  create -u username -n "full name" [-e email] [-r admin|user]
  update <id> [-u username] [-n "full name"] [-e email] [-r admin|user]
  passwd <id>
  activate <id>
  deactivate <id>
  delete <id>`

func (sh *shell) users(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(sh.errOut, usersUsage)
		return errUsage
	}

	// passwd is also open to the account owner.
	if args[0] == "passwd" {
		return sh.changePassword(ctx, args[1:])
	}

	ctx, _, err := sh.requireAdmin(ctx)
	if err != nil {
		return err
	}

	switch args[0] {
	case "list":
		return sh.listUsers(ctx)
	case "create":
		return sh.createUser(ctx, args[1:])
	case "update":
		return sh.updateUser(ctx, args[1:])
	case "activate":
		return sh.setActive(ctx, args[1:], true)
	case "deactivate":
		return sh.setActive(ctx, args[1:], false)
	case "delete":
		return sh.deleteUser(ctx, args[1:])
	default:
		fmt.Fprintf(sh.errOut, "unknown subcommand %q\n%s\n", args[0], usersUsage)
		return errUsage
	}
}

// ── 1. Accounts ───────────────────────────────────────────────────────────

func (sh *shell) listUsers(ctx context.Context) error {
	users, err := sh.service.Credentials().ListUsers(ctx)
	if err != nil {
		return err
	}

	table := tabwriter.NewWriter(sh.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(table, "ID\tUSERNAME\tNAME\tROLE\tACTIVE\tLAST LOGIN")
	for _, user := range users {
		lastLogin := "-"
		if user.LastLoginAt != nil {
			lastLogin = user.LastLoginAt.Local().Format(time.DateTime)
		}
		fmt.Fprintf(table, "%d\t%s\t%s\t%s\t%t\t%s\n",
			user.ID, user.Username, user.FullName, user.Role, user.IsActive, lastLogin)
	}
	return table.Flush()
}

func (sh *shell) createUser(ctx context.Context, args []string) error {
	flags := sh.newFlagSet("users create")
	username := flags.String("u", "", "username")
	fullName := flags.String("n", "", "full name")
	email := flags.String("e", "", "email")
	role := flags.String("r", string(sec.RoleUser), "role (admin|user)")
	if err := flags.Parse(args); err != nil {
		return errUsage
	}

	password, err := sh.promptPassword("Password for " + *username)
	if err != nil {
		return err
	}

	user, err := sh.service.Credentials().CreateUser(ctx, auth.NewUserInput{
		Username: *username,
		Password: password,
		FullName: *fullName,
		Email:    email,
		Role:     sec.UserRole(*role),
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(sh.out, "created user %s (id %d)\n", user.Username, user.ID)
	return nil
}

func (sh *shell) updateUser(ctx context.Context, args []string) error {
	id, rest, err := sh.parseID(args)
	if err != nil {
		return err
	}

	current, err := sh.service.Credentials().FindByID(ctx, id)
	if err != nil {
		return err
	}

	input := auth.UpdateUserInput{
		Username: current.Username,
		FullName: current.FullName,
		Email:    current.Email,
		Role:     current.Role,
	}

	flags := sh.newFlagSet("users update")
	flags.Func("u", "username", func(v string) error { input.Username = v; return nil })
	flags.Func("n", "full name", func(v string) error { input.FullName = v; return nil })
	flags.Func("e", "email (empty clears)", func(v string) error { input.Email = &v; return nil })
	flags.Func("r", "role (admin|user)", func(v string) error { input.Role = sec.UserRole(v); return nil })
	if err := flags.Parse(rest); err != nil {
		return errUsage
	}

	user, err := sh.service.Credentials().UpdateUser(ctx, id, input)
	if err != nil {
		return err
	}

	fmt.Fprintf(sh.out, "updated user %s (id %d)\n", user.Username, user.ID)
	return nil
}

// changePassword is allowed for administrators and for the account owner.
func (sh *shell) changePassword(ctx context.Context, args []string) error {
	id, _, err := sh.parseID(args)
	if err != nil {
		return err
	}

	operator, token, err := sh.current(ctx)
	if err != nil {
		return err
	}
	if operator.Role != sec.RoleAdmin && operator.ID != id {
		return errors.New(msgAdminRequired)
	}
	ctx = sh.actAs(ctx, operator, token)

	password, err := sh.promptPassword("New password")
	if err != nil {
		return err
	}

	if err := sh.service.Credentials().ChangePassword(ctx, id, password); err != nil {
		return err
	}

	fmt.Fprintln(sh.out, "password changed")
	return nil
}

func (sh *shell) setActive(ctx context.Context, args []string, active bool) error {
	id, _, err := sh.parseID(args)
	if err != nil {
		return err
	}

	if err := sh.service.Credentials().SetActive(ctx, id, active); err != nil {
		return err
	}

	state := "deactivated"
	if active {
		state = "activated"
	}
	fmt.Fprintf(sh.out, "user %d %s\n", id, state)
	return nil
}

func (sh *shell) deleteUser(ctx context.Context, args []string) error {
	id, _, err := sh.parseID(args)
	if err != nil {
		return err
	}

	if err := sh.service.Credentials().DeleteUser(ctx, id); err != nil {
		return err
	}

	fmt.Fprintf(sh.out, "user %d deleted\n", id)
	return nil
}

// parseID reads the leading positional account id.
func (sh *shell) parseID(args []string) (int64, []string, error) {
	if len(args) == 0 {
		fmt.Fprintln(sh.errOut, "missing user id")
		return 0, nil, errUsage
	}

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		fmt.Fprintf(sh.errOut, "invalid user id %q\n", args[0])
		return 0, nil, errUsage
	}
	return id, args[1:], nil
}

// ── 2. Access Log ─────────────────────────────────────────────────────────

func (sh *shell) logs(ctx context.Context, args []string) error {
	flags := sh.newFlagSet("logs")
	userID := flags.Int64("user", 0, "only entries for this user id")
	limit := flags.Int("limit", pagination.DefaultLimit, "maximum entries")
	if err := flags.Parse(args); err != nil {
		return errUsage
	}

	ctx, _, err := sh.requireAdmin(ctx)
	if err != nil {
		return err
	}

	var entries []auth.AccessLogEntry
	if *userID > 0 {
		entries, err = sh.service.Audit().QueryByUser(ctx, *userID)
	} else {
		entries, err = sh.service.Audit().QueryRecent(ctx, *limit)
	}
	if err != nil {
		return err
	}

	table := tabwriter.NewWriter(sh.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(table, "TIME\tUSER\tACTION\tOK\tIP\tDETAILS")
	for _, entry := range entries {
		username := entry.Username
		if username == "" {
			username = "-"
		}
		fmt.Fprintf(table, "%s\t%s\t%s\t%t\t%s\t%s\n",
			entry.Timestamp.Local().Format(time.DateTime), username, entry.Action, entry.Success, entry.IPAddress, entry.Details)
	}
	return table.Flush()
}
