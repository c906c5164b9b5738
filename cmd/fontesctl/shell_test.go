// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sistema-fontes/fontes/internal/app"
	"github.com/sistema-fontes/fontes/internal/platform/config"
	"github.com/sistema-fontes/fontes/internal/platform/database"
	"github.com/sistema-fontes/fontes/internal/remember"
)

type harness struct {
	core      *app.App
	file      *remember.File
	passwords []string
	stdin     string
	out       bytes.Buffer
	errOut    bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	cfg := &config.Config{
		DatabaseURL:            database.MemoryDSN,
		SessionSecret:          "test-secret",
		SessionLifetimeDays:    30,
		PasswordIterations:     1000,
		BootstrapAdminUsername: "admin",
		BootstrapAdminPassword: "admin123",
	}

	core, err := app.Build(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = core.Close() })

	file, err := remember.Open(filepath.Join(t.TempDir(), "session.toml"))
	require.NoError(t, err)

	return &harness{core: core, file: file}
}

// run executes one command with the queued passwords and returns its exit code.
func (h *harness) run(args ...string) int {
	h.out.Reset()
	h.errOut.Reset()

	sh := &shell{
		service:    h.core.Service,
		remembered: h.file,
		in:         bufio.NewReader(strings.NewReader(h.stdin)),
		out:        &h.out,
		errOut:     &h.errOut,
		readPassword: func() (string, error) {
			if len(h.passwords) == 0 {
				return "", io.EOF
			}
			next := h.passwords[0]
			h.passwords = h.passwords[1:]
			return next, nil
		},
	}
	return sh.Run(context.Background(), args)
}

func (h *harness) login(t *testing.T, username, password string) {
	t.Helper()
	h.passwords = []string{password}
	require.Equal(t, 0, h.run("login", "-u", username), h.errOut.String())
}

/*
TestShell_LoginWhoamiLogout covers the remember-me round trip.
*/
func TestShell_LoginWhoamiLogout(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, 1, h.run("whoami"))
	assert.Contains(t, h.errOut.String(), msgNotLoggedIn)

	h.login(t, "admin", "admin123")
	assert.Contains(t, h.out.String(), "Welcome, Administrador.")

	entry, err := h.file.Load()
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "admin", entry.Username)

	token := entry.Token

	assert.Equal(t, 0, h.run("whoami"))
	assert.Contains(t, h.out.String(), "admin (Administrador)")
	assert.Contains(t, h.out.String(), "role: admin")

	assert.Equal(t, 0, h.run("logout"))
	assert.Contains(t, h.out.String(), "logged out")

	entry, err = h.file.Load()
	require.NoError(t, err)
	assert.Nil(t, entry)

	user, ok := h.core.Service.ValidateSession(context.Background(), token)
	assert.Nil(t, user)
	assert.False(t, ok)
}

/*
TestShell_LoginPromptsForUsername reads the username from stdin when -u is absent.
*/
func TestShell_LoginPromptsForUsername(t *testing.T) {
	h := newHarness(t)
	h.stdin = "admin\n"
	h.passwords = []string{"admin123"}

	assert.Equal(t, 0, h.run("login"))
	assert.Contains(t, h.out.String(), "Username: ")
}

/*
TestShell_LoginFailureIsGeneric prints one message for every credential failure.
*/
func TestShell_LoginFailureIsGeneric(t *testing.T) {
	h := newHarness(t)

	h.passwords = []string{"wrong"}
	assert.Equal(t, 1, h.run("login", "-u", "admin"))
	wrongPassword := h.errOut.String()

	h.passwords = []string{"whatever"}
	assert.Equal(t, 1, h.run("login", "-u", "ghost"))

	assert.Equal(t, "Invalid username or password\n", wrongPassword)
	assert.Equal(t, wrongPassword, h.errOut.String())

	entry, err := h.file.Load()
	require.NoError(t, err)
	assert.Nil(t, entry)
}

/*
TestShell_StaleSessionIsForgotten clears the file when the server-side session ended.
*/
func TestShell_StaleSessionIsForgotten(t *testing.T) {
	h := newHarness(t)
	h.login(t, "admin", "admin123")

	entry, err := h.file.Load()
	require.NoError(t, err)
	require.NoError(t, h.core.Service.Logout(context.Background(), entry.Token))

	assert.Equal(t, 1, h.run("whoami"))
	assert.Contains(t, h.errOut.String(), msgSessionEnded)

	entry, err = h.file.Load()
	require.NoError(t, err)
	assert.Nil(t, entry)
}

/*
TestShell_UserManagement drives the admin subcommands end to end.
*/
func TestShell_UserManagement(t *testing.T) {
	h := newHarness(t)
	h.login(t, "admin", "admin123")

	h.passwords = []string{"secret1"}
	require.Equal(t, 0, h.run("users", "create", "-u", "bob", "-n", "Bob Silva", "-e", "bob@fontes.com"), h.errOut.String())
	assert.Contains(t, h.out.String(), "created user bob")

	bob, err := h.core.Service.Credentials().FindByUsername(context.Background(), "bob")
	require.NoError(t, err)
	bobID := strconv.FormatInt(bob.ID, 10)

	require.Equal(t, 0, h.run("users", "update", bobID, "-n", "Roberto Silva"))
	updated, err := h.core.Service.Credentials().FindByID(context.Background(), bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "Roberto Silva", updated.FullName)
	assert.Equal(t, "bob", updated.Username)
	require.NotNil(t, updated.Email)
	assert.Equal(t, "bob@fontes.com", *updated.Email)

	require.Equal(t, 0, h.run("users", "list"))
	assert.Contains(t, h.out.String(), "Roberto Silva")
	assert.Contains(t, h.out.String(), "USERNAME")

	require.Equal(t, 0, h.run("users", "deactivate", bobID))
	updated, err = h.core.Service.Credentials().FindByID(context.Background(), bob.ID)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	require.Equal(t, 0, h.run("users", "activate", bobID))
	require.Equal(t, 0, h.run("users", "delete", bobID))

	_, err = h.core.Service.Credentials().FindByID(context.Background(), bob.ID)
	assert.Error(t, err)

	require.Equal(t, 0, h.run("logs", "-limit", "5"))
	assert.Contains(t, h.out.String(), "USER_DELETED")
}

/*
TestShell_LastAdminProtected refuses to delete the only administrator.
*/
func TestShell_LastAdminProtected(t *testing.T) {
	h := newHarness(t)
	h.login(t, "admin", "admin123")

	admin, err := h.core.Service.Credentials().FindByUsername(context.Background(), "admin")
	require.NoError(t, err)

	assert.Equal(t, 1, h.run("users", "delete", strconv.FormatInt(admin.ID, 10)))
	assert.Contains(t, h.errOut.String(), "At least one active administrator must remain")

	_, err = h.core.Service.Credentials().FindByID(context.Background(), admin.ID)
	assert.NoError(t, err)
}

/*
TestShell_RegularUserLimits lets a regular user change only their own password.
*/
func TestShell_RegularUserLimits(t *testing.T) {
	h := newHarness(t)
	h.login(t, "admin", "admin123")
	h.passwords = []string{"secret1"}
	require.Equal(t, 0, h.run("users", "create", "-u", "carol", "-n", "Carol"))

	carol, err := h.core.Service.Credentials().FindByUsername(context.Background(), "carol")
	require.NoError(t, err)

	h.login(t, "carol", "secret1")

	assert.Equal(t, 1, h.run("users", "list"))
	assert.Contains(t, h.errOut.String(), msgAdminRequired)

	assert.Equal(t, 1, h.run("logs"))
	assert.Contains(t, h.errOut.String(), msgAdminRequired)

	admin, err := h.core.Service.Credentials().FindByUsername(context.Background(), "admin")
	require.NoError(t, err)
	assert.Equal(t, 1, h.run("users", "passwd", strconv.FormatInt(admin.ID, 10)))
	assert.Contains(t, h.errOut.String(), msgAdminRequired)

	h.passwords = []string{"secret2"}
	require.Equal(t, 0, h.run("users", "passwd", strconv.FormatInt(carol.ID, 10)), h.errOut.String())

	h.login(t, "carol", "secret2")
}

/*
TestShell_StorageUnavailable reports the outage instead of a credentials error.
*/
func TestShell_StorageUnavailable(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.core.DB.Close())

	h.passwords = []string{"admin123"}
	assert.Equal(t, 1, h.run("login", "-u", "admin"))
	assert.Equal(t, msgUnavailable+"\n", h.errOut.String())
}

/*
TestShell_Usage rejects unknown commands and malformed ids.
*/
func TestShell_Usage(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, 1, h.run())
	assert.Equal(t, 1, h.run("frobnicate"))
	assert.Equal(t, 0, h.run("help"))

	h.login(t, "admin", "admin123")
	assert.Equal(t, 1, h.run("users", "delete", "abc"))
	assert.Contains(t, h.errOut.String(), `invalid user id "abc"`)
}
