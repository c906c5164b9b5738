// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package remember persists the terminal shell's session token between runs.
//
// The file is TOML and readable by its owner only. A missing file means no
// session is remembered; it is not an error.
package remember

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	fileMode = 0o600
	dirMode  = 0o700
)

// Entry is what the shell keeps after a successful login.
type Entry struct {
	Username  string    `toml:"username"`
	Token     string    `toml:"token"`
	ExpiresAt time.Time `toml:"expires_at"`
}

// File is a remember-me file at a fixed path.
type File struct {
	path string
}

// Open returns a File for path. A leading "~/" is expanded to the home
// directory.
func Open(path string) (*File, error) {
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("remember: resolve home: %w", err)
		}
		path = filepath.Join(home, rest)
	}
	return &File{path: path}, nil
}

// Path returns the resolved location.
func (f *File) Path() string { return f.path }

// Save replaces the stored entry.
func (f *File) Save(entry Entry) error {
	if err := os.MkdirAll(filepath.Dir(f.path), dirMode); err != nil {
		return fmt.Errorf("remember: create dir: %w", err)
	}

	file, err := os.OpenFile(f.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fileMode)
	if err != nil {
		return fmt.Errorf("remember: open: %w", err)
	}
	defer file.Close()

	// OpenFile keeps the mode of an existing file.
	if err := os.Chmod(f.path, fileMode); err != nil {
		return fmt.Errorf("remember: chmod: %w", err)
	}

	if err := toml.NewEncoder(file).Encode(entry); err != nil {
		return fmt.Errorf("remember: encode: %w", err)
	}
	return file.Close()
}

// Load returns the stored entry, or nil when nothing is remembered.
func (f *File) Load() (*Entry, error) {
	var entry Entry
	if _, err := toml.DecodeFile(f.path, &entry); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("remember: decode: %w", err)
	}
	if entry.Token == "" {
		return nil, nil
	}
	return &entry, nil
}

// Clear forgets the stored entry. Clearing an absent file succeeds.
func (f *File) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remember: remove: %w", err)
	}
	return nil
}
