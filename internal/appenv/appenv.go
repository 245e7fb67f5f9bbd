/* SPDX-License-Identifier: GPL-3.0-or-later
 *
 * xlabrecorder
 * Copyright (C) 2025 e1z0 <e1z0@icloud.com>
 *
 * This file is part of xlabrecorder.
 *
 * xlabrecorder is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * xlabrecorder is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with xlabrecorder.  If not, see <https://www.gnu.org/licenses/>.
 */

// Package appenv gathers process-level environment facts the rest of the
// engine needs, mirroring the shape of
// _examples/e1z0-QAnotherRTSP/src/config.go's Environment/
// InitializeEnvironment, generalized from a package-level global into a
// value returned by Init (spec.md §9: "avoid hidden globals in the
// rewrite").
package appenv

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Environment holds the directories and host facts the engine needs.
// AppCacheDir is the one piece spec.md §6 actually requires ("supplied by
// the shell once at startup via set_app_cache_dir(path)"); the rest
// (HomeDir, TmpDir, OS) are ambient context carried the way the teacher's
// Environment struct carries them.
type Environment struct {
	AppCacheDir string
	HomeDir     string
	TmpDir      string
	OS          string
}

// Init builds an Environment rooted at appCacheDir, creating it if missing
// (spec.md §6: "must exist or be creatable").
func Init(appCacheDir string) (*Environment, error) {
	if appCacheDir == "" {
		return nil, fmt.Errorf("appenv: app cache dir must be set")
	}
	if err := os.MkdirAll(appCacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("appenv: create app cache dir: %w", err)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}

	return &Environment{
		AppCacheDir: appCacheDir,
		HomeDir:     home,
		TmpDir:      os.TempDir(),
		OS:          runtime.GOOS,
	}, nil
}

// RecordingsDir is the output directory for staged/finalized recordings
// (spec.md §3: "output_dir: path <app_cache>/recordings").
func (e *Environment) RecordingsDir() string {
	return filepath.Join(e.AppCacheDir, "recordings")
}

// HistoryPath is the path to the JSON history log.
func (e *Environment) HistoryPath() string {
	return filepath.Join(e.AppCacheDir, "prev_recordings.json")
}
