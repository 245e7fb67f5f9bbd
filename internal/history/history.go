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

// Package history persists the list of previously saved recordings
// (spec.md §4.9) as a JSON array, following the atomic tmp-file-then-rename
// write idiom of _examples/e1z0-QAnotherRTSP/src/config.go's SaveConfig.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Entry is one previously saved recording (spec.md §3's PreviousRecording).
type Entry struct {
	TimeRecorded UnixSeconds `json:"time_recorded"`
	Duration     uint64      `json:"duration"`
	FilePath     string      `json:"file_path"`
	Width        uint32      `json:"width"`
	Height       uint32      `json:"height"`
}

// UnixSeconds accepts two legacy encodings on read — a bare integer or a
// {"secs_since_epoch": n} object — and always writes the bare-integer form
// (spec.md §3, §9 open question, resolved per the Rust original's two
// observed shapes).
type UnixSeconds uint64

// UnmarshalJSON implements the dual-shape decode.
func (u *UnixSeconds) UnmarshalJSON(data []byte) error {
	var n uint64
	if err := json.Unmarshal(data, &n); err == nil {
		*u = UnixSeconds(n)
		return nil
	}

	var wrapped struct {
		SecsSinceEpoch uint64 `json:"secs_since_epoch"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return fmt.Errorf("history: time_recorded: unrecognized shape: %w", err)
	}
	*u = UnixSeconds(wrapped.SecsSinceEpoch)
	return nil
}

// MarshalJSON always emits the bare-integer form.
func (u UnixSeconds) MarshalJSON() ([]byte, error) {
	return json.Marshal(uint64(u))
}

// Log is the mutex-free (caller-serialized, per spec.md §4.9: "the UI
// serializes these calls") JSON-array history store at path.
type Log struct {
	path string
}

// Open returns a Log rooted at <appCacheDir>/prev_recordings.json. It does
// not touch the filesystem; a missing file reads as an empty list.
func Open(appCacheDir string) *Log {
	return &Log{path: filepath.Join(appCacheDir, "prev_recordings.json")}
}

// Read returns the full entry list. A missing or corrupt file reads as an
// empty list (spec.md §4.9, §7 "Corrupt history log: treated as empty").
func (l *Log) Read() []Entry {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil
	}
	return entries
}

// Append adds entry to the end of the log and rewrites the whole array
// (spec.md §4.9).
func (l *Log) Append(entry Entry) error {
	entries := l.Read()
	entries = append(entries, entry)
	return l.write(entries)
}

// Delete removes the entry at index and rewrites the array. Out-of-range
// index is a no-op.
func (l *Log) Delete(index int) error {
	entries := l.Read()
	if index < 0 || index >= len(entries) {
		return nil
	}
	entries = append(entries[:index], entries[index+1:]...)
	return l.write(entries)
}

// write persists entries atomically: write to a sibling tmp file, then
// rename over the target, matching config.go's SaveConfig pattern.
func (l *Log) write(entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("history: marshal: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("history: create dir: %w", err)
	}

	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("history: write tmp: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("history: rename: %w", err)
	}
	return nil
}
