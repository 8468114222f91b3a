// ST2205 Tools
// Copyright (c) 2026 The ST2205 Tools Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of ST2205 Tools.
//
// ST2205 Tools is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// ST2205 Tools is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with ST2205 Tools.  If not, see <http://www.gnu.org/licenses/>.

//go:build deadlock

// Package syncutil holds the locks used across the tools. Building with
// -tags=deadlock swaps them for go-deadlock's detecting versions.
package syncutil

import (
	"time"

	deadlock "github.com/sasha-s/go-deadlock"
)

// DeadlockEnabled reports whether the detecting locks are compiled in.
const DeadlockEnabled = true

func init() {
	// a firmware upload holds the channel lock for one whole page transfer
	deadlock.Opts.DeadlockTimeout = 15 * time.Second
}

// Mutex guards a device channel or other exclusively owned state.
type Mutex struct {
	deadlock.Mutex
}

// RWMutex guards state that is read far more often than it changes.
type RWMutex struct {
	deadlock.RWMutex
}
