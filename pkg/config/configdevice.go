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

package config

import (
	"path/filepath"

	"github.com/st2205tools/st2205-core/pkg/st2205"
)

const (
	IdentifyDefault        = "default"
	IdentifyParameterBlock = "parameter_block"

	ProtoMercury = "mercury"
	ProtoPCF8833 = "pcf8833"
)

type Device struct {
	Path     string `toml:"path,omitempty"`
	Identify string `toml:"identify" validate:"omitempty,oneof=default parameter_block"`
}

// Display overrides the hardcoded panel description used when the frame
// is not identified from its firmware. Zero values keep the default.
type Display struct {
	Proto   string `toml:"proto,omitempty" validate:"omitempty,oneof=mercury pcf8833"`
	BPP     int    `toml:"bpp,omitempty" validate:"omitempty,oneof=12 16 24"`
	Width   int    `toml:"width,omitempty" validate:"gte=0,lte=1024"`
	Height  int    `toml:"height,omitempty" validate:"gte=0,lte=1024"`
	OffsetX int    `toml:"offset_x,omitempty" validate:"gte=-128,lte=127"`
	OffsetY int    `toml:"offset_y,omitempty" validate:"gte=-128,lte=127"`
}

type Firmware struct {
	BackupDir string `toml:"backup_dir,omitempty"`
}

func (c *Instance) DevicePath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Device.Path
}

func (c *Instance) SetDevicePath(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Device.Path = path
}

func (c *Instance) SetIdentify(mode string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Device.Identify = mode
}

// Geometry returns the default panel with the configured overrides applied.
func (c *Instance) Geometry() st2205.Geometry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	g := st2205.DefaultGeometry
	d := c.vals.Display
	if d.Width > 0 {
		g.Width = d.Width
	}
	if d.Height > 0 {
		g.Height = d.Height
	}
	if d.BPP > 0 {
		g.BPP = d.BPP
	}
	switch d.Proto {
	case ProtoMercury:
		g.Proto = st2205.ProtoMercury
	case ProtoPCF8833:
		g.Proto = st2205.ProtoPCF8833
	}
	g.OffX = d.OffsetX
	g.OffY = d.OffsetY
	return g
}

// Identifier builds the identification strategy selected in the config.
func (c *Instance) Identifier() st2205.Identifier {
	c.mu.RLock()
	mode := c.vals.Device.Identify
	c.mu.RUnlock()

	if mode == IdentifyParameterBlock {
		return st2205.ParameterBlockGeometry{}
	}
	return st2205.FixedGeometry{Geometry: c.Geometry()}
}

// BackupDir returns where firmware is saved before an upload. Relative
// paths and the empty default resolve under dataDir.
func (c *Instance) BackupDir(dataDir string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	dir := c.vals.Firmware.BackupDir
	switch {
	case dir == "":
		return filepath.Join(dataDir, BackupDirName)
	case filepath.IsAbs(dir):
		return dir
	default:
		return filepath.Join(dataDir, dir)
	}
}
