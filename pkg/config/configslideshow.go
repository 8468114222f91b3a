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
	"time"

	"github.com/rs/zerolog/log"
)

type Slideshow struct {
	Dir      string  `toml:"dir,omitempty"`
	Interval string  `toml:"interval" validate:"omitempty,duration"`
	FPS      float64 `toml:"fps" validate:"gte=0,lte=30"`
	Watch    bool    `toml:"watch"`
}

func (c *Instance) SlideshowDir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Slideshow.Dir
}

// SlideshowInterval is how long each picture stays on screen.
func (c *Instance) SlideshowInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.vals.Slideshow.Interval == "" {
		return DefaultInterval
	}
	d, err := time.ParseDuration(c.vals.Slideshow.Interval)
	if err != nil || d <= 0 {
		log.Warn().Str("interval", c.vals.Slideshow.Interval).Msg("invalid slideshow interval, using default")
		return DefaultInterval
	}
	return d
}

func (c *Instance) SetSlideshowInterval(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Slideshow.Interval = d.String()
}

// SlideshowFPS caps how often frames are pushed to the device. Zero means
// the default.
func (c *Instance) SlideshowFPS() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Slideshow.FPS <= 0 {
		return DefaultFPS
	}
	return c.vals.Slideshow.FPS
}

func (c *Instance) SlideshowWatch() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Slideshow.Watch
}
