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

// Package slideshow cycles the pictures of a directory on a photo frame.
package slideshow

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"time"

	"github.com/charlievieth/fastwalk"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/st2205tools/st2205-core/pkg/helpers/syncutil"
	"github.com/st2205tools/st2205-core/pkg/imaging"
	"github.com/st2205tools/st2205-core/pkg/st2205"
	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Display is the part of *st2205.Device a slideshow drives.
type Display interface {
	Geometry() st2205.Geometry
	SendFrame(pix []byte) error
}

// Options configures a Show. Zero values fall back to the defaults noted
// on each field.
type Options struct {
	// Fs is used to read pictures, afero.NewOsFs() if nil. The directory
	// scan always walks the real filesystem.
	Fs    afero.Fs
	Clock clockwork.Clock
	// Scaler defaults to CatmullRom.
	Scaler draw.Scaler
	Dir    string
	// Interval between pictures, 10s if zero.
	Interval time.Duration
	// Debounce delays a rescan after directory changes, 250ms if zero.
	Debounce time.Duration
	// FPS caps how often frames are sent; zero means no limit.
	FPS   float64
	Mode  imaging.Mode
	Watch bool
}

const (
	defaultInterval = 10 * time.Second
	defaultDebounce = 250 * time.Millisecond
)

// Show plays the pictures in a directory. Frames are only ever sent from
// the goroutine running the playback loop.
type Show struct {
	display Display
	limiter *rate.Limiter
	opts    Options
	files   []string
	next    int
	mu      syncutil.Mutex
}

// New prepares a show; nothing is read until Rescan or Run.
func New(display Display, opts Options) *Show {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	if opts.Debounce <= 0 {
		opts.Debounce = defaultDebounce
	}
	return &Show{
		display: display,
		opts:    opts,
		limiter: newLimiter(opts.FPS),
	}
}

func newLimiter(fps float64) *rate.Limiter {
	if fps <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(fps), 1)
}

// Collect returns the sorted paths of all pictures below root.
func Collect(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	var (
		mu    syncutil.Mutex
		files []string
	)

	conf := fastwalk.Config{Follow: true}
	err = fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Debug().Err(err).Str("path", path).Msg("slideshow: skipping unreadable entry")
			return nil
		}
		if d.IsDir() || !imaging.IsImageFile(path) {
			return nil
		}
		mu.Lock()
		files = append(files, path)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	slices.Sort(files)
	return files, nil
}

// Rescan reloads the playlist, keeping the position of the current
// picture where possible.
func (s *Show) Rescan() error {
	files, err := Collect(s.opts.Dir)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var current string
	if len(s.files) > 0 {
		current = s.files[s.next%len(s.files)]
	}
	s.files = files
	s.next = 0
	if current != "" {
		s.next, _ = slices.BinarySearch(files, current)
	}

	log.Debug().Int("pictures", len(files)).Str("dir", s.opts.Dir).Msg("slideshow: playlist loaded")
	return nil
}

// Playlist returns a copy of the current playlist.
func (s *Show) Playlist() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.files)
}

// pick returns the next playlist entry and advances.
func (s *Show) pick() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.files) == 0 {
		return "", false
	}
	path := s.files[s.next%len(s.files)]
	s.next = (s.next + 1) % len(s.files)
	return path, true
}

// Render loads path and converts it into a frame buffer for the display.
func (s *Show) Render(path string) ([]byte, error) {
	img, err := imaging.Load(s.opts.Fs, path)
	if err != nil {
		return nil, err
	}
	g := s.display.Geometry()
	fitted := imaging.Fit(img, g.Width, g.Height, s.opts.Mode, s.opts.Scaler)
	return imaging.ToRGB(fitted, g.Width, g.Height), nil
}

// Step shows the next picture that decodes. Pictures that fail to load
// are skipped; a failed transfer is returned.
func (s *Show) Step(ctx context.Context) error {
	n := len(s.Playlist())
	for range n {
		path, ok := s.pick()
		if !ok {
			break
		}
		pix, err := s.Render(path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("slideshow: skipping picture")
			continue
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("waiting for frame slot: %w", err)
		}
		log.Debug().Str("path", path).Msg("slideshow: showing picture")
		if err := s.display.SendFrame(pix); err != nil {
			return fmt.Errorf("failed to send %s: %w", path, err)
		}
		return nil
	}
	log.Debug().Str("dir", s.opts.Dir).Msg("slideshow: nothing to show")
	return nil
}

// Run plays the slideshow until ctx is done or sending a frame fails.
func (s *Show) Run(ctx context.Context) error {
	if err := s.Rescan(); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	if s.opts.Watch {
		w, err := newWatcher(s.opts.Dir)
		if err != nil {
			return err
		}
		g.Go(func() error {
			defer func() { _ = w.Close() }()
			return s.watch(ctx, w)
		})
	}
	g.Go(func() error {
		return s.play(ctx)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (s *Show) play(ctx context.Context) error {
	ticker := s.opts.Clock.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		if err := s.Step(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
		}
	}
}
