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

package mocks

import (
	"fmt"
	"io"
	"time"

	"github.com/st2205tools/st2205-core/pkg/st2205"
	"github.com/stretchr/testify/mock"
)

// MockFrame is a testify mock of an opened photo frame.
type MockFrame struct {
	mock.Mock
}

func wrap(err error) error {
	if err != nil {
		return fmt.Errorf("mock operation failed: %w", err)
	}
	return nil
}

func (m *MockFrame) Geometry() st2205.Geometry {
	args := m.Called()
	if g, ok := args.Get(0).(st2205.Geometry); ok {
		return g
	}
	return st2205.Geometry{}
}

func (m *MockFrame) SetProgress(fn st2205.ProgressFunc) {
	m.Called(fn)
}

func (m *MockFrame) MemorySize() (int, error) {
	args := m.Called()
	return args.Int(0), wrap(args.Error(1))
}

func (m *MockFrame) PictureInfo() (st2205.PictureInfo, error) {
	args := m.Called()
	info, _ := args.Get(0).(st2205.PictureInfo)
	return info, wrap(args.Error(1))
}

func (m *MockFrame) PictureFormat() ([2]byte, error) {
	args := m.Called()
	pf, _ := args.Get(0).([2]byte)
	return pf, wrap(args.Error(1))
}

func (m *MockFrame) FirmwareVersion() ([3]byte, error) {
	args := m.Called()
	ver, _ := args.Get(0).([3]byte)
	return ver, wrap(args.Error(1))
}

// DumpPages writes the bytes given as the first Return value to w.
func (m *MockFrame) DumpPages(w io.Writer, start, n int) error {
	args := m.Called(w, start, n)
	return writeDump(w, args)
}

func (m *MockFrame) DumpFirmware(w io.Writer) error {
	args := m.Called(w)
	return writeDump(w, args)
}

func (m *MockFrame) DumpRAM(w io.Writer) error {
	args := m.Called(w)
	return writeDump(w, args)
}

func writeDump(w io.Writer, args mock.Arguments) error {
	if data, ok := args.Get(0).([]byte); ok {
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("mock dump write failed: %w", err)
		}
	}
	return wrap(args.Error(1))
}

// UploadFile consumes r so tests can check what was read.
func (m *MockFrame) UploadFile(r io.Reader, size int64, startPage int) error {
	data, _ := io.ReadAll(r)
	args := m.Called(data, size, startPage)
	return wrap(args.Error(0))
}

func (m *MockFrame) UploadFirmware(r io.Reader, size int64) error {
	data, _ := io.ReadAll(r)
	args := m.Called(data, size)
	return wrap(args.Error(0))
}

func (m *MockFrame) HackImage(r io.Reader, size int64) error {
	data, _ := io.ReadAll(r)
	args := m.Called(data, size)
	return wrap(args.Error(0))
}

func (m *MockFrame) SendMessage(s string) error {
	return wrap(m.Called(s).Error(0))
}

func (m *MockFrame) SetClock(t time.Time) error {
	return wrap(m.Called(t).Error(0))
}

func (m *MockFrame) Backlight(on bool) error {
	return wrap(m.Called(on).Error(0))
}

func (m *MockFrame) LCDSleep(sleep bool) error {
	return wrap(m.Called(sleep).Error(0))
}

func (m *MockFrame) HackText(msg string) error {
	return wrap(m.Called(msg).Error(0))
}

func (m *MockFrame) HackCode(code []byte) error {
	return wrap(m.Called(code).Error(0))
}

func (m *MockFrame) HackCodeLong(code []byte) error {
	return wrap(m.Called(code).Error(0))
}

func (m *MockFrame) SendFrame(pix []byte) error {
	return wrap(m.Called(pix).Error(0))
}

func (m *MockFrame) Close() error {
	return wrap(m.Called().Error(0))
}
