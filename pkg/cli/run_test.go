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

package cli

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/st2205tools/st2205-core/pkg/st2205"
	"github.com/st2205tools/st2205-core/pkg/testing/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, time.October, 19, 8, 30, 0, 0, time.UTC)

func newTestRunner(t *testing.T) (*Runner, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	return &Runner{
		Fs:        afero.NewMemMapFs(),
		Clock:     clockwork.NewFakeClockAt(testNow),
		Out:       &out,
		BackupDir: "/backups",
	}, &out
}

func mustParse(t *testing.T, args ...string) Invocation {
	t.Helper()
	inv, err := ParseArgs(args)
	require.NoError(t, err)
	return inv
}

func TestParseArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		wantErr error
		name    string
		errMsg  string
		args    []string
	}{
		{name: "info", args: []string{"/dev/sdb", "-i"}},
		{name: "message", args: []string{"/dev/sdb", "-m", "HELLO"}},
		{name: "pages", args: []string{"/dev/sdb", "--upload-pages", "0x10", "pics.bin"}},
		{name: "switch", args: []string{"/dev/sdb", "--backlight", "off"}},
		{name: "missing operation", args: []string{"/dev/sdb"}, wantErr: ErrUsage},
		{name: "missing parameter", args: []string{"/dev/sdb", "-df"}, wantErr: ErrUsage, errMsg: "-df requires FILE"},
		{name: "extra parameter", args: []string{"/dev/sdb", "-i", "x"}, wantErr: ErrUsage, errMsg: "too many"},
		{name: "bad switch", args: []string{"/dev/sdb", "--sleep", "maybe"}, wantErr: ErrUsage},
		{name: "bad page", args: []string{"/dev/sdb", "--upload-pages", "x", "f"}, wantErr: ErrUsage},
		{name: "page out of range", args: []string{"/dev/sdb", "--upload-pages", "0x80", "f"}, wantErr: ErrUsage},
		{
			name:    "unknown with suggestion",
			args:    []string{"/dev/sdb", "--upload-firmwre", "fw.bin"},
			wantErr: ErrUnknownCommand,
			errMsg:  "did you mean --upload-firmware?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			inv, err := ParseArgs(tt.args)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.args[0], inv.Device)
			assert.Equal(t, tt.args[1], inv.Command.Name)
			assert.Equal(t, tt.args[2:], inv.Params)
		})
	}
}

func TestRun_Info(t *testing.T) {
	t.Parallel()

	r, out := newTestRunner(t)
	frame := &mocks.MockFrame{}
	frame.On("PictureInfo").Return(st2205.PictureInfo{Width: 128, Height: 128, BPP: 16}, nil)
	frame.On("PictureFormat").Return([2]byte{0x01, 0x02}, nil)
	frame.On("FirmwareVersion").Return([3]byte{0x0a, 0x0b, 0x0c}, nil)
	frame.On("MemorySize").Return(1000, nil)

	require.NoError(t, r.Run(frame, mustParse(t, "dev", "-i")))
	assert.Equal(t, "Xres: 128, Yres: 128, bpp: 16\n"+
		"picture format: 01 02\n"+
		"ver: 0a 0b 0c\n"+
		"Device reports 1000 kb memory, assuming 1024 kb flash or 32 pages\n", out.String())
	frame.AssertExpectations(t)
}

func TestRun_DumpFirmware(t *testing.T) {
	t.Parallel()

	r, _ := newTestRunner(t)
	frame := &mocks.MockFrame{}
	frame.On("DumpFirmware", mock.Anything).Return([]byte("firmware"), nil)

	require.NoError(t, r.Run(frame, mustParse(t, "dev", "-df", "/out/fw.bin")))
	data, err := afero.ReadFile(r.Fs, "/out/fw.bin")
	require.NoError(t, err)
	assert.Equal(t, "firmware", string(data))
}

func TestRun_DumpRAM(t *testing.T) {
	t.Parallel()

	r, _ := newTestRunner(t)
	frame := &mocks.MockFrame{}
	frame.On("DumpRAM", mock.Anything).Return([]byte{1, 2, 3}, nil)

	require.NoError(t, r.Run(frame, mustParse(t, "dev", "-dr", "/ram.bin")))
	data, err := afero.ReadFile(r.Fs, "/ram.bin")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)
}

func TestRun_DumpPictures(t *testing.T) {
	t.Parallel()

	r, out := newTestRunner(t)
	frame := &mocks.MockFrame{}
	frame.On("MemorySize").Return(4096, nil)
	frame.On("DumpPages", mock.Anything, PicturePage, 126).Return([]byte("pics"), nil)

	require.NoError(t, r.Run(frame, mustParse(t, "dev", "-dp", "/pics.bin")))
	assert.Contains(t, out.String(), "Dumping 126 pages")
	frame.AssertExpectations(t)
}

func TestRun_UploadPictures(t *testing.T) {
	t.Parallel()

	r, out := newTestRunner(t)
	data := bytes.Repeat([]byte{0xAB}, 2*st2205.PageSize)
	require.NoError(t, afero.WriteFile(r.Fs, "/pics.bin", data, 0o644))

	frame := &mocks.MockFrame{}
	frame.On("UploadFile", data, int64(len(data)), PicturePage).Return(nil)

	require.NoError(t, r.Run(frame, mustParse(t, "dev", "-up", "/pics.bin")))
	assert.Contains(t, out.String(), "Writing 2 pages")
	frame.AssertExpectations(t)
}

func TestRun_UploadPagesAtStart(t *testing.T) {
	t.Parallel()

	r, _ := newTestRunner(t)
	data := make([]byte, st2205.PageSize)
	require.NoError(t, afero.WriteFile(r.Fs, "/p.bin", data, 0o644))

	frame := &mocks.MockFrame{}
	frame.On("UploadFile", data, int64(len(data)), 0x10).Return(nil)

	require.NoError(t, r.Run(frame, mustParse(t, "dev", "--upload-pages", "0x10", "/p.bin")))
	frame.AssertExpectations(t)
}

func TestRun_UploadPagesRejectsBadSizes(t *testing.T) {
	t.Parallel()

	r, _ := newTestRunner(t)
	require.NoError(t, afero.WriteFile(r.Fs, "/odd.bin", make([]byte, 100), 0o644))
	require.NoError(t, afero.WriteFile(r.Fs, "/two.bin", make([]byte, 2*st2205.PageSize), 0o644))
	frame := &mocks.MockFrame{}

	err := r.Run(frame, mustParse(t, "dev", "-up", "/odd.bin"))
	require.ErrorIs(t, err, st2205.ErrSizeConstraint)

	err = r.Run(frame, mustParse(t, "dev", "--upload-pages", "0x7f", "/two.bin"))
	require.ErrorIs(t, err, st2205.ErrSizeConstraint)

	frame.AssertNotCalled(t, "UploadFile", mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_UploadFirmwareBacksUpFirst(t *testing.T) {
	t.Parallel()

	r, out := newTestRunner(t)
	fw := bytes.Repeat([]byte{0x42}, st2205.FirmwareSize)
	require.NoError(t, afero.WriteFile(r.Fs, "/fw.bin", fw, 0o644))

	var order []string
	frame := &mocks.MockFrame{}
	frame.On("DumpFirmware", mock.Anything).Return([]byte("old firmware"), nil).
		Run(func(mock.Arguments) { order = append(order, "backup") })
	frame.On("UploadFirmware", fw, int64(st2205.FirmwareSize)).Return(nil).
		Run(func(mock.Arguments) { order = append(order, "upload") })

	require.NoError(t, r.Run(frame, mustParse(t, "dev", "--upload-firmware", "/fw.bin")))
	assert.Equal(t, []string{"backup", "upload"}, order)

	backup, err := afero.ReadFile(r.Fs, "/backups/firmware-20261019-083000.bin")
	require.NoError(t, err)
	assert.Equal(t, "old firmware", string(backup))
	assert.Contains(t, out.String(), "Do not power off or unplug")
	assert.Contains(t, out.String(), "Upload done")
}

func TestRun_UploadFirmwareBackupFailureStops(t *testing.T) {
	t.Parallel()

	r, _ := newTestRunner(t)
	require.NoError(t, afero.WriteFile(r.Fs, "/fw.bin", make([]byte, st2205.FirmwareSize), 0o644))

	frame := &mocks.MockFrame{}
	frame.On("DumpFirmware", mock.Anything).Return(nil, st2205.ErrIO)

	err := r.Run(frame, mustParse(t, "dev", "--upload-firmware", "/fw.bin"))
	require.ErrorIs(t, err, st2205.ErrIO)
	assert.Contains(t, err.Error(), "backup")
	frame.AssertNotCalled(t, "UploadFirmware", mock.Anything, mock.Anything)
}

func TestRun_UploadFirmwareWrongSizeSkipsBackup(t *testing.T) {
	t.Parallel()

	r, _ := newTestRunner(t)
	require.NoError(t, afero.WriteFile(r.Fs, "/fw.bin", make([]byte, 10), 0o644))

	safe := &st2205.FirmwareError{Err: st2205.ErrSizeConstraint, Failed: st2205.FirmwareValidating}
	frame := &mocks.MockFrame{}
	frame.On("UploadFirmware", make([]byte, 10), int64(10)).Return(safe)

	err := r.Run(frame, mustParse(t, "dev", "--upload-firmware", "/fw.bin"))
	msg, ok := FirmwareFailure(err)
	require.True(t, ok)
	assert.Contains(t, msg, "SAFE")
	frame.AssertNotCalled(t, "DumpFirmware", mock.Anything)
}

func TestFirmwareFailure(t *testing.T) {
	t.Parallel()

	unsafe := &st2205.FirmwareError{
		Err:    st2205.ErrChecksumMismatch,
		Failed: st2205.FirmwareVerifyingBlock0,
		Class:  st2205.UnsafeFailure,
	}
	msg, ok := FirmwareFailure(unsafe)
	require.True(t, ok)
	assert.Contains(t, msg, "UNSAFE")
	assert.Contains(t, msg, "do NOT unplug")

	_, ok = FirmwareFailure(errors.New("other"))
	assert.False(t, ok)
}

func TestRun_Messages(t *testing.T) {
	t.Parallel()

	r, _ := newTestRunner(t)
	frame := &mocks.MockFrame{}
	frame.On("SendMessage", "HELLO").Return(nil)
	frame.On("HackText", "a longer message").Return(nil)

	require.NoError(t, r.Run(frame, mustParse(t, "dev", "-m", "HELLO")))
	require.NoError(t, r.Run(frame, mustParse(t, "dev", "-Hm", "a longer message")))
	frame.AssertExpectations(t)
}

func TestRun_UploadCode(t *testing.T) {
	t.Parallel()

	r, out := newTestRunner(t)
	code := []byte{0xA9, 0x01, 0x60}
	require.NoError(t, afero.WriteFile(r.Fs, "/code.bin", code, 0o644))
	require.NoError(t, afero.WriteFile(r.Fs, "/big.bin", make([]byte, st2205.USBPacket+1), 0o644))

	frame := &mocks.MockFrame{}
	frame.On("HackCode", code).Return(nil)
	frame.On("HackCodeLong", code).Return(nil)

	require.NoError(t, r.Run(frame, mustParse(t, "dev", "--upload-code", "/code.bin")))
	require.NoError(t, r.Run(frame, mustParse(t, "dev", "--upload-long-code", "/code.bin")))
	assert.Contains(t, out.String(), "Code verified and executing")

	err := r.Run(frame, mustParse(t, "dev", "--upload-code", "/big.bin"))
	require.ErrorIs(t, err, st2205.ErrSizeConstraint)
	frame.AssertNumberOfCalls(t, "HackCode", 1)
}

func TestRun_UploadImage(t *testing.T) {
	t.Parallel()

	r, _ := newTestRunner(t)
	raw := bytes.Repeat([]byte{7}, 300)
	require.NoError(t, afero.WriteFile(r.Fs, "/img.raw", raw, 0o644))

	frame := &mocks.MockFrame{}
	frame.On("HackImage", raw, int64(300)).Return(st2205.ErrSizeConstraint)

	err := r.Run(frame, mustParse(t, "dev", "--upload-image", "/img.raw"))
	require.ErrorIs(t, err, st2205.ErrSizeConstraint)
}

func TestRun_SetClock(t *testing.T) {
	t.Parallel()

	r, out := newTestRunner(t)
	frame := &mocks.MockFrame{}
	frame.On("SetClock", testNow).Return(nil)

	require.NoError(t, r.Run(frame, mustParse(t, "dev", "--set-clock")))
	assert.Equal(t, "Clock set to 2026-10-19 08:30\n", out.String())
	frame.AssertExpectations(t)
}

func TestRun_Switches(t *testing.T) {
	t.Parallel()

	r, _ := newTestRunner(t)
	frame := &mocks.MockFrame{}
	frame.On("Backlight", false).Return(nil)
	frame.On("LCDSleep", true).Return(nil)

	require.NoError(t, r.Run(frame, mustParse(t, "dev", "--backlight", "off")))
	require.NoError(t, r.Run(frame, mustParse(t, "dev", "--sleep", "on")))
	frame.AssertExpectations(t)
}

func TestRun_Progress(t *testing.T) {
	t.Parallel()

	r, _ := newTestRunner(t)
	var progress bytes.Buffer
	r.Progress = &progress

	frame := &mocks.MockFrame{}
	frame.On("SetProgress", mock.Anything).Run(func(args mock.Arguments) {
		fn, ok := args.Get(0).(st2205.ProgressFunc)
		require.True(t, ok)
		fn(1, 2)
		fn(2, 2)
	})
	frame.On("Backlight", true).Return(nil)

	require.NoError(t, r.Run(frame, mustParse(t, "dev", "--backlight", "on")))
	assert.Equal(t, "..\n", progress.String())
}
