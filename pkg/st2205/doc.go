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

// Package st2205 drives photo frames built on the Sitronix ST2205U
// controller through the pseudo disk they present over USB mass storage.
//
// A frame is opened with Open, which checks the vendor signature and runs
// one Identifier to learn the panel geometry. The returned Device then
// offers flash access (page read, write and checksum, firmware upload),
// display streaming with an incremental diff engine, and code injection
// into frames running patched firmware.
//
// Commands are issued by writing a sector at a fixed offset of the disk
// and their data is exchanged through two more fixed offsets. The raw
// device must bypass the page cache, so on Linux it is opened with
// O_DIRECT and every transfer uses page aligned buffers owned by the
// Device.
package st2205
