/*
   WearFlash - wear leveling translation layer for NOR flash
   Copyright (c) 2021, Alexander Vollschwitz

   This file is part of WearFlash.

   WearFlash is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   WearFlash is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with WearFlash. If not, see <http://www.gnu.org/licenses/>.
*/

package snapshot

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xelalexv/wearflash/pkg/flash"
)

//
func testDevice(t *testing.T) *flash.Memory {
	t.Helper()
	dev, err := flash.NewMemory(flash.Geometry{
		SectorSize: 1024, PageSize: 64, SectorCount: 32, Base: flash.DefaultBase})
	require.NoError(t, err)

	page := make([]byte, 64)
	for ix := range page {
		page[ix] = byte(ix * 7)
	}
	require.NoError(t, dev.Program(3*1024, page))
	require.NoError(t, dev.Program(17*1024+128, page))
	return dev
}

//
func TestRoundTripPerCodec(t *testing.T) {
	for _, c := range []Codec{None, Zstd, S2, LZ4} {
		t.Run(c.String(), func(t *testing.T) {
			src := testDevice(t)

			var buf bytes.Buffer
			require.NoError(t, Take(src).Write(&buf, c))
			if c != None {
				assert.Less(t, buf.Len(), len(src.Bytes())/4, "mostly erased image compresses")
			}

			snap, err := Read(&buf)
			require.NoError(t, err)
			assert.Equal(t, src.Geometry(), snap.Geometry)
			assert.Equal(t, src.Bytes(), snap.Data)

			dst, err := flash.NewMemory(src.Geometry())
			require.NoError(t, err)
			require.NoError(t, snap.Apply(dst))
			assert.Equal(t, src.Bytes(), dst.Bytes())
			assert.Equal(t, uint64(2), dst.Stats().Erases, "only differing sectors erased")
		})
	}
}

//
func TestChecksumMismatch(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Take(testDevice(t)).Write(&buf, None))

	raw := buf.Bytes()
	raw[headerLength+3*1024] ^= 0x01

	_, err := Read(bytes.NewReader(raw))
	assert.True(t, errors.Is(err, ErrChecksum))
}

//
func TestNotASnapshot(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte("definitely not a snapshot, but long enough to read")))
	assert.True(t, errors.Is(err, ErrFormat))

	_, err = Read(bytes.NewReader([]byte("WF")))
	assert.True(t, errors.Is(err, ErrFormat))
}

//
func TestApplyGeometryMismatch(t *testing.T) {
	snap := Take(testDevice(t))
	other, err := flash.NewMemory(flash.Geometry{SectorSize: 1024, PageSize: 64, SectorCount: 16})
	require.NoError(t, err)
	assert.True(t, errors.Is(snap.Apply(other), ErrGeometry))
}

//
func TestParseCodec(t *testing.T) {
	c, err := ParseCodec("")
	require.NoError(t, err)
	assert.Equal(t, Zstd, c)

	c, err = ParseCodec("LZ4")
	require.NoError(t, err)
	assert.Equal(t, LZ4, c)

	_, err = ParseCodec("gzip")
	assert.Error(t, err)
}
