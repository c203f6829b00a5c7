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

package flash

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//
func smallGeometry() Geometry {
	return Geometry{SectorSize: 1024, PageSize: 64, SectorCount: 8, Base: DefaultBase}
}

//
func TestMemoryStartsErased(t *testing.T) {
	m, err := NewMemory(smallGeometry())
	require.NoError(t, err)
	require.Len(t, m.Bytes(), 8*1024)
	for ix, b := range m.Bytes() {
		if b != Erased {
			t.Fatalf("byte %d not erased: 0x%02x", ix, b)
		}
	}
}

//
func TestProgramOnlyClearsBits(t *testing.T) {
	m, err := NewMemory(smallGeometry())
	require.NoError(t, err)

	page := make([]byte, 64)
	for ix := range page {
		page[ix] = Erased
	}
	page[0] = 0xf0
	require.NoError(t, m.Program(1024, page))
	assert.Equal(t, byte(0xf0), m.Bytes()[1024])

	page[0] = 0x3f
	require.NoError(t, m.Program(1024, page))
	assert.Equal(t, byte(0x30), m.Bytes()[1024], "set bits must stay cleared")
	assert.Equal(t, byte(Erased), m.Bytes()[1025])
	assert.Equal(t, uint64(2), m.Stats().Programs)
}

//
func TestEraseRestoresOnes(t *testing.T) {
	m, err := NewMemory(smallGeometry())
	require.NoError(t, err)

	require.NoError(t, m.Program(2048, make([]byte, 64)))
	assert.Equal(t, byte(0), m.Bytes()[2048])

	require.NoError(t, m.Erase(2048, 2048))
	assert.Equal(t, byte(Erased), m.Bytes()[2048])
	assert.Equal(t, uint32(1), m.EraseCount(2))
	assert.Equal(t, uint32(1), m.EraseCount(3))
	assert.Equal(t, uint32(0), m.EraseCount(1))
	assert.Equal(t, uint64(1), m.Stats().Erases)
}

//
func TestAlignmentAndRange(t *testing.T) {
	m, err := NewMemory(smallGeometry())
	require.NoError(t, err)

	err = m.Erase(100, 1024)
	assert.True(t, errors.Is(err, ErrAlignment))

	err = m.Erase(0, 100)
	assert.True(t, errors.Is(err, ErrAlignment))

	err = m.Erase(7*1024, 2048)
	assert.True(t, errors.Is(err, ErrOutOfRange))

	err = m.Program(32, make([]byte, 64))
	assert.True(t, errors.Is(err, ErrAlignment))

	err = m.Program(0, make([]byte, 10))
	assert.True(t, errors.Is(err, ErrAlignment))

	err = m.Program(8*1024, make([]byte, 64))
	assert.True(t, errors.Is(err, ErrOutOfRange))

	assert.Equal(t, Stats{}, m.Stats())
}

//
func TestGeometryValidate(t *testing.T) {
	assert.NoError(t, DefaultGeometry().Validate())
	assert.Error(t, Geometry{SectorSize: 1000, PageSize: 256, SectorCount: 1}.Validate())
	assert.Error(t, Geometry{SectorSize: 4096, PageSize: 256}.Validate())
	assert.Equal(t, 2*1024*1024, DefaultGeometry().Size())
	assert.Equal(t, uint32(8192), DefaultGeometry().SectorAddress(2))
}
