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

package ftl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xelalexv/wearflash/pkg/irq"
)

//
func TestColdBoot(t *testing.T) {
	dev := newTestDevice(t)
	v := initTestVolume(t, dev, Layout{LowerBound: 100, LogicalCount: 10, GroupBy: 1}, 1)

	r := v.Report()
	assert.Equal(t, 10, r.Invalid)
	assert.Equal(t, 0, r.Invalidated)
	assert.Equal(t, 10, r.Allocated)

	ids := map[uint16]bool{}
	for s := uint32(100); s < 110; s++ {
		h := v.HeaderAt(s)
		require.True(t, h.Valid(), "sector %d", s)
		assert.Less(t, h.LogicalID, uint16(10))
		assert.Equal(t, uint16(1), h.WriteCount)
		assert.Equal(t, uint8(0), h.SubSector)
		ids[h.LogicalID] = true
	}
	assert.Len(t, ids, 10)

	assert.False(t, v.IsValid(99))
	assert.False(t, v.IsValid(110))
	requireNoOverlap(t, v)
}

//
func TestWarmBootWritesNothing(t *testing.T) {
	dev := newTestDevice(t)
	l := Layout{LowerBound: 100, LogicalCount: 10, GroupBy: 1}

	before := mapping(t, initTestVolume(t, dev, l, 1))
	stats := dev.Stats()

	v := initTestVolume(t, dev, l, 2)

	assert.Equal(t, stats, dev.Stats(), "warm boot must not touch flash")
	assert.Equal(t, 0, v.Report().Allocated)
	assert.Equal(t, 0, v.Report().Invalid)
	assert.Equal(t, before, mapping(t, v))
}

//
func TestShrinkRecovery(t *testing.T) {
	dev := newTestDevice(t)
	cold := initTestVolume(t, dev,
		Layout{LowerBound: 100, LogicalCount: 10, GroupBy: 1}, 3)

	stale := 0
	for s := uint32(100); s < 105; s++ {
		if cold.HeaderAt(s).LogicalID >= 5 {
			stale++
		}
	}

	v := initTestVolume(t, dev, Layout{LowerBound: 100, LogicalCount: 5, GroupBy: 1}, 4)

	assert.Equal(t, stale, v.Report().Invalidated)
	assert.Equal(t, stale, v.Report().Allocated)
	assert.Equal(t, 0, v.Report().Invalid)

	for id, s := range mapping(t, v) {
		assert.GreaterOrEqual(t, s, uint32(100), "logical %d", id)
		assert.Less(t, s, uint32(105), "logical %d", id)
	}
	for s := uint32(100); s < 105; s++ {
		assert.True(t, v.IsValid(s))
		assert.Less(t, v.HeaderAt(s).LogicalID, uint16(5))
	}
	requireNoOverlap(t, v)
}

//
func TestMovedLowerBound(t *testing.T) {
	dev := newTestDevice(t)
	initTestVolume(t, dev, Layout{LowerBound: 100, LogicalCount: 10, GroupBy: 1}, 5)

	v := initTestVolume(t, dev, Layout{LowerBound: 105, LogicalCount: 10, GroupBy: 1}, 6)

	assert.Equal(t, 5, v.Report().Invalid)
	assert.Equal(t, 5, v.Report().Allocated)
	for id, s := range mapping(t, v) {
		assert.GreaterOrEqual(t, s, uint32(105), "logical %d", id)
		assert.Less(t, s, uint32(115), "logical %d", id)
	}
	requireNoOverlap(t, v)
}

//
func TestInitializeGroups(t *testing.T) {
	dev := newTestDevice(t)
	l := Layout{LowerBound: 16, LogicalCount: 4, GroupBy: GroupBy8}
	v := initTestVolume(t, dev, l, 7)

	assert.Equal(t, 4, v.Report().Allocated)
	assert.Equal(t, uint32(48), l.UpperBound())

	for id, rep := range mapping(t, v) {
		assert.Equal(t, uint32(0), (rep-16)%8, "representative %d not group aligned", rep)
		for sub := uint8(0); sub < 8; sub++ {
			s, ok := v.FindSubSector(id, sub)
			require.True(t, ok, "logical %d sub %d", id, sub)
			assert.Equal(t, rep+uint32(sub), s)
			assert.Equal(t, uint16(1), v.HeaderAt(s).WriteCount)
		}
	}
	requireNoOverlap(t, v)

	assert.Equal(t, uint32(8*1024-64), v.PayloadSize())
}

//
func TestInitializeInsideCriticalSection(t *testing.T) {
	ctl := irq.NewSoft()
	dev := &guardedDevice{Device: newTestDevice(t), t: t, ctl: ctl}

	v, err := Initialize(dev, Layout{LowerBound: 0, LogicalCount: 6, GroupBy: 2},
		WithRand(fixedRand(3)), WithController(ctl))
	require.NoError(t, err)
	assert.Equal(t, 6, v.Report().Allocated)
	assert.False(t, ctl.Masked())
}

//
func TestInvalidLayout(t *testing.T) {
	dev := newTestDevice(t)

	for _, l := range []Layout{
		{LowerBound: 250, LogicalCount: 10, GroupBy: 1},
		{LowerBound: 0, LogicalCount: 10, GroupBy: 0},
		{LowerBound: 0, LogicalCount: 0, GroupBy: 1},
	} {
		_, err := Initialize(dev, l)
		assert.True(t, errors.Is(err, ErrLayout), "layout %+v: %v", l, err)
	}
	assert.Equal(t, uint64(0), dev.Stats().Programs)
}

//
func TestDuplicatesMaskMissingIdentifier(t *testing.T) {
	dev := newTestDevice(t)
	writeHeader(t, dev, 0, newHeader(0, 0))
	writeHeader(t, dev, 1, newHeader(0, 0))

	v := initTestVolume(t, dev, Layout{LowerBound: 0, LogicalCount: 2, GroupBy: 1}, 1)

	assert.Equal(t, 0, v.Report().Allocated, "all representatives valid, nothing to do")
	s, ok := v.FindRepresentative(0)
	assert.True(t, ok)
	assert.Equal(t, uint32(0), s)
	_, ok = v.FindRepresentative(1)
	assert.False(t, ok)
}
