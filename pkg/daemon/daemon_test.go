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

package daemon

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xelalexv/wearflash/pkg/flash"
	"github.com/xelalexv/wearflash/pkg/ftl"
	"github.com/xelalexv/wearflash/pkg/snapshot"
)

//
var testLayout = ftl.Layout{LowerBound: 8, LogicalCount: 6, GroupBy: 2}

// syncingDevice counts syncs
type syncingDevice struct {
	*flash.Memory
	syncs int32
}

//
func (s *syncingDevice) Sync() error {
	atomic.AddInt32(&s.syncs, 1)
	return nil
}

//
func newTestDaemon(t *testing.T) (*Daemon, *syncingDevice) {
	t.Helper()
	mem, err := flash.NewMemory(flash.Geometry{
		SectorSize: 1024, PageSize: 64, SectorCount: 32, Base: flash.DefaultBase})
	require.NoError(t, err)
	dev := &syncingDevice{Memory: mem}
	d := NewDaemon("mem://", dev, testLayout, 10*time.Millisecond)
	d.lockTimeout = 20 * time.Millisecond
	return d, dev
}

//
func TestNotReadyBeforeInitialize(t *testing.T) {
	d, _ := newTestDaemon(t)

	_, err := d.Sectors()
	assert.True(t, errors.Is(err, ErrNotReady))

	stat, err := d.GetStatus()
	require.NoError(t, err)
	assert.False(t, stat.Ready)
	assert.Contains(t, stat.String(), "not initialized")
}

//
func TestServeAndStop(t *testing.T) {
	d, dev := newTestDaemon(t)

	done := make(chan error)
	go func() {
		done <- d.Serve()
	}()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&dev.syncs) >= 3
	}, 2*time.Second, 5*time.Millisecond)

	stat, err := d.GetStatus()
	require.NoError(t, err)
	assert.True(t, stat.Ready)
	assert.Equal(t, testLayout, stat.Layout)
	assert.Equal(t, 12, stat.Valid)
	assert.Equal(t, 6, stat.Report.Allocated)

	d.Stop()
	d.Stop()

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, ErrDaemonStopped))
	case <-time.After(2 * time.Second):
		t.Fatal("daemon did not stop")
	}
}

//
func TestServeInvalidLayout(t *testing.T) {
	d, _ := newTestDaemon(t)
	d.layout = ftl.Layout{LowerBound: 30, LogicalCount: 4, GroupBy: 1}
	assert.True(t, errors.Is(d.Serve(), ftl.ErrLayout))
}

//
func TestBusy(t *testing.T) {
	d, _ := newTestDaemon(t)
	require.NoError(t, d.Initialize(testLayout))

	d.lock <- true
	assert.True(t, errors.Is(d.EraseLogical(0), ErrBusy))
	d.release()

	assert.NoError(t, d.EraseLogical(0))
}

//
func TestRangeChecks(t *testing.T) {
	d, _ := newTestDaemon(t)
	require.NoError(t, d.Initialize(testLayout))

	assert.True(t, errors.Is(d.EraseLogical(6), ErrRange))
	assert.True(t, errors.Is(d.EraseLogical(-1), ErrRange))
	assert.True(t, errors.Is(d.ErasePhysical(0, 2), ErrRange))
	assert.True(t, errors.Is(d.Delete(4, 2), ErrRange))
	_, _, err := d.Read(6, 0, 0)
	assert.True(t, errors.Is(err, ErrRange))
	_, err = d.Resolve(0, 2*1024)
	assert.True(t, errors.Is(err, ftl.ErrOffset))
}

//
func TestReadAndResolve(t *testing.T) {
	d, dev := newTestDaemon(t)
	require.NoError(t, d.Initialize(testLayout))

	addr, data, err := d.Read(2, 1024+64, 16)
	require.NoError(t, err)
	assert.Len(t, data, 16)
	assert.Equal(t, byte(flash.Erased), data[0])

	resolved, err := d.Resolve(2, 1024+64)
	require.NoError(t, err)
	assert.Equal(t, addr, resolved)

	_, data, err = d.Read(2, 64, 0)
	require.NoError(t, err)
	assert.Len(t, data, 1024-64, "read stops at physical sector end")

	_, head, err := d.Read(2, 0, ftl.HeaderSize)
	require.NoError(t, err)
	h := ftl.DecodeHeader(head)
	assert.True(t, h.Valid())
	assert.Equal(t, uint16(2), h.LogicalID)

	sector := (addr - dev.Geometry().Base) / dev.Geometry().SectorSize
	assert.Equal(t, uint8(1), ftl.DecodeHeader(
		dev.Bytes()[dev.Geometry().SectorAddress(sector):]).SubSector)
}

//
func TestDeleteAndReinitialize(t *testing.T) {
	d, _ := newTestDaemon(t)
	require.NoError(t, d.Initialize(testLayout))

	require.NoError(t, d.DeleteAll())
	_, _, err := d.Read(0, 0, 0)
	assert.True(t, errors.Is(err, ftl.ErrNotFound))

	require.NoError(t, d.Initialize(testLayout))
	stat, err := d.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 6, stat.Report.Invalid)
	assert.Equal(t, 12, stat.Valid)

	require.NoError(t, d.Delete(0, 32))
	sectors, err := d.Sectors()
	require.NoError(t, err)
	for _, s := range sectors {
		assert.False(t, s.Valid)
	}
}

//
func TestSnapshotRestore(t *testing.T) {
	d, dev := newTestDaemon(t)
	require.NoError(t, d.Initialize(testLayout))

	snap, err := d.Snapshot()
	require.NoError(t, err)
	before, err := d.Sectors()
	require.NoError(t, err)

	require.NoError(t, d.DeleteAll())
	require.NoError(t, d.Restore(snap))

	after, err := d.Sectors()
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, snap.Data, dev.Bytes())

	other := &snapshot.Snapshot{Geometry: flash.Geometry{
		SectorSize: 1024, PageSize: 64, SectorCount: 16}}
	assert.True(t, errors.Is(d.Restore(other), snapshot.ErrGeometry))
}
