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
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/wearflash/pkg/flash"
	"github.com/xelalexv/wearflash/pkg/ftl"
	"github.com/xelalexv/wearflash/pkg/irq"
	"github.com/xelalexv/wearflash/pkg/snapshot"
)

// Status describes the daemon, its device, and the volume on it
type Status struct {
	Device   string         `json:"device"`
	Ready    bool           `json:"ready"`
	Geometry flash.Geometry `json:"geometry"`
	Layout   ftl.Layout     `json:"layout"`
	Payload  uint32         `json:"payload"`
	Report   ftl.InitReport `json:"init"`
	Valid    int            `json:"valid"`
	Lookup   time.Duration  `json:"lookup"`
	Stats    flash.Stats    `json:"stats"`
	Uptime   time.Duration  `json:"uptime"`
}

//
func (s *Status) String() string {

	ret := fmt.Sprintf("\ndevice:   %s\ngeometry: %s\n", s.Device, s.Geometry)

	if !s.Ready {
		return ret + "volume:   <not initialized>\n"
	}

	ret += fmt.Sprintf("layout:   %s\npayload:  %d bytes per logical sector\n",
		s.Layout, s.Payload)
	ret += fmt.Sprintf(
		"init:     %d invalid, %d invalidated, %d allocated, took %v\n",
		s.Report.Invalid, s.Report.Invalidated, s.Report.Allocated,
		s.Report.Duration)
	ret += fmt.Sprintf("valid:    %d physical sectors\n", s.Valid)
	ret += fmt.Sprintf("lookup:   %v worst case\n", s.Lookup)
	ret += fmt.Sprintf("ops:      %d erases, %d programs\n",
		s.Stats.Erases, s.Stats.Programs)
	ret += fmt.Sprintf("uptime:   %v\n", s.Uptime.Round(time.Second))

	return ret
}

// GetStatus returns the current status. Measuring the lookup time resolves
// the last logical sector, which is the longest scan.
func (d *Daemon) GetStatus() (*Status, error) {

	ret := &Status{
		Device:   d.ref,
		Geometry: d.device.Geometry(),
		Uptime:   time.Since(d.started),
	}

	err := d.Use(func(v *ftl.Volume) error {
		ret.Ready = true
		ret.Layout = v.Layout()
		ret.Payload = v.PayloadSize()
		ret.Report = v.Report()
		for _, s := range v.Sectors() {
			if s.Valid {
				ret.Valid++
			}
		}
		start := time.Now()
		v.FindRepresentative(v.Layout().LogicalCount - 1)
		ret.Lookup = time.Since(start)
		ret.Stats = d.device.Stats()
		return nil
	})

	if errors.Is(err, ErrNotReady) {
		ret.Stats = d.device.Stats()
		return ret, nil
	}
	return ret, err
}

// Sectors lists the headers of all physical sectors of the volume.
func (d *Daemon) Sectors() ([]ftl.SectorInfo, error) {
	var ret []ftl.SectorInfo
	err := d.Use(func(v *ftl.Volume) error {
		ret = v.Sectors()
		return nil
	})
	return ret, err
}

// Resolve returns the memory mapped address of offset within logical
// sector id.
func (d *Daemon) Resolve(id, offset int) (uint32, error) {
	var ret uint32
	err := d.Use(func(v *ftl.Volume) error {
		if err := checkLogical(v, id); err != nil {
			return err
		}
		if offset < 0 {
			return fmt.Errorf("%w: negative offset %d", ErrRange, offset)
		}
		var err error
		ret, err = v.ResolveReadAddress(uint16(id), uint32(offset))
		return err
	})
	return ret, err
}

// Read copies up to length bytes from offset within logical sector id. Reads
// end at the boundary of the physical sector holding offset.
func (d *Daemon) Read(id, offset, length int) (uint32, []byte, error) {

	var addr uint32
	var ret []byte

	err := d.Use(func(v *ftl.Volume) error {
		if err := checkLogical(v, id); err != nil {
			return err
		}
		if offset < 0 || length < 0 {
			return fmt.Errorf("%w: offset %d, length %d", ErrRange, offset, length)
		}
		var err error
		if addr, err = v.ResolveReadAddress(uint16(id), uint32(offset)); err != nil {
			return err
		}
		view, err := v.ReadView(uint16(id), uint32(offset))
		if err != nil {
			return err
		}
		if length == 0 || length > len(view) {
			length = len(view)
		}
		ret = make([]byte, length)
		copy(ret, view)
		return nil
	})

	return addr, ret, err
}

// EraseLogical erases logical sector id.
func (d *Daemon) EraseLogical(id int) error {
	return d.Use(func(v *ftl.Volume) error {
		if err := checkLogical(v, id); err != nil {
			return err
		}
		return v.EraseLogicalSector(uint16(id))
	})
}

// ErasePhysical erases sub-sector sub of logical sector id.
func (d *Daemon) ErasePhysical(id, sub int) error {
	return d.Use(func(v *ftl.Volume) error {
		if err := checkLogical(v, id); err != nil {
			return err
		}
		if err := checkSubSector(v, sub); err != nil {
			return err
		}
		return v.ErasePhysicalSector(uint16(id), uint8(sub))
	})
}

// Delete invalidates physical sectors begin through end-1. The volume keeps
// its layout, but the deleted logical sectors only come back with the next
// initialization.
func (d *Daemon) Delete(begin, end int) error {
	return d.Use(func(v *ftl.Volume) error {
		if begin < 0 || end < 0 {
			return fmt.Errorf("%w: sector range %d-%d", ErrRange, begin, end)
		}
		if err := v.DeleteRange(uint32(begin), uint32(end)); err != nil {
			return fmt.Errorf("%w: %v", ErrRange, err)
		}
		return nil
	})
}

// DeleteAll invalidates all physical sectors of the volume.
func (d *Daemon) DeleteAll() error {
	return d.Use(func(v *ftl.Volume) error {
		return v.DeleteAll()
	})
}

// Snapshot takes a snapshot of the complete device content.
func (d *Daemon) Snapshot() (*snapshot.Snapshot, error) {
	var ret *snapshot.Snapshot
	err := d.exclusive(func() error {
		ret = snapshot.Take(d.device)
		return nil
	})
	return ret, err
}

// Restore replaces the device content with snapshot s and re-initializes the
// volume with the current layout.
func (d *Daemon) Restore(s *snapshot.Snapshot) error {
	return d.exclusive(func() error {
		if err := irq.Critical(d.ctl, func() error {
			return s.Apply(d.device)
		}); err != nil {
			return err
		}
		log.Info("snapshot restored, re-initializing volume")
		return d.initialize(d.layout)
	})
}
