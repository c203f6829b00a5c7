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

// Package ftl is a wear leveling translation layer for raw NOR flash. It maps
// stable logical sector identifiers onto physical sectors that may move
// between power cycles. All bookkeeping lives in a small header at the start
// of each physical sector, so there is no separate metadata region.
//
// A logical sector consists of GroupBy contiguous physical sectors. The first
// of them is the representative of the group; the allocator and the boot time
// sweep only look at representatives.
package ftl

import (
	"fmt"
	"math/rand"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/wearflash/pkg/flash"
	"github.com/xelalexv/wearflash/pkg/irq"
)

// common group sizes
const (
	GroupBy1  = 1
	GroupBy8  = 8
	GroupBy16 = 16
	GroupBy64 = 64
)

// Layout selects the part of the flash device managed by a volume. The volume
// uses physical sectors LowerBound through UpperBound()-1.
type Layout struct {
	LowerBound   uint32 `json:"lowerBound"`
	LogicalCount uint16 `json:"logicalCount"`
	GroupBy      uint8  `json:"groupBy"`
}

//
func (l Layout) UpperBound() uint32 {
	return l.LowerBound + uint32(l.LogicalCount)*uint32(l.GroupBy)
}

//
func (l Layout) Validate(geo flash.Geometry) error {
	if l.GroupBy == 0 {
		return fmt.Errorf("%w: group size must be at least 1", ErrLayout)
	}
	if l.LogicalCount == 0 {
		return fmt.Errorf("%w: need at least one logical sector", ErrLayout)
	}
	if l.UpperBound() > geo.SectorCount {
		return fmt.Errorf("%w: sectors %d through %d exceed device with %d sectors",
			ErrLayout, l.LowerBound, l.UpperBound()-1, geo.SectorCount)
	}
	if geo.PageSize < HeaderSize {
		return fmt.Errorf("%w: page size %d cannot hold a header",
			ErrLayout, geo.PageSize)
	}
	return nil
}

//
func (l Layout) String() string {
	return fmt.Sprintf("%d logical sectors of %d, physical sectors %d-%d",
		l.LogicalCount, l.GroupBy, l.LowerBound, l.UpperBound()-1)
}

// Rand is the random source driving the allocator
type Rand interface {
	Intn(n int) int
}

// InitReport summarizes what Initialize found and did.
type InitReport struct {
	Invalid     int           `json:"invalid"`
	Invalidated int           `json:"invalidated"`
	Allocated   int           `json:"allocated"`
	Duration    time.Duration `json:"duration"`
}

// Volume is an initialized translation layer on a flash device. Its layout
// never changes; re-initialize to switch to another layout. A volume does
// not support concurrent callers.
type Volume struct {
	dev    flash.Device
	geo    flash.Geometry
	layout Layout
	irq    irq.Controller
	rnd    Rand
	report InitReport
}

//
type Option func(*Volume)

// WithRand sets the allocator's random source. The default is seeded from
// the clock.
func WithRand(r Rand) Option {
	return func(v *Volume) {
		v.rnd = r
	}
}

// WithController sets the interrupt controller used for critical sections.
func WithController(c irq.Controller) Option {
	return func(v *Volume) {
		v.irq = c
	}
}

// Initialize brings the flash into a state where every logical sector of the
// layout has a physical sector. Sectors that already carry a valid header for
// an identifier in range are left alone, so running it on every boot is
// cheap once the flash has been set up.
func Initialize(dev flash.Device, layout Layout, opts ...Option) (*Volume, error) {

	geo := dev.Geometry()
	if err := layout.Validate(geo); err != nil {
		return nil, err
	}

	v := &Volume{
		dev:    dev,
		geo:    geo,
		layout: layout,
	}
	for _, o := range opts {
		o(v)
	}
	if v.irq == nil {
		v.irq = irq.NewSoft()
	}
	if v.rnd == nil {
		v.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	start := time.Now()
	err := v.initialize()
	v.report.Duration = time.Since(start)

	log.WithFields(log.Fields{
		"layout":      layout.String(),
		"invalid":     v.report.Invalid,
		"invalidated": v.report.Invalidated,
		"allocated":   v.report.Allocated,
		"duration":    v.report.Duration,
	}).Info("volume initialized")

	if err != nil {
		return nil, err
	}
	return v, nil
}

//
func (v *Volume) Layout() Layout {
	return v.layout
}

//
func (v *Volume) Geometry() flash.Geometry {
	return v.geo
}

//
func (v *Volume) Device() flash.Device {
	return v.dev
}

// Report returns what happened during initialization
func (v *Volume) Report() InitReport {
	return v.report
}

// PayloadSize is the number of usable bytes in a logical sector. The header
// page of the representative is reserved.
func (v *Volume) PayloadSize() uint32 {
	return uint32(v.layout.GroupBy)*v.geo.SectorSize - v.geo.PageSize
}

//
func (v *Volume) groupBy() uint32 {
	return uint32(v.layout.GroupBy)
}
