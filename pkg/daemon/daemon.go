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

// Package daemon owns the flash device and the translation layer volume on
// it, serializes access from API callers, and periodically persists the
// device content.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/wearflash/pkg/flash"
	"github.com/xelalexv/wearflash/pkg/ftl"
	"github.com/xelalexv/wearflash/pkg/irq"
)

//
const (
	DefaultSyncInterval = 5 * time.Second
	DefaultLockTimeout  = time.Second
)

//
var (
	ErrDaemonStopped = errors.New("daemon stopped")
	ErrNotReady      = errors.New("volume not initialized")
	ErrBusy          = errors.New("flash busy")
	ErrRange         = errors.New("argument out of range")
)

// the daemon that manages the flash device
type Daemon struct {
	//
	ref    string
	device flash.Device
	ctl    *irq.Soft
	layout ftl.Layout
	volume atomic.Value
	opts   []ftl.Option
	//
	lock         chan bool
	lockTimeout  time.Duration
	syncInterval time.Duration
	stop         chan bool
	stopOnce     sync.Once
	started      time.Time
}

// NewDaemon creates a daemon for device dev, which was opened from reference
// ref. The volume gets initialized with layout when the daemon starts serving.
func NewDaemon(ref string, dev flash.Device, layout ftl.Layout,
	syncInterval time.Duration, opts ...ftl.Option) *Daemon {

	if syncInterval <= 0 {
		syncInterval = DefaultSyncInterval
	}

	return &Daemon{
		ref:          ref,
		device:       dev,
		ctl:          irq.NewSoft(),
		layout:       layout,
		opts:         opts,
		lock:         make(chan bool, 1),
		lockTimeout:  DefaultLockTimeout,
		syncInterval: syncInterval,
		stop:         make(chan bool),
		started:      time.Now(),
	}
}

// Serve initializes the volume and then keeps persisting the device until
// the daemon is stopped.
func (d *Daemon) Serve() error {

	if err := d.Initialize(d.layout); err != nil {
		return err
	}

	ticker := time.NewTicker(d.syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.ctl.Serve(d.sync)
		case <-d.stop:
			d.ctl.Serve(d.sync)
			return ErrDaemonStopped
		}
	}
}

//
func (d *Daemon) Stop() {
	d.stopOnce.Do(func() {
		log.Info("daemon stopping...")
		close(d.stop)
	})
}

// sync runs as an interrupt handler, so it never sees an erase or program
// sequence half way through.
func (d *Daemon) sync() {
	if s, ok := d.device.(flash.Syncer); ok {
		if err := s.Sync(); err != nil {
			log.Errorf("error syncing flash device: %v", err)
		} else {
			log.Trace("flash device synced")
		}
	}
}

// Initialize (re-)initializes the volume with layout.
func (d *Daemon) Initialize(layout ftl.Layout) error {
	return d.exclusive(func() error {
		return d.initialize(layout)
	})
}

//
func (d *Daemon) initialize(layout ftl.Layout) error {

	opts := append([]ftl.Option{ftl.WithController(d.ctl)}, d.opts...)
	v, err := ftl.Initialize(d.device, layout, opts...)
	if err != nil {
		return err
	}

	d.layout = layout
	d.volume.Store(v)
	d.ctl.Serve(d.sync)
	return nil
}

// Use runs fn with the volume while holding the daemon lock.
func (d *Daemon) Use(fn func(v *ftl.Volume) error) error {
	return d.exclusive(func() error {
		v := d.getVolume()
		if v == nil {
			return ErrNotReady
		}
		return fn(v)
	})
}

//
func (d *Daemon) exclusive(fn func() error) error {

	ctx, cancel := context.WithTimeout(context.Background(), d.lockTimeout)
	defer cancel()

	if !d.acquire(ctx) {
		return ErrBusy
	}
	defer d.release()

	return fn()
}

//
func (d *Daemon) acquire(ctx context.Context) bool {
	select {
	case d.lock <- true:
		return true
	case <-ctx.Done():
		return false
	}
}

//
func (d *Daemon) release() {
	select {
	case <-d.lock:
	default:
	}
}

//
func (d *Daemon) getVolume() *ftl.Volume {
	if v := d.volume.Load(); v != nil {
		return v.(*ftl.Volume)
	}
	return nil
}

//
func (d *Daemon) Device() flash.Device {
	return d.device
}

//
func checkLogical(v *ftl.Volume, id int) error {
	if id < 0 || id >= int(v.Layout().LogicalCount) {
		return fmt.Errorf("%w: logical sector %d, volume has %d",
			ErrRange, id, v.Layout().LogicalCount)
	}
	return nil
}

//
func checkSubSector(v *ftl.Volume, sub int) error {
	if sub < 0 || sub >= int(v.Layout().GroupBy) {
		return fmt.Errorf("%w: sub-sector %d, group size is %d",
			ErrRange, sub, v.Layout().GroupBy)
	}
	return nil
}
