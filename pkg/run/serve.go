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

package run

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/wearflash/pkg/control"
	"github.com/xelalexv/wearflash/pkg/daemon"
	"github.com/xelalexv/wearflash/pkg/flash"
)

//
func NewServe() *Serve {

	s := &Serve{}
	s.Runner = *NewRunner(
		`serve -d|--device {device} -c|--count {count} [-l|--lower {sector}]
  [-g|--group {size}] [-a|--address {address}] [--sync {interval}]
  [--sector-size {bytes}] [--page-size {bytes}] [--sectors {count}] [--base {address}]`,
		"daemon & API server command",
		`Use the serve command for running the flash daemon and API server. The daemon
opens the flash device, initializes the volume with the given layout, and then
serves API requests. Flash image files are synced to disk periodically and when
the daemon stops.`,
		"", `- The device is either a path to a flash image file, which gets created if it
  does not exist, 'serial://{port}' for a microcontroller attached via serial
  line, or 'mem://' for a volatile in-memory device.

`+logHelp+runnerHelpEpilogue, s.Run)

	s.AddSetting(&s.Device, "device", "d", "WEARFLASH_DEVICE", nil,
		"flash device reference", true)
	s.AddSetting(&s.Address, "address", "a", "WEARFLASH_ADDRESS", "",
		"listen address of API server", false)
	s.AddSetting(&s.Sync, "sync", "", "WEARFLASH_SYNC",
		daemon.DefaultSyncInterval, "interval for syncing flash device", false)
	s.addGeometrySettings(&s.Command)
	s.addLayoutSettings(&s.Command, true)

	return s
}

//
type Serve struct {
	//
	Runner
	FlashSettings
	//
	Device  string
	Address string
	Sync    time.Duration
}

//
func (s *Serve) Run() error {

	s.ParseSettings()

	geo, err := s.geometry()
	if err != nil {
		return err
	}
	layout, err := s.layout()
	if err != nil {
		return err
	}

	dev, err := flash.Open(s.Device, geo)
	if err != nil {
		return err
	}
	defer func() {
		if err := flash.Close(dev); err != nil {
			log.Errorf("error closing flash device: %v", err)
		}
	}()

	wg := &sync.WaitGroup{}
	wg.Add(2)

	d := daemon.NewDaemon(s.Device, dev, layout, s.Sync)
	failed := make(chan bool, 2)

	go func() {
		defer wg.Done()
		err := d.Serve()
		if err != nil && err != daemon.ErrDaemonStopped {
			log.Errorf("daemon closed with error: %v", err)
			failed <- true
		} else {
			log.Info("daemon stopped")
		}
	}()

	api := control.NewAPIServer(s.Address, d)
	go func() {
		defer wg.Done()
		if err := api.Serve(); err != nil {
			log.Errorf("API server closed with error: %v", err)
			failed <- true
		} else {
			log.Info("API server stopped")
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	sigCount := 0
	done := make(chan bool)

	shutdown := func() {
		log.Info("shutting down, hit Ctrl-C twice to force exit...")
		api.Stop()
		d.Stop()
		wg.Wait()
		log.Info("WearFlash stopped")
		done <- true
	}

	for {

		select {

		case sig := <-sigs: // interrupt signal
			log.WithField("signal", sig).Info("signal received")
			sigCount++

			switch sigCount {

			case 1:
				go shutdown()

			case 2:
				log.Warn("shutdown in progress, hit Ctrl-C again to force exit")

			default:
				log.Warn("forcing daemon to stop immediately")
				os.Exit(1)
			}

		case <-failed:
			if sigCount == 0 {
				sigCount++
				go shutdown()
			}

		case <-done: // shutdown sequence complete
			return nil
		}
	}
}
