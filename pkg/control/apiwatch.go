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

package control

import (
	"net/http"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
)

//
func (a *api) watch(w http.ResponseWriter, req *http.Request) {

	timeout, err := strconv.Atoi(req.URL.Query().Get("timeout"))
	if err != nil || timeout < 0 || 1800 < timeout {
		timeout = 600
	}

	log.Infof("starting watch for %s, timeout %d", req.RemoteAddr, timeout)
	update := make(chan *Change, 1)

	select {
	case a.longPollQueue <- update:
	case <-time.After(time.Duration(timeout) * time.Second):
		log.Infof("closing watch for %s after timeout", req.RemoteAddr)
		sendReply([]byte{}, http.StatusRequestTimeout, w)
		return
	}

	log.Infof("sending daemon change to %s", req.RemoteAddr)
	sendJSONReply(<-update, http.StatusOK, w)
}

// watchDaemon polls the daemon status and hands a change to every waiting
// long poll client whenever the volume or the device counters moved.
func (a *api) watchDaemon() {

	log.Info("start watching for daemon changes")

	var last *Change
	ticker := time.NewTicker(a.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-a.stop:
			log.Info("stopped watching for daemon changes")
			return
		case <-ticker.C:
		}

		stat, err := a.daemon.GetStatus()
		if err != nil {
			log.Debugf("cannot get daemon status: %v", err)
			continue
		}

		change := newChange(stat)
		if change.Equals(last) {
			continue
		}
		last = change

		log.Debug("daemon changes")

	Loop:
		for {
			select {
			case cl := <-a.longPollQueue:
				log.Debug("notifying long poll client")
				cl <- change
			default:
				log.Debug("all long poll clients notified")
				break Loop
			}
		}
	}
}
