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
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/xelalexv/wearflash/pkg/snapshot"
)

//
func (a *api) save(w http.ResponseWriter, req *http.Request) {

	arg, err := getArg(req, "type")
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return
	}

	codec, err := snapshot.ParseCodec(arg)
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return
	}

	snap, err := a.daemon.Snapshot()
	if handleDaemonError(err, w) {
		return
	}

	var out bytes.Buffer
	if handleError(snap.Write(&out, codec), http.StatusInternalServerError, w) {
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	w.Write(out.Bytes())
}

//
func (a *api) load(w http.ResponseWriter, req *http.Request) {

	snap, err := snapshot.Read(io.LimitReader(req.Body, snapshot.MaxSize))
	if err != nil {
		handleError(fmt.Errorf("snapshot corrupted: %w", err),
			http.StatusUnprocessableEntity, w)
		return
	}
	if handleError(req.Body.Close(), http.StatusInternalServerError, w) {
		return
	}

	if handleDaemonError(a.daemon.Restore(snap), w) {
		return
	}

	sendReply([]byte(fmt.Sprintf(
		"restored %s snapshot of %d bytes", snap.Codec, len(snap.Data))),
		http.StatusOK, w)
}
