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
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
)

//
func (a *api) dump(w http.ResponseWriter, req *http.Request) {

	id := getVar(w, req, "id")
	if id == -1 {
		return
	}

	offset, err := getOptionalIntArg(req, "offset", 0)
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return
	}

	length, err := getOptionalIntArg(req, "length", 0)
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return
	}

	addr, data, err := a.daemon.Read(id, offset, length)
	if handleDaemonError(err, w) {
		return
	}

	d := &Dump{Logical: id, Offset: offset, Address: addr, Data: data}

	if wantsJSON(req) {
		sendJSONReply(d, http.StatusOK, w)
	} else {
		sendStreamReply(d.Reader(), http.StatusOK, w)
	}
}

//
func (a *api) resolve(w http.ResponseWriter, req *http.Request) {

	id := getVar(w, req, "id")
	if id == -1 {
		return
	}

	offset, err := getOptionalIntArg(req, "offset", 0)
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return
	}

	addr, err := a.daemon.Resolve(id, offset)
	if handleDaemonError(err, w) {
		return
	}

	if wantsJSON(req) {
		sendJSONReply(&Address{Logical: id, Offset: offset, Address: addr},
			http.StatusOK, w)
	} else {
		sendReply([]byte(fmt.Sprintf("0x%08x", addr)), http.StatusOK, w)
	}
}

//
func (a *api) erase(w http.ResponseWriter, req *http.Request) {

	id := getVar(w, req, "id")
	if id == -1 {
		return
	}

	if _, ok := mux.Vars(req)["sub"]; ok {
		sub := getVar(w, req, "sub")
		if sub == -1 {
			return
		}
		if handleDaemonError(a.daemon.ErasePhysical(id, sub), w) {
			return
		}
		sendReply([]byte(fmt.Sprintf(
			"erased sub-sector %d of logical sector %d", sub, id)), http.StatusOK, w)
		return
	}

	if handleDaemonError(a.daemon.EraseLogical(id), w) {
		return
	}
	sendReply([]byte(fmt.Sprintf("erased logical sector %d", id)), http.StatusOK, w)
}

//
func (a *api) delete(w http.ResponseWriter, req *http.Request) {

	if isFlagSet(req, "all") {
		if handleDaemonError(a.daemon.DeleteAll(), w) {
			return
		}
		sendReply([]byte("deleted all sectors of volume"), http.StatusOK, w)
		return
	}

	begin, err := getIntArg(req, "begin")
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return
	}

	end, err := getOptionalIntArg(req, "end", begin+1)
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return
	}

	if handleDaemonError(a.daemon.Delete(begin, end), w) {
		return
	}
	sendReply([]byte(fmt.Sprintf(
		"deleted physical sectors %d through %d", begin, end-1)), http.StatusOK, w)
}
