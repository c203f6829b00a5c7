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

	"github.com/xelalexv/wearflash/pkg/ftl"
)

//
func (a *api) status(w http.ResponseWriter, req *http.Request) {

	stat, err := a.daemon.GetStatus()
	if handleDaemonError(err, w) {
		return
	}

	if wantsJSON(req) {
		sendJSONReply(stat, http.StatusOK, w)
	} else {
		sendReply([]byte(stat.String()), http.StatusOK, w)
	}
}

//
func (a *api) list(w http.ResponseWriter, req *http.Request) {

	sectors, err := a.daemon.Sectors()
	if handleDaemonError(err, w) {
		return
	}

	if wantsJSON(req) {
		sendJSONReply(sectors, http.StatusOK, w)
		return
	}

	list := &SectorList{Sectors: sectors}
	sendReply([]byte(list.String()), http.StatusOK, w)
}

//
func (a *api) initialize(w http.ResponseWriter, req *http.Request) {

	lower, err := getIntArg(req, "lower")
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return
	}

	count, err := getIntArg(req, "count")
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return
	}

	group, err := getOptionalIntArg(req, "group", ftl.GroupBy1)
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return
	}

	if lower < 0 || count < 1 || count > 0xffff || group < 1 || group > 0xff {
		handleError(fmt.Errorf(
			"invalid layout: lower=%d, count=%d, group=%d", lower, count, group),
			http.StatusUnprocessableEntity, w)
		return
	}

	l := ftl.Layout{
		LowerBound:   uint32(lower),
		LogicalCount: uint16(count),
		GroupBy:      uint8(group),
	}

	if handleDaemonError(a.daemon.Initialize(l), w) {
		return
	}

	sendReply([]byte(fmt.Sprintf("initialized volume: %s", l)), http.StatusOK, w)
}
