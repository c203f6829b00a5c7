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
	"bytes"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xelalexv/wearflash/pkg/flash"
	"github.com/xelalexv/wearflash/pkg/ftl"
)

// recorder is a fake daemon API that remembers the requests it got
type recorder struct {
	mu       sync.Mutex
	requests []string
	status   int
	reply    string
}

//
func (r *recorder) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req.Method+" "+req.URL.RequestURI())
	status := r.status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	w.Write([]byte(r.reply))
}

//
func (r *recorder) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.requests) == 0 {
		return ""
	}
	return r.requests[len(r.requests)-1]
}

//
func startRecorder(t *testing.T) (*recorder, []string) {
	t.Helper()
	rec := &recorder{}
	srv := httptest.NewServer(rec)
	t.Cleanup(srv.Close)
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return rec, []string{"--server", u.Hostname(), "--port", u.Port()}
}

//
func TestCommandsCallAPI(t *testing.T) {
	rec, base := startRecorder(t)

	require.NoError(t, NewDump().Execute(
		append([]string{"-n", "3", "-o", "64", "-l", "16"}, base...)))
	assert.Equal(t, "GET /sector/3?offset=64&length=16", rec.last())

	require.NoError(t, NewDump().Execute(
		append([]string{"-n", "2", "-o", "5000", "-A"}, base...)))
	assert.Equal(t, "GET /sector/2/address?offset=5000", rec.last())

	require.NoError(t, NewErase().Execute(append([]string{"-n", "7"}, base...)))
	assert.Equal(t, "PUT /sector/7/erase", rec.last())

	require.NoError(t, NewErase().Execute(
		append([]string{"-n", "7", "-u", "0"}, base...)))
	assert.Equal(t, "PUT /sector/7/erase/0", rec.last())

	require.NoError(t, NewDelete().Execute(append([]string{"-b", "4"}, base...)))
	assert.Equal(t, "PUT /delete?begin=4", rec.last())

	require.NoError(t, NewDelete().Execute(
		append([]string{"-b", "4", "-e", "9"}, base...)))
	assert.Equal(t, "PUT /delete?begin=4&end=9", rec.last())

	require.NoError(t, NewDelete().Execute(append([]string{"--all", "--yes"}, base...)))
	assert.Equal(t, "PUT /delete?all=true", rec.last())

	require.NoError(t, NewInit().Execute(
		append([]string{"-l", "16", "-c", "40", "-g", "8"}, base...)))
	assert.Equal(t, "PUT /init?lower=16&count=40&group=8", rec.last())

	require.NoError(t, NewList().Execute(base))
	assert.Equal(t, "GET /list", rec.last())

	require.NoError(t, NewStatus().Execute(base))
	assert.Equal(t, "GET /status", rec.last())
}

//
func TestPortFromEnvironment(t *testing.T) {
	rec, base := startRecorder(t)
	t.Setenv("WEARFLASH_SERVER", base[1])
	t.Setenv("WEARFLASH_PORT", base[3])

	require.NoError(t, NewList().Execute([]string{"-j"}))
	assert.Equal(t, "GET /list", rec.last())
}

//
func TestAPIErrorReply(t *testing.T) {
	rec, base := startRecorder(t)
	rec.status = http.StatusNotFound
	rec.reply = "logical sector 3 not found\n"

	err := NewDump().Execute(append([]string{"-n", "3"}, base...))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "logical sector 3 not found")
}

//
func TestSaveWritesFile(t *testing.T) {
	rec, base := startRecorder(t)
	rec.reply = "WFSN-snapshot-bytes"

	out := filepath.Join(t.TempDir(), "flash.wfs")
	require.NoError(t, NewSave().Execute(
		append([]string{"-o", out, "-t", "lz4"}, base...)))
	assert.Equal(t, "GET /snapshot?type=lz4", rec.last())

	data, err := ioutil.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "WFSN-snapshot-bytes", string(data))

	err = NewSave().Execute(append([]string{"-o", out, "-t", "rar"}, base...))
	assert.Error(t, err)
}

//
func TestRequiredSetting(t *testing.T) {
	UnderTest = true
	defer func() { UnderTest = false }()

	assert.Panics(t, func() {
		NewLoad().Execute([]string{"--port", "1"})
	})
}

//
func TestLayoutSettings(t *testing.T) {
	f := &FlashSettings{Lower: 4, Count: 10, Group: 8}
	l, err := f.layout()
	require.NoError(t, err)
	assert.Equal(t, ftl.Layout{LowerBound: 4, LogicalCount: 10, GroupBy: 8}, l)

	for _, bad := range []FlashSettings{
		{Lower: -1, Count: 1, Group: 1},
		{Count: 0, Group: 1},
		{Count: 0x10000, Group: 1},
		{Count: 1, Group: 0},
		{Count: 1, Group: 256},
	} {
		_, err := bad.layout()
		assert.True(t, errors.Is(err, ftl.ErrLayout), "%+v", bad)
	}

	f = &FlashSettings{SectorSize: 4096, PageSize: 100, SectorCount: 8}
	_, err = f.geometry()
	assert.Error(t, err)
}

//
func TestInitImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flash.img")
	geo := flash.Geometry{SectorSize: 1024, PageSize: 64, SectorCount: 64,
		Base: flash.DefaultBase}
	l := ftl.Layout{LowerBound: 8, LogicalCount: 12, GroupBy: 2}

	var out bytes.Buffer
	require.NoError(t, initImage(path, geo, l, &out))
	assert.Contains(t, out.String(), "12 invalid, 0 invalidated, 12 allocated")

	out.Reset()
	require.NoError(t, initImage(path, geo, l, &out))
	assert.Contains(t, out.String(), "0 invalid, 0 invalidated, 0 allocated")

	// shrinking: logical sectors dropped from the range get invalidated, and
	// those left outside the new range get allocated again
	out.Reset()
	l.LogicalCount = 10
	require.NoError(t, initImage(path, geo, l, &out))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	var invalid, invalidated, allocated int
	_, err := fmt.Sscanf(lines[1], "%d invalid, %d invalidated, %d allocated",
		&invalid, &invalidated, &allocated)
	require.NoError(t, err)
	assert.Equal(t, 0, invalid)
	assert.Equal(t, invalidated, allocated)
}
