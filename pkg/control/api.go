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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/wearflash/pkg/daemon"
	"github.com/xelalexv/wearflash/pkg/ftl"
	"github.com/xelalexv/wearflash/pkg/snapshot"
)

//
const DefaultPort = 8888

//
type APIServer interface {
	Serve() error
	Stop() error
}

//
func NewAPIServer(addr string, d *daemon.Daemon) APIServer {
	return newAPI(addr, d)
}

//
func newAPI(addr string, d *daemon.Daemon) *api {
	return &api{
		address:       addr,
		daemon:        d,
		longPollQueue: make(chan chan *Change),
		stop:          make(chan bool),
		pollInterval:  2 * time.Second,
	}
}

//
type api struct {
	address string
	daemon  *daemon.Daemon
	server  *http.Server
	//
	longPollQueue chan chan *Change
	stop          chan bool
	pollInterval  time.Duration
}

//
func (a *api) Serve() error {

	addr := a.address
	if len(strings.Split(addr, ":")) < 2 {
		addr = fmt.Sprintf("%s:%d", a.address, DefaultPort)
	}

	log.Infof("WearFlash API starts listening on %s", addr)
	a.server = &http.Server{Addr: addr, Handler: a.routes()}

	go a.watchDaemon()

	err := a.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

//
func (a *api) routes() *mux.Router {

	router := mux.NewRouter().StrictSlash(true)

	addRoute(router, "status", "GET", "/status", a.status)
	addRoute(router, "watch", "GET", "/watch", a.watch)
	addRoute(router, "ls", "GET", "/list", a.list)
	addRoute(router, "init", "PUT", "/init", a.initialize)
	addRoute(router, "dump", "GET", "/sector/{id:[0-9]+}", a.dump)
	addRoute(router, "address", "GET", "/sector/{id:[0-9]+}/address", a.resolve)
	addRoute(router, "erase", "PUT", "/sector/{id:[0-9]+}/erase", a.erase)
	addRoute(router, "erasesub", "PUT",
		"/sector/{id:[0-9]+}/erase/{sub:[0-9]+}", a.erase)
	addRoute(router, "delete", "PUT", "/delete", a.delete)
	addRoute(router, "save", "GET", "/snapshot", a.save)
	addRoute(router, "load", "PUT", "/snapshot", a.load)

	return router
}

//
func (a *api) Stop() error {
	if a.server != nil {
		log.Info("API server stopping...")
		close(a.stop)
		err := a.server.Shutdown(context.Background())
		a.server = nil
		return err
	}
	return nil
}

//
func addRoute(r *mux.Router, name, method, pattern string,
	handler http.HandlerFunc) {
	r.Methods(method).
		Path(pattern).
		Name(name).
		Handler(requestLogger(handler, name))
}

//
func requestLogger(inner http.Handler, name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		log.WithFields(log.Fields{
			"remote": r.RemoteAddr,
			"method": r.Method,
			"path":   r.RequestURI,
		}).Debugf("API BEGIN | %s", name)

		start := time.Now()
		inner.ServeHTTP(w, r)

		log.WithFields(log.Fields{
			"remote":   r.RemoteAddr,
			"method":   r.Method,
			"path":     r.RequestURI,
			"duration": time.Since(start),
		}).Debugf("API END   | %s", name)
	})
}

// statusCode maps errors from the daemon and the layers below to HTTP status
func statusCode(err error) int {
	switch {
	case errors.Is(err, ftl.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ftl.ErrNoSpace):
		return http.StatusInsufficientStorage
	case errors.Is(err, daemon.ErrBusy):
		return http.StatusLocked
	case errors.Is(err, daemon.ErrNotReady):
		return http.StatusServiceUnavailable
	case errors.Is(err, ftl.ErrLayout),
		errors.Is(err, ftl.ErrOffset),
		errors.Is(err, daemon.ErrRange),
		errors.Is(err, snapshot.ErrFormat),
		errors.Is(err, snapshot.ErrChecksum),
		errors.Is(err, snapshot.ErrGeometry):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

//
func handleDaemonError(e error, w http.ResponseWriter) bool {
	if e == nil {
		return false
	}
	return handleError(e, statusCode(e), w)
}

//
func getVar(w http.ResponseWriter, req *http.Request, name string) int {
	ret, err := strconv.Atoi(mux.Vars(req)[name])
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return -1
	}
	return ret
}

//
func isFlagSet(req *http.Request, flag string) bool {
	arg, _ := getArg(req, flag)
	return arg == "true"
}

//
func getArg(req *http.Request, arg string) (string, error) {
	ret := req.URL.Query().Get(arg)
	if ret != "" {
		return url.QueryUnescape(ret)
	}
	return ret, nil
}

//
func getIntArg(req *http.Request, arg string) (int, error) {
	if val, err := getArg(req, arg); err != nil {
		return -1, err
	} else {
		if ret, err := strconv.Atoi(val); err != nil {
			return -1, fmt.Errorf("invalid value for '%s': %v", arg, err)
		} else {
			return ret, nil
		}
	}
}

// getOptionalIntArg returns def if arg is absent
func getOptionalIntArg(req *http.Request, arg string, def int) (int, error) {
	if val, _ := getArg(req, arg); val == "" {
		return def, nil
	}
	return getIntArg(req, arg)
}

//
func setHeaders(h http.Header, json bool) {
	if json {
		h.Set("Content-Type", "application/json; charset=UTF-8")
	} else {
		h.Set("Content-Type", "text/plain; charset=UTF-8")
	}
}

//
func handleError(e error, statusCode int, w http.ResponseWriter) bool {

	if e == nil {
		return false
	}

	log.Errorf("%v", e)

	setHeaders(w.Header(), false)
	w.WriteHeader(statusCode)
	if _, err := w.Write([]byte(fmt.Sprintf("%v\n", e))); err != nil {
		log.Errorf("problem writing error: %v", err)
	}

	return true
}

//
func sendReply(body []byte, statusCode int, w http.ResponseWriter) {
	setHeaders(w.Header(), false)
	w.WriteHeader(statusCode)
	if _, err := fmt.Fprintf(w, "%s\n", body); err != nil {
		log.Errorf("problem sending reply: %v", err)
	}
}

//
func sendStreamReply(r io.Reader, statusCode int, w http.ResponseWriter) {
	setHeaders(w.Header(), false)
	w.WriteHeader(statusCode)
	if _, err := io.Copy(w, r); err != nil {
		log.Errorf("problem sending reply: %v", err)
	}
}

//
func sendJSONReply(obj interface{}, statusCode int, w http.ResponseWriter) {
	setHeaders(w.Header(), true)
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(obj); err != nil {
		log.Errorf("problem writing error: %v", err)
	}
}

//
func wantsJSON(req *http.Request) bool {
	return strings.HasPrefix(req.Header.Get("Content-Type"), "application/json") ||
		strings.Contains(req.Header.Get("Accept"), "application/json")
}
