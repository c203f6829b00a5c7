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
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

/*
	The package initializer configures logrus from these environment variables:

		LOG_FORMAT		set to `json` for JSON logging
		LOG_FORCE_COLORS	set to non-empty for forcing colorized log entries
		LOG_METHODS		set to non-empty for including methods in log
		LOG_LEVEL		`panic`, `fatal`, `error`, `warn`, `info`, `debug`, `trace`
*/
func init() {

	log.SetOutput(os.Stdout)

	switch {
	case strings.ToLower(os.Getenv("LOG_FORMAT")) == "json":
		log.SetFormatter(&log.JSONFormatter{})
	case os.Getenv("LOG_FORCE_COLORS") != "":
		log.SetFormatter(&log.TextFormatter{ForceColors: true})
	}

	log.SetReportCaller(os.Getenv("LOG_METHODS") != "")

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		if l, err := log.ParseLevel(level); err != nil {
			log.Errorf("invalid log level: '%s'; valid levels are: panic, "+
				"fatal, error, warn, info, debug, trace", level)
		} else {
			log.SetLevel(l)
		}
	}
}

// UnderTest makes Die and DieOnError panic instead of exiting
var UnderTest bool

// DieOnError prints e and exits if e is not nil.
func DieOnError(e error) {
	if e != nil {
		Die("%v\n", e)
	}
}

// Die prints the message and exits.
func Die(msg string, params ...interface{}) {
	out := fmt.Sprintf(msg, params...)
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	fmt.Print(out)
	if UnderTest {
		panic(out)
	}
	os.Exit(1)
}

//
func GetUserConfirmation(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	var res string
	fmt.Scanln(&res)
	return strings.ToLower(strings.TrimSpace(res)) == "y"
}
