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
	"reflect"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

//
type setting struct {
	flag     string
	env      string
	required bool
	target   interface{}
}

/*
	AddSetting binds the variable target points to, to command line flag
	--flag (-short) and, if env is not empty, to environment variable env. def
	is the default value and needs to be nil for required settings. The type of
	the target selects the matching pflag and Viper methods, so only types both
	of them support can be used.
*/
func (c *Command) AddSetting(target interface{}, flag, short, env string,
	def interface{}, help string, required bool) {

	s := &setting{flag: flag, env: env, required: required, target: target}
	c.settings[flag] = s

	typ, name, err := s.typeName()
	DieOnError(err)

	log.Tracef("add setting: flag=%s, env=%s, type=%s", flag, env, typ)

	if _, err := viperGetter(name); err != nil {
		Die("setting '%s' is of unsupported type: %v", flag, err)
	}

	defVal := reflect.Zero(typ)
	if def != nil {
		if required {
			Die("required setting '%s' does not take a default value", flag)
		}
		if !reflect.TypeOf(def).ConvertibleTo(typ) {
			Die("default value for setting '%s' has incorrect type", flag)
		}
		defVal = reflect.ValueOf(def).Convert(typ)
	}

	flags := c.cmd.Flags()
	setter, err := pflagSetter(name, flags)
	if err != nil {
		Die("setting '%s' is of unsupported type: %v", flag, err)
	}

	if env != "" {
		help = fmt.Sprintf("%s (%s)", help, env)
	}

	setter.Call([]reflect.Value{
		reflect.ValueOf(target),
		reflect.ValueOf(flag),
		reflect.ValueOf(short),
		defVal,
		reflect.ValueOf(help),
	})

	viper.BindPFlag(flag, flags.Lookup(flag))
	if env != "" {
		viper.BindEnv(flag, env)
	}
}

// typeName returns the target's type and the name used for looking up the
// pflag and Viper methods, e.g. Uint32 for GetUint32 and Uint32VarP.
func (s *setting) typeName() (reflect.Type, string, error) {
	typ := reflect.TypeOf(s.target)
	if typ == nil || typ.Kind() != reflect.Ptr {
		return nil, "", fmt.Errorf(
			"target for setting '%s' is not a pointer", s.flag)
	}
	elem := typ.Elem()
	if elem.Kind() == reflect.Slice {
		return nil, "", fmt.Errorf(
			"setting '%s': slice settings are not supported", s.flag)
	}
	name := elem.Name()
	return elem, strings.ToUpper(name[:1]) + name[1:], nil
}

// resolve stores the value Viper has for the setting in the target. Viper
// does not write values from bound environment variables to the target, so
// the value gets written back here.
func (s *setting) resolve() error {

	typ, name, err := s.typeName()
	if err != nil {
		return err
	}

	getter, err := viperGetter(name)
	if err != nil {
		return err
	}

	val := getter.Call([]reflect.Value{reflect.ValueOf(s.flag)})[0]
	log.Tracef("setting %s=%v (set: %v)", s.flag, val, viper.IsSet(s.flag))

	if s.required && val.Interface() == reflect.Zero(typ).Interface() {
		msg := fmt.Sprintf("you need to specify the --%s command line flag", s.flag)
		if s.env != "" {
			msg = fmt.Sprintf("%s or the %s environment variable", msg, s.env)
		}
		return fmt.Errorf("%s", msg)
	}

	if s.env != "" {
		reflect.ValueOf(s.target).Elem().Set(val)
	}
	return nil
}

//
func (s *setting) isSet(flags *pflag.FlagSet) bool {
	if f := flags.Lookup(s.flag); f != nil && f.Changed {
		return true
	}
	if s.env != "" {
		_, ok := os.LookupEnv(s.env)
		return ok
	}
	return false
}

//
func viperGetter(name string) (reflect.Value, error) {
	method := "Get" + name
	ret := reflect.ValueOf(viper.GetViper()).MethodByName(method)
	if ret.Kind() != reflect.Func {
		return ret, fmt.Errorf("no Viper getter %s", method)
	}
	return ret, nil
}

//
func pflagSetter(name string, f *pflag.FlagSet) (reflect.Value, error) {
	method := name + "VarP"
	ret := reflect.ValueOf(f).MethodByName(method)
	if ret.Kind() != reflect.Func {
		return ret, fmt.Errorf("no pflag method %s", method)
	}
	return ret, nil
}
