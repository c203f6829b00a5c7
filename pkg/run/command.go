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

	"github.com/spf13/cobra"
)

//
const (
	prologueHeader = ""
	epilogueHeader = `
Notes:

`
)

/*
	Command wraps a Cobra command. Settings added via AddSetting can come from
	a command line flag or from an environment variable, with the flag taking
	precedence. Viper does the binding, but does not report a missing required
	setting in a helpful way, so Command takes care of that.
*/
type Command struct {
	//
	cmd      *cobra.Command
	settings map[string]*setting
	//
	Args []string
	//
	prologue    string
	epilogue    string
	defaultHelp func(*cobra.Command, []string)
}

/*
	NewCommand creates a command that calls exec when executed. prologue and
	epilogue get printed before and after the generated help text.
*/
func NewCommand(use, short, long, prologue, epilogue string,
	exec func() error) *Command {

	c := &Command{
		cmd: &cobra.Command{
			Use:                   use,
			Short:                 short,
			Long:                  long,
			SilenceErrors:         true,
			SilenceUsage:          true,
			DisableFlagsInUseLine: true,
			RunE: func(*cobra.Command, []string) error {
				return exec()
			},
		},
		settings: map[string]*setting{},
		prologue: prologue,
		epilogue: epilogue,
	}

	c.defaultHelp = c.cmd.HelpFunc()
	c.cmd.SetHelpFunc(c.help)
	return c
}

//
func (c *Command) help(cmd *cobra.Command, args []string) {
	out := cmd.OutOrStdout()
	if c.prologue != "" {
		fmt.Fprintln(out, prologueHeader+c.prologue)
	}
	if c.defaultHelp != nil {
		c.defaultHelp(cmd, args)
	}
	if c.epilogue != "" {
		fmt.Fprintln(out, epilogueHeader+c.epilogue)
	} else {
		fmt.Fprintln(out)
	}
}

// Execute runs the command. Non-empty args replace os.Args.
func (c *Command) Execute(args []string) error {
	if len(args) > 0 {
		c.cmd.SetArgs(args)
	}
	return c.cmd.Execute()
}

/*
	ParseSettings fills all variables bound via AddSetting. Call it at the
	start of the exec function, before using any of them.
*/
func (c *Command) ParseSettings() {
	for _, s := range c.settings {
		DieOnError(s.resolve())
	}
	c.Args = c.cmd.Flags().Args()
}

// IsSet reports whether the setting was given on the command line or via its
// environment variable.
func (c *Command) IsSet(flag string) bool {
	if s, ok := c.settings[flag]; ok {
		return s.isSet(c.cmd.Flags())
	}
	return false
}
