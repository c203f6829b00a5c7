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

// Package irq provides interrupt masking for the flash translation layer.
// Erase and program sequences must not be interrupted by handlers that could
// touch the flash being modified, so they run inside a critical section.
package irq

import (
	"sync"
)

// State is the interrupt state before a Disable
type State uint32

//
const (
	Disabled State = 0
	Enabled  State = 1
)

// Controller masks and unmasks interrupts. Disable returns the state that was
// in effect before, to be passed to Restore. Calls nest correctly as long as
// every Disable is paired with a Restore of its returned state.
type Controller interface {
	Disable() State
	Restore(s State)
}

// Critical runs fn with interrupts disabled. The previous interrupt state is
// restored on all exit paths, including panics.
func Critical(c Controller, fn func() error) error {
	s := c.Disable()
	defer c.Restore(s)
	return fn()
}

// Soft is a Controller for hosts without real interrupts. Handlers register
// their work through Serve, which only runs while interrupts are enabled and
// otherwise waits until they are restored. A handler that is running delays
// Disable until it completes, just as a CPU finishes an ISR first.
type Soft struct {
	mu      sync.Mutex
	enabled *sync.Cond
	masked  bool
}

//
func NewSoft() *Soft {
	s := &Soft{}
	s.enabled = sync.NewCond(&s.mu)
	return s
}

//
func (s *Soft) Disable() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := Enabled
	if s.masked {
		prev = Disabled
	}
	s.masked = true
	return prev
}

//
func (s *Soft) Restore(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st == Enabled {
		s.masked = false
		s.enabled.Broadcast()
	}
}

// Masked reports whether interrupts are currently disabled.
func (s *Soft) Masked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.masked
}

// Serve runs the handler fn as soon as interrupts are enabled.
func (s *Soft) Serve(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for s.masked {
		s.enabled.Wait()
	}
	fn()
}

// None is a Controller that does nothing, for devices whose erase and
// program operations cannot collide with any handler.
type None struct{}

//
func (None) Disable() State {
	return Enabled
}

//
func (None) Restore(State) {}
