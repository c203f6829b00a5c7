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

package ftl

import "errors"

var (
	// ErrNotFound indicates that no valid header exists for a logical sector
	// or one of its sub-sectors.
	ErrNotFound = errors.New("ftl: logical sector not found")

	// ErrNoSpace indicates that the allocator found no free physical sector.
	ErrNoSpace = errors.New("ftl: no free physical sector")

	// ErrLayout indicates a layout that does not fit the flash device.
	ErrLayout = errors.New("ftl: invalid layout")

	// ErrOffset indicates a read offset beyond the logical sector.
	ErrOffset = errors.New("ftl: offset beyond logical sector")
)
