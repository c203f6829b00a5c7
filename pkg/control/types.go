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
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/xelalexv/wearflash/pkg/daemon"
	"github.com/xelalexv/wearflash/pkg/flash"
	"github.com/xelalexv/wearflash/pkg/ftl"
)

// Change is what long poll clients of the watch endpoint receive
type Change struct {
	Ready  bool        `json:"ready"`
	Layout ftl.Layout  `json:"layout"`
	Valid  int         `json:"valid"`
	Stats  flash.Stats `json:"stats"`
}

//
func newChange(s *daemon.Status) *Change {
	return &Change{
		Ready:  s.Ready,
		Layout: s.Layout,
		Valid:  s.Valid,
		Stats:  s.Stats,
	}
}

//
func (c *Change) Equals(o *Change) bool {
	return o != nil && *c == *o
}

//
type SectorList struct {
	Sectors []ftl.SectorInfo
}

//
func (l *SectorList) String() string {

	var b strings.Builder
	b.WriteString("\nSECTOR  ADDRESS       LOGICAL  SUB  WRITES")

	valid := 0
	for _, s := range l.Sectors {
		if s.Valid {
			valid++
			fmt.Fprintf(&b, "\n%6d  0x%08x  %7d  %3d  %6d", s.Sector, s.Address,
				s.Header.LogicalID, s.Header.SubSector, s.Header.WriteCount)
		} else {
			fmt.Fprintf(&b, "\n%6d  0x%08x  %s", s.Sector, s.Address, s.Header)
		}
	}

	fmt.Fprintf(&b, "\n\n%d of %d sectors valid", valid, len(l.Sectors))
	return b.String()
}

// Dump is content read from a logical sector
type Dump struct {
	Logical int    `json:"logical"`
	Offset  int    `json:"offset"`
	Address uint32 `json:"address"`
	Data    []byte `json:"data"`
}

// Reader renders the dump as a hex listing.
func (d *Dump) Reader() io.Reader {
	var b bytes.Buffer
	fmt.Fprintf(&b, "logical sector %d, offset %d, address 0x%08x, %d bytes\n\n",
		d.Logical, d.Offset, d.Address, len(d.Data))
	dumper := hex.Dumper(&b)
	dumper.Write(d.Data)
	dumper.Close()
	return &b
}

//
type Address struct {
	Logical int    `json:"logical"`
	Offset  int    `json:"offset"`
	Address uint32 `json:"address"`
}
