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

import (
	"encoding/binary"
	"fmt"

	"github.com/xelalexv/wearflash/pkg/flash"
)

// Signature marks a physical sector as owned by the translation layer. Any
// other value in the signature field means the sector is free.
const Signature uint32 = 0x27062021

// HeaderSize is the number of bytes a header occupies at the start of the
// header page. The rest of the page stays erased.
const HeaderSize = 9

//
const (
	offSignature  = 0
	offLogicalID  = 4
	offWriteCount = 6
	offSubSector  = 8
)

// Header is the metadata at the start of every physical sector.
type Header struct {
	Signature  uint32 `json:"signature"`
	LogicalID  uint16 `json:"logicalID"`
	WriteCount uint16 `json:"writeCount"`
	SubSector  uint8  `json:"subSector"`
}

//
func newHeader(id uint16, sub uint8) Header {
	return Header{
		Signature:  Signature,
		LogicalID:  id,
		WriteCount: 1,
		SubSector:  sub,
	}
}

// DecodeHeader reads a header from the start of b, which needs to hold at
// least HeaderSize bytes.
func DecodeHeader(b []byte) Header {
	return Header{
		Signature:  binary.LittleEndian.Uint32(b[offSignature:]),
		LogicalID:  binary.LittleEndian.Uint16(b[offLogicalID:]),
		WriteCount: binary.LittleEndian.Uint16(b[offWriteCount:]),
		SubSector:  b[offSubSector],
	}
}

// EncodePage fills page with the erased value and places the header at its
// start. Padding stays erased so it can still be programmed later.
func (h Header) EncodePage(page []byte) {
	for ix := range page {
		page[ix] = flash.Erased
	}
	binary.LittleEndian.PutUint32(page[offSignature:], h.Signature)
	binary.LittleEndian.PutUint16(page[offLogicalID:], h.LogicalID)
	binary.LittleEndian.PutUint16(page[offWriteCount:], h.WriteCount)
	page[offSubSector] = h.SubSector
}

//
func (h Header) Valid() bool {
	return h.Signature == Signature
}

// bumped returns a copy of the header with its write count incremented
func (h Header) bumped() Header {
	h.WriteCount++
	return h
}

//
func (h Header) String() string {
	if !h.Valid() {
		return "<free>"
	}
	return fmt.Sprintf("logical %5d  sub %3d  writes %5d",
		h.LogicalID, h.SubSector, h.WriteCount)
}
