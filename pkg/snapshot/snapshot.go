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

// Package snapshot saves and restores the complete content of a flash device.
// A snapshot carries the device geometry and a checksum of the raw content,
// followed by the compressed content.
package snapshot

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cespare/xxhash/v2"
	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/wearflash/pkg/flash"
)

//
const Version = 1

// MaxSize limits the raw content size accepted when reading a snapshot
const MaxSize = 1 << 30

//
var magic = []byte("WFSN")

//
var (
	ErrFormat   = errors.New("snapshot: not a snapshot")
	ErrChecksum = errors.New("snapshot: checksum mismatch")
	ErrGeometry = errors.New("snapshot: geometry mismatch")
)

//
const (
	ixVersion     = 4
	ixCodec       = 5
	ixSectorSize  = 8
	ixPageSize    = 12
	ixSectorCount = 16
	ixBase        = 20
	ixRawLength   = 24
	ixChecksum    = 32
	ixPayload     = 40
	headerLength  = 48
)

// Snapshot is the content of a flash device at one point in time
type Snapshot struct {
	Geometry flash.Geometry
	Codec    Codec
	Data     []byte
}

// Take copies the content of dev into a new snapshot.
func Take(dev flash.Device) *Snapshot {
	data := make([]byte, len(dev.Bytes()))
	copy(data, dev.Bytes())
	return &Snapshot{Geometry: dev.Geometry(), Data: data}
}

// Write writes the snapshot compressed with codec c.
func (s *Snapshot) Write(out io.Writer, c Codec) error {

	start := time.Now()

	comp, err := getCompressor(c)
	if err != nil {
		return err
	}

	payload, err := comp.Compress(s.Data)
	if err != nil {
		log.Warnf("compression with %s failed, storing uncompressed: %v", c, err)
		c = None
		payload = s.Data
	}

	hdr := make([]byte, headerLength)
	copy(hdr, magic)
	hdr[ixVersion] = Version
	hdr[ixCodec] = byte(c)
	binary.LittleEndian.PutUint32(hdr[ixSectorSize:], s.Geometry.SectorSize)
	binary.LittleEndian.PutUint32(hdr[ixPageSize:], s.Geometry.PageSize)
	binary.LittleEndian.PutUint32(hdr[ixSectorCount:], s.Geometry.SectorCount)
	binary.LittleEndian.PutUint32(hdr[ixBase:], s.Geometry.Base)
	binary.LittleEndian.PutUint64(hdr[ixRawLength:], uint64(len(s.Data)))
	binary.LittleEndian.PutUint64(hdr[ixChecksum:], xxhash.Sum64(s.Data))
	binary.LittleEndian.PutUint64(hdr[ixPayload:], uint64(len(payload)))

	if _, err := out.Write(hdr); err != nil {
		return err
	}
	if _, err := out.Write(payload); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"codec":      c,
		"raw":        len(s.Data),
		"compressed": len(payload),
		"duration":   time.Since(start),
	}).Debug("snapshot written")

	return nil
}

// Read reads a snapshot and verifies its checksum.
func Read(in io.Reader) (*Snapshot, error) {

	hdr := make([]byte, headerLength)
	if _, err := io.ReadFull(in, hdr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}

	if !bytes.Equal(hdr[:len(magic)], magic) {
		return nil, ErrFormat
	}
	if hdr[ixVersion] != Version {
		return nil, fmt.Errorf("incompatible snapshot version, want %d, got %d",
			Version, hdr[ixVersion])
	}

	s := &Snapshot{
		Codec: Codec(hdr[ixCodec]),
		Geometry: flash.Geometry{
			SectorSize:  binary.LittleEndian.Uint32(hdr[ixSectorSize:]),
			PageSize:    binary.LittleEndian.Uint32(hdr[ixPageSize:]),
			SectorCount: binary.LittleEndian.Uint32(hdr[ixSectorCount:]),
			Base:        binary.LittleEndian.Uint32(hdr[ixBase:]),
		},
	}

	raw := binary.LittleEndian.Uint64(hdr[ixRawLength:])
	sum := binary.LittleEndian.Uint64(hdr[ixChecksum:])
	length := binary.LittleEndian.Uint64(hdr[ixPayload:])

	if raw != uint64(s.Geometry.Size()) || raw > MaxSize || length > MaxSize {
		return nil, fmt.Errorf("%w: implausible sizes, raw %d, payload %d",
			ErrFormat, raw, length)
	}

	comp, err := getCompressor(s.Codec)
	if err != nil {
		return nil, err
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(in, payload); err != nil {
		return nil, fmt.Errorf("error reading snapshot payload: %v", err)
	}

	if s.Data, err = comp.Decompress(payload, int(raw)); err != nil {
		return nil, err
	}

	if uint64(len(s.Data)) != raw || xxhash.Sum64(s.Data) != sum {
		return nil, ErrChecksum
	}

	return s, nil
}

// Apply replaces the content of dev with the snapshot. Only sectors that
// differ get erased, and only pages that are not blank get programmed.
func (s *Snapshot) Apply(dev flash.Device) error {

	geo := dev.Geometry()
	if geo.SectorSize != s.Geometry.SectorSize ||
		geo.PageSize != s.Geometry.PageSize ||
		geo.SectorCount != s.Geometry.SectorCount {
		return fmt.Errorf("%w: device %v, snapshot %v",
			ErrGeometry, geo, s.Geometry)
	}

	erased, programmed := 0, 0

	for sec := uint32(0); sec < geo.SectorCount; sec++ {

		addr := geo.SectorAddress(sec)
		want := s.Data[addr : addr+geo.SectorSize]
		if bytes.Equal(want, dev.Bytes()[addr:addr+geo.SectorSize]) {
			continue
		}

		if err := dev.Erase(addr, geo.SectorSize); err != nil {
			return err
		}
		erased++

		for off := uint32(0); off < geo.SectorSize; off += geo.PageSize {
			page := want[off : off+geo.PageSize]
			if isBlank(page) {
				continue
			}
			if err := dev.Program(addr+off, page); err != nil {
				return err
			}
			programmed++
		}
	}

	log.WithFields(log.Fields{"erased": erased, "programmed": programmed}).Info(
		"snapshot applied")
	return nil
}

//
func isBlank(b []byte) bool {
	for _, v := range b {
		if v != flash.Erased {
			return false
		}
	}
	return true
}
