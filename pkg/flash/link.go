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

package flash

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/jacobsa/go-serial/serial"
	log "github.com/sirupsen/logrus"
)

// Link protocol commands. Each command is a frame of frameLength bytes:
// command byte, three reserved bytes, little-endian address and length.
// Program frames are followed by length data bytes. The adapter answers every
// frame with a status byte, and read frames additionally with length bytes.
const (
	CmdRead    = 'r'
	CmdErase   = 'e'
	CmdProgram = 'p'

	StatusOK   = 'k'
	StatusFail = 'n'
)

const frameLength = 12
const helloLength = 4

//
var helloAdapter = []byte("hlof")
var helloDaemon = []byte("hlod")

// Link is a flash device on a microcontroller adapter attached via a serial
// line. The adapter's flash is read once when connecting and then kept in a
// local mirror, which serves as the memory mapped view. Erase and program
// operations are applied to the mirror after the adapter acknowledged them.
type Link struct {
	*nor
	port io.ReadWriteCloser
}

// DialSerial opens the serial port and connects to the adapter behind it.
func DialSerial(port string, geo Geometry) (*Link, error) {

	log.Infof("opening port %s", port)

	p, err := serial.Open(serial.OpenOptions{
		PortName:        port,
		BaudRate:        1000000,
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot open serial port: %v", err)
	}

	l, err := NewLink(p, geo)
	if err != nil {
		p.Close()
		return nil, err
	}
	return l, nil
}

// NewLink syncs with the adapter on the other end of port and reads the
// complete flash content into the local mirror.
func NewLink(port io.ReadWriteCloser, geo Geometry) (*Link, error) {

	if err := geo.Validate(); err != nil {
		return nil, err
	}

	l := &Link{port: port}

	if err := l.syncOnHello(); err != nil {
		return nil, fmt.Errorf("error syncing with adapter: %v", err)
	}

	data := make([]byte, geo.Size())
	for s := uint32(0); s < geo.SectorCount; s++ {
		addr := geo.SectorAddress(s)
		if err := l.read(addr, data[addr:addr+geo.SectorSize]); err != nil {
			return nil, fmt.Errorf("error reading sector %d: %v", s, err)
		}
	}

	l.nor = newNOR(geo, data)
	log.Infof("mirrored %d bytes of adapter flash", len(data))
	return l, nil
}

//
func (l *Link) syncOnHello() error {

	log.Info("syncing with adapter")
	hello := make([]byte, helloLength)

	for !bytes.Equal(hello, helloAdapter) {
		shiftLeft(hello)
		if _, err := io.ReadFull(l.port, hello[len(hello)-1:]); err != nil {
			return err
		}
	}

	if _, err := l.port.Write(helloDaemon); err != nil {
		return fmt.Errorf("error sending daemon hello: %v", err)
	}

	log.Info("synced with adapter")
	return nil
}

//
func (l *Link) Erase(addr, length uint32) error {
	if err := l.checkErase(addr, length); err != nil {
		return err
	}
	if err := l.command(CmdErase, addr, length, nil); err != nil {
		return err
	}
	l.erase(addr, length)
	return nil
}

//
func (l *Link) Program(addr uint32, data []byte) error {
	if err := l.checkProgram(addr, len(data)); err != nil {
		return err
	}
	if err := l.command(CmdProgram, addr, uint32(len(data)), data); err != nil {
		return err
	}
	l.program(addr, data)
	return nil
}

//
func (l *Link) read(addr uint32, buf []byte) error {
	if err := l.command(CmdRead, addr, uint32(len(buf)), nil); err != nil {
		return err
	}
	_, err := io.ReadFull(l.port, buf)
	return err
}

//
func (l *Link) command(cmd byte, addr, length uint32, payload []byte) error {

	frame := make([]byte, frameLength, frameLength+len(payload))
	frame[0] = cmd
	binary.LittleEndian.PutUint32(frame[4:], addr)
	binary.LittleEndian.PutUint32(frame[8:], length)
	frame = append(frame, payload...)

	if _, err := l.port.Write(frame); err != nil {
		return fmt.Errorf("error sending command '%c': %v", cmd, err)
	}

	status := make([]byte, 1)
	if _, err := io.ReadFull(l.port, status); err != nil {
		return fmt.Errorf("error receiving status for '%c': %v", cmd, err)
	}

	if status[0] != StatusOK {
		return fmt.Errorf("adapter rejected '%c' 0x%x+0x%x, status 0x%02x",
			cmd, addr, length, status[0])
	}

	return nil
}

//
func (l *Link) Close() error {
	if l.nor != nil {
		l.closed = true
	}
	log.Info("closing adapter link")
	return l.port.Close()
}

//
func shiftLeft(buf []byte) {
	if len(buf) > 1 {
		copy(buf, buf[1:])
	}
}
