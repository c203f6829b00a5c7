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

package snapshot

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec identifies the compression of a snapshot payload
type Codec byte

//
const (
	None Codec = iota
	Zstd
	S2
	LZ4
)

//
func (c Codec) String() string {
	switch c {
	case None:
		return "none"
	case Zstd:
		return "zstd"
	case S2:
		return "s2"
	case LZ4:
		return "lz4"
	default:
		return "<unknown>"
	}
}

// ParseCodec returns the codec for name. An empty name selects zstd.
func ParseCodec(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case "", "zstd":
		return Zstd, nil
	case "none":
		return None, nil
	case "s2":
		return S2, nil
	case "lz4":
		return LZ4, nil
	default:
		return None, fmt.Errorf("unsupported snapshot codec: %s", name)
	}
}

// compressor is what each codec needs to do. Decompress is told the size of
// the raw data, which the snapshot header carries.
type compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte, size int) ([]byte, error)
}

//
func getCompressor(c Codec) (compressor, error) {
	switch c {
	case None:
		return noop{}, nil
	case Zstd:
		return zstdCodec{}, nil
	case S2:
		return s2Codec{}, nil
	case LZ4:
		return lz4Codec{}, nil
	default:
		return nil, fmt.Errorf("unsupported snapshot codec: %d", c)
	}
}

//
type noop struct{}

func (noop) Compress(data []byte) ([]byte, error) {
	return data, nil
}

func (noop) Decompress(data []byte, size int) ([]byte, error) {
	return data, nil
}

//
var zstdEncoders = sync.Pool{
	New: func() any {
		enc, err := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
			zstd.WithEncoderCRC(false))
		if err != nil {
			panic(fmt.Sprintf("failed to create zstd encoder: %v", err))
		}
		return enc
	},
}

//
var zstdDecoders = sync.Pool{
	New: func() any {
		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if err != nil {
			panic(fmt.Sprintf("failed to create zstd decoder: %v", err))
		}
		return dec
	},
}

//
type zstdCodec struct{}

func (zstdCodec) Compress(data []byte) ([]byte, error) {
	enc := zstdEncoders.Get().(*zstd.Encoder)
	defer zstdEncoders.Put(enc)
	return enc.EncodeAll(data, nil), nil
}

func (zstdCodec) Decompress(data []byte, size int) ([]byte, error) {
	dec := zstdDecoders.Get().(*zstd.Decoder)
	defer zstdDecoders.Put(dec)
	ret, err := dec.DecodeAll(data, make([]byte, 0, size))
	if err != nil {
		return nil, fmt.Errorf("zstd decompression failed: %w", err)
	}
	return ret, nil
}

//
type s2Codec struct{}

func (s2Codec) Compress(data []byte) ([]byte, error) {
	return s2.EncodeBetter(nil, data), nil
}

func (s2Codec) Decompress(data []byte, size int) ([]byte, error) {
	return s2.Decode(make([]byte, size), data)
}

//
type lz4Codec struct{}

func (lz4Codec) Compress(data []byte) ([]byte, error) {
	var c lz4.Compressor
	dst := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := c.CompressBlock(data, dst)
	if err != nil {
		return nil, err
	}
	if n == 0 && len(data) > 0 {
		return nil, errors.New("lz4: data not compressible")
	}
	return dst[:n], nil
}

func (lz4Codec) Decompress(data []byte, size int) ([]byte, error) {
	dst := make([]byte, size)
	n, err := lz4.UncompressBlock(data, dst)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompression failed: %w", err)
	}
	return dst[:n], nil
}
