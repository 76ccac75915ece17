// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

const (
	wavHeaderSize = 44
	wavPCMFormat  = 1
)

// Format describes raw little-endian PCM.
type Format struct {
	SampleRate    int `toml:"sample_rate" json:"sample_rate"`
	Channels      int `toml:"channels" json:"channels"`
	BitsPerSample int `toml:"bits_per_sample" json:"bits_per_sample"`
}

// DefaultFormat is 16 kHz mono 16-bit, what speech recognizers expect.
var DefaultFormat = Format{SampleRate: 16000, Channels: 1, BitsPerSample: 16}

// Validate rejects formats that cannot be written as PCM WAV.
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", f.SampleRate)
	}
	if f.Channels <= 0 {
		return fmt.Errorf("channels must be positive, got %d", f.Channels)
	}
	if f.BitsPerSample != 8 && f.BitsPerSample != 16 && f.BitsPerSample != 24 && f.BitsPerSample != 32 {
		return fmt.Errorf("unsupported bits per sample %d", f.BitsPerSample)
	}
	return nil
}

// BlockAlign is the size of one frame in bytes.
func (f Format) BlockAlign() int {
	return f.Channels * f.BitsPerSample / 8
}

// BytesPerSecond is the PCM data rate.
func (f Format) BytesPerSecond() int {
	return f.SampleRate * f.BlockAlign()
}

// Duration returns how long n bytes of PCM play for.
func (f Format) Duration(n int) time.Duration {
	bps := f.BytesPerSecond()
	if bps <= 0 {
		return 0
	}
	return time.Duration(int64(n) * int64(time.Second) / int64(bps))
}

// EncodeWAV prefixes pcm with a canonical 44-byte RIFF/WAVE header.
func EncodeWAV(pcm []byte, f Format) ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Grow(wavHeaderSize + len(pcm))

	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(wavPCMFormat))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(f.Channels))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(f.SampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(f.BytesPerSecond()))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(f.BlockAlign()))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(f.BitsPerSample))

	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes(), nil
}

// DecodeWAVHeader reads the format and data length of a canonical WAV.
func DecodeWAVHeader(data []byte) (Format, int, error) {
	if len(data) < wavHeaderSize {
		return Format{}, 0, errors.New("wav: short header")
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" || string(data[12:16]) != "fmt " {
		return Format{}, 0, errors.New("wav: not a RIFF/WAVE file")
	}
	if binary.LittleEndian.Uint16(data[20:22]) != wavPCMFormat {
		return Format{}, 0, errors.New("wav: not PCM")
	}
	f := Format{
		Channels:      int(binary.LittleEndian.Uint16(data[22:24])),
		SampleRate:    int(binary.LittleEndian.Uint32(data[24:28])),
		BitsPerSample: int(binary.LittleEndian.Uint16(data[34:36])),
	}
	if string(data[36:40]) != "data" {
		return Format{}, 0, errors.New("wav: missing data chunk")
	}
	return f, int(binary.LittleEndian.Uint32(data[40:44])), nil
}
