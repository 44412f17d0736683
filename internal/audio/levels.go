package audio

import (
	"bytes"
	"errors"
	"io"

	"github.com/go-audio/wav"
)

// Capture front end: turns WAV or PCM16 recordings of a demodulated IR
// receiver into logic-level sample streams (0 = mark, 1 = space) ready for
// the detector, after resampling to its fixed rate.

// Schmitt thresholds on the normalized envelope magnitude. Hysteresis keeps
// receiver noise around the threshold from chattering between levels.
const (
	thresholdHigh = 0.25
	thresholdLow  = 0.10
)

// DecodeWAVToLevels decodes a WAV blob and quantizes it to logic levels.
// Returns the levels and the recording's sample rate.
func DecodeWAVToLevels(b []byte) ([]uint8, int, error) {
	samples, sr, err := decodeWAVToFloat32(b)
	if err != nil {
		return nil, 0, err
	}
	return Quantize(samples), sr, nil
}

// DecodePCM16LEToLevels converts little-endian PCM16 bytes to logic levels
// at the given sample rate.
func DecodePCM16LEToLevels(b []byte, sampleRate int) ([]uint8, int, error) {
	if sampleRate <= 0 {
		return nil, 0, errors.New("pcm16 sample rate required")
	}
	if len(b)%2 != 0 {
		return nil, 0, errors.New("pcm16 length must be even")
	}
	samples := make([]float32, len(b)/2)
	for i := range samples {
		v := int16(uint16(b[2*i]) | uint16(b[2*i+1])<<8)
		samples[i] = float32(v) / 32768.0
	}
	return Quantize(samples), sampleRate, nil
}

// Quantize maps a normalized envelope to receiver-line levels with
// hysteresis. Signal present reads as a mark (0), silence as idle (1).
func Quantize(samples []float32) []uint8 {
	out := make([]uint8, len(samples))
	active := false
	for i, s := range samples {
		mag := s
		if mag < 0 {
			mag = -mag
		}
		if active {
			if mag < thresholdLow {
				active = false
			}
		} else {
			if mag > thresholdHigh {
				active = true
			}
		}
		if active {
			out[i] = 0
		} else {
			out[i] = 1
		}
	}
	return out
}

// ResampleLevels converts a logic-level stream from inRate to outRate by
// nearest-sample selection. Interpolating logic levels would invent
// half-levels, so the nearest original sample wins.
func ResampleLevels(levels []uint8, inRate, outRate int) []uint8 {
	if inRate <= 0 || outRate <= 0 || len(levels) == 0 || inRate == outRate {
		return levels
	}
	outLen := int(int64(len(levels)) * int64(outRate) / int64(inRate))
	if outLen < 1 {
		outLen = 1
	}
	out := make([]uint8, outLen)
	for i := range out {
		src := int(int64(i) * int64(inRate) / int64(outRate))
		if src >= len(levels) {
			src = len(levels) - 1
		}
		out[i] = levels[src]
	}
	return out
}

// decodeWAVToFloat32 decodes a WAV blob into normalized float samples.
func decodeWAVToFloat32(b []byte) ([]float32, int, error) {
	dec := wav.NewDecoder(bytes.NewReader(b))
	if !dec.IsValidFile() {
		return nil, 0, errors.New("invalid wav file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil && err != io.EOF {
		return nil, 0, err
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, 0, errors.New("empty wav buffer")
	}
	bitDepth := buf.SourceBitDepth
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := float32(int(1) << (bitDepth - 1))
	out := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		out[i] = float32(v) / scale
	}
	sr := int(dec.SampleRate)
	if sr == 0 && buf.Format != nil {
		sr = buf.Format.SampleRate
	}
	if sr == 0 {
		return nil, 0, errors.New("wav sample rate missing")
	}
	return out, sr, nil
}
