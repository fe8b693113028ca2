package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/mewkiz/flac"
)

// pcmData is decoded audio ready for output: signed 16-bit little-endian
// interleaved samples.
type pcmData struct {
	samples    []byte
	sampleRate int
	channels   int
}

// sampleFrames returns the number of interleaved sample frames
func (p *pcmData) sampleFrames() int64 {
	bytesPerFrame := int64(p.channels * 2)
	if bytesPerFrame == 0 {
		return 0
	}
	return int64(len(p.samples)) / bytesPerFrame
}

// duration returns the decoded length in seconds
func (p *pcmData) duration() float64 {
	if p.sampleRate == 0 {
		return 0
	}
	return float64(p.sampleFrames()) / float64(p.sampleRate)
}

// decodePCM fully decodes an audio file to 16-bit interleaved PCM. Only WAV
// and FLAC carry raw samples we can decode here; MP3 sources can be probed
// for duration but not played back.
func decodePCM(path string) (*pcmData, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return decodeWAV(path)
	case ".flac":
		return decodeFLAC(path)
	default:
		return nil, fmt.Errorf("no pcm decoder for %s", filepath.Ext(path))
	}
}

func decodeWAV(path string) (*pcmData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode wav: %w", err)
	}
	if buf.Format == nil || buf.Format.SampleRate == 0 || buf.Format.NumChannels == 0 {
		return nil, fmt.Errorf("invalid wav format")
	}

	shift := uint(0)
	if buf.SourceBitDepth > 16 {
		shift = uint(buf.SourceBitDepth - 16)
	}
	samples := make([]byte, len(buf.Data)*2)
	for i, v := range buf.Data {
		binary.LittleEndian.PutUint16(samples[i*2:], uint16(int16(v>>shift)))
	}

	return &pcmData{
		samples:    samples,
		sampleRate: buf.Format.SampleRate,
		channels:   buf.Format.NumChannels,
	}, nil
}

func decodeFLAC(path string) (*pcmData, error) {
	stream, err := flac.ParseFile(path)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	info := stream.Info
	if info.SampleRate == 0 || info.NChannels == 0 {
		return nil, fmt.Errorf("invalid flac stream info")
	}
	shift := uint(0)
	if info.BitsPerSample > 16 {
		shift = uint(info.BitsPerSample - 16)
	}

	var samples []byte
	for {
		frame, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode flac frame: %w", err)
		}
		n := len(frame.Subframes[0].Samples)
		for i := 0; i < n; i++ {
			for _, sub := range frame.Subframes {
				v := int16(sub.Samples[i] >> shift)
				var b [2]byte
				binary.LittleEndian.PutUint16(b[:], uint16(v))
				samples = append(samples, b[0], b[1])
			}
		}
	}

	return &pcmData{
		samples:    samples,
		sampleRate: int(info.SampleRate),
		channels:   int(info.NChannels),
	}, nil
}

// conform resamples and remaps channels so the data matches the output
// device parameters. Resampling is linear; channel mapping duplicates mono
// up to stereo and averages stereo down to mono.
func (p *pcmData) conform(sampleRate, channels int) *pcmData {
	out := p
	if out.channels != channels {
		out = out.remapChannels(channels)
	}
	if out.sampleRate != sampleRate {
		out = out.resample(sampleRate)
	}
	return out
}

func (p *pcmData) remapChannels(channels int) *pcmData {
	frames := p.sampleFrames()
	samples := make([]byte, frames*int64(channels)*2)
	for f := int64(0); f < frames; f++ {
		var mixed int32
		for c := 0; c < p.channels; c++ {
			off := (f*int64(p.channels) + int64(c)) * 2
			mixed += int32(int16(binary.LittleEndian.Uint16(p.samples[off:])))
		}
		v := int16(mixed / int32(p.channels))
		for c := 0; c < channels; c++ {
			off := (f*int64(channels) + int64(c)) * 2
			binary.LittleEndian.PutUint16(samples[off:], uint16(v))
		}
	}
	return &pcmData{samples: samples, sampleRate: p.sampleRate, channels: channels}
}

func (p *pcmData) resample(sampleRate int) *pcmData {
	srcFrames := p.sampleFrames()
	if srcFrames == 0 {
		return &pcmData{sampleRate: sampleRate, channels: p.channels}
	}
	ratio := float64(p.sampleRate) / float64(sampleRate)
	dstFrames := int64(float64(srcFrames) / ratio)
	samples := make([]byte, dstFrames*int64(p.channels)*2)
	for f := int64(0); f < dstFrames; f++ {
		srcPos := float64(f) * ratio
		i0 := int64(srcPos)
		i1 := i0 + 1
		if i1 >= srcFrames {
			i1 = srcFrames - 1
		}
		frac := srcPos - float64(i0)
		for c := 0; c < p.channels; c++ {
			a := int16(binary.LittleEndian.Uint16(p.samples[(i0*int64(p.channels)+int64(c))*2:]))
			b := int16(binary.LittleEndian.Uint16(p.samples[(i1*int64(p.channels)+int64(c))*2:]))
			v := int16(float64(a)*(1-frac) + float64(b)*frac)
			binary.LittleEndian.PutUint16(samples[(f*int64(p.channels)+int64(c))*2:], uint16(v))
		}
	}
	return &pcmData{samples: samples, sampleRate: sampleRate, channels: p.channels}
}
