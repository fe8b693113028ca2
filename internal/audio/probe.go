package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/wav"
	"github.com/mewkiz/flac"
	"github.com/tcolgate/mp3"
)

// ProbeInfo holds the stream parameters read from an audio file's headers
type ProbeInfo struct {
	Duration   float64 // seconds
	SampleRate int
	Channels   int
	NumSamples int64
}

// Probe reads duration, sample rate and channel count from an audio file
// without decoding it fully, dispatching on the file extension.
func Probe(path string) (ProbeInfo, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".wav":
		return probeWAV(path)
	case ".flac":
		return probeFLAC(path)
	case ".mp3":
		return probeMP3(path)
	default:
		return ProbeInfo{}, fmt.Errorf("unsupported format: %s", ext)
	}
}

// IsSupportedFormat checks whether a file extension can be probed
func IsSupportedFormat(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".flac", ".mp3":
		return true
	}
	return false
}

// WAV duration from the header plus PCM byte count
func probeWAV(path string) (ProbeInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return ProbeInfo{}, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return ProbeInfo{}, fmt.Errorf("invalid wav file")
	}
	if dec.SampleRate == 0 || dec.BitDepth == 0 || dec.NumChans == 0 {
		return ProbeInfo{}, fmt.Errorf("invalid wav header")
	}

	st, err := f.Stat()
	if err != nil {
		return ProbeInfo{}, err
	}
	// Approximate using file size; an exact count would need a full decode.
	headerSize := int64(44)
	pcmBytes := st.Size() - headerSize
	if pcmBytes < 0 {
		pcmBytes = 0
	}
	bytesPerSampleFrame := int64(dec.BitDepth/8) * int64(dec.NumChans)
	if bytesPerSampleFrame <= 0 {
		return ProbeInfo{}, fmt.Errorf("invalid sample frame size")
	}
	sampleFrames := pcmBytes / bytesPerSampleFrame

	return ProbeInfo{
		Duration:   float64(sampleFrames) / float64(dec.SampleRate),
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		NumSamples: sampleFrames,
	}, nil
}

// FLAC duration via the STREAMINFO metadata block
func probeFLAC(path string) (ProbeInfo, error) {
	stream, err := flac.ParseFile(path)
	if err != nil {
		return ProbeInfo{}, err
	}
	defer stream.Close()

	si := stream.Info
	if si.NSamples == 0 || si.SampleRate == 0 {
		return ProbeInfo{}, fmt.Errorf("flac stream missing sample info")
	}
	return ProbeInfo{
		Duration:   float64(si.NSamples) / float64(si.SampleRate),
		SampleRate: int(si.SampleRate),
		Channels:   int(si.NChannels),
		NumSamples: int64(si.NSamples),
	}, nil
}

// MP3 duration by walking frame headers; sample rate and channel layout are
// taken from the first decodable frame.
func probeMP3(path string) (ProbeInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return ProbeInfo{}, err
	}
	defer f.Close()

	dec := mp3.NewDecoder(f)
	var total time.Duration
	var skipped int
	sampleRate := 0
	channels := 0
	frames := 0
	for {
		var fr mp3.Frame
		if err := dec.Decode(&fr, &skipped); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if frames == 0 {
				return ProbeInfo{}, fmt.Errorf("no decodable mp3 frames: %w", err)
			}
			break // partial decode; use what we have
		}
		if frames == 0 {
			sampleRate = int(fr.Header().SampleRate())
			if fr.Header().ChannelMode() == mp3.SingleChannel {
				channels = 1
			} else {
				channels = 2
			}
		}
		total += fr.Duration()
		frames++
	}
	if frames == 0 {
		return ProbeInfo{}, fmt.Errorf("empty mp3 stream")
	}
	duration := total.Seconds()
	return ProbeInfo{
		Duration:   duration,
		SampleRate: sampleRate,
		Channels:   channels,
		NumSamples: int64(duration * float64(sampleRate)),
	}, nil
}
