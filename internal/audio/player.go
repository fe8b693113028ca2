package audio

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/ebitengine/oto/v3"
	"github.com/sirupsen/logrus"
)

// Player plays decoded PCM audio through the system output device via oto.
// It is the concrete Engine behind the sync loop's audio-master clock: the
// playback position is derived from how many bytes the device has consumed,
// so polling it is cheap and never blocks on the device.
//
// The oto context is created on the first successful Load and its stream
// parameters are fixed for the process lifetime; later files are conformed
// (resampled/remapped) to match.
type Player struct {
	mutex sync.Mutex

	ctx      *oto.Context
	ctxRate  int
	ctxChans int
	player   *oto.Player
	reader   *bytes.Reader
	pcm      *pcmData
	info     LoadInfo
	loaded   bool
	fps      float64
	volume   float64
	logger   *logrus.Logger
}

// NewPlayer creates an audio player. The output device is not opened until
// the first Load.
func NewPlayer(logger *logrus.Logger) *Player {
	if logger == nil {
		logger = logrus.New()
	}
	return &Player{
		fps:    30.0,
		volume: 1.0,
		logger: logger,
	}
}

// Load decodes an audio file and prepares it for playback. On failure the
// player keeps its previous "not loaded" state; no partial mutation occurs.
func (p *Player) Load(path string) (LoadInfo, error) {
	pcm, err := decodePCM(path)
	if err != nil {
		p.logger.WithError(err).WithField("path", path).Error("Failed to decode audio")
		return LoadInfo{}, err
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.stopLocked()

	if p.ctx == nil {
		if err := p.openContextLocked(pcm.sampleRate, pcm.channels); err != nil {
			return LoadInfo{}, err
		}
	}
	pcm = pcm.conform(p.ctxRate, p.ctxChans)

	p.pcm = pcm
	p.reader = bytes.NewReader(pcm.samples)
	p.player = p.ctx.NewPlayer(p.reader)
	p.player.SetVolume(p.volume)
	p.loaded = true
	p.info = LoadInfo{
		Duration:   pcm.duration(),
		SampleRate: pcm.sampleRate,
		Channels:   pcm.channels,
		NumSamples: pcm.sampleFrames(),
	}

	p.logger.WithFields(logrus.Fields{
		"path":       path,
		"duration":   p.info.Duration,
		"sampleRate": p.info.SampleRate,
		"channels":   p.info.Channels,
	}).Info("Audio loaded")

	return p.info, nil
}

// openContextLocked opens the output device. Caller must hold the lock.
func (p *Player) openContextLocked(sampleRate, channels int) error {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return fmt.Errorf("failed to open audio device: %w", err)
	}
	<-ready
	p.ctx = ctx
	p.ctxRate = sampleRate
	p.ctxChans = channels
	return nil
}

// Play starts or resumes playback. Returns false when nothing is loaded.
func (p *Player) Play() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if !p.loaded || p.player == nil {
		return false
	}
	if p.player.IsPlaying() {
		return true
	}
	p.player.Play()
	return true
}

// Pause pauses playback, keeping the position. Always succeeds once loaded.
func (p *Player) Pause() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if !p.loaded || p.player == nil {
		return false
	}
	p.player.Pause()
	return true
}

// Stop pauses playback and resets the position to zero
func (p *Player) Stop() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.stopLocked()
}

func (p *Player) stopLocked() {
	if p.player != nil {
		p.player.Pause()
		p.player.Close()
		p.player = nil
	}
	p.reader = nil
	p.pcm = nil
	p.loaded = false
	p.info = LoadInfo{}
}

// Seek moves the playback position, clamped into [0, duration]. Returns
// false when nothing is loaded.
func (p *Player) Seek(timeSeconds float64) bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if !p.loaded || p.player == nil {
		return false
	}
	frames := int64(timeSeconds * float64(p.ctxRate))
	if frames < 0 {
		frames = 0
	}
	if max := p.pcm.sampleFrames(); frames > max {
		frames = max
	}
	offset := frames * int64(p.ctxChans) * 2
	if _, err := p.player.Seek(offset, io.SeekStart); err != nil {
		p.logger.WithError(err).Warn("Audio seek failed")
		return false
	}
	return true
}

// SetVolume sets the output volume, clamped to [0, 1]
func (p *Player) SetVolume(volume float64) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if volume < 0 {
		volume = 0
	}
	if volume > 1 {
		volume = 1
	}
	p.volume = volume
	if p.player != nil {
		p.player.SetVolume(volume)
	}
}

// SetFPS sets the video frame rate the clock derives frames at, clamped to
// [MinFPS, MaxFPS].
func (p *Player) SetFPS(fps float64) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.fps = ClampFPS(fps)
}

// Loaded reports whether audio is ready for playback
func (p *Player) Loaded() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.loaded
}

// Poll returns the current clock snapshot. It never blocks on the device;
// position is read offset minus what the device still has buffered.
func (p *Player) Poll() (Snapshot, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if !p.loaded || p.player == nil {
		return Snapshot{}, fmt.Errorf("no audio loaded")
	}

	pos, err := p.reader.Seek(0, io.SeekCurrent)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read audio position: %w", err)
	}
	played := pos - int64(p.player.BufferedSize())
	if played < 0 {
		played = 0
	}
	bytesPerFrame := int64(p.ctxChans * 2)
	audioTime := float64(played/bytesPerFrame) / float64(p.ctxRate)

	return Snapshot{
		AudioTime:   audioTime,
		TargetFrame: TargetFrame(audioTime, p.fps),
		TotalFrames: TotalFrames(p.info.Duration, p.fps),
		IsPlaying:   p.player.IsPlaying(),
		Duration:    p.info.Duration,
		FPS:         p.fps,
		Volume:      p.volume,
	}, nil
}

// Close releases the device player. The oto context itself cannot be closed
// and is left to the process.
func (p *Player) Close() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.stopLocked()
	return nil
}
