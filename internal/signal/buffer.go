// Package signal implements C1: the ring buffer of atomic signals and the
// sequence builder that periodically materializes a DynamicSequence with
// normalized statistical features (spec.md §4.1).
package signal

import (
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cerebrumlux/cognition/internal/autoencoder"
	"github.com/cerebrumlux/cognition/internal/config"
	"github.com/cerebrumlux/cognition/internal/model"
)

const (
	maxIntervalMS  = 10000.0
	mouseDivisor   = 500.0
	bandwidthDivisor = 15000.0
	brightnessDivisor = 255.0
	appHashDivisor = 65535.0
)

// Buffer owns the ring buffer of AtomicSignals and the current
// DynamicSequence. Only C1 mutates this state (spec §3 ownership rule);
// every other component reads CurrentSequence() read-only.
type Buffer struct {
	mu       sync.RWMutex
	log      zerolog.Logger
	cfg      config.SignalBufferConfig
	ae       *autoencoder.Autoencoder

	ring          []model.AtomicSignal
	head          int
	size          int
	lastTimestamp uint64

	lastRebuild     time.Time
	sizeAtLastBuild int

	current model.DynamicSequence
}

// New constructs a Buffer with the given capacity/trigger config and the
// autoencoder C1 drives on every rebuild.
func New(cfg config.SignalBufferConfig, ae *autoencoder.Autoencoder, log zerolog.Logger) *Buffer {
	if cfg.Capacity <= 0 {
		cfg.Capacity = 1000
	}
	return &Buffer{
		log:  log,
		cfg:  cfg,
		ae:   ae,
		ring: make([]model.AtomicSignal, cfg.Capacity),
	}
}

// AddSignal appends sig to the bounded ring buffer, evicting the oldest
// sample once at capacity, then triggers a rebuild if either the time or
// growth threshold has been crossed (spec §4.1).
func (b *Buffer) AddSignal(sig model.AtomicSignal) {
	b.mu.Lock()
	if sig.TimestampUS < b.lastTimestamp {
		// Invariant: timestamps are monotonically non-decreasing. Clamp
		// instead of rejecting so a single out-of-order sample never stalls
		// the tick.
		sig.TimestampUS = b.lastTimestamp
	}
	b.lastTimestamp = sig.TimestampUS

	idx := (b.head + b.size) % len(b.ring)
	b.ring[idx] = sig
	if b.size < len(b.ring) {
		b.size++
	} else {
		b.head = (b.head + 1) % len(b.ring)
	}
	shouldRebuild := b.shouldRebuildLocked(sig.TimestampUS)
	b.mu.Unlock()

	if shouldRebuild {
		b.Rebuild()
	}
}

func (b *Buffer) shouldRebuildLocked(nowUS uint64) bool {
	elapsed := time.Duration(0)
	if !b.lastRebuild.IsZero() {
		elapsed = time.Since(b.lastRebuild)
	}
	timeTrigger := b.lastRebuild.IsZero() || elapsed >= time.Duration(b.cfg.RebuildIntervalMS)*time.Millisecond
	growth := float64(b.size-b.sizeAtLastBuild) >= b.cfg.RebuildGrowthRatio*float64(len(b.ring))
	return timeTrigger || growth
}

// CurrentSequence returns the most recently built DynamicSequence.
// Read-only: callers must never mutate the returned value's backing state.
func (b *Buffer) CurrentSequence() model.DynamicSequence {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.current
}

// Rebuild walks the buffer once and recomputes normalized statistical
// features, then invokes the autoencoder to encode+adapt (spec §4.1). An
// empty buffer yields a zero-vector sequence and skips the autoencoder.
func (b *Buffer) Rebuild() {
	b.mu.Lock()
	samples := b.snapshotLocked()
	b.lastRebuild = time.Now()
	b.sizeAtLastBuild = b.size
	b.mu.Unlock()

	if len(samples) == 0 {
		b.mu.Lock()
		b.current = model.DynamicSequence{}
		b.mu.Unlock()
		return
	}

	features := computeFeatures(samples)
	last := samples[len(samples)-1]

	seq := model.DynamicSequence{
		StatFeatures:   features,
		AppFingerprint: last.AppFingerprint,
		LastUpdatedUS:  last.TimestampUS,
	}
	for i := len(samples) - 1; i >= 0; i-- {
		if samples[i].Battery != nil {
			seq.BatteryPct = samples[i].Battery.Percentage
			seq.BatteryCharging = samples[i].Battery.Charging
			break
		}
	}
	for i := len(samples) - 1; i >= 0; i-- {
		if samples[i].Display != nil {
			seq.DisplayOn = samples[i].Display.On
			break
		}
	}
	for i := len(samples) - 1; i >= 0; i-- {
		if samples[i].Network != nil {
			seq.NetworkActive = samples[i].Network.Active
			break
		}
	}

	if b.ae != nil {
		latent, _, err := b.ae.Step(features)
		if err == nil {
			seq.Latent = latent
		} else {
			b.log.Error().Err(err).Msg("autoencoder step failed; zero latent")
		}
	}

	b.mu.Lock()
	b.current = seq
	b.mu.Unlock()
}

func (b *Buffer) snapshotLocked() []model.AtomicSignal {
	out := make([]model.AtomicSignal, b.size)
	for i := 0; i < b.size; i++ {
		out[i] = b.ring[(b.head+i)%len(b.ring)]
	}
	return out
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func normalizedInterval(ms float64) float32 {
	v := math.Log10(ms/1000.0+1) / math.Log10(maxIntervalMS+1)
	return clamp01(float32(v))
}

// computeFeatures is C1's deterministic feature extraction over one buffer
// snapshot, matching the normalization transforms in spec §4.1. Reserved
// slots 13-17 carry mic/camera aggregates.
func computeFeatures(samples []model.AtomicSignal) [model.StatFeatureLen]float32 {
	var out [model.StatFeatureLen]float32

	var keyIntervals []float64
	var lastKeyUS uint64
	haveLastKey := false
	alnum, ctrl, totalKeys := 0, 0, 0

	var mouseIntensitySum float64
	mouseSamples := 0
	clicks := 0
	var lastMouse *model.MousePayload

	var brightnessSum float64
	brightnessSamples := 0

	var battDeltaSum float64
	battDeltaSamples := 0
	var lastBatt *uint8

	var bwSum float64
	bwSamples := 0

	var micLevelSum, micFreqSum, micSpeechSum float64
	micSamples := 0
	var camMotionSum float64
	camSamples := 0

	for _, s := range samples {
		switch s.Sensor {
		case model.SensorKeyboard:
			if s.Keyboard == nil {
				continue
			}
			totalKeys++
			switch s.Keyboard.KeyClass {
			case model.KeyClassAlphanumeric:
				alnum++
			case model.KeyClassControl:
				ctrl++
			}
			if haveLastKey && s.TimestampUS >= lastKeyUS {
				keyIntervals = append(keyIntervals, float64(s.TimestampUS-lastKeyUS)/1000.0)
			}
			lastKeyUS = s.TimestampUS
			haveLastKey = true

		case model.SensorMouse:
			if s.Mouse == nil {
				continue
			}
			if lastMouse != nil {
				dx := math.Abs(float64(s.Mouse.X - lastMouse.X))
				dy := math.Abs(float64(s.Mouse.Y - lastMouse.Y))
				mouseIntensitySum += dx + dy
				mouseSamples++
			}
			if s.Mouse.EventType == model.MouseClick || s.Mouse.EventType == model.MouseDown {
				clicks++
			}
			m := *s.Mouse
			lastMouse = &m

		case model.SensorDisplay:
			if s.Display == nil {
				continue
			}
			brightnessSum += float64(s.Display.Brightness)
			brightnessSamples++

		case model.SensorBattery:
			if s.Battery == nil {
				continue
			}
			if lastBatt != nil {
				d := math.Abs(float64(int(s.Battery.Percentage) - int(*lastBatt)))
				battDeltaSum += d
				battDeltaSamples++
			}
			p := s.Battery.Percentage
			lastBatt = &p

		case model.SensorNetwork:
			if s.Network == nil {
				continue
			}
			bwSum += float64(s.Network.BandwidthBps)
			bwSamples++

		case model.SensorMicrophone:
			if s.Microphone == nil {
				continue
			}
			micLevelSum += float64(s.Microphone.Level)
			micFreqSum += float64(s.Microphone.FreqHz)
			micSpeechSum += float64(s.Microphone.SpeechLvl)
			micSamples++

		case model.SensorCamera:
			if s.Camera == nil {
				continue
			}
			camMotionSum += float64(s.Camera.Motion)
			camSamples++
		}
	}

	meanMS, stdevMS := meanStdev(keyIntervals)
	out[0] = normalizedInterval(meanMS)
	out[1] = normalizedInterval(stdevMS)
	if totalKeys > 0 {
		out[2] = clamp01(float32(alnum) / float32(totalKeys))
		out[3] = clamp01(float32(ctrl) / float32(totalKeys))
	}
	if mouseSamples > 0 {
		out[4] = clamp01(float32(mouseIntensitySum/float64(mouseSamples)) / mouseDivisor)
	}
	if len(samples) > 0 {
		out[5] = clamp01(float32(clicks) / float32(len(samples)))
	}
	if brightnessSamples > 0 {
		out[6] = clamp01(float32(brightnessSum/float64(brightnessSamples)) / brightnessDivisor)
	}
	if battDeltaSamples > 0 {
		out[7] = clamp01(float32(battDeltaSum / float64(battDeltaSamples) / 100.0))
	}
	if bwSamples > 0 {
		out[8] = clamp01(float32(bwSum/float64(bwSamples)) / bandwidthDivisor)
	}
	out[9] = clamp01(float32(samples[len(samples)-1].AppFingerprint) / appHashDivisor)

	if micSamples > 0 {
		out[13] = clamp01(float32(micLevelSum / float64(micSamples)))
		out[14] = clamp01(float32(micFreqSum/float64(micSamples)) / 20000.0)
		out[15] = clamp01(float32(micSpeechSum / float64(micSamples)))
	}
	if camSamples > 0 {
		out[16] = clamp01(float32(camMotionSum / float64(camSamples)))
		out[17] = clamp01(float32(camSamples) / float32(len(samples)))
	}

	return out
}

func meanStdev(xs []float64) (mean, stdev float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	mean = sum / float64(len(xs))
	if len(xs) < 2 {
		return mean, 0
	}
	var sq float64
	for _, x := range xs {
		d := x - mean
		sq += d * d
	}
	stdev = math.Sqrt(sq / float64(len(xs)-1))
	return mean, stdev
}
