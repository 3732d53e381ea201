package audio

import (
	"encoding/binary"
	"fmt"

	"github.com/ebitengine/oto/v3"
)

const (
	sampleRate = 44100
	toneHz     = 440
	volume     = 6000 // out of int16 range, kept low
)

// Beeper sonifies the sound timer: a tone plays while the source
// function reports the timer as running.
type Beeper interface {
	Start() error
	Close() error
}

// NewBeeper creates a Beeper backed by the platform audio device. The
// source function is polled from the audio goroutine and must be safe
// for concurrent use.
func NewBeeper(source func() bool) (Beeper, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing audio: %w", err)
	}
	<-ready

	b := &otoBeeper{ctx: ctx}
	b.player = ctx.NewPlayer(&squareWave{active: source})
	return b, nil
}

type otoBeeper struct {
	ctx    *oto.Context
	player *oto.Player
}

func (b *otoBeeper) Start() error {
	b.player.Play()
	return nil
}

func (b *otoBeeper) Close() error {
	return b.player.Close()
}

// squareWave generates a square wave while active() holds, silence
// otherwise. The player pulls samples continuously so the gate reacts
// within one buffer.
type squareWave struct {
	active func() bool
	phase  int
}

func (w *squareWave) Read(p []byte) (int, error) {
	const period = sampleRate / toneHz

	n := len(p) - len(p)%2
	for i := 0; i < n; i += 2 {
		var sample int16
		if w.active() {
			if w.phase < period/2 {
				sample = volume
			} else {
				sample = -volume
			}
		}
		w.phase = (w.phase + 1) % period
		binary.LittleEndian.PutUint16(p[i:], uint16(sample))
	}
	return n, nil
}
