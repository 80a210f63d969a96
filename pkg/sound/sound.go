package sound

import (
	"fmt"
	"os"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
)

type Interface interface {
	// Play queues the named cue.  Cues with no configured file are ignored, as are cues that
	// arrive while the queue is full; the control loop must never wait on the speaker.
	Play(cue string)
	Close()
}

type Player struct {
	files map[string]string
	queue chan string
	done  chan struct{}
}

// New starts the playback goroutine.  files maps cue names to WAV files.
func New(files map[string]string) *Player {
	p := &Player{
		files: files,
		queue: make(chan string, 4),
		done:  make(chan struct{}),
	}
	go p.loop()
	return p
}

func (p *Player) Play(cue string) {
	file, ok := p.files[cue]
	if !ok || file == "" {
		return
	}
	select {
	case p.queue <- file:
	default:
		fmt.Println("Sound: dropping", cue)
	}
}

func (p *Player) Close() {
	close(p.queue)
	<-p.done
}

func (p *Player) drain() {
	for s := range p.queue {
		fmt.Println("Sound: unable to play", s)
	}
}

func (p *Player) loop() {
	defer close(p.done)
	defer func() {
		// The speaker backend panics on some hosts with no audio device.
		if r := recover(); r != nil {
			fmt.Println("Sound: speaker failed:", r)
			p.drain()
		}
	}()

	sampleRate := beep.SampleRate(44100)
	err := speaker.Init(sampleRate, sampleRate.N(time.Second/5))
	if err != nil {
		fmt.Println("Sound: failed to open speaker", err)
		p.drain()
		return
	}

	var ctrl *beep.Ctrl
	var s beep.StreamSeekCloser
	for soundToPlay := range p.queue {
		if ctrl != nil {
			speaker.Lock()
			ctrl.Paused = true
			ctrl.Streamer = nil
			speaker.Unlock()
			ctrl = nil
		}
		if s != nil {
			_ = s.Close()
			s = nil
		}

		f, err := os.Open(soundToPlay)
		if err != nil {
			fmt.Println("Sound: failed to open", err)
			continue
		}
		s, _, err = wav.Decode(f)
		if err != nil {
			fmt.Println("Sound: failed to decode", err)
			_ = f.Close()
			s = nil
			continue
		}
		ctrl = &beep.Ctrl{Streamer: s}
		speaker.Play(ctrl)
	}
	if s != nil {
		_ = s.Close()
	}
}

// Dummy logs cues instead of playing them.
func Dummy() Interface {
	return dummyPlayer{}
}

type dummyPlayer struct{}

func (dummyPlayer) Play(cue string) {
	fmt.Println("Sound:", cue)
}

func (dummyPlayer) Close() {}
