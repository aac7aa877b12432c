package alohaplay

import (
	"time"

	"github.com/lanikai/alohaplay/internal/clock"
	"github.com/lanikai/alohaplay/internal/media"
)

// VideoPlayer drives a Player from a render loop. The owner sets State to
// request transitions (Start, Paused, Stop) and calls Update once per tick.
type VideoPlayer struct {
	State PlaybackState

	// Identity of the render target. A player in Init waits until it is set.
	ID string

	URI    string
	Config Config

	player *Player
	timer  *clock.Timer
	last   PlaybackState

	// Set when the timer fired but no frame was available yet.
	due bool

	// Set when the player could not be created. It is not retried.
	err error
}

func NewVideoPlayer(uri string, config Config) *VideoPlayer {
	return &VideoPlayer{State: Init, URI: uri, Config: config}
}

// Update advances the state machine by one tick of length delta and returns
// the frame to display, if one is due.
func (vp *VideoPlayer) Update(delta time.Duration) *media.Frame {
	if vp.State != vp.last {
		log.Debug("Video player %s: %v -> %v", vp.ID, vp.last, vp.State)
		vp.last = vp.State
	}

	switch vp.State {
	case Init:
		if vp.ID != "" {
			vp.setState(Ready)
			if vp.err == nil {
				vp.initialize()
			}
		}

	case Start:
		if vp.player == nil && vp.err == nil {
			vp.initialize()
		}
		if vp.player != nil {
			if vp.player.IsReady() {
				vp.setState(Playing)
				vp.player.Play()
			} else {
				vp.setState(Loading)
			}
		}

	case Loading:
		if vp.player != nil && vp.player.IsReady() {
			vp.setState(Playing)
			vp.player.Play()
		}

	case Playing:
		if vp.player == nil {
			break
		}
		if !vp.player.IsPlaying() {
			// Resumed directly from Paused.
			vp.player.Play()
		}
		return vp.render(delta)

	case Paused:
		if vp.player != nil {
			vp.player.Pause()
		}

	case Stop:
		if vp.player != nil {
			vp.player.Destroy()
		}
	}
	return nil
}

func (vp *VideoPlayer) setState(s PlaybackState) {
	vp.State = s
	vp.last = s
}

func (vp *VideoPlayer) initialize() {
	p, err := New(vp.URI, vp.Config)
	if err != nil {
		log.Error("Cannot play %s: %v", vp.URI, err)
		vp.err = err
		return
	}
	p.Start()
	vp.player = p
	vp.timer = clock.NewTimer(p.config.ClockDefault)
}

func (vp *VideoPlayer) render(delta time.Duration) *media.Frame {
	if !vp.due && !vp.timer.Tick(delta) {
		return nil
	}
	f := vp.player.NextFrame()
	if f == nil {
		vp.due = true
		return nil
	}
	vp.due = false
	vp.timer.SetInterval(vp.player.Pace(f))
	return f
}

// Player returns the underlying player, or nil before initialization.
func (vp *VideoPlayer) Player() *Player {
	return vp.player
}

// Err returns the error that prevented the player from being created.
func (vp *VideoPlayer) Err() error {
	return vp.err
}

func (vp *VideoPlayer) IsReady() bool {
	return vp.player != nil && vp.player.IsReady()
}

func (vp *VideoPlayer) Position() float64 {
	if vp.player == nil {
		return 0
	}
	return vp.player.Position()
}

func (vp *VideoPlayer) Duration() float64 {
	if vp.player == nil {
		return 0
	}
	return vp.player.Duration()
}

func (vp *VideoPlayer) Progress() float64 {
	if vp.player == nil {
		return 0
	}
	return vp.player.Progress()
}
