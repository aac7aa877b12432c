package alohaplay

import (
	"fmt"

	"github.com/pkg/errors"
)

// PlaybackState is the externally driven state of a VideoPlayer.
type PlaybackState int

const (
	Init PlaybackState = iota
	Loading
	Ready
	Start
	Playing
	Paused
	Stop
)

var stateNames = [...]string{"init", "loading", "ready", "start", "playing", "paused", "stop"}

func (s PlaybackState) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("PlaybackState(%d)", int(s))
	}
	return stateNames[s]
}

// ParsePlaybackState is the inverse of String.
func ParsePlaybackState(name string) (PlaybackState, error) {
	for i, n := range stateNames {
		if n == name {
			return PlaybackState(i), nil
		}
	}
	return Init, errors.Errorf("unknown playback state %q", name)
}

func (s PlaybackState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *PlaybackState) UnmarshalText(text []byte) error {
	parsed, err := ParsePlaybackState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
