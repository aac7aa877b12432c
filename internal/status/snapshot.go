package status

import (
	"github.com/lanikai/alohaplay"
)

// Snapshot is the JSON document pushed to status clients.
type Snapshot struct {
	URI      string                  `json:"uri"`
	State    alohaplay.PlaybackState `json:"state"`
	Ready    bool                    `json:"ready"`
	Playing  bool                    `json:"playing"`
	Decoding bool                    `json:"decoding"`
	Position float64                 `json:"position"`
	Duration float64                 `json:"duration"`
	Progress float64                 `json:"progress"`
	Stats    alohaplay.Stats         `json:"stats"`
	Error    string                  `json:"error,omitempty"`
}

// Capture samples vp. It reads vp.State, so callers must serialize it with
// Update.
func Capture(vp *alohaplay.VideoPlayer) Snapshot {
	s := Snapshot{
		URI:      vp.URI,
		State:    vp.State,
		Ready:    vp.IsReady(),
		Position: vp.Position(),
		Duration: vp.Duration(),
		Progress: vp.Progress(),
	}
	if err := vp.Err(); err != nil {
		s.Error = err.Error()
	}
	if p := vp.Player(); p != nil {
		s.Playing = p.IsPlaying()
		s.Decoding = p.Decoding()
		s.Stats = p.Stats()
		if err := p.Err(); err != nil {
			s.Error = err.Error()
		}
	}
	return s
}
