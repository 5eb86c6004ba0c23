package tracker

import (
	"time"

	"github.com/relabs-tech/manhunt_client/internal/game"
	"github.com/relabs-tech/manhunt_client/internal/geo"
	"github.com/relabs-tech/manhunt_client/internal/heading"
)

// Snapshot is everything a view needs to draw one frame.
type Snapshot struct {
	Time       time.Time       `json:"time"`
	LobbyID    string          `json:"lobby_id"`
	LobbyName  string          `json:"lobby_name"`
	PlayerID   string          `json:"player_id,omitempty"`
	PlayerName string          `json:"player_name"`
	Role       game.Role       `json:"role"`
	Location   *geo.Coordinate `json:"location,omitempty"`
	Players    int             `json:"players"`

	Compass CompassStatus `json:"compass"`
	Needle  Needle        `json:"needle"`

	Seeker *game.SeekerView `json:"seeker,omitempty"`
	Hider  *game.HiderView  `json:"hider,omitempty"`
}

// CompassStatus is the heading source as the player should see it.
type CompassStatus struct {
	Capability string        `json:"capability"`
	State      heading.State `json:"state"`
	Advisory   string        `json:"advisory,omitempty"`
}

// Needle is the arrow pointing at the tracked target.
type Needle struct {
	Heading      float64          `json:"heading"`
	HaveHeading  bool             `json:"have_heading"`
	Bearing      float64          `json:"bearing"`
	HaveBearing  bool             `json:"have_bearing"`
	Rotation     heading.Rotation `json:"rotation"`
	Target       string           `json:"target,omitempty"`
	DistanceText string           `json:"distance_text"`
}

// Sink receives every published snapshot. Publish must not block the
// tracker; slow consumers drop or coalesce.
type Sink interface {
	Publish(Snapshot)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Snapshot)

func (f SinkFunc) Publish(s Snapshot) { f(s) }
