package api

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/relabs-tech/manhunt_client/internal/geo"
)

// MaxNameLength is the longest player name the lobby accepts.
const MaxNameLength = 30

// Player is one roster entry as returned by trade-player-data.
type Player struct {
	PlayerID  string   `json:"player_id"`
	Name      string   `json:"name"`
	IsSeeker  bool     `json:"is_seeker"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`

	// epoch milliseconds, 0 if the player never reported a location
	LocationLastUpdated int64 `json:"location_last_updated"`
}

// Position returns the player's last reported position, or nil.
func (p Player) Position() *geo.Coordinate {
	if p.Latitude == nil || p.Longitude == nil {
		return nil
	}
	return &geo.Coordinate{Latitude: *p.Latitude, Longitude: *p.Longitude}
}

type envelope struct {
	Status  Status `json:"status"`
	Message string `json:"message"`
}

type CreateLobbyResponse struct {
	LobbyID     string `json:"lobby_id"`
	PlayerToken string `json:"player_token"`
}

type JoinLobbyResponse struct {
	PlayerToken string `json:"player_token"`
	PlayerID    string `json:"player_id,omitempty"`
	LobbyName   string `json:"lobby_name,omitempty"`
}

type TradeResponse struct {
	LobbyName string   `json:"lobby_name"`
	PlayerID  string   `json:"player_id,omitempty"`
	Players   []Player `json:"players"`
}

// PlayerUpdate carries the fields to change; nil fields are left alone.
type PlayerUpdate struct {
	Name     *string `json:"name,omitempty"`
	IsSeeker *bool   `json:"is_seeker,omitempty"`
}

type lobbyRequest struct {
	LobbyName string `json:"lobby_name,omitempty"`
	LobbyID   string `json:"lobby_id,omitempty"`
}

type playerRequest struct {
	LobbyID     string   `json:"lobby_id"`
	PlayerToken string   `json:"player_token"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	Name        *string  `json:"name,omitempty"`
	IsSeeker    *bool    `json:"is_seeker,omitempty"`
}

var (
	ErrEmptyName   = errors.New("name cannot be empty")
	ErrNameTooLong = errors.New("name must be 30 characters or less")
)

// ValidateName trims name and checks it against the lobby's rules.
func ValidateName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", ErrEmptyName
	}
	if utf8.RuneCountInString(trimmed) > MaxNameLength {
		return "", ErrNameTooLong
	}
	return trimmed, nil
}
