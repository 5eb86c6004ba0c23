// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package tracker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/relabs-tech/manhunt_client/internal/api"
)

// Lobby is the part of the game API that manages membership.
type Lobby interface {
	CreateLobby(ctx context.Context, lobbyName string) (api.CreateLobbyResponse, error)
	JoinLobby(ctx context.Context, lobbyID string) (api.JoinLobbyResponse, error)
	LeaveLobby(ctx context.Context, lobbyID, playerToken string) error
}

// Session identifies this player inside one lobby.
type Session struct {
	LobbyID     string `json:"lobby_id"`
	LobbyName   string `json:"lobby_name,omitempty"`
	PlayerID    string `json:"player_id,omitempty"`
	PlayerToken string `json:"-"`
}

// StartSession joins lobbyID, or creates a lobby called lobbyName when
// lobbyID is empty.
func StartSession(ctx context.Context, lobby Lobby, lobbyID, lobbyName string) (Session, error) {
	if lobbyID != "" {
		resp, err := lobby.JoinLobby(ctx, lobbyID)
		if err != nil {
			return Session{}, fmt.Errorf("join lobby %s: %w", lobbyID, err)
		}
		log.Printf("session: joined lobby %s", lobbyID)
		return Session{
			LobbyID:     lobbyID,
			LobbyName:   resp.LobbyName,
			PlayerID:    resp.PlayerID,
			PlayerToken: resp.PlayerToken,
		}, nil
	}

	resp, err := lobby.CreateLobby(ctx, lobbyName)
	if err != nil {
		return Session{}, fmt.Errorf("create lobby %q: %w", lobbyName, err)
	}
	log.Printf("session: created lobby %s (%s)", resp.LobbyID, lobbyName)
	return Session{
		LobbyID:     resp.LobbyID,
		LobbyName:   lobbyName,
		PlayerToken: resp.PlayerToken,
	}, nil
}

// Leave tells the lobby we are gone. Failures are logged, not returned;
// the lobby drops stale players on its own.
func (s Session) Leave(lobby Lobby, timeout time.Duration) {
	if s.PlayerToken == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := lobby.LeaveLobby(ctx, s.LobbyID, s.PlayerToken); err != nil {
		log.Printf("session: leave lobby %s: %v", s.LobbyID, err)
		return
	}
	log.Printf("session: left lobby %s", s.LobbyID)
}
