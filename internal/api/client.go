// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package api is a client for the remote manhunt game API. The API answers
// POST requests with JSON bodies and reports lobby-level failures with a
// 200 response carrying a status field.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/relabs-tech/manhunt_client/internal/geo"
)

// DefaultBaseURL is the public game API.
const DefaultBaseURL = "https://api.hankinit.work/manhunt-api"

// Observer receives one call per finished request.
type Observer interface {
	ObserveRequest(endpoint string, status Status, elapsed time.Duration)
}

// Client talks to the game API. The zero value is not usable; use New.
type Client struct {
	baseURL  string
	http     *http.Client
	observer Observer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithObserver installs a request observer.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// New creates a client for baseURL with the given request timeout.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// CreateLobby creates a lobby and joins it.
func (c *Client) CreateLobby(ctx context.Context, lobbyName string) (CreateLobbyResponse, error) {
	var out CreateLobbyResponse
	err := c.do(ctx, "/create-lobby", lobbyRequest{LobbyName: lobbyName}, &out)
	return out, err
}

// JoinLobby joins an existing lobby as a new player.
func (c *Client) JoinLobby(ctx context.Context, lobbyID string) (JoinLobbyResponse, error) {
	var out JoinLobbyResponse
	err := c.do(ctx, "/join-lobby", lobbyRequest{LobbyID: lobbyID}, &out)
	return out, err
}

// LeaveLobby removes the player from the lobby.
func (c *Client) LeaveLobby(ctx context.Context, lobbyID, playerToken string) error {
	return c.do(ctx, "/leave-lobby", playerRequest{LobbyID: lobbyID, PlayerToken: playerToken}, nil)
}

// TradePlayerData reports the player's position, if known, and returns the
// lobby roster.
func (c *Client) TradePlayerData(ctx context.Context, lobbyID, playerToken string, pos *geo.Coordinate) (TradeResponse, error) {
	req := playerRequest{LobbyID: lobbyID, PlayerToken: playerToken}
	if pos != nil {
		lat, lon := pos.Latitude, pos.Longitude
		req.Latitude, req.Longitude = &lat, &lon
	}
	var out TradeResponse
	err := c.do(ctx, "/trade-player-data", req, &out)
	return out, err
}

// UpdatePlayer changes the player's name and/or role.
func (c *Client) UpdatePlayer(ctx context.Context, lobbyID, playerToken string, u PlayerUpdate) error {
	req := playerRequest{
		LobbyID:     lobbyID,
		PlayerToken: playerToken,
		Name:        u.Name,
		IsSeeker:    u.IsSeeker,
	}
	return c.do(ctx, "/update-player", req, nil)
}

// UpdatePlayerName validates and sets the player's display name.
func (c *Client) UpdatePlayerName(ctx context.Context, lobbyID, playerToken, name string) error {
	name, err := ValidateName(name)
	if err != nil {
		return err
	}
	return c.UpdatePlayer(ctx, lobbyID, playerToken, PlayerUpdate{Name: &name})
}

// UpdatePlayerRole switches between seeker and hider.
func (c *Client) UpdatePlayerRole(ctx context.Context, lobbyID, playerToken string, isSeeker bool) error {
	return c.UpdatePlayer(ctx, lobbyID, playerToken, PlayerUpdate{IsSeeker: &isSeeker})
}

func (c *Client) do(ctx context.Context, endpoint string, body, out any) (err error) {
	start := time.Now()
	defer func() {
		if c.observer != nil {
			c.observer.ObserveRequest(endpoint, statusOf(err), time.Since(start))
		}
	}()

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build %s request: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		log.Printf("api: %s network error: %v", endpoint, err)
		return &Error{Status: StatusNetworkError, Message: "network error - please check your internet connection", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("api: %s HTTP status code %d", endpoint, resp.StatusCode)
		return &Error{Status: StatusHTTPError, HTTPStatus: resp.StatusCode}
	}

	raw := new(bytes.Buffer)
	if _, err := raw.ReadFrom(resp.Body); err != nil {
		return &Error{Status: StatusNetworkError, Err: err}
	}

	var env envelope
	if err := json.Unmarshal(raw.Bytes(), &env); err != nil {
		return &Error{Status: StatusNetworkError, Message: "malformed response", Err: err}
	}
	switch env.Status {
	case StatusLobbyNotFound, StatusInvalidPlayerToken:
		msg := env.Message
		if msg == "" {
			msg = "API error"
		}
		log.Printf("api: %s: %s (%s)", endpoint, env.Status, msg)
		return &Error{Status: env.Status, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw.Bytes(), out); err != nil {
		return &Error{Status: StatusNetworkError, Message: "malformed response", Err: err}
	}
	return nil
}

func statusOf(err error) Status {
	if err == nil {
		return StatusSuccess
	}
	if e, ok := err.(*Error); ok {
		return e.Status
	}
	return StatusNetworkError
}
