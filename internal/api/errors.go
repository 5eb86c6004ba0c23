// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package api

import (
	"errors"
	"fmt"
)

// Status is the status string the game API puts in its response bodies,
// plus the two the client assigns itself for transport failures.
type Status string

const (
	StatusSuccess            Status = "success"
	StatusLobbyNotFound      Status = "lobby_not_found"
	StatusInvalidPlayerToken Status = "invalid_player_token"
	StatusHTTPError          Status = "http_error"
	StatusNetworkError       Status = "network_error"
)

// Sentinels for errors.Is.
var (
	ErrLobbyNotFound      = &Error{Status: StatusLobbyNotFound}
	ErrInvalidPlayerToken = &Error{Status: StatusInvalidPlayerToken}
	ErrHTTP               = &Error{Status: StatusHTTPError}
	ErrNetwork            = &Error{Status: StatusNetworkError}
)

// Error is a failed API call.
type Error struct {
	Status     Status
	Message    string
	HTTPStatus int   // set for StatusHTTPError
	Err        error // underlying transport error, if any
}

func (e *Error) Error() string {
	switch {
	case e.HTTPStatus != 0:
		return fmt.Sprintf("api %s: HTTP status code %d", e.Status, e.HTTPStatus)
	case e.Message != "":
		return fmt.Sprintf("api %s: %s", e.Status, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("api %s: %v", e.Status, e.Err)
	}
	return "api " + string(e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same Status.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Status == e.Status
}

// SessionEnded reports whether err means the lobby or the player token is
// gone, so the session cannot continue and the player has to rejoin.
func SessionEnded(err error) bool {
	return errors.Is(err, ErrLobbyNotFound) || errors.Is(err, ErrInvalidPlayerToken)
}
