package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/relabs-tech/manhunt_client/internal/geo"
)

type recorded struct {
	path string
	body map[string]any
	hdr  http.Header
}

func newServer(t *testing.T, reply func(path string, body map[string]any) (int, string)) (*httptest.Server, *[]recorded) {
	t.Helper()
	var mu sync.Mutex
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		calls = append(calls, recorded{path: r.URL.Path, body: body, hdr: r.Header.Clone()})
		mu.Unlock()
		code, resp := reply(r.URL.Path, body)
		w.WriteHeader(code)
		_, _ = w.Write([]byte(resp))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestCreateLobby(t *testing.T) {
	srv, calls := newServer(t, func(string, map[string]any) (int, string) {
		return 200, `{"status":"success","lobby_id":"ABC123","player_token":"tok"}`
	})
	c := New(srv.URL+"/", time.Second)

	res, err := c.CreateLobby(context.Background(), "park")
	if err != nil {
		t.Fatalf("CreateLobby: %v", err)
	}
	if res.LobbyID != "ABC123" || res.PlayerToken != "tok" {
		t.Fatalf("response = %+v", res)
	}
	got := (*calls)[0]
	if got.path != "/create-lobby" || got.body["lobby_name"] != "park" {
		t.Fatalf("request = %+v", got)
	}
	if got.hdr.Get("Content-Type") != "application/json" || got.hdr.Get("X-Request-ID") == "" {
		t.Fatalf("headers = %v", got.hdr)
	}
}

func TestTradePlayerDataLocationOptional(t *testing.T) {
	srv, calls := newServer(t, func(string, map[string]any) (int, string) {
		return 200, `{"lobby_name":"park","players":[
			{"player_id":"p1","name":"Ann","is_seeker":true,"latitude":51.5,"longitude":-0.1,"location_last_updated":1700000000000},
			{"player_id":"p2","name":"","is_seeker":false,"latitude":null,"longitude":null}]}`
	})
	c := New(srv.URL, time.Second)

	res, err := c.TradePlayerData(context.Background(), "L", "T", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := (*calls)[0].body["latitude"]; ok {
		t.Fatal("latitude sent without a fix")
	}
	if res.LobbyName != "park" || len(res.Players) != 2 {
		t.Fatalf("response = %+v", res)
	}
	if p := res.Players[0].Position(); p == nil || p.Latitude != 51.5 {
		t.Fatalf("position = %+v", p)
	}
	if res.Players[1].Position() != nil {
		t.Fatal("null coordinates decoded as a position")
	}

	if _, err := c.TradePlayerData(context.Background(), "L", "T", &geo.Coordinate{Latitude: 1, Longitude: 2}); err != nil {
		t.Fatal(err)
	}
	body := (*calls)[1].body
	if body["latitude"] != 1.0 || body["longitude"] != 2.0 || body["lobby_id"] != "L" || body["player_token"] != "T" {
		t.Fatalf("body = %v", body)
	}
}

func TestStatusErrors(t *testing.T) {
	cases := []struct {
		name   string
		code   int
		body   string
		target error
		ended  bool
	}{
		{"lobby not found", 200, `{"status":"lobby_not_found","message":"no such lobby"}`, ErrLobbyNotFound, true},
		{"bad token", 200, `{"status":"invalid_player_token"}`, ErrInvalidPlayerToken, true},
		{"http", 500, `oops`, ErrHTTP, false},
		{"malformed", 200, `not json`, ErrNetwork, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := newServer(t, func(string, map[string]any) (int, string) { return tc.code, tc.body })
			c := New(srv.URL, time.Second)
			_, err := c.JoinLobby(context.Background(), "L")
			if !errors.Is(err, tc.target) {
				t.Fatalf("err = %v, want %v", err, tc.target)
			}
			if SessionEnded(err) != tc.ended {
				t.Fatalf("SessionEnded = %v", SessionEnded(err))
			}
		})
	}
}

func TestHTTPErrorCarriesStatusCode(t *testing.T) {
	srv, _ := newServer(t, func(string, map[string]any) (int, string) { return 404, "" })
	err := New(srv.URL, time.Second).LeaveLobby(context.Background(), "L", "T")
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.HTTPStatus != 404 {
		t.Fatalf("err = %#v", err)
	}
	if !strings.Contains(err.Error(), "404") {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := New(url, time.Second).LeaveLobby(context.Background(), "L", "T")
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("err = %v", err)
	}
}

func TestUpdatePlayerRoleAndName(t *testing.T) {
	srv, calls := newServer(t, func(string, map[string]any) (int, string) { return 200, `{"status":"success"}` })
	c := New(srv.URL, time.Second)

	if err := c.UpdatePlayerRole(context.Background(), "L", "T", false); err != nil {
		t.Fatal(err)
	}
	body := (*calls)[0].body
	if v, ok := body["is_seeker"]; !ok || v != false {
		t.Fatalf("is_seeker missing: %v", body)
	}
	if _, ok := body["name"]; ok {
		t.Fatalf("name sent with role update: %v", body)
	}

	if err := c.UpdatePlayerName(context.Background(), "L", "T", "  Bob  "); err != nil {
		t.Fatal(err)
	}
	if (*calls)[1].body["name"] != "Bob" {
		t.Fatalf("name = %v", (*calls)[1].body["name"])
	}

	if err := c.UpdatePlayerName(context.Background(), "L", "T", "   "); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("err = %v", err)
	}
	if len(*calls) != 2 {
		t.Fatal("invalid name reached the API")
	}
}

func TestValidateName(t *testing.T) {
	if _, err := ValidateName(strings.Repeat("é", 30)); err != nil {
		t.Fatalf("30 runes rejected: %v", err)
	}
	if _, err := ValidateName(strings.Repeat("x", 31)); !errors.Is(err, ErrNameTooLong) {
		t.Fatalf("err = %v", err)
	}
}

type obs struct {
	mu       sync.Mutex
	statuses []Status
}

func (o *obs) ObserveRequest(_ string, s Status, _ time.Duration) {
	o.mu.Lock()
	o.statuses = append(o.statuses, s)
	o.mu.Unlock()
}

func TestObserver(t *testing.T) {
	srv, _ := newServer(t, func(path string, _ map[string]any) (int, string) {
		if path == "/join-lobby" {
			return 200, `{"status":"lobby_not_found"}`
		}
		return 200, `{"status":"success"}`
	})
	o := &obs{}
	c := New(srv.URL, time.Second, WithObserver(o))
	_ = c.LeaveLobby(context.Background(), "L", "T")
	_, _ = c.JoinLobby(context.Background(), "L")
	if len(o.statuses) != 2 || o.statuses[0] != StatusSuccess || o.statuses[1] != StatusLobbyNotFound {
		t.Fatalf("statuses = %v", o.statuses)
	}
}
