package game

import (
	"testing"
	"time"

	"github.com/relabs-tech/manhunt_client/internal/api"
	"github.com/relabs-tech/manhunt_client/internal/geo"
)

func f(v float64) *float64 { return &v }

func roster() []api.Player {
	return []api.Player{
		{PlayerID: "me", Name: "Me", IsSeeker: true, Latitude: f(51.5), Longitude: f(-0.1)},
		{PlayerID: "h1", Name: "Ann", Latitude: f(51.5), Longitude: f(-0.1005)},
		{PlayerID: "h2", Name: "", Latitude: f(51.51), Longitude: f(-0.1)},
		{PlayerID: "h3", Name: "Nowhere"},
		{PlayerID: "s2", Name: "Bob", IsSeeker: true, Latitude: f(51.5003), Longitude: f(-0.1)},
		{PlayerID: "s3", Name: "Cid", IsSeeker: true, Latitude: f(51.6), Longitude: f(-0.1)},
	}
}

var self = &geo.Coordinate{Latitude: 51.5, Longitude: -0.1}

func TestSeekerViewListsHidersOnly(t *testing.T) {
	v := NewViews().Seeker(roster(), "me", self, "")
	if len(v.Targets) != 3 {
		t.Fatalf("targets = %d, want 3", len(v.Targets))
	}
	for _, e := range v.Targets {
		if e.Role != Hider {
			t.Fatalf("seeker %s listed as target", e.PlayerID)
		}
	}
	if v.Targets[1].Name != "Player h2" {
		t.Fatalf("unnamed display = %q", v.Targets[1].Name)
	}
	if v.Targets[2].DistanceText != "Unknown" {
		t.Fatalf("no-location distance = %q", v.Targets[2].DistanceText)
	}
	if v.Targets[0].DistanceText != "35m" {
		t.Fatalf("Ann distance = %q", v.Targets[0].DistanceText)
	}
	if v.Targets[1].DistanceText != "1.11km" {
		t.Fatalf("h2 distance = %q", v.Targets[1].DistanceText)
	}
}

func TestSeekerSelection(t *testing.T) {
	views := NewViews()
	cases := []struct {
		name     string
		players  []api.Player
		selected string
		want     string
	}{
		{"auto-select first", roster(), "", "h1"},
		{"keep selection", roster(), "h2", "h2"},
		{"selection left", roster(), "gone", "h1"},
		{"selecting a seeker is ignored", roster(), "s2", "h1"},
		{"no hiders", roster()[4:], "h1", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := views.Seeker(tc.players, "me", self, tc.selected)
			if v.SelectedID != tc.want {
				t.Fatalf("selected = %q, want %q", v.SelectedID, tc.want)
			}
			e, ok := v.Selected()
			if ok != (tc.want != "") || (ok && !e.Selected) {
				t.Fatalf("Selected() = %+v %v", e, ok)
			}
		})
	}
}

func TestHiderViewClosestSeeker(t *testing.T) {
	v := NewViews().Hider(roster(), "h1", self)
	// "me", s2 and s3 are seekers
	if len(v.Threats) != 3 {
		t.Fatalf("threats = %d", len(v.Threats))
	}
	if !v.HaveClosest || v.Closest != 0 {
		t.Fatalf("closest = %v %v, want 0 (seeker 'me' shares our position)", v.Closest, v.HaveClosest)
	}
	if !v.ClosestInDanger {
		t.Fatal("closest seeker not flagged")
	}

	v = NewViews().Hider(roster()[1:], "h1", self)
	if v.ClosestText != "33m" || !v.ClosestInDanger {
		t.Fatalf("closest = %q danger=%v", v.ClosestText, v.ClosestInDanger)
	}
	for _, e := range v.Threats {
		if e.PlayerID == "s3" && e.Danger {
			t.Fatal("far seeker flagged")
		}
	}
}

func TestHiderViewWithoutLocation(t *testing.T) {
	v := NewViews().Hider(roster(), "h1", nil)
	if v.HaveClosest || v.ClosestText != "Unknown" || v.ClosestInDanger {
		t.Fatalf("view = %+v", v)
	}
}

func TestTimeAgo(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	ms := now.UnixMilli()
	cases := []struct {
		at   int64
		want string
	}{
		{0, "N/A"},
		{ms + 10_000, "Just now"},
		{ms - 4_000, "Just now"},
		{ms - 42_000, "42s ago"},
		{ms - 5*60_000, "5m ago"},
		{ms - 3*3_600_000, "3h ago"},
	}
	for _, tc := range cases {
		if got := TimeAgo(tc.at, now); got != tc.want {
			t.Errorf("TimeAgo(%d) = %q, want %q", tc.at, got, tc.want)
		}
	}
}

func TestParseRole(t *testing.T) {
	if r, err := ParseRole("seeker"); err != nil || r != Seeker {
		t.Fatalf("%v %v", r, err)
	}
	if _, err := ParseRole("hunter"); err == nil {
		t.Fatal("expected error")
	}
}
