package tracker

import "github.com/relabs-tech/manhunt_client/internal/game"

// Commands accepted on the tracker inbox.

type selectTarget struct {
	PlayerID string
}

type setRole struct {
	Role game.Role
}

type setName struct {
	Name string
}

// refresh republishes after something outside the loop changed, such as
// the compass permission.
type refresh struct{}

type snapshotRequest struct {
	Reply chan<- Snapshot
}
