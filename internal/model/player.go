package model

import "time"

// Player is a participant in a room. Ownership is by id: a player belongs
// to exactly one room for its whole lifetime.
type Player struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar,omitempty"`
	Host      bool      `json:"host"`
	Connected bool      `json:"connected"`
	Score     int       `json:"score"`
	JoinedAt  time.Time `json:"-"`

	// DisconnectedAt is set when the grace timer starts and cleared on
	// reconnect. Never serialized to clients.
	DisconnectedAt time.Time `json:"-"`

	// Removed marks a player whose grace period expired mid-game. They keep
	// their score and stay on the scoreboard but no longer take part in
	// turn order or consensus counts.
	Removed bool `json:"removed,omitempty"`
}

// Active reports whether the player still takes part in gameplay.
func (p *Player) Active() bool {
	return !p.Removed
}
