package domain

import "time"

// PlayerSession tracks one currently connected participant, keyed by the
// host's connection slot. Slots are small integers that are reused after a
// disconnect, so a session must be dropped the moment its player leaves.
type PlayerSession struct {
	Slot      int
	UserID    int
	SteamID64 uint64
	SteamID2  string
	Name      string
	Kills     int
	Deaths    int
	Assists   int
	Headshots int
	StartedAt time.Time
}

// PlayerStats is a point-in-time read of a player's live match counters.
type PlayerStats struct {
	Name      string
	Kills     int
	Deaths    int
	Assists   int
	Headshots int
}

// TeamScores holds the two team scores read from the host's team entities.
// A missing entity contributes a score of zero.
type TeamScores struct {
	CT int
	T  int
}
