package event

import (
	"time"

	"github.com/idlecamp/server/internal/core/ecs"
)

// MobKilled is emitted once per mob instance when death resolution completes.
type MobKilled struct {
	CharID   int64
	MobID    ecs.EntityID
	MobName  string
	MobLevel int
	Exp      int64
	Gold     int64
	Items    []int32
	At       time.Time
}

// PlayerDied is emitted after death handling for either mode.
type PlayerDied struct {
	CharID   int64
	Name     string
	Level    int
	Exp      int64 // total before any penalty or reset
	Hardcore bool
	KilledBy string
	ExpLost  int64
	At       time.Time
}

// LevelUp is emitted for every level gained.
type LevelUp struct {
	CharID   int64
	OldLevel int
	NewLevel int
}

// TravelFinished is emitted when a travel session arrives or is ambushed.
type TravelFinished struct {
	CharID   int64
	FromCamp int32
	ToCamp   int32
	Ambushed bool
}
