package engine

import (
	"context"

	"github.com/idlecamp/server/internal/persist"
)

// Store is the persistence collaborator. *persist.Store implements it.
// LoadCharacter returns nil, nil when no character has that name.
type Store interface {
	LoadCharacter(ctx context.Context, name string) (*persist.CharacterRow, error)
	CreateCharacter(ctx context.Context, c *persist.CharacterRow) error
	SaveCharacter(ctx context.Context, c *persist.CharacterRow) error
	RecordDeath(ctx context.Context, d *persist.DeathRow) error
}
