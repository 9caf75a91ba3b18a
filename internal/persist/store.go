package persist

import "context"

// Store bundles the repositories a session needs.
type Store struct {
	Characters  *CharacterRepo
	Leaderboard *LeaderboardRepo
}

func NewStore(db *DB) *Store {
	return &Store{
		Characters:  NewCharacterRepo(db),
		Leaderboard: NewLeaderboardRepo(db),
	}
}

func (s *Store) LoadCharacter(ctx context.Context, name string) (*CharacterRow, error) {
	return s.Characters.LoadByName(ctx, name)
}

func (s *Store) CreateCharacter(ctx context.Context, c *CharacterRow) error {
	return s.Characters.Create(ctx, c)
}

func (s *Store) SaveCharacter(ctx context.Context, c *CharacterRow) error {
	return s.Characters.Save(ctx, c)
}

func (s *Store) RecordDeath(ctx context.Context, d *DeathRow) error {
	return s.Leaderboard.RecordDeath(ctx, d)
}

func (s *Store) TopDeaths(ctx context.Context, limit int) ([]DeathRow, error) {
	return s.Leaderboard.Top(ctx, limit)
}
