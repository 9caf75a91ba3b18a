package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/idlecamp/server/internal/effect"
	"github.com/idlecamp/server/internal/world"
)

// CharacterRow is one saved character. Cooldowns and effects carry absolute
// timestamps; the loader re-bases effects against the load time.
type CharacterRow struct {
	ID        int64
	Name      string
	ClassID   int32
	Mode      int16
	Level     int32
	Exp       int64
	Gold      int64
	HP        int32
	Mana      int32
	Endurance int32
	CampID    int32
	BindCamp  int32

	Resting            bool
	AutoAttack         bool
	FleeExhaustedUntil *time.Time

	Inventory   []world.InvItem
	Equipment   map[string]int32
	KnownSkills []int32
	Slots       []int32
	Cooldowns   map[int32]time.Time
	Effects     []effect.Snapshot

	Kills  int64
	Deaths int64

	CreatedAt time.Time
	SavedAt   time.Time
}

// jsonColumns holds the encoded JSONB columns of a row.
type jsonColumns struct {
	inventory, equipment, known, slots, cooldowns, effects []byte
}

func (c *CharacterRow) encode() (jsonColumns, error) {
	var (
		out jsonColumns
		err error
	)
	if out.inventory, err = json.Marshal(orEmpty(c.Inventory)); err != nil {
		return out, fmt.Errorf("encode inventory: %w", err)
	}
	if out.equipment, err = json.Marshal(orEmptyMap(c.Equipment)); err != nil {
		return out, fmt.Errorf("encode equipment: %w", err)
	}
	if out.known, err = json.Marshal(orEmpty(c.KnownSkills)); err != nil {
		return out, fmt.Errorf("encode known skills: %w", err)
	}
	if out.slots, err = json.Marshal(orEmpty(c.Slots)); err != nil {
		return out, fmt.Errorf("encode slots: %w", err)
	}
	// JSON object keys must be strings.
	cd := make(map[string]time.Time, len(c.Cooldowns))
	for id, at := range c.Cooldowns {
		cd[strconv.Itoa(int(id))] = at
	}
	if out.cooldowns, err = json.Marshal(cd); err != nil {
		return out, fmt.Errorf("encode cooldowns: %w", err)
	}
	if out.effects, err = json.Marshal(orEmpty(c.Effects)); err != nil {
		return out, fmt.Errorf("encode effects: %w", err)
	}
	return out, nil
}

func (c *CharacterRow) decode(cols jsonColumns) error {
	if err := json.Unmarshal(cols.inventory, &c.Inventory); err != nil {
		return fmt.Errorf("decode inventory: %w", err)
	}
	if err := json.Unmarshal(cols.equipment, &c.Equipment); err != nil {
		return fmt.Errorf("decode equipment: %w", err)
	}
	if err := json.Unmarshal(cols.known, &c.KnownSkills); err != nil {
		return fmt.Errorf("decode known skills: %w", err)
	}
	if err := json.Unmarshal(cols.slots, &c.Slots); err != nil {
		return fmt.Errorf("decode slots: %w", err)
	}
	var cd map[string]time.Time
	if err := json.Unmarshal(cols.cooldowns, &cd); err != nil {
		return fmt.Errorf("decode cooldowns: %w", err)
	}
	c.Cooldowns = make(map[int32]time.Time, len(cd))
	for k, at := range cd {
		id, err := strconv.Atoi(k)
		if err != nil {
			continue // 舊資料格式
		}
		c.Cooldowns[int32(id)] = at
	}
	if err := json.Unmarshal(cols.effects, &c.Effects); err != nil {
		return fmt.Errorf("decode effects: %w", err)
	}
	return nil
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func orEmptyMap[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return map[K]V{}
	}
	return m
}

type CharacterRepo struct {
	db *DB
}

func NewCharacterRepo(db *DB) *CharacterRepo {
	return &CharacterRepo{db: db}
}

const characterColumns = `id, name, class_id, mode, level, exp, gold,
	hp, mana, endurance, camp_id, bind_camp,
	resting, auto_attack, flee_exhausted_until,
	inventory, equipment, known_skills, slots, cooldowns, effects,
	kills, deaths, created_at, saved_at`

// LoadByName returns the character called name, or nil when none exists.
func (r *CharacterRepo) LoadByName(ctx context.Context, name string) (*CharacterRow, error) {
	var (
		c    CharacterRow
		cols jsonColumns
	)
	err := r.db.Pool.QueryRow(ctx,
		`SELECT `+characterColumns+` FROM characters WHERE name = $1`, name,
	).Scan(
		&c.ID, &c.Name, &c.ClassID, &c.Mode, &c.Level, &c.Exp, &c.Gold,
		&c.HP, &c.Mana, &c.Endurance, &c.CampID, &c.BindCamp,
		&c.Resting, &c.AutoAttack, &c.FleeExhaustedUntil,
		&cols.inventory, &cols.equipment, &cols.known, &cols.slots, &cols.cooldowns, &cols.effects,
		&c.Kills, &c.Deaths, &c.CreatedAt, &c.SavedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load character %s: %w", name, err)
	}
	if err := c.decode(cols); err != nil {
		return nil, fmt.Errorf("load character %s: %w", name, err)
	}
	return &c, nil
}

// Create inserts a new character and fills in its ID.
func (r *CharacterRepo) Create(ctx context.Context, c *CharacterRow) error {
	cols, err := c.encode()
	if err != nil {
		return err
	}
	err = r.db.Pool.QueryRow(ctx,
		`INSERT INTO characters (name, class_id, mode, level, exp, gold,
			hp, mana, endurance, camp_id, bind_camp,
			resting, auto_attack, flee_exhausted_until,
			inventory, equipment, known_skills, slots, cooldowns, effects,
			kills, deaths, created_at, saved_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, NOW())
		 RETURNING id`,
		c.Name, c.ClassID, c.Mode, c.Level, c.Exp, c.Gold,
		c.HP, c.Mana, c.Endurance, c.CampID, c.BindCamp,
		c.Resting, c.AutoAttack, c.FleeExhaustedUntil,
		cols.inventory, cols.equipment, cols.known, cols.slots, cols.cooldowns, cols.effects,
		c.Kills, c.Deaths, c.CreatedAt,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("create character %s: %w", c.Name, err)
	}
	return nil
}

// NameExists reports whether a character called name is already saved.
func (r *CharacterRepo) NameExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM characters WHERE name = $1)`, name,
	).Scan(&exists)
	return exists, err
}

// Save writes the full mutable state of c in one statement.
func (r *CharacterRepo) Save(ctx context.Context, c *CharacterRow) error {
	cols, err := c.encode()
	if err != nil {
		return err
	}
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE characters SET level = $2, exp = $3, gold = $4,
			hp = $5, mana = $6, endurance = $7, camp_id = $8, bind_camp = $9,
			resting = $10, auto_attack = $11, flee_exhausted_until = $12,
			inventory = $13, equipment = $14, known_skills = $15, slots = $16,
			cooldowns = $17, effects = $18, kills = $19, deaths = $20, saved_at = NOW()
		 WHERE id = $1`,
		c.ID, c.Level, c.Exp, c.Gold,
		c.HP, c.Mana, c.Endurance, c.CampID, c.BindCamp,
		c.Resting, c.AutoAttack, c.FleeExhaustedUntil,
		cols.inventory, cols.equipment, cols.known, cols.slots,
		cols.cooldowns, cols.effects, c.Kills, c.Deaths,
	)
	if err != nil {
		return fmt.Errorf("save character %d: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("save character %d: %w", c.ID, pgx.ErrNoRows)
	}
	return nil
}
