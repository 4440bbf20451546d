package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"Quorum/queue"

	"github.com/Strum355/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store persists one queue snapshot per guild. Loading a guild that was
// never saved returns the default snapshot, not an error.
type Store interface {
	Load(ctx context.Context, guildID string) (queue.Snapshot, error)
	Save(ctx context.Context, guildID string, snap queue.Snapshot) error
}

// GuildSnapshot is the database row backing one guild's snapshot.
type GuildSnapshot struct {
	GuildID   string `gorm:"primaryKey"`
	Tracks    []byte `gorm:"type:jsonb"`
	LoopMode  string
	Volume    int
	UpdatedAt time.Time
}

type GormStore struct {
	db *gorm.DB
}

// NewGormStore migrates the snapshot table and returns a Postgres-backed store.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&GuildSnapshot{}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

// Load fetches the persisted snapshot for a guild. A missing row or a
// corrupt track payload falls back to the default snapshot so the guild's
// session always comes up.
func (s *GormStore) Load(ctx context.Context, guildID string) (queue.Snapshot, error) {
	var row GuildSnapshot
	err := s.db.WithContext(ctx).First(&row, "guild_id = ?", guildID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return queue.NewSnapshot(), nil
	}
	if err != nil {
		return queue.NewSnapshot(), err
	}

	snap := queue.Snapshot{LoopMode: row.LoopMode, Volume: row.Volume}
	if len(row.Tracks) > 0 {
		if err := json.Unmarshal(row.Tracks, &snap.Pending); err != nil {
			log.WithError(err).WithFields(log.Fields{"guild_id": guildID}).
				Warn("Discarding corrupt queue snapshot")
			return queue.NewSnapshot(), nil
		}
	}
	return snap, nil
}

// Save upserts the guild's snapshot row. The row replace is a single
// statement, so a crash mid-save cannot leave a torn snapshot behind.
func (s *GormStore) Save(ctx context.Context, guildID string, snap queue.Snapshot) error {
	tracks, err := json.Marshal(snap.Pending)
	if err != nil {
		return err
	}

	row := GuildSnapshot{
		GuildID:   guildID,
		Tracks:    tracks,
		LoopMode:  snap.LoopMode,
		Volume:    snap.Volume,
		UpdatedAt: time.Now(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "guild_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"tracks", "loop_mode", "volume", "updated_at"}),
	}).Create(&row).Error
}
