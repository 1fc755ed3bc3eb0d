package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/dmklda/farmandcity-sub002/internal/game"
)

// SaveStalenessLimit is how old a save may be and still be resumed.
const SaveStalenessLimit = 24 * time.Hour

var (
	ErrSaveNotFound     = errors.New("no save found for player")
	ErrDeckChanged      = errors.New("save belongs to a different active deck")
	ErrSaveStale        = errors.New("save is older than the staleness limit")
	ErrChecksumMismatch = errors.New("save checksum does not match its state")
)

// SaveRepository stores one in-progress game per player.
type SaveRepository struct {
	db     *DB
	logger *zap.Logger
}

func NewSaveRepository(db *DB, logger *zap.Logger) *SaveRepository {
	return &SaveRepository{db: db, logger: logger}
}

// Upsert writes the player's current save, replacing any previous one.
func (r *SaveRepository) Upsert(ctx context.Context, playerID string, sn game.Snapshot) error {
	data, err := sn.Marshal()
	if err != nil {
		return err
	}

	_, err = r.db.pool.Exec(ctx, `
		INSERT INTO game_saves (player_id, game_id, deck_active_id, snapshot, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (player_id) DO UPDATE
		SET game_id = EXCLUDED.game_id,
		    deck_active_id = EXCLUDED.deck_active_id,
		    snapshot = EXCLUDED.snapshot,
		    updated_at = EXCLUDED.updated_at`,
		playerID, sn.GameID, sn.DeckActiveID, data, sn.Timestamp)
	if err != nil {
		return fmt.Errorf("upsert save for %s: %w", playerID, err)
	}

	r.logger.Debug("save written",
		zap.String("player_id", playerID),
		zap.String("game_id", sn.GameID),
		zap.Int("turn", sn.Turn),
	)
	return nil
}

// Load fetches and validates the player's save. The save must match the
// player's current active deck, be fresh, and pass its checksum.
func (r *SaveRepository) Load(ctx context.Context, playerID, deckActiveID string) (game.Snapshot, error) {
	var data []byte
	err := r.db.pool.QueryRow(ctx,
		`SELECT snapshot FROM game_saves WHERE player_id = $1`,
		playerID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return game.Snapshot{}, ErrSaveNotFound
	}
	if err != nil {
		return game.Snapshot{}, fmt.Errorf("load save for %s: %w", playerID, err)
	}

	sn, err := game.UnmarshalSnapshot(data)
	if err != nil {
		return game.Snapshot{}, err
	}
	if err := ValidateSave(sn, deckActiveID, time.Now().UTC()); err != nil {
		return game.Snapshot{}, err
	}
	return sn, nil
}

// Delete removes the player's save, for example after the game ends.
func (r *SaveRepository) Delete(ctx context.Context, playerID string) error {
	_, err := r.db.pool.Exec(ctx,
		`DELETE FROM game_saves WHERE player_id = $1`, playerID)
	if err != nil {
		return fmt.Errorf("delete save for %s: %w", playerID, err)
	}
	return nil
}

// ValidateSave enforces the resume rules on a loaded snapshot.
func ValidateSave(sn game.Snapshot, deckActiveID string, now time.Time) error {
	if sn.DeckActiveID != deckActiveID {
		return ErrDeckChanged
	}
	if now.Sub(sn.Timestamp) > SaveStalenessLimit {
		return ErrSaveStale
	}
	if !sn.VerifyChecksum() {
		return ErrChecksumMismatch
	}
	return nil
}
