// Package store persists extracted profiles and interaction outcomes to PostgreSQL.
package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/tinderscope/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

//go:embed schema.sql
var Schema string

// DBPool abstracts pgxpool.Pool so tests can substitute pgxmock.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// Store is the PostgreSQL profile sink.
type Store struct {
	pool DBPool
	log  *zap.Logger
	now  func() time.Time
}

var _ schemas.ProfileSink = (*Store)(nil)

// New creates a store and verifies the connection.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{
		pool: pool,
		log:  logger.Named("store"),
		now:  time.Now,
	}, nil
}

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

const sqlUpsertProfile = `
        INSERT INTO profiles (id, run_id, name, age, bio, work, study, home, gender, distance, height_cm,
            passions, lifestyle, basics, anthem, looking_for, looking_for_tags, prompts, socials,
            verified, recently_active, extracted_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
        ON CONFLICT (id) DO UPDATE SET
            run_id = EXCLUDED.run_id,
            name = EXCLUDED.name,
            age = EXCLUDED.age,
            bio = EXCLUDED.bio,
            work = EXCLUDED.work,
            study = EXCLUDED.study,
            home = EXCLUDED.home,
            gender = EXCLUDED.gender,
            distance = EXCLUDED.distance,
            height_cm = EXCLUDED.height_cm,
            passions = EXCLUDED.passions,
            lifestyle = EXCLUDED.lifestyle,
            basics = EXCLUDED.basics,
            anthem = EXCLUDED.anthem,
            looking_for = EXCLUDED.looking_for,
            looking_for_tags = EXCLUDED.looking_for_tags,
            prompts = EXCLUDED.prompts,
            socials = EXCLUDED.socials,
            verified = EXCLUDED.verified,
            recently_active = EXCLUDED.recently_active,
            extracted_at = EXCLUDED.extracted_at;
    `

const sqlDeleteImages = `DELETE FROM profile_images WHERE profile_id = $1;`

var imageColumns = []string{"profile_id", "position", "url"}

// SaveProfile upserts p and replaces its image rows in one transaction.
func (s *Store) SaveProfile(ctx context.Context, runID string, p *schemas.ExtractedProfile) error {
	if p == nil || p.ID == "" {
		return errors.New("store: profile has no id")
	}
	args, err := profileArgs(runID, p)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			s.log.Error("Failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	if _, err := tx.Exec(ctx, sqlUpsertProfile, args...); err != nil {
		return fmt.Errorf("failed to upsert profile %s: %w", p.ID, err)
	}
	if _, err := tx.Exec(ctx, sqlDeleteImages, p.ID); err != nil {
		return fmt.Errorf("failed to clear images of profile %s: %w", p.ID, err)
	}
	if err := s.copyImages(ctx, tx, p); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.log.Debug("Saved profile.", zap.String("id", p.ID), zap.Int("images", len(p.ImageURLs)))
	return nil
}

func (s *Store) copyImages(ctx context.Context, tx pgx.Tx, p *schemas.ExtractedProfile) error {
	if len(p.ImageURLs) == 0 {
		return nil
	}
	rows := make([][]any, len(p.ImageURLs))
	for i, u := range p.ImageURLs {
		rows[i] = []any{p.ID, i, u}
	}
	copyCount, err := tx.CopyFrom(ctx, pgx.Identifier{"profile_images"}, imageColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to copy profile images: %w", err)
	}
	if int(copyCount) != len(rows) {
		return fmt.Errorf("mismatch in copied images count: expected %d, got %d", len(rows), copyCount)
	}
	return nil
}

func profileArgs(runID string, p *schemas.ExtractedProfile) ([]any, error) {
	var anthem []byte
	if p.Anthem != nil {
		var err error
		if anthem, err = json.Marshal(p.Anthem); err != nil {
			return nil, fmt.Errorf("failed to encode anthem: %w", err)
		}
	}
	prompts := p.Prompts
	if prompts == nil {
		prompts = []schemas.Prompt{}
	}
	promptsJSON, err := json.Marshal(prompts)
	if err != nil {
		return nil, fmt.Errorf("failed to encode prompts: %w", err)
	}
	socials := p.Socials
	if socials.Links == nil {
		socials.Links = []string{}
	}
	socialsJSON, err := json.Marshal(socials)
	if err != nil {
		return nil, fmt.Errorf("failed to encode socials: %w", err)
	}

	return []any{
		p.ID, runID, p.Name, p.Age, p.Bio, p.Work, p.Study, p.Home, p.Gender, p.Distance, p.HeightCm,
		nonNil(p.Passions), nonNil(p.Lifestyle), nonNil(p.Basics), anthem, p.LookingFor, nonNil(p.LookingForTags),
		promptsJSON, socialsJSON, p.Verified, p.RecentlyActive, p.ExtractedAt.UTC(),
	}, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

const sqlInsertInteraction = `
        INSERT INTO interactions (run_id, profile_id, action, succeeded, occurred_at)
        VALUES ($1, $2, $3, $4, $5);
    `

// RecordInteraction stores the outcome of one swipe action.
func (s *Store) RecordInteraction(ctx context.Context, runID, profileID string, action schemas.InteractionAction, ok bool) error {
	if _, err := s.pool.Exec(ctx, sqlInsertInteraction, runID, profileID, string(action), ok, s.now().UTC()); err != nil {
		return fmt.Errorf("failed to record interaction: %w", err)
	}
	return nil
}

const sqlProfilesByRun = `
        SELECT id, name, age, bio, work, study, home, gender, distance, height_cm,
            passions, lifestyle, basics, looking_for, looking_for_tags, verified, recently_active, extracted_at
        FROM profiles
        WHERE run_id = $1
        ORDER BY extracted_at ASC;
    `

// GetProfilesByRunID returns the profiles saved by a run, oldest first. Images,
// prompts, anthem and socials are not loaded.
func (s *Store) GetProfilesByRunID(ctx context.Context, runID string) ([]schemas.ExtractedProfile, error) {
	rows, err := s.pool.Query(ctx, sqlProfilesByRun, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	var profiles []schemas.ExtractedProfile
	for rows.Next() {
		var p schemas.ExtractedProfile
		err := rows.Scan(
			&p.ID, &p.Name, &p.Age, &p.Bio, &p.Work, &p.Study, &p.Home, &p.Gender,
			&p.Distance, &p.HeightCm,
			&p.Passions, &p.Lifestyle, &p.Basics,
			&p.LookingFor, &p.LookingForTags,
			&p.Verified, &p.RecentlyActive, &p.ExtractedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile row: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return profiles, nil
}
