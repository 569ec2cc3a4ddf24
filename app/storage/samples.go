package storage

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"iter"
	"log"

	"github.com/jmoiron/sqlx"

	"github.com/amck/mlmodels/app/storage/engine"
	"github.com/amck/mlmodels/lib/dataset"
)

// Samples is a storage for labeled samples, both preset (shipped training data) and user's (added at runtime).
// The same sample can be stored many times, each copy counts in training.
type Samples struct {
	*engine.SQL
	engine.RWLocker
}

// SampleOrigin represents the origin of the sample
type SampleOrigin string

// enum for sample origins
const (
	SampleOriginPreset SampleOrigin = "preset"
	SampleOriginUser   SampleOrigin = "user"
	SampleOriginAny    SampleOrigin = "any"
)

// samples-related command constants
const (
	CmdCreateSamplesTable engine.DBCmd = iota + 500
	CmdCreateSamplesIndexes
	CmdAddSample
)

var samplesQueries = engine.NewQueryMap().
	Add(CmdCreateSamplesTable, engine.Query{
		Sqlite: `CREATE TABLE IF NOT EXISTS samples (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            gid TEXT NOT NULL DEFAULT '',
            ts DATETIME DEFAULT CURRENT_TIMESTAMP,
            label INTEGER NOT NULL CHECK (label >= 0),
            features TEXT NOT NULL,
            origin TEXT CHECK (origin IN ('preset', 'user'))
        )`,
		Postgres: `CREATE TABLE IF NOT EXISTS samples (
            id SERIAL PRIMARY KEY,
            gid TEXT NOT NULL DEFAULT '',
            ts TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            label INTEGER NOT NULL CHECK (label >= 0),
            features TEXT NOT NULL,
            origin TEXT CHECK (origin IN ('preset', 'user'))
        )`,
	}).
	AddSame(CmdCreateSamplesIndexes, `
		CREATE INDEX IF NOT EXISTS idx_samples_gid ON samples(gid);
		CREATE INDEX IF NOT EXISTS idx_samples_lookup ON samples(gid, origin);
		CREATE INDEX IF NOT EXISTS idx_samples_sample ON samples(gid, label, features)`).
	Add(CmdAddSample, engine.Query{
		Sqlite:   `INSERT INTO samples (gid, label, features, origin) VALUES (?, ?, ?, ?)`,
		Postgres: `INSERT INTO samples (gid, label, features, origin) VALUES ($1, $2, $3, $4)`,
	})

// SamplesStats returns statistics about samples
type SamplesStats struct {
	Total   int         `db:"total" json:"total"`
	Preset  int         `db:"preset" json:"preset"`
	User    int         `db:"user_count" json:"user"`
	ByLabel map[int]int `db:"-" json:"by_label"`
}

// String provides a string representation of the statistics
func (st *SamplesStats) String() string {
	return fmt.Sprintf("total: %d, preset: %d, user: %d, by label: %v", st.Total, st.Preset, st.User, st.ByLabel)
}

// NewSamples creates a new Samples storage
func NewSamples(ctx context.Context, db *engine.SQL) (*Samples, error) {
	if db == nil {
		return nil, fmt.Errorf("db connection is nil")
	}
	res := &Samples{SQL: db, RWLocker: db.MakeLock()}
	cfg := engine.TableConfig{
		Name:          "samples",
		CreateTable:   CmdCreateSamplesTable,
		CreateIndexes: CmdCreateSamplesIndexes,
		MigrateFunc:   res.migrate,
		QueriesMap:    samplesQueries,
	}
	if err := engine.InitTable(ctx, db, cfg); err != nil {
		return nil, fmt.Errorf("failed to init samples storage: %w", err)
	}
	return res, nil
}

// Add adds a sample to the storage
func (s *Samples) Add(ctx context.Context, o SampleOrigin, sample dataset.Sample) error {
	log.Printf("[DEBUG] adding sample: %s, %s", o, dataset.FormatLine(sample))
	if err := validateSample(o, sample); err != nil {
		return err
	}

	s.Lock()
	defer s.Unlock()

	query, err := samplesQueries.Pick(s.Type(), CmdAddSample)
	if err != nil {
		return fmt.Errorf("failed to get query: %w", err)
	}
	if _, err := s.ExecContext(ctx, query, s.GID(), sample.Label, dataset.Bits(sample.Features), o); err != nil {
		return fmt.Errorf("failed to add sample: %w", err)
	}
	return nil
}

// DeleteSample removes the most recent copy of the sample with given origin
func (s *Samples) DeleteSample(ctx context.Context, o SampleOrigin, sample dataset.Sample) error {
	line := dataset.FormatLine(sample)
	log.Printf("[DEBUG] deleting sample: %s, %s", o, line)
	if err := validateSample(o, sample); err != nil {
		return err
	}

	s.Lock()
	defer s.Unlock()

	query := s.Adopt(`DELETE FROM samples WHERE id = (
		SELECT id FROM samples WHERE gid = ? AND label = ? AND features = ? AND origin = ? ORDER BY id DESC LIMIT 1)`)
	result, err := s.ExecContext(ctx, query, s.GID(), sample.Label, dataset.Bits(sample.Features), o)
	if err != nil {
		return fmt.Errorf("failed to remove sample: %w", err)
	}
	return checkAffected(result, fmt.Sprintf("sample not found: gid=%s, origin=%s, sample=%s", s.GID(), o, line))
}

// Read reads samples from storage by origin, in order of insertion
func (s *Samples) Read(ctx context.Context, o SampleOrigin) ([]dataset.Sample, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	query, args := s.selectQuery(o)
	s.RLock()
	rows := []sampleRow{}
	err := s.SelectContext(ctx, &rows, query, args...)
	s.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("failed to get samples: %w", err)
	}

	res := make([]dataset.Sample, 0, len(rows))
	for _, r := range rows {
		sample, err := r.sample()
		if err != nil {
			return nil, fmt.Errorf("broken sample %d: %w", r.ID, err)
		}
		res = append(res, sample)
	}
	log.Printf("[DEBUG] read %d samples: gid=%s, origin=%s", len(res), s.GID(), o)
	return res, nil
}

// Iterator returns an iterator over samples by origin. Samples are loaded first, so the
// iteration doesn't hold a database connection. Iteration stops on context cancellation.
func (s *Samples) Iterator(ctx context.Context, o SampleOrigin) (iter.Seq[dataset.Sample], error) {
	samples, err := s.Read(ctx, o)
	if err != nil {
		return nil, err
	}
	return func(yield func(dataset.Sample) bool) {
		for _, sample := range samples {
			select {
			case <-ctx.Done():
				return
			default:
			}
			if !yield(sample) {
				return
			}
		}
	}, nil
}

// Import reads samples in text format from the reader and imports them into the storage.
// If withCleanup is true removes all samples with the same origin before import.
// Nothing is imported if any line is broken.
func (s *Samples) Import(ctx context.Context, o SampleOrigin, r io.Reader, withCleanup bool) (*SamplesStats, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	if o == SampleOriginAny {
		return nil, fmt.Errorf("can't import samples with origin 'any'")
	}
	if r == nil {
		return nil, fmt.Errorf("reader cannot be nil")
	}

	samples, err := dataset.Read(bufio.NewReader(r))
	if err != nil {
		return nil, fmt.Errorf("can't parse samples: %w", err)
	}
	for i, sample := range samples {
		if err := validateSample(o, sample); err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
	}

	s.Lock()
	defer s.Unlock()

	tx, err := s.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	gid := s.GID()
	if withCleanup {
		result, errDel := tx.ExecContext(ctx, s.Adopt(`DELETE FROM samples WHERE gid = ? AND origin = ?`), gid, o)
		if errDel != nil {
			return nil, fmt.Errorf("failed to remove old samples: %w", errDel)
		}
		affected, errCount := result.RowsAffected()
		if errCount != nil {
			return nil, fmt.Errorf("failed to get affected rows: %w", errCount)
		}
		log.Printf("[DEBUG] removed %d old samples: gid=%s, origin=%s", affected, gid, o)
	}

	query, err := samplesQueries.Pick(s.Type(), CmdAddSample)
	if err != nil {
		return nil, fmt.Errorf("failed to get import query: %w", err)
	}
	for _, sample := range samples {
		if _, err = tx.ExecContext(ctx, query, gid, sample.Label, dataset.Bits(sample.Features), o); err != nil {
			return nil, fmt.Errorf("failed to add sample: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	log.Printf("[DEBUG] imported %d samples: gid=%s, origin=%s", len(samples), gid, o)
	return s.stats(ctx)
}

// Stats returns statistics about samples
func (s *Samples) Stats(ctx context.Context) (*SamplesStats, error) {
	s.RLock()
	defer s.RUnlock()
	return s.stats(ctx)
}

// stats returns statistics about samples without locking
func (s *Samples) stats(ctx context.Context) (*SamplesStats, error) {
	query := s.Adopt(`
        SELECT
            COUNT(*) as total,
            COUNT(CASE WHEN origin = 'preset' THEN 1 END) as preset,
            COUNT(CASE WHEN origin = 'user' THEN 1 END) as user_count
        FROM samples
        WHERE gid = ?`)

	var stats SamplesStats
	if err := s.GetContext(ctx, &stats, query, s.GID()); err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	var byLabel []struct {
		Label int `db:"label"`
		Count int `db:"cnt"`
	}
	query = s.Adopt(`SELECT label, COUNT(*) as cnt FROM samples WHERE gid = ? GROUP BY label`)
	if err := s.SelectContext(ctx, &byLabel, query, s.GID()); err != nil {
		return nil, fmt.Errorf("failed to get stats by label: %w", err)
	}
	stats.ByLabel = make(map[int]int, len(byLabel))
	for _, bl := range byLabel {
		stats.ByLabel[bl.Label] = bl.Count
	}
	return &stats, nil
}

func (s *Samples) selectQuery(o SampleOrigin) (query string, args []any) {
	if o == SampleOriginAny {
		return s.Adopt(`SELECT id, label, features FROM samples WHERE gid = ? ORDER BY id`), []any{s.GID()}
	}
	return s.Adopt(`SELECT id, label, features FROM samples WHERE gid = ? AND origin = ? ORDER BY id`), []any{s.GID(), o}
}

func (s *Samples) migrate(_ context.Context, _ *sqlx.Tx, _ string) error {
	// no migration needed for now
	return nil
}

// String implements Stringer interface
func (o SampleOrigin) String() string { return string(o) }

// Validate checks if the sample origin is valid
func (o SampleOrigin) Validate() error {
	switch o {
	case SampleOriginPreset, SampleOriginUser, SampleOriginAny:
		return nil
	}
	return fmt.Errorf("invalid sample origin: %s", o)
}

type sampleRow struct {
	ID       int64  `db:"id"`
	Label    int    `db:"label"`
	Features string `db:"features"`
}

func (r sampleRow) sample() (dataset.Sample, error) {
	features, err := dataset.FromBits(r.Features)
	if err != nil {
		return dataset.Sample{}, err
	}
	return dataset.Sample{Label: r.Label, Features: features}, nil
}

// validateSample checks origin is specific and sample is well-formed.
// It doesn't know the schema, checking label range against classes is up to the caller.
func validateSample(o SampleOrigin, sample dataset.Sample) error {
	if err := o.Validate(); err != nil {
		return err
	}
	if o == SampleOriginAny {
		return fmt.Errorf("can't use origin 'any' for a single sample")
	}
	if len(sample.Features) == 0 {
		return fmt.Errorf("sample has no features")
	}
	if sample.Label < 0 {
		return fmt.Errorf("negative label %d", sample.Label)
	}
	return nil
}

type rowsAffecter interface {
	RowsAffected() (int64, error)
}

func checkAffected(result rowsAffecter, notFoundMsg string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%s", notFoundMsg)
	}
	return nil
}
