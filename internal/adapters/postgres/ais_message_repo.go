package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/aissim/internal/core/domain"
)

// AISMessageRepo implements ports.AISMessageRepository.
type AISMessageRepo struct {
	db *DB
}

func NewAISMessageRepo(db *DB) *AISMessageRepo {
	return &AISMessageRepo{db: db}
}

// Duplicates on (mmsi, ts) are dropped silently.
const insertAISMessage = `
	INSERT INTO ais_messages (mmsi, ts, latitude, longitude, speed, course, status, payload, is_valid, error_message)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (mmsi, ts) DO NOTHING
	RETURNING id`

func insertArgs(rec *domain.AISRecord) []any {
	return []any{
		rec.MMSI, rec.Timestamp, rec.Latitude, rec.Longitude, rec.Speed,
		rec.Course, rec.Status, rec.Payload, rec.IsValid, nilIfEmpty(rec.ErrorMessage),
	}
}

// Insert stores rec and sets its ID. A duplicate leaves ID at zero.
func (r *AISMessageRepo) Insert(ctx context.Context, rec *domain.AISRecord) error {
	err := r.db.Pool.QueryRow(ctx, insertAISMessage, insertArgs(rec)...).Scan(&rec.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	return err
}

// InsertBatch sends all records in a single round trip.
func (r *AISMessageRepo) InsertBatch(ctx context.Context, recs []domain.AISRecord) error {
	if len(recs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i := range recs {
		batch.Queue(insertAISMessage, insertArgs(&recs[i])...)
	}

	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for i := range recs {
		err := br.QueryRow().Scan(&recs[i].ID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("batch row %d: %w", i, err)
		}
	}
	return nil
}

func (r *AISMessageRepo) MMSIExists(ctx context.Context, mmsi string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM ais_messages WHERE mmsi = $1)`, mmsi).Scan(&exists)
	return exists, err
}

func (r *AISMessageRepo) DistinctMMSIs(ctx context.Context) ([]string, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT DISTINCT mmsi FROM ais_messages ORDER BY mmsi`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (r *AISMessageRepo) Track(ctx context.Context, mmsi string) ([]domain.TrackPoint, error) {
	return r.TrackWindow(ctx, mmsi, time.Time{}, time.Time{})
}

// TrackWindow returns valid fixes inside [from, to]. Zero bounds are open.
func (r *AISMessageRepo) TrackWindow(ctx context.Context, mmsi string, from, to time.Time) ([]domain.TrackPoint, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT ts, latitude, longitude, COALESCE(speed, 0)
		FROM ais_messages
		WHERE mmsi = $1
		  AND is_valid
		  AND ($2::timestamptz IS NULL OR ts >= $2)
		  AND ($3::timestamptz IS NULL OR ts <= $3)
		ORDER BY ts
	`, mmsi, nilIfZero(from), nilIfZero(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []domain.TrackPoint
	for rows.Next() {
		var p domain.TrackPoint
		if err := rows.Scan(&p.Timestamp, &p.Location.Lat, &p.Location.Lon, &p.Speed); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

func (r *AISMessageRepo) DeleteByMMSI(ctx context.Context, mmsi string) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM ais_messages WHERE mmsi = $1`, mmsi)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *AISMessageRepo) Counts(ctx context.Context) (domain.IngestCounts, error) {
	var c domain.IngestCounts
	var last *time.Time
	err := r.db.Pool.QueryRow(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE is_valid),
		       count(*) FILTER (WHERE NOT is_valid),
		       count(DISTINCT mmsi),
		       max(ingested_at)
		FROM ais_messages
	`).Scan(&c.Total, &c.Valid, &c.Invalid, &c.Vessels, &last)
	if err != nil {
		return c, err
	}
	if last != nil {
		c.LastIngest = last.UTC().Format(time.RFC3339)
	}
	return c, nil
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nilIfZero(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
