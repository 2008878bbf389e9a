package repository

import (
	"context"
	"errors"
	"time"

	"github.com/MikeHotel0815/casa-belegung-app/internal/dateutil"
	"github.com/MikeHotel0815/casa-belegung-app/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SegmentRepository interface {
	LoadAll(ctx context.Context) ([]domain.Segment, error)
	InsertSegments(ctx context.Context, segments []domain.Segment) error
	UpdateSegment(ctx context.Context, segment domain.Segment) error
	DeleteSegments(ctx context.Context, ids []string) error
}

type PGSegmentRepository struct {
	db *pgxpool.Pool
}

func NewSegmentRepository(db *pgxpool.Pool) SegmentRepository {
	return &PGSegmentRepository{db: db}
}

func (r *PGSegmentRepository) LoadAll(ctx context.Context) ([]domain.Segment, error) {
	rows, err := r.db.Query(ctx, `SELECT id, original_request_id, user_id, user_name, start_date, end_date, status, property_id, created_at, updated_at FROM segments ORDER BY start_date, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	segments := make([]domain.Segment, 0)
	for rows.Next() {
		seg, err := scanSegment(rows)
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}
	return segments, rows.Err()
}

// InsertSegments writes one request group in a single transaction so a
// partially stored group can never become readable.
func (r *PGSegmentRepository) InsertSegments(ctx context.Context, segments []domain.Segment) error {
	if len(segments) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, seg := range segments {
		if _, err := tx.Exec(ctx, `INSERT INTO segments (id, original_request_id, user_id, user_name, start_date, end_date, status, property_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			seg.ID, nullable(seg.OriginalRequestID), seg.UserID, seg.UserName,
			seg.StartDate.Time(), seg.EndDate.Time(), seg.Status, seg.PropertyID,
			seg.CreatedAt, seg.UpdatedAt); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *PGSegmentRepository) UpdateSegment(ctx context.Context, segment domain.Segment) error {
	cmd, err := r.db.Exec(ctx, `UPDATE segments SET user_id=$1, user_name=$2, start_date=$3, end_date=$4, status=$5, updated_at=$6 WHERE id=$7`,
		segment.UserID, segment.UserName, segment.StartDate.Time(), segment.EndDate.Time(), segment.Status, segment.UpdatedAt, segment.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return errors.New("segment not found")
	}
	return nil
}

func (r *PGSegmentRepository) DeleteSegments(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx, `DELETE FROM segments WHERE id = ANY($1)`, ids)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSegment(row rowScanner) (domain.Segment, error) {
	var (
		seg        domain.Segment
		requestID  *string
		start, end time.Time
	)
	if err := row.Scan(&seg.ID, &requestID, &seg.UserID, &seg.UserName, &start, &end, &seg.Status, &seg.PropertyID, &seg.CreatedAt, &seg.UpdatedAt); err != nil {
		return domain.Segment{}, err
	}
	if requestID != nil {
		seg.OriginalRequestID = *requestID
	}
	seg.StartDate = dateutil.FromTime(start)
	seg.EndDate = dateutil.FromTime(end)
	return seg, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

var _ SegmentRepository = (*PGSegmentRepository)(nil)
