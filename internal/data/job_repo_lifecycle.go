package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jobscout/jobscout/internal/core"
	"github.com/jobscout/jobscout/internal/data/pgxutil"
	"github.com/jobscout/jobscout/internal/domain/model"
	apperrors "github.com/jobscout/jobscout/internal/errors"
)

// Advisory lock namespace for sweeper operations.
// Using two-arg pg_try_advisory_xact_lock(major, minor) for proper namespacing.
// Major key 2000 is reserved for jobscout sweeper operations.
const (
	advisoryLockSweepMajor   = 2000
	advisoryLockSweepExpired = 1 // minor key for DeleteExpired
)

// MarkSaved pins a job so the sweeper never touches it. Saving an
// already-saved job is a no-op that returns the current row; saved_at keeps
// its original value.
func (r *JobRepo) MarkSaved(ctx context.Context, id, userID string) (*model.Job, error) {
	currentTime := r.timeProvider.Now().UTC()

	var job *model.Job
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, qerr := pgxConn.Query(ctx, `
			UPDATE jobs
			SET saved = TRUE,
			    saved_at = COALESCE(saved_at, $3),
			    expires_at = NULL,
			    updated_at = $3
			WHERE id = $1 AND user_id = $2
			RETURNING `+jobColumns+`
		`, id, userID, currentTime)
		if qerr != nil {
			return qerr
		}
		defer rows.Close()
		job, qerr = collectJobFromRows(rows)
		return qerr
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return job, nil
}

// MarkUnsaved releases a saved job and starts its expiration clock from now.
// Unsaving an already-unsaved job is a no-op that returns the current row;
// expires_at keeps its original value so a repeat call cannot re-arm the
// clock.
func (r *JobRepo) MarkUnsaved(ctx context.Context, id, userID string) (*model.Job, error) {
	currentTime := r.timeProvider.Now().UTC()
	expiresAt := currentTime.Add(model.UnsavedTTL)

	var job *model.Job
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, qerr := pgxConn.Query(ctx, `
			UPDATE jobs
			SET saved = FALSE,
			    saved_at = NULL,
			    expires_at = COALESCE(expires_at, $4),
			    updated_at = $3
			WHERE id = $1 AND user_id = $2
			RETURNING `+jobColumns+`
		`, id, userID, currentTime, expiresAt)
		if qerr != nil {
			return qerr
		}
		defer rows.Close()
		job, qerr = collectJobFromRows(rows)
		return qerr
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return job, nil
}

// SetSpamScore records the async spam verdict for a job.
func (r *JobRepo) SetSpamScore(ctx context.Context, params core.SetSpamScoreParams) error {
	indicators, err := encodeStringArray(params.Indicators)
	if err != nil {
		return fmt.Errorf("encode spam_indicators: %w", err)
	}

	res, err := r.DB.ExecContext(ctx, `
		UPDATE jobs
		SET spam_score = $2, spam_indicators = $3, updated_at = $4
		WHERE id = $1
	`, params.JobID, params.Score, indicators, r.timeProvider.Now().UTC())
	if err != nil {
		return apperrors.MapDBError(err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set spam score rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.NotFound("job not found")
	}
	return nil
}

// DeleteExpired removes unsaved jobs whose expiration has passed. Processes
// up to limit rows per call to prevent long locks and I/O spikes, and uses an
// advisory lock so concurrent sweeper instances do not conflict. Both
// predicates are re-evaluated on the target row inside the DELETE itself: a
// job saved between candidate selection and deletion survives.
func (r *JobRepo) DeleteExpired(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		return 0, errors.New("limit must be greater than zero")
	}

	var rowsAffected int64
	err := pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{
		Fn: func(tx *sql.Tx) error {
			var locked bool
			if err := tx.QueryRowContext(ctx, "SELECT pg_try_advisory_xact_lock($1, $2)", advisoryLockSweepMajor, advisoryLockSweepExpired).Scan(&locked); err != nil {
				return fmt.Errorf("acquire advisory lock: %w", err)
			}
			if !locked {
				rowsAffected = 0
				return nil
			}

			currentTime := r.timeProvider.Now().UTC()
			res, err := tx.ExecContext(ctx, `
				DELETE FROM jobs
				USING (
					SELECT ctid
					FROM jobs
					WHERE saved = FALSE
					  AND expires_at IS NOT NULL
					  AND expires_at < $1
					ORDER BY expires_at
					LIMIT $2
				) sub
				WHERE jobs.ctid = sub.ctid
				  AND jobs.saved = FALSE
				  AND jobs.expires_at IS NOT NULL
				  AND jobs.expires_at < $1
			`, currentTime, limit)
			if err != nil {
				return fmt.Errorf("delete expired jobs: %w", err)
			}

			ra, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows affected: %w", err)
			}
			rowsAffected = ra
			return nil
		},
	})
	if err != nil {
		return 0, apperrors.MapDBError(err)
	}
	return int(rowsAffected), nil
}

// ExpirationSummary aggregates lifecycle state for one user's corpus.
// ExpiringSoon counts unsaved jobs due within 24 hours; ExpiredJobs counts
// rows already past expiry but not yet swept.
func (r *JobRepo) ExpirationSummary(ctx context.Context, userID string) (*model.ExpirationSummary, error) {
	currentTime := r.timeProvider.Now().UTC()
	soonCutoff := currentTime.Add(24 * time.Hour)

	var s model.ExpirationSummary
	err := r.DB.QueryRowContext(ctx, `
	  SELECT
	    count(*)                                                                       AS total,
	    count(*) FILTER (WHERE saved)                                                  AS saved,
	    count(*) FILTER (WHERE NOT saved)                                              AS unsaved,
	    count(*) FILTER (WHERE NOT saved AND expires_at >= $2 AND expires_at < $3)     AS expiring_soon,
	    count(*) FILTER (WHERE NOT saved AND expires_at < $2)                          AS expired
	  FROM jobs
	  WHERE user_id = $1
	`, userID, currentTime, soonCutoff).Scan(
		&s.TotalJobs,
		&s.SavedJobs,
		&s.UnsavedJobs,
		&s.ExpiringSoon,
		&s.ExpiredJobs,
	)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &s, nil
}
