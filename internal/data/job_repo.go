package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jobscout/jobscout/internal/data/pgxutil"
	"github.com/jobscout/jobscout/internal/domain/model"
	apperrors "github.com/jobscout/jobscout/internal/errors"
)

// RepoConfig holds configuration options for the job repository.
type RepoConfig struct {
	Logger       *slog.Logger
	TimeProvider TimeProvider
}

// JobRepo provides database operations for job postings.
type JobRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewJobRepo creates a new JobRepo instance with the given database connection and configuration.
func NewJobRepo(db *sql.DB, cfg RepoConfig) *JobRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}

	return &JobRepo{
		DB:           db,
		timeProvider: tp,
		logger:       cfg.Logger,
	}
}

const jobColumns = `
  id,
  user_id,
  search_id,
  source,
  title,
  company,
  location,
  description,
  url,
  work_arrangement,
  salary_min,
  salary_max,
  required_skills,
  experience_level,
  spam_score,
  spam_indicators,
  duplicate,
  saved,
  saved_at,
  expires_at,
  posted_at,
  scraped_at,
  created_at,
  updated_at
`

type jobRowScanner interface {
	Scan(dest ...any) error
}

type jobRowData struct {
	skills, indicators   []byte
	salaryMin, salaryMax sql.NullInt64
	savedAt, expiresAt   sql.NullTime
	postedAt             sql.NullTime
}

func (d *jobRowData) scanInto(scanner jobRowScanner, job *model.Job) error {
	return scanner.Scan(
		&job.ID,
		&job.UserID,
		&job.SearchID,
		&job.Source,
		&job.Title,
		&job.Company,
		&job.Location,
		&job.Description,
		&job.URL,
		&job.WorkArrangement,
		&d.salaryMin,
		&d.salaryMax,
		&d.skills,
		&job.ExperienceLevel,
		&job.SpamScore,
		&d.indicators,
		&job.Duplicate,
		&job.Saved,
		&d.savedAt,
		&d.expiresAt,
		&d.postedAt,
		&job.ScrapedAt,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
}

func (d *jobRowData) apply(job *model.Job) error {
	job.SalaryMin = cloneNullableInt(d.salaryMin)
	job.SalaryMax = cloneNullableInt(d.salaryMax)
	job.SavedAt = cloneNullableTime(d.savedAt)
	job.ExpiresAt = cloneNullableTime(d.expiresAt)
	job.PostedAt = cloneNullableTime(d.postedAt)
	if err := decodeStringArray(d.skills, &job.RequiredSkills); err != nil {
		return fmt.Errorf("decode required_skills: %w", err)
	}
	if err := decodeStringArray(d.indicators, &job.SpamIndicators); err != nil {
		return fmt.Errorf("decode spam_indicators: %w", err)
	}
	return nil
}

func scanJobFromRow(scanner jobRowScanner) (*model.Job, error) {
	job := &model.Job{}
	var data jobRowData
	if err := data.scanInto(scanner, job); err != nil {
		return nil, err
	}
	if err := data.apply(job); err != nil {
		return nil, err
	}
	return job, nil
}

func collectJobFromRows(rows pgx.Rows) (*model.Job, error) {
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, pgx.ErrNoRows
	}

	job, err := scanJobFromRow(rows)
	if err != nil {
		return nil, err
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, rowsErr
	}

	return job, nil
}

func decodeStringArray(raw []byte, dst *[]string) error {
	if len(raw) == 0 {
		*dst = nil
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func encodeStringArray(values []string) ([]byte, error) {
	if len(values) == 0 {
		return []byte(`[]`), nil
	}
	return json.Marshal(values)
}

func cloneNullableInt(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	v := int(ni.Int64)
	return &v
}

func cloneNullableTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

// BulkInsert persists normalized jobs from one ingestion run. Rows whose URL
// already exists for the same user are skipped rather than failing the batch.
// Missing IDs and lifecycle fields are filled in here: new rows start unsaved
// with expires_at = insert time + UnsavedTTL.
func (r *JobRepo) BulkInsert(ctx context.Context, jobs []*model.Job) (int, error) {
	if len(jobs) == 0 {
		return 0, nil
	}

	currentTime := r.timeProvider.Now().UTC()
	inserted := 0

	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
		Fn: func(tx pgx.Tx) error {
			for _, job := range jobs {
				n, insertErr := r.insertJobInTx(ctx, tx, job, currentTime)
				if insertErr != nil {
					return insertErr
				}
				inserted += n
			}
			return nil
		},
	})
	if err != nil {
		return 0, apperrors.MapDBError(err)
	}
	return inserted, nil
}

func (r *JobRepo) insertJobInTx(ctx context.Context, tx pgx.Tx, job *model.Job, now time.Time) (int, error) {
	if job == nil {
		return 0, errors.New("job is required")
	}
	if strings.TrimSpace(job.ID) == "" {
		job.ID = uuid.NewString()
	}
	if job.ScrapedAt.IsZero() {
		job.ScrapedAt = now
	}
	// Expiry always counts from insert time. A provider's publication date
	// may be days old and must never produce a row that is born expired.
	if !job.Saved && job.ExpiresAt == nil {
		exp := now.Add(model.UnsavedTTL).UTC()
		job.ExpiresAt = &exp
	}

	skills, err := encodeStringArray(job.RequiredSkills)
	if err != nil {
		return 0, fmt.Errorf("encode required_skills: %w", err)
	}
	indicators, err := encodeStringArray(job.SpamIndicators)
	if err != nil {
		return 0, fmt.Errorf("encode spam_indicators: %w", err)
	}

	tag, err := tx.Exec(ctx, `
      INSERT INTO jobs(
        id, user_id, search_id, source,
        title, company, location, description, url,
        work_arrangement, salary_min, salary_max, required_skills, experience_level,
        spam_score, spam_indicators, duplicate,
        saved, saved_at, expires_at,
        posted_at, scraped_at, created_at, updated_at)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24)
      ON CONFLICT (user_id, url) DO NOTHING
    `,
		job.ID, job.UserID, job.SearchID, job.Source,
		job.Title, job.Company, job.Location, job.Description, job.URL,
		job.WorkArrangement, job.SalaryMin, job.SalaryMax, skills, job.ExperienceLevel,
		job.SpamScore, indicators, job.Duplicate,
		job.Saved, job.SavedAt, job.ExpiresAt,
		job.PostedAt, job.ScrapedAt.UTC(), now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("insert job: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// GetByID retrieves a job by its ID.
func (r *JobRepo) GetByID(ctx context.Context, id string) (*model.Job, error) {
	var job *model.Job
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, qerr := pgxConn.Query(ctx, `
			SELECT `+jobColumns+`
			FROM jobs
			WHERE id = $1
		`, id)
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

// GetByIDs retrieves jobs by ID, in no particular order. Unknown IDs are
// silently absent from the result.
func (r *JobRepo) GetByIDs(ctx context.Context, ids []string) ([]*model.Job, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var jobs []*model.Job
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, qerr := pgxConn.Query(ctx, `
			SELECT `+jobColumns+`
			FROM jobs
			WHERE id = ANY($1)
		`, ids)
		if qerr != nil {
			return qerr
		}
		defer rows.Close()

		for rows.Next() {
			job, scanErr := scanJobFromRow(rows)
			if scanErr != nil {
				return scanErr
			}
			jobs = append(jobs, job)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return jobs, nil
}

// List returns a page of the user's jobs, most recently scraped first.
func (r *JobRepo) List(ctx context.Context, opts model.JobListOptions) ([]*model.Job, error) {
	if strings.TrimSpace(opts.UserID) == "" {
		return nil, apperrors.ValidationField("user_id", "user id is required")
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT ` + jobColumns + `
		FROM jobs
		WHERE user_id = $1`
	args := []any{opts.UserID}

	if opts.Saved != nil {
		args = append(args, *opts.Saved)
		query += fmt.Sprintf(" AND saved = $%d", len(args))
	}
	if !opts.IncludeDuplicates {
		query += " AND duplicate = FALSE"
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY scraped_at DESC, id LIMIT $%d", len(args))
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	var jobs []*model.Job
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, qerr := pgxConn.Query(ctx, query, args...)
		if qerr != nil {
			return qerr
		}
		defer rows.Close()

		for rows.Next() {
			job, scanErr := scanJobFromRow(rows)
			if scanErr != nil {
				return scanErr
			}
			jobs = append(jobs, job)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return jobs, nil
}

// ListRecent returns the newest postings across all users. Used to rebuild
// the in-memory search indexes on process start.
func (r *JobRepo) ListRecent(ctx context.Context, limit int) ([]*model.Job, error) {
	if limit <= 0 {
		limit = 10000
	}

	var jobs []*model.Job
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, qerr := pgxConn.Query(ctx, `
			SELECT `+jobColumns+`
			FROM jobs
			ORDER BY scraped_at DESC, id
			LIMIT $1
		`, limit)
		if qerr != nil {
			return qerr
		}
		defer rows.Close()

		for rows.Next() {
			job, scanErr := scanJobFromRow(rows)
			if scanErr != nil {
				return scanErr
			}
			jobs = append(jobs, job)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return jobs, nil
}

// SetDuplicate updates the duplicate flag after async dedup.
func (r *JobRepo) SetDuplicate(ctx context.Context, id string, duplicate bool) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE jobs
		SET duplicate = $2, updated_at = $3
		WHERE id = $1
	`, id, duplicate, r.timeProvider.Now().UTC())
	if err != nil {
		return apperrors.MapDBError(err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set duplicate rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.NotFound("job not found")
	}
	return nil
}
