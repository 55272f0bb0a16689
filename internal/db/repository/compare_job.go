package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"curtainbe/internal/domain"
)

var _ domain.CompareJobRepository = (*CompareJobRepo)(nil)

// CompareJobRepo stores comparison job lifecycle state in SQLite.
type CompareJobRepo struct {
	db *sql.DB
}

// NewCompareJobRepo creates a new CompareJobRepo.
func NewCompareJobRepo(db *sql.DB) *CompareJobRepo {
	return &CompareJobRepo{db: db}
}

// Create inserts a new comparison job.
func (r *CompareJobRepo) Create(ctx context.Context, job *domain.CompareJob) (*domain.CompareJob, error) {
	if job == nil {
		return nil, domain.ErrValidation("compare job is required")
	}
	if job.ID == "" {
		job.ID = domain.NewID()
	}
	if job.Status == "" {
		job.Status = domain.CompareJobStatusQueued
	}

	sessionIDs, err := json.Marshal(job.SessionIDs)
	if err != nil {
		return nil, fmt.Errorf("marshal session ids: %w", err)
	}
	queryTerms, err := json.Marshal(job.QueryTerms)
	if err != nil {
		return nil, fmt.Errorf("marshal query terms: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO compare_jobs (id, status, session_ids_json, query_terms_json, match_type, channel_name)
		VALUES (?, ?, ?, ?, ?, ?)
	`, job.ID, string(job.Status), string(sessionIDs), string(queryTerms), string(job.MatchType), job.ChannelName)
	if err != nil {
		return nil, mapDBError(err)
	}

	return r.GetByID(ctx, job.ID)
}

// GetByID returns a comparison job by ID.
func (r *CompareJobRepo) GetByID(ctx context.Context, id string) (*domain.CompareJob, error) {
	var (
		job                      domain.CompareJob
		status, matchType        string
		sessionIDs, queryTerms   string
		resultJSON, errorMessage sql.NullString
		startedAt, completedAt   sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT id, status, session_ids_json, query_terms_json, match_type, channel_name,
		       result_json, error_message, created_at, started_at, completed_at, updated_at
		FROM compare_jobs WHERE id = ?
	`, id).Scan(
		&job.ID, &status, &sessionIDs, &queryTerms, &matchType, &job.ChannelName,
		&resultJSON, &errorMessage, &job.CreatedAt, &startedAt, &completedAt, &job.UpdatedAt,
	)
	if err != nil {
		return nil, mapDBError(err)
	}

	job.Status = domain.CompareJobStatus(status)
	job.MatchType = domain.MatchType(matchType)
	if err := json.Unmarshal([]byte(sessionIDs), &job.SessionIDs); err != nil {
		return nil, fmt.Errorf("unmarshal session ids: %w", err)
	}
	if err := json.Unmarshal([]byte(queryTerms), &job.QueryTerms); err != nil {
		return nil, fmt.Errorf("unmarshal query terms: %w", err)
	}
	if resultJSON.Valid && resultJSON.String != "" {
		if err := json.Unmarshal([]byte(resultJSON.String), &job.Result); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
	}
	if errorMessage.Valid {
		msg := errorMessage.String
		job.ErrorMessage = &msg
	}
	if startedAt.Valid {
		t := startedAt.Time
		job.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		job.CompletedAt = &t
	}
	return &job, nil
}

// MarkStarted updates a queued job to started.
func (r *CompareJobRepo) MarkStarted(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE compare_jobs
		SET status = ?, started_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, string(domain.CompareJobStatusStarted), id)
	if err != nil {
		return mapDBError(err)
	}
	return nil
}

// MarkFinished stores the result payload and marks the job finished.
func (r *CompareJobRepo) MarkFinished(ctx context.Context, id string, result domain.CompareResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE compare_jobs
		SET status = ?, result_json = ?, error_message = NULL,
		    completed_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, string(domain.CompareJobStatusFinished), string(resultJSON), id)
	if err != nil {
		return mapDBError(err)
	}
	return nil
}

// MarkFailed marks a job as failed with an error message.
func (r *CompareJobRepo) MarkFailed(ctx context.Context, id string, message string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE compare_jobs
		SET status = ?, error_message = ?, completed_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, string(domain.CompareJobStatusFailed), message, id)
	if err != nil {
		return mapDBError(err)
	}
	return nil
}

// DeleteOlderThan removes finished or failed jobs whose last update is before
// the cutoff. Used by housekeeping.
func (r *CompareJobRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM compare_jobs
		WHERE status IN (?, ?) AND updated_at < ?
	`, string(domain.CompareJobStatusFinished), string(domain.CompareJobStatusFailed), cutoff)
	if err != nil {
		return 0, mapDBError(err)
	}
	return res.RowsAffected()
}
