package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stemsi/exprep-backend/internal/model"
)

// BankRepository is the remote bank store: published, immutable question sets.
type BankRepository struct {
	pool *pgxpool.Pool
}

// NewBankRepository creates a new BankRepository.
func NewBankRepository(pool *pgxpool.Pool) *BankRepository {
	return &BankRepository{pool: pool}
}

// ListVersions returns published versions, newest first.
func (r *BankRepository) ListVersions(ctx context.Context) ([]model.BankVersion, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT version, notes, question_count, COALESCE(published_by, ''), published_at
		 FROM bank_versions ORDER BY published_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	versions := []model.BankVersion{}
	for rows.Next() {
		var v model.BankVersion
		if err := rows.Scan(&v.Version, &v.Notes, &v.QuestionCount, &v.PublishedBy, &v.PublishedAt); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// LatestVersion returns the most recently published version name.
func (r *BankRepository) LatestVersion(ctx context.Context) (string, error) {
	var version string
	err := r.pool.QueryRow(ctx,
		`SELECT version FROM bank_versions ORDER BY published_at DESC LIMIT 1`).Scan(&version)
	return version, err
}

// LoadQuestions returns the questions of a version in their published order.
// pgx.ErrNoRows is returned when the version has no questions.
func (r *BankRepository) LoadQuestions(ctx context.Context, version string) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT body FROM bank_questions WHERE version = $1 ORDER BY position`, version)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var q model.Question
		if err := json.Unmarshal(raw, &q); err != nil {
			return nil, fmt.Errorf("decode question at position %d: %w", len(questions), err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, pgx.ErrNoRows
	}
	return questions, nil
}

// Publish stores a new version and its questions in one transaction.
func (r *BankRepository) Publish(ctx context.Context, v model.BankVersion, questions []model.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var publishedBy *string
	if v.PublishedBy != "" {
		publishedBy = &v.PublishedBy
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO bank_versions (version, notes, question_count, published_by)
		 VALUES ($1, $2, $3, $4)`,
		v.Version, v.Notes, len(questions), publishedBy); err != nil {
		return err
	}

	rows := make([][]any, len(questions))
	for i, q := range questions {
		body, err := json.Marshal(q)
		if err != nil {
			return fmt.Errorf("encode question %s: %w", q.ID, err)
		}
		rows[i] = []any{v.Version, i, q.ID, string(q.Type()), string(body)}
	}
	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"bank_questions"},
		[]string{"version", "position", "question_id", "question_type", "body"},
		pgx.CopyFromRows(rows)); err != nil {
		return fmt.Errorf("copy questions: %w", err)
	}

	return tx.Commit(ctx)
}
