package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/lexica-cli/internal/core/domain"
	"github.com/custodia-labs/lexica-cli/internal/core/ports/driven"
)

// extractionStore implements driven.ExtractionStore.
type extractionStore struct {
	store *Store
}

var _ driven.ExtractionStore = (*extractionStore)(nil)

// Save stores an extraction, replacing any with the same ID.
func (s *extractionStore) Save(ctx context.Context, extraction *domain.Extraction) error {
	payload, err := json.Marshal(extraction)
	if err != nil {
		return fmt.Errorf("marshalling extraction: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO extractions (id, title, source_url, article_type, ai_enhanced, extracted_at, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			source_url = excluded.source_url,
			article_type = excluded.article_type,
			ai_enhanced = excluded.ai_enhanced,
			extracted_at = excluded.extracted_at,
			payload = excluded.payload
	`, extraction.ID, extraction.Article.Title, extraction.Metadata.SourceURL,
		string(extraction.Article.Type), extraction.Metadata.AIEnhanced,
		extraction.Metadata.ExtractedAt.UnixNano(), string(payload))
	if err != nil {
		return fmt.Errorf("saving extraction: %w", err)
	}
	return nil
}

// Get retrieves an extraction by ID.
func (s *extractionStore) Get(ctx context.Context, id string) (*domain.Extraction, error) {
	var payload string
	err := s.store.db.QueryRowContext(ctx, "SELECT payload FROM extractions WHERE id = ?", id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("querying extraction: %w", err)
	}

	var extraction domain.Extraction
	if err := json.Unmarshal([]byte(payload), &extraction); err != nil {
		return nil, fmt.Errorf("unmarshaling extraction: %w", err)
	}
	return &extraction, nil
}

// List returns summaries, newest first.
func (s *extractionStore) List(ctx context.Context, limit int) ([]domain.ExtractionSummary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, title, source_url, article_type, ai_enhanced, extracted_at
		FROM extractions
		ORDER BY extracted_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying extractions: %w", err)
	}
	defer rows.Close()

	summaries := []domain.ExtractionSummary{}
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating extractions: %w", err)
	}
	return summaries, nil
}

// Delete removes an extraction.
func (s *extractionStore) Delete(ctx context.Context, id string) error {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM extractions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting extraction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting extraction: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// scanSummary scans a listing row.
func scanSummary(rows *sql.Rows) (domain.ExtractionSummary, error) {
	var summary domain.ExtractionSummary
	var articleType string
	var extractedAt int64

	if err := rows.Scan(&summary.ID, &summary.Title, &summary.SourceURL,
		&articleType, &summary.AIEnhanced, &extractedAt); err != nil {
		return domain.ExtractionSummary{}, fmt.Errorf("scanning extraction: %w", err)
	}

	summary.Type = domain.ArticleType(articleType)
	summary.ExtractedAt = time.Unix(0, extractedAt).UTC()
	return summary, nil
}
