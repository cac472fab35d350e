package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// SQLPageRepository is a concrete implementation of the PageRepository interface using sqlx.
type SQLPageRepository struct {
	db *sqlx.DB
}

// NewSQLPageRepository creates a new SQLPageRepository.
func NewSQLPageRepository(db *sqlx.DB) *SQLPageRepository {
	return &SQLPageRepository{db: db}
}

// CreatePage inserts a new page into the database.
// The id is generated by the caller, so no RETURNING clause is needed on MySQL.
func (r *SQLPageRepository) CreatePage(ctx context.Context, page *Page) error {
	query := `INSERT INTO pages (id, title, page_url, published) VALUES (:id, :title, :page_url, :published)`
	if _, err := r.db.NamedExecContext(ctx, query, page); err != nil {
		return fmt.Errorf("failed to execute create page query: %w", err)
	}
	return nil
}

// GetPageByID retrieves a single page by its ID. It returns nil, nil when the page does not exist.
func (r *SQLPageRepository) GetPageByID(ctx context.Context, id uuid.UUID) (*Page, error) {
	var page Page
	query := `SELECT id, title, page_url, published FROM pages WHERE id = ?`
	if err := r.db.GetContext(ctx, &page, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get page by id: %w", err)
	}
	return &page, nil
}

// FindPagesByID returns every page row with the given id.
func (r *SQLPageRepository) FindPagesByID(ctx context.Context, id uuid.UUID) ([]*Page, error) {
	pages := make([]*Page, 0, 1)
	query := `SELECT id, title, page_url, published FROM pages WHERE id = ?`
	if err := r.db.SelectContext(ctx, &pages, query, id); err != nil {
		return nil, fmt.Errorf("failed to find page %s: %w", id, err)
	}
	return pages, nil
}

// GetAllPages retrieves all pages from the database.
func (r *SQLPageRepository) GetAllPages(ctx context.Context) ([]*Page, error) {
	pages := make([]*Page, 0)
	query := `SELECT id, title, page_url, published FROM pages ORDER BY title`
	if err := r.db.SelectContext(ctx, &pages, query); err != nil {
		return nil, fmt.Errorf("failed to get all pages: %w", err)
	}
	return pages, nil
}

// UpdatePage updates an existing page. It reports whether a row matched.
func (r *SQLPageRepository) UpdatePage(ctx context.Context, page *Page) (bool, error) {
	query := `UPDATE pages SET title = :title, page_url = :page_url, published = :published WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, page); err != nil {
		return false, fmt.Errorf("failed to update page: %w", err)
	}
	// MySQL counts only changed rows, so existence is checked separately.
	existing, err := r.GetPageByID(ctx, page.ID)
	if err != nil {
		return false, err
	}
	return existing != nil, nil
}

// DeletePage removes a page and, through the foreign key, its comments.
// It reports whether a row was removed.
func (r *SQLPageRepository) DeletePage(ctx context.Context, id uuid.UUID) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM pages WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete page: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}
