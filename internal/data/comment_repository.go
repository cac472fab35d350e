package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const commentColumns = `c.id, c.page_id, c.reply_to, c.ip_addr, c.display_name, c.site_url, c.mail_addr,
	c.content, c.delete_key, c.flags, c.created_time`

// countRepliesColumn counts direct children over the whole table, not just the selected rows.
const countRepliesColumn = `(SELECT COUNT(*) FROM comments r WHERE r.reply_to = c.id) AS count_replies`

// threadCTE walks reply_to upward from one comment of a page to the root of its thread.
const threadCTE = `
	WITH RECURSIVE thread (id, reply_to) AS (
		SELECT id, reply_to FROM comments WHERE id = ? AND page_id = ?
		UNION ALL
		SELECT p.id, p.reply_to FROM comments p JOIN thread t ON p.id = t.reply_to
	)`

// SQLCommentRepository reads and writes the comments table using sqlx.
type SQLCommentRepository struct {
	db *sqlx.DB
}

// NewSQLCommentRepository creates a new SQLCommentRepository.
func NewSQLCommentRepository(db *sqlx.DB) *SQLCommentRepository {
	return &SQLCommentRepository{db: db}
}

// ListPage returns comments of a page ordered by creation time.
func (r *SQLCommentRepository) ListPage(ctx context.Context, pageID uuid.UUID, offset, limit int) ([]*CommentWithReplies, error) {
	query := `SELECT ` + commentColumns + `, ` + countRepliesColumn + `
		FROM comments c
		WHERE c.page_id = ?
		ORDER BY c.created_time, c.seq
		LIMIT ? OFFSET ?`
	return r.list(ctx, "page", query, pageID, limit, offset)
}

// ListReplies returns the direct replies to parentID within a page.
func (r *SQLCommentRepository) ListReplies(ctx context.Context, pageID, parentID uuid.UUID, offset, limit int) ([]*CommentWithReplies, error) {
	query := `SELECT ` + commentColumns + `, ` + countRepliesColumn + `
		FROM comments c
		WHERE c.reply_to = ? AND c.page_id = ?
		ORDER BY c.created_time, c.seq
		LIMIT ? OFFSET ?`
	return r.list(ctx, "replies", query, parentID, pageID, limit, offset)
}

// ListContext returns targetID and all of its ancestors.
func (r *SQLCommentRepository) ListContext(ctx context.Context, pageID, targetID uuid.UUID, offset, limit int) ([]*CommentWithReplies, error) {
	query := threadCTE + `
		SELECT ` + commentColumns + `, ` + countRepliesColumn + `
		FROM comments c
		JOIN thread t ON c.id = t.id
		ORDER BY c.created_time, c.seq
		LIMIT ? OFFSET ?`
	return r.list(ctx, "context", query, targetID, pageID, limit, offset)
}

func (r *SQLCommentRepository) list(ctx context.Context, kind, query string, args ...interface{}) ([]*CommentWithReplies, error) {
	comments := make([]*CommentWithReplies, 0)
	if err := r.db.SelectContext(ctx, &comments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list %s comments: %w", kind, err)
	}
	return comments, nil
}

// CountPage returns the number of comments on a page.
func (r *SQLCommentRepository) CountPage(ctx context.Context, pageID uuid.UUID) (int64, error) {
	return r.count(ctx, "page", `SELECT COUNT(*) FROM comments WHERE page_id = ?`, pageID)
}

// CountReplies returns the number of direct replies to parentID within a page.
func (r *SQLCommentRepository) CountReplies(ctx context.Context, pageID, parentID uuid.UUID) (int64, error) {
	return r.count(ctx, "replies", `SELECT COUNT(*) FROM comments WHERE reply_to = ? AND page_id = ?`, parentID, pageID)
}

// CountContext returns the size of the ancestor closure of targetID, the target included.
func (r *SQLCommentRepository) CountContext(ctx context.Context, pageID, targetID uuid.UUID) (int64, error) {
	return r.count(ctx, "context", threadCTE+` SELECT COUNT(*) FROM thread`, targetID, pageID)
}

func (r *SQLCommentRepository) count(ctx context.Context, kind, query string, args ...interface{}) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count %s comments: %w", kind, err)
	}
	return n, nil
}

// GetWithReplies fetches one comment of a page with its reply count.
// It returns nil, nil when nothing matches.
func (r *SQLCommentRepository) GetWithReplies(ctx context.Context, pageID, id uuid.UUID) (*CommentWithReplies, error) {
	var comment CommentWithReplies
	query := `SELECT ` + commentColumns + `, ` + countRepliesColumn + `
		FROM comments c
		WHERE c.id = ? AND c.page_id = ?`
	if err := r.db.GetContext(ctx, &comment, query, id, pageID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found is not an error
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return &comment, nil
}

// FindByID returns every row with the given id. Callers decide how many they expect.
func (r *SQLCommentRepository) FindByID(ctx context.Context, id uuid.UUID) ([]*Comment, error) {
	comments := make([]*Comment, 0, 1)
	query := `SELECT ` + commentColumns + ` FROM comments c WHERE c.id = ?`
	if err := r.db.SelectContext(ctx, &comments, query, id); err != nil {
		return nil, fmt.Errorf("failed to find comment %s: %w", id, err)
	}
	return comments, nil
}

// PageIDOf returns the page a comment belongs to. A missing comment yields sql.ErrNoRows.
func (r *SQLCommentRepository) PageIDOf(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var pageID uuid.UUID
	if err := r.db.GetContext(ctx, &pageID, `SELECT page_id FROM comments WHERE id = ?`, id); err != nil {
		return uuid.Nil, fmt.Errorf("failed to look up page of comment %s: %w", id, err)
	}
	return pageID, nil
}

// CreateComment inserts a new comment row.
func (r *SQLCommentRepository) CreateComment(ctx context.Context, comment *Comment) error {
	query := `INSERT INTO comments (id, page_id, reply_to, ip_addr, display_name, site_url, mail_addr, content, delete_key, flags, created_time)
		VALUES (:id, :page_id, :reply_to, :ip_addr, :display_name, :site_url, :mail_addr, :content, :delete_key, :flags, :created_time)`
	if _, err := r.db.NamedExecContext(ctx, query, comment); err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	return nil
}

// SetSpam sets or clears the spam bit of a comment on a page.
// It reports whether a row matched.
func (r *SQLCommentRepository) SetSpam(ctx context.Context, pageID, id uuid.UUID, spam bool) (bool, error) {
	query := `UPDATE comments SET flags = (flags | ?) WHERE id = ? AND page_id = ?`
	if !spam {
		query = `UPDATE comments SET flags = (flags & ~?) WHERE id = ? AND page_id = ?`
	}
	result, err := r.db.ExecContext(ctx, query, FlagSpam, id, pageID)
	if err != nil {
		return false, fmt.Errorf("failed to update comment flags: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	// MySQL reports zero affected rows when the flag already had the requested value.
	if rowsAffected == 0 {
		var exists bool
		if err := r.db.GetContext(ctx, &exists, `SELECT COUNT(*) > 0 FROM comments WHERE id = ? AND page_id = ?`, id, pageID); err != nil {
			return false, fmt.Errorf("failed to check comment: %w", err)
		}
		return exists, nil
	}
	return true, nil
}
