package service

import (
	"context"
	"fmt"
	"go-comments-app/internal/data"
	"go-comments-app/internal/logger"
	"go-comments-app/internal/notify"
	"math"
	"net/netip"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultPerPage is used when the client does not ask for a page size.
	DefaultPerPage = 10
	// MaxPerPage is the largest page size a client may request.
	MaxPerPage = 256

	// noDeleteKey is stored when the author did not supply a delete key.
	noDeleteKey = "-"
)

// CommentRepository defines the database operations the comment service needs.
type CommentRepository interface {
	ListPage(ctx context.Context, pageID uuid.UUID, offset, limit int) ([]*data.CommentWithReplies, error)
	ListReplies(ctx context.Context, pageID, parentID uuid.UUID, offset, limit int) ([]*data.CommentWithReplies, error)
	ListContext(ctx context.Context, pageID, targetID uuid.UUID, offset, limit int) ([]*data.CommentWithReplies, error)
	CountPage(ctx context.Context, pageID uuid.UUID) (int64, error)
	CountReplies(ctx context.Context, pageID, parentID uuid.UUID) (int64, error)
	CountContext(ctx context.Context, pageID, targetID uuid.UUID) (int64, error)
	GetWithReplies(ctx context.Context, pageID, id uuid.UUID) (*data.CommentWithReplies, error)
	FindByID(ctx context.Context, id uuid.UUID) ([]*data.Comment, error)
	PageIDOf(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	CreateComment(ctx context.Context, comment *data.Comment) error
	SetSpam(ctx context.Context, pageID, id uuid.UUID, spam bool) (bool, error)
}

// ReplyQueue accepts reply notifications without blocking.
type ReplyQueue interface {
	Enqueue(task notify.ReplyTask) bool
}

// CommentServicer defines the interface for interacting with comments.
type CommentServicer interface {
	ListComments(ctx context.Context, pageID uuid.UUID, params ListParams) ([]CommentView, error)
	CountComments(ctx context.Context, pageID uuid.UUID, replyTo, contextOf *uuid.UUID) (int64, error)
	GetComment(ctx context.Context, pageID, commentID uuid.UUID) (CommentView, error)
	CreateComment(ctx context.Context, pageID uuid.UUID, input NewComment, submitter netip.Addr) (CommentView, error)
	MarkSpam(ctx context.Context, pageID, commentID uuid.UUID, spam bool) error
}

// ListParams are the optional listing parameters sent by a client.
type ListParams struct {
	PerPage   *int
	PageIndex *int
	ReplyTo   *uuid.UUID
	ContextOf *uuid.UUID
}

// NewComment is a comment as submitted by a visitor.
type NewComment struct {
	ReplyTo     *uuid.UUID `json:"reply_to"`
	DisplayName string     `json:"display_name"`
	SiteURL     *string    `json:"site_url"`
	MailAddr    *string    `json:"mail_addr"`
	Content     string     `json:"content"`
	DeleteKey   *string    `json:"delete_key"`
}

// CommentService provides business logic for listing, counting and posting comments.
type CommentService struct {
	repo          CommentRepository
	queue         ReplyQueue
	log           logger.Logger
	deleteKeyCost int
	now           func() time.Time
}

// NewCommentService creates a new CommentService. queue may be nil, in which case
// replies are not announced to anyone.
func NewCommentService(repo CommentRepository, queue ReplyQueue, log logger.Logger, deleteKeyCost int) *CommentService {
	if deleteKeyCost < bcrypt.MinCost || deleteKeyCost > bcrypt.MaxCost {
		deleteKeyCost = bcrypt.DefaultCost
	}
	return &CommentService{
		repo:          repo,
		queue:         queue,
		log:           log,
		deleteKeyCost: deleteKeyCost,
		now:           time.Now,
	}
}

// ListComments returns one page of comments in the scope described by params,
// oldest first, each with its number of direct replies.
func (s *CommentService) ListComments(ctx context.Context, pageID uuid.UUID, params ListParams) ([]CommentView, error) {
	pageIndex := 1
	if params.PageIndex != nil {
		pageIndex = *params.PageIndex
	}
	if pageIndex < 1 {
		return nil, invalid("invalid page index")
	}
	perPage := DefaultPerPage
	if params.PerPage != nil {
		perPage = *params.PerPage
	}
	if perPage < 1 || perPage > MaxPerPage {
		return nil, invalid("Comments per page is limited up to 256.")
	}
	scope, err := NewScope(params.ReplyTo, params.ContextOf)
	if err != nil {
		return nil, err
	}

	// No scope holds more than MaxInt rows, so a page past that is empty.
	if pageIndex-1 > (math.MaxInt-perPage)/perPage {
		return []CommentView{}, nil
	}
	offset := (pageIndex - 1) * perPage
	var rows []*data.CommentWithReplies
	switch scope.Kind {
	case ScopeReply:
		rows, err = s.repo.ListReplies(ctx, pageID, scope.CommentID, offset, perPage)
	case ScopeContext:
		rows, err = s.repo.ListContext(ctx, pageID, scope.CommentID, offset, perPage)
	default:
		rows, err = s.repo.ListPage(ctx, pageID, offset, perPage)
	}
	if err != nil {
		return nil, err
	}

	views := make([]CommentView, 0, len(rows))
	for _, row := range rows {
		views = append(views, projectWithReplies(row))
	}
	return views, nil
}

// CountComments returns the size of the scope a listing with the same filters would page through.
func (s *CommentService) CountComments(ctx context.Context, pageID uuid.UUID, replyTo, contextOf *uuid.UUID) (int64, error) {
	scope, err := NewScope(replyTo, contextOf)
	if err != nil {
		return 0, err
	}
	switch scope.Kind {
	case ScopeReply:
		return s.repo.CountReplies(ctx, pageID, scope.CommentID)
	case ScopeContext:
		return s.repo.CountContext(ctx, pageID, scope.CommentID)
	default:
		return s.repo.CountPage(ctx, pageID)
	}
}

// GetComment returns a single comment of a page. It returns ErrNotFound when
// the comment does not exist or belongs to another page.
func (s *CommentService) GetComment(ctx context.Context, pageID, commentID uuid.UUID) (CommentView, error) {
	row, err := s.repo.GetWithReplies(ctx, pageID, commentID)
	if err != nil {
		return CommentView{}, err
	}
	if row == nil {
		return CommentView{}, ErrNotFound
	}
	return projectWithReplies(row), nil
}

// CreateComment validates and stores a visitor's comment, then queues a reply
// notification when it answers another comment.
func (s *CommentService) CreateComment(ctx context.Context, pageID uuid.UUID, input NewComment, submitter netip.Addr) (CommentView, error) {
	if input.ReplyTo != nil {
		targetPage, err := s.repo.PageIDOf(ctx, *input.ReplyTo)
		if err != nil {
			return CommentView{}, err
		}
		if targetPage != pageID {
			return CommentView{}, invalid("You replied to an invalid comment.")
		}
	}

	displayName := strings.TrimSpace(input.DisplayName)
	if displayName == "" {
		return CommentView{}, invalid("Display name is required.")
	}
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return CommentView{}, invalid("Comment text is required.")
	}

	deleteKey := noDeleteKey
	if input.DeleteKey != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*input.DeleteKey), s.deleteKeyCost)
		if err != nil {
			return CommentView{}, fmt.Errorf("failed to hash delete key: %w", err)
		}
		deleteKey = string(hash)
	}

	comment := &data.Comment{
		ID:          uuid.New(),
		PageID:      pageID,
		IPAddr:      hostPrefix(submitter),
		DisplayName: displayName,
		SiteURL:     nonEmpty(input.SiteURL),
		MailAddr:    nonEmpty(input.MailAddr),
		Content:     content,
		DeleteKey:   deleteKey,
		Flags:       0,
		CreatedTime: s.now().UTC(),
	}
	if input.ReplyTo != nil {
		comment.ReplyTo = uuid.NullUUID{UUID: *input.ReplyTo, Valid: true}
	}

	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return CommentView{}, err
	}

	stored, err := s.repo.FindByID(ctx, comment.ID)
	if err != nil {
		return CommentView{}, err
	}
	if len(stored) != 1 {
		return CommentView{}, fmt.Errorf("expected 1 comment with id %s after insert, found %d", comment.ID, len(stored))
	}

	if comment.ReplyTo.Valid && s.queue != nil {
		task := notify.ReplyTask{ReplyToID: comment.ReplyTo.UUID, Comment: *stored[0]}
		if !s.queue.Enqueue(task) {
			s.log.With(map[string]interface{}{"comment_id": comment.ID.String()}).
				Warn("Reply notification queue is full, dropping notification")
		}
	}

	return Project(stored[0], nil), nil
}

// MarkSpam sets or clears the spam flag of a comment on a page.
func (s *CommentService) MarkSpam(ctx context.Context, pageID, commentID uuid.UUID, spam bool) error {
	found, err := s.repo.SetSpam(ctx, pageID, commentID, spam)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

// hostPrefix renders addr as a single-host network, e.g. 192.0.2.1/32.
func hostPrefix(addr netip.Addr) string {
	addr = addr.Unmap()
	if !addr.IsValid() {
		return ""
	}
	return netip.PrefixFrom(addr, addr.BitLen()).String()
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
