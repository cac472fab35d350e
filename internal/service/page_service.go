package service

import (
	"context"
	"fmt"
	"go-comments-app/internal/data"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

// PageRepository defines the interface for database operations on pages.
type PageRepository interface {
	CreatePage(ctx context.Context, page *data.Page) error
	GetPageByID(ctx context.Context, id uuid.UUID) (*data.Page, error)
	FindPagesByID(ctx context.Context, id uuid.UUID) ([]*data.Page, error)
	GetAllPages(ctx context.Context) ([]*data.Page, error)
	UpdatePage(ctx context.Context, page *data.Page) (bool, error)
	DeletePage(ctx context.Context, id uuid.UUID) (bool, error)
}

// PageServicer defines the interface for interacting with pages.
type PageServicer interface {
	ListPages(ctx context.Context) ([]*data.Page, error)
	CreatePage(ctx context.Context, input PageInput) (*data.Page, error)
	UpdatePage(ctx context.Context, id uuid.UUID, input PageInput) error
	DeletePage(ctx context.Context, id uuid.UUID) error
}

// PageInput carries the editable fields of a page.
type PageInput struct {
	Title     string `json:"title"`
	PageURL   string `json:"page_url"`
	Published bool   `json:"published"`
}

// PageService provides business logic for managing pages.
type PageService struct {
	repo      PageRepository
	sanitizer *bluemonday.Policy
}

// NewPageService creates a new PageService with the given repository.
func NewPageService(repo PageRepository) *PageService {
	// Titles end up in notification mails, so no markup at all.
	return &PageService{
		repo:      repo,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// ListPages returns every page ordered by title.
func (s *PageService) ListPages(ctx context.Context) ([]*data.Page, error) {
	return s.repo.GetAllPages(ctx)
}

// CreatePage validates and stores a new page, returning it as read back from the store.
func (s *PageService) CreatePage(ctx context.Context, input PageInput) (*data.Page, error) {
	page, err := s.normalize(input)
	if err != nil {
		return nil, err
	}
	page.ID = uuid.New()

	if err := s.repo.CreatePage(ctx, page); err != nil {
		return nil, err
	}

	stored, err := s.repo.FindPagesByID(ctx, page.ID)
	if err != nil {
		return nil, err
	}
	if len(stored) != 1 {
		return nil, fmt.Errorf("expected 1 page with id %s after insert, found %d", page.ID, len(stored))
	}
	return stored[0], nil
}

// UpdatePage replaces the editable fields of an existing page.
func (s *PageService) UpdatePage(ctx context.Context, id uuid.UUID, input PageInput) error {
	page, err := s.normalize(input)
	if err != nil {
		return err
	}
	page.ID = id

	found, err := s.repo.UpdatePage(ctx, page)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

// DeletePage removes a page together with its comments.
func (s *PageService) DeletePage(ctx context.Context, id uuid.UUID) error {
	found, err := s.repo.DeletePage(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

func (s *PageService) normalize(input PageInput) (*data.Page, error) {
	title := strings.TrimSpace(s.sanitizer.Sanitize(input.Title))
	if title == "" {
		return nil, invalid("Page title is required.")
	}
	pageURL := strings.TrimSpace(input.PageURL)
	if pageURL == "" {
		return nil, invalid("Page URL is required.")
	}
	u, err := url.Parse(pageURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, invalid("Page URL must be an absolute http(s) URL.")
	}
	return &data.Page{
		Title:     title,
		PageURL:   pageURL,
		Published: input.Published,
	}, nil
}
