//go:build unit

package service

import (
	"context"
	"errors"
	"go-comments-app/internal/data"
	"testing"

	"github.com/google/uuid"
)

// mockPageRepository is a mock implementation of the PageRepository interface.
type mockPageRepository struct {
	errToReturn      error
	pages            map[uuid.UUID]*data.Page
	createPageCalled bool
	updateFound      bool
	deleteFound      bool
	lastPagePassed   *data.Page
}

var _ PageRepository = (*mockPageRepository)(nil)

func (m *mockPageRepository) CreatePage(ctx context.Context, page *data.Page) error {
	m.createPageCalled = true
	m.lastPagePassed = page
	if m.errToReturn != nil {
		return m.errToReturn
	}
	if m.pages == nil {
		m.pages = map[uuid.UUID]*data.Page{}
	}
	stored := *page
	m.pages[page.ID] = &stored
	return nil
}

func (m *mockPageRepository) GetPageByID(ctx context.Context, id uuid.UUID) (*data.Page, error) {
	if m.errToReturn != nil {
		return nil, m.errToReturn
	}
	return m.pages[id], nil
}

func (m *mockPageRepository) FindPagesByID(ctx context.Context, id uuid.UUID) ([]*data.Page, error) {
	if m.errToReturn != nil {
		return nil, m.errToReturn
	}
	if p, ok := m.pages[id]; ok {
		return []*data.Page{p}, nil
	}
	return []*data.Page{}, nil
}

func (m *mockPageRepository) GetAllPages(ctx context.Context) ([]*data.Page, error) {
	if m.errToReturn != nil {
		return nil, m.errToReturn
	}
	pages := make([]*data.Page, 0, len(m.pages))
	for _, p := range m.pages {
		pages = append(pages, p)
	}
	return pages, nil
}

func (m *mockPageRepository) UpdatePage(ctx context.Context, page *data.Page) (bool, error) {
	m.lastPagePassed = page
	return m.updateFound, m.errToReturn
}

func (m *mockPageRepository) DeletePage(ctx context.Context, id uuid.UUID) (bool, error) {
	return m.deleteFound, m.errToReturn
}

func TestPageService_CreatePage(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		repo := &mockPageRepository{}
		pageService := NewPageService(repo)

		page, err := pageService.CreatePage(context.Background(), PageInput{
			Title:     "  Hello <b>World</b> ",
			PageURL:   "https://blog.example.com/hello",
			Published: true,
		})
		if err != nil {
			t.Fatalf("CreatePage failed: %v", err)
		}
		if !repo.createPageCalled {
			t.Error("expected CreatePage to be called on repository")
		}
		if page.ID == uuid.Nil {
			t.Error("expected the page to get an id")
		}
		if page.Title != "Hello World" {
			t.Errorf("expected sanitized title 'Hello World', got '%s'", page.Title)
		}
		if !page.Published {
			t.Error("expected page to be published")
		}
	})

	t.Run("validation", func(t *testing.T) {
		cases := []struct {
			name  string
			input PageInput
		}{
			{"missing title", PageInput{PageURL: "https://example.com"}},
			{"markup-only title", PageInput{Title: "<br>", PageURL: "https://example.com"}},
			{"missing url", PageInput{Title: "t"}},
			{"relative url", PageInput{Title: "t", PageURL: "/posts/1"}},
			{"javascript url", PageInput{Title: "t", PageURL: "javascript:alert(1)"}},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				repo := &mockPageRepository{}
				_, err := NewPageService(repo).CreatePage(context.Background(), tc.input)
				if _, ok := IsValidation(err); !ok {
					t.Errorf("expected a validation error, got %v", err)
				}
				if repo.createPageCalled {
					t.Error("repository should not be called for invalid input")
				}
			})
		}
	})

	t.Run("repository error", func(t *testing.T) {
		repo := &mockPageRepository{errToReturn: errors.New("db error")}
		_, err := NewPageService(repo).CreatePage(context.Background(), PageInput{Title: "t", PageURL: "https://example.com"})
		if err == nil {
			t.Fatal("expected an error, got nil")
		}
		if _, ok := IsValidation(err); ok {
			t.Error("repository errors must not be client-visible")
		}
	})
}

func TestPageService_UpdateAndDelete(t *testing.T) {
	id := uuid.New()

	t.Run("update existing", func(t *testing.T) {
		repo := &mockPageRepository{updateFound: true}
		err := NewPageService(repo).UpdatePage(context.Background(), id, PageInput{Title: "New", PageURL: "http://example.com/new"})
		if err != nil {
			t.Fatalf("UpdatePage failed: %v", err)
		}
		if repo.lastPagePassed.ID != id || repo.lastPagePassed.Title != "New" {
			t.Errorf("unexpected page passed to repository: %+v", repo.lastPagePassed)
		}
	})

	t.Run("update missing", func(t *testing.T) {
		repo := &mockPageRepository{}
		err := NewPageService(repo).UpdatePage(context.Background(), id, PageInput{Title: "New", PageURL: "http://example.com/new"})
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := NewPageService(&mockPageRepository{deleteFound: true}).DeletePage(context.Background(), id); err != nil {
			t.Errorf("DeletePage failed: %v", err)
		}
		if err := NewPageService(&mockPageRepository{}).DeletePage(context.Background(), id); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}
