package service

import (
	"go-comments-app/internal/data"
	"time"

	"github.com/google/uuid"
)

// SpamPlaceholder replaces the content of comments flagged as spam.
const SpamPlaceholder = "(This comment is marked as spam.)"

// CommentView is the public representation of a comment.
type CommentView struct {
	ID           uuid.UUID  `json:"id"`
	PageID       uuid.UUID  `json:"page_id"`
	ReplyTo      *uuid.UUID `json:"reply_to"`
	DisplayName  string     `json:"display_name"`
	SiteURL      *string    `json:"site_url"`
	Content      string     `json:"content"`
	CountReplies *int64     `json:"count_replies"`
	CreatedTime  time.Time  `json:"created_time"`
}

// Project maps a stored comment to its public view. The ip address, mail address
// and delete key never leave this function. replies may be nil when no count is known.
func Project(c *data.Comment, replies *int64) CommentView {
	view := CommentView{
		ID:           c.ID,
		PageID:       c.PageID,
		DisplayName:  c.DisplayName,
		SiteURL:      c.SiteURL,
		Content:      c.Content,
		CountReplies: replies,
		CreatedTime:  c.CreatedTime,
	}
	if c.ReplyTo.Valid {
		parent := c.ReplyTo.UUID
		view.ReplyTo = &parent
	}
	if c.IsSpam() {
		view.Content = SpamPlaceholder
	}
	return view
}

func projectWithReplies(c *data.CommentWithReplies) CommentView {
	count := c.CountReplies
	return Project(&c.Comment, &count)
}
