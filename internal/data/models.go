package data

import (
	"time"

	"github.com/google/uuid"
)

// FlagSpam marks a comment as spam; its content is never shown.
const FlagSpam int32 = 1

// Comment is a stored comment row, including the private columns.
type Comment struct {
	ID          uuid.UUID     `db:"id"`
	PageID      uuid.UUID     `db:"page_id"`
	ReplyTo     uuid.NullUUID `db:"reply_to"`
	IPAddr      string        `db:"ip_addr"`
	DisplayName string        `db:"display_name"`
	SiteURL     *string       `db:"site_url"`
	MailAddr    *string       `db:"mail_addr"`
	Content     string        `db:"content"`
	DeleteKey   string        `db:"delete_key"`
	Flags       int32         `db:"flags"`
	CreatedTime time.Time     `db:"created_time"`
}

// IsSpam reports whether the spam bit is set.
func (c *Comment) IsSpam() bool {
	return c.Flags&FlagSpam != 0
}

// CommentWithReplies is a comment row annotated with its number of direct replies.
type CommentWithReplies struct {
	Comment
	CountReplies int64 `db:"count_replies"`
}

// Page is an article that comments are attached to.
type Page struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	PageURL   string    `db:"page_url" json:"page_url"`
	Published bool      `db:"published" json:"published"`
}

// User is an administrator account.
type User struct {
	ID           uuid.UUID `db:"id"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	Flags        int32     `db:"flags"`
}
