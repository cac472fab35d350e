package notify

import (
	"bytes"
	"context"
	"fmt"
	"go-comments-app/internal/data"
	"html/template"
	"strings"

	"github.com/google/uuid"
)

// CommentFinder loads comments by id.
type CommentFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) ([]*data.Comment, error)
}

// PageFinder loads pages by id.
type PageFinder interface {
	GetPageByID(ctx context.Context, id uuid.UUID) (*data.Page, error)
}

var replyMailTemplate = template.Must(template.New("reply").Parse(`<p>{{.Author}} replied to your comment on <a href="{{.PageURL}}">{{.PageTitle}}</a>:</p>
<blockquote>{{.Reply}}</blockquote>
<p><a href="{{.PageURL}}">Check reply to your comment</a></p>
`))

// ReplyNotifier mails the author of a comment when someone replies to it.
type ReplyNotifier struct {
	comments CommentFinder
	pages    PageFinder
	sender   Sender
	renderer *Renderer
	siteName string
}

// NewReplyNotifier creates a ReplyNotifier.
func NewReplyNotifier(comments CommentFinder, pages PageFinder, sender Sender, renderer *Renderer, siteName string) *ReplyNotifier {
	return &ReplyNotifier{
		comments: comments,
		pages:    pages,
		sender:   sender,
		renderer: renderer,
		siteName: siteName,
	}
}

// Handle implements Handler. Tasks whose target comment, page or mail address
// is gone complete without sending anything.
func (n *ReplyNotifier) Handle(ctx context.Context, task ReplyTask) error {
	targets, err := n.comments.FindByID(ctx, task.ReplyToID)
	if err != nil {
		return err
	}
	if len(targets) != 1 {
		return nil
	}
	target := targets[0]
	if target.MailAddr == nil || *target.MailAddr == "" {
		return nil
	}
	if task.Comment.MailAddr != nil && strings.EqualFold(*task.Comment.MailAddr, *target.MailAddr) {
		return nil
	}

	page, err := n.pages.GetPageByID(ctx, task.Comment.PageID)
	if err != nil {
		return err
	}
	if page == nil {
		return nil
	}

	msg, err := n.compose(page, target, &task.Comment)
	if err != nil {
		return err
	}
	return n.sender.Send(ctx, msg)
}

func (n *ReplyNotifier) compose(page *data.Page, target, reply *data.Comment) (Message, error) {
	var html bytes.Buffer
	err := replyMailTemplate.Execute(&html, map[string]interface{}{
		"Author":    reply.DisplayName,
		"PageURL":   page.PageURL,
		"PageTitle": page.Title,
		"Reply":     n.renderer.Render(reply.Content),
	})
	if err != nil {
		return Message{}, fmt.Errorf("render reply mail: %w", err)
	}

	return Message{
		To:      *target.MailAddr,
		Subject: fmt.Sprintf("%s: Your comment got a reply", n.siteName),
		Text:    fmt.Sprintf("Check reply to your comment: %s", page.PageURL),
		HTML:    html.String(),
	}, nil
}
