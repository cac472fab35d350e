package service

import "github.com/google/uuid"

// ScopeKind selects which comments of a page a listing or count covers.
type ScopeKind int

const (
	// ScopeFullPage covers every comment of the page.
	ScopeFullPage ScopeKind = iota
	// ScopeReply covers the direct replies of one comment.
	ScopeReply
	// ScopeContext covers one comment and all of its ancestors.
	ScopeContext
)

// Scope is a validated listing scope.
type Scope struct {
	Kind      ScopeKind
	CommentID uuid.UUID
}

// NewScope builds the scope for the optional replyto and contextof filters.
// Supplying both is a client error.
func NewScope(replyTo, contextOf *uuid.UUID) (Scope, error) {
	switch {
	case replyTo != nil && contextOf != nil:
		return Scope{}, invalid("'replyto' and 'contextof' are not allowed to use simultaneously.")
	case replyTo != nil:
		return Scope{Kind: ScopeReply, CommentID: *replyTo}, nil
	case contextOf != nil:
		return Scope{Kind: ScopeContext, CommentID: *contextOf}, nil
	default:
		return Scope{Kind: ScopeFullPage}, nil
	}
}
