package pagecontent

import (
	"github.com/dalemusser/stratacontent/internal/app/system/normalize"
)

// Principal is the caller resolved by the identity collaborator.
type Principal struct {
	ID    string
	Email string
	Name  string
}

// EditorPolicy decides whether a principal may write page content.
type EditorPolicy interface {
	IsAuthorizedEditor(p Principal) bool
}

// PolicyFunc adapts an ordinary function to EditorPolicy.
type PolicyFunc func(p Principal) bool

// IsAuthorizedEditor calls f(p).
func (f PolicyFunc) IsAuthorizedEditor(p Principal) bool {
	return f(p)
}

// AllowList authorizes principals whose email is on a fixed list.
// Comparison is case-insensitive and ignores surrounding whitespace.
type AllowList struct {
	emails map[string]struct{}
}

// NewAllowList builds an AllowList from editor emails. Blank entries are ignored.
func NewAllowList(emails ...string) *AllowList {
	set := make(map[string]struct{}, len(emails))
	for _, e := range emails {
		e = normalize.Email(e)
		if e == "" {
			continue
		}
		set[e] = struct{}{}
	}
	return &AllowList{emails: set}
}

// IsAuthorizedEditor reports whether p's email is on the list.
func (a *AllowList) IsAuthorizedEditor(p Principal) bool {
	if a == nil {
		return false
	}
	email := normalize.Email(p.Email)
	if email == "" {
		return false
	}
	_, ok := a.emails[email]
	return ok
}

// Len returns the number of editors on the list.
func (a *AllowList) Len() int {
	if a == nil {
		return 0
	}
	return len(a.emails)
}
