package store

import "time"

// User is a chat user known to the bot
type User struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// Name returns the display name, or the username when there is none
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

// Group is a named set of users sharing permission grants
type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Ban keeps a user from running commands until it ends
type Ban struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	BannedBy  string     `json:"banned_by,omitempty"`
	Reason    string     `json:"reason"`
	CreatedAt time.Time  `json:"created_at"`
	EndsAt    *time.Time `json:"ends_at,omitempty"`
}

// Active reports whether the ban is in force at t
func (b *Ban) Active(t time.Time) bool {
	return b.EndsAt == nil || b.EndsAt.After(t)
}

// SubjectKind names what a grant is attached to
type SubjectKind string

const (
	SubjectUser  SubjectKind = "user"
	SubjectGroup SubjectKind = "group"
)

// Page is one page of a search result
type Page struct {
	Number int     `json:"number"`
	Size   int     `json:"size"`
	Total  int     `json:"total"`
	Users  []*User `json:"users"`
}

// Pages returns the number of pages needed for Total results
func (p *Page) Pages() int {
	if p.Size <= 0 || p.Total == 0 {
		return 1
	}
	return (p.Total + p.Size - 1) / p.Size
}
