package types

import (
	"time"
)

type User struct {
	Id           int       `json:"id"`
	Username     string    `json:"username"`
	EmailAddress string    `json:"email_address,omitempty"`
	Password     string    `json:"-"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}

type CollaboratorRole string

const (
	RoleEditor CollaboratorRole = "editor"
	RoleViewer CollaboratorRole = "viewer"
)

type Project struct {
	Id            int            `json:"id"`
	ExternalId    string         `json:"external_id"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Language      string         `json:"language"`
	Content       string         `json:"content"`
	Public        bool           `json:"public"`
	Version       int            `json:"version"`
	OwnerId       int            `json:"owner_id"`
	Collaborators []Collaborator `json:"collaborators,omitempty"`
	CreatedAt     time.Time      `json:"created_at,omitempty"`
	LastModified  time.Time      `json:"last_modified,omitempty"`
}

type Collaborator struct {
	User User             `json:"user"`
	Role CollaboratorRole `json:"role"`
}

type ProjectVersion struct {
	Version    int       `json:"version"`
	Content    string    `json:"content"`
	ModifiedBy int       `json:"modified_by"`
	Timestamp  time.Time `json:"timestamp"`
}

// PresenceEntry identifies a user currently connected to a project
// room. It is derived from live room membership and never persisted.
type PresenceEntry struct {
	UserId   int    `json:"user_id"`
	Username string `json:"username"`
}
