package database

import "time"

type User struct {
	Id           int
	Username     string
	EmailAddress string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Project struct {
	Id            int
	ExternalId    string
	Name          string
	Description   string
	Language      string
	Content       string
	Public        bool
	Version       int
	OwnerId       int
	Collaborators []Collaborator
	CreatedAt     time.Time
	LastModified  time.Time
}

type Collaborator struct {
	ProjectId int
	AccountId int
	Username  string
	Email     string
	Role      string
	CreatedAt time.Time
}

type ProjectVersion struct {
	Id         int
	ProjectId  int
	Version    int
	Content    string
	ModifiedBy int
	CreatedAt  time.Time
}

type CreateAccountParams struct {
	Username     string
	EmailAddress string
	PasswordHash string
}

type UpdateAccountParams struct {
	UserId       int
	Username     string
	PasswordHash string
}

type CreateProjectParams struct {
	Name        string
	Description string
	Language    string
	OwnerId     int
	ExternalId  string
}

type UpdateProjectParams struct {
	ProjectId   int
	Name        string
	Description string
	Language    string
	Public      bool
}

type UpdateContentParams struct {
	ProjectId  int
	Content    string
	ModifiedBy int
}
