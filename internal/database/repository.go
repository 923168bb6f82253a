package database

// maxVersionHistory bounds the number of retained content versions
// per project. Older versions are pruned on update.
const maxVersionHistory = 10

type CollabRepository interface {
	Ping() error
	CreateAccount(params CreateAccountParams) (User, error)
	UpdateAccount(params UpdateAccountParams) (User, error)
	GetAccountById(accountId int) (User, error)
	GetAccountByEmail(email string) (User, error)
	CreateProject(params CreateProjectParams) (Project, error)
	GetProjectByExternalId(externalId string) (Project, error)
	GetProjectWithCollaborators(projectId int) (*Project, error)
	ListProjectsForAccount(accountId int) ([]Project, error)
	UpdateProject(params UpdateProjectParams) (Project, error)
	UpdateProjectContent(params UpdateContentParams) (Project, error)
	DeleteProject(id int) error
	AddCollaborator(projectId, accountId int, role string) (Collaborator, error)
	RemoveCollaborator(projectId, accountId int) error
	CollaboratorExists(projectId, accountId int) bool
	GetCollaborators(projectId int) ([]Collaborator, error)
	GetProjectVersions(projectId int) ([]ProjectVersion, error)
}
