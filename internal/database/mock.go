package database

import (
	"github.com/stretchr/testify/mock"
)

type MockCollabRepository struct {
	mock.Mock
}

func (m *MockCollabRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockCollabRepository) CreateAccount(params CreateAccountParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockCollabRepository) UpdateAccount(params UpdateAccountParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockCollabRepository) GetAccountById(accountId int) (User, error) {
	args := m.Called(accountId)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockCollabRepository) GetAccountByEmail(email string) (User, error) {
	args := m.Called(email)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockCollabRepository) CreateProject(params CreateProjectParams) (Project, error) {
	args := m.Called(params)
	return args.Get(0).(Project), args.Error(1)
}
func (m *MockCollabRepository) GetProjectByExternalId(externalId string) (Project, error) {
	args := m.Called(externalId)
	return args.Get(0).(Project), args.Error(1)
}
func (m *MockCollabRepository) GetProjectWithCollaborators(projectId int) (*Project, error) {
	args := m.Called(projectId)
	if project, ok := args.Get(0).(*Project); ok {
		return project, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockCollabRepository) ListProjectsForAccount(accountId int) ([]Project, error) {
	args := m.Called(accountId)
	return args.Get(0).([]Project), args.Error(1)
}
func (m *MockCollabRepository) UpdateProject(params UpdateProjectParams) (Project, error) {
	args := m.Called(params)
	return args.Get(0).(Project), args.Error(1)
}
func (m *MockCollabRepository) UpdateProjectContent(params UpdateContentParams) (Project, error) {
	args := m.Called(params)
	return args.Get(0).(Project), args.Error(1)
}
func (m *MockCollabRepository) DeleteProject(id int) error {
	args := m.Called(id)
	return args.Error(0)
}
func (m *MockCollabRepository) AddCollaborator(projectId, accountId int, role string) (Collaborator, error) {
	args := m.Called(projectId, accountId, role)
	return args.Get(0).(Collaborator), args.Error(1)
}
func (m *MockCollabRepository) RemoveCollaborator(projectId, accountId int) error {
	args := m.Called(projectId, accountId)
	return args.Error(0)
}
func (m *MockCollabRepository) CollaboratorExists(projectId, accountId int) bool {
	args := m.Called(projectId, accountId)
	return args.Bool(0)
}
func (m *MockCollabRepository) GetCollaborators(projectId int) ([]Collaborator, error) {
	args := m.Called(projectId)
	return args.Get(0).([]Collaborator), args.Error(1)
}
func (m *MockCollabRepository) GetProjectVersions(projectId int) ([]ProjectVersion, error) {
	args := m.Called(projectId)
	return args.Get(0).([]ProjectVersion), args.Error(1)
}
