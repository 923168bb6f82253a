package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/cpayne/go-codecollab/internal/config"
	"github.com/cpayne/go-codecollab/internal/database"
	"github.com/cpayne/go-codecollab/internal/server"
	"github.com/cpayne/go-codecollab/internal/stats"
	"github.com/cpayne/go-codecollab/internal/testutil"
	"github.com/cpayne/go-codecollab/internal/types"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newTestApp(t *testing.T, db database.CollabRepository, cs *server.CollabServer) *CollabApp {
	t.Helper()

	return NewCollabApp(http.NewServeMux(), testutil.TestLogger(t), cs, db, &config.Config{
		ServerAddr:     "localhost:0",
		SigningKey:     []byte("test-signing-key"),
		AllowedOrigins: []string{"http://localhost:3000"},
	})
}

// findCookie is a helper function to find a cookie by name in the response recorder.
// It returns the cookie if found, or nil if not found.
func findCookie(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, cookie := range rr.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func TestCreateAccountHandler(t *testing.T) {
	expectedUser := database.User{
		Id:           1,
		Username:     "newuser",
		EmailAddress: "newuser@example.com",
		PasswordHash: "hashedpassword",
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	tcases := []struct {
		name        string
		body        any
		mockUser    database.User
		mockErr     error
		expectedErr *ApiError
	}{
		{
			name: "successfully creates a new account",
			body: RegisterRequest{
				Username: expectedUser.Username,
				Email:    expectedUser.EmailAddress,
				Password: "password",
			},
			mockUser: expectedUser,
		},
		{
			name:        "fails with invalid json body",
			body:        "invalid json",
			expectedErr: NewBadRequestError(),
		},
		{
			name: "fails with missing username",
			body: RegisterRequest{
				Email:    expectedUser.EmailAddress,
				Password: "password",
			},
			expectedErr: NewBadRequestError(),
		},
		{
			name: "fails with db error",
			body: RegisterRequest{
				Username: expectedUser.Username,
				Email:    expectedUser.EmailAddress,
				Password: "password",
			},
			mockErr:     errors.New("db error"),
			expectedErr: NewInternalServerError(nil),
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockCollabRepository{}
			defer mockRepo.AssertExpectations(t)

			if tc.mockUser != (database.User{}) || tc.mockErr != nil {
				regReq := tc.body.(RegisterRequest)
				mockRepo.On("CreateAccount", mock.MatchedBy(func(req database.CreateAccountParams) bool {
					return req.Username == regReq.Username &&
						req.EmailAddress == regReq.Email &&
						verifyPassword(req.PasswordHash, regReq.Password)
				})).Return(tc.mockUser, tc.mockErr).Once()
			}

			app := newTestApp(t, mockRepo, nil)

			body, err := json.Marshal(tc.body)
			assert.NoError(t, err)

			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body))
			app.createAccount(rr, req)

			if tc.expectedErr != nil {
				assert.Equal(t, tc.expectedErr.StatusCode, rr.Code)
				return
			}

			assert.Equal(t, http.StatusCreated, rr.Code)

			var u types.User
			assert.NoError(t, json.NewDecoder(rr.Body).Decode(&u))
			assert.Equal(t, expectedUser.Id, u.Id)
			assert.Equal(t, expectedUser.Username, u.Username)
			assert.Empty(t, u.Password, "expected password to never be serialized")
		})
	}
}

func TestLoginHandler(t *testing.T) {
	pwdHash, err := hashPassword("password")
	assert.NoError(t, err)

	dbUser := database.User{
		Id:           1,
		Username:     "testuser",
		EmailAddress: "testuser@example.com",
		PasswordHash: pwdHash,
	}

	tcases := []struct {
		name        string
		body        any
		mockErr     error
		expectedErr *ApiError
	}{
		{
			name: "successful login sets a session cookie",
			body: LoginRequest{Email: dbUser.EmailAddress, Password: "password"},
		},
		{
			name:        "wrong password is unauthorized",
			body:        LoginRequest{Email: dbUser.EmailAddress, Password: "wrong"},
			expectedErr: NewUnauthorizedError(),
		},
		{
			name:        "unknown email is not found",
			body:        LoginRequest{Email: "nobody@example.com", Password: "password"},
			mockErr:     sql.ErrNoRows,
			expectedErr: NewNotFoundError(),
		},
		{
			name:        "missing fields are a bad request",
			body:        LoginRequest{},
			expectedErr: NewBadRequestError(),
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockCollabRepository{}
			defer mockRepo.AssertExpectations(t)

			if lr, ok := tc.body.(LoginRequest); ok && lr.Email != "" {
				if tc.mockErr != nil {
					mockRepo.On("GetAccountByEmail", lr.Email).Return(database.User{}, tc.mockErr).Once()
				} else {
					mockRepo.On("GetAccountByEmail", lr.Email).Return(dbUser, nil).Once()
				}
			}

			app := newTestApp(t, mockRepo, nil)

			body, err := json.Marshal(tc.body)
			assert.NoError(t, err)

			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
			app.login(rr, req)

			if tc.expectedErr != nil {
				assert.Equal(t, tc.expectedErr.StatusCode, rr.Code)
				assert.Nil(t, findCookie(rr, tokenCookieKey))
				return
			}

			assert.Equal(t, http.StatusOK, rr.Code)

			token := findCookie(rr, tokenCookieKey)
			if assert.NotNil(t, token, "expected a session cookie") {
				userId, err := app.extractUserIdFromToken(token.Value)
				assert.NoError(t, err)
				assert.Equal(t, dbUser.Id, userId)
				assert.WithinDuration(t, token.Expires, time.Now().Add(defaultJwtExpiration), time.Second)
			}
		})
	}
}

func TestCreateProjectHandler(t *testing.T) {
	expectedProject := database.Project{
		Id:         1,
		ExternalId: "abc123",
		Name:       "scratchpad",
		Language:   "go",
		OwnerId:    1,
	}

	tcases := []struct {
		name        string
		body        any
		shortIdErr  error
		mockErr     error
		expectedErr *ApiError
	}{
		{
			name: "successfully creates a project",
			body: CreateProjectRequest{Name: "scratchpad", Language: "go"},
		},
		{
			name:        "fails with missing name",
			body:        CreateProjectRequest{Language: "go"},
			expectedErr: NewBadRequestError(),
		},
		{
			name:        "fails when id generation fails",
			body:        CreateProjectRequest{Name: "scratchpad"},
			shortIdErr:  errors.New("shortid error"),
			expectedErr: NewInternalServerError(nil),
		},
		{
			name:        "fails with db error",
			body:        CreateProjectRequest{Name: "scratchpad"},
			mockErr:     errors.New("db error"),
			expectedErr: NewBadRequestError(),
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockCollabRepository{}
			defer mockRepo.AssertExpectations(t)

			if req, ok := tc.body.(CreateProjectRequest); ok && req.Name != "" && tc.shortIdErr == nil {
				mockRepo.On("CreateProject", mock.MatchedBy(func(p database.CreateProjectParams) bool {
					return p.Name == req.Name && p.OwnerId == 1 && p.ExternalId == "abc123"
				})).Return(expectedProject, tc.mockErr).Once()
			}

			app := newTestApp(t, mockRepo, nil)
			app.generateShortId = func() (string, error) {
				return "abc123", tc.shortIdErr
			}

			body, err := json.Marshal(tc.body)
			assert.NoError(t, err)

			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/projects", bytes.NewReader(body))
			req = req.WithContext(WithUserId(req.Context(), 1))
			app.createProject(rr, req)

			if tc.expectedErr != nil {
				assert.Equal(t, tc.expectedErr.StatusCode, rr.Code)
				return
			}

			assert.Equal(t, http.StatusCreated, rr.Code)

			var p types.Project
			assert.NoError(t, json.NewDecoder(rr.Body).Decode(&p))
			assert.Equal(t, expectedProject.ExternalId, p.ExternalId)
			assert.Equal(t, expectedProject.Name, p.Name)
		})
	}
}

func TestGetProjectHandler(t *testing.T) {
	project := database.Project{
		Id:         1,
		ExternalId: "abc123",
		Name:       "scratchpad",
		Content:    "package main",
		OwnerId:    1,
		Collaborators: []database.Collaborator{
			{ProjectId: 1, AccountId: 2, Username: "bob", Role: string(types.RoleViewer)},
		},
	}

	tcases := []struct {
		name        string
		userId      int
		public      bool
		dbErr       error
		expectedErr *ApiError
	}{
		{
			name:   "owner reads the project",
			userId: 1,
		},
		{
			name:   "collaborator reads the project",
			userId: 2,
		},
		{
			name:   "stranger reads a public project",
			userId: 9,
			public: true,
		},
		{
			name:        "stranger is forbidden from a private project",
			userId:      9,
			expectedErr: NewForbiddenError(),
		},
		{
			name:        "unknown project is not found",
			userId:      1,
			dbErr:       sql.ErrNoRows,
			expectedErr: NewNotFoundError(),
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockCollabRepository{}
			defer mockRepo.AssertExpectations(t)

			p := project
			p.Public = tc.public

			if tc.dbErr != nil {
				mockRepo.On("GetProjectByExternalId", p.ExternalId).Return(database.Project{}, tc.dbErr).Once()
			} else {
				mockRepo.On("GetProjectByExternalId", p.ExternalId).Return(p, nil).Once()
				mockRepo.On("GetProjectWithCollaborators", p.Id).Return(&p, nil).Once()
			}

			app := newTestApp(t, mockRepo, nil)

			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/projects?id="+p.ExternalId, nil)
			req = req.WithContext(WithUserId(req.Context(), tc.userId))
			app.getProject(rr, req)

			if tc.expectedErr != nil {
				assert.Equal(t, tc.expectedErr.StatusCode, rr.Code)
				return
			}

			assert.Equal(t, http.StatusOK, rr.Code)

			var got types.Project
			assert.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
			assert.Equal(t, p.Content, got.Content)
			assert.Len(t, got.Collaborators, 1)
		})
	}

	t.Run("no id lists the account's projects", func(t *testing.T) {
		mockRepo := &database.MockCollabRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("ListProjectsForAccount", 1).Return([]database.Project{project}, nil).Once()

		app := newTestApp(t, mockRepo, nil)

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
		req = req.WithContext(WithUserId(req.Context(), 1))
		app.getProject(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var got []types.Project
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
		assert.Len(t, got, 1)
	})
}

func TestUpdateProjectContentHandler(t *testing.T) {
	project := database.Project{
		Id:         1,
		ExternalId: "abc123",
		OwnerId:    1,
		Version:    3,
		Collaborators: []database.Collaborator{
			{ProjectId: 1, AccountId: 2, Username: "bob", Role: string(types.RoleEditor)},
			{ProjectId: 1, AccountId: 3, Username: "carol", Role: string(types.RoleViewer)},
		},
	}

	tcases := []struct {
		name        string
		userId      int
		expectedErr *ApiError
	}{
		{
			name:   "owner saves content",
			userId: 1,
		},
		{
			name:   "editor saves content",
			userId: 2,
		},
		{
			name:        "viewer is forbidden",
			userId:      3,
			expectedErr: NewForbiddenError(),
		},
		{
			name:        "stranger is forbidden",
			userId:      9,
			expectedErr: NewForbiddenError(),
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockCollabRepository{}
			defer mockRepo.AssertExpectations(t)

			mockRepo.On("GetProjectByExternalId", project.ExternalId).Return(project, nil).Once()
			mockRepo.On("GetProjectWithCollaborators", project.Id).Return(&project, nil).Once()

			if tc.expectedErr == nil {
				updated := project
				updated.Content = "saved content"
				updated.Version = project.Version + 1
				mockRepo.On("UpdateProjectContent", database.UpdateContentParams{
					ProjectId:  project.Id,
					Content:    "saved content",
					ModifiedBy: tc.userId,
				}).Return(updated, nil).Once()
			}

			app := newTestApp(t, mockRepo, nil)

			body, err := json.Marshal(UpdateContentRequest{Content: "saved content"})
			assert.NoError(t, err)

			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPut, "/api/projects/content?id="+project.ExternalId, bytes.NewReader(body))
			req = req.WithContext(WithUserId(req.Context(), tc.userId))
			app.updateProjectContent(rr, req)

			if tc.expectedErr != nil {
				assert.Equal(t, tc.expectedErr.StatusCode, rr.Code)
				return
			}

			assert.Equal(t, http.StatusOK, rr.Code)

			var got types.Project
			assert.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
			assert.Equal(t, "saved content", got.Content)
			assert.Equal(t, project.Version+1, got.Version)
		})
	}
}

func TestDeleteProjectHandler(t *testing.T) {
	project := database.Project{Id: 1, ExternalId: "abc123", OwnerId: 1}

	t.Run("owner deletes the project", func(t *testing.T) {
		mockRepo := &database.MockCollabRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("GetProjectByExternalId", project.ExternalId).Return(project, nil).Once()
		mockRepo.On("GetProjectWithCollaborators", project.Id).Return(&project, nil).Once()
		mockRepo.On("DeleteProject", project.Id).Return(nil).Once()

		app := newTestApp(t, mockRepo, nil)

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/api/projects?id="+project.ExternalId, nil)
		req = req.WithContext(WithUserId(req.Context(), 1))
		app.deleteProject(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("non-owner is forbidden", func(t *testing.T) {
		mockRepo := &database.MockCollabRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("GetProjectByExternalId", project.ExternalId).Return(project, nil).Once()
		mockRepo.On("GetProjectWithCollaborators", project.Id).Return(&project, nil).Once()

		app := newTestApp(t, mockRepo, nil)

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/api/projects?id="+project.ExternalId, nil)
		req = req.WithContext(WithUserId(req.Context(), 2))
		app.deleteProject(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestAddCollaboratorHandler(t *testing.T) {
	project := database.Project{Id: 1, ExternalId: "abc123", OwnerId: 1}
	account := database.User{Id: 2, Username: "bob", EmailAddress: "bob@example.com"}

	tcases := []struct {
		name        string
		userId      int
		body        AddCollaboratorRequest
		exists      bool
		expectedErr *ApiError
	}{
		{
			name:   "owner adds an editor",
			userId: 1,
			body:   AddCollaboratorRequest{Email: account.EmailAddress, Role: "editor"},
		},
		{
			name:   "missing role defaults to editor",
			userId: 1,
			body:   AddCollaboratorRequest{Email: account.EmailAddress},
		},
		{
			name:        "invalid role is a bad request",
			userId:      1,
			body:        AddCollaboratorRequest{Email: account.EmailAddress, Role: "admin"},
			expectedErr: NewBadRequestError(),
		},
		{
			name:        "non-owner is forbidden",
			userId:      2,
			body:        AddCollaboratorRequest{Email: account.EmailAddress, Role: "editor"},
			expectedErr: NewForbiddenError(),
		},
		{
			name:        "duplicate collaborator is a bad request",
			userId:      1,
			body:        AddCollaboratorRequest{Email: account.EmailAddress, Role: "editor"},
			exists:      true,
			expectedErr: NewBadRequestError(),
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockCollabRepository{}
			defer mockRepo.AssertExpectations(t)

			if tc.body.Role != "admin" {
				mockRepo.On("GetProjectByExternalId", project.ExternalId).Return(project, nil).Once()
				mockRepo.On("GetProjectWithCollaborators", project.Id).Return(&project, nil).Once()
			}

			if tc.userId == project.OwnerId && tc.body.Role != "admin" {
				mockRepo.On("GetAccountByEmail", account.EmailAddress).Return(account, nil).Once()
				mockRepo.On("CollaboratorExists", project.Id, account.Id).Return(tc.exists).Once()
			}

			if tc.expectedErr == nil {
				role := tc.body.Role
				if role == "" {
					role = string(types.RoleEditor)
				}
				mockRepo.On("AddCollaborator", project.Id, account.Id, role).Return(database.Collaborator{
					ProjectId: project.Id,
					AccountId: account.Id,
					Username:  account.Username,
					Email:     account.EmailAddress,
					Role:      role,
				}, nil).Once()
			}

			app := newTestApp(t, mockRepo, nil)

			body, err := json.Marshal(tc.body)
			assert.NoError(t, err)

			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/collaborators?id="+project.ExternalId, bytes.NewReader(body))
			req = req.WithContext(WithUserId(req.Context(), tc.userId))
			app.addCollaborator(rr, req)

			if tc.expectedErr != nil {
				assert.Equal(t, tc.expectedErr.StatusCode, rr.Code)
				return
			}

			assert.Equal(t, http.StatusCreated, rr.Code)

			var got types.Collaborator
			assert.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
			assert.Equal(t, account.Id, got.User.Id)
		})
	}
}

func TestRemoveCollaboratorHandler(t *testing.T) {
	project := database.Project{Id: 1, ExternalId: "abc123", OwnerId: 1}

	tcases := []struct {
		name        string
		userId      int
		accountId   string
		exists      bool
		expectedErr *ApiError
	}{
		{
			name:      "owner removes a collaborator",
			userId:    1,
			accountId: "2",
			exists:    true,
		},
		{
			name:      "collaborator removes themself",
			userId:    2,
			accountId: "2",
			exists:    true,
		},
		{
			name:        "other collaborator is forbidden",
			userId:      3,
			accountId:   "2",
			expectedErr: NewForbiddenError(),
		},
		{
			name:        "unknown collaborator is not found",
			userId:      1,
			accountId:   "5",
			expectedErr: NewNotFoundError(),
		},
		{
			name:        "invalid account id is a bad request",
			userId:      1,
			accountId:   "not-a-number",
			expectedErr: NewBadRequestError(),
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockCollabRepository{}
			defer mockRepo.AssertExpectations(t)

			accountId := 0
			if tc.expectedErr == nil || tc.expectedErr.StatusCode != http.StatusBadRequest {
				var err error
				accountId, err = strconv.Atoi(tc.accountId)
				assert.NoError(t, err)

				mockRepo.On("GetProjectByExternalId", project.ExternalId).Return(project, nil).Once()
				mockRepo.On("GetProjectWithCollaborators", project.Id).Return(&project, nil).Once()
			}

			if tc.expectedErr == nil || tc.expectedErr.StatusCode == http.StatusNotFound {
				mockRepo.On("CollaboratorExists", project.Id, accountId).Return(tc.exists).Once()
			}

			if tc.expectedErr == nil {
				mockRepo.On("RemoveCollaborator", project.Id, accountId).Return(nil).Once()
			}

			app := newTestApp(t, mockRepo, nil)

			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodDelete,
				"/api/collaborators?id="+project.ExternalId+"&account_id="+tc.accountId, nil)
			req = req.WithContext(WithUserId(req.Context(), tc.userId))
			app.removeCollaborator(rr, req)

			if tc.expectedErr != nil {
				assert.Equal(t, tc.expectedErr.StatusCode, rr.Code)
				return
			}

			assert.Equal(t, http.StatusNoContent, rr.Code)
		})
	}
}

func TestGetProjectVersionsHandler(t *testing.T) {
	project := database.Project{Id: 1, ExternalId: "abc123", OwnerId: 1}
	versions := []database.ProjectVersion{
		{Id: 2, ProjectId: 1, Version: 2, Content: "v2", ModifiedBy: 1, CreatedAt: time.Now().UTC()},
		{Id: 1, ProjectId: 1, Version: 1, Content: "v1", ModifiedBy: 1, CreatedAt: time.Now().UTC()},
	}

	mockRepo := &database.MockCollabRepository{}
	defer mockRepo.AssertExpectations(t)

	mockRepo.On("GetProjectByExternalId", project.ExternalId).Return(project, nil).Once()
	mockRepo.On("GetProjectWithCollaborators", project.Id).Return(&project, nil).Once()
	mockRepo.On("GetProjectVersions", project.Id).Return(versions, nil).Once()

	app := newTestApp(t, mockRepo, nil)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/projects/versions?id="+project.ExternalId, nil)
	req = req.WithContext(WithUserId(req.Context(), 1))
	app.getProjectVersions(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var got []types.ProjectVersion
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Len(t, got, 2)
	assert.Equal(t, 2, got[0].Version)
}

func TestServeWs(t *testing.T) {
	su := &stats.MockStatsUpdater{}
	su.On("RegisterMetric", mock.Anything).Return().Times(4)
	su.On("Incr", mock.Anything).Return().Maybe()
	su.On("Decr", mock.Anything).Return().Maybe()

	cs, err := server.NewCollabServer(testutil.TestLogger(t), su)
	assert.NoError(t, err)
	go cs.Run()
	t.Cleanup(func() { cs.Shutdown(testContext(t)) })

	t.Run("authenticated connection", func(t *testing.T) {
		mockRepo := &database.MockCollabRepository{}
		defer mockRepo.AssertExpectations(t)

		dbUser := database.User{Id: 1, Username: "alice", EmailAddress: "alice@example.com"}
		mockRepo.On("GetAccountById", dbUser.Id).Return(dbUser, nil).Once()

		app := newTestApp(t, mockRepo, cs)

		ts := httptest.NewServer(http.HandlerFunc(app.serveWs))
		defer ts.Close()

		token, err := app.createJwtForSession(types.User{Id: dbUser.Id}, defaultJwtExpiration)
		assert.NoError(t, err)

		header := http.Header{}
		header.Set("Cookie", tokenCookieKey+"="+token)

		wsUrl := "ws" + strings.TrimPrefix(ts.URL, "http")
		conn, resp, err := websocket.DefaultDialer.Dial(wsUrl, header)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
		conn.Close()
	})

	t.Run("connection without a token is still accepted", func(t *testing.T) {
		mockRepo := &database.MockCollabRepository{}
		defer mockRepo.AssertExpectations(t)

		app := newTestApp(t, mockRepo, cs)

		ts := httptest.NewServer(http.HandlerFunc(app.serveWs))
		defer ts.Close()

		wsUrl := "ws" + strings.TrimPrefix(ts.URL, "http")
		conn, resp, err := websocket.DefaultDialer.Dial(wsUrl, nil)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
		conn.Close()
	})
}

func testContext(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	t.Cleanup(cancel)
	return ctx
}
