package database

import (
	"fmt"
	"time"
)

func (db *PgCollabRepository) CreateAccount(params CreateAccountParams) (User, error) {
	res := db.conn.QueryRow(
		"INSERT INTO accounts (username, email, password_hash, created_at) "+
			"VALUES ($1, $2, $3, $4) RETURNING id, username, email",
		params.Username,
		params.EmailAddress,
		params.PasswordHash,
		time.Now().UTC(),
	)

	var u User
	err := res.Scan(
		&u.Id,
		&u.Username,
		&u.EmailAddress,
	)

	return u, err
}

func (db *PgCollabRepository) UpdateAccount(params UpdateAccountParams) (User, error) {
	res := db.conn.QueryRow(
		"UPDATE accounts SET username = $2, password_hash = $3, updated_at = $4 "+
			"WHERE id = $1 RETURNING id, username, email, created_at, updated_at",
		params.UserId,
		params.Username,
		params.PasswordHash,
		time.Now().UTC(),
	)

	var u User
	err := res.Scan(
		&u.Id,
		&u.Username,
		&u.EmailAddress,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func (db *PgCollabRepository) GetAccountById(accountId int) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, email, created_at, updated_at FROM accounts "+
			"WHERE id = $1 LIMIT 1",
		accountId,
	)

	var u User
	err := row.Scan(
		&u.Id,
		&u.Username,
		&u.EmailAddress,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func (db *PgCollabRepository) GetAccountByEmail(email string) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, email, password_hash, created_at, updated_at FROM accounts "+
			"WHERE email = $1 LIMIT 1",
		email,
	)

	var u User
	err := row.Scan(
		&u.Id,
		&u.Username,
		&u.EmailAddress,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func (db *PgCollabRepository) CreateProject(params CreateProjectParams) (Project, error) {
	res := db.conn.QueryRow(
		"INSERT INTO projects (external_id, name, description, language, content, owner_id, version, created_at, last_modified) "+
			"VALUES ($1, $2, $3, $4, '', $5, 1, $6, $6) "+
			"RETURNING id, external_id, name, description, language, content, public, version, owner_id, created_at, last_modified",
		params.ExternalId,
		params.Name,
		params.Description,
		params.Language,
		params.OwnerId,
		time.Now().UTC(),
	)

	return scanProject(res)
}

func (db *PgCollabRepository) GetProjectByExternalId(externalId string) (Project, error) {
	row := db.conn.QueryRow(
		"SELECT id, external_id, name, description, language, content, public, version, owner_id, created_at, last_modified "+
			"FROM projects WHERE external_id = $1 LIMIT 1",
		externalId,
	)

	return scanProject(row)
}

func (db *PgCollabRepository) GetProjectWithCollaborators(projectId int) (*Project, error) {
	row := db.conn.QueryRow(
		"SELECT id, external_id, name, description, language, content, public, version, owner_id, created_at, last_modified "+
			"FROM projects WHERE id = $1 LIMIT 1",
		projectId,
	)

	project, err := scanProject(row)
	if err != nil {
		return nil, err
	}

	collaborators, err := db.GetCollaborators(projectId)
	if err != nil {
		return nil, fmt.Errorf("get collaborators: %w", err)
	}
	project.Collaborators = collaborators

	return &project, nil
}

func (db *PgCollabRepository) ListProjectsForAccount(accountId int) ([]Project, error) {
	rows, err := db.conn.Query(
		"SELECT DISTINCT p.id, p.external_id, p.name, p.description, p.language, p.content, p.public, p.version, p.owner_id, p.created_at, p.last_modified "+
			"FROM projects p LEFT JOIN collaborators c ON c.project_id = p.id "+
			"WHERE p.owner_id = $1 OR c.account_id = $1 "+
			"ORDER BY p.last_modified DESC",
		accountId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}

	return projects, rows.Err()
}

func (db *PgCollabRepository) UpdateProject(params UpdateProjectParams) (Project, error) {
	res := db.conn.QueryRow(
		"UPDATE projects SET name = $2, description = $3, language = $4, public = $5, last_modified = $6 "+
			"WHERE id = $1 "+
			"RETURNING id, external_id, name, description, language, content, public, version, owner_id, created_at, last_modified",
		params.ProjectId,
		params.Name,
		params.Description,
		params.Language,
		params.Public,
		time.Now().UTC(),
	)

	return scanProject(res)
}

// UpdateProjectContent replaces the document, bumps the version and
// appends a history entry, pruning history beyond maxVersionHistory.
func (db *PgCollabRepository) UpdateProjectContent(params UpdateContentParams) (Project, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return Project{}, err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	row := tx.QueryRow(
		"UPDATE projects SET content = $2, version = version + 1, last_modified = $3 "+
			"WHERE id = $1 "+
			"RETURNING id, external_id, name, description, language, content, public, version, owner_id, created_at, last_modified",
		params.ProjectId,
		params.Content,
		now,
	)

	project, err := scanProject(row)
	if err != nil {
		return Project{}, err
	}

	if _, err := tx.Exec(
		"INSERT INTO project_versions (project_id, version, content, modified_by, created_at) "+
			"VALUES ($1, $2, $3, $4, $5)",
		project.Id,
		project.Version,
		params.Content,
		params.ModifiedBy,
		now,
	); err != nil {
		return Project{}, err
	}

	if _, err := tx.Exec(
		"DELETE FROM project_versions WHERE project_id = $1 AND version <= $2",
		project.Id,
		project.Version-maxVersionHistory,
	); err != nil {
		return Project{}, err
	}

	if err := tx.Commit(); err != nil {
		return Project{}, err
	}

	return project, nil
}

func (db *PgCollabRepository) DeleteProject(id int) error {
	_, err := db.conn.Exec("DELETE FROM projects WHERE id = $1", id)
	return err
}

func (db *PgCollabRepository) AddCollaborator(projectId, accountId int, role string) (Collaborator, error) {
	res := db.conn.QueryRow(
		"INSERT INTO collaborators (project_id, account_id, role, created_at) "+
			"VALUES ($1, $2, $3, $4) "+
			"RETURNING project_id, account_id, role, created_at",
		projectId,
		accountId,
		role,
		time.Now().UTC(),
	)

	var c Collaborator
	err := res.Scan(
		&c.ProjectId,
		&c.AccountId,
		&c.Role,
		&c.CreatedAt,
	)

	return c, err
}

func (db *PgCollabRepository) RemoveCollaborator(projectId, accountId int) error {
	_, err := db.conn.Exec(
		"DELETE FROM collaborators WHERE project_id = $1 AND account_id = $2",
		projectId,
		accountId,
	)
	return err
}

func (db *PgCollabRepository) CollaboratorExists(projectId, accountId int) bool {
	row := db.conn.QueryRow(
		"SELECT EXISTS (SELECT 1 FROM collaborators WHERE project_id = $1 AND account_id = $2)",
		projectId,
		accountId,
	)

	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false
	}
	return exists
}

func (db *PgCollabRepository) GetCollaborators(projectId int) ([]Collaborator, error) {
	rows, err := db.conn.Query(
		"SELECT c.project_id, c.account_id, a.username, a.email, c.role, c.created_at "+
			"FROM collaborators c JOIN accounts a ON a.id = c.account_id "+
			"WHERE c.project_id = $1",
		projectId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var collaborators []Collaborator
	for rows.Next() {
		var c Collaborator
		if err := rows.Scan(
			&c.ProjectId,
			&c.AccountId,
			&c.Username,
			&c.Email,
			&c.Role,
			&c.CreatedAt,
		); err != nil {
			return nil, err
		}
		collaborators = append(collaborators, c)
	}

	return collaborators, rows.Err()
}

func (db *PgCollabRepository) GetProjectVersions(projectId int) ([]ProjectVersion, error) {
	rows, err := db.conn.Query(
		"SELECT id, project_id, version, content, modified_by, created_at "+
			"FROM project_versions WHERE project_id = $1 ORDER BY version DESC",
		projectId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []ProjectVersion
	for rows.Next() {
		var v ProjectVersion
		if err := rows.Scan(
			&v.Id,
			&v.ProjectId,
			&v.Version,
			&v.Content,
			&v.ModifiedBy,
			&v.CreatedAt,
		); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}

	return versions, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (Project, error) {
	var p Project
	err := row.Scan(
		&p.Id,
		&p.ExternalId,
		&p.Name,
		&p.Description,
		&p.Language,
		&p.Content,
		&p.Public,
		&p.Version,
		&p.OwnerId,
		&p.CreatedAt,
		&p.LastModified,
	)
	return p, err
}
