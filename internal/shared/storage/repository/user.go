package repository

import (
	"context"
	"database/sql"

	"campus-blog/internal/shared/model"
	"campus-blog/internal/shared/storage"
)

const userColumns = `id, first_name, last_name, username, email, password_hash, role, created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Username, &u.Email,
		&u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// CreateUser 创建用户
func (r *Store) CreateUser(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx, r.rebind(
		`INSERT INTO users (`+userColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`),
		user.ID, user.FirstName, user.LastName, user.Username, user.Email,
		user.PasswordHash, user.Role, user.CreatedAt, user.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return storage.ErrDuplicate
	}
	return err
}

// GetUserByID 通过 ID 查找用户
func (r *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, r.rebind(
		`SELECT `+userColumns+` FROM users WHERE id = $1`), id))
}

// GetUserByEmail 通过邮箱查找用户
func (r *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, r.rebind(
		`SELECT `+userColumns+` FROM users WHERE email = $1`), email))
}

// GetUserByUsername 通过用户名查找用户
func (r *Store) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, r.rebind(
		`SELECT `+userColumns+` FROM users WHERE username = $1`), username))
}

// ListUsers 列出所有用户（最新优先）
func (r *Store) ListUsers(ctx context.Context) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC`))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUserRole 更新用户角色
func (r *Store) UpdateUserRole(ctx context.Context, id string, role model.UserRole) error {
	res, err := r.db.ExecContext(ctx, r.rebind(
		`UPDATE users SET role = $1, updated_at = `+r.dialect.CurrentTimestamp()+` WHERE id = $2`),
		role, id,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// UpdateUserPassword 更新用户密码哈希
func (r *Store) UpdateUserPassword(ctx context.Context, id, passwordHash string) error {
	res, err := r.db.ExecContext(ctx, r.rebind(
		`UPDATE users SET password_hash = $1, updated_at = `+r.dialect.CurrentTimestamp()+` WHERE id = $2`),
		passwordHash, id,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
