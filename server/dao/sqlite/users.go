package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dekarrin/vsopc/server/dao"
	"github.com/google/uuid"
)

type UsersDB struct {
	db *sql.DB
}

func (repo *UsersDB) init() error {
	_, err := repo.db.Exec(`CREATE TABLE IF NOT EXISTS users (
		id TEXT NOT NULL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		role TEXT NOT NULL,
		email TEXT NOT NULL,
		created INTEGER NOT NULL,
		last_logout_time INTEGER NOT NULL,
		last_login_time INTEGER NOT NULL
	);`)
	if err != nil {
		return wrapDBError(err)
	}

	return nil
}

func (repo *UsersDB) Create(ctx context.Context, user dao.User) (dao.User, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.User{}, fmt.Errorf("could not generate ID: %w", err)
	}
	now := time.Now()

	stmt, err := repo.db.Prepare(`INSERT INTO users
		(id, username, password, role, email, created, last_logout_time, last_login_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return dao.User{}, wrapDBError(err)
	}

	_, err = stmt.ExecContext(ctx,
		convertToDB_UUID(newUUID),
		user.Username,
		user.Password,
		convertToDB_Role(user.Role),
		convertToDB_Email(user.Email),
		convertToDB_Time(now),
		convertToDB_Time(now),
		convertToDB_Time(user.LastLoginTime),
	)
	if err != nil {
		return dao.User{}, wrapDBError(err)
	}

	return repo.GetByID(ctx, newUUID)
}

func (repo *UsersDB) GetByID(ctx context.Context, id uuid.UUID) (dao.User, error) {
	row := repo.db.QueryRowContext(ctx,
		`SELECT username, password, role, email, created, last_logout_time, last_login_time FROM users WHERE id = ?;`,
		convertToDB_UUID(id),
	)
	user := dao.User{ID: id}
	return repo.scanUser(row, &user, nil)
}

func (repo *UsersDB) GetByUsername(ctx context.Context, username string) (dao.User, error) {
	row := repo.db.QueryRowContext(ctx,
		`SELECT id, password, role, email, created, last_logout_time, last_login_time FROM users WHERE username = ?;`,
		username,
	)
	user := dao.User{Username: username}
	var id string
	return repo.scanUser(row, &user, &id)
}

// scanUser scans one user row into user. Exactly one of the username or id
// columns is absent from the row, depending on which one the caller queried
// by; idOut non-nil means the row leads with the id column instead of
// username.
func (repo *UsersDB) scanUser(row *sql.Row, user *dao.User, idOut *string) (dao.User, error) {
	var role, email string
	var created, logout, login int64

	var first interface{} = &user.Username
	if idOut != nil {
		first = idOut
	}

	err := row.Scan(first, &user.Password, &role, &email, &created, &logout, &login)
	if err != nil {
		return dao.User{}, wrapDBError(err)
	}

	if idOut != nil {
		if err := convertFromDB_UUID(*idOut, &user.ID); err != nil {
			return dao.User{}, err
		}
	}
	if err := convertFromDB_Email(email, &user.Email); err != nil {
		return dao.User{}, err
	}
	if err := convertFromDB_Role(role, &user.Role); err != nil {
		return dao.User{}, err
	}
	if err := convertFromDB_Time(created, &user.Created); err != nil {
		return dao.User{}, err
	}
	if err := convertFromDB_Time(logout, &user.LastLogoutTime); err != nil {
		return dao.User{}, err
	}
	if err := convertFromDB_Time(login, &user.LastLoginTime); err != nil {
		return dao.User{}, err
	}

	return *user, nil
}

func (repo *UsersDB) RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) (dao.User, error) {
	return repo.stampTime(ctx, id, "last_login_time", at)
}

func (repo *UsersDB) RecordLogout(ctx context.Context, id uuid.UUID, at time.Time) (dao.User, error) {
	return repo.stampTime(ctx, id, "last_logout_time", at)
}

// stampTime sets one of the fixed login/logout timestamp columns on a user.
// col is never user input.
func (repo *UsersDB) stampTime(ctx context.Context, id uuid.UUID, col string, at time.Time) (dao.User, error) {
	res, err := repo.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE users SET %s=? WHERE id=?;`, col),
		convertToDB_Time(at),
		convertToDB_UUID(id),
	)
	if err != nil {
		return dao.User{}, wrapDBError(err)
	}
	rowsAff, err := res.RowsAffected()
	if err != nil {
		return dao.User{}, wrapDBError(err)
	}
	if rowsAff < 1 {
		return dao.User{}, dao.ErrNotFound
	}

	return repo.GetByID(ctx, id)
}

func (repo *UsersDB) Close() error {
	return repo.db.Close()
}
