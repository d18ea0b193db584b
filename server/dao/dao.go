// Package dao provides data access objects for use in the vsopd server.
package dao

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/dekarrin/vsopc/internal/vsop/sema"
	"github.com/google/uuid"
)

var (
	ErrConstraintViolation = errors.New("a uniqueness constraint was violated")
	ErrNotFound            = errors.New("the requested resource was not found")
	ErrDecodingFailure     = errors.New("field could not be decoded from DB storage format to model format")
)

// Store holds all the repositories needed by the server.
type Store interface {
	Users() UserRepository
	Analyses() AnalysisRepository
	Close() error
}

// AnalysisRepository persists the results of running the semantic analyzer
// over a submitted VSOP source program.
type AnalysisRepository interface {
	Create(ctx context.Context, run AnalysisRun) (AnalysisRun, error)
	GetByID(ctx context.Context, id uuid.UUID) (AnalysisRun, error)
	GetAll(ctx context.Context) ([]AnalysisRun, error)
	GetAllByUser(ctx context.Context, userID uuid.UUID) ([]AnalysisRun, error)
	Delete(ctx context.Context, id uuid.UUID) (AnalysisRun, error)
	Close() error
}

// AnalysisRun is a single, complete run of the four-pass semantic analyzer
// over a source program submitted to the server, along with whatever it
// produced: either a populated sema.Result on success, or the list of
// sema.Errors that caused analysis to fail.
type AnalysisRun struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Source      string
	SubmittedAt time.Time
	OK          bool
	Result      *sema.Result
	Err         *sema.Error
}

// UserRepository holds the accounts that are allowed to submit analyses.
// Accounts are deliberately minimal: vsopd's user surface exists to
// authenticate analysis submissions and attribute runs to their submitter,
// not to be a user-management system, so the only mutations are account
// creation and the login/logout timestamp updates the token scheme depends
// on (a logout invalidates previously issued tokens by changing the
// signing-key input).
type UserRepository interface {
	Create(ctx context.Context, user User) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)

	// RecordLogin stamps the user's last successful login at the given time
	// and returns the updated user.
	RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) (User, error)

	// RecordLogout stamps the user's last logout at the given time and
	// returns the updated user. Tokens issued before this time no longer
	// validate.
	RecordLogout(ctx context.Context, id uuid.UUID, at time.Time) (User, error)

	// Close closes the connection.
	Close() error
}

type Role int

const (
	Guest Role = iota
	Normal

	Admin Role = 100
)

func (r Role) String() string {
	switch r {
	case Guest:
		return "guest"
	case Normal:
		return "normal"
	case Admin:
		return "admin"
	default:
		return fmt.Sprintf("Role(%d)", r)
	}
}

func ParseRole(s string) (Role, error) {
	check := strings.ToLower(s)
	switch check {
	case "guest":
		return Guest, nil
	case "normal":
		return Normal, nil
	case "admin":
		return Admin, nil
	default:
		return Guest, fmt.Errorf("must be one of 'guest', 'normal', or 'admin'")
	}
}

type User struct {
	ID             uuid.UUID     // PK, NOT NULL
	Username       string        // UNIQUE, NOT NULL
	Password       string        // NOT NULL
	Email          *mail.Address // NOT NULL
	Role           Role          // NOT NULL
	Created        time.Time     // NOT NULL
	LastLogoutTime time.Time     // NOT NULL DEFAULT NOW()
	LastLoginTime  time.Time     // NOT NULL
}
