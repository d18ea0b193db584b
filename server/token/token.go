// Package token issues and validates the JWT bearer tokens used to
// authenticate clients of the vsopd server.
package token

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dekarrin/vsopc/server/dao"
	"github.com/dekarrin/vsopc/server/serr"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "vsopd"

type claims struct {
	jwt.RegisteredClaims
	Authorized bool `json:"authorized"`
}

// signingKey derives the per-user signing key from the server secret, the
// user's current password hash, and their last logout time. Changing the
// password or logging out invalidates every token issued before that point,
// since the key used to verify them no longer matches.
func signingKey(secret []byte, u dao.User) []byte {
	key := fmt.Sprintf("%s-%s-%d", secret, u.Password, u.LastLogoutTime.Unix())
	return []byte(key)
}

// Generate creates a new signed JWT for u, valid for 24 hours.
func Generate(secret []byte, u dao.User) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
		},
		Authorized: true,
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, c)
	signed, err := tok.SignedString(signingKey(secret, u))
	if err != nil {
		return "", fmt.Errorf("could not sign token: %w", err)
	}

	return signed, nil
}

// Get retrieves the bearer token from the Authorization header of req. It
// returns an error matching serr.ErrBadCredentials if the header is missing
// or not in the expected "Bearer <token>" form.
func Get(req *http.Request) (string, error) {
	authHeader := req.Header.Get("Authorization")
	if authHeader == "" {
		return "", serr.New("no authorization header given", serr.ErrBadCredentials)
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", serr.New("authorization header is not a valid bearer token", serr.ErrBadCredentials)
	}

	return strings.TrimSpace(parts[1]), nil
}

// Validate parses and verifies tok, then looks up and returns the user it
// names. The returned error matches serr.ErrBadCredentials if the token is
// malformed, expired, or signed with a stale key (e.g. issued before the
// user's last logout or password change).
func Validate(ctx context.Context, tok string, secret []byte, users dao.UserRepository) (dao.User, error) {
	var parsedClaims claims

	// the signing key depends on the user, so the subject must be read out
	// of the unverified token before the key can be computed.
	unverified := jwt.NewParser()
	_, _, err := unverified.ParseUnverified(tok, &parsedClaims)
	if err != nil {
		return dao.User{}, serr.New("malformed token", err, serr.ErrBadCredentials)
	}

	subject := parsedClaims.Subject
	if subject == "" {
		return dao.User{}, serr.New("token has no subject", serr.ErrBadCredentials)
	}

	user, err := lookupUser(ctx, users, subject)
	if err != nil {
		return dao.User{}, err
	}

	_, err = jwt.ParseWithClaims(tok, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return signingKey(secret, user), nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return dao.User{}, serr.New("token is expired", err, serr.ErrBadCredentials)
		}
		return dao.User{}, serr.New("token is invalid", err, serr.ErrBadCredentials)
	}

	return user, nil
}

func lookupUser(ctx context.Context, users dao.UserRepository, subject string) (dao.User, error) {
	id, err := uuid.Parse(subject)
	if err != nil {
		return dao.User{}, serr.New("token subject is not a valid user ID", err, serr.ErrBadCredentials)
	}

	user, err := users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.User{}, serr.New("token names a user that no longer exists", serr.ErrBadCredentials)
		}
		return dao.User{}, serr.WrapDB("could not look up token user", err)
	}

	return user, nil
}
