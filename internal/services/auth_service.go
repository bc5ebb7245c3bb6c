package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/mail"
	"storefront/internal/repos"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

const resetTokenTTL = 30 * time.Minute

var ErrBadCreds = Unauthorized("invalid username or password")

type AuthService struct {
	DB     *sqlx.DB
	Tokens *TokenIssuer

	// Mail delivers reset links; nil leaves delivery to the caller.
	Mail     mail.Sender
	ResetURL string
	Now      func() time.Time
}

func NewAuthService(db *sqlx.DB, tokens *TokenIssuer) *AuthService {
	return &AuthService{DB: db, Tokens: tokens, Now: time.Now}
}

type RegisterInput struct {
	Username string `json:"username" validate:"required,username"`
	Email    string `json:"email" validate:"required,email,max=100"`
	Password string `json:"password" validate:"required,password"`
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	users := repos.NewUserRepo(s.DB)
	taken, err := users.Exists(ctx, in.Username, in.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, Conflict("username or email already registered")
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	id, err := users.Create(ctx, in.Username, in.Email, hash, domain.RoleUser)
	if err != nil {
		if repos.IsUniqueViolation(err) {
			return nil, Conflict("username or email already registered")
		}
		return nil, err
	}
	return users.ByID(ctx, id)
}

// Login accepts a username or an email as identifier.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*domain.User, TokenPair, error) {
	u, err := repos.NewUserRepo(s.DB).ByLogin(ctx, strings.TrimSpace(identifier))
	if err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			return nil, TokenPair{}, ErrBadCreds
		}
		return nil, TokenPair{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, TokenPair{}, ErrBadCreds
	}
	if !u.Active {
		return nil, TokenPair{}, Forbidden("account is disabled")
	}
	pair, err := s.Tokens.Issue(u)
	return u, pair, err
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.Tokens.Parse(refreshToken, TokenRefresh)
	if err != nil {
		return TokenPair{}, Unauthorized("invalid refresh token")
	}
	u, err := s.CurrentUser(ctx, claims.UserID())
	if err != nil {
		return TokenPair{}, err
	}
	return s.Tokens.Issue(u)
}

// Authenticate resolves an access token to an active user.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*domain.User, error) {
	claims, err := s.Tokens.Parse(accessToken, TokenAccess)
	if err != nil {
		return nil, Unauthorized("invalid or expired token")
	}
	return s.CurrentUser(ctx, claims.UserID())
}

func (s *AuthService) CurrentUser(ctx context.Context, id int64) (*domain.User, error) {
	u, err := repos.NewUserRepo(s.DB).ByID(ctx, id)
	if err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			return nil, Unauthorized("user no longer exists")
		}
		return nil, err
	}
	if !u.Active {
		return nil, Forbidden("account is disabled")
	}
	return u, nil
}

func hashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

type PasswordInput struct {
	OldPassword string `json:"old_password" validate:"required,max=64"`
	NewPassword string `json:"new_password" validate:"required,password"`
}

func (s *AuthService) ChangePassword(ctx context.Context, u *domain.User, in PasswordInput) error {
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(in.OldPassword)) != nil {
		return Invalid("old password is incorrect")
	}
	hash, err := hashPassword(in.NewPassword)
	if err != nil {
		return err
	}
	return repos.NewUserRepo(s.DB).SetPassword(ctx, u.ID, hash)
}

func resetDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// RequestPasswordReset issues a single-use reset token for the account
// registered under email and mails the link when a sender is set. An
// unknown or disabled account yields an empty token and no error.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	users := repos.NewUserRepo(s.DB)
	u, err := users.ByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	if !u.Active {
		return "", nil
	}
	token := uuid.NewString()
	expires := s.Now().Add(resetTokenTTL).UTC().Format(timeLayout)
	if err := users.SetResetToken(ctx, u.ID, resetDigest(token), expires); err != nil {
		return "", err
	}
	if s.Mail != nil {
		body := fmt.Sprintf("Hi %s,\n\nUse the link below within 30 minutes to set a new password:\n%s%s\n\nIf you did not ask for this, ignore this message.\n",
			u.Username, s.ResetURL, token)
		if err := s.Mail.Send(u.Email, "Reset your password", body); err != nil {
			return "", err
		}
	}
	return token, nil
}

type ResetInput struct {
	Token       string `json:"token" validate:"required,max=100"`
	NewPassword string `json:"new_password" validate:"required,password"`
}

// ResetPassword consumes a reset token; it cannot be used twice.
func (s *AuthService) ResetPassword(ctx context.Context, in ResetInput) error {
	users := repos.NewUserRepo(s.DB)
	now := s.Now().UTC().Format(timeLayout)
	u, err := users.ByResetToken(ctx, resetDigest(strings.TrimSpace(in.Token)), now)
	if err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			return Invalid("reset token is invalid or expired")
		}
		return err
	}
	hash, err := hashPassword(in.NewPassword)
	if err != nil {
		return err
	}
	return users.SetPassword(ctx, u.ID, hash)
}
