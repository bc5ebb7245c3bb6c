package services

import (
	"context"
	"errors"

	"storefront/internal/domain"
	"storefront/internal/repos"

	"github.com/jmoiron/sqlx"
)

type UserService struct {
	DB *sqlx.DB
}

func NewUserService(db *sqlx.DB) *UserService { return &UserService{DB: db} }

type UserView struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
}

func NewUserView(u *domain.User) UserView {
	return UserView{
		ID: u.ID, Username: u.Username, Email: u.Email, AvatarURL: u.AvatarURL,
		Phone: u.Phone, Role: u.Role, IsActive: u.Active, CreatedAt: u.CreatedAt,
	}
}

type ProfileInput struct {
	AvatarURL string `json:"avatar_url" validate:"max=500"`
	Phone     string `json:"phone" validate:"phone"`
}

func (s *UserService) UpdateProfile(ctx context.Context, u *domain.User, in ProfileInput) (UserView, error) {
	users := repos.NewUserRepo(s.DB)
	if err := users.UpdateProfile(ctx, u.ID, in.AvatarURL, in.Phone); err != nil {
		return UserView{}, err
	}
	fresh, err := users.ByID(ctx, u.ID)
	if err != nil {
		return UserView{}, err
	}
	return NewUserView(fresh), nil
}

func (s *UserService) List(ctx context.Context, limit, offset int) ([]UserView, int, error) {
	rows, total, err := repos.NewUserRepo(s.DB).List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	out := make([]UserView, 0, len(rows))
	for i := range rows {
		out = append(out, NewUserView(&rows[i]))
	}
	return out, total, nil
}

// Delete removes a user and everything they own exclusively. A user with
// orders is deactivated instead so order history keeps its owner. It
// reports whether the row was actually deleted.
func (s *UserService) Delete(ctx context.Context, actor *domain.User, id int64) (bool, error) {
	if actor.ID == id {
		return false, Invalid("cannot delete your own account")
	}
	deleted := false
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		users := repos.NewUserRepo(tx)
		if _, err := users.ByID(ctx, id); err != nil {
			if errors.Is(err, repos.ErrNotFound) {
				return NotFound(MsgUserNotFound)
			}
			return err
		}
		if err := users.RemoveOwned(ctx, id); err != nil {
			return err
		}
		hasOrders, err := users.HasOrders(ctx, id)
		if err != nil {
			return err
		}
		if hasOrders {
			return users.Deactivate(ctx, id)
		}
		// reviews reference the user; without orders there can be none
		deleted = true
		return users.Delete(ctx, id)
	})
	return deleted, err
}

type AdminUserInput struct {
	Username  *string `json:"username" validate:"omitempty,username"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,max=500"`
	Phone     *string `json:"phone" validate:"omitempty,phone"`
	IsActive  *bool   `json:"is_active"`
}

// AdminUpdate edits another account's profile fields and active flag.
// Fields left out of the input keep their value.
func (s *UserService) AdminUpdate(ctx context.Context, actor *domain.User, id int64, in AdminUserInput) (UserView, error) {
	if in.IsActive != nil && !*in.IsActive && actor.ID == id {
		return UserView{}, Invalid("cannot disable your own account")
	}
	var fresh *domain.User
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		users := repos.NewUserRepo(tx)
		u, err := users.ByID(ctx, id)
		if err != nil {
			if errors.Is(err, repos.ErrNotFound) {
				return NotFound(MsgUserNotFound)
			}
			return err
		}
		if in.Username != nil && *in.Username != u.Username {
			taken, err := users.UsernameTaken(ctx, *in.Username, id)
			if err != nil {
				return err
			}
			if taken {
				return Conflict("username already taken")
			}
			u.Username = *in.Username
		}
		if in.AvatarURL != nil {
			u.AvatarURL = *in.AvatarURL
		}
		if in.Phone != nil {
			u.Phone = *in.Phone
		}
		if in.IsActive != nil {
			u.Active = *in.IsActive
		}
		if err := users.AdminUpdate(ctx, u); err != nil {
			if repos.IsUniqueViolation(err) {
				return Conflict("username already taken")
			}
			return err
		}
		fresh, err = users.ByID(ctx, id)
		return err
	})
	if err != nil {
		return UserView{}, err
	}
	return NewUserView(fresh), nil
}
