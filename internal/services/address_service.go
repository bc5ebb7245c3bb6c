package services

import (
	"context"
	"errors"

	"storefront/internal/domain"
	"storefront/internal/repos"

	"github.com/jmoiron/sqlx"
)

type AddressService struct {
	DB *sqlx.DB
}

func NewAddressService(db *sqlx.DB) *AddressService { return &AddressService{DB: db} }

type AddressInput struct {
	RecipientName string `json:"recipient_name" validate:"required,max=50"`
	Phone         string `json:"phone" validate:"required,phone"`
	Province      string `json:"province" validate:"required,max=50"`
	City          string `json:"city" validate:"required,max=50"`
	District      string `json:"district" validate:"required,max=50"`
	DetailAddress string `json:"detail_address" validate:"required,max=200"`
	IsDefault     bool   `json:"is_default"`
}

func (in AddressInput) address(userID int64) domain.Address {
	return domain.Address{
		UserID:        userID,
		RecipientName: in.RecipientName,
		Phone:         in.Phone,
		Province:      in.Province,
		City:          in.City,
		District:      in.District,
		DetailAddress: in.DetailAddress,
	}
}

func (s *AddressService) List(ctx context.Context, userID int64) ([]domain.Address, error) {
	return repos.NewAddressRepo(s.DB).List(ctx, userID)
}

// Create adds an address; the first address of a user becomes the default.
func (s *AddressService) Create(ctx context.Context, userID int64, in AddressInput) (domain.Address, error) {
	var out domain.Address
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		addrs := repos.NewAddressRepo(tx)
		n, err := addrs.Count(ctx, userID)
		if err != nil {
			return err
		}
		id, err := addrs.Create(ctx, in.address(userID))
		if err != nil {
			return err
		}
		if in.IsDefault || n == 0 {
			if err := addrs.SetDefault(ctx, userID, id); err != nil {
				return err
			}
		}
		out, err = addrs.Get(ctx, userID, id)
		return err
	})
	return out, err
}

func (s *AddressService) Update(ctx context.Context, userID, id int64, in AddressInput) (domain.Address, error) {
	var out domain.Address
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		addrs := repos.NewAddressRepo(tx)
		a := in.address(userID)
		a.ID = id
		ok, err := addrs.Update(ctx, a)
		if err != nil {
			return err
		}
		if !ok {
			return NotFound(MsgAddressNotFound)
		}
		if in.IsDefault {
			if err := addrs.SetDefault(ctx, userID, id); err != nil {
				return err
			}
		}
		out, err = addrs.Get(ctx, userID, id)
		return err
	})
	return out, err
}

func (s *AddressService) Delete(ctx context.Context, userID, id int64) error {
	ok, err := repos.NewAddressRepo(s.DB).Delete(ctx, userID, id)
	if err != nil {
		return err
	}
	if !ok {
		return NotFound(MsgAddressNotFound)
	}
	return nil
}

func (s *AddressService) SetDefault(ctx context.Context, userID, id int64) error {
	return repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		addrs := repos.NewAddressRepo(tx)
		if _, err := addrs.Get(ctx, userID, id); err != nil {
			if errors.Is(err, repos.ErrNotFound) {
				return NotFound(MsgAddressNotFound)
			}
			return err
		}
		return addrs.SetDefault(ctx, userID, id)
	})
}
