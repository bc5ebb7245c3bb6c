package services

import (
	"context"
	"errors"

	"storefront/internal/repos"

	"github.com/jmoiron/sqlx"
)

type FavoriteService struct {
	DB *sqlx.DB
}

func NewFavoriteService(db *sqlx.DB) *FavoriteService { return &FavoriteService{DB: db} }

// Toggle saves or unsaves a product and returns the new state.
func (s *FavoriteService) Toggle(ctx context.Context, userID, productID int64) (bool, error) {
	saved := false
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		if _, err := repos.NewProductRepo(tx).Get(ctx, productID); err != nil {
			if errors.Is(err, repos.ErrNotFound) {
				return NotFound(MsgProductNotFound)
			}
			return err
		}
		favs := repos.NewFavoriteRepo(tx)
		removed, err := favs.Remove(ctx, userID, productID)
		if err != nil || removed {
			return err
		}
		saved = true
		return favs.Add(ctx, userID, productID)
	})
	return saved, err
}

func (s *FavoriteService) Has(ctx context.Context, userID, productID int64) (bool, error) {
	return repos.NewFavoriteRepo(s.DB).Has(ctx, userID, productID)
}

func (s *FavoriteService) List(ctx context.Context, userID int64, limit, offset int) ([]ProductView, int, error) {
	rows, total, err := repos.NewFavoriteRepo(s.DB).List(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	out := make([]ProductView, 0, len(rows))
	for _, p := range rows {
		out = append(out, NewProductView(p))
	}
	return out, total, nil
}
