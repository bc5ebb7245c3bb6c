package services

import (
	"context"
	"errors"

	"storefront/internal/domain"
	"storefront/internal/repos"

	"github.com/jmoiron/sqlx"
)

const lowStockThreshold = 5

type InventoryService struct {
	DB *sqlx.DB
}

func NewInventoryService(db *sqlx.DB) *InventoryService { return &InventoryService{DB: db} }

// CheckAvailability converts qty into IN_STOCK / LOW_STOCK / OUT_OF_STOCK.
func (s *InventoryService) CheckAvailability(ctx context.Context, productID int64) (domain.Availability, error) {
	qty, err := repos.NewInventoryRepo(s.DB).Qty(ctx, productID)
	if err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			return domain.Availability{}, NotFound(MsgProductNotFound)
		}
		return domain.Availability{}, err
	}
	return availability(qty), nil
}

func availability(qty int) domain.Availability {
	status := "OUT_OF_STOCK"
	switch {
	case qty >= lowStockThreshold:
		status = "IN_STOCK"
	case qty > 0:
		status = "LOW_STOCK"
	}
	return domain.Availability{Status: status, Qty: qty}
}

func (s *InventoryService) List(ctx context.Context) ([]repos.InventoryRow, error) {
	return repos.NewInventoryRepo(s.DB).ListAll(ctx)
}

// SetStock overwrites the stock of a product (admin restock or count).
func (s *InventoryService) SetStock(ctx context.Context, productID int64, qty int) (domain.Availability, error) {
	if qty < 0 {
		return domain.Availability{}, Invalid("stock must not be negative")
	}
	ok, err := repos.NewInventoryRepo(s.DB).SetQty(ctx, productID, qty)
	if err != nil {
		return domain.Availability{}, err
	}
	if !ok {
		return domain.Availability{}, NotFound(MsgProductNotFound)
	}
	return availability(qty), nil
}
