package services

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/repos"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type CartService struct {
	DB *sqlx.DB
}

func NewCartService(db *sqlx.DB) *CartService { return &CartService{DB: db} }

type CartItemView struct {
	ID           int64   `json:"id"`
	ProductID    int64   `json:"product_id"`
	ProductName  string  `json:"product_name"`
	ProductImage string  `json:"product_image"`
	Price        float64 `json:"price"`
	Stock        int     `json:"stock"`
	Quantity     int     `json:"quantity"`
	Subtotal     float64 `json:"subtotal"`
	AddedAt      string  `json:"added_at"`
}

// CartView is always computed from live prices; nothing in it is frozen.
type CartView struct {
	Items      []CartItemView `json:"items"`
	TotalCount int            `json:"total_count"`
	TotalPrice float64        `json:"total_price"`
}

func newCartView(lines []repos.CartLine) CartView {
	v := CartView{Items: make([]CartItemView, 0, len(lines))}
	total := decimal.Zero
	for _, l := range lines {
		sub := l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
		total = total.Add(sub)
		v.TotalCount += l.Quantity
		v.Items = append(v.Items, CartItemView{
			ID: l.ID, ProductID: l.ProductID, ProductName: l.Name, ProductImage: l.MainImageURL,
			Price: money(l.Price), Stock: l.Stock, Quantity: l.Quantity, Subtotal: money(sub),
			AddedAt: l.AddedAt,
		})
	}
	v.TotalPrice = money(total)
	return v
}

func (s *CartService) View(ctx context.Context, userID int64) (CartView, error) {
	lines, err := repos.NewCartRepo(s.DB).Lines(ctx, userID)
	if err != nil {
		return CartView{}, err
	}
	return newCartView(lines), nil
}

// Add puts qty units of a product in the cart, merging with an existing
// line. The merged quantity may not exceed live stock.
func (s *CartService) Add(ctx context.Context, userID, productID int64, qty int) (CartView, error) {
	if qty < 1 {
		return CartView{}, Invalid("quantity must be at least 1")
	}
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		p, err := repos.NewProductRepo(tx).Get(ctx, productID)
		if err != nil {
			if errors.Is(err, repos.ErrNotFound) {
				return NotFound(MsgProductNotFound)
			}
			return err
		}
		if !p.Published() {
			return NotFound(MsgProductNotFound)
		}
		carts := repos.NewCartRepo(tx)
		have, err := carts.LineQty(ctx, userID, productID)
		if err != nil {
			return err
		}
		if have+qty > p.Stock {
			return Invalidf("insufficient stock for %s (available %d)", p.Name, p.Stock)
		}
		return carts.Add(ctx, userID, productID, qty)
	})
	if err != nil {
		return CartView{}, err
	}
	return s.View(ctx, userID)
}

func (s *CartService) Update(ctx context.Context, userID, itemID int64, qty int) (CartView, error) {
	if qty < 1 {
		return CartView{}, Invalid("quantity must be at least 1")
	}
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		carts := repos.NewCartRepo(tx)
		line, err := carts.Line(ctx, userID, itemID)
		if err != nil {
			if errors.Is(err, repos.ErrNotFound) {
				return NotFound("cart item not found")
			}
			return err
		}
		if qty > line.Stock {
			return Invalidf("insufficient stock for %s (available %d)", line.Name, line.Stock)
		}
		_, err = carts.SetQty(ctx, userID, itemID, qty)
		return err
	})
	if err != nil {
		return CartView{}, err
	}
	return s.View(ctx, userID)
}

func (s *CartService) Remove(ctx context.Context, userID, itemID int64) (CartView, error) {
	ok, err := repos.NewCartRepo(s.DB).Delete(ctx, userID, itemID)
	if err != nil {
		return CartView{}, err
	}
	if !ok {
		return CartView{}, NotFound("cart item not found")
	}
	return s.View(ctx, userID)
}

func (s *CartService) Clear(ctx context.Context, userID int64) (CartView, error) {
	if err := repos.NewCartRepo(s.DB).Clear(ctx, userID); err != nil {
		return CartView{}, fmt.Errorf("clear cart: %w", err)
	}
	return s.View(ctx, userID)
}
