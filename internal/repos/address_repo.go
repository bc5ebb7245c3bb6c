package repos

import (
	"context"

	"storefront/internal/domain"

	"github.com/jmoiron/sqlx"
)

type AddressRepo struct{ db sqlx.ExtContext }

func NewAddressRepo(db sqlx.ExtContext) *AddressRepo { return &AddressRepo{db: db} }

const addressCols = `id,user_id,recipient_name,phone,province,city,district,detail_address,is_default,created_at`

func (r *AddressRepo) List(ctx context.Context, userID int64) ([]domain.Address, error) {
	out := []domain.Address{}
	err := sqlx.SelectContext(ctx, r.db, &out, `
		SELECT `+addressCols+` FROM user_addresses
		WHERE user_id=? ORDER BY is_default DESC, id DESC`, userID)
	return out, err
}

// Get returns the address only when it belongs to userID.
func (r *AddressRepo) Get(ctx context.Context, userID, id int64) (domain.Address, error) {
	var a domain.Address
	err := sqlx.GetContext(ctx, r.db, &a, `
		SELECT `+addressCols+` FROM user_addresses WHERE id=? AND user_id=?`, id, userID)
	return a, err
}

func (r *AddressRepo) Count(ctx context.Context, userID int64) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, r.db, &n, `SELECT COUNT(*) FROM user_addresses WHERE user_id=?`, userID)
	return n, err
}

func (r *AddressRepo) Create(ctx context.Context, a domain.Address) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO user_addresses(user_id,recipient_name,phone,province,city,district,detail_address,is_default)
		VALUES(?,?,?,?,?,?,?,?)`,
		a.UserID, a.RecipientName, a.Phone, a.Province, a.City, a.District, a.DetailAddress, a.IsDefault)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *AddressRepo) Update(ctx context.Context, a domain.Address) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE user_addresses
		SET recipient_name=?, phone=?, province=?, city=?, district=?, detail_address=?
		WHERE id=? AND user_id=?`,
		a.RecipientName, a.Phone, a.Province, a.City, a.District, a.DetailAddress, a.ID, a.UserID)
	if err != nil {
		return false, err
	}
	return affected(res) > 0, nil
}

func (r *AddressRepo) Delete(ctx context.Context, userID, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM user_addresses WHERE id=? AND user_id=?`, id, userID)
	if err != nil {
		return false, err
	}
	return affected(res) > 0, nil
}

// SetDefault makes id the only default address of userID.
func (r *AddressRepo) SetDefault(ctx context.Context, userID, id int64) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE user_addresses SET is_default=0 WHERE user_id=?`, userID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `UPDATE user_addresses SET is_default=1 WHERE id=? AND user_id=?`, id, userID)
	return err
}
