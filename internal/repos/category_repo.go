package repos

import (
	"context"

	"storefront/internal/domain"

	"github.com/jmoiron/sqlx"
)

type CategoryRepo struct{ db sqlx.ExtContext }

func NewCategoryRepo(db sqlx.ExtContext) *CategoryRepo { return &CategoryRepo{db: db} }

const categoryCols = `id,name,description,parent_id,sort_order,is_active,created_at`

// List returns active categories ordered for display; parents are not
// guaranteed to precede children.
func (r *CategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	out := []domain.Category{}
	err := sqlx.SelectContext(ctx, r.db, &out, `
		SELECT `+categoryCols+` FROM categories
		WHERE is_active = 1
		ORDER BY sort_order, id`)
	return out, err
}

func (r *CategoryRepo) Get(ctx context.Context, id int64) (domain.Category, error) {
	var c domain.Category
	err := sqlx.GetContext(ctx, r.db, &c, `SELECT `+categoryCols+` FROM categories WHERE id=?`, id)
	return c, err
}

func (r *CategoryRepo) Create(ctx context.Context, c domain.Category) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO categories(name,description,parent_id,sort_order) VALUES(?,?,?,?)`,
		c.Name, c.Description, c.ParentID, c.SortOrder)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ChildIDs returns the ids of the direct children of parentID.
func (r *CategoryRepo) ChildIDs(ctx context.Context, parentID int64) ([]int64, error) {
	var ids []int64
	err := sqlx.SelectContext(ctx, r.db, &ids, `SELECT id FROM categories WHERE parent_id=?`, parentID)
	return ids, err
}

func (r *CategoryRepo) Children(ctx context.Context, parentID int64) ([]domain.Category, error) {
	out := []domain.Category{}
	err := sqlx.SelectContext(ctx, r.db, &out, `
		SELECT `+categoryCols+` FROM categories WHERE parent_id=? ORDER BY sort_order, id`, parentID)
	return out, err
}

func (r *CategoryRepo) Update(ctx context.Context, c domain.Category) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE categories SET name=?, description=?, parent_id=?, sort_order=?, is_active=? WHERE id=?`,
		c.Name, c.Description, c.ParentID, c.SortOrder, c.Active, c.ID)
	return err
}

func (r *CategoryRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id=?`, id)
	return err
}

// ProductCount counts products of any status filed under the category.
func (r *CategoryRepo) ProductCount(ctx context.Context, id int64) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, r.db, &n, `SELECT COUNT(*) FROM products WHERE category_id=?`, id)
	return n, err
}
