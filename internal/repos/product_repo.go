package repos

import (
	"context"
	"strings"

	"storefront/internal/domain"

	"github.com/jmoiron/sqlx"
)

type ProductRepo struct{ db sqlx.ExtContext }

func NewProductRepo(db sqlx.ExtContext) *ProductRepo { return &ProductRepo{db: db} }

const productCols = `id,name,description,short_description,price,original_price,stock,category_id,
	main_image_url,image_urls,is_top,status,sales_count,view_count,created_at,updated_at`

type ProductFilter struct {
	Keyword     string
	CategoryIDs []int64
	TopOnly     bool
	Status      domain.ProductStatus // empty = any
	Sort        string               // newest | price_asc | price_desc | sales
	Limit       int
	Offset      int
}

func (f ProductFilter) where() (string, []any) {
	where := []string{"1=1"}
	args := []any{}
	if f.Keyword != "" {
		where = append(where, `(LOWER(name) LIKE ? OR LOWER(description) LIKE ?)`)
		k := "%" + strings.ToLower(f.Keyword) + "%"
		args = append(args, k, k)
	}
	if len(f.CategoryIDs) > 0 {
		where = append(where, `category_id IN (?`+strings.Repeat(",?", len(f.CategoryIDs)-1)+`)`)
		for _, id := range f.CategoryIDs {
			args = append(args, id)
		}
	}
	if f.TopOnly {
		where = append(where, `is_top = 1`)
	}
	if f.Status != "" {
		where = append(where, `status = ?`)
		args = append(args, f.Status)
	}
	return strings.Join(where, " AND "), args
}

func (f ProductFilter) orderBy() string {
	switch f.Sort {
	case "price_asc":
		return `CAST(price AS REAL) ASC, id DESC`
	case "price_desc":
		return `CAST(price AS REAL) DESC, id DESC`
	case "sales":
		return `sales_count DESC, id DESC`
	default:
		return `created_at DESC, id DESC`
	}
}

func (r *ProductRepo) List(ctx context.Context, f ProductFilter) ([]domain.Product, int, error) {
	where, args := f.where()
	var total int
	if err := sqlx.GetContext(ctx, r.db, &total, `SELECT COUNT(*) FROM products WHERE `+where, args...); err != nil {
		return nil, 0, err
	}
	if f.Limit <= 0 {
		f.Limit = 20
	}
	out := []domain.Product{}
	err := sqlx.SelectContext(ctx, r.db, &out, `
		SELECT `+productCols+` FROM products
		WHERE `+where+`
		ORDER BY `+f.orderBy()+`
		LIMIT ? OFFSET ?`, append(args, f.Limit, f.Offset)...)
	return out, total, err
}

func (r *ProductRepo) Get(ctx context.Context, id int64) (domain.Product, error) {
	var p domain.Product
	err := sqlx.GetContext(ctx, r.db, &p, `SELECT `+productCols+` FROM products WHERE id=?`, id)
	return p, err
}

// ByIDs returns the products with the given ids keyed by id.
func (r *ProductRepo) ByIDs(ctx context.Context, ids []int64) (map[int64]domain.Product, error) {
	out := map[int64]domain.Product{}
	if len(ids) == 0 {
		return out, nil
	}
	q, args, err := sqlx.In(`SELECT `+productCols+` FROM products WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var rows []domain.Product
	if err := sqlx.SelectContext(ctx, r.db, &rows, q, args...); err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}

func (r *ProductRepo) Create(ctx context.Context, p domain.Product) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO products(name,description,short_description,price,original_price,stock,category_id,
		                     main_image_url,image_urls,is_top,status)
		VALUES(?,?,?,?,?,?,?,?,?,?,?)`,
		p.Name, p.Description, p.ShortDescription, p.Price, p.OriginalPrice, p.Stock, p.CategoryID,
		p.MainImageURL, p.ImageURLsJSON, p.IsTop, p.Status)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Update overwrites the editable columns. Stock is managed through
// InventoryRepo.
func (r *ProductRepo) Update(ctx context.Context, p domain.Product) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET name=?, description=?, short_description=?, price=?, original_price=?, category_id=?,
		    main_image_url=?, image_urls=?, is_top=?, status=?, updated_at=CURRENT_TIMESTAMP
		WHERE id=?`,
		p.Name, p.Description, p.ShortDescription, p.Price, p.OriginalPrice, p.CategoryID,
		p.MainImageURL, p.ImageURLsJSON, p.IsTop, p.Status, p.ID)
	return err
}

func (r *ProductRepo) SetStatus(ctx context.Context, id int64, status domain.ProductStatus) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE products SET status=?, updated_at=CURRENT_TIMESTAMP WHERE id=?`, status, id)
	if err != nil {
		return false, err
	}
	return affected(res) > 0, nil
}

func (r *ProductRepo) IncrementViews(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE products SET view_count = view_count + 1 WHERE id=?`, id)
	return err
}

func (r *ProductRepo) Params(ctx context.Context, productID int64) ([]domain.ProductParam, error) {
	out := []domain.ProductParam{}
	err := sqlx.SelectContext(ctx, r.db, &out, `
		SELECT id,product_id,name,value,sort_order FROM product_params
		WHERE product_id=? ORDER BY sort_order, id`, productID)
	return out, err
}

// ReplaceParams swaps the full parameter list of a product.
func (r *ProductRepo) ReplaceParams(ctx context.Context, productID int64, params []domain.ProductParam) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM product_params WHERE product_id=?`, productID); err != nil {
		return err
	}
	for i, p := range params {
		if _, err := r.db.ExecContext(ctx, `
			INSERT INTO product_params(product_id,name,value,sort_order) VALUES(?,?,?,?)`,
			productID, p.Name, p.Value, i); err != nil {
			return err
		}
	}
	return nil
}

func (r *ProductRepo) Tags(ctx context.Context, productID int64) ([]domain.Tag, error) {
	out := []domain.Tag{}
	err := sqlx.SelectContext(ctx, r.db, &out, `
		SELECT t.id, t.name, t.color FROM tags t
		JOIN product_tags pt ON pt.tag_id = t.id
		WHERE pt.product_id=? ORDER BY t.id`, productID)
	return out, err
}

func (r *ProductRepo) ReplaceTags(ctx context.Context, productID int64, tagIDs []int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM product_tags WHERE product_id=?`, productID); err != nil {
		return err
	}
	for _, id := range tagIDs {
		if _, err := r.db.ExecContext(ctx, `
			INSERT INTO product_tags(product_id,tag_id) VALUES(?,?) ON CONFLICT DO NOTHING`, productID, id); err != nil {
			return err
		}
	}
	return nil
}

// Related returns published products other than p, those of p's category
// first, best sellers first within each group.
func (r *ProductRepo) Related(ctx context.Context, p domain.Product, limit int) ([]domain.Product, error) {
	out := []domain.Product{}
	err := sqlx.SelectContext(ctx, r.db, &out, `
		SELECT `+productCols+` FROM products
		WHERE status = 'published' AND id <> ?
		ORDER BY (category_id = ?) DESC, sales_count DESC, id
		LIMIT ?`, p.ID, p.CategoryID, limit)
	return out, err
}

// MatchAny returns published products whose name contains any of the
// words.
func (r *ProductRepo) MatchAny(ctx context.Context, words []string, limit int) ([]domain.Product, error) {
	out := []domain.Product{}
	if len(words) == 0 {
		return out, nil
	}
	conds := make([]string, 0, len(words))
	args := make([]any, 0, len(words)+1)
	for _, w := range words {
		conds = append(conds, `LOWER(name) LIKE ?`)
		args = append(args, "%"+strings.ToLower(w)+"%")
	}
	args = append(args, limit)
	err := sqlx.SelectContext(ctx, r.db, &out, `
		SELECT `+productCols+` FROM products
		WHERE status = 'published' AND (`+strings.Join(conds, " OR ")+`)
		ORDER BY sales_count DESC, id LIMIT ?`, args...)
	return out, err
}
