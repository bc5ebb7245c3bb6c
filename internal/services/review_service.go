package services

import (
	"context"
	"errors"
	"math"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/repos"

	"github.com/jmoiron/sqlx"
)

type ReviewService struct {
	DB *sqlx.DB
}

func NewReviewService(db *sqlx.DB) *ReviewService { return &ReviewService{DB: db} }

type ReviewUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
}

type ReviewView struct {
	ID           int64      `json:"id"`
	User         ReviewUser `json:"user"`
	ProductID    int64      `json:"product_id"`
	ProductName  string     `json:"product_name,omitempty"`
	ProductImage string     `json:"product_image,omitempty"`
	OrderID      int64      `json:"order_id"`
	Rating       int        `json:"rating"`
	Content      string     `json:"content"`
	ImageURLs    []string   `json:"image_urls"`
	IsApproved   bool       `json:"is_approved"`
	LikeCount    int        `json:"like_count"`
	IsLiked      bool       `json:"is_liked"`
	CreatedAt    string     `json:"created_at"`
}

// MaskName keeps the first three characters of a username.
func MaskName(name string) string {
	r := []rune(name)
	if len(r) > 3 {
		r = r[:3]
	}
	return string(r) + "***"
}

func newReviewView(r domain.Review, mask bool) ReviewView {
	name := r.Username
	if mask {
		name = MaskName(name)
	}
	return ReviewView{
		ID:   r.ID,
		User: ReviewUser{ID: r.UserID, Username: name, AvatarURL: r.AvatarURL},
		ProductID: r.ProductID, ProductName: r.ProductName, ProductImage: r.ProductImage,
		OrderID: r.OrderID, Rating: r.Rating, Content: r.Content, ImageURLs: parseURLs(r.ImageURLsJSON),
		IsApproved: r.Approved, LikeCount: r.LikeCount, IsLiked: r.Liked, CreatedAt: r.CreatedAt,
	}
}

type ReviewInput struct {
	OrderID   int64    `json:"order_id" validate:"required,gt=0"`
	Rating    int      `json:"rating" validate:"required,min=1,max=5"`
	Content   string   `json:"content" validate:"required,max=1000"`
	ImageURLs []string `json:"image_urls" validate:"max=9"`
}

var reviewableStatus = map[domain.OrderStatus]bool{
	domain.OrderShipped:   true,
	domain.OrderCompleted: true,
}

// Create posts a review. The caller must own a shipped or completed order
// containing the product, and may review each (product, order) once.
func (s *ReviewService) Create(ctx context.Context, userID, productID int64, in ReviewInput) (ReviewView, error) {
	var id int64
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		if _, err := repos.NewProductRepo(tx).Get(ctx, productID); err != nil {
			if errors.Is(err, repos.ErrNotFound) {
				return NotFound(MsgProductNotFound)
			}
			return err
		}
		o, err := load(ctx, tx, userID, in.OrderID)
		if err != nil {
			if KindOf(err) == KindNotFound {
				return Invalid("only received purchases can be reviewed")
			}
			return err
		}
		bought, err := repos.NewOrderRepo(tx).ContainsProduct(ctx, o.ID, productID)
		if err != nil {
			return err
		}
		if !reviewableStatus[o.Status] || !bought {
			return Invalid("only received purchases can be reviewed")
		}
		reviews := repos.NewReviewRepo(tx)
		dup, err := reviews.Exists(ctx, userID, productID, o.ID)
		if err != nil {
			return err
		}
		if dup {
			return Invalid("this product has already been reviewed for this order")
		}
		id, err = reviews.Create(ctx, domain.Review{
			UserID: userID, ProductID: productID, OrderID: o.ID, Rating: in.Rating,
			Content: strings.TrimSpace(in.Content), ImageURLsJSON: encodeURLs(in.ImageURLs), Approved: true,
		})
		if repos.IsUniqueViolation(err) {
			return Invalid("this product has already been reviewed for this order")
		}
		return err
	})
	if err != nil {
		return ReviewView{}, err
	}
	r, err := repos.NewReviewRepo(s.DB).Get(ctx, id, userID)
	if err != nil {
		return ReviewView{}, err
	}
	return newReviewView(r, false), nil
}

type ProductReviews struct {
	Summary domain.ReviewSummary `json:"summary"`
	List    []ReviewView         `json:"list"`
	Total   int                  `json:"total"`
}

// ForProduct lists approved reviews with masked usernames and the
// aggregate over approved reviews only.
func (s *ReviewService) ForProduct(ctx context.Context, productID, viewerID int64, rating, limit, offset int) (ProductReviews, error) {
	if _, err := repos.NewProductRepo(s.DB).Get(ctx, productID); err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			return ProductReviews{}, NotFound(MsgProductNotFound)
		}
		return ProductReviews{}, err
	}
	reviews := repos.NewReviewRepo(s.DB)
	approved := true
	rows, total, err := reviews.List(ctx, repos.ReviewFilter{
		ProductID: productID, Rating: rating, Approved: &approved, ViewerID: viewerID, Limit: limit, Offset: offset,
	})
	if err != nil {
		return ProductReviews{}, err
	}
	sum, err := reviews.Summary(ctx, productID)
	if err != nil {
		return ProductReviews{}, err
	}
	sum.AverageRating = math.Round(sum.AverageRating*10) / 10
	out := ProductReviews{Summary: sum, Total: total, List: make([]ReviewView, 0, len(rows))}
	for _, r := range rows {
		out.List = append(out.List, newReviewView(r, true))
	}
	return out, nil
}

func (s *ReviewService) Mine(ctx context.Context, userID int64, limit, offset int) ([]ReviewView, int, error) {
	rows, total, err := repos.NewReviewRepo(s.DB).List(ctx, repos.ReviewFilter{
		UserID: userID, ViewerID: userID, Limit: limit, Offset: offset,
	})
	if err != nil {
		return nil, 0, err
	}
	out := make([]ReviewView, 0, len(rows))
	for _, r := range rows {
		out = append(out, newReviewView(r, false))
	}
	return out, total, nil
}

func (s *ReviewService) Pending(ctx context.Context, userID int64) ([]repos.ReviewableItem, error) {
	return repos.NewOrderRepo(s.DB).ReviewableItems(ctx, userID)
}

func (s *ReviewService) Like(ctx context.Context, userID, reviewID int64) error {
	return repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		reviews := repos.NewReviewRepo(tx)
		if _, err := reviews.Get(ctx, reviewID, userID); err != nil {
			if errors.Is(err, repos.ErrNotFound) {
				return NotFound(MsgReviewNotFound)
			}
			return err
		}
		ok, err := reviews.Like(ctx, reviewID, userID)
		if err != nil {
			return err
		}
		if !ok {
			return Invalid("review already liked")
		}
		return nil
	})
}

func (s *ReviewService) Unlike(ctx context.Context, userID, reviewID int64) error {
	return repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		ok, err := repos.NewReviewRepo(tx).Unlike(ctx, reviewID, userID)
		if err != nil {
			return err
		}
		if !ok {
			return Invalid("review not liked")
		}
		return nil
	})
}

type AdminReviewQuery struct {
	ProductID int64
	Approved  *bool
	Limit     int
	Offset    int
}

// AdminList shows every review, approved or not, with real usernames.
func (s *ReviewService) AdminList(ctx context.Context, q AdminReviewQuery) ([]ReviewView, int, error) {
	rows, total, err := repos.NewReviewRepo(s.DB).List(ctx, repos.ReviewFilter{
		ProductID: q.ProductID, Approved: q.Approved, Limit: q.Limit, Offset: q.Offset,
	})
	if err != nil {
		return nil, 0, err
	}
	out := make([]ReviewView, 0, len(rows))
	for _, r := range rows {
		out = append(out, newReviewView(r, false))
	}
	return out, total, nil
}

func (s *ReviewService) SetApproved(ctx context.Context, id int64, approved bool) error {
	ok, err := repos.NewReviewRepo(s.DB).SetApproved(ctx, id, approved)
	if err != nil {
		return err
	}
	if !ok {
		return NotFound(MsgReviewNotFound)
	}
	return nil
}

func (s *ReviewService) Delete(ctx context.Context, id int64) error {
	ok, err := repos.NewReviewRepo(s.DB).Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return NotFound(MsgReviewNotFound)
	}
	return nil
}
