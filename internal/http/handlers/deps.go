package handlers

import (
	"storefront/internal/config"
	"storefront/internal/mail"
	"storefront/internal/services"
	"storefront/internal/storage"

	"github.com/jmoiron/sqlx"
)

type Deps struct {
	Auth *services.AuthService

	AuthHandler         *AuthHandler
	UserHandler         *UserHandler
	AddressHandler      *AddressHandler
	CategoryHandler     *CategoryHandler
	ProductHandler      *ProductHandler
	InventoryHandler    *InventoryHandler
	CartHandler         *CartHandler
	OrderHandler        *OrderHandler
	RefundHandler       *RefundHandler
	ReviewHandler       *ReviewHandler
	FavoriteHandler     *FavoriteHandler
	NotificationHandler *NotificationHandler
	DashboardHandler    *DashboardHandler
	UploadHandler       *UploadHandler
	AIHandler           *AIHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, store storage.Store) *Deps {
	tokens := services.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL)
	authSvc := services.NewAuthService(db, tokens)
	authSvc.ResetURL = cfg.Mail.ResetURL
	if m := mail.New(cfg.Mail); m != nil {
		authSvc.Mail = m
	}
	catalogSvc := services.NewCatalogService(db)
	orderSvc := services.NewOrderService(db, cfg.PaymentBaseURL)
	refundSvc := services.NewRefundService(db)

	return &Deps{
		Auth: authSvc,

		AuthHandler:         &AuthHandler{Auth: authSvc, Debug: cfg.Debug},
		UserHandler:         &UserHandler{Users: services.NewUserService(db)},
		AddressHandler:      &AddressHandler{Addresses: services.NewAddressService(db)},
		CategoryHandler:     &CategoryHandler{Catalog: catalogSvc},
		ProductHandler:      &ProductHandler{Catalog: catalogSvc},
		InventoryHandler:    &InventoryHandler{Inv: services.NewInventoryService(db)},
		CartHandler:         &CartHandler{Cart: services.NewCartService(db)},
		OrderHandler:        &OrderHandler{Orders: orderSvc, Refunds: refundSvc},
		RefundHandler:       &RefundHandler{Refunds: refundSvc},
		ReviewHandler:       &ReviewHandler{Reviews: services.NewReviewService(db)},
		FavoriteHandler:     &FavoriteHandler{Favorites: services.NewFavoriteService(db)},
		NotificationHandler: &NotificationHandler{Notes: services.NewNotificationService(db)},
		DashboardHandler:    &DashboardHandler{Dashboard: services.NewDashboardService(db)},
		UploadHandler:       &UploadHandler{Uploads: services.NewUploadService(store)},
		AIHandler:           &AIHandler{AI: services.NewAIService(db, cfg.AI)},
	}
}
