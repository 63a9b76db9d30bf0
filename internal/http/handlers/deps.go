package handlers

import (
	"github.com/jmoiron/sqlx"

	"salesdesk/internal/config"
	"salesdesk/internal/invoice"
	"salesdesk/internal/metrics"
	"salesdesk/internal/notify"
	"salesdesk/internal/repos"
	"salesdesk/internal/security"
	"salesdesk/internal/services"
)

type Deps struct {
	Auth *services.AuthService

	AuthHandler    *AuthHandler
	ProductHandler *ProductHandler
	SaleHandler    *SaleHandler
	SellerHandler  *SellerHandler
	StatsHandler   *StatsHandler
	HistoryHandler *HistoryHandler
	ExportHandler  *ExportHandler

	Metrics        *metrics.Metrics
	TrustedProxies []string
}

func NewDeps(db *sqlx.DB, cfg config.Config, notifier notify.Notifier, throttle security.Throttle, m *metrics.Metrics) *Deps {
	userRepo := repos.NewUserRepo(db)
	historyRepo := repos.NewLoginHistoryRepo(db)

	policy := services.DefaultLoginPolicy()
	policy.OddHourAfter = cfg.OddHourAfter
	policy.OddHourBefore = cfg.OddHourBefore
	policy.DeviceWindow = cfg.DeviceWindow
	policy.SessionTTL = cfg.SessionTTL

	authSvc := &services.AuthService{
		Users:         userRepo,
		History:       historyRepo,
		Throttle:      throttle,
		Blocklist:     security.NewIPBlocklist(cfg.BlockedIPs),
		Notifier:      notifier,
		NotifyTimeout: cfg.NotifyTimeout,
		Policy:        policy,
	}
	sellerSvc := &services.SellerService{Users: userRepo, BcryptCost: cfg.BcryptCost}

	saleSvc := services.NewSaleService(db, invoice.New(cfg.InvoicePrefix), notifier)
	saleSvc.Metrics = m
	saleSvc.NotifyTimeout = cfg.NotifyTimeout
	if cfg.InvoiceMaxAttempts > 0 {
		saleSvc.MaxAttempts = cfg.InvoiceMaxAttempts
	}

	productSvc := services.NewProductService(db)
	statsSvc := services.NewStatsService(db)
	exportSvc := services.NewExportService(db)

	return &Deps{
		Auth:           authSvc,
		AuthHandler:    &AuthHandler{Auth: authSvc, Sellers: sellerSvc},
		ProductHandler: &ProductHandler{Products: productSvc},
		SaleHandler:    &SaleHandler{Sales: saleSvc, Stats: statsSvc, Exports: exportSvc},
		SellerHandler:  &SellerHandler{Sellers: sellerSvc},
		StatsHandler:   &StatsHandler{Stats: statsSvc},
		HistoryHandler: &HistoryHandler{History: &services.LoginHistoryService{History: historyRepo}},
		ExportHandler:  &ExportHandler{Exports: exportSvc},
		Metrics:        m,
		TrustedProxies: cfg.TrustedProxies,
	}
}
