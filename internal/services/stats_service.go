package services

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"salesdesk/internal/domain"
	"salesdesk/internal/repos"
)

var Periods = []string{"day", "week", "month", "year", "all"}

// PeriodStart returns the first instant of period relative to now (UTC),
// or nil for "all".
func PeriodStart(period string, now time.Time) (*time.Time, error) {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	var t time.Time
	switch period {
	case "day":
		t = today
	case "week":
		t = today.AddDate(0, 0, -7)
	case "month", "":
		t = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	case "year":
		t = time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	case "all":
		return nil, nil
	default:
		return nil, &domain.ValidationError{Field: "period", Reason: "must be day, week, month, year or all"}
	}
	return &t, nil
}

type SalesStats struct {
	Period      string                  `json:"period"`
	SellerID    string                  `json:"seller_id,omitempty"`
	Summary     repos.SalesSummary      `json:"summary"`
	Average     decimal.Decimal         `json:"average"`
	Methods     []repos.MethodBreakdown `json:"payment_methods"`
	TopProducts []repos.ProductSales    `json:"top_products"`
}

type DailySales struct {
	Date    string          `json:"date"`
	Count   int             `json:"count"`
	Revenue decimal.Decimal `json:"revenue"`
}

type Dashboard struct {
	Sellers     repos.SellerCounts        `json:"sellers"`
	TopProducts []repos.ProductSales      `json:"top_products"`
	Performance []repos.SellerPerformance `json:"seller_performance"`
	Products    repos.ProductStats        `json:"products"`
	Categories  []repos.CategoryStat      `json:"categories"`
	Daily       []DailySales              `json:"daily_sales"`
	Month       SalesStats                `json:"month"`
}

type StatsService struct {
	Stats *repos.StatsRepo
	Now   func() time.Time
}

func NewStatsService(db *sqlx.DB) *StatsService {
	return &StatsService{Stats: repos.NewStatsRepo(db), Now: time.Now}
}

func (s *StatsService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

// SalesStats aggregates non-cancelled sales of a period. Sellers always get
// their own numbers; only admins may pick a seller or see everyone.
func (s *StatsService) SalesStats(ctx context.Context, caller domain.Caller, period, sellerID string) (*SalesStats, error) {
	if !caller.IsAdmin() {
		if sellerID != "" && sellerID != caller.ID {
			return nil, &domain.ForbiddenError{Action: "read another seller's statistics"}
		}
		sellerID = caller.ID
	}
	if period == "" {
		period = "month"
	}
	since, err := PeriodStart(period, s.now())
	if err != nil {
		return nil, err
	}
	f := repos.StatsFilter{Since: since, SellerID: sellerID}

	out := &SalesStats{Period: period, SellerID: sellerID}
	if out.Summary, err = s.Stats.Summary(ctx, f); err != nil {
		return nil, err
	}
	if out.Methods, err = s.Stats.ByPaymentMethod(ctx, f); err != nil {
		return nil, err
	}
	if out.TopProducts, err = s.Stats.TopProducts(ctx, f, 10); err != nil {
		return nil, err
	}
	out.Average = decimal.Zero
	if out.Summary.Count > 0 {
		out.Average = out.Summary.Revenue.Div(decimal.NewFromInt(int64(out.Summary.Count))).Round(2)
	}
	return out, nil
}

// Dashboard gathers the admin overview. The queries are independent and
// run concurrently.
func (s *StatsService) Dashboard(ctx context.Context, caller domain.Caller) (*Dashboard, error) {
	if !caller.IsAdmin() {
		return nil, &domain.ForbiddenError{Action: "read dashboard"}
	}
	now := s.now()
	monthStart, _ := PeriodStart("month", now)
	dailyFrom := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -29)

	var (
		d      Dashboard
		totals []repos.SaleTotal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.Sellers, err = s.Stats.SellerCounts(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.TopProducts, err = s.Stats.TopProducts(gctx, repos.StatsFilter{}, 10)
		return err
	})
	g.Go(func() (err error) {
		d.Performance, err = s.Stats.SellerPerformance(gctx, monthStart)
		return err
	})
	g.Go(func() (err error) {
		d.Products, err = s.Stats.ProductStats(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.Categories, err = s.Stats.Categories(gctx)
		return err
	})
	g.Go(func() (err error) {
		totals, err = s.Stats.SaleTotals(gctx, repos.StatsFilter{Since: &dailyFrom})
		return err
	})
	g.Go(func() error {
		m, err := s.SalesStats(gctx, caller, "month", "")
		if err != nil {
			return err
		}
		d.Month = *m
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	d.Daily = bucketDaily(totals)
	return &d, nil
}

func (s *StatsService) CategoryStats(ctx context.Context) ([]repos.CategoryStat, error) {
	return s.Stats.Categories(ctx)
}

// bucketDaily groups sale totals by UTC calendar day. Input is ordered by
// time, so the output is too.
func bucketDaily(totals []repos.SaleTotal) []DailySales {
	out := []DailySales{}
	for _, t := range totals {
		day := t.CreatedAt.UTC().Format("2006-01-02")
		if n := len(out); n > 0 && out[n-1].Date == day {
			out[n-1].Count++
			out[n-1].Revenue = out[n-1].Revenue.Add(t.Total)
			continue
		}
		out = append(out, DailySales{Date: day, Count: 1, Revenue: t.Total})
	}
	return out
}
