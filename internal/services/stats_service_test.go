package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"salesdesk/internal/domain"
	"salesdesk/internal/repos"
	"salesdesk/internal/services"
)

func TestPeriodStart(t *testing.T) {
	now := time.Date(2026, 5, 14, 9, 30, 0, 0, time.UTC)
	cases := map[string]time.Time{
		"day":   time.Date(2026, 5, 14, 0, 0, 0, 0, time.UTC),
		"week":  time.Date(2026, 5, 7, 0, 0, 0, 0, time.UTC),
		"month": time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		"year":  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for period, want := range cases {
		got, err := services.PeriodStart(period, now)
		require.NoError(t, err)
		assert.True(t, want.Equal(*got), period)
	}
	all, err := services.PeriodStart("all", now)
	require.NoError(t, err)
	assert.Nil(t, all)

	_, err = services.PeriodStart("decade", now)
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestSalesStatsAndDashboard(t *testing.T) {
	f := newSaleFixture(t)
	ctx := context.Background()
	a := seedProduct(t, f.db, "Blender", "100.00", "10", 10)
	b := seedProduct(t, f.db, "Toaster", "60.00", "0", 10)

	_, err := f.svc.Create(ctx, f.seller, customer, []domain.ItemRequest{{ProductID: a.ID, Quantity: 3}}, domain.PayCash)
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.seller, customer, []domain.ItemRequest{{ProductID: b.ID, Quantity: 1}}, domain.PayVisa)
	require.NoError(t, err)
	dropped, err := f.svc.Create(ctx, f.seller, customer, []domain.ItemRequest{{ProductID: b.ID, Quantity: 5}}, domain.PayVisa)
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, f.admin, dropped.Sale.ID, "returned")
	require.NoError(t, err)

	stats := services.NewStatsService(f.db)
	all, err := stats.SalesStats(ctx, f.admin, "all", "")
	require.NoError(t, err)
	assert.Equal(t, 2, all.Summary.Count)
	assert.Equal(t, "330.00", all.Summary.Revenue.StringFixed(2))
	assert.Equal(t, "165.00", all.Average.StringFixed(2))
	assert.Equal(t, "60.00", all.Summary.Min.StringFixed(2))
	assert.Equal(t, "270.00", all.Summary.Max.StringFixed(2))
	assert.Len(t, all.Methods, 2)
	require.NotEmpty(t, all.TopProducts)
	assert.Equal(t, a.ID, all.TopProducts[0].ProductID)

	mine, err := stats.SalesStats(ctx, f.seller, "day", "")
	require.NoError(t, err)
	assert.Equal(t, f.seller.ID, mine.SellerID)
	assert.Equal(t, 2, mine.Summary.Count)

	_, err = stats.SalesStats(ctx, f.seller, "month", f.admin.ID)
	var fe *domain.ForbiddenError
	require.ErrorAs(t, err, &fe)

	dash, err := stats.Dashboard(ctx, f.admin)
	require.NoError(t, err)
	assert.Equal(t, 1, dash.Sellers.Total)
	assert.Equal(t, 2, dash.Products.Total)
	require.Len(t, dash.Daily, 1)
	assert.Equal(t, 2, dash.Daily[0].Count)
	assert.Equal(t, "330.00", dash.Daily[0].Revenue.StringFixed(2))
	require.Len(t, dash.Performance, 1)
	assert.Equal(t, 2, dash.Performance[0].Sales)
	assert.Equal(t, 2, dash.Month.Summary.Count)

	_, err = stats.Dashboard(ctx, f.seller)
	require.ErrorAs(t, err, &fe)
}

func TestSellerManagement(t *testing.T) {
	db := memdb(t)
	ctx := context.Background()
	admin := seedUser(t, db, "admin@shop.ht", domain.RoleAdmin).Caller()
	svc := &services.SellerService{Users: repos.NewUserRepo(db), BcryptCost: bcrypt.MinCost}

	nif := "001-234-567-8"
	s, err := svc.Create(ctx, admin, services.NewUser{Email: "ti@shop.ht", Password: "secret1", Name: "Ti Jean", NIF: nif})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSeller, s.Role)
	assert.Equal(t, nif, s.NIF)

	_, err = svc.Create(ctx, admin, services.NewUser{Email: "other@shop.ht", Password: "secret1", Name: "Other", NIF: nif})
	var ce *domain.ConflictError
	require.ErrorAs(t, err, &ce)

	_, err = svc.Create(ctx, admin, services.NewUser{Email: "short@shop.ht", Password: "12345", Name: "Short"})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "password", ve.Field)

	seller := domain.Caller{ID: s.ID, Role: domain.RoleSeller}
	_, err = svc.Create(ctx, seller, services.NewUser{Email: "x@shop.ht", Password: "secret1", Name: "X"})
	var fe *domain.ForbiddenError
	require.ErrorAs(t, err, &fe)

	name := "Ti Jean Baptiste"
	pw := "newsecret"
	up, err := svc.Update(ctx, admin, s.ID, services.UserUpdate{Name: &name, Password: &pw})
	require.NoError(t, err)
	assert.Equal(t, name, up.Name)
	stored, err := repos.NewUserRepo(db).ByID(ctx, s.ID)
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Hash), []byte(pw)))

	off, err := svc.SetStatus(ctx, admin, s.ID, false)
	require.NoError(t, err)
	assert.False(t, off.Active)

	_, err = svc.SetStatus(ctx, admin, admin.ID, false)
	require.ErrorAs(t, err, &ve)

	list, err := svc.List(ctx, admin)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = svc.Get(ctx, admin, "missing")
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
}
