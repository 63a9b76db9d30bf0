package services_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesdesk/internal/domain"
	"salesdesk/internal/services"
)

func TestProductLifecycle(t *testing.T) {
	db := memdb(t)
	ctx := context.Background()
	admin := seedUser(t, db, "admin@shop.ht", domain.RoleAdmin).Caller()
	seller := seedUser(t, db, "seller@shop.ht", domain.RoleSeller).Caller()
	svc := services.NewProductService(db)

	in := services.ProductInput{
		Name: " Pressure cooker ", Category: "kitchen",
		PurchasePrice: decimal.RequireFromString("30"), SellingPrice: decimal.RequireFromString("55.50"),
		Discount: decimal.RequireFromString("10"), Stock: 4, Images: []string{"cooker.jpg"},
	}
	_, err := svc.Create(ctx, seller, in)
	var fe *domain.ForbiddenError
	require.ErrorAs(t, err, &fe)

	p, err := svc.Create(ctx, admin, in)
	require.NoError(t, err)
	assert.Equal(t, "Pressure cooker", p.Name)
	assert.True(t, p.Active)

	in.SellingPrice = decimal.RequireFromString("60")
	in.Stock = 99
	p, err = svc.Update(ctx, admin, p.ID, in)
	require.NoError(t, err)
	assert.Equal(t, 4, p.Stock, "update must not touch stock")

	p, err = svc.SetStock(ctx, admin, p.ID, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, 10, p.Stock)

	stale := 4
	_, err = svc.SetStock(ctx, admin, p.ID, 12, &stale)
	var ce *domain.ConflictError
	require.ErrorAs(t, err, &ce)

	current := 10
	p, err = svc.SetStock(ctx, admin, p.ID, 12, &current)
	require.NoError(t, err)
	assert.Equal(t, 12, p.Stock)

	require.NoError(t, svc.Delete(ctx, admin, p.ID))
	_, err = svc.Get(ctx, seller, p.ID)
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	got, err := svc.Get(ctx, admin, p.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	visible, err := svc.List(ctx, seller)
	require.NoError(t, err)
	assert.Empty(t, visible)
	all, err := svc.List(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestProductValidation(t *testing.T) {
	db := memdb(t)
	admin := seedUser(t, db, "admin@shop.ht", domain.RoleAdmin).Caller()
	svc := services.NewProductService(db)
	ok := services.ProductInput{Name: "Fan", Category: "home", SellingPrice: decimal.NewFromInt(20)}

	cases := map[string]func(*services.ProductInput){
		"name":          func(in *services.ProductInput) { in.Name = "" },
		"category":      func(in *services.ProductInput) { in.Category = " " },
		"selling_price": func(in *services.ProductInput) { in.SellingPrice = decimal.NewFromInt(-1) },
		"discount":      func(in *services.ProductInput) { in.Discount = decimal.NewFromInt(101) },
		"stock":         func(in *services.ProductInput) { in.Stock = -1 },
	}
	for field, mutate := range cases {
		in := ok
		mutate(&in)
		_, err := svc.Create(context.Background(), admin, in)
		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve, field)
		assert.Equal(t, field, ve.Field)
	}
}
