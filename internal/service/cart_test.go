package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/perfume-shop/internal/model"
	"github.com/mmeshcher/perfume-shop/internal/repository"
)

func requireTotalConsistent(t *testing.T, c *model.Cart) {
	t.Helper()
	require.True(t, c.TotalAmount.Equal(c.Total()), "totalAmount %s != sum of lines %s", c.TotalAmount, c.Total())
}

func TestAddToCart(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(t, repo, Options{})
	ctx := context.Background()

	seedAccount(t, repo, "9876543210")
	a := seedInventory(t, repo, "A-50", 500, 10)
	b := seedInventory(t, repo, "B-50", 300, 10)

	cart, err := svc.AddToCart(ctx, "9876543210", a.ID, 1)
	require.NoError(t, err)
	cart, err = svc.AddToCart(ctx, "9876543210", b.ID, 1)
	require.NoError(t, err)
	cart, err = svc.AddToCart(ctx, "9876543210", a.ID, 1)
	require.NoError(t, err)

	require.Equal(t, 2, cart.Count())
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, "Perfume A-50", cart.Items[0].PerfumeName)
	assert.Equal(t, "https://cdn.example/A-50.jpg", cart.Items[0].Image)
	assert.True(t, cart.TotalAmount.Equal(decimal.NewFromInt(1300)))
	requireTotalConsistent(t, cart)
}

func TestAddToCartErrors(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(t, repo, Options{})
	ctx := context.Background()

	seedAccount(t, repo, "9876543210")
	inv := seedInventory(t, repo, "A-50", 500, 10)

	_, err := svc.AddToCart(ctx, "1111111111", inv.ID, 1)
	assert.ErrorIs(t, err, repository.ErrAccountNotFound)

	_, err = svc.AddToCart(ctx, "9876543210", 999, 1)
	assert.ErrorIs(t, err, repository.ErrInventoryNotFound)

	_, err = svc.AddToCart(ctx, "9876543210", inv.ID, 0)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.AddToCart(ctx, "9876543210", inv.ID, 1<<40)
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, model.ErrQuantityTooLarge)

	assert.Empty(t, repo.carts, "failed adds must not create a cart")
}

func TestAddToCartKeepsSnapshotPrice(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(t, repo, Options{})
	ctx := context.Background()

	seedAccount(t, repo, "9876543210")
	inv := seedInventory(t, repo, "A-50", 500, 10)

	_, err := svc.AddToCart(ctx, "9876543210", inv.ID, 1)
	require.NoError(t, err)

	price := decimal.NewFromInt(800)
	_, err = svc.UpdateInventory(ctx, inv.ID, InventoryInput{SellingPrice: &price})
	require.NoError(t, err)

	cart, err := svc.GetCart(ctx, "9876543210")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.True(t, cart.Items[0].PriceAtTime.Equal(decimal.NewFromInt(500)))
	require.NotNil(t, cart.Items[0].Inventory)
	assert.True(t, cart.Items[0].Inventory.SellingPrice.Equal(price), "live variant must show the current price")
}

func TestGetCartWithoutCartIsEmpty(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(t, repo, Options{})

	seedAccount(t, repo, "9876543210")

	cart, err := svc.GetCart(context.Background(), "9876543210")
	require.NoError(t, err)
	assert.Equal(t, 0, cart.Count())
	assert.NotNil(t, cart.Items)
	assert.True(t, cart.TotalAmount.IsZero())

	_, err = svc.GetCart(context.Background(), "1111111111")
	assert.ErrorIs(t, err, repository.ErrAccountNotFound)
}

func TestGetCartIsIdempotent(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(t, repo, Options{})
	ctx := context.Background()

	seedAccount(t, repo, "9876543210")
	inv := seedInventory(t, repo, "A-50", 500, 10)
	_, err := svc.AddToCart(ctx, "9876543210", inv.ID, 3)
	require.NoError(t, err)

	first, err := svc.GetCart(ctx, "9876543210")
	require.NoError(t, err)
	second, err := svc.GetCart(ctx, "9876543210")
	require.NoError(t, err)

	assert.Equal(t, first.Items, second.Items)
	assert.True(t, first.TotalAmount.Equal(second.TotalAmount))
}

func TestAddThenRemoveLeavesEmptyCart(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(t, repo, Options{})
	ctx := context.Background()

	seedAccount(t, repo, "9876543210")
	inv := seedInventory(t, repo, "A-50", 500, 10)

	_, err := svc.AddToCart(ctx, "9876543210", inv.ID, 2)
	require.NoError(t, err)

	cart, err := svc.RemoveFromCart(ctx, "9876543210", inv.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, cart.Count())
	assert.True(t, cart.TotalAmount.IsZero())
}

func TestRemoveFromCartWithoutCart(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(t, repo, Options{})

	seedAccount(t, repo, "9876543210")

	_, err := svc.RemoveFromCart(context.Background(), "9876543210", 1)
	assert.ErrorIs(t, err, repository.ErrCartNotFound)
}

func TestAdjustCartQuantity(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(t, repo, Options{})
	ctx := context.Background()

	seedAccount(t, repo, "9876543210")
	a := seedInventory(t, repo, "A-50", 500, 10)
	b := seedInventory(t, repo, "B-50", 300, 10)

	_, err := svc.AddToCart(ctx, "9876543210", a.ID, 1)
	require.NoError(t, err)
	_, err = svc.AddToCart(ctx, "9876543210", b.ID, 1)
	require.NoError(t, err)

	cart, err := svc.AdjustCartQuantity(ctx, "9876543210", b.ID, CartIncrease)
	require.NoError(t, err)
	assert.Equal(t, 2, cart.Items[1].Quantity)
	requireTotalConsistent(t, cart)

	cart, err = svc.AdjustCartQuantity(ctx, "9876543210", a.ID, CartDecrease)
	require.NoError(t, err)
	require.Equal(t, 1, cart.Count(), "line with quantity 1 must be removed on decrease")
	assert.Equal(t, b.ID, cart.Items[0].InventoryID)
	assert.True(t, cart.TotalAmount.Equal(decimal.NewFromInt(600)))

	_, err = svc.AdjustCartQuantity(ctx, "9876543210", a.ID, CartDecrease)
	assert.ErrorIs(t, err, model.ErrCartItemNotFound)

	_, err = svc.AdjustCartQuantity(ctx, "9876543210", b.ID, "double")
	assert.ErrorIs(t, err, ErrValidation)
}
