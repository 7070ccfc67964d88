package repository_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/infra/db"
	"storefront/internal/infra/notify"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

// =====================
// 実DBの行ロックとupsertを同時実行で確かめる。INTEGRATION=1 のときだけ動く
// =====================

const workers = 8

type shopDB struct {
	db    *gorm.DB
	cart  *usecase.CartUsecase
	order *usecase.OrderUsecase
}

func startShopDB(t *testing.T) shopDB {
	t.Helper()
	if os.Getenv("INTEGRATION") != "1" {
		t.Skip("set INTEGRATION=1 to run against a postgres container")
	}
	ctx := context.Background()

	pg, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("storefront"),
		postgres.WithUsername("app"),
		postgres.WithPassword("app"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, pg)
	require.NoError(t, err)

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	log := zaptest.NewLogger(t)
	gormDB, err := db.Connect(dsn)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx, gormDB, log))

	txm := infraRepo.NewTxManagerGorm(gormDB)
	products := infraRepo.NewProductGormRepository(gormDB)
	coupons := infraRepo.NewCouponGormRepository(gormDB)
	validator := usecase.NewCouponValidator(nil)

	return shopDB{
		db: gormDB,
		cart: usecase.NewCartUsecase(txm,
			infraRepo.NewCartGormRepository(gormDB),
			infraRepo.NewCartItemGormRepository(gormDB),
			products,
			infraRepo.NewProductImageGormRepository(gormDB),
			coupons,
			validator,
		),
		order: usecase.NewOrderUsecase(txm,
			infraRepo.NewAddressGormRepository(gormDB),
			infraRepo.NewUserGormRepository(gormDB),
			validator,
			decimal.RequireFromString("10"),
			notify.NewDispatcher(nil, nil, log),
			nil,
		),
	}
}

func (s shopDB) product(t *testing.T, name string, stock int64) model.Product {
	t.Helper()
	cat := model.MainCategory{Name: name + " cat", Slug: name + "-cat", Status: model.RecordStatusActive}
	require.NoError(t, s.db.Create(&cat).Error)
	p := model.Product{
		Name:           name,
		Slug:           name,
		MainCategoryID: cat.ID,
		Price:          decimal.RequireFromString("20"),
		Stock:          stock,
		Status:         model.RecordStatusActive,
	}
	require.NoError(t, s.db.Create(&p).Error)
	return p
}

// 住所つきの会員
func (s shopDB) buyer(t *testing.T, n int) model.User {
	t.Helper()
	u := model.User{Email: fmt.Sprintf("buyer%d@example.com", n), PasswordHash: "x", Role: model.RoleUser, IsActive: true}
	require.NoError(t, s.db.Create(&u).Error)
	a := model.Address{
		UserID: u.ID, Name: "Buyer", Line1: "1 Main St", City: "Springfield",
		State: "IL", PostalCode: "62701", Country: "US", IsDefault: true,
	}
	require.NoError(t, s.db.Create(&a).Error)
	return u
}

// 全員同時に走らせてエラーを集める
func runParallel(n int, fn func(i int) error) []error {
	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = fn(i)
		}(i)
	}
	close(start)
	wg.Wait()
	return errs
}

func TestConcurrent_AddSameProductAccumulates(t *testing.T) {
	s := startShopDB(t)
	ctx := context.Background()
	p := s.product(t, "mug", 100)
	u := s.buyer(t, 1)
	owner := model.UserOwner(u.ID)

	errs := runParallel(workers, func(int) error {
		_, err := s.cart.Add(ctx, owner, p.ID, 1)
		return err
	})
	for i, err := range errs {
		assert.NoError(t, err, "worker %d", i)
	}

	out, err := s.cart.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, int64(workers), out.Items[0].Quantity)

	var carts int64
	require.NoError(t, s.db.Model(&model.Cart{}).
		Where("user_id = ? AND status = ?", u.ID, model.RecordStatusActive).
		Count(&carts).Error)
	assert.Equal(t, int64(1), carts)
}

func TestConcurrent_CouponUsageLimitHolds(t *testing.T) {
	s := startShopDB(t)
	ctx := context.Background()
	p := s.product(t, "lamp", 100)

	c := model.Coupon{
		Code:          "ONCE",
		DiscountType:  model.DiscountFixed,
		DiscountValue: decimal.RequireFromString("5"),
		ValidFrom:     time.Now().Add(-time.Hour),
		ValidTo:       time.Now().Add(time.Hour),
		UsageLimit:    1,
		Status:        model.RecordStatusActive,
	}
	require.NoError(t, s.db.Create(&c).Error)

	users := make([]model.User, workers)
	for i := range users {
		users[i] = s.buyer(t, i)
		_, err := s.cart.Add(ctx, model.UserOwner(users[i].ID), p.ID, 1)
		require.NoError(t, err)
	}

	errs := runParallel(workers, func(i int) error {
		_, err := s.order.PlaceOrder(ctx, users[i].ID, usecase.PlaceOrderInput{
			IdempotencyKey: fmt.Sprintf("coupon-%d", i),
			CouponCode:     "ONCE",
		})
		return err
	})

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, usecase.ErrValidation)
	}
	assert.Equal(t, 1, ok)

	var got model.Coupon
	require.NoError(t, s.db.First(&got, c.ID).Error)
	assert.Equal(t, int64(1), got.UsedCount)

	var orders int64
	require.NoError(t, s.db.Model(&model.Order{}).Count(&orders).Error)
	assert.Equal(t, int64(1), orders)

	// 失敗した注文の在庫はロールバックされている
	var stocked model.Product
	require.NoError(t, s.db.First(&stocked, p.ID).Error)
	assert.Equal(t, int64(99), stocked.Stock)
}

func TestConcurrent_OrderNumbersAreDistinct(t *testing.T) {
	s := startShopDB(t)
	ctx := context.Background()
	p := s.product(t, "pen", 100)

	users := make([]model.User, workers)
	for i := range users {
		users[i] = s.buyer(t, i)
		_, err := s.cart.Add(ctx, model.UserOwner(users[i].ID), p.ID, 2)
		require.NoError(t, err)
	}

	numbers := make([]string, workers)
	errs := runParallel(workers, func(i int) error {
		out, err := s.order.PlaceOrder(ctx, users[i].ID, usecase.PlaceOrderInput{IdempotencyKey: fmt.Sprintf("seq-%d", i)})
		numbers[i] = out.OrderNumber
		return err
	})
	for i, err := range errs {
		require.NoError(t, err, "worker %d", i)
	}

	seen := map[string]bool{}
	for _, n := range numbers {
		assert.False(t, seen[n], "duplicate order number %s", n)
		seen[n] = true
	}
	assert.Len(t, seen, workers)

	var seq model.OrderSequence
	require.NoError(t, s.db.Where("period = ?", model.OrderPeriod(time.Now())).First(&seq).Error)
	assert.Equal(t, int64(workers), seq.LastValue)

	var stocked model.Product
	require.NoError(t, s.db.First(&stocked, p.ID).Error)
	assert.Equal(t, int64(100-2*workers), stocked.Stock)
}
