package repository

import (
	"context"
	"errors"
	"time"

	"storefront/internal/domain/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartGormRepository struct {
	db *gorm.DB
}

// DI
func NewCartGormRepository(db *gorm.DB) *CartGormRepository {
	return &CartGormRepository{db: db}
}

// オーナー条件（ユーザーかセッションのどちらか）
func ownerScope(owner model.CartOwner) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if owner.IsUser() {
			return db.Where("user_id = ?", owner.UserID)
		}
		return db.Where("user_id IS NULL AND session_token = ?", owner.SessionToken)
	}
}

// ACTIVEカートを取得し、無ければ作成
func (r *CartGormRepository) GetOrCreateActive(ctx context.Context, owner model.CartOwner) (model.Cart, error) {
	if err := owner.Validate(); err != nil {
		return model.Cart{}, err
	}

	var cart model.Cart

	//トランザクションで探す→無ければ作る
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		findErr := tx.
			Scopes(ownerScope(owner)).
			Where("status = ?", model.RecordStatusActive).
			Order("id desc").
			First(&cart).Error

		if findErr == nil {
			return nil
		}
		if !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return findErr
		}

		// 無ければ作る
		now := time.Now()
		newCart := model.Cart{
			SessionToken: owner.SessionToken,
			Status:       model.RecordStatusActive,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if owner.IsUser() {
			uid := owner.UserID
			newCart.UserID = &uid
			newCart.SessionToken = ""
		}

		// 同時作成は部分ユニークインデックスで弾かれるので、既存を返す
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&newCart)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return tx.
				Scopes(ownerScope(owner)).
				Where("status = ?", model.RecordStatusActive).
				Order("id desc").
				First(&cart).Error
		}

		cart = newCart
		return nil
	})

	if err != nil {
		return model.Cart{}, mapErr(err)
	}
	return cart, nil
}

// ACTIVEカートを取得
func (r *CartGormRepository) FindActive(ctx context.Context, owner model.CartOwner) (model.Cart, error) {
	if err := owner.Validate(); err != nil {
		return model.Cart{}, err
	}

	var cart model.Cart
	err := r.db.WithContext(ctx).
		Scopes(ownerScope(owner)).
		Where("status = ?", model.RecordStatusActive).
		Order("id desc").
		First(&cart).Error
	if err != nil {
		return model.Cart{}, mapErr(err)
	}
	return cart, nil
}

func (r *CartGormRepository) FindActiveForUpdate(ctx context.Context, owner model.CartOwner) (model.Cart, error) {
	if err := owner.Validate(); err != nil {
		return model.Cart{}, err
	}

	var cart model.Cart
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(ownerScope(owner)).
		Where("status = ?", model.RecordStatusActive).
		Order("id desc").
		First(&cart).Error
	if err != nil {
		return model.Cart{}, mapErr(err)
	}
	return cart, nil
}

func (r *CartGormRepository) SetCoupon(ctx context.Context, cartID int64, couponID *int64) error {
	return affected(r.db.WithContext(ctx).
		Model(&model.Cart{}).
		Where("id = ?", cartID).
		Update("coupon_id", couponID))
}

// carts.statusを更新
func (r *CartGormRepository) UpdateStatus(ctx context.Context, cartID int64, status model.RecordStatus) error {
	return affected(r.db.WithContext(ctx).
		Model(&model.Cart{}).
		Where("id = ?", cartID).
		Update("status", status))
}
