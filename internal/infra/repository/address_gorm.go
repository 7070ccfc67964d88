package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AddressGormRepository struct {
	db *gorm.DB
}

func NewAddressGormRepository(db *gorm.DB) repo.AddressRepository {
	return &AddressGormRepository{db: db}
}

// 住所帳の列（user_idとis_defaultは専用の操作で変える）
var addressColumns = []string{"postal_code", "state", "city", "line1", "line2", "country", "name", "phone", "updated_at"}

func (r *AddressGormRepository) Create(ctx context.Context, a model.Address) (model.Address, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//ユーザー単位で直列化してデフォルト有無を判定
		if err := lockUserAddresses(tx, a.UserID); err != nil {
			return err
		}
		var n int64
		if err := tx.Model(&model.Address{}).
			Where("user_id = ? AND is_default", a.UserID).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			a.IsDefault = false
		}
		return tx.Create(&a).Error
	})
	if err != nil {
		return model.Address{}, mapErr(err)
	}
	return a, nil
}

func (r *AddressGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.Address, error) {
	list := []model.Address{}
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC").
		Order("id").
		Find(&list).Error
	return list, mapErr(err)
}

func (r *AddressGormRepository) FindByID(ctx context.Context, addressID int64) (model.Address, error) {
	var a model.Address
	err := r.db.WithContext(ctx).Where("id = ?", addressID).Take(&a).Error
	return a, mapErr(err)
}

func (r *AddressGormRepository) FindDefault(ctx context.Context, userID int64) (model.Address, error) {
	var a model.Address
	err := r.db.WithContext(ctx).Where("user_id = ? AND is_default", userID).Take(&a).Error
	return a, mapErr(err)
}

func (r *AddressGormRepository) Update(ctx context.Context, a model.Address) error {
	return affected(r.db.WithContext(ctx).
		Model(&model.Address{}).
		Where("id = ? AND user_id = ?", a.ID, a.UserID).
		Select(addressColumns).
		Updates(a))
}

func (r *AddressGormRepository) Delete(ctx context.Context, userID int64, addressID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockUserAddresses(tx, userID); err != nil {
			return err
		}

		var gone model.Address
		res := tx.Clauses(clause.Returning{}).
			Where("id = ? AND user_id = ?", addressID, userID).
			Delete(&gone)
		if err := affected(res); err != nil {
			return err
		}
		if !gone.IsDefault {
			return nil
		}

		//次のデフォルト（残りが無ければ何もしない）
		var next model.Address
		err := tx.Where("user_id = ?", userID).Order("id").Take(&next).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return tx.Model(&model.Address{}).Where("id = ?", next.ID).Update("is_default", true).Error
	})
}

func (r *AddressGormRepository) SetDefault(ctx context.Context, userID int64, addressID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockUserAddresses(tx, userID); err != nil {
			return err
		}

		var target model.Address
		if err := tx.Where("id = ? AND user_id = ?", addressID, userID).Take(&target).Error; err != nil {
			return mapErr(err)
		}
		if target.IsDefault {
			return nil
		}

		//部分ユニーク索引があるので先に外す
		if err := tx.Model(&model.Address{}).
			Where("user_id = ? AND is_default", userID).
			Update("is_default", false).Error; err != nil {
			return err
		}
		return affected(tx.Model(&model.Address{}).Where("id = ?", addressID).Update("is_default", true))
	})
}

// ユーザー行をロックして住所帳の更新を直列化する
func lockUserAddresses(tx *gorm.DB, userID int64) error {
	var u model.User
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", userID).
		Take(&u).Error
	return mapErr(err)
}
