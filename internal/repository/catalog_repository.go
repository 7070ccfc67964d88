package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type BrandRepository interface {
	List(ctx context.Context, f StatusFilter) ([]model.Brand, error)
	FindByID(ctx context.Context, id int64, f StatusFilter) (model.Brand, error)
	Create(ctx context.Context, b model.Brand) (model.Brand, error)
	Update(ctx context.Context, b model.Brand) error
	SetStatus(ctx context.Context, id int64, status model.RecordStatus) error
	SlugExists(ctx context.Context, slug string, exceptID int64) (bool, error)
}

type CategoryRepository interface {
	ListMain(ctx context.Context, f StatusFilter) ([]model.MainCategory, error)
	FindMainByID(ctx context.Context, id int64, f StatusFilter) (model.MainCategory, error)
	CreateMain(ctx context.Context, c model.MainCategory) (model.MainCategory, error)
	UpdateMain(ctx context.Context, c model.MainCategory) error
	SetMainStatus(ctx context.Context, id int64, status model.RecordStatus) error
	MainSlugExists(ctx context.Context, slug string, exceptID int64) (bool, error)

	// mainIDがnilなら全件
	ListSub(ctx context.Context, mainID *int64, f StatusFilter) ([]model.SubCategory, error)
	FindSubByID(ctx context.Context, id int64, f StatusFilter) (model.SubCategory, error)
	CreateSub(ctx context.Context, c model.SubCategory) (model.SubCategory, error)
	UpdateSub(ctx context.Context, c model.SubCategory) error
	SetSubStatus(ctx context.Context, id int64, status model.RecordStatus) error
	SubSlugExists(ctx context.Context, slug string, exceptID int64) (bool, error)
}
