package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// ブランド・カテゴリ
type CatalogUsecase struct {
	brands     repo.BrandRepository
	categories repo.CategoryRepository
}

func NewCatalogUsecase(brands repo.BrandRepository, categories repo.CategoryRepository) *CatalogUsecase {
	return &CatalogUsecase{brands: brands, categories: categories}
}

type CatalogItemInput struct {
	Name           string `json:"name"`
	ImageURL       string `json:"image_url"`
	Description    string `json:"description"`
	Ordering       int    `json:"ordering"`
	MainCategoryID int64  `json:"main_category_id"`
}

type CategoryTreeOutput struct {
	model.MainCategory
	SubCategories []model.SubCategory `json:"sub_categories"`
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 100 {
		return "", NewHTTPError(http.StatusBadRequest, "name required")
	}
	return name, nil
}

func conflictOr(err error, msg string) error {
	if errors.Is(err, repo.ErrConflict) {
		return NewHTTPError(http.StatusConflict, msg)
	}
	return repoError(err)
}

func (u *CatalogUsecase) ListBrands(ctx context.Context, f repo.StatusFilter) ([]model.Brand, error) {
	list, err := u.brands.List(ctx, f)
	if err != nil {
		return nil, repoError(err)
	}
	return list, nil
}

// メインカテゴリとその下のサブカテゴリ
func (u *CatalogUsecase) CategoryTree(ctx context.Context, f repo.StatusFilter) ([]CategoryTreeOutput, error) {
	mains, err := u.categories.ListMain(ctx, f)
	if err != nil {
		return nil, repoError(err)
	}
	subs, err := u.categories.ListSub(ctx, nil, f)
	if err != nil {
		return nil, repoError(err)
	}

	byMain := map[int64][]model.SubCategory{}
	for _, s := range subs {
		byMain[s.MainCategoryID] = append(byMain[s.MainCategoryID], s)
	}

	out := make([]CategoryTreeOutput, 0, len(mains))
	for _, m := range mains {
		children := byMain[m.ID]
		if children == nil {
			children = []model.SubCategory{}
		}
		out = append(out, CategoryTreeOutput{MainCategory: m, SubCategories: children})
	}
	return out, nil
}

func (u *CatalogUsecase) CreateBrand(ctx context.Context, in CatalogItemInput) (model.Brand, error) {
	name, err := validateName(in.Name)
	if err != nil {
		return model.Brand{}, err
	}
	slug, err := uniqueSlug(ctx, name, 0, u.brands.SlugExists)
	if err != nil {
		return model.Brand{}, repoError(err)
	}

	b, err := u.brands.Create(ctx, model.Brand{
		Name:        name,
		Slug:        slug,
		ImageURL:    strings.TrimSpace(in.ImageURL),
		Description: in.Description,
		Status:      model.RecordStatusActive,
	})
	if err != nil {
		return model.Brand{}, conflictOr(err, "brand already exists")
	}
	return b, nil
}

func (u *CatalogUsecase) UpdateBrand(ctx context.Context, id int64, in CatalogItemInput) (model.Brand, error) {
	name, err := validateName(in.Name)
	if err != nil {
		return model.Brand{}, err
	}
	current, err := u.brands.FindByID(ctx, id, repo.AnyStatus)
	if err != nil {
		return model.Brand{}, repoError(err)
	}

	slug := current.Slug
	if name != current.Name {
		if slug, err = uniqueSlug(ctx, name, id, u.brands.SlugExists); err != nil {
			return model.Brand{}, repoError(err)
		}
	}

	current.Name = name
	current.Slug = slug
	current.ImageURL = strings.TrimSpace(in.ImageURL)
	current.Description = in.Description
	if err := u.brands.Update(ctx, current); err != nil {
		return model.Brand{}, conflictOr(err, "brand already exists")
	}
	return current, nil
}

func (u *CatalogUsecase) SetBrandStatus(ctx context.Context, id int64, status model.RecordStatus) error {
	if !status.Valid() {
		return NewHTTPError(http.StatusBadRequest, "invalid status")
	}
	return repoError(u.brands.SetStatus(ctx, id, status))
}

func (u *CatalogUsecase) CreateMainCategory(ctx context.Context, in CatalogItemInput) (model.MainCategory, error) {
	name, err := validateName(in.Name)
	if err != nil {
		return model.MainCategory{}, err
	}
	slug, err := uniqueSlug(ctx, name, 0, u.categories.MainSlugExists)
	if err != nil {
		return model.MainCategory{}, repoError(err)
	}

	c, err := u.categories.CreateMain(ctx, model.MainCategory{
		Name:        name,
		Slug:        slug,
		ImageURL:    strings.TrimSpace(in.ImageURL),
		Description: in.Description,
		Ordering:    in.Ordering,
		Status:      model.RecordStatusActive,
	})
	if err != nil {
		return model.MainCategory{}, conflictOr(err, "category already exists")
	}
	return c, nil
}

func (u *CatalogUsecase) UpdateMainCategory(ctx context.Context, id int64, in CatalogItemInput) (model.MainCategory, error) {
	name, err := validateName(in.Name)
	if err != nil {
		return model.MainCategory{}, err
	}
	current, err := u.categories.FindMainByID(ctx, id, repo.AnyStatus)
	if err != nil {
		return model.MainCategory{}, repoError(err)
	}

	if name != current.Name {
		if current.Slug, err = uniqueSlug(ctx, name, id, u.categories.MainSlugExists); err != nil {
			return model.MainCategory{}, repoError(err)
		}
	}
	current.Name = name
	current.ImageURL = strings.TrimSpace(in.ImageURL)
	current.Description = in.Description
	current.Ordering = in.Ordering
	if err := u.categories.UpdateMain(ctx, current); err != nil {
		return model.MainCategory{}, conflictOr(err, "category already exists")
	}
	return current, nil
}

func (u *CatalogUsecase) SetMainCategoryStatus(ctx context.Context, id int64, status model.RecordStatus) error {
	if !status.Valid() {
		return NewHTTPError(http.StatusBadRequest, "invalid status")
	}
	return repoError(u.categories.SetMainStatus(ctx, id, status))
}

func (u *CatalogUsecase) CreateSubCategory(ctx context.Context, in CatalogItemInput) (model.SubCategory, error) {
	name, err := validateName(in.Name)
	if err != nil {
		return model.SubCategory{}, err
	}
	//親はACTIVEのみ
	if _, err := u.categories.FindMainByID(ctx, in.MainCategoryID, repo.OnlyActive); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.SubCategory{}, NewHTTPError(http.StatusBadRequest, "invalid main_category_id")
		}
		return model.SubCategory{}, repoError(err)
	}
	slug, err := uniqueSlug(ctx, name, 0, u.categories.SubSlugExists)
	if err != nil {
		return model.SubCategory{}, repoError(err)
	}

	c, err := u.categories.CreateSub(ctx, model.SubCategory{
		MainCategoryID: in.MainCategoryID,
		Name:           name,
		Slug:           slug,
		ImageURL:       strings.TrimSpace(in.ImageURL),
		Description:    in.Description,
		Ordering:       in.Ordering,
		Status:         model.RecordStatusActive,
	})
	if err != nil {
		return model.SubCategory{}, conflictOr(err, "category already exists")
	}
	return c, nil
}

func (u *CatalogUsecase) UpdateSubCategory(ctx context.Context, id int64, in CatalogItemInput) (model.SubCategory, error) {
	name, err := validateName(in.Name)
	if err != nil {
		return model.SubCategory{}, err
	}
	current, err := u.categories.FindSubByID(ctx, id, repo.AnyStatus)
	if err != nil {
		return model.SubCategory{}, repoError(err)
	}
	if in.MainCategoryID > 0 && in.MainCategoryID != current.MainCategoryID {
		if _, err := u.categories.FindMainByID(ctx, in.MainCategoryID, repo.OnlyActive); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return model.SubCategory{}, NewHTTPError(http.StatusBadRequest, "invalid main_category_id")
			}
			return model.SubCategory{}, repoError(err)
		}
		current.MainCategoryID = in.MainCategoryID
	}

	if name != current.Name {
		if current.Slug, err = uniqueSlug(ctx, name, id, u.categories.SubSlugExists); err != nil {
			return model.SubCategory{}, repoError(err)
		}
	}
	current.Name = name
	current.ImageURL = strings.TrimSpace(in.ImageURL)
	current.Description = in.Description
	current.Ordering = in.Ordering
	if err := u.categories.UpdateSub(ctx, current); err != nil {
		return model.SubCategory{}, conflictOr(err, "category already exists")
	}
	return current, nil
}

func (u *CatalogUsecase) SetSubCategoryStatus(ctx context.Context, id int64, status model.RecordStatus) error {
	if !status.Valid() {
		return NewHTTPError(http.StatusBadRequest, "invalid status")
	}
	return repoError(u.categories.SetSubStatus(ctx, id, status))
}
