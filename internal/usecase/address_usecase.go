package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/repository"
)

type AddressDTO struct {
	ID         int64   `json:"id"`
	UserID     int64   `json:"user_id"`
	PostalCode string  `json:"postal_code"`
	State      string  `json:"state"`
	City       string  `json:"city"`
	Line1      string  `json:"line1"`
	Line2      string  `json:"line2"`
	Country    string  `json:"country"`
	Name       string  `json:"name"`
	Phone      string  `json:"phone"`
	IsDefault  bool    `json:"is_default"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  *string `json:"updated_at,omitempty"`
}

// 作成・更新で同じ形
type AddressRequest struct {
	PostalCode string `json:"postal_code"`
	State      string `json:"state"`
	City       string `json:"city"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	Country    string `json:"country"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
}

type AddressUsecase struct {
	addresses repository.AddressRepository
	now       func() time.Time
}

func NewAddressUsecase(addresses repository.AddressRepository) *AddressUsecase {
	return &AddressUsecase{addresses: addresses, now: time.Now}
}

func (r AddressRequest) trimmed() AddressRequest {
	return AddressRequest{
		PostalCode: strings.TrimSpace(r.PostalCode),
		State:      strings.TrimSpace(r.State),
		City:       strings.TrimSpace(r.City),
		Line1:      strings.TrimSpace(r.Line1),
		Line2:      strings.TrimSpace(r.Line2),
		Country:    strings.TrimSpace(r.Country),
		Name:       strings.TrimSpace(r.Name),
		Phone:      strings.TrimSpace(r.Phone),
	}
}

func validateAddress(req AddressRequest) error {
	if req.PostalCode == "" || req.State == "" || req.City == "" || req.Line1 == "" || req.Name == "" {
		return NewHTTPError(http.StatusBadRequest, "postal_code, state, city, line1 and name required")
	}
	if len(req.PostalCode) > 20 || len(req.Phone) > 30 {
		return NewHTTPError(http.StatusBadRequest, "invalid address")
	}
	return nil
}

func (u *AddressUsecase) List(ctx context.Context, userID int64) ([]AddressDTO, error) {
	if userID <= 0 {
		return nil, errUnauthorized()
	}

	list, err := u.addresses.ListByUserID(ctx, userID)
	if err != nil {
		return nil, repoError(err)
	}

	out := make([]AddressDTO, 0, len(list))
	for i := range list {
		out = append(out, toAddressDTO(&list[i]))
	}
	return out, nil
}

func (u *AddressUsecase) Create(ctx context.Context, userID int64, req AddressRequest) (AddressDTO, error) {
	if userID <= 0 {
		return AddressDTO{}, errUnauthorized()
	}

	req = req.trimmed()
	if err := validateAddress(req); err != nil {
		return AddressDTO{}, err
	}

	//最初の住所はデフォルトにする
	existing, err := u.addresses.ListByUserID(ctx, userID)
	if err != nil {
		return AddressDTO{}, repoError(err)
	}

	now := u.now()
	created, err := u.addresses.Create(ctx, model.Address{
		UserID:     userID,
		PostalCode: req.PostalCode,
		State:      req.State,
		City:       req.City,
		Line1:      req.Line1,
		Line2:      req.Line2,
		Country:    req.Country,
		Name:       req.Name,
		Phone:      req.Phone,
		IsDefault:  len(existing) == 0,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return AddressDTO{}, repoError(err)
	}

	return toAddressDTO(&created), nil
}

// 本人の住所か確認（無ければ404、他人なら403）
func (u *AddressUsecase) owned(ctx context.Context, userID int64, addressID int64) (model.Address, error) {
	if userID <= 0 {
		return model.Address{}, errUnauthorized()
	}
	if addressID <= 0 {
		return model.Address{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	a, err := u.addresses.FindByID(ctx, addressID)
	if err != nil {
		return model.Address{}, repoError(err)
	}
	if a.UserID != userID {
		return model.Address{}, NewHTTPError(http.StatusForbidden, "forbidden")
	}
	return a, nil
}

func (u *AddressUsecase) Update(ctx context.Context, userID int64, addressID int64, req AddressRequest) (AddressDTO, error) {
	current, err := u.owned(ctx, userID, addressID)
	if err != nil {
		return AddressDTO{}, err
	}

	req = req.trimmed()
	if err := validateAddress(req); err != nil {
		return AddressDTO{}, err
	}

	a := current
	a.PostalCode = req.PostalCode
	a.State = req.State
	a.City = req.City
	a.Line1 = req.Line1
	a.Line2 = req.Line2
	a.Country = req.Country
	a.Name = req.Name
	a.Phone = req.Phone
	a.UpdatedAt = u.now()

	if err := u.addresses.Update(ctx, a); err != nil {
		return AddressDTO{}, repoError(err)
	}
	return toAddressDTO(&a), nil
}

// 注文にはスナップショットがあるので住所帳は消してよい
func (u *AddressUsecase) Delete(ctx context.Context, userID int64, addressID int64) error {
	if _, err := u.owned(ctx, userID, addressID); err != nil {
		return err
	}
	if err := u.addresses.Delete(ctx, userID, addressID); err != nil {
		return repoError(err)
	}
	return nil
}

func (u *AddressUsecase) SetDefault(ctx context.Context, userID int64, addressID int64) error {
	if _, err := u.owned(ctx, userID, addressID); err != nil {
		return err
	}

	//user内でdefaultは1つ
	if err := u.addresses.SetDefault(ctx, userID, addressID); err != nil {
		return repoError(err)
	}
	return nil
}

func toAddressDTO(a *model.Address) AddressDTO {
	dto := AddressDTO{
		ID:         a.ID,
		UserID:     a.UserID,
		PostalCode: a.PostalCode,
		State:      a.State,
		City:       a.City,
		Line1:      a.Line1,
		Line2:      a.Line2,
		Country:    a.Country,
		Name:       a.Name,
		Phone:      a.Phone,
		IsDefault:  a.IsDefault,
		CreatedAt:  a.CreatedAt.Format(time.RFC3339),
	}
	t := a.UpdatedAt.Format(time.RFC3339)
	dto.UpdatedAt = &t
	return dto
}
