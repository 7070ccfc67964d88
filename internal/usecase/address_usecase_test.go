package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addressReq(name string) AddressRequest {
	return AddressRequest{
		PostalCode: " 62701 ",
		State:      "IL",
		City:       "Springfield",
		Line1:      "1 Main St",
		Country:    "US",
		Name:       name,
		Phone:      "555-0100",
	}
}

func TestAddress_CreateFirstIsDefault(t *testing.T) {
	ctx := context.Background()
	uc := NewAddressUsecase(memAddresses{newMemStore()})

	first, err := uc.Create(ctx, 1, addressReq("Home"))
	require.NoError(t, err)
	assert.True(t, first.IsDefault)
	assert.Equal(t, "62701", first.PostalCode)

	second, err := uc.Create(ctx, 1, addressReq("Office"))
	require.NoError(t, err)
	assert.False(t, second.IsDefault)

	// 別ユーザーの最初の住所もデフォルト
	other, err := uc.Create(ctx, 2, addressReq("Other"))
	require.NoError(t, err)
	assert.True(t, other.IsDefault)

	list, err := uc.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestAddress_Validation(t *testing.T) {
	uc := NewAddressUsecase(memAddresses{newMemStore()})

	_, err := uc.Create(context.Background(), 0, addressReq("Home"))
	assert.ErrorIs(t, err, ErrUnauthorized)

	req := addressReq("Home")
	req.City = "   "
	_, err = uc.Create(context.Background(), 1, req)
	assert.ErrorIs(t, err, ErrValidation)

	req = addressReq("Home")
	req.PostalCode = "123456789012345678901"
	_, err = uc.Create(context.Background(), 1, req)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAddress_Ownership(t *testing.T) {
	ctx := context.Background()
	uc := NewAddressUsecase(memAddresses{newMemStore()})

	mine, err := uc.Create(ctx, 1, addressReq("Home"))
	require.NoError(t, err)

	_, err = uc.Update(ctx, 2, mine.ID, addressReq("Stolen"))
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, uc.Delete(ctx, 2, mine.ID), ErrForbidden)
	assert.ErrorIs(t, uc.SetDefault(ctx, 2, mine.ID), ErrForbidden)

	_, err = uc.Update(ctx, 1, 9999, addressReq("Ghost"))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, uc.Delete(ctx, 1, 0), ErrValidation)

	updated, err := uc.Update(ctx, 1, mine.ID, addressReq("Home 2"))
	require.NoError(t, err)
	assert.Equal(t, "Home 2", updated.Name)
	assert.True(t, updated.IsDefault)
}

func TestAddress_SetDefaultAndDelete(t *testing.T) {
	ctx := context.Background()
	uc := NewAddressUsecase(memAddresses{newMemStore()})

	a, err := uc.Create(ctx, 1, addressReq("Home"))
	require.NoError(t, err)
	b, err := uc.Create(ctx, 1, addressReq("Office"))
	require.NoError(t, err)

	require.NoError(t, uc.SetDefault(ctx, 1, b.ID))

	list, err := uc.List(ctx, 1)
	require.NoError(t, err)
	defaults := 0
	for _, x := range list {
		if x.IsDefault {
			defaults++
			assert.Equal(t, b.ID, x.ID)
		}
	}
	assert.Equal(t, 1, defaults)

	require.NoError(t, uc.Delete(ctx, 1, a.ID))
	list, err = uc.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].ID)
}

func TestAddress_DeleteDefaultPromotesNext(t *testing.T) {
	ctx := context.Background()
	uc := NewAddressUsecase(memAddresses{newMemStore()})

	a, err := uc.Create(ctx, 1, addressReq("Home"))
	require.NoError(t, err)
	b, err := uc.Create(ctx, 1, addressReq("Office"))
	require.NoError(t, err)
	_, err = uc.Create(ctx, 1, addressReq("Cabin"))
	require.NoError(t, err)
	require.True(t, a.IsDefault)

	require.NoError(t, uc.Delete(ctx, 1, a.ID))

	list, err := uc.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, x := range list {
		assert.Equal(t, x.ID == b.ID, x.IsDefault, "address %d", x.ID)
	}
}
