package logic

import (
	"context"
	"testing"

	"github.com/blues/propdao/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestCreateProperty(t *testing.T) {
	db := newTestDB(t)
	properties := NewPropertyLogic(db)
	tokenId := int64(7)
	address := "0x00000000000000000000000000000000000000aa"

	property, err := properties.CreateProperty(context.Background(), "admin", PropertyInput{
		Name:            "  Ikoyi Towers ",
		Valuation:       decimal.NewFromInt(2000000),
		TargetRaise:     decimal.NewFromInt(1000000),
		Images:          []string{"/uploads/a.png"},
		TokenId:         &tokenId,
		ContractAddress: &address,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ikoyi Towers", property.Name)
	assert.Equal(t, model.DefaultPropertyCategory, property.Category)

	stored, err := properties.GetProperty(context.Background(), property.Id)
	require.NoError(t, err)
	assert.Equal(t, datatypes.JSONSlice[string]{"/uploads/a.png"}, stored.Images)
	require.NotNil(t, stored.TokenId)
	assert.Equal(t, tokenId, *stored.TokenId)
	assert.Equal(t, address, *stored.ContractAddress)
	assert.True(t, stored.TokensSold.IsZero())
}

func TestCreatePropertyValidation(t *testing.T) {
	properties := NewPropertyLogic(newTestDB(t))
	negative := decimal.NewFromInt(-1)

	for name, input := range map[string]PropertyInput{
		"empty name":         {Name: " "},
		"negative valuation": {Name: "x", Valuation: negative},
		"negative raise":     {Name: "x", TargetRaise: negative},
		"negative minimum":   {Name: "x", MinInvestment: negative},
	} {
		_, err := properties.CreateProperty(context.Background(), "admin", input)
		var validationErr *ValidationError
		assert.ErrorAs(t, err, &validationErr, name)
	}
}

func TestListPropertiesByCategory(t *testing.T) {
	db := newTestDB(t)
	properties := NewPropertyLogic(db)
	for _, category := range []string{"", "Commercial", "Commercial"} {
		_, err := properties.CreateProperty(context.Background(), "admin", PropertyInput{Name: "p", Category: category})
		require.NoError(t, err)
	}

	list, total, err := properties.ListProperties(context.Background(), "Commercial", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, list, 1)

	all, total, err := properties.ListProperties(context.Background(), "", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, all, 3)
}

func TestUpdateProperty(t *testing.T) {
	db := newTestDB(t)
	properties := NewPropertyLogic(db)
	property := createProperty(t, db, "Old Name")

	updated, err := properties.UpdateProperty(context.Background(), property.Id, map[string]interface{}{
		"name":      "New Name",
		"valuation": decimal.NewFromInt(1),
	})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	assert.True(t, property.Valuation.Equal(updated.Valuation))

	_, err = properties.UpdateProperty(context.Background(), property.Id, map[string]interface{}{"target_raise": 5})
	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)

	_, err = properties.UpdateProperty(context.Background(), 404, map[string]interface{}{"name": "x"})
	assert.ErrorIs(t, err, ErrPropertyNotFound)
}
