package logic

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/blues/propdao/internal/config"
	"github.com/blues/propdao/internal/database"
	"github.com/blues/propdao/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newTestDB 在临时目录创建 sqlite 数据库并迁移
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Init(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "propdao.db"),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

func createUser(t *testing.T, db *gorm.DB, id string, kyc model.KycStatus) *model.UserModel {
	t.Helper()

	user := &model.UserModel{Id: id, Email: id + "@example.com", KycStatus: kyc}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createProperty(t *testing.T, db *gorm.DB, name string) *model.PropertyModel {
	t.Helper()

	property, err := NewPropertyLogic(db).CreateProperty(context.Background(), "admin", PropertyInput{
		Name:        name,
		Location:    "Lagos",
		Valuation:   decimal.NewFromInt(1000000),
		TargetRaise: decimal.NewFromInt(500000),
	})
	require.NoError(t, err)
	return property
}

func invest(t *testing.T, db *gorm.DB, userId string, propertyId int64, amount int64) *model.InvestmentModel {
	t.Helper()

	investment, err := NewInvestmentLogic(db, DefaultUnitPrice).
		CreateInvestment(context.Background(), userId, propertyId, decimal.NewFromInt(amount))
	require.NoError(t, err)
	return investment
}
