//go:build integration
// +build integration

package repository

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/freightlane/internal/constants"
	"github.com/freightlane/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	cleanupModels := models.AllModels()
	_ = db.Migrator().DropTable(cleanupModels...)

	if err := db.AutoMigrate(cleanupModels...); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(cleanupModels...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func TestPostgresLoadKeywordSearchIsCaseInsensitive(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewLoadRepository(db)

	load := &models.Load{
		ShipperID:       1,
		PickupLocation:  "Kampala Depot",
		DropoffLocation: "Kigali",
		WeightKg:        models.MustMoney("8000"),
		Status:          constants.LoadStatusOpenForBid,
	}
	if err := repo.Create(load); err != nil {
		t.Fatalf("create load failed: %v", err)
	}

	rows, total, err := repo.List(LoadListFilter{Page: 1, PageSize: 10, Keyword: "kampala"})
	if err != nil {
		t.Fatalf("load keyword search failed: %v", err)
	}
	if total != 1 || len(rows) != 1 {
		t.Fatalf("load keyword search want 1 got total=%d len=%d", total, len(rows))
	}
}

func TestPostgresPartialUniqueIndexes(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	now := time.Now().UTC().Truncate(time.Second)

	otpRepo := NewOtpRepository(db)
	request := &models.OtpRequest{
		ShipmentID:  1,
		RequestType: constants.OtpRequestTypeTripStart,
		Status:      constants.OtpRequestStatusPending,
		RequestedBy: 2,
		RequestedAt: now,
	}
	if err := otpRepo.CreateRequest(request); err != nil {
		t.Fatalf("create pending request failed: %v", err)
	}
	duplicate := *request
	duplicate.ID = 0
	if err := otpRepo.CreateRequest(&duplicate); err == nil {
		t.Fatalf("duplicate pending request should be rejected by postgres")
	}

	bidRepo := NewBidRepository(db)
	accepted := &models.Bid{LoadID: 1, CarrierID: 1, CarrierType: constants.CarrierKindSolo, Amount: models.MustMoney("10"), Status: constants.BidStatusAccepted}
	if err := bidRepo.Create(accepted); err != nil {
		t.Fatalf("create accepted bid failed: %v", err)
	}
	second := &models.Bid{LoadID: 1, CarrierID: 2, CarrierType: constants.CarrierKindSolo, Amount: models.MustMoney("11"), Status: constants.BidStatusAccepted}
	if err := bidRepo.Create(second); err == nil {
		t.Fatalf("second accepted bid should be rejected by postgres")
	}
}
