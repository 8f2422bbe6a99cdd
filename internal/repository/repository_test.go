package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/freightlane/internal/constants"
	"github.com/freightlane/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupRepositoryTest(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repository_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func createTestLoad(t *testing.T, repo *GormLoadRepository, status string) *models.Load {
	t.Helper()
	load := &models.Load{
		ShipperID:       7,
		PickupLocation:  "Nairobi",
		DropoffLocation: "Mombasa",
		WeightKg:        models.MustMoney("12000"),
		Status:          status,
	}
	if err := repo.Create(load); err != nil {
		t.Fatalf("create load failed: %v", err)
	}
	return load
}

func TestLoadRepositoryCreateAssignsReferenceNo(t *testing.T) {
	db := setupRepositoryTest(t)
	repo := NewLoadRepository(db)

	first := createTestLoad(t, repo, constants.LoadStatusPending)
	second := createTestLoad(t, repo, constants.LoadStatusPending)

	if first.ReferenceNo != "LD00000001" {
		t.Fatalf("reference no want LD00000001 got %s", first.ReferenceNo)
	}
	stored, err := repo.GetByReferenceNo("LD00000002")
	if err != nil {
		t.Fatalf("get by reference failed: %v", err)
	}
	if stored == nil || stored.ID != second.ID {
		t.Fatalf("reference lookup want id %d got %+v", second.ID, stored)
	}
}

func TestLoadRepositoryTransitionStatusCompareAndSet(t *testing.T) {
	db := setupRepositoryTest(t)
	repo := NewLoadRepository(db)
	load := createTestLoad(t, repo, constants.LoadStatusOpenForBid)

	ok, err := repo.TransitionStatus(load.ID, []string{constants.LoadStatusOpenForBid}, constants.LoadStatusAwarded, nil)
	if err != nil || !ok {
		t.Fatalf("first transition want ok got %v err=%v", ok, err)
	}
	ok, err = repo.TransitionStatus(load.ID, []string{constants.LoadStatusOpenForBid}, constants.LoadStatusAwarded, nil)
	if err != nil {
		t.Fatalf("second transition err: %v", err)
	}
	if ok {
		t.Fatalf("second transition should lose the compare-and-set")
	}
	stored, _ := repo.GetByID(load.ID)
	if stored.Version != 1 {
		t.Fatalf("version want 1 got %d", stored.Version)
	}
}

func TestLoadRepositoryListFilters(t *testing.T) {
	db := setupRepositoryTest(t)
	repo := NewLoadRepository(db)
	createTestLoad(t, repo, constants.LoadStatusPending)
	createTestLoad(t, repo, constants.LoadStatusOpenForBid)

	loads, total, err := repo.List(LoadListFilter{
		Page:     1,
		PageSize: 10,
		Statuses: []string{constants.LoadStatusOpenForBid},
		Keyword:  "mombasa",
	})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || len(loads) != 1 {
		t.Fatalf("list want 1 got total=%d len=%d", total, len(loads))
	}
}

func TestLoadRepositoryKeywordWildcardsAreLiteral(t *testing.T) {
	db := setupRepositoryTest(t)
	repo := NewLoadRepository(db)
	createTestLoad(t, repo, constants.LoadStatusOpenForBid)
	marked := &models.Load{
		ShipperID:       7,
		PickupLocation:  "Depot 50%_east",
		DropoffLocation: "Kisumu",
		WeightKg:        models.MustMoney("800"),
		Status:          constants.LoadStatusOpenForBid,
	}
	if err := repo.Create(marked); err != nil {
		t.Fatalf("create load failed: %v", err)
	}

	cases := map[string]int64{"50%_": 1, "%": 1, "_": 1, "depot": 1, "nai": 1, "": 2}
	for keyword, want := range cases {
		_, total, err := repo.List(LoadListFilter{Page: 1, PageSize: 10, Keyword: keyword})
		if err != nil {
			t.Fatalf("list %q failed: %v", keyword, err)
		}
		if total != want {
			t.Fatalf("keyword %q want %d got %d", keyword, want, total)
		}
	}
}

func TestKeywordMatchBuildsEscapedCondition(t *testing.T) {
	condition, args := keywordMatch(nil, " x ", "reference_no", "pickup_location")
	if condition != `(reference_no LIKE ? ESCAPE '\' OR pickup_location LIKE ? ESCAPE '\')` {
		t.Fatalf("unexpected condition %s", condition)
	}
	if len(args) != 2 || args[0] != "%x%" {
		t.Fatalf("args want [%%x%% %%x%%] got %v", args)
	}
	if condition, _ := keywordMatch(nil, "  ", "reference_no"); condition != "" {
		t.Fatalf("blank keyword want no condition got %s", condition)
	}
}

func TestBidRepositoryAcceptedUniquePerLoad(t *testing.T) {
	db := setupRepositoryTest(t)
	repo := NewBidRepository(db)

	for _, carrierID := range []uint{1, 2} {
		bid := &models.Bid{
			LoadID:      10,
			CarrierID:   carrierID,
			CarrierType: constants.CarrierKindSolo,
			Amount:      models.MustMoney("500"),
			Status:      constants.BidStatusAccepted,
		}
		err := repo.Create(bid)
		if carrierID == 1 && err != nil {
			t.Fatalf("first accepted bid should be stored: %v", err)
		}
		if carrierID == 2 && err == nil {
			t.Fatalf("second accepted bid on same load should violate unique index")
		}
	}
}

func TestBidRepositoryCloseOpenByLoad(t *testing.T) {
	db := setupRepositoryTest(t)
	repo := NewBidRepository(db)
	statuses := []string{constants.BidStatusPending, constants.BidStatusCountered, constants.BidStatusRejected, constants.BidStatusPending}
	var keep uint
	for idx, status := range statuses {
		bid := &models.Bid{
			LoadID:      3,
			CarrierID:   uint(idx + 1),
			CarrierType: constants.CarrierKindSolo,
			Amount:      models.MustMoney("100"),
			Status:      status,
		}
		if err := repo.Create(bid); err != nil {
			t.Fatalf("create bid failed: %v", err)
		}
		if idx == 0 {
			keep = bid.ID
		}
	}

	closed, err := repo.CloseOpenByLoad(3, keep, constants.BidStatusRejected, time.Now())
	if err != nil {
		t.Fatalf("close open bids failed: %v", err)
	}
	if len(closed) != 2 {
		t.Fatalf("closed bids want 2 got %d", len(closed))
	}
	pending, _ := repo.CountByLoadAndStatus(3, constants.BidStatusPending)
	if pending != 1 {
		t.Fatalf("pending bids want 1 got %d", pending)
	}
}

func TestOtpRepositoryPendingUniquePerPair(t *testing.T) {
	db := setupRepositoryTest(t)
	repo := NewOtpRepository(db)
	now := time.Now()

	first := &models.OtpRequest{
		ShipmentID:  5,
		RequestType: constants.OtpRequestTypeTripStart,
		Status:      constants.OtpRequestStatusPending,
		RequestedBy: 1,
		RequestedAt: now,
	}
	if err := repo.CreateRequest(first); err != nil {
		t.Fatalf("create first request failed: %v", err)
	}
	duplicate := *first
	duplicate.ID = 0
	if err := repo.CreateRequest(&duplicate); err == nil {
		t.Fatalf("duplicate pending request should violate partial unique index")
	}

	if ok, err := repo.TransitionRequest(first.ID, []string{constants.OtpRequestStatusPending}, constants.OtpRequestStatusRejected, nil); err != nil || !ok {
		t.Fatalf("reject request want ok got %v err=%v", ok, err)
	}
	again := duplicate
	again.ID = 0
	if err := repo.CreateRequest(&again); err != nil {
		t.Fatalf("new pending request after reject should be allowed: %v", err)
	}
}

func TestOtpRepositoryInvalidateAndConsume(t *testing.T) {
	db := setupRepositoryTest(t)
	repo := NewOtpRepository(db)
	now := time.Now()

	request := &models.OtpRequest{
		ShipmentID:  9,
		RequestType: constants.OtpRequestTypeTripEnd,
		Status:      constants.OtpRequestStatusApproved,
		RequestedBy: 1,
		RequestedAt: now,
	}
	if err := repo.CreateRequest(request); err != nil {
		t.Fatalf("create request failed: %v", err)
	}
	otp := &models.Otp{OtpRequestID: request.ID, CodeHash: "hash", ValidUntil: now.Add(time.Minute), IssuedBy: 1}
	if err := repo.CreateOtp(otp); err != nil {
		t.Fatalf("create otp failed: %v", err)
	}

	affected, err := repo.InvalidateActiveOtps(9, constants.OtpRequestTypeTripEnd, now)
	if err != nil || affected != 1 {
		t.Fatalf("invalidate want 1 got %d err=%v", affected, err)
	}
	active, _ := repo.GetActiveOtpByRequest(request.ID)
	if active != nil {
		t.Fatalf("no active otp expected after invalidation")
	}
	if ok, _ := repo.Consume(otp.ID, now); ok {
		t.Fatalf("invalidated otp must not be consumable")
	}

	for i := 0; i < 2; i++ {
		if ok, err := repo.IncrementAttempt(otp.ID, 2); err != nil || !ok {
			t.Fatalf("increment attempt %d want ok got ok=%v err=%v", i+1, ok, err)
		}
	}
	if ok, err := repo.IncrementAttempt(otp.ID, 2); err != nil || ok {
		t.Fatalf("increment past cap want false got ok=%v err=%v", ok, err)
	}
	latest, _ := repo.GetLatestOtpByRequest(request.ID)
	if latest == nil || latest.AttemptCount != 2 {
		t.Fatalf("attempt count want 2 got %+v", latest)
	}
}

func TestDocumentRepositoryLatestByOwner(t *testing.T) {
	db := setupRepositoryTest(t)
	repo := NewDocumentRepository(db)
	base := time.Now().Add(-time.Hour)
	expired := base.Add(-24 * time.Hour)
	docs := []models.Document{
		{OwnerType: constants.DocumentOwnerCarrier, OwnerID: 1, DocumentType: constants.DocumentTypeInsurance, ExpiryDate: &expired, UploadedBy: 1, CreatedAt: base},
		{OwnerType: constants.DocumentOwnerCarrier, OwnerID: 1, DocumentType: constants.DocumentTypeInsurance, UploadedBy: 1, CreatedAt: base.Add(time.Minute)},
		{OwnerType: constants.DocumentOwnerCarrier, OwnerID: 2, DocumentType: constants.DocumentTypePermit, UploadedBy: 1, CreatedAt: base},
	}
	for i := range docs {
		if err := repo.Create(&docs[i]); err != nil {
			t.Fatalf("create document failed: %v", err)
		}
	}

	latest, err := repo.LatestByOwner(constants.DocumentOwnerCarrier, 1, []string{constants.DocumentTypeInsurance, constants.DocumentTypePermit})
	if err != nil {
		t.Fatalf("latest by owner failed: %v", err)
	}
	if _, ok := latest[constants.DocumentTypePermit]; ok {
		t.Fatalf("permit belongs to another owner")
	}
	insurance := latest[constants.DocumentTypeInsurance]
	if insurance == nil || insurance.ExpiryDate != nil {
		t.Fatalf("latest insurance should be the non-expiring one, got %+v", insurance)
	}
}
