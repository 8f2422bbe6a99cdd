package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/freightlane/internal/config"
	"github.com/freightlane/internal/constants"
	"github.com/freightlane/internal/logger"
	"github.com/freightlane/internal/models"
	"github.com/freightlane/internal/provider"
	"github.com/freightlane/internal/service"
)

const (
	seedAdminID   = 1
	seedShipperID = 1001
)

func main() {
	var tokenTTL time.Duration
	flag.DurationVar(&tokenTTL, "token-ttl", 72*time.Hour, "演示令牌有效期")
	flag.Parse()

	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, false, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	container := provider.NewContainer(cfg)
	defer container.Close()

	var existing int64
	if err := models.DB.Model(&models.Carrier{}).Count(&existing).Error; err != nil {
		stdLog.Fatalf("Failed to inspect carriers: %v", err)
	}
	admin := service.AdminActor(seedAdminID)
	shipper := service.ShipperActor(seedShipperID)

	var solo, enterprise *models.Carrier
	if existing > 0 {
		stdLog.Printf("Carriers already exist (%d), skip fleet seeding", existing)
	} else {
		var err error
		solo, err = seedSoloCarrier(container, admin)
		if err != nil {
			stdLog.Fatalf("Failed to seed solo carrier: %v", err)
		}
		enterprise, err = seedEnterpriseCarrier(container, admin)
		if err != nil {
			stdLog.Fatalf("Failed to seed enterprise carrier: %v", err)
		}
		stdLog.Printf("Created carriers: solo=%d enterprise=%d", solo.ID, enterprise.ID)

		load, err := seedOpenLoad(container, admin, shipper)
		if err != nil {
			stdLog.Fatalf("Failed to seed load: %v", err)
		}
		stdLog.Printf("Created load %s in status %s", load.ReferenceNo, load.Status)
	}

	// 输出演示令牌
	actors := []service.Actor{admin, shipper}
	if solo != nil {
		actors = append(actors, service.CarrierActor(solo.ID))
	}
	if enterprise != nil {
		actors = append(actors, service.CarrierActor(enterprise.ID))
	}
	for _, actor := range actors {
		token, expiresAt, err := container.TokenService.IssueToken(actor, tokenTTL)
		if err != nil {
			stdLog.Printf("Failed to issue token for %s:%d: %v", actor.Role, actor.ID, err)
			continue
		}
		fmt.Printf("%s:%d (expires %s)\n%s\n\n", actor.Role, actor.ID, expiresAt.Format(time.RFC3339), token)
	}

	stdLog.Println("Seed data completed!")
}

func seedSoloCarrier(c *provider.Container, admin service.Actor) (*models.Carrier, error) {
	carrier, err := c.FleetService.CreateCarrier(admin, service.CreateCarrierInput{
		Kind:  constants.CarrierKindSolo,
		Name:  "Ade Transport",
		Phone: "+2348000000001",
	})
	if err != nil {
		return nil, err
	}
	if _, err := c.FleetService.CreateTruck(admin, service.CreateTruckInput{
		CarrierID:   carrier.ID,
		PlateNumber: "LAG-123-AA",
		TruckType:   "flatbed",
		CapacityKg:  models.MustMoney("20000"),
	}); err != nil {
		return nil, err
	}
	err = registerDocuments(c, admin, constants.DocumentOwnerCarrier, carrier.ID, []string{
		constants.DocumentTypeDrivingLicense,
		constants.DocumentTypeVehicleRegistration,
		constants.DocumentTypeInsurance,
		constants.DocumentTypeFitnessCertificate,
	})
	return carrier, err
}

func seedEnterpriseCarrier(c *provider.Container, admin service.Actor) (*models.Carrier, error) {
	carrier, err := c.FleetService.CreateCarrier(admin, service.CreateCarrierInput{
		Kind:  constants.CarrierKindEnterprise,
		Name:  "Northline Haulage Ltd",
		Phone: "+2348000000002",
	})
	if err != nil {
		return nil, err
	}
	if err := registerDocuments(c, admin, constants.DocumentOwnerCarrier, carrier.ID, []string{
		constants.DocumentTypeBusinessLicense,
		constants.DocumentTypeInsurance,
	}); err != nil {
		return nil, err
	}
	truck, err := c.FleetService.CreateTruck(admin, service.CreateTruckInput{
		CarrierID:   carrier.ID,
		PlateNumber: "ABJ-456-BB",
		TruckType:   "box",
		CapacityKg:  models.MustMoney("30000"),
	})
	if err != nil {
		return nil, err
	}
	if err := registerDocuments(c, admin, constants.DocumentOwnerTruck, truck.ID, []string{
		constants.DocumentTypeVehicleRegistration,
		constants.DocumentTypeInsurance,
		constants.DocumentTypeFitnessCertificate,
		constants.DocumentTypePermit,
	}); err != nil {
		return nil, err
	}
	driver, err := c.FleetService.CreateDriver(admin, service.CreateDriverInput{
		CarrierID: carrier.ID,
		Name:      "Chinedu Okafor",
		Phone:     "+2348000000003",
	})
	if err != nil {
		return nil, err
	}
	err = registerDocuments(c, admin, constants.DocumentOwnerDriver, driver.ID, []string{
		constants.DocumentTypeDrivingLicense,
	})
	return carrier, err
}

func registerDocuments(c *provider.Container, admin service.Actor, ownerType string, ownerID uint, docTypes []string) error {
	expiry := time.Now().AddDate(1, 0, 0)
	for _, docType := range docTypes {
		if _, err := c.DocumentService.RegisterDocument(context.Background(), admin, service.RegisterDocumentInput{
			OwnerType:    ownerType,
			OwnerID:      ownerID,
			DocumentType: docType,
			DocumentNo:   fmt.Sprintf("%s-%d-%s", ownerType, ownerID, docType),
			ExpiryDate:   &expiry,
		}); err != nil {
			return err
		}
	}
	return nil
}

func seedOpenLoad(c *provider.Container, admin, shipper service.Actor) (*models.Load, error) {
	load, err := c.LoadService.CreateLoad(shipper, service.CreateLoadInput{
		PickupLocation:  "Apapa Port, Lagos",
		DropoffLocation: "Kano Central Depot",
		WeightKg:        models.MustMoney("18000"),
		TruckType:       "flatbed",
		Description:     "Bagged cement",
	})
	if err != nil {
		return nil, err
	}
	if _, err := c.LoadService.PriceLoad(admin, load.ID, models.MustMoney("850000")); err != nil {
		return nil, err
	}
	if _, err := c.LoadService.PostLoad(admin, load.ID); err != nil {
		return nil, err
	}
	return c.LoadService.OpenLoadForBids(admin, load.ID)
}
