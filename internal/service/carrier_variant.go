package service

import (
	"github.com/freightlane/internal/constants"
	"github.com/freightlane/internal/models"
)

// ComplianceSubject 合规校验主体
type ComplianceSubject struct {
	Kind string `json:"kind"`
	ID   uint   `json:"id"`
}

// CarrierVariant 承运方类型变体
type CarrierVariant interface {
	Kind() string
	Profile() *models.Carrier
	// BidSubjects 报价与中标时需要校验的主体
	BidSubjects() []ComplianceSubject
	// TripSubjects 申请行程验证码时需要校验的主体
	TripSubjects(shipment *models.Shipment) ([]ComplianceSubject, error)
	// InitialResources 中标时写入运单的司机与车辆
	InitialResources() (driverID *uint, truckID *uint)
	// AssignsResources 是否允许手动指派司机与车辆
	AssignsResources() bool
}

// SoloCarrier 个体司机：本人驾驶登记车辆
type SoloCarrier struct {
	carrier *models.Carrier
}

// EnterpriseCarrier 车队企业：按运单指派司机与车辆
type EnterpriseCarrier struct {
	carrier *models.Carrier
}

// NewCarrierVariant 根据承运方类型构造变体
func NewCarrierVariant(carrier *models.Carrier) (CarrierVariant, error) {
	if carrier == nil {
		return nil, ErrCarrierNotFound
	}
	switch carrier.Kind {
	case constants.CarrierKindSolo:
		return SoloCarrier{carrier: carrier}, nil
	case constants.CarrierKindEnterprise:
		return EnterpriseCarrier{carrier: carrier}, nil
	default:
		return nil, ErrFleetInputInvalid
	}
}

// Kind 类型
func (c SoloCarrier) Kind() string { return constants.CarrierKindSolo }

// Profile 承运方资料
func (c SoloCarrier) Profile() *models.Carrier { return c.carrier }

// BidSubjects 个体司机证件挂在本人名下，登记车辆按配置附加校验
func (c SoloCarrier) BidSubjects() []ComplianceSubject {
	subjects := []ComplianceSubject{{Kind: constants.DocumentOwnerCarrier, ID: c.carrier.ID}}
	if c.carrier.DefaultTruckID != nil {
		subjects = append(subjects, ComplianceSubject{Kind: constants.DocumentOwnerTruck, ID: *c.carrier.DefaultTruckID})
	}
	return subjects
}

// TripSubjects 行程校验与报价校验一致，车辆以运单为准
func (c SoloCarrier) TripSubjects(shipment *models.Shipment) ([]ComplianceSubject, error) {
	subjects := []ComplianceSubject{{Kind: constants.DocumentOwnerCarrier, ID: c.carrier.ID}}
	truckID := c.carrier.DefaultTruckID
	if shipment != nil && shipment.TruckID != nil {
		truckID = shipment.TruckID
	}
	if truckID != nil {
		subjects = append(subjects, ComplianceSubject{Kind: constants.DocumentOwnerTruck, ID: *truckID})
	}
	return subjects, nil
}

// InitialResources 个体司机自动使用登记车辆
func (c SoloCarrier) InitialResources() (*uint, *uint) {
	if c.carrier.DefaultTruckID == nil {
		return nil, nil
	}
	truckID := *c.carrier.DefaultTruckID
	return nil, &truckID
}

// AssignsResources 个体司机不可改派
func (c SoloCarrier) AssignsResources() bool { return false }

// Kind 类型
func (c EnterpriseCarrier) Kind() string { return constants.CarrierKindEnterprise }

// Profile 承运方资料
func (c EnterpriseCarrier) Profile() *models.Carrier { return c.carrier }

// BidSubjects 企业报价只校验企业资质
func (c EnterpriseCarrier) BidSubjects() []ComplianceSubject {
	return []ComplianceSubject{{Kind: constants.DocumentOwnerCarrier, ID: c.carrier.ID}}
}

// TripSubjects 企业行程需校验企业、指派车辆与司机
func (c EnterpriseCarrier) TripSubjects(shipment *models.Shipment) ([]ComplianceSubject, error) {
	if shipment == nil || shipment.TruckID == nil || shipment.DriverID == nil {
		return nil, ErrShipmentResourcesMiss
	}
	return []ComplianceSubject{
		{Kind: constants.DocumentOwnerCarrier, ID: c.carrier.ID},
		{Kind: constants.DocumentOwnerTruck, ID: *shipment.TruckID},
		{Kind: constants.DocumentOwnerDriver, ID: *shipment.DriverID},
	}, nil
}

// InitialResources 企业中标后再指派
func (c EnterpriseCarrier) InitialResources() (*uint, *uint) { return nil, nil }

// AssignsResources 企业可指派司机与车辆
func (c EnterpriseCarrier) AssignsResources() bool { return true }
