package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/langchou/parklot/internal/fault"
	"github.com/langchou/parklot/internal/models"
)

// OccupancyReport 占用情况报表
type OccupancyReport struct {
	TotalSpots    int64                           `json:"total_spots"`
	OccupiedSpots int64                           `json:"occupied_spots"`
	OpenTickets   int64                           `json:"open_tickets"`
	ByCategory    map[models.SpotCategory]CatStat `json:"by_category"`
}

// CatStat 单一车位类型的占用统计
type CatStat struct {
	Total    int64 `json:"total"`
	Occupied int64 `json:"occupied"`
}

// RevenueReport 营收报表
type RevenueReport struct {
	PaymentCount     int64   `json:"payment_count"`
	TotalRevenue     float64 `json:"total_revenue"`
	ParkingFeeTotal  float64 `json:"parking_fee_total"`
	FineTotal        float64 `json:"fine_total"`
	OutstandingFines float64 `json:"outstanding_fines"`
}

// FacilityService 场地管理：初始化车位、报表与全场罚款方案
type FacilityService struct {
	spots    SpotStore
	tickets  TicketStore
	payments PaymentStore
	fines    FineStore
	config   ConfigStore
	logger   *zap.Logger
}

// NewFacilityService 创建场地管理服务
func NewFacilityService(spots SpotStore, tickets TicketStore, payments PaymentStore, fines FineStore, config ConfigStore, logger *zap.Logger) *FacilityService {
	return &FacilityService{spots: spots, tickets: tickets, payments: payments, fines: fines, config: config, logger: logger}
}

// Initialize 首次启动时生成全部车位，已有车位则跳过
// 每排布局：3 紧凑 / 5 标准 / 1 无障碍 / 1 预约
func (f *FacilityService) Initialize(ctx context.Context) error {
	count, err := f.spots.CountSpots(ctx)
	if err != nil {
		return fmt.Errorf("count spots: %w", err)
	}
	if count > 0 {
		f.logger.Info("facility already initialized", zap.Int64("spots", count))
		return nil
	}

	created := 0
	for floor := 1; floor <= models.TotalFloors; floor++ {
		for row := 1; row <= models.RowsPerFloor; row++ {
			for index := 1; index <= models.SpotsPerRow; index++ {
				category := rowCategory(index)
				spot := &models.ParkingSpot{
					ID:         models.SpotID(floor, row, index),
					Floor:      floor,
					Row:        row,
					Index:      index,
					Category:   category,
					HourlyRate: category.BaseRate(),
					Status:     models.StatusAvailable,
				}
				if err := f.spots.InsertSpot(ctx, spot); err != nil {
					return fmt.Errorf("insert spot %s: %w", spot.ID, err)
				}
				created++
			}
		}
	}

	f.logger.Info("facility initialized", zap.Int("spots", created))
	return nil
}

// rowCategory 按排内序号决定车位类型
func rowCategory(index int) models.SpotCategory {
	switch {
	case index <= models.CompactPerRow:
		return models.SpotCompact
	case index <= models.CompactPerRow+models.RegularPerRow:
		return models.SpotRegular
	case index <= models.CompactPerRow+models.RegularPerRow+models.AccessPerRow:
		return models.SpotAccessible
	default:
		return models.SpotReserved
	}
}

// ListSpots 按位置顺序列出全部车位
func (f *FacilityService) ListSpots(ctx context.Context) ([]*models.ParkingSpot, error) {
	return f.spots.ListSpots(ctx)
}

// GetSpot 查询单个车位
func (f *FacilityService) GetSpot(ctx context.Context, id string) (*models.ParkingSpot, error) {
	return f.spots.GetSpot(ctx, id)
}

// Occupancy 生成占用报表
func (f *FacilityService) Occupancy(ctx context.Context) (*OccupancyReport, error) {
	spots, err := f.spots.ListSpots(ctx)
	if err != nil {
		return nil, fmt.Errorf("list spots: %w", err)
	}
	openTickets, err := f.tickets.CountOpenTickets(ctx)
	if err != nil {
		return nil, fmt.Errorf("count open tickets: %w", err)
	}

	report := &OccupancyReport{
		ByCategory:  make(map[models.SpotCategory]CatStat),
		OpenTickets: openTickets,
	}
	for _, spot := range spots {
		report.TotalSpots++
		stat := report.ByCategory[spot.Category]
		stat.Total++
		if !spot.Available() {
			report.OccupiedSpots++
			stat.Occupied++
		}
		report.ByCategory[spot.Category] = stat
	}
	return report, nil
}

// Revenue 生成营收报表
func (f *FacilityService) Revenue(ctx context.Context) (*RevenueReport, error) {
	count, err := f.payments.CountPayments(ctx)
	if err != nil {
		return nil, fmt.Errorf("count payments: %w", err)
	}
	total, parkingFee, fineAmount, err := f.payments.SumPayments(ctx)
	if err != nil {
		return nil, fmt.Errorf("sum payments: %w", err)
	}
	outstanding, err := f.fines.SumUnpaidFines(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("sum unpaid fines: %w", err)
	}

	return &RevenueReport{
		PaymentCount:     count,
		TotalRevenue:     total,
		ParkingFeeTotal:  parkingFee,
		FineTotal:        fineAmount,
		OutstandingFines: outstanding,
	}, nil
}

// FineScheme 读取当前全场罚款方案，未配置时返回默认方案
func (f *FacilityService) FineScheme(ctx context.Context) (models.FineScheme, error) {
	scheme, err := f.config.GetFineScheme(ctx)
	if err != nil {
		if fault.IsKind(err, fault.KindNotFound) {
			return models.DefaultFineScheme, nil
		}
		return "", err
	}
	return scheme, nil
}

// SetDefaultFineScheme 首次启动时写入默认方案，已有配置则保留
func (f *FacilityService) SetDefaultFineScheme(ctx context.Context, scheme models.FineScheme) error {
	_, err := f.config.GetFineScheme(ctx)
	if err == nil {
		return nil
	}
	if !fault.IsKind(err, fault.KindNotFound) {
		return fmt.Errorf("load fine scheme: %w", err)
	}
	return f.SetFineScheme(ctx, scheme)
}

// SetFineScheme 切换全场罚款方案，只影响之后开出的票据
func (f *FacilityService) SetFineScheme(ctx context.Context, scheme models.FineScheme) error {
	if !scheme.Valid() {
		return fault.Validation("unknown fine scheme: %s", scheme)
	}
	if err := f.config.SetFineScheme(ctx, scheme); err != nil {
		return fmt.Errorf("set fine scheme: %w", err)
	}
	f.logger.Info("fine scheme changed", zap.String("scheme", string(scheme)))
	return nil
}
