package service

import (
	"context"
	"time"

	"github.com/langchou/parklot/internal/models"
)

// 引擎只依赖下面这些窄接口，不直接发 SQL
// repository 包提供 Postgres 实现，测试使用内存实现

// VehicleStore 车辆存储
type VehicleStore interface {
	GetVehicle(ctx context.Context, plate string) (*models.Vehicle, error)
	InsertVehicle(ctx context.Context, vehicle *models.Vehicle) error
	UpdateVehicleBalance(ctx context.Context, plate string, balance float64) error
}

// SpotStore 车位存储
type SpotStore interface {
	GetSpot(ctx context.Context, id string) (*models.ParkingSpot, error)
	ListSpots(ctx context.Context) ([]*models.ParkingSpot, error)
	ListAvailableSpots(ctx context.Context) ([]*models.ParkingSpot, error)
	InsertSpot(ctx context.Context, spot *models.ParkingSpot) error
	UpdateSpotOccupancy(ctx context.Context, id string, status models.SpotStatus, plate *string) error
	UpdateSpotCategory(ctx context.Context, id string, category models.SpotCategory, hourlyRate float64) error
	CountSpots(ctx context.Context) (int64, error)
	CountOccupiedSpots(ctx context.Context) (int64, error)
}

// ReservationStore 预约存储
type ReservationStore interface {
	InsertReservation(ctx context.Context, reservation *models.Reservation) error
	GetReservation(ctx context.Context, id string) (*models.Reservation, error)
	ActiveReservationForSpot(ctx context.Context, spotID string) (*models.Reservation, error)
	UpdateReservation(ctx context.Context, reservation *models.Reservation) error
	ListActiveReservations(ctx context.Context) ([]*models.Reservation, error)
	ConsumedReservationExists(ctx context.Context, spotID, plate string, since time.Time) (bool, error)
}

// TicketStore 票据存储
type TicketStore interface {
	InsertTicket(ctx context.Context, ticket *models.Ticket) error
	GetTicket(ctx context.Context, id string) (*models.Ticket, error)
	ActiveTicketForPlate(ctx context.Context, plate string) (*models.Ticket, error)
	SetTicketExit(ctx context.Context, id string, exitTime time.Time) error
	CountOpenTickets(ctx context.Context) (int64, error)
}

// FineStore 罚款存储
type FineStore interface {
	InsertFine(ctx context.Context, fine *models.Fine) error
	UpdateFineAmount(ctx context.Context, id string, amount float64) error
	FineByTicketAndKind(ctx context.Context, ticketID string, kind models.FineKind) (*models.Fine, error)
	// UnpaidFinesForPlate 按创建时间从旧到新返回
	UnpaidFinesForPlate(ctx context.Context, plate string) ([]*models.Fine, error)
	MarkFinesPaid(ctx context.Context, ids []string) error
	// SumUnpaidFines plate 为空时统计全场
	SumUnpaidFines(ctx context.Context, plate string) (float64, error)
}

// PaymentStore 支付存储
type PaymentStore interface {
	InsertPayment(ctx context.Context, payment *models.Payment) error
	SumPayments(ctx context.Context) (total, parkingFee, fineAmount float64, err error)
	CountPayments(ctx context.Context) (int64, error)
}

// ConfigStore 系统配置存储（当前只有全场罚款方案）
type ConfigStore interface {
	GetFineScheme(ctx context.Context) (models.FineScheme, error)
	SetFineScheme(ctx context.Context, scheme models.FineScheme) error
}
