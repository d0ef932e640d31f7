package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/langchou/parklot/internal/models"
)

// BillingCalculator 账单计算器，出场前生成完整账单
type BillingCalculator struct {
	vehicles     VehicleStore
	spots        SpotStore
	ledger       *TicketLedger
	fineEngine   *FineEngine
	fines        FineStore
	reservations *ReservationManager
	logger       *zap.Logger
}

// NewBillingCalculator 创建账单计算器
func NewBillingCalculator(
	vehicles VehicleStore,
	spots SpotStore,
	ledger *TicketLedger,
	fineEngine *FineEngine,
	fines FineStore,
	reservations *ReservationManager,
	logger *zap.Logger,
) *BillingCalculator {
	return &BillingCalculator{
		vehicles:     vehicles,
		spots:        spots,
		ledger:       ledger,
		fineEngine:   fineEngine,
		fines:        fines,
		reservations: reservations,
		logger:       logger,
	}
}

// GenerateBill 按出场时间生成账单：停车费、本次新罚款和历史未付罚款
// 可重复调用，罚款生成按(票据,类型)幂等
func (b *BillingCalculator) GenerateBill(ctx context.Context, plate string, exitTime time.Time) (*models.Bill, error) {
	plate, err := models.ValidatePlate(plate)
	if err != nil {
		return nil, err
	}

	ticket, err := b.ledger.ActiveForPlate(ctx, plate)
	if err != nil {
		return nil, err
	}
	vehicle, err := b.vehicles.GetVehicle(ctx, plate)
	if err != nil {
		return nil, err
	}
	spot, err := b.spots.GetSpot(ctx, ticket.SpotID)
	if err != nil {
		return nil, err
	}

	hours, err := models.HoursBetween(ticket.EntryTime, exitTime)
	if err != nil {
		return nil, err
	}

	rate := models.HourlyRate(vehicle.Class, spot)
	parkingFee := float64(hours) * rate

	reservedMisuse := false
	if spot.Category == models.SpotReserved {
		consumed, err := b.reservations.WasConsumedBy(ctx, spot.ID, plate, ticket.EntryTime)
		if err != nil {
			return nil, fmt.Errorf("check reservation usage: %w", err)
		}
		reservedMisuse = !consumed
	}

	newFines, err := b.fineEngine.DetectAndGenerate(ctx, ticket, hours, reservedMisuse)
	if err != nil {
		return nil, err
	}

	unpaid, err := b.fines.UnpaidFinesForPlate(ctx, plate)
	if err != nil {
		return nil, fmt.Errorf("list unpaid fines: %w", err)
	}

	var newFineAmount float64
	for _, fine := range newFines {
		newFineAmount += fine.Amount
	}

	// 历史罚款指本次票据之外的未付罚款
	var priorFines []*models.Fine
	var priorFineAmount, totalFineAmount float64
	for _, fine := range unpaid {
		totalFineAmount += fine.Amount
		if fine.TicketID != ticket.ID {
			priorFines = append(priorFines, fine)
			priorFineAmount += fine.Amount
		}
	}

	bill := &models.Bill{
		Ticket:          ticket,
		Vehicle:         vehicle,
		Spot:            spot,
		EntryTime:       ticket.EntryTime,
		ExitTime:        exitTime,
		HoursParked:     hours,
		HourlyRate:      rate,
		ParkingFee:      parkingFee,
		NewFines:        newFines,
		NewFineAmount:   newFineAmount,
		PriorFines:      priorFines,
		PriorFineAmount: priorFineAmount,
		UnpaidFines:     unpaid,
		TotalFineAmount: totalFineAmount,
		TotalDue:        parkingFee + totalFineAmount,
		Scheme:          ticket.Scheme,
		Balance:         vehicle.Balance,
	}

	b.logger.Info("bill generated",
		zap.String("ticket_id", ticket.ID),
		zap.String("plate", plate),
		zap.Int64("hours", hours),
		zap.Float64("parking_fee", parkingFee),
		zap.Float64("fine_total", totalFineAmount))
	return bill, nil
}
