package service

import (
	"context"
	"fmt"
	"time"

	"github.com/EagleChen/mapmutex"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/langchou/parklot/internal/events"
	"github.com/langchou/parklot/internal/fault"
	"github.com/langchou/parklot/internal/models"
)

// EntryResult 入场结果
type EntryResult struct {
	Ticket      *models.Ticket      `json:"ticket"`
	Spot        *models.ParkingSpot `json:"spot"`
	Vehicle     *models.Vehicle     `json:"vehicle"`
	Reservation *models.Reservation `json:"reservation,omitempty"`
}

// ExitReceipt 出场凭据，包含账单与结算明细
type ExitReceipt struct {
	Bill       *models.Bill     `json:"bill"`
	Settlement SettlementResult `json:"settlement"`
	Payment    *models.Payment  `json:"payment"`
}

// SessionService 入出场编排，按车牌维度互斥
type SessionService struct {
	vehicles     VehicleStore
	payments     PaymentStore
	allocator    *SpotAllocator
	reservations *ReservationManager
	ledger       *TicketLedger
	billing      *BillingCalculator
	locks        *mapmutex.Mutex
	bus          *events.Bus
	logger       *zap.Logger
	now          func() time.Time
}

// NewSessionService 创建入出场服务
func NewSessionService(
	vehicles VehicleStore,
	payments PaymentStore,
	allocator *SpotAllocator,
	reservations *ReservationManager,
	ledger *TicketLedger,
	billing *BillingCalculator,
	bus *events.Bus,
	logger *zap.Logger,
) *SessionService {
	return &SessionService{
		vehicles:     vehicles,
		payments:     payments,
		allocator:    allocator,
		reservations: reservations,
		ledger:       ledger,
		billing:      billing,
		locks:        mapmutex.NewMapMutex(),
		bus:          bus,
		logger:       logger,
		now:          time.Now,
	}
}

// Enter 车辆入场：登记车辆、分配车位、消费预约、开票
// spotID 为空时自动挑选第一个兼容空位
func (s *SessionService) Enter(ctx context.Context, plate string, class models.VehicleClass, spotID string) (*EntryResult, error) {
	plate, err := models.ValidatePlate(plate)
	if err != nil {
		return nil, err
	}
	if !class.Valid() {
		return nil, fault.Validation("unknown vehicle class: %s", class)
	}

	if !s.locks.TryLock(plate) {
		return nil, fault.Conflict("vehicle %s has an operation in progress", plate)
	}
	defer s.locks.Unlock(plate)

	vehicle, err := s.registerVehicle(ctx, plate, class)
	if err != nil {
		return nil, err
	}

	if spotID == "" {
		spotID, err = s.pickSpot(ctx, plate, vehicle.Class)
		if err != nil {
			return nil, err
		}
	}

	spot, err := s.allocator.Allocate(ctx, spotID, plate, vehicle.Class)
	if err != nil {
		return nil, err
	}

	var reservation *models.Reservation
	if spot.Category == models.SpotReserved {
		ok, err := s.reservations.IsSatisfiedBy(ctx, spotID, plate)
		if err != nil {
			s.rollbackSpot(ctx, spotID)
			return nil, err
		}
		if ok {
			reservation, err = s.reservations.Consume(ctx, spotID, plate)
			if err != nil {
				s.rollbackSpot(ctx, spotID)
				return nil, err
			}
		}
		// 无预约也允许入场，出场时按滥用罚款
	}

	ticket, err := s.ledger.Open(ctx, plate, spotID, s.now())
	if err != nil {
		s.rollbackSpot(ctx, spotID)
		return nil, err
	}

	s.logger.Info("vehicle entered",
		zap.String("plate", plate),
		zap.String("spot_id", spotID),
		zap.String("ticket_id", ticket.ID))
	// 全部状态变更落库后才发事件，回滚过的分配不会被订阅方看到
	s.bus.Publish(events.SpotStatusChanged, spot)
	s.bus.Publish(events.VehicleEntered, ticket)

	return &EntryResult{Ticket: ticket, Spot: spot, Vehicle: vehicle, Reservation: reservation}, nil
}

// Bill 出场前预览账单，不做任何状态变更以外的写入（罚款生成幂等）
func (s *SessionService) Bill(ctx context.Context, plate string) (*models.Bill, error) {
	return s.billing.GenerateBill(ctx, plate, s.now())
}

// Exit 车辆出场：生成账单、瀑布式结算、关票、释放车位、更新余额
func (s *SessionService) Exit(ctx context.Context, plate string, tendered float64, method models.PaymentMethod) (*ExitReceipt, error) {
	plate, err := models.ValidatePlate(plate)
	if err != nil {
		return nil, err
	}
	if !method.Valid() {
		return nil, fault.Validation("unknown payment method: %s", method)
	}
	if tendered < 0 {
		return nil, fault.Validation("tendered amount cannot be negative")
	}

	if !s.locks.TryLock(plate) {
		return nil, fault.Conflict("vehicle %s has an operation in progress", plate)
	}
	defer s.locks.Unlock(plate)

	exitTime := s.now()
	bill, err := s.billing.GenerateBill(ctx, plate, exitTime)
	if err != nil {
		return nil, err
	}

	settlement := Settle(tendered, bill.Balance, bill.ParkingFee, bill.UnpaidFines)

	payment := &models.Payment{
		ID:         uuid.NewString(),
		TicketID:   bill.Ticket.ID,
		ParkingFee: settlement.PaidParkingFee,
		FineAmount: settlement.PaidFineTotal,
		Total:      settlement.TotalApplied,
		Method:     method,
		CreatedAt:  exitTime,
	}
	if err := s.payments.InsertPayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("insert payment: %w", err)
	}

	if len(settlement.PaidFines) > 0 {
		ids := make([]string, 0, len(settlement.PaidFines))
		for _, fine := range settlement.PaidFines {
			ids = append(ids, fine.ID)
		}
		if err := s.billing.fines.MarkFinesPaid(ctx, ids); err != nil {
			return nil, fmt.Errorf("mark fines paid: %w", err)
		}
		for _, fine := range settlement.PaidFines {
			fine.Paid = true
		}
	}

	if err := s.ledger.Close(ctx, bill.Ticket, exitTime); err != nil {
		return nil, err
	}
	spot, err := s.allocator.Release(ctx, bill.Ticket.SpotID)
	if err != nil {
		return nil, err
	}
	if err := s.vehicles.UpdateVehicleBalance(ctx, plate, settlement.NewBalance); err != nil {
		return nil, fmt.Errorf("update balance: %w", err)
	}

	s.logger.Info("vehicle exited",
		zap.String("plate", plate),
		zap.String("ticket_id", bill.Ticket.ID),
		zap.Float64("tendered", tendered),
		zap.Float64("paid_parking_fee", settlement.PaidParkingFee),
		zap.Float64("paid_fines", settlement.PaidFineTotal),
		zap.Float64("new_balance", settlement.NewBalance))
	// 出场流程全部落库后统一发事件
	for _, fine := range settlement.PaidFines {
		s.bus.Publish(events.FinePaid, fine)
	}
	s.bus.Publish(events.PaymentProcessed, payment)
	s.bus.Publish(events.SpotStatusChanged, spot)
	s.bus.Publish(events.VehicleExited, bill.Ticket)

	return &ExitReceipt{Bill: bill, Settlement: settlement, Payment: payment}, nil
}

// registerVehicle 首次入场登记车辆，已登记时校验车型一致
func (s *SessionService) registerVehicle(ctx context.Context, plate string, class models.VehicleClass) (*models.Vehicle, error) {
	vehicle, err := s.vehicles.GetVehicle(ctx, plate)
	if err == nil {
		if vehicle.Class != class {
			return nil, fault.Validation("vehicle %s is registered as %s, not %s", plate, vehicle.Class, class)
		}
		return vehicle, nil
	}
	if !fault.IsKind(err, fault.KindNotFound) {
		return nil, fmt.Errorf("lookup vehicle: %w", err)
	}

	now := s.now()
	vehicle = &models.Vehicle{Plate: plate, Class: class, Balance: 0, CreatedAt: now, UpdatedAt: now}
	if err := s.vehicles.InsertVehicle(ctx, vehicle); err != nil {
		return nil, fmt.Errorf("register vehicle: %w", err)
	}
	s.logger.Info("vehicle registered", zap.String("plate", plate), zap.String("class", string(class)))
	return vehicle, nil
}

// pickSpot 自动选位：预约位只在该车牌的预约可用时才选
func (s *SessionService) pickSpot(ctx context.Context, plate string, class models.VehicleClass) (string, error) {
	candidates, err := s.allocator.FindCandidates(ctx, class)
	if err != nil {
		return "", err
	}
	for _, spot := range candidates {
		if spot.Category == models.SpotReserved {
			ok, err := s.reservations.IsSatisfiedBy(ctx, spot.ID, plate)
			if err != nil || !ok {
				continue
			}
		}
		return spot.ID, nil
	}
	return "", fault.Conflict("no available spot for vehicle class %s", class)
}

// rollbackSpot 开票失败时的补偿释放，不发任何事件
func (s *SessionService) rollbackSpot(ctx context.Context, spotID string) {
	if _, err := s.allocator.Release(ctx, spotID); err != nil {
		s.logger.Error("rollback spot release failed", zap.String("spot_id", spotID), zap.Error(err))
	}
}
