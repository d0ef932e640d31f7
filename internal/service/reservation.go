package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/langchou/parklot/internal/fault"
	"github.com/langchou/parklot/internal/models"
)

// ReservationManager 预约管理器
type ReservationManager struct {
	reservations ReservationStore
	spots        SpotStore
	logger       *zap.Logger
	now          func() time.Time
}

// NewReservationManager 创建预约管理器
func NewReservationManager(reservations ReservationStore, spots SpotStore, logger *zap.Logger) *ReservationManager {
	return &ReservationManager{reservations: reservations, spots: spots, logger: logger, now: time.Now}
}

// Claim 为预约车位创建未绑定车牌的预约，重复调用返回已有记录
func (m *ReservationManager) Claim(ctx context.Context, spotID string) (*models.Reservation, error) {
	spot, err := m.spots.GetSpot(ctx, spotID)
	if err != nil {
		return nil, err
	}
	if spot.Category != models.SpotReserved {
		return nil, fault.Validation("spot %s is not a reserved spot", spotID)
	}

	existing, err := m.reservations.ActiveReservationForSpot(ctx, spotID)
	if err != nil && !fault.IsKind(err, fault.KindNotFound) {
		return nil, fmt.Errorf("lookup reservation: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	reservation := &models.Reservation{
		ID:        uuid.NewString(),
		SpotID:    spotID,
		Active:    true,
		CreatedAt: m.now(),
	}
	if err := m.reservations.InsertReservation(ctx, reservation); err != nil {
		return nil, fmt.Errorf("insert reservation: %w", err)
	}

	m.logger.Info("reservation claimed", zap.String("spot_id", spotID), zap.String("reservation_id", reservation.ID))
	return reservation, nil
}

// Assign 把已存在的预约绑定到指定车牌
func (m *ReservationManager) Assign(ctx context.Context, reservationID, plate string) (*models.Reservation, error) {
	plate, err := models.ValidatePlate(plate)
	if err != nil {
		return nil, err
	}

	reservation, err := m.reservations.GetReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if !reservation.Active {
		return nil, fault.Conflict("reservation %s is no longer active", reservationID)
	}
	if reservation.Plate != nil && *reservation.Plate != plate {
		return nil, fault.Conflict("reservation %s is already assigned to %s", reservationID, *reservation.Plate)
	}

	reservation.Plate = &plate
	if err := m.reservations.UpdateReservation(ctx, reservation); err != nil {
		return nil, fmt.Errorf("update reservation: %w", err)
	}

	m.logger.Info("reservation assigned", zap.String("reservation_id", reservationID), zap.String("plate", plate))
	return reservation, nil
}

// IsSatisfiedBy 预约位是否允许该车牌入场：存在有效预约且未绑定或绑定该车牌
func (m *ReservationManager) IsSatisfiedBy(ctx context.Context, spotID, plate string) (bool, error) {
	reservation, err := m.reservations.ActiveReservationForSpot(ctx, spotID)
	if err != nil {
		if fault.IsKind(err, fault.KindNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("lookup reservation: %w", err)
	}
	if reservation.Plate == nil {
		return true, nil
	}
	return *reservation.Plate == plate, nil
}

// Consume 入场时消费预约：绑定车牌并置为失效
func (m *ReservationManager) Consume(ctx context.Context, spotID, plate string) (*models.Reservation, error) {
	reservation, err := m.reservations.ActiveReservationForSpot(ctx, spotID)
	if err != nil {
		return nil, err
	}
	if reservation.Plate != nil && *reservation.Plate != plate {
		return nil, fault.Conflict("reservation for spot %s belongs to %s", spotID, *reservation.Plate)
	}

	reservation.Plate = &plate
	reservation.Active = false
	if err := m.reservations.UpdateReservation(ctx, reservation); err != nil {
		return nil, fmt.Errorf("consume reservation: %w", err)
	}

	m.logger.Info("reservation consumed", zap.String("spot_id", spotID), zap.String("plate", plate))
	return reservation, nil
}

// Cancel 取消预约
func (m *ReservationManager) Cancel(ctx context.Context, reservationID string) error {
	reservation, err := m.reservations.GetReservation(ctx, reservationID)
	if err != nil {
		return err
	}
	if !reservation.Active {
		return fault.Conflict("reservation %s is no longer active", reservationID)
	}

	reservation.Active = false
	if err := m.reservations.UpdateReservation(ctx, reservation); err != nil {
		return fmt.Errorf("cancel reservation: %w", err)
	}

	m.logger.Info("reservation cancelled", zap.String("reservation_id", reservationID))
	return nil
}

// ListActive 列出全部有效预约
func (m *ReservationManager) ListActive(ctx context.Context) ([]*models.Reservation, error) {
	return m.reservations.ListActiveReservations(ctx)
}

// WasConsumedBy 该车牌在指定时间后是否消费过该车位的预约，用于出场判定滥用
func (m *ReservationManager) WasConsumedBy(ctx context.Context, spotID, plate string, since time.Time) (bool, error) {
	return m.reservations.ConsumedReservationExists(ctx, spotID, plate, since)
}
