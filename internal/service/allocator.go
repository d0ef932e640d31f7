package service

import (
	"context"
	"fmt"

	"github.com/EagleChen/mapmutex"
	"go.uber.org/zap"

	"github.com/langchou/parklot/internal/events"
	"github.com/langchou/parklot/internal/fault"
	"github.com/langchou/parklot/internal/models"
)

// SpotAllocator 车位分配器，按车位维度互斥避免双重占用
type SpotAllocator struct {
	spots  SpotStore
	locks  *mapmutex.Mutex
	bus    *events.Bus
	logger *zap.Logger
}

// NewSpotAllocator 创建车位分配器
func NewSpotAllocator(spots SpotStore, bus *events.Bus, logger *zap.Logger) *SpotAllocator {
	return &SpotAllocator{
		spots:  spots,
		locks:  mapmutex.NewMapMutex(),
		bus:    bus,
		logger: logger,
	}
}

// FindCandidates 返回该车型可停的空闲车位，按楼层、排、序号排序
func (a *SpotAllocator) FindCandidates(ctx context.Context, class models.VehicleClass) ([]*models.ParkingSpot, error) {
	available, err := a.spots.ListAvailableSpots(ctx)
	if err != nil {
		return nil, fmt.Errorf("list available spots: %w", err)
	}
	candidates := make([]*models.ParkingSpot, 0, len(available))
	for _, spot := range available {
		if models.CanParkIn(class, spot.Category) {
			candidates = append(candidates, spot)
		}
	}
	return candidates, nil
}

// Allocate 把指定车位分配给车辆，车位被占或不兼容时返回错误
// 只改状态不发事件：车位事件由编排层在整个入出场流程完成后统一发布，
// 失败回滚的分配不会对外可见
func (a *SpotAllocator) Allocate(ctx context.Context, spotID, plate string, class models.VehicleClass) (*models.ParkingSpot, error) {
	if !a.locks.TryLock(spotID) {
		return nil, fault.Conflict("spot %s is being allocated", spotID)
	}
	defer a.locks.Unlock(spotID)

	spot, err := a.spots.GetSpot(ctx, spotID)
	if err != nil {
		return nil, err
	}
	if !spot.Available() {
		return nil, fault.Conflict("spot %s is occupied", spotID)
	}
	if !models.CanParkIn(class, spot.Category) {
		return nil, fault.Validation("vehicle class %s cannot park in %s spot %s", class, spot.Category, spotID)
	}

	if err := a.spots.UpdateSpotOccupancy(ctx, spotID, models.StatusOccupied, &plate); err != nil {
		return nil, fmt.Errorf("occupy spot: %w", err)
	}
	spot.Status = models.StatusOccupied
	spot.OccupantPlate = &plate

	a.logger.Info("spot allocated", zap.String("spot_id", spotID), zap.String("plate", plate))
	return spot, nil
}

// Release 释放车位并返回释放后的车位，释放空闲车位视为一致性冲突
// 同 Allocate，不发事件
func (a *SpotAllocator) Release(ctx context.Context, spotID string) (*models.ParkingSpot, error) {
	if !a.locks.TryLock(spotID) {
		return nil, fault.Conflict("spot %s is being allocated", spotID)
	}
	defer a.locks.Unlock(spotID)

	spot, err := a.spots.GetSpot(ctx, spotID)
	if err != nil {
		return nil, err
	}
	if spot.Available() {
		return nil, fault.Conflict("spot %s is already available", spotID)
	}

	if err := a.spots.UpdateSpotOccupancy(ctx, spotID, models.StatusAvailable, nil); err != nil {
		return nil, fmt.Errorf("release spot: %w", err)
	}
	spot.Status = models.StatusAvailable
	spot.OccupantPlate = nil

	a.logger.Info("spot released", zap.String("spot_id", spotID))
	return spot, nil
}

// ChangeCategory 修改空闲车位的类型并同步基准费率
func (a *SpotAllocator) ChangeCategory(ctx context.Context, spotID string, category models.SpotCategory) (*models.ParkingSpot, error) {
	if !category.Valid() {
		return nil, fault.Validation("unknown spot category: %s", category)
	}
	if !a.locks.TryLock(spotID) {
		return nil, fault.Conflict("spot %s is being allocated", spotID)
	}
	defer a.locks.Unlock(spotID)

	spot, err := a.spots.GetSpot(ctx, spotID)
	if err != nil {
		return nil, err
	}
	if !spot.Available() {
		return nil, fault.Conflict("spot %s is occupied, cannot change category", spotID)
	}

	rate := category.BaseRate()
	if err := a.spots.UpdateSpotCategory(ctx, spotID, category, rate); err != nil {
		return nil, fmt.Errorf("update spot category: %w", err)
	}
	spot.Category = category
	spot.HourlyRate = rate

	a.logger.Info("spot category changed",
		zap.String("spot_id", spotID),
		zap.String("category", string(category)))
	a.bus.Publish(events.SpotTypeChanged, spot)

	return spot, nil
}
