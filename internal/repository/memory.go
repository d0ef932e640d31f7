package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/langchou/parklot/internal/fault"
	"github.com/langchou/parklot/internal/models"
)

// MemoryStore 内存实现，与 Postgres 仓库行为一致，测试使用
type MemoryStore struct {
	mu           sync.Mutex
	vehicles     map[string]*models.Vehicle
	spots        map[string]*models.ParkingSpot
	reservations map[string]*models.Reservation
	tickets      map[string]*models.Ticket
	fines        map[string]*models.Fine
	payments     map[string]*models.Payment
	fineScheme   models.FineScheme
}

// NewMemoryStore 创建空的内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		vehicles:     make(map[string]*models.Vehicle),
		spots:        make(map[string]*models.ParkingSpot),
		reservations: make(map[string]*models.Reservation),
		tickets:      make(map[string]*models.Ticket),
		fines:        make(map[string]*models.Fine),
		payments:     make(map[string]*models.Payment),
		fineScheme:   models.DefaultFineScheme,
	}
}

func (s *MemoryStore) GetVehicle(_ context.Context, plate string) (*models.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vehicle, ok := s.vehicles[plate]
	if !ok {
		return nil, fault.NotFound("vehicle %s not found", plate)
	}
	copied := *vehicle
	return &copied, nil
}

func (s *MemoryStore) InsertVehicle(_ context.Context, vehicle *models.Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.vehicles[vehicle.Plate]; ok {
		return fault.Conflict("vehicle %s already exists", vehicle.Plate)
	}
	copied := *vehicle
	s.vehicles[vehicle.Plate] = &copied
	return nil
}

func (s *MemoryStore) UpdateVehicleBalance(_ context.Context, plate string, balance float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	vehicle, ok := s.vehicles[plate]
	if !ok {
		return fault.NotFound("vehicle %s not found", plate)
	}
	vehicle.Balance = balance
	vehicle.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) GetSpot(_ context.Context, id string) (*models.ParkingSpot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	spot, ok := s.spots[id]
	if !ok {
		return nil, fault.NotFound("spot %s not found", id)
	}
	copied := *spot
	return &copied, nil
}

func (s *MemoryStore) sortedSpots() []*models.ParkingSpot {
	spots := make([]*models.ParkingSpot, 0, len(s.spots))
	for _, spot := range s.spots {
		copied := *spot
		spots = append(spots, &copied)
	}
	sort.Slice(spots, func(i, j int) bool {
		if spots[i].Floor != spots[j].Floor {
			return spots[i].Floor < spots[j].Floor
		}
		if spots[i].Row != spots[j].Row {
			return spots[i].Row < spots[j].Row
		}
		return spots[i].Index < spots[j].Index
	})
	return spots
}

func (s *MemoryStore) ListSpots(_ context.Context) ([]*models.ParkingSpot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedSpots(), nil
}

func (s *MemoryStore) ListAvailableSpots(_ context.Context) ([]*models.ParkingSpot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var available []*models.ParkingSpot
	for _, spot := range s.sortedSpots() {
		if spot.Available() {
			available = append(available, spot)
		}
	}
	return available, nil
}

func (s *MemoryStore) InsertSpot(_ context.Context, spot *models.ParkingSpot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.spots[spot.ID]; ok {
		return fault.Conflict("spot %s already exists", spot.ID)
	}
	copied := *spot
	s.spots[spot.ID] = &copied
	return nil
}

func (s *MemoryStore) UpdateSpotOccupancy(_ context.Context, id string, status models.SpotStatus, plate *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	spot, ok := s.spots[id]
	if !ok {
		return fault.NotFound("spot %s not found", id)
	}
	spot.Status = status
	spot.OccupantPlate = plate
	return nil
}

func (s *MemoryStore) UpdateSpotCategory(_ context.Context, id string, category models.SpotCategory, hourlyRate float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	spot, ok := s.spots[id]
	if !ok {
		return fault.NotFound("spot %s not found", id)
	}
	spot.Category = category
	spot.HourlyRate = hourlyRate
	return nil
}

func (s *MemoryStore) CountSpots(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.spots)), nil
}

func (s *MemoryStore) CountOccupiedSpots(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, spot := range s.spots {
		if !spot.Available() {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) InsertReservation(_ context.Context, reservation *models.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *reservation
	s.reservations[reservation.ID] = &copied
	return nil
}

func (s *MemoryStore) GetReservation(_ context.Context, id string) (*models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reservation, ok := s.reservations[id]
	if !ok {
		return nil, fault.NotFound("reservation %s not found", id)
	}
	copied := *reservation
	return &copied, nil
}

func (s *MemoryStore) ActiveReservationForSpot(_ context.Context, spotID string) (*models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *models.Reservation
	for _, reservation := range s.reservations {
		if reservation.SpotID != spotID || !reservation.Active {
			continue
		}
		if latest == nil || reservation.CreatedAt.After(latest.CreatedAt) {
			latest = reservation
		}
	}
	if latest == nil {
		return nil, fault.NotFound("no active reservation for spot %s", spotID)
	}
	copied := *latest
	return &copied, nil
}

func (s *MemoryStore) UpdateReservation(_ context.Context, reservation *models.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reservations[reservation.ID]; !ok {
		return fault.NotFound("reservation %s not found", reservation.ID)
	}
	copied := *reservation
	s.reservations[reservation.ID] = &copied
	return nil
}

func (s *MemoryStore) ListActiveReservations(_ context.Context) ([]*models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var active []*models.Reservation
	for _, reservation := range s.reservations {
		if reservation.Active {
			copied := *reservation
			active = append(active, &copied)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].CreatedAt.Before(active[j].CreatedAt)
	})
	return active, nil
}

func (s *MemoryStore) ConsumedReservationExists(_ context.Context, spotID, plate string, since time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, reservation := range s.reservations {
		if reservation.SpotID == spotID && !reservation.Active &&
			reservation.Plate != nil && *reservation.Plate == plate &&
			!reservation.CreatedAt.After(since) {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) InsertTicket(_ context.Context, ticket *models.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.tickets {
		if existing.Plate == ticket.Plate && existing.Open() {
			return fault.Conflict("vehicle %s already has open ticket %s", ticket.Plate, existing.ID)
		}
	}
	copied := *ticket
	s.tickets[ticket.ID] = &copied
	return nil
}

func (s *MemoryStore) GetTicket(_ context.Context, id string) (*models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.tickets[id]
	if !ok {
		return nil, fault.NotFound("ticket %s not found", id)
	}
	copied := *ticket
	return &copied, nil
}

func (s *MemoryStore) ActiveTicketForPlate(_ context.Context, plate string) (*models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ticket := range s.tickets {
		if ticket.Plate == plate && ticket.Open() {
			copied := *ticket
			return &copied, nil
		}
	}
	return nil, fault.NotFound("no active ticket for vehicle %s", plate)
}

func (s *MemoryStore) SetTicketExit(_ context.Context, id string, exitTime time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.tickets[id]
	if !ok {
		return fault.NotFound("ticket %s not found", id)
	}
	if !ticket.Open() {
		return fault.Conflict("ticket %s is already closed", id)
	}
	ticket.ExitTime = &exitTime
	return nil
}

func (s *MemoryStore) CountOpenTickets(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, ticket := range s.tickets {
		if ticket.Open() {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) InsertFine(_ context.Context, fine *models.Fine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.fines {
		if existing.TicketID == fine.TicketID && existing.Kind == fine.Kind {
			return fault.Conflict("fine for ticket %s kind %s already exists", fine.TicketID, fine.Kind)
		}
	}
	copied := *fine
	s.fines[fine.ID] = &copied
	return nil
}

func (s *MemoryStore) UpdateFineAmount(_ context.Context, id string, amount float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fine, ok := s.fines[id]
	if !ok || fine.Paid {
		return fault.NotFound("unpaid fine %s not found", id)
	}
	fine.Amount = amount
	return nil
}

func (s *MemoryStore) FineByTicketAndKind(_ context.Context, ticketID string, kind models.FineKind) (*models.Fine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, fine := range s.fines {
		if fine.TicketID == ticketID && fine.Kind == kind {
			copied := *fine
			return &copied, nil
		}
	}
	return nil, fault.NotFound("no %s fine for ticket %s", kind, ticketID)
}

func (s *MemoryStore) UnpaidFinesForPlate(_ context.Context, plate string) ([]*models.Fine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var unpaid []*models.Fine
	for _, fine := range s.fines {
		if fine.Plate == plate && !fine.Paid {
			copied := *fine
			unpaid = append(unpaid, &copied)
		}
	}
	sort.Slice(unpaid, func(i, j int) bool {
		return unpaid[i].CreatedAt.Before(unpaid[j].CreatedAt)
	})
	return unpaid, nil
}

func (s *MemoryStore) MarkFinesPaid(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if fine, ok := s.fines[id]; ok {
			fine.Paid = true
		}
	}
	return nil
}

func (s *MemoryStore) SumUnpaidFines(_ context.Context, plate string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total float64
	for _, fine := range s.fines {
		if !fine.Paid && (plate == "" || fine.Plate == plate) {
			total += fine.Amount
		}
	}
	return total, nil
}

func (s *MemoryStore) InsertPayment(_ context.Context, payment *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *payment
	s.payments[payment.ID] = &copied
	return nil
}

func (s *MemoryStore) SumPayments(_ context.Context) (total, parkingFee, fineAmount float64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, payment := range s.payments {
		total += payment.Total
		parkingFee += payment.ParkingFee
		fineAmount += payment.FineAmount
	}
	return total, parkingFee, fineAmount, nil
}

func (s *MemoryStore) CountPayments(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.payments)), nil
}

func (s *MemoryStore) GetFineScheme(_ context.Context) (models.FineScheme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fineScheme, nil
}

func (s *MemoryStore) SetFineScheme(_ context.Context, scheme models.FineScheme) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fineScheme = scheme
	return nil
}
