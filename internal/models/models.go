package models

import (
	"time"
)

// VehicleClass 车辆类型
type VehicleClass string

const (
	ClassTwoWheel   VehicleClass = "TWO_WHEEL"  // 只能停 COMPACT
	ClassStandard   VehicleClass = "STANDARD"   // 可停 COMPACT 或 REGULAR
	ClassLarge      VehicleClass = "LARGE"      // 只能停 REGULAR
	ClassAccessible VehicleClass = "ACCESSIBLE" // 可停任意车位，享受优惠费率
)

// Valid 校验车辆类型
func (c VehicleClass) Valid() bool {
	switch c {
	case ClassTwoWheel, ClassStandard, ClassLarge, ClassAccessible:
		return true
	}
	return false
}

// SpotCategory 车位类型
type SpotCategory string

const (
	SpotCompact    SpotCategory = "COMPACT"
	SpotRegular    SpotCategory = "REGULAR"
	SpotAccessible SpotCategory = "ACCESSIBLE"
	SpotReserved   SpotCategory = "RESERVED"
)

// Valid 校验车位类型
func (c SpotCategory) Valid() bool {
	switch c {
	case SpotCompact, SpotRegular, SpotAccessible, SpotReserved:
		return true
	}
	return false
}

// BaseRate 车位类型的基础小时费率 (RM/h)
func (c SpotCategory) BaseRate() float64 {
	switch c {
	case SpotCompact:
		return 2.0
	case SpotRegular:
		return 5.0
	case SpotAccessible:
		return 2.0
	case SpotReserved:
		return 10.0
	}
	return 0
}

// SpotStatus 车位占用状态
type SpotStatus string

const (
	StatusAvailable SpotStatus = "AVAILABLE"
	StatusOccupied  SpotStatus = "OCCUPIED"
)

// compatibility 车辆类型与车位类型的兼容表
// RESERVED 车位对所有车辆可见，是否合法由预约检查决定，不在此表内
var compatibility = map[VehicleClass]map[SpotCategory]bool{
	ClassTwoWheel:   {SpotCompact: true},
	ClassStandard:   {SpotCompact: true, SpotRegular: true},
	ClassLarge:      {SpotRegular: true},
	ClassAccessible: {SpotCompact: true, SpotRegular: true, SpotAccessible: true, SpotReserved: true},
}

// CanParkIn 判断车辆类型是否可以停入指定车位类型
// RESERVED 车位对所有类型开放（是否有预约在上层检查）
func CanParkIn(class VehicleClass, category SpotCategory) bool {
	if category == SpotReserved {
		return true
	}
	return compatibility[class][category]
}

// HourlyRate 计算车辆在指定车位的小时费率
// ACCESSIBLE 车辆在无障碍车位免费，其他车位收固定 RM 2/h；其余车辆按车位费率
func HourlyRate(class VehicleClass, spot *ParkingSpot) float64 {
	if class == ClassAccessible {
		if spot.Category == SpotAccessible {
			return 0
		}
		return accessibleSurcharge
	}
	return spot.HourlyRate
}

// FineScheme 罚款方案
type FineScheme string

const (
	SchemeFixed       FineScheme = "FIXED"       // 固定 RM 50 罚款
	SchemeProgressive FineScheme = "PROGRESSIVE" // 按时长分档累进
	SchemeHourly      FineScheme = "HOURLY"      // 超时部分每小时 RM 20
)

// Valid 校验罚款方案
func (s FineScheme) Valid() bool {
	switch s {
	case SchemeFixed, SchemeProgressive, SchemeHourly:
		return true
	}
	return false
}

// FineKind 罚款种类
type FineKind string

const (
	FineOverstay       FineKind = "OVERSTAY"        // 停车超过 24 小时
	FineReservedMisuse FineKind = "RESERVED_MISUSE" // 无预约占用 RESERVED 车位
)

// PaymentMethod 支付方式
type PaymentMethod string

const (
	MethodCash PaymentMethod = "CASH"
	MethodCard PaymentMethod = "CARD"
)

// Valid 校验支付方式
func (m PaymentMethod) Valid() bool {
	return m == MethodCash || m == MethodCard
}

// Vehicle 车辆信息
// Balance 为带符号余额，出场结算后结转到下一次
type Vehicle struct {
	Plate     string       `json:"plate" db:"plate"`
	Class     VehicleClass `json:"class" db:"class"`
	Balance   float64      `json:"balance" db:"balance"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt time.Time    `json:"updated_at" db:"updated_at"`
}

// ParkingSpot 车位
type ParkingSpot struct {
	ID            string       `json:"id" db:"id"` // 例如 "F1-R2-S3"
	Floor         int          `json:"floor" db:"floor"`
	Row           int          `json:"row" db:"row_num"`
	Index         int          `json:"index" db:"idx"`
	Category      SpotCategory `json:"category" db:"category"`
	HourlyRate    float64      `json:"hourly_rate" db:"hourly_rate"`
	Status        SpotStatus   `json:"status" db:"status"`
	OccupantPlate *string      `json:"occupant_plate,omitempty" db:"occupant_plate"`
}

// Available 车位是否空闲
func (s *ParkingSpot) Available() bool {
	return s.Status == StatusAvailable
}

// Reservation 预约记录
// Plate 为 nil 表示开放预约（任意车辆可使用）
type Reservation struct {
	ID        string    `json:"id" db:"id"`
	SpotID    string    `json:"spot_id" db:"spot_id"`
	Plate     *string   `json:"plate,omitempty" db:"plate"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Ticket 停车票据
// Scheme 在开票时锁定，之后修改系统方案不影响已开票据
type Ticket struct {
	ID        string     `json:"id" db:"id"`
	Plate     string     `json:"plate" db:"plate"`
	SpotID    string     `json:"spot_id" db:"spot_id"`
	EntryTime time.Time  `json:"entry_time" db:"entry_time"`
	ExitTime  *time.Time `json:"exit_time,omitempty" db:"exit_time"`
	Scheme    FineScheme `json:"fine_scheme" db:"fine_scheme"`
}

// Open 票据是否仍在进行中
func (t *Ticket) Open() bool {
	return t.ExitTime == nil
}

// Fine 罚款记录
// 同一票据同一种类的罚款只有一条，重复计算时更新金额而不是新增
type Fine struct {
	ID        string     `json:"id" db:"id"`
	Plate     string     `json:"plate" db:"plate"`
	TicketID  string     `json:"ticket_id" db:"ticket_id"`
	Kind      FineKind   `json:"kind" db:"kind"`
	Amount    float64    `json:"amount" db:"amount"`
	Scheme    FineScheme `json:"scheme" db:"scheme"`
	Paid      bool       `json:"paid" db:"paid"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// Payment 支付记录，每次出场只生成一条，之后不可变
type Payment struct {
	ID         string        `json:"id" db:"id"`
	TicketID   string        `json:"ticket_id" db:"ticket_id"`
	ParkingFee float64       `json:"parking_fee" db:"parking_fee"`
	FineAmount float64       `json:"fine_amount" db:"fine_amount"`
	Total      float64       `json:"total" db:"total"`
	Method     PaymentMethod `json:"method" db:"method"`
	CreatedAt  time.Time     `json:"created_at" db:"created_at"`
}

// Bill 出场账单
// UnpaidFines 为该车牌全部未缴罚款（含本次新产生的），按创建时间从旧到新排列，
// 结算时按这个顺序逐条抵扣
type Bill struct {
	Ticket          *Ticket      `json:"ticket"`
	Vehicle         *Vehicle     `json:"vehicle"`
	Spot            *ParkingSpot `json:"spot"`
	EntryTime       time.Time    `json:"entry_time"`
	ExitTime        time.Time    `json:"exit_time"`
	HoursParked     int64        `json:"hours_parked"`
	HourlyRate      float64      `json:"hourly_rate"`
	ParkingFee      float64      `json:"parking_fee"`
	NewFines        []*Fine      `json:"new_fines"`
	NewFineAmount   float64      `json:"new_fine_amount"`
	PriorFines      []*Fine      `json:"prior_fines"`
	PriorFineAmount float64      `json:"prior_fine_amount"`
	UnpaidFines     []*Fine      `json:"unpaid_fines"`
	TotalFineAmount float64      `json:"total_fine_amount"`
	TotalDue        float64      `json:"total_due"`
	Scheme          FineScheme   `json:"fine_scheme"`
	Balance         float64      `json:"balance"`
}
