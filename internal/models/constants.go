package models

// 停车场结构
const (
	TotalFloors    = 5
	RowsPerFloor   = 4
	SpotsPerRow    = 10
	CompactPerRow  = 3
	RegularPerRow  = 5
	AccessPerRow   = 1
	ReservedPerRow = 1
)

// 罚款配置
const (
	OverstayThresholdHours = 24   // 超过此小时数开始计超时罚款
	FixedFineAmount        = 50.0 // FIXED 方案罚款金额 (RM)
	HourlyFineRate         = 20.0 // HOURLY 方案每小时罚款 (RM)

	// PROGRESSIVE 方案各档金额，每档包含前面所有档
	ProgressiveTier1 = 50.0  // 24-48 小时
	ProgressiveTier2 = 150.0 // 48-72 小时 (50 + 100)
	ProgressiveTier3 = 300.0 // 72-96 小时 (50 + 100 + 150)
	ProgressiveTier4 = 500.0 // 96 小时以上 (50 + 100 + 150 + 200)
)

// accessibleSurcharge ACCESSIBLE 车辆停非无障碍车位的统一费率 (RM/h)
const accessibleSurcharge = 2.0

// TicketPrefix 票据 ID 前缀
const TicketPrefix = "T-"

// DefaultFineScheme 系统默认罚款方案
const DefaultFineScheme = SchemeFixed
