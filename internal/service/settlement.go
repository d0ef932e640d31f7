package service

import "github.com/langchou/parklot/internal/models"

// SettlementResult 瀑布式结算的结果
type SettlementResult struct {
	PaidParkingFee float64        `json:"paid_parking_fee"`
	PaidFines      []*models.Fine `json:"paid_fines"`
	PaidFineTotal  float64        `json:"paid_fine_total"`
	NewBalance     float64        `json:"new_balance"`
	TotalApplied   float64        `json:"total_applied"`
}

// Settle 按 欠款 -> 停车费 -> 罚款(从旧到新) 的顺序分配实付金额
// 罚款不可部分支付，余额不足一张罚款时停止，剩余并入余额
// unpaidFines 必须已按创建时间从旧到新排序
func Settle(tendered, balance, parkingFee float64, unpaidFines []*models.Fine) SettlementResult {
	result := SettlementResult{PaidFines: []*models.Fine{}}

	// 先冲抵历史欠款
	if balance < 0 {
		debt := -balance
		if tendered < debt {
			result.PaidParkingFee = tendered
		} else {
			result.PaidParkingFee = debt
		}
	}
	remaining := tendered + balance

	// 再付本次停车费
	if remaining > 0 {
		if remaining < parkingFee {
			result.PaidParkingFee += remaining
		} else {
			result.PaidParkingFee += parkingFee
		}
	}
	remaining -= parkingFee

	// 最后按顺序整张支付罚款
	for _, fine := range unpaidFines {
		if remaining < fine.Amount {
			break
		}
		result.PaidFines = append(result.PaidFines, fine)
		result.PaidFineTotal += fine.Amount
		remaining -= fine.Amount
	}

	result.NewBalance = remaining
	result.TotalApplied = result.PaidParkingFee + result.PaidFineTotal
	return result
}
