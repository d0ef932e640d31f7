package models

import (
	"time"

	"github.com/langchou/parklot/internal/fault"
)

// HoursBetween 计算停车时长（小时），不足一小时按一小时计
// 出场时间早于入场时间属于输入错误
func HoursBetween(entryTime, exitTime time.Time) (int64, error) {
	if exitTime.Before(entryTime) {
		return 0, fault.Validation("exit time %s is before entry time %s",
			exitTime.Format(time.RFC3339), entryTime.Format(time.RFC3339))
	}

	seconds := int64(exitTime.Sub(entryTime) / time.Second)

	// 向上取整：(seconds + 3599) / 3600
	return (seconds + 3599) / 3600, nil
}
