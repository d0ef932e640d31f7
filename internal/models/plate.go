package models

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/langchou/parklot/internal/fault"
)

// platePattern 车牌格式：3 个大写字母 + 4 位数字，例如 ABC1234
var platePattern = regexp.MustCompile(`^[A-Z]{3}[0-9]{4}$`)

// NormalizePlate 去除首尾空格并转为大写
func NormalizePlate(plate string) string {
	return strings.ToUpper(strings.TrimSpace(plate))
}

// ValidatePlate 规范化并校验车牌格式
func ValidatePlate(plate string) (string, error) {
	normalized := NormalizePlate(plate)
	if !platePattern.MatchString(normalized) {
		return "", fault.Validation("invalid plate number %q: expected 3 letters + 4 digits (e.g. ABC1234)", plate)
	}
	return normalized, nil
}

// SpotID 生成车位 ID，例如 "F1-R2-S3"
func SpotID(floor, row, index int) string {
	return fmt.Sprintf("F%d-R%d-S%d", floor, row, index)
}
