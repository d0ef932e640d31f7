// Package fault 定义引擎的错误分类
// 下层组件只返回带类型的错误，不记日志；由编排层统一处理
package fault

import (
	"errors"
	"fmt"
)

// Kind 错误类别
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation  // 输入非法，调用方修正后可重试
	KindConflict    // 状态冲突（车位已占用、重复关票等），不应盲目重试
	KindNotFound    // 实体不存在
	KindConsistency // 数据不一致，属于程序缺陷，必须中止当前操作
)

// String 类别名称
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindConsistency:
		return "consistency"
	}
	return "unknown"
}

// Fault 带类别的错误
type Fault struct {
	Kind Kind
	Msg  string
	Err  error
}

// Error 实现 error 接口
func (f *Fault) Error() string {
	if f.Err != nil {
		return f.Msg + ": " + f.Err.Error()
	}
	return f.Msg
}

// Unwrap 支持 errors.Is / errors.As
func (f *Fault) Unwrap() error {
	return f.Err
}

// Validation 构造输入校验错误
func Validation(format string, args ...any) error {
	return &Fault{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// Conflict 构造状态冲突错误
func Conflict(format string, args ...any) error {
	return &Fault{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

// NotFound 构造实体不存在错误
func NotFound(format string, args ...any) error {
	return &Fault{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// Consistency 构造数据不一致错误
func Consistency(format string, args ...any) error {
	return &Fault{Kind: KindConsistency, Msg: fmt.Sprintf(format, args...)}
}

// Wrap 保留底层错误的同时附加类别
func Wrap(kind Kind, err error, format string, args ...any) error {
	return &Fault{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf 提取错误类别，非 Fault 错误返回 KindUnknown
func KindOf(err error) Kind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindUnknown
}

// IsKind 判断错误是否属于指定类别
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
