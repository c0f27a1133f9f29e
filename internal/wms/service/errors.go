package service

import (
	"errors"
	"fmt"
)

// ErrKind 业务错误分类，处理器据此映射HTTP状态码
type ErrKind int

const (
	KindInternal ErrKind = iota
	KindNotFound
	KindInvalidState
	KindValidation
	KindConflict
)

// Error 携带分类的业务错误，消息直接面向操作员
type Error struct {
	Kind    ErrKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func NotFoundErr(format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func InvalidStateErr(format string, args ...interface{}) error {
	return &Error{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

func ValidationErr(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func ConflictErr(format string, args ...interface{}) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// KindOf 提取错误分类，非业务错误归为 KindInternal
func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
