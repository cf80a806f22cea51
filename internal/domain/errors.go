package domain

import "errors"

// Kind 错误分类，边界层据此选择 HTTP 状态
type Kind int

const (
	KindGeneric Kind = iota
	KindClientFault
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindClientFault:
		return "client_fault"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "generic"
	}
}

// 消息 key（边界层做本地化，找不到时原样输出）
const (
	MsgEmailAlreadyRegistered = "user.email.alreadyRegistered"
	MsgUserNotExist           = "user.notExist"
	MsgConcurrentModification = "concurrentModificationError"
	MsgInvalidPageNumber      = "page.number.invalid"
	MsgInternal               = "internal.error"
)

// Error 服务层对外唯一的错误类型。
// Key/Params 在边界层翻译成文案；Err 只用于日志，不对外输出。
type Error struct {
	Key    string
	Params []string
	Kind   Kind
	Err    error
}

func (e *Error) Error() string { return e.Key }

func (e *Error) Unwrap() error { return e.Err }

func ClientFault(key string, params ...string) *Error {
	return &Error{Key: key, Params: params, Kind: KindClientFault}
}

func NotFound(key string, params ...string) *Error {
	return &Error{Key: key, Params: params, Kind: KindNotFound}
}

func Conflict(key string, params ...string) *Error {
	return &Error{Key: key, Params: params, Kind: KindConflict}
}

// Internal 包装未分类错误；对外只暴露通用 key
func Internal(err error) *Error {
	return &Error{Key: MsgInternal, Kind: KindGeneric, Err: err}
}

// AsError 取出链上的领域错误，其它错误一律包成 Generic
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return de
	}
	return Internal(err)
}
