package errno

import "errors"

// Errno defines the error code logic
type Errno struct {
	Code    int
	Message string
}

func (e Errno) Error() string {
	return e.Message
}

// WithMessage 返回同一错误码、替换了描述信息的副本
func (e Errno) WithMessage(msg string) Errno {
	return Errno{Code: e.Code, Message: msg}
}

// Is 按错误码比较，使 errors.Is 能匹配被 WithMessage 或 fmt.Errorf("%w") 包装过的错误
func (e Errno) Is(target error) bool {
	switch t := target.(type) {
	case Errno:
		return t.Code == e.Code
	case *Errno:
		return t != nil && t.Code == e.Code
	}
	return false
}

// Decode tries to convert an error to Errno
func Decode(err error) (int, string) {
	if err == nil {
		return OK.Code, OK.Message
	}

	var typed Errno
	if errors.As(err, &typed) {
		return typed.Code, err.Error()
	}
	var ptr *Errno
	if errors.As(err, &ptr) && ptr != nil {
		return ptr.Code, err.Error()
	}
	return InternalServerError.Code, err.Error()
}

// Common Errors
var (
	OK                  = Errno{Code: 0, Message: "Success"}
	InternalServerError = Errno{Code: 10001, Message: "Internal server error"}
	ErrBind             = Errno{Code: 10002, Message: "Error occurred while binding the request body to the struct"}
	ErrDatabase         = Errno{Code: 10004, Message: "Database error"}
)

// OTC Business Errors (30000+)
var (
	ErrInvalidArgument        = Errno{Code: 30001, Message: "invalid argument"}
	ErrUnauthorized           = Errno{Code: 30002, Message: "caller is not the owner"}
	ErrSystemPaused           = Errno{Code: 30003, Message: "system is paused"}
	ErrInvalidStateTransition = Errno{Code: 30004, Message: "invalid state transition"}
	ErrUnregisteredCollection = Errno{Code: 30005, Message: "collection is not registered"}
	ErrAlreadySold            = Errno{Code: 30006, Message: "collection already has sales"}
	ErrNotWhitelisted         = Errno{Code: 30007, Message: "buyer is not whitelisted"}
	ErrCostMismatch           = Errno{Code: 30008, Message: "expected cost does not match"}
	ErrValueMismatch          = Errno{Code: 30009, Message: "attached value does not match cost"}
	ErrCapacityExceeded       = Errno{Code: 30010, Message: "collection capacity exceeded"}
	ErrTransferFailed         = Errno{Code: 30011, Message: "asset transfer failed"}
	ErrInsufficientAllowance  = Errno{Code: 30012, Message: "insufficient allowance"}
	ErrMintOrStakeFailed      = Errno{Code: 30013, Message: "reward mint or stake failed"}
	ErrArithmeticOverflow     = Errno{Code: 30014, Message: "arithmetic overflow"}
	ErrReentrantCall          = Errno{Code: 30015, Message: "reentrant call rejected"}
	ErrEngineBusy             = Errno{Code: 30016, Message: "engine busy, operation timed out waiting for lock"}
)
