package errors

import "fmt"

var (
	ErrBrokerUnreachable = fmt.Errorf("broker unreachable")
	ErrPublish           = fmt.Errorf("publish failed")
	ErrReplyTimeout      = fmt.Errorf("no reply from server")
	ErrNameUnavailable   = fmt.Errorf("name unavailable")
	ErrDecode            = fmt.Errorf("malformed payload")
	ErrRegistryClosed    = fmt.Errorf("correlation registry closed")
	ErrAlreadyConnected  = fmt.Errorf("already connected")
	ErrNotConnected      = fmt.Errorf("not connected")
	ErrWorkerPanic       = fmt.Errorf("worker panic")
)
