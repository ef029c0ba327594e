package errors

import "fmt"

var (
	ErrNameRequired    = fmt.Errorf("display name required")
	ErrUnknownIdentity = fmt.Errorf("unknown identity")
	ErrUnknownBoard    = fmt.Errorf("unknown board")
	ErrBannedOrigin    = fmt.Errorf("origin is banned")
	ErrSessionClosed   = fmt.Errorf("session closed")
	ErrWorkerPanic     = fmt.Errorf("worker panic")
)
