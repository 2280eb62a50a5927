package ports

import "context"

// PushResult is the tri-state outcome of a registration attempt.
type PushResult int

const (
	PushUnsupported PushResult = iota
	PushFailed
	PushRegistered
)

func (r PushResult) String() string {
	switch r {
	case PushUnsupported:
		return "unsupported"
	case PushFailed:
		return "failed"
	case PushRegistered:
		return "registered"
	default:
		return "unknown"
	}
}

// PushRegistrar enrolls the device for out-of-band push delivery. Every
// operation is best-effort from the caller's point of view: unsupported
// environments report PushUnsupported rather than an error, and no result may
// alter the outcome of the login/registration that triggered it.
type PushRegistrar interface {
	Supported() bool
	Register(ctx context.Context, userID int64) (PushResult, error)
	Clear(ctx context.Context) error
}
