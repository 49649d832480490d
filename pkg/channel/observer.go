package channel

import "context"

// Observer provides hooks for channel lifecycle, metrics, and tracing.
// Implementations should be lightweight; callbacks may run on hot paths.
type Observer interface {
	OnHandshakeStart(ctx context.Context) (context.Context, func(error))
	OnChannelEstablished(id uint64)
	OnChannelClosed(id uint64)
	OnSeal(plaintextLen int, err error)
	OnOpen(ciphertextLen int, err error)
	OnAuthFailure()
	OnSequenceViolation()
}

// nopObserver discards all callbacks.
type nopObserver struct{}

func (nopObserver) OnHandshakeStart(ctx context.Context) (context.Context, func(error)) {
	return ctx, func(error) {}
}
func (nopObserver) OnChannelEstablished(uint64) {}
func (nopObserver) OnChannelClosed(uint64)      {}
func (nopObserver) OnSeal(int, error)           {}
func (nopObserver) OnOpen(int, error)           {}
func (nopObserver) OnAuthFailure()              {}
func (nopObserver) OnSequenceViolation()        {}
