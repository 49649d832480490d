package metrics

import (
	"context"
	"time"
)

// ChannelObserver bridges channel lifecycle callbacks into a Collector,
// a Logger, and a Tracer. It satisfies the channel package's Observer
// interface; assign one to channel.Config.Observer.
type ChannelObserver struct {
	collector *Collector
	logger    *Logger
	tracer    Tracer
	role      string
}

// ObserverOption configures a ChannelObserver.
type ObserverOption func(*ChannelObserver)

// ObserveWith sets the collector.
func ObserveWith(c *Collector) ObserverOption {
	return func(o *ChannelObserver) { o.collector = c }
}

// LogWith sets the logger.
func LogWith(l *Logger) ObserverOption {
	return func(o *ChannelObserver) { o.logger = l }
}

// TraceWith sets the tracer.
func TraceWith(t Tracer) ObserverOption {
	return func(o *ChannelObserver) { o.tracer = t }
}

// AsRole labels the observer's spans and logs with the handshake role.
func AsRole(role string) ObserverOption {
	return func(o *ChannelObserver) { o.role = role }
}

// NewChannelObserver builds an observer backed by the global collector,
// logger, and tracer unless overridden by options.
func NewChannelObserver(opts ...ObserverOption) *ChannelObserver {
	o := &ChannelObserver{
		collector: Global(),
		logger:    GetLogger().Named("channel"),
		tracer:    GetTracer(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// OnHandshakeStart opens a handshake span and times the exchange.
func (o *ChannelObserver) OnHandshakeStart(ctx context.Context) (context.Context, func(error)) {
	name := SpanHandshakeInitiator
	if o.role == "responder" {
		name = SpanHandshakeResponder
	}
	ctx, end := o.tracer.StartSpan(ctx, name)
	start := time.Now()

	return ctx, func(err error) {
		elapsed := time.Since(start)
		end(err)
		if err != nil {
			o.collector.ChannelFailed()
			o.logger.Warn("handshake failed", Fields{"error": err.Error(), "elapsed": elapsed})
			return
		}
		o.collector.RecordHandshakeLatency(elapsed)
		o.logger.Debug("handshake complete", Fields{"elapsed": elapsed})
	}
}

// OnChannelEstablished records a new active channel.
func (o *ChannelObserver) OnChannelEstablished(id uint64) {
	o.collector.ChannelEstablished()
	o.logger.Info("channel established", Fields{"channel_id": id})
}

// OnChannelClosed records a channel teardown.
func (o *ChannelObserver) OnChannelClosed(id uint64) {
	o.collector.ChannelClosed()
	o.logger.Info("channel closed", Fields{"channel_id": id})
}

// OnSeal accounts one sealed record.
func (o *ChannelObserver) OnSeal(plaintextLen int, err error) {
	if err != nil {
		o.logger.Warn("seal failed", Fields{"error": err.Error()})
		return
	}
	o.collector.RecordSealed(plaintextLen)
}

// OnOpen accounts one opened record.
func (o *ChannelObserver) OnOpen(ciphertextLen int, err error) {
	if err != nil {
		o.logger.Warn("open failed", Fields{"error": err.Error()})
		return
	}
	o.collector.RecordOpened(ciphertextLen)
}

// OnAuthFailure counts a record that failed authentication.
func (o *ChannelObserver) OnAuthFailure() {
	o.collector.RecordAuthFailure()
	o.logger.Warn("record authentication failure")
}

// OnSequenceViolation counts a replayed or reordered record.
func (o *ChannelObserver) OnSequenceViolation() {
	o.collector.RecordSequenceViolation()
	o.logger.Warn("record sequence violation")
}
