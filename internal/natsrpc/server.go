package natsrpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"

	"github.com/fogfactory/concurrent/service"
)

// ErrMalformedRequest is reported for payloads that do not decode to a
// service.Request.
var ErrMalformedRequest = errors.New("malformed request")

// Handler serves one decoded request.
type Handler interface {
	Handle(ctx context.Context, req service.Request) service.Response
}

// Server answers requests published on a subject, sharing the load with the
// other members of its queue group.
type Server struct {
	handler Handler
	subject string
	queue   string
	logger  *zap.Logger
}

// NewServer builds a Server.
func NewServer(handler Handler, subject, queue string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		handler: handler,
		subject: subject,
		queue:   queue,
		logger:  logger.With(zap.String("subject", subject), zap.String("queue", queue)),
	}
}

// Serve subscribes on conn and blocks until ctx is done, then drains the
// subscription so requests already received are still answered.
func (s *Server) Serve(ctx context.Context, conn *nats.Conn) error {
	sub, err := conn.QueueSubscribe(s.subject, s.queue, func(msg *nats.Msg) {
		s.serveMsg(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", s.subject, err)
	}
	s.logger.Info("serving requests")

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("drain %s: %w", s.subject, err)
	}
	s.logger.Info("stopped serving requests")
	return nil
}

func (s *Server) serveMsg(ctx context.Context, msg *nats.Msg) {
	if msg.Reply == "" {
		s.logger.Warn("dropping request without reply subject")
		return
	}
	// Picks up a caller's trace context from the W3C headers.
	ctx = otel.GetTextMapPropagator().Extract(ctx, propagation.HeaderCarrier(msg.Header))

	if err := msg.Respond(s.Reply(ctx, msg.Data)); err != nil {
		s.logger.Error("failed to respond", zap.Error(err))
	}
}

// Reply serves one raw request and returns the raw response. Payloads that
// cannot be decoded are answered with a failed response.
func (s *Server) Reply(ctx context.Context, data []byte) []byte {
	var (
		req  service.Request
		resp service.Response
	)
	if err := json.Unmarshal(data, &req); err != nil {
		s.logger.Warn("malformed request", zap.Error(err))
		resp = service.Response{
			Error:    fmt.Errorf("%w: %w", ErrMalformedRequest, err).Error(),
			Metadata: map[string]string{"error_code": "INVALID_REQUEST"},
		}
	} else {
		resp = s.handler.Handle(ctx, req)
	}

	out, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("failed to encode response", zap.String("request_id", resp.RequestID), zap.Error(err))
		out, _ = json.Marshal(service.Response{
			RequestID: resp.RequestID,
			Error:     fmt.Sprintf("encode response: %v", err),
			Metadata:  map[string]string{"error_code": "ENCODING_ERROR"},
		})
	}
	return out
}
