package notification

import (
	"context"
	"encoding/json"

	"bamboowoods/internal/metrics"

	"github.com/rs/zerolog"
)

type Sender interface {
	Send(ctx context.Context, email Email) (json.RawMessage, error)
}

// Service renders and sends booking emails.
type Service struct {
	renderer *Renderer
	sender   Sender
	logger   *zerolog.Logger
}

func NewService(renderer *Renderer, sender Sender, logger *zerolog.Logger) *Service {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Service{renderer: renderer, sender: sender, logger: logger}
}

func (s *Service) Notify(ctx context.Context, msg Message) (json.RawMessage, error) {
	email, err := s.renderer.Render(msg)
	if err != nil {
		return nil, err
	}

	reply, err := s.sender.Send(ctx, email)
	metrics.IncNotification(string(msg.Kind()), err)
	if err != nil {
		s.logger.Error().Err(err).
			Str("kind", string(msg.Kind())).
			Str("to", msg.Recipient().Email).
			Msg("booking email failed")
		return nil, err
	}

	s.logger.Info().
		Str("kind", string(msg.Kind())).
		Str("to", msg.Recipient().Email).
		Msg("booking email sent")
	return reply, nil
}
