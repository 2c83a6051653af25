package engine

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/coprodeli/coprodelito/pkg/bus"
	"github.com/coprodeli/coprodelito/pkg/logger"
	"github.com/coprodeli/coprodelito/pkg/utils"
)

const rejectedReply = "Necesito que me escribas algo para poder ayudarte."

// Loop drives the engine from the message bus so transports only ever
// publish inbound messages and subscribe to outbound ones.
type Loop struct {
	engine  *Engine
	bus     *bus.MessageBus
	running atomic.Bool
}

func NewLoop(engine *Engine, msgBus *bus.MessageBus) *Loop {
	return &Loop{engine: engine, bus: msgBus}
}

func (l *Loop) Run(ctx context.Context) error {
	l.running.Store(true)

	for l.running.Load() {
		select {
		case <-ctx.Done():
			return nil
		default:
			msg, ok := l.bus.ConsumeInbound(ctx)
			if !ok {
				continue
			}

			response := l.process(ctx, msg)
			if response != "" {
				l.bus.PublishOutbound(bus.OutboundMessage{
					Channel:   msg.Channel,
					SubjectID: msg.SubjectID,
					Content:   response,
				})
			}
		}
	}

	return nil
}

func (l *Loop) Stop() {
	l.running.Store(false)
}

func (l *Loop) process(ctx context.Context, msg bus.InboundMessage) string {
	logger.InfoCF("engine", "processing message", map[string]interface{}{
		"channel": msg.Channel,
		"subject": msg.SubjectID,
		"kind":    msg.Kind,
		"preview": utils.Truncate(msg.Content, 80),
	})

	switch msg.Kind {
	case bus.KindWelcome:
		greeting, err := l.engine.StartSession(ctx, msg.SubjectID)
		if err != nil {
			logger.ErrorCF("engine", "session start failed", map[string]interface{}{
				"subject": msg.SubjectID,
				"error":   err.Error(),
			})
			return apologyReply
		}
		return greeting

	case bus.KindTurn:
		reply, err := l.engine.HandleTurn(ctx, msg.SubjectID, msg.Content)
		if err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				return rejectedReply
			}
			logger.ErrorCF("engine", "turn failed", map[string]interface{}{
				"subject": msg.SubjectID,
				"error":   err.Error(),
			})
			return apologyReply
		}
		return reply

	default:
		logger.WarnCF("engine", "unknown message kind", map[string]interface{}{
			"kind": msg.Kind,
		})
		return ""
	}
}
