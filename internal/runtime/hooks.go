package runtime

import (
	"context"
	"time"

	"github.com/aretw0/motherlink/pkg/domain"
)

func (e *Engine) base(sessionID string, t domain.EventType) domain.EventBase {
	return domain.EventBase{
		Timestamp: e.now(),
		Type:      t,
		SessionID: sessionID,
	}
}

func (e *Engine) emitStep(ctx context.Context, sessionID, nodeID string, next domain.Successor) {
	if e.hooks.OnStep == nil {
		return
	}
	e.hooks.OnStep(ctx, &domain.StepEvent{
		EventBase: e.base(sessionID, domain.EventStep),
		NodeID:    nodeID,
		Next:      next.String(),
	})
}

func (e *Engine) emitAction(ctx context.Context, sessionID string, next domain.Successor) {
	if e.hooks.OnAction == nil {
		return
	}
	e.hooks.OnAction(ctx, &domain.ActionEvent{
		EventBase: e.base(sessionID, domain.EventAction),
		Handler:   next.Target,
		Kind:      next.Kind.String(),
	})
}

func (e *Engine) emitActionReturn(ctx context.Context, sessionID string, next domain.Successor, d time.Duration, isErr bool) {
	if e.hooks.OnActionReturn == nil {
		return
	}
	e.hooks.OnActionReturn(ctx, &domain.ActionEvent{
		EventBase: e.base(sessionID, domain.EventActionReturn),
		Handler:   next.Target,
		Kind:      next.Kind.String(),
		Duration:  d,
		IsError:   isErr,
	})
}

func (e *Engine) emitReply(ctx context.Context, sessionID, outcome string) {
	if e.hooks.OnReply == nil {
		return
	}
	e.hooks.OnReply(ctx, &domain.ReplyEvent{
		EventBase: e.base(sessionID, domain.EventReply),
		Outcome:   outcome,
	})
}
