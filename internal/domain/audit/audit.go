package audit

import (
	"context"
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"

	"ptoinfo/internal/platform/querier"
)

const (
	ActionLeaveRequestCreate = "leave_request.create"
	EntityLeaveRequest       = "leave_request"
)

// Event is one audited change. Before and After are stored as JSON.
type Event struct {
	TenantID   string
	ActorID    string
	Action     string
	EntityType string
	EntityID   string
	RequestID  string
	IP         string
	Before     any
	After      any
}

type Service struct {
	DB querier.Querier
}

func New(db querier.Querier) *Service {
	return &Service{DB: db}
}

func (s *Service) Record(ctx context.Context, evt Event) error {
	beforeJSON, err := marshalOptional(evt.Before)
	if err != nil {
		return goerr.Wrap(err, "failed to encode audit before state", goerr.V("action", evt.Action))
	}
	afterJSON, err := marshalOptional(evt.After)
	if err != nil {
		return goerr.Wrap(err, "failed to encode audit after state", goerr.V("action", evt.Action))
	}

	if _, err := s.DB.Exec(ctx, `
    INSERT INTO audit_events (tenant_id, actor_user_id, action, entity_type, entity_id, before_json, after_json, request_id, ip)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
  `, evt.TenantID, nullable(evt.ActorID), evt.Action, evt.EntityType, evt.EntityID, beforeJSON, afterJSON, evt.RequestID, evt.IP); err != nil {
		return goerr.Wrap(err, "failed to insert audit event", goerr.V("action", evt.Action), goerr.V("entityId", evt.EntityID))
	}
	return nil
}

func marshalOptional(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
