// Copyright (c) 2023 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package common

import (
	"context"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const (
	traceIdLogField = "traceID"
	userIdLogField  = "user_id"
	tracerName      = "break-timer"
)

// Scope carries the span and logger of one timer request through the handler chain.
type Scope struct {
	Ctx     context.Context
	TraceID string
	span    oteltrace.Span
	Log     *log.Entry
}

// GetScopeFromContext starts a span named after the operation, continuing any
// trace propagated in ctx.
func GetScopeFromContext(ctx context.Context, name string) *Scope {
	tracer := otel.Tracer(tracerName)
	tracerCtx, span := tracer.Start(ctx, name)
	traceID := span.SpanContext().TraceID().String()

	return &Scope{
		Ctx:     tracerCtx,
		TraceID: traceID,
		span:    span,
		Log:     log.WithField(traceIdLogField, traceID),
	}
}

// WithUser tags the span and logger with the user the request acts on.
func (s *Scope) WithUser(userID string) *Scope {
	s.span.SetAttributes(attribute.String(userIdLogField, userID))
	s.Log = s.Log.WithField(userIdLogField, userID)
	return s
}

// Finish ends the span.
func (s *Scope) Finish() {
	s.span.End()
}

// TraceEvent records that something happened during the request.
func (s *Scope) TraceEvent(eventMessage string) {
	s.span.AddEvent(eventMessage)
}

// TraceError records err on the span and marks it failed.
func (s *Scope) TraceError(err error) {
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

// SetAttributes adds an attribute based on the value type.
func (s *Scope) SetAttributes(key string, value interface{}) {
	switch v := value.(type) {
	case bool:
		s.span.SetAttributes(attribute.Bool(key, v))
	case string:
		s.span.SetAttributes(attribute.String(key, v))
	case int:
		s.span.SetAttributes(attribute.Int(key, v))
	case int64:
		s.span.SetAttributes(attribute.Int64(key, v))
	case float64:
		s.span.SetAttributes(attribute.Float64(key, v))
	default:
		s.Log.Errorf("could not set a span attribute of type %T", value)
	}
}
