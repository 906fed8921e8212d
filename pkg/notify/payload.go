// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package notify

import (
	"time"

	"github.com/AccelByte/extend-break-timer/pkg/timer"
)

// Payload is the wire form of an intent. Durations and timestamps are milliseconds.
type Payload struct {
	Type       string `json:"type"`
	UserID     string `json:"userId"`
	WorkTimeMs int64  `json:"workTimeMs,omitempty"`
	BreakType  string `json:"breakType,omitempty"`
	DurationMs int64  `json:"durationMs,omitempty"`
	BreakID    string `json:"breakId,omitempty"`
	Outcome    string `json:"outcome,omitempty"`
	At         int64  `json:"at"`
}

// NewPayload converts an intent to its wire form.
func NewPayload(intent timer.Intent) Payload {
	return Payload{
		Type:       string(intent.Type),
		UserID:     intent.UserID,
		WorkTimeMs: intent.WorkTime.Milliseconds(),
		BreakType:  string(intent.BreakType),
		DurationMs: intent.BreakDuration.Milliseconds(),
		BreakID:    intent.BreakID,
		Outcome:    string(intent.Outcome),
		At:         intent.At.UnixMilli(),
	}
}

// Intent converts the payload back to an intent.
func (p Payload) Intent() timer.Intent {
	return timer.Intent{
		Type:          timer.IntentType(p.Type),
		UserID:        p.UserID,
		WorkTime:      time.Duration(p.WorkTimeMs) * time.Millisecond,
		BreakType:     timer.BreakType(p.BreakType),
		BreakDuration: time.Duration(p.DurationMs) * time.Millisecond,
		BreakID:       p.BreakID,
		Outcome:       timer.BreakOutcome(p.Outcome),
		At:            time.UnixMilli(p.At),
	}
}
