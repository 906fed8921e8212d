// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package handler

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// TimerClient calls TimerService on a remote server for a single user.
type TimerClient struct {
	cc     grpc.ClientConnInterface
	userID string
}

// NewTimerClient creates a client acting on behalf of userID.
func NewTimerClient(cc grpc.ClientConnInterface, userID string) *TimerClient {
	return &TimerClient{cc: cc, userID: userID}
}

func (c *TimerClient) StartWorkTimer(ctx context.Context) (bool, error) {
	return c.callBool(ctx, "StartWorkTimer", nil)
}

func (c *TimerClient) PauseWorkTimer(ctx context.Context) (bool, error) {
	return c.callBool(ctx, "PauseWorkTimer", nil)
}

func (c *TimerClient) ResumeWorkTimer(ctx context.Context) (bool, error) {
	return c.callBool(ctx, "ResumeWorkTimer", nil)
}

func (c *TimerClient) ResetWorkTimer(ctx context.Context) (bool, error) {
	return c.callBool(ctx, "ResetWorkTimer", nil)
}

// StartBreak starts a break of breakType. minutes of 0 uses the configured duration.
func (c *TimerClient) StartBreak(ctx context.Context, breakType string, minutes float64) (bool, error) {
	return c.callBool(ctx, "StartBreak", map[string]interface{}{
		FieldBreakType: breakType,
		FieldMinutes:   minutes,
	})
}

func (c *TimerClient) EndBreak(ctx context.Context) (bool, error) {
	return c.callBool(ctx, "EndBreak", nil)
}

func (c *TimerClient) CancelBreak(ctx context.Context) (bool, error) {
	return c.callBool(ctx, "CancelBreak", nil)
}

func (c *TimerClient) UpdateWorkTimeThreshold(ctx context.Context, minutes float64) (bool, error) {
	return c.callBool(ctx, "UpdateWorkTimeThreshold", map[string]interface{}{FieldMinutes: minutes})
}

func (c *TimerClient) UpdateActivity(ctx context.Context) error {
	return c.callEmpty(ctx, "UpdateActivity", nil)
}

func (c *TimerClient) TabActivated(ctx context.Context, tabID string) error {
	return c.callEmpty(ctx, "TabActivated", map[string]interface{}{FieldTabID: tabID})
}

func (c *TimerClient) BrowserFocusChanged(ctx context.Context, focused bool) error {
	return c.callEmpty(ctx, "BrowserFocusChanged", map[string]interface{}{FieldFocused: focused})
}

func (c *TimerClient) ResetAllData(ctx context.Context) error {
	return c.callEmpty(ctx, "ResetAllData", nil)
}

// GetTimerStatus returns the status fields as reported by the server.
func (c *TimerClient) GetTimerStatus(ctx context.Context) (map[string]interface{}, error) {
	in, err := c.request(nil)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod("GetTimerStatus"), in, out); err != nil {
		return nil, err
	}
	return out.AsMap(), nil
}

func (c *TimerClient) callBool(ctx context.Context, method string, fields map[string]interface{}) (bool, error) {
	in, err := c.request(fields)
	if err != nil {
		return false, err
	}
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, fullMethod(method), in, out); err != nil {
		return false, err
	}
	return out.GetValue(), nil
}

func (c *TimerClient) callEmpty(ctx context.Context, method string, fields map[string]interface{}) error {
	in, err := c.request(fields)
	if err != nil {
		return err
	}
	return c.cc.Invoke(ctx, fullMethod(method), in, new(emptypb.Empty))
}

func (c *TimerClient) request(fields map[string]interface{}) (*structpb.Struct, error) {
	values := map[string]interface{}{FieldUserID: c.userID}
	for k, v := range fields {
		values[k] = v
	}
	in, err := structpb.NewStruct(values)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	return in, nil
}
