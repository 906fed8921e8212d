// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package handler

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/AccelByte/extend-break-timer/pkg/common"
	"github.com/AccelByte/extend-break-timer/pkg/timer"
)

// TimerService exposes the per-user timer engines over gRPC.
type TimerService struct {
	manager *timer.Manager
}

// NewTimerService creates a TimerService backed by manager.
func NewTimerService(manager *timer.Manager) *TimerService {
	return &TimerService{manager: manager}
}

// StartWorkTimer starts a fresh work session for the calling user.
func (s *TimerService) StartWorkTimer(ctx context.Context, req *structpb.Struct) (*wrapperspb.BoolValue, error) {
	return s.transition(ctx, "StartWorkTimer", req, (*timer.Engine).StartWorkTimer)
}

// PauseWorkTimer pauses the running work timer.
func (s *TimerService) PauseWorkTimer(ctx context.Context, req *structpb.Struct) (*wrapperspb.BoolValue, error) {
	return s.transition(ctx, "PauseWorkTimer", req, (*timer.Engine).PauseWorkTimer)
}

// ResumeWorkTimer resumes a paused work timer.
func (s *TimerService) ResumeWorkTimer(ctx context.Context, req *structpb.Struct) (*wrapperspb.BoolValue, error) {
	return s.transition(ctx, "ResumeWorkTimer", req, (*timer.Engine).ResumeWorkTimer)
}

// ResetWorkTimer clears accumulated work time and starts counting from now.
func (s *TimerService) ResetWorkTimer(ctx context.Context, req *structpb.Struct) (*wrapperspb.BoolValue, error) {
	return s.transition(ctx, "ResetWorkTimer", req, (*timer.Engine).ResetWorkTimer)
}

// EndBreak finishes the current break as completed.
func (s *TimerService) EndBreak(ctx context.Context, req *structpb.Struct) (*wrapperspb.BoolValue, error) {
	return s.transition(ctx, "EndBreak", req, (*timer.Engine).EndBreak)
}

// CancelBreak abandons the current break.
func (s *TimerService) CancelBreak(ctx context.Context, req *structpb.Struct) (*wrapperspb.BoolValue, error) {
	return s.transition(ctx, "CancelBreak", req, (*timer.Engine).CancelBreak)
}

// StartBreak starts a break. minutes may be omitted to use the configured duration.
func (s *TimerService) StartBreak(ctx context.Context, req *structpb.Struct) (*wrapperspb.BoolValue, error) {
	breakType := timer.BreakType(stringField(req, FieldBreakType))
	if !breakType.Valid() {
		return nil, status.Errorf(codes.InvalidArgument, "invalid %s %q", FieldBreakType, breakType)
	}
	minutes := numberField(req, FieldMinutes)
	if !timer.ValidBreakMinutes(minutes) {
		return nil, status.Errorf(codes.InvalidArgument, "invalid %s %v: must be from 0 to %d", FieldMinutes, minutes, timer.MaxBreakMinutes)
	}

	return s.transition(ctx, "StartBreak", req, func(engine *timer.Engine) bool {
		return engine.StartBreak(breakType, minutes)
	})
}

// UpdateWorkTimeThreshold sets the calling user's work threshold in whole minutes.
func (s *TimerService) UpdateWorkTimeThreshold(ctx context.Context, req *structpb.Struct) (*wrapperspb.BoolValue, error) {
	if _, ok := req.GetFields()[FieldMinutes]; !ok {
		return nil, status.Errorf(codes.InvalidArgument, "%s is required", FieldMinutes)
	}
	minutes := numberField(req, FieldMinutes)
	if !timer.ValidThresholdMinutes(minutes) {
		return nil, status.Errorf(codes.InvalidArgument, "invalid %s %v: must be a whole number from 1 to 1440", FieldMinutes, minutes)
	}

	return s.transition(ctx, "UpdateWorkTimeThreshold", req, func(engine *timer.Engine) bool {
		return engine.UpdateWorkTimeThreshold(minutes)
	})
}

// UpdateActivity records user activity.
func (s *TimerService) UpdateActivity(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	return s.signal(ctx, "UpdateActivity", req, (*timer.Engine).UpdateActivity)
}

// TabActivated records a tab switch.
func (s *TimerService) TabActivated(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	tabID := stringField(req, FieldTabID)
	return s.signal(ctx, "TabActivated", req, func(engine *timer.Engine) {
		engine.HandleTabActivated(tabID)
	})
}

// BrowserFocusChanged reports that the browser gained or lost focus.
func (s *TimerService) BrowserFocusChanged(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	value, ok := req.GetFields()[FieldFocused]
	if !ok {
		return nil, status.Errorf(codes.InvalidArgument, "%s is required", FieldFocused)
	}
	if value.GetBoolValue() {
		return s.signal(ctx, "BrowserFocusChanged", req, (*timer.Engine).HandleBrowserFocusGained)
	}
	return s.signal(ctx, "BrowserFocusChanged", req, (*timer.Engine).HandleBrowserFocusLost)
}

// GetTimerStatus returns the timer status fields for the calling user.
func (s *TimerService) GetTimerStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	scope := common.GetScopeFromContext(ctx, "TimerService.GetTimerStatus")
	defer scope.Finish()

	engine, err := s.engine(scope, req)
	if err != nil {
		return nil, err
	}

	reply, err := structpb.NewStruct(engine.GetTimerStatus().Fields())
	if err != nil {
		scope.TraceError(err)
		return nil, status.Errorf(codes.Internal, "failed to encode status: %v", err)
	}
	return reply, nil
}

// ResetAllData removes every persisted timer record for the calling user.
func (s *TimerService) ResetAllData(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	scope := common.GetScopeFromContext(ctx, "TimerService.ResetAllData")
	defer scope.Finish()

	userID := stringField(req, FieldUserID)
	if userID == "" {
		return nil, status.Errorf(codes.InvalidArgument, "%s is required", FieldUserID)
	}
	scope.WithUser(userID)

	if err := s.manager.Reset(scope.Ctx, userID); err != nil {
		scope.TraceError(err)
		scope.Log.Errorf("failed to reset timer data: %v", err)
		return nil, status.Errorf(codes.Internal, "failed to reset timer data: %v", err)
	}
	scope.Log.Infof("reset all timer data")
	return &emptypb.Empty{}, nil
}

func (s *TimerService) transition(
	ctx context.Context,
	method string,
	req *structpb.Struct,
	op func(*timer.Engine) bool,
) (*wrapperspb.BoolValue, error) {
	scope := common.GetScopeFromContext(ctx, "TimerService."+method)
	defer scope.Finish()

	engine, err := s.engine(scope, req)
	if err != nil {
		return nil, err
	}

	ok := op(engine)
	scope.SetAttributes("accepted", ok)
	if !ok {
		scope.Log.Debugf("%s rejected in mode %s", method, engine.GetTimerStatus().Mode)
	}
	return wrapperspb.Bool(ok), nil
}

func (s *TimerService) signal(
	ctx context.Context,
	method string,
	req *structpb.Struct,
	op func(*timer.Engine),
) (*emptypb.Empty, error) {
	scope := common.GetScopeFromContext(ctx, "TimerService."+method)
	defer scope.Finish()

	engine, err := s.engine(scope, req)
	if err != nil {
		return nil, err
	}

	op(engine)
	return &emptypb.Empty{}, nil
}

func (s *TimerService) engine(scope *common.Scope, req *structpb.Struct) (*timer.Engine, error) {
	userID := stringField(req, FieldUserID)
	if userID == "" {
		logrus.Warnf("received timer request with empty %s", FieldUserID)
		return nil, status.Errorf(codes.InvalidArgument, "%s is required", FieldUserID)
	}
	scope.WithUser(userID)

	engine, err := s.manager.Engine(scope.Ctx, userID)
	if err != nil {
		scope.TraceError(err)
		if errors.Is(err, timer.ErrEngineStopped) {
			return nil, status.Errorf(codes.Unavailable, "timer service is shutting down")
		}
		return nil, status.Errorf(codes.Internal, "failed to load timer: %v", err)
	}
	return engine, nil
}

func stringField(req *structpb.Struct, name string) string {
	return req.GetFields()[name].GetStringValue()
}

func numberField(req *structpb.Struct, name string) float64 {
	return req.GetFields()[name].GetNumberValue()
}
