// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// TimerServiceName is the fully qualified gRPC service name.
const TimerServiceName = "breaktimer.v1.TimerService"

// Request fields carried in the structpb.Struct of every call.
const (
	FieldUserID    = "user_id"
	FieldBreakType = "break_type"
	FieldMinutes   = "minutes"
	FieldTabID     = "tab_id"
	FieldFocused   = "focused"
)

// TimerServiceServer is the server API of TimerService. Requests are
// structpb.Struct values keyed by the Field constants.
type TimerServiceServer interface {
	StartWorkTimer(context.Context, *structpb.Struct) (*wrapperspb.BoolValue, error)
	PauseWorkTimer(context.Context, *structpb.Struct) (*wrapperspb.BoolValue, error)
	ResumeWorkTimer(context.Context, *structpb.Struct) (*wrapperspb.BoolValue, error)
	ResetWorkTimer(context.Context, *structpb.Struct) (*wrapperspb.BoolValue, error)
	StartBreak(context.Context, *structpb.Struct) (*wrapperspb.BoolValue, error)
	EndBreak(context.Context, *structpb.Struct) (*wrapperspb.BoolValue, error)
	CancelBreak(context.Context, *structpb.Struct) (*wrapperspb.BoolValue, error)
	UpdateActivity(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	TabActivated(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	BrowserFocusChanged(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	GetTimerStatus(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateWorkTimeThreshold(context.Context, *structpb.Struct) (*wrapperspb.BoolValue, error)
	ResetAllData(context.Context, *structpb.Struct) (*emptypb.Empty, error)
}

// TimerServiceDesc describes TimerService for grpc.Server registration.
var TimerServiceDesc = grpc.ServiceDesc{
	ServiceName: TimerServiceName,
	HandlerType: (*TimerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("StartWorkTimer", TimerServiceServer.StartWorkTimer),
		unaryMethod("PauseWorkTimer", TimerServiceServer.PauseWorkTimer),
		unaryMethod("ResumeWorkTimer", TimerServiceServer.ResumeWorkTimer),
		unaryMethod("ResetWorkTimer", TimerServiceServer.ResetWorkTimer),
		unaryMethod("StartBreak", TimerServiceServer.StartBreak),
		unaryMethod("EndBreak", TimerServiceServer.EndBreak),
		unaryMethod("CancelBreak", TimerServiceServer.CancelBreak),
		unaryMethod("UpdateActivity", TimerServiceServer.UpdateActivity),
		unaryMethod("TabActivated", TimerServiceServer.TabActivated),
		unaryMethod("BrowserFocusChanged", TimerServiceServer.BrowserFocusChanged),
		unaryMethod("GetTimerStatus", TimerServiceServer.GetTimerStatus),
		unaryMethod("UpdateWorkTimeThreshold", TimerServiceServer.UpdateWorkTimeThreshold),
		unaryMethod("ResetAllData", TimerServiceServer.ResetAllData),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "breaktimer/v1/timer.proto",
}

// RegisterTimerServiceServer registers srv on s.
func RegisterTimerServiceServer(s grpc.ServiceRegistrar, srv TimerServiceServer) {
	s.RegisterService(&TimerServiceDesc, srv)
}

func fullMethod(method string) string {
	return "/" + TimerServiceName + "/" + method
}

func unaryMethod[Resp proto.Message](
	method string,
	call func(TimerServiceServer, context.Context, *structpb.Struct) (Resp, error),
) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(TimerServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod(method),
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(TimerServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
