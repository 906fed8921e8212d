// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Command breaktimerctl drives a running break timer server over gRPC.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/AccelByte/extend-break-timer/pkg/handler"
)

type options struct {
	addr    string
	user    string
	timeout time.Duration
}

// dial opens the connection used by every command.
var dial = func(addr string) (*grpc.ClientConn, error) {
	return grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "breaktimerctl",
		Short: "Control a break timer server",
		Long: `breaktimerctl talks to the break timer gRPC service.

Every command acts on the user given with --user. The work timer
pauses itself after inactivity and notifies when the work threshold
is reached; breaks run until you end or cancel them.`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.addr, "addr", "a", envOr("BREAK_TIMER_ADDR", "localhost:6565"), "gRPC address of the break timer server")
	flags.StringVarP(&opts.user, "user", "u", envOr("BREAK_TIMER_USER", os.Getenv("USER")), "user id to act on")
	flags.DurationVar(&opts.timeout, "timeout", 5*time.Second, "timeout for each call")

	rootCmd.AddCommand(
		newStatusCmd(opts),
		newWorkCmd(opts, "start", "Start a fresh work session", (*handler.TimerClient).StartWorkTimer),
		newWorkCmd(opts, "pause", "Pause the work timer", (*handler.TimerClient).PauseWorkTimer),
		newWorkCmd(opts, "resume", "Resume the work timer", (*handler.TimerClient).ResumeWorkTimer),
		newWorkCmd(opts, "reset", "Reset accumulated work time", (*handler.TimerClient).ResetWorkTimer),
		newBreakCmd(opts),
		newWorkCmd(opts, "end-break", "End the current break", (*handler.TimerClient).EndBreak),
		newWorkCmd(opts, "cancel-break", "Cancel the current break", (*handler.TimerClient).CancelBreak),
		newThresholdCmd(opts),
		newActivityCmd(opts),
		newFocusCmd(opts),
		newTabCmd(opts),
		newResetAllCmd(opts),
	)
	return rootCmd
}

// withClient connects, runs fn with a per-call deadline and closes the connection.
func withClient(cmd *cobra.Command, opts *options, fn func(ctx context.Context, client *handler.TimerClient) error) error {
	if opts.user == "" {
		return fmt.Errorf("--user is required")
	}

	conn, err := dial(opts.addr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", opts.addr, err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()
	return fn(ctx, handler.NewTimerClient(conn, opts.user))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
