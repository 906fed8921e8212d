// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/AccelByte/extend-break-timer/pkg/handler"
	"github.com/AccelByte/extend-break-timer/pkg/timer"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
)

func newWorkCmd(opts *options, use, short string, call func(*handler.TimerClient, context.Context) (bool, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, opts, func(ctx context.Context, client *handler.TimerClient) error {
				ok, err := call(client, ctx)
				if err != nil {
					return err
				}
				return report(cmd, ok, use)
			})
		},
	}
}

func newBreakCmd(opts *options) *cobra.Command {
	var minutes float64

	cmd := &cobra.Command{
		Use:   "break <short|medium|long>",
		Short: "Start a break",
		Long: `Start a break of the given type. Without --minutes the
configured duration for the break type is used.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(timer.BreakShort), string(timer.BreakMedium), string(timer.BreakLong)},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, opts, func(ctx context.Context, client *handler.TimerClient) error {
				ok, err := client.StartBreak(ctx, args[0], minutes)
				if err != nil {
					return err
				}
				return report(cmd, ok, args[0]+" break")
			})
		},
	}
	cmd.Flags().Float64VarP(&minutes, "minutes", "m", 0, "break length in minutes (default: configured duration)")
	return cmd
}

func newThresholdCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "threshold <minutes>",
		Short: "Set the work time threshold",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			minutes, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid minutes %q: %w", args[0], err)
			}
			return withClient(cmd, opts, func(ctx context.Context, client *handler.TimerClient) error {
				ok, err := client.UpdateWorkTimeThreshold(ctx, minutes)
				if err != nil {
					return err
				}
				return report(cmd, ok, "threshold")
			})
		},
	}
}

func newActivityCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "activity",
		Short: "Record user activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, opts, func(ctx context.Context, client *handler.TimerClient) error {
				if err := client.UpdateActivity(ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s activity recorded\n", green("✓"))
				return nil
			})
		},
	}
}

func newFocusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:       "focus <gained|lost>",
		Short:     "Report a browser focus change",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"gained", "lost"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var focused bool
			switch args[0] {
			case "gained":
				focused = true
			case "lost":
			default:
				return fmt.Errorf("invalid focus state %q (must be gained or lost)", args[0])
			}
			return withClient(cmd, opts, func(ctx context.Context, client *handler.TimerClient) error {
				if err := client.BrowserFocusChanged(ctx, focused); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s focus %s\n", green("✓"), args[0])
				return nil
			})
		},
	}
}

func newTabCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tab <tab-id>",
		Short: "Report a tab activation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, opts, func(ctx context.Context, client *handler.TimerClient) error {
				if err := client.TabActivated(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s tab %s activated\n", green("✓"), args[0])
				return nil
			})
		},
	}
}

func newResetAllCmd(opts *options) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "reset-all",
		Short: "Delete all stored timer data for the user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return fmt.Errorf("reset-all removes all timer data for %s; pass --force to confirm", opts.user)
			}
			return withClient(cmd, opts, func(ctx context.Context, client *handler.TimerClient) error {
				if err := client.ResetAllData(ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s all timer data removed for %s\n", green("✓"), opts.user)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "confirm removal")
	return cmd
}

func newStatusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the timer status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, opts, func(ctx context.Context, client *handler.TimerClient) error {
				fields, err := client.GetTimerStatus(ctx)
				if err != nil {
					return err
				}
				printStatus(cmd, opts.user, fields)
				return nil
			})
		},
	}
}

func report(cmd *cobra.Command, ok bool, what string) error {
	if !ok {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s rejected in the current mode\n", red("✗"), what)
		return fmt.Errorf("%s rejected", what)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", green("✓"), what)
	return nil
}

func printStatus(cmd *cobra.Command, user string, fields map[string]interface{}) {
	out := cmd.OutOrStdout()
	mode, _ := fields["mode"].(string)

	fmt.Fprintf(out, "%s %s\n", cyan("user:"), user)
	fmt.Fprintf(out, "  mode:      %s\n", modeLabel(mode))
	fmt.Fprintf(out, "  worked:    %s of %s\n", millis(fields["currentWorkTime"]), millis(fields["workThresholdMs"]))
	if exceeded, _ := fields["isThresholdExceeded"].(bool); exceeded {
		fmt.Fprintf(out, "  %s\n", yellow("time for a break"))
	}
	if breakType, ok := fields["breakType"].(string); ok {
		fmt.Fprintf(out, "  break:     %s, %s left\n", breakType, millis(fields["remainingBreakTime"]))
	}
	if focused, _ := fields["isBrowserFocused"].(bool); !focused {
		fmt.Fprintf(out, "  browser:   %s\n", yellow("unfocused"))
	}
}

func modeLabel(mode string) string {
	switch timer.Mode(mode) {
	case timer.ModeWorking:
		return green(mode)
	case timer.ModeOnBreak:
		return cyan(mode)
	default:
		return yellow(mode)
	}
}

func millis(v interface{}) time.Duration {
	ms, _ := v.(float64)
	return (time.Duration(ms) * time.Millisecond).Round(time.Second)
}
