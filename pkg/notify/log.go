// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package notify

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-break-timer/pkg/timer"
)

// LogNotifier writes intents to the structured log.
type LogNotifier struct {
	logger logrus.FieldLogger
}

// NewLogNotifier creates a notifier logging through logger, or the standard logger if nil.
func NewLogNotifier(logger logrus.FieldLogger) *LogNotifier {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) ID() string {
	return "log"
}

func (n *LogNotifier) Notify(ctx context.Context, intent timer.Intent) error {
	entry := n.logger.WithFields(logrus.Fields{
		"user_id": intent.UserID,
		"intent":  intent.Type,
	})

	switch intent.Type {
	case timer.IntentBreakThresholdReached:
		entry.Infof("time for a break: %v of continuous work", intent.WorkTime.Round(time.Minute))
	case timer.IntentBreakStarted:
		entry.WithField("break_id", intent.BreakID).Infof("%s break started for %v", intent.BreakType, intent.BreakDuration)
	case timer.IntentBreakEnded:
		entry.WithField("break_id", intent.BreakID).Infof("%s break ended: %s", intent.BreakType, intent.Outcome)
	default:
		entry.Warnf("unknown intent type")
	}
	return nil
}
