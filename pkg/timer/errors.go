// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package timer

import "errors"

var (
	ErrOnBreak           = errors.New("timer is on break")
	ErrNotOnBreak        = errors.New("timer is not on break")
	ErrAlreadyInMode     = errors.New("timer already in requested mode")
	ErrInvalidBreakType  = errors.New("invalid break type")
	ErrInvalidDuration   = errors.New("invalid break duration")
	ErrInvalidThreshold  = errors.New("invalid work threshold")
	ErrCorruptedState    = errors.New("corrupted persisted state")
	ErrIncompleteRecords = errors.New("persisted state is missing a record")
	ErrEmptyUserID       = errors.New("user id is required")
	ErrEngineStopped     = errors.New("engine stopped")
)
