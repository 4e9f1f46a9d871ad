// SPDX-License-Identifier: Apache-2.0

package domain

import "errors"

var ErrUnknownPlanKind = errors.New("unknown plan kind")
var ErrInvalidPlan = errors.New("invalid execution plan")
var ErrWorkflowNotFound = errors.New("workflow not found")
var ErrNoOpenBlocker = errors.New("workflow has no open blocker")
var ErrEmptyFixInstruction = errors.New("fix instruction is empty")
var ErrAbortNotArmed = errors.New("abort requires confirmation")
var ErrBlockerResolved = errors.New("blocker session already resolved")
var ErrActionInFlight = errors.New("action already in flight")
