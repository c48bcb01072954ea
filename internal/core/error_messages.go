package core

// error_messages.go maps technical errors to messages a client can show.
//
// Codes by category:
//
//	REQ001  not found            ErrNotFound
//	VAL001  invalid input        ErrValidation
//	IMP001  import busy          ErrTooManyImports
//	FILE001 file too large       "file too large", "request body too large"
//	FILE002 no file              "no file provided"
//	DB001   foreign key          "violates foreign key"
//	DB002   connection refused   "connection refused"
//	DB003   connection reset     "connection reset"
//	DB004   timeout              "timeout", "deadline exceeded"
//	REQ002  request cancelled    "context canceled"
//	RATE001 rate limited         "rate limit"
//	ERR000  anything else
//
// Sentinel errors are checked first with errors.Is; the remaining patterns
// are matched case-insensitively with strings.Contains, first match wins.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage is a client-facing description of an error.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Reference code
}

type sentinelMessage struct {
	err error
	msg UserMessage
}

var sentinelMessages = []sentinelMessage{
	{
		err: ErrNotFound,
		msg: UserMessage{
			Message: "The requested flashcard does not exist",
			Action:  "Refresh the list and try again",
			Code:    "REQ001",
		},
	},
	{
		err: ErrValidation,
		msg: UserMessage{
			Message: "Some fields are missing or invalid",
			Action:  "Fill in both the Ukrainian and the English text",
			Code:    "VAL001",
		},
	},
	{
		err: ErrTooManyImports,
		msg: UserMessage{
			Message: "Too many imports are running",
			Action:  "Please wait a moment and try again",
			Code:    "IMP001",
		},
	},
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "The CSV file is too large",
			Action:  "Split the file into smaller parts",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "The CSV file is too large",
			Action:  "Split the file into smaller parts",
			Code:    "FILE001",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Pick a CSV file to import",
			Code:    "FILE002",
		},
	},
	{
		pattern: "violates foreign key",
		msg: UserMessage{
			Message: "The flashcard no longer exists",
			Action:  "Refresh the list and try again",
			Code:    "DB001",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to the database",
			Action:  "Please try again in a few moments",
			Code:    "DB002",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "The database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB003",
		},
	},
	{
		pattern: "deadline exceeded",
		msg: UserMessage{
			Message: "The operation timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "DB004",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "The operation timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "DB004",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "The request was cancelled",
			Action:  "Please try again",
			Code:    "REQ002",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when nothing matches. Reports of ERR000 need the
// server log to diagnose.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again",
	Code:    "ERR000",
}

// MapError converts err to a UserMessage. A nil error maps to the zero value.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.err) {
			return sm.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
