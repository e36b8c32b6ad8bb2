package core

// error_messages.go maps technical errors to user-facing messages with codes.
//
// Users quote the code to support staff; the technical error is only ever
// written to the server log.
//
// # CSV Errors (CSV001-CSV099)
//
//	CSV001 - The file could not be parsed as CSV (bad quoting, wrong field count)
//	CSV002 - The file parsed but no row passed the dataset's validity check
//
// # Record Errors (REC001-REC099)
//
//	REC001 - The record to update or delete no longer exists
//	REC002 - A form submission is missing required fields
//	REC003 - The dataset key is not recognised
//
// # Log Errors (LOG001-LOG099)
//
//	LOG001 - The audit log could not be written to its storage slot
//
// # Auth Errors (AUTH001-AUTH099)
//
//	AUTH001 - Username or password did not match
//	AUTH002 - An admin action was requested without logging in
//
// # File and Upload Errors (FILE001-FILE099, UPL001-UPL099)
//
//	FILE001 - File exceeds the upload size limit
//	FILE004 - No file was attached to the upload form
//	UPL002  - Another ingestion is in progress
//	UPL004  - The request was cancelled
//	UPL005  - The request timed out
//
// # Request Errors (REQ001)
//
//	REQ001 - The request body could not be decoded
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests from one client
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check the server log for the original error.
//
// # Matching
//
// Sentinel errors are matched first with errors.Is. Remaining errors are
// matched case-insensitively against errorPatterns; the first match wins.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgParse = UserMessage{
		Message: "Error parsing CSV",
		Action:  "Check the file for unbalanced quotes or rows with a different number of fields than the header",
		Code:    "CSV001",
	}
	msgEmptyBatch = UserMessage{
		Message: "CSV parsed, but no valid data rows found (missing RETAILER field or empty)",
		Action:  "Make sure the header row is present and data rows are filled in",
		Code:    "CSV002",
	}
	msgNotFound = UserMessage{
		Message: "Record not found",
		Action:  "It may have been deleted already. Refresh the page",
		Code:    "REC001",
	}
	msgValidation = UserMessage{
		Message: "Some required fields are missing",
		Action:  "Fill in the highlighted fields and submit again",
		Code:    "REC002",
	}
	msgUnknownDataset = UserMessage{
		Message: "Unknown dataset",
		Action:  "Use either the product or ecommerce dataset",
		Code:    "REC003",
	}
	msgPersistence = UserMessage{
		Message: "The audit log could not be saved",
		Action:  "The change was applied. Check the storage settings",
		Code:    "LOG001",
	}
	msgInvalidCredentials = UserMessage{
		Message: "Invalid username or password",
		Action:  "Check your credentials and try again",
		Code:    "AUTH001",
	}
	msgFileTooLarge = UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Split the file into smaller chunks",
		Code:    "FILE001",
	}
	msgBusy = UserMessage{
		Message: "Another upload is being processed",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
	}
)

// sentinelMessages is checked in order with errors.Is.
var sentinelMessages = []struct {
	target error
	msg    UserMessage
}{
	{ErrParse, msgParse},
	{ErrEmptyBatch, msgEmptyBatch},
	{ErrNotFound, msgNotFound},
	{ErrUnknownDataset, msgUnknownDataset},
	{ErrPersistence, msgPersistence},
	{ErrInvalidCredentials, msgInvalidCredentials},
	{ErrFileTooLarge, msgFileTooLarge},
	{ErrTooManyUploads, msgBusy},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns catches errors that arrive without a sentinel in their chain,
// typically from the standard library or the HTTP layer.
var errorPatterns = []errorPattern{
	{pattern: "validation failed", msg: msgValidation},
	{pattern: "request body too large", msg: msgFileTooLarge},
	{pattern: "file too large", msg: msgFileTooLarge},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV file to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "http: no such file",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV file to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try uploading a smaller file or check your connection",
			Code:    "UPL005",
		},
	},
	{
		pattern: "invalid request",
		msg: UserMessage{
			Message: "The request could not be read",
			Action:  "Check the submitted data and try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "login required",
		msg: UserMessage{
			Message: "Please log in to make changes",
			Action:  "Log in with the admin account and try again",
			Code:    "AUTH002",
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

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Known sentinels win over text patterns; anything else maps to ERR000.
//
// Example:
//
//	msg := MapError(fmt.Errorf("upload: %w", ErrEmptyBatch))
//	// msg.Code == "CSV002"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		return msgValidation
	}

	for _, s := range sentinelMessages {
		if errors.Is(err, s.target) {
			return s.msg
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

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
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

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err and keeps the original for logging.
// Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
