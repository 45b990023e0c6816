package core

// error_messages.go maps technical errors to messages users can act on.
//
// # Error Codes Reference
//
// File errors (FILE001-FILE099):
//
//	FILE001 - File too large          ("file too large")
//	FILE002 - Invalid CSV              ("invalid csv")
//	FILE003 - Invalid spreadsheet      ("invalid spreadsheet")
//	FILE004 - No file selected         ("no file provided")
//	FILE005 - Empty file               ("file is empty")
//	FILE006 - Unsupported file format  ("unsupported file format")
//	FILE007 - Too many files           ("too many files")
//
// Option errors (VAL001-VAL099):
//
//	VAL005 - Column not found          ("column not found")
//	VAL006 - Unknown export format     ("invalid export format")
//	VAL007 - Column selected twice     ("duplicate column")
//
// Session errors (SES001-SES099):
//
//	SES001 - Session expired           ("session not found")
//	SES002 - File no longer available  ("file not found")
//
// Upload errors (UPL001-UPL099):
//
//	UPL002 - System busy               ("too many uploads")
//	UPL004 - Request cancelled         ("context canceled")
//	UPL005 - Request timeout           ("context deadline exceeded")
//
// Other:
//
//	CHT001  - Nothing to chart         ("no numeric columns")
//	RATE001 - Rate limited             ("rate limit")
//	ERR000  - Unexpected error; check the logs for the technical error
//
// Known sentinel errors are matched with errors.Is first. Anything else is
// matched case-insensitively against the patterns above, first match wins.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/tabclean/internal/chart"
	"github.com/JonMunkholm/tabclean/internal/ingest"
	"github.com/JonMunkholm/tabclean/internal/table"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgFileTooLarge = UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Split the file into smaller parts",
		Code:    "FILE001",
	}
	msgInvalidCSV = UserMessage{
		Message: "File is not a valid CSV",
		Action:  "Ensure the file is comma-separated and no row has more fields than the header",
		Code:    "FILE002",
	}
	msgInvalidSpreadsheet = UserMessage{
		Message: "File is not a valid Excel workbook",
		Action:  "Re-save the file as .xlsx and upload it again",
		Code:    "FILE003",
	}
	msgNoFile = UserMessage{
		Message: "No file was selected",
		Action:  "Choose one or more .csv or .xlsx files to upload",
		Code:    "FILE004",
	}
	msgEmptyFile = UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Upload a file with a header row",
		Code:    "FILE005",
	}
	msgUnsupported = UserMessage{
		Message: "Unsupported file format",
		Action:  "Upload .csv or .xlsx files",
		Code:    "FILE006",
	}
	msgTooManyFiles = UserMessage{
		Message: "Too many files in one upload",
		Action:  "Upload fewer files at a time",
		Code:    "FILE007",
	}
	msgColumnNotFound = UserMessage{
		Message: "A selected column does not exist in this file",
		Action:  "Pick columns from the list shown for the file",
		Code:    "VAL005",
	}
	msgInvalidFormat = UserMessage{
		Message: "Unknown export format",
		Action:  "Choose csv or Excel",
		Code:    "VAL006",
	}
	msgDuplicateColumn = UserMessage{
		Message: "A column was selected more than once",
		Action:  "Select each column at most once",
		Code:    "VAL007",
	}
	msgSessionNotFound = UserMessage{
		Message: "Your session has expired",
		Action:  "Reload the page and upload your files again",
		Code:    "SES001",
	}
	msgFileNotFound = UserMessage{
		Message: "This file is no longer available",
		Action:  "Reload the page to see your current files",
		Code:    "SES002",
	}
	msgTooManyUploads = UserMessage{
		Message: "System is busy processing other uploads",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
	}
	msgCanceled = UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "UPL004",
	}
	msgDeadline = UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or check your connection",
		Code:    "UPL005",
	}
	msgNoNumeric = UserMessage{
		Message: "There are no numeric columns to chart",
		Action:  "Select at least one numeric column",
		Code:    "CHT001",
	}
	msgRateLimited = UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}
)

var sentinelMessages = []struct {
	err error
	msg UserMessage
}{
	{ingest.ErrFileTooLarge, msgFileTooLarge},
	{ingest.ErrInvalidCSV, msgInvalidCSV},
	{ingest.ErrInvalidSpreadsheet, msgInvalidSpreadsheet},
	{ErrNoFiles, msgNoFile},
	{ingest.ErrEmptyFile, msgEmptyFile},
	{ingest.ErrUnsupportedFormat, msgUnsupported},
	{ErrTooManyFiles, msgTooManyFiles},
	{table.ErrColumnNotFound, msgColumnNotFound},
	{table.ErrInvalidFormat, msgInvalidFormat},
	{table.ErrDuplicateColumn, msgDuplicateColumn},
	{ErrSessionNotFound, msgSessionNotFound},
	{ErrFileNotFound, msgFileNotFound},
	{ErrTooManyUploads, msgTooManyUploads},
	{context.Canceled, msgCanceled},
	{context.DeadlineExceeded, msgDeadline},
	{chart.ErrNoNumericColumns, msgNoNumeric},
}

// errorPatterns catch errors that lost their sentinel, for example ones
// that crossed a process boundary as text.
var errorPatterns = []struct {
	pattern string
	msg     UserMessage
}{
	{"file too large", msgFileTooLarge},
	{"request body too large", msgFileTooLarge},
	{"invalid csv", msgInvalidCSV},
	{"invalid spreadsheet", msgInvalidSpreadsheet},
	{"zip: not a valid zip file", msgInvalidSpreadsheet},
	{"no file provided", msgNoFile},
	{"file is empty", msgEmptyFile},
	{"unsupported file format", msgUnsupported},
	{"too many files", msgTooManyFiles},
	{"column not found", msgColumnNotFound},
	{"invalid export format", msgInvalidFormat},
	{"duplicate column", msgDuplicateColumn},
	{"session not found", msgSessionNotFound},
	{"file not found", msgFileNotFound},
	{"too many uploads", msgTooManyUploads},
	{"context canceled", msgCanceled},
	{"context deadline exceeded", msgDeadline},
	{"no numeric columns", msgNoNumeric},
	{"rate limit", msgRateLimited},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// RateLimitMessage is the message for requests rejected by the rate limiter.
func RateLimitMessage() UserMessage { return msgRateLimited }

// MapError converts a technical error to a user-friendly message. A nil
// error maps to the zero UserMessage.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, s := range sentinelMessages {
		if errors.Is(err, s.err) {
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
