// Package core provides the business logic of the table cleanup service.
//
// This package holds every domain operation independent of the HTTP layer,
// so handlers and tests drive the same code.
//
// # Sessions
//
// Each browser session owns an ordered list of uploaded files. A file keeps
// the table parsed at upload time plus the user's current [Options]; it is
// never modified afterwards. Every view, chart and download re-runs the
// pipeline from that original table, which is what makes toggling an option
// off restore the earlier state.
//
// Sessions live in memory only. [Service.StartSessionSweeper] drops the ones
// idle for longer than the configured TTL.
//
// # Pipeline
//
// [RunPipeline] applies, in order:
//
//  1. preview of the upload
//  2. duplicate-row removal, when enabled
//  3. mean fill of missing numeric cells, when enabled
//  4. projection onto the selected columns
//
// and records a [Stage] with a preview after each step that ran.
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages by [MapError]. Each
// category has a code for support reference:
//
//   - FILE001-FILE007: upload and parse errors (size, format, content)
//   - VAL005-VAL007: option errors (unknown or repeated columns, formats)
//   - SES001-SES002: expired sessions and unknown files
//   - UPL002-UPL005: parse slots, cancellation, timeouts
package core
