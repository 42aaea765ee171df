// Package tabular turns uploaded data files into in-memory datasets.
//
// The package is the core of the viewer and is independent of any UI or
// transport layer: web handlers, CLI tools, and tests all drive it the
// same way.
//
// # Resolving
//
// [Resolve] inspects a file and decides how to parse it. The decision is
// a three-way outcome: a [Resolution] when the file speaks for itself,
// an [InputRequest] when exactly one parameter must come from the user
// (a delimiter for ambiguous text, a sheet for multi-sheet workbooks),
// or an error. Delimited files are sniffed from a 2048-byte sample by
// the sniff package; a sample judged headerless falls back to a comma
// delimiter rather than guessing further.
//
// # Loading
//
// [Load] parses the whole file into a [Dataset] of named, equally long
// columns holding tagged scalar [Value] cells (number, text, date, or
// missing). Delimited input is BOM-skipped and UTF-8 sanitized on the
// way in. Workbooks go through excelize, legacy .xls through the BIFF
// reader, SAS files through the sas7bdat and transport readers. Column
// order always equals source order.
//
// # Previewing
//
// [Dataset.Preview] projects the leading rows (at most
// [PreviewRowLimit]) plus the ordered column names. Scalars stay typed;
// stringification is the presentation layer's job.
//
// # Errors
//
// Failures carry a [Kind] so the upload boundary can translate them
// into user notifications: unsupported format, parse failures per
// format family, unreadable statistical files, empty input. A sniffing
// failure is deliberately not an error here; it surfaces as the
// delimiter [InputRequest].
package tabular
