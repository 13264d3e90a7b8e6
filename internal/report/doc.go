// Package report renders runner results.
//
// Canonical encodes a Result as canonical JSON: object keys are sorted by
// UTF-16 code units, strings are NFC normalized and HTML characters are
// left unescaped. Two equal results always encode to the same bytes, which
// is what the store's result log and the golden files rely on.
//
// WriteText renders the CLI's text output; the JSON output embeds
// Canonical records.
package report
