// Package history records finished relay runs in a small SQLite ledger.
//
// Only outcomes are stored: when a run started and ended, why it ended, the
// sink exit code, and how much was delivered. Destinations are redacted
// before they are written so stream keys never reach disk. Nothing here is
// used to resume a relay.
package history
