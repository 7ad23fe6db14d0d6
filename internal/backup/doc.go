// Package backup creates and manages full-tree backups of installed
// artifacts.
//
// A backup is a plain copy of the pre-update artifact tree in a
// timestamped directory (<artifact>_<timestamp>) under the backup root,
// plus a dot-prefixed manifest recording a digest and mode per file. Any
// external tool can restore one with cp; the manager adds integrity
// verification, listing, and retention-based pruning on top.
//
// Creation is fail-closed: a backup either exists completely or not at
// all, which is what lets the reconciliation executor treat a successful
// Create as permission to proceed with destructive writes.
package backup
