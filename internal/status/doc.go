// Package status persists the latest observation of every monitor in a single
// JSON file.
//
// The file is the only state shared between monitors and it doubles as the
// dashboard interface, so every write replaces the file atomically: readers
// see either the previous snapshot or the next one, never a torn write.
//
// Writers do not coordinate with each other. Update reads the file, replaces
// its own key, and renames a fresh copy into place. When two monitors update
// in overlapping windows the later rename can carry a stale copy of the other
// monitor's key. Each monitor owns a disjoint key and rewrites it on every
// poll, so the stale value lasts at most one poll interval of the monitor
// whose write was lost.
package status
