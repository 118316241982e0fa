// Package stream implements the generic pagination and polling
// primitive shared by channel messages, the sector content feed, and
// the global feed.
//
// A Cursor holds a gap-free, oldest-to-newest window of a remote
// append-only stream. Three operations move the window:
//
//   - LoadInitial replaces the window with the newest page.
//   - LoadOlder extends the window backwards, anchored on the oldest
//     loaded item.
//   - Poll extends the window forwards, anchored on the newest loaded
//     item.
//
// LoadOlder only ever prepends and Poll only ever appends, so the two
// may be in flight at the same time; each operation is serialized
// against itself with a per-cursor in-flight flag.
//
// A Poller drives Poll (or any other repeating task) on a fixed
// interval bound to the lifetime of the active view; Stop is
// deterministic and no tick fires after it returns.
package stream
