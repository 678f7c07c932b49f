package driven

// SyncMetrics records engine activity. Implementations must be safe for
// concurrent use. A nil SyncMetrics is replaced by a no-op.
type SyncMetrics interface {
	// UpdateApplied counts an update reaching application state.
	// Source is "local", "remote" or "replay".
	UpdateApplied(source string)

	// RemoteWrite counts a remote write attempt and its outcome.
	RemoteWrite(ok bool)

	// RemoteFetch records the number of updates returned by one fetch.
	RemoteFetch(count int)

	// UnsavedDepth records the current unsaved queue length.
	UnsavedDepth(n int)

	// Availability records the remote availability state.
	Availability(available bool)
}
