// Package file provides the TOML configuration store.
//
// Settings live in ~/.updatesync/config.toml as nested tables and are read
// back through dot-notation keys such as "remote.bucket". Any key can be
// overridden from the environment: "remote.bucket" is read from
// UPDATESYNC_REMOTE_BUCKET when that variable is set.
package file
