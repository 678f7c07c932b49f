// Package domain defines the core entities for update synchronisation.
//
// This package is part of the hexagonal architecture's innermost layer.
// Its only external dependency is github.com/google/uuid for update IDs.
// It defines the fundamental types:
//
//   - Update: An immutable, uniquely identified list of actions
//   - Action: An opaque, kind-tagged payload applied to application state
//   - Namespace: App/dataset/area partitioning of remote keys
//   - Credentials: The payload published while remote access is possible
//   - Availability: Unknown, available or unavailable
//
// # Import Rules
//
//   - Can Import: Standard library, github.com/google/uuid
//   - Cannot Import: Any internal/ package
package domain
