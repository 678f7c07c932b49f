// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - RemoteUpdateStore: Namespaced update storage in an object store
//   - ObjectStore: Raw list/get/put/delete against a bucket
//   - LocalLog: Durable known-update list and unsaved queue
//   - CredentialsSource: Credential availability and invalidation signals
//   - ConfigStore: Application configuration
//   - SchedulerStore: Scheduler state for periodic polling
//
// # Optional Interfaces
//
//   - SyncMetrics: Engine counters. Without it, metrics are discarded.
//
// # Import Rules
//
//   - Can Import: domain and signal packages only
//   - Cannot Import: Any adapter package
package driven
