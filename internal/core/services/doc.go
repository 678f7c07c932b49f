// Package services implements the driving port interfaces.
// Services contain the core synchronisation logic and orchestrate
// calls to driven ports (adapters).
//
// The Engine reconciles the local update log with the remote update store,
// the Container applies updates to application state, and the Scheduler
// polls the engine in the background.
//
// Services are pure Go with no CGO or external dependencies.
package services
