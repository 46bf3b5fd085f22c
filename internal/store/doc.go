// Package store provides pluggable state management for conversation
// threads.
//
// The package offers two main types:
//   - [Store]: a generic key-value store with map[string]any semantics,
//     used for per-thread shared state snapshots
//   - [MessageStore]: a specialized store for conversation history
//
// Both support pluggable persistence through the [Adapter] interface, with a
// default in-memory implementation provided via [MemoryAdapter].
package store
