// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): loaders, embedding and generation services,
// and the persistent vector index.
package driven
