// Package epoch holds the vocabulary shared by everything that follows the
// network through its epochs: the lifecycle state reported by the registry,
// the classification of a peer between the current and the next validator
// set, and the Snapshot value that bundles both sets for one epoch.
package epoch
