// Package trainer provides the training loop for hashtron feedforward networks.
// Each hashtron is retrained in turn from a tally over every sample, and a
// retrained hashtron is kept only when the network score doesn't drop.
package trainer
