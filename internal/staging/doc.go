// Package staging provides request-scoped temporary storage on the filesystem.
// Every operation that needs filesystem-backed decoding acquires a Handle, stages
// its buffers under the handle's private directory and releases it on return.
package staging
