// Package store persists resolution run records.
//
// A [Run] captures one resolution: the graph's content hash, the engine and
// its parameters, and the headline outcome numbers. [MongoStore] backs
// server deployments; [MemoryStore] backs tests and storeless setups.
package store
