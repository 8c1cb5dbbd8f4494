// Package cache provides content-addressed caching for resolution artifacts.
//
// # Overview
//
// Resolving a large delegation graph is pure computation over its content,
// so results are cached under keys derived from the graph's SHA-256 hash and
// the resolution parameters. Three backends implement the [Cache] interface:
//
//   - [FileCache]: per-user on-disk cache for CLI usage
//   - [RedisCache]: shared cache for server deployments
//   - [NullCache]: no-op backend for tests and --no-cache runs
//
// # Keys
//
// The [Keyer] interface generates keys for the two cached artifact kinds:
// collapsed graphs and resolution results. [DefaultKeyer] hashes the inputs
// with SHA-256; [ScopedKeyer] adds a namespace prefix on top of another
// keyer for multi-tenant isolation.
package cache
