// Package pkg provides the core libraries for Delegraph voting-power resolution.
//
// # Overview
//
// Delegraph resolves liquid democracy delegation graphs: every participant
// either votes directly or delegates fractions of their voting weight to
// others, and the libraries here compute how much accumulated power each
// voter ends up wielding. The pkg directory is organized into five main
// areas:
//
//  1. [graph] - The delegation graph model and its JSON form
//  2. [collapse] - Cycle detection and contraction into absorbing nodes
//  3. [resolve] - Interchangeable resolution engines (linear, lp, iterative)
//  4. [pipeline] - Orchestration (collapse → resolve → verify) with caching
//  5. [gen], [render] - Graph generation and DOT/SVG/PNG diagrams
//
// # Architecture
//
// The typical data flow through Delegraph:
//
//	Delegation Graph (JSON)
//	         ↓
//	collapse.Collapse        closed cycles become absorbing nodes
//	         ↓
//	resolve.Resolver         one of linsys, lp, iterative
//	         ↓
//	resolve.Result           credited power per voter, absorbed weight
//
// Supporting packages: [cache] (file/redis result caching), [store] (run
// history in memory or MongoDB), [config] (TOML configuration), [errors]
// (structured error codes), [observability] (pipeline hooks), and
// [buildinfo] (version metadata).
package pkg
