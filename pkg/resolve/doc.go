// Package resolve defines the contract shared by the three resolution
// engines and the result type they produce.
//
// # Engines
//
// Three interchangeable engines compute the same weight distribution on a
// collapsed delegation graph:
//
//   - linsys: direct solve of the weight-balance linear system
//   - lp: the same equalities cast as a linear program
//   - iterative: fixed-point propagation, scaling to large sparse graphs
//
// The redundancy is intentional cross-validation - three algorithmic
// families proving the same invariant. [Agree] checks the contract that any
// two engines credit every voter identically within [AgreementTolerance],
// and [CheckConservation] checks that no engine creates or destroys weight.
//
// # Model
//
// All engines solve the same balance equations: the power flowing through a
// node equals its intrinsic weight plus the delegated inflow,
//
//	x_v = w_v + sum over edges u->v of weight(u,v) * x_u
//
// Voters credit their full power; absorbers (contracted closed cycles)
// account theirs as permanently lost.
package resolve
