// Package dispatch routes named capability calls to their implementations.
//
// A Catalog holds every built-in Descriptor. A Registry is the per-session
// subset of the catalog that is advertised upstream through DescribeAll, and
// a Dispatcher decodes a call's raw argument payload, repairing concatenated
// JSON objects when it can, and invokes the capability according to its
// calling Convention.
//
// Outcomes follow a fixed state sequence:
//
//	received -> decoded -> dispatched -> succeeded | not_found | error
//
// An unknown capability is a normal ActionNotFound response. A capability
// that fails or panics yields no response and no error.
package dispatch
