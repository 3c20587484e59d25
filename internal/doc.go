// Package internal holds helpers that are private to goToken.
//
// # Sub-packages
//
//   - envelope: length-prefixed signature/body framing
//   - rate: Redis-backed fixed-window limiter for failed redemptions
//
// # What this package must NOT do
//
//   - Export types that appear in the public goToken API.
//   - Be imported by any package outside the goToken module.
package internal
