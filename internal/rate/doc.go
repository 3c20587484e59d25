// Package rate provides a Redis-backed fixed-window limiter for failed token
// redemptions.
//
// # Window semantics
//
// INCR + conditional EXPIRE on first hit. Keys are laid out as
// prefix:scope:id, for example "redeem:client:cli" or "redeem:ip:10.0.0.1".
//
// A successful redemption does not reset the window: a replayed token still
// counts against the caller until the window expires.
package rate
