// Package decision turns free-form negotiation text into a typed trade decision.
//
// Parse tries, in order: fenced JSON blocks (and a bare JSON object), the legacy
// approved-only shape, and finally keyword markers such as TRADE_DECISION: and
// CONSENSUS_REACHED. Parsing is pure and idempotent.
package decision
