// Package billing maps the payment processor's asynchronous subscription
// lifecycle into the service's own plan records and derives feature
// entitlements from them.
//
// The stored record and the derived entitlement are deliberately two layers:
// the record preserves processor history (plan name and real status, even
// when pending or cancelled), while entitlement derivation collapses to a
// strict rule — only an active subscription grants paid limits, everything
// else is treated as the free tier.
//
// Plan records are written in exactly two places. The subscription initiator
// stores a pending record at checkout time, and the webhook reconciler
// overwrites it with authoritative state fetched from the processor. Status
// queries and the access gate only read.
package billing
