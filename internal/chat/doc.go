// Package chat orchestrates one assistant exchange: quota gating, optional
// document handling, the model call, and best-effort history and counter
// writes.
//
// The pipeline is deliberately ordered so that paid boundaries are enforced
// before any model tokens are spent, and so that nothing after the model
// reply can lose it: history and counter writes log failures instead of
// returning them.
package chat
