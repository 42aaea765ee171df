// Package session owns the server-side lifecycle of uploads.
//
// A [Manager] maps cookie identities to [Session] values and tears
// everything down at shutdown. Each session lazily creates one working
// directory under the manager's temp root, stores uploaded files there
// verbatim, and tracks its uploads in insertion order.
//
// An [Upload] is a small state machine:
//
//	idle -> awaiting_input -> resolved -> loaded -> preview_shown -> closed
//
// with terminal detours to failed and closed. Run drives an upload as
// far as the file allows; when resolution needs a delimiter or sheet
// choice the upload suspends in awaiting_input as stored state, not a
// blocked goroutine, and waits indefinitely. ProvideInput resumes it at
// most once: any attempt that reaches the resolver consumes the resume,
// whether or not it succeeds. Closing is idempotent from every state
// and silently abandons a pending prompt.
//
// A [Limiter] caps concurrent upload processing across all sessions.
// Suspended uploads hold no slot.
package session
