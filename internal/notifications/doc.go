// Package notifications pushes uploader outcomes to ntfy.
//
// The topic URL comes from config.toml or NTFY_TOPIC. Without a topic the
// service is a no-op, and per-category switches in [notifications] silence
// individual event kinds. Delivery failures are returned to the caller,
// which logs them; a missed notification never fails an upload.
package notifications
