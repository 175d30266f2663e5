// Package notifier delivers reminder texts to members.
//
// Delivery is synchronous: Send returns once the transport accepted or
// rejected the message, so the caller can decide whether to retry. Sends share
// one token bucket so a burst of reminders stays under the platform limit.
//
// # History
//
// The service keeps a small in-memory history of recent deliveries for the
// health endpoint.
package notifier
