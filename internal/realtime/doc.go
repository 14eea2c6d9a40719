// Package realtime implements the real-time synchronization client.
//
// One Client owns one persistent bidirectional connection and multiplexes
// any number of widget subscriptions over it, keyed either by widget id or
// by widget type. The client:
//   - reconnects automatically with capped exponential backoff
//   - replays every registered subscription key on each (re)connection,
//     before any inbound frame from that connection is dispatched
//   - fans each widget_update out to the id-keyed and type-keyed callback
//     sets independently
//   - keeps the connection alive with periodic ping frames and treats
//     prolonged silence as a connection loss
//
// Subscriptions survive disconnection: Disconnect never clears the
// registry, so a later Connect resumes prior interest.
package realtime
