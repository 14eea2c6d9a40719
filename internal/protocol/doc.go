// Package protocol implements the Message Codec for the realtime wire format.
//
// Every frame is a JSON object with a "type" discriminator and an optional
// type-specific "data" payload. Outbound frames are built through a closed
// set of constructors so an invalid frame cannot be constructed; inbound
// frames are decoded into an Envelope and narrowed with typed accessors.
package protocol
