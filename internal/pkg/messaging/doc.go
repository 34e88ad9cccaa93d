// Package messaging provides a broker-agnostic API for publishing and
// consuming domain events.
//
// Use cases depend on Publisher and Consumer only. The concrete broker (NATS,
// Kafka, NSQ, Cloud Pub/Sub or the in-process bus) is picked by driver name
// at startup.
package messaging
