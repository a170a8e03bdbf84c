// Package messaging publishes and consumes small event payloads over a
// broker chosen at startup.
//
// Kafka, NATS, NSQ and Google Pub/Sub are supported, plus an in-process
// Memory broker for single-node runs. Publishers and consumers only see
// Broker, Message and Handler.
//
// Delivery is at-least-once where the broker allows it: a handler error
// leaves the message unacknowledged (Kafka: uncommitted, NSQ: requeued,
// Pub/Sub: nacked). Core NATS has no redelivery, so errors there are only
// logged.
package messaging
