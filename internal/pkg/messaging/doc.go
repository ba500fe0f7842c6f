// Package messaging publishes and consumes events over a pluggable broker
// (Kafka, NATS, NSQ or Google Pub/Sub).
//
// Business code depends on Messaging; NewFromDriver selects the broker from
// config. Every driver maps the broker-specific consumer concept (Kafka
// group, NSQ channel, NATS queue group, Pub/Sub subscription) onto WithGroup.
package messaging
