// Package core defines the shared vocabulary of the proposal pipeline: the
// Agent capability interface, execution context and result types, bus
// messages, task handoff records and the charter-trip domain model. Every
// other package depends on core; core depends only on the standard library
// and id generation.
package core
