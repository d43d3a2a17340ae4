// Package domain contains the core domain entities and value objects for rrship.
//
// This package represents the innermost layer of the Clean Architecture. It has
// no dependencies on infrastructure concerns (Bluetooth, HTTP, logging) and
// contains only measurement data and the rules that keep it consistent.
//
// # Entities
//
//   - [Measurement]: Heart rate and RR intervals decoded from one notification
//   - [Phase]: The session lifecycle stage (connection test, idle, recording)
//   - [MeasurementLog]: RR intervals retained locally for one recording
//   - [DeliveryTask]: A measurement handed to the delivery pipeline
//
// # Design Principles
//
// Domain entities are:
//   - Immutable after construction (where practical)
//   - Free of infrastructure dependencies
//   - Focused on business rules and invariants
//   - Testable without mocks or external systems
package domain
