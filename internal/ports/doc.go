// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// In Clean Architecture / Hexagonal Architecture, ports are the boundaries
// between the application core and the outside world. They define what the
// application needs from external systems without specifying how those needs
// are fulfilled.
//
// # Port Interfaces
//
//   - [SensorEvents]: Inbound notifications and lifecycle hooks from the BLE transport
//   - [SensorControl]: Arms notifications and performs one-shot reads on the strap
//   - [MeasurementSink]: Stores measurements in the remote data store
//   - [Notifier]: User-facing messages (strap contact warnings)
//   - [Logger]: Structured logging abstraction
//   - [HTTPClient]: HTTP request abstraction for dependency injection
//
// # Usage
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement these interfaces
// with concrete implementations (Bluetooth, HTTP, zerolog, terminal).
package ports
