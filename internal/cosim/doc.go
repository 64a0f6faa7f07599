// Package cosim defines the model hosting contract used by the runner.
//
// A co-simulation model is consumed through three narrow interfaces:
//
//   - [Resolver]: turns a URI or path into a loadable [Model]
//   - [Model]: exposes the variable catalog and creates instances
//   - [Simulator]: a stateful, time-steppable instance with a batched
//     get/set protocol grouped by [VariableType]
//
// Simulated time is a [TimePoint], an integer nanosecond count, so step
// boundaries add up exactly regardless of how many steps a run takes.
//
// # Example
//
//	model, _ := resolver.LookupModel(base, "builtin:pendulum")
//	sim, _ := model.Instantiate("simulator")
//	_ = sim.Setup(0, cosim.TimePointFromSeconds(10), cosim.SetupOptions{})
//	_ = sim.StartSimulation()
//	res, _ := sim.DoStep(0, 10*time.Millisecond)
//
// # Thread Safety
//
// Simulator instances are NOT thread-safe. A run owns its simulator
// exclusively for the run's duration.
package cosim
