// Package memory keeps thumbnail generation within the process memory
// budget.
//
// ConfigureFromEnv derives GOMEMLIMIT from a container limit
// (MEMORY_LIMIT, MEMORY_RATIO). Monitor samples the heap against that
// limit; generation workers call Wait before decoding each image and
// block while usage is above the critical water mark:
//
//	monitor := memory.NewMonitor(memory.DefaultConfig())
//	monitor.Start()
//	defer monitor.Stop()
//	service.SetMemoryGate(monitor)
package memory
