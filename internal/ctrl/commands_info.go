package ctrl

import (
	"fmt"
	"runtime"
)

func registerInfoCommands(d *Dispatcher, svc *Services) {
	d.Register(&Command{
		Name: "info", Help: "show firmware and platform information",
		Handler: func(call *CommandCall) string {
			return fmt.Sprintf("> firmware\n>   runtime: %s\nSoC: host with %d cores\n",
				runtime.Version(), runtime.NumCPU())
		},
	})

	d.Register(&Command{
		Name: "info-cli", Alias: "ic", Help: "show dispatcher statistics",
		Handler: func(call *CommandCall) string {
			snap := MetricsFromObserver(d.observer)
			return fmt.Sprintf("commands received:\n- total: %d\nreplies sent:\n- total: %d",
				snap.commandsOK+snap.commandsErr, snap.commandsOK+snap.commandsErr)
		},
	})

	d.Register(&Command{
		Name: "info-memory", Alias: "im", Help: "show memory usage",
		Handler: func(call *CommandCall) string {
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			return fmt.Sprintf("memory:\n- heap alloc: %d kB\n- heap sys: %d kB\n- num goroutines: %d",
				m.HeapAlloc/1024, m.HeapSys/1024, runtime.NumGoroutine())
		},
	})

	d.Register(&Command{
		Name: "info-partitions", Alias: "ip", Help: "show OTA partition state",
		Handler: func(call *CommandCall) string {
			return fmt.Sprintf("Partitions:\n- running slot: %d\n- boot slot: %d\n- state: %s",
				svc.OTA.RunningSlot(), svc.OTA.BootSlot(), svc.OTA.State())
		},
	})

	d.Register(&Command{
		Name: "process-list", Alias: "ps", Help: "show running processes",
		Handler: func(call *CommandCall) string {
			return fmt.Sprintf("processes:\n- goroutines: %d", runtime.NumGoroutine())
		},
	})

	d.Register(&Command{
		Name: "process-stop", Alias: "kill", Help: "stop a running process",
		Params: []ParameterSpec{
			{Kind: KindU32, Required: true, Base: 0, Description: "process id"},
		},
		Handler: func(call *CommandCall) string {
			return "ERROR: process-stop failed: no stoppable processes"
		},
	})
}

// metricsSummary is the subset of an interfaces.Observer's counters
// info-cli reports; read through type assertion since Observer only
// exposes narrow per-event methods, not a snapshot.
type metricsSummary struct {
	commandsOK  uint64
	commandsErr uint64
}

// snapshotter is implemented by observers that can report aggregate
// counts (e.g. the root package's Metrics); other Observer
// implementations report zero.
type snapshotter interface {
	CommandCounts() (ok, failed uint64)
}

func MetricsFromObserver(obs interface{}) metricsSummary {
	if s, ok := obs.(snapshotter); ok {
		ok1, err1 := s.CommandCounts()
		return metricsSummary{commandsOK: ok1, commandsErr: err1}
	}
	return metricsSummary{}
}
