package ctrl

import "fmt"

const logPageSize = 24

func registerLogCommands(d *Dispatcher, svc *Services) {
	d.Register(&Command{
		Name: "log", Alias: "l", Help: "dump log entries",
		Params: []ParameterSpec{
			{Kind: KindU32, Required: false, Base: 0, Description: "start cursor"},
		},
		Handler: func(call *CommandCall) string { return drainLog(svc, call) },
	})

	d.Register(&Command{
		Name: "log-clear", Alias: "lc", Help: "dump and clear the log",
		Params: []ParameterSpec{
			{Kind: KindU32, Required: false, Base: 0, Description: "start cursor"},
		},
		Handler: func(call *CommandCall) string {
			out := drainLog(svc, call)
			svc.Log.Clear()
			return out + "\nlog cleared"
		},
	})

	d.Register(&Command{
		Name: "log-info", Alias: "li", Help: "show log buffer diagnostics",
		Handler: func(call *CommandCall) string { return svc.Log.Info() },
	})

	d.Register(&Command{
		Name: "log-monitor", Alias: "lm", Help: "peek at log entries without advancing the cursor",
		Handler: func(call *CommandCall) string {
			in, out, capacity := svc.Log.Cursor()
			entries, remaining := svc.Log.DrainView(uintPtr(uint32(out)), logPageSize)
			svc.Log.SeekOut(uint32(out)) // peek: restore the cursor DrainView advanced

			result := fmt.Sprintf("%d entries:", in-out)
			_ = capacity
			for i, e := range entries {
				result += fmt.Sprintf("\n%3d %s %s", out+i, e.Timestamp.Format("2006-01-02 15:04:05"), e.Text)
			}
			if remaining > 0 {
				result += fmt.Sprintf("\n[%d more]", remaining)
			}
			return result
		},
	})
}

func drainLog(svc *Services, call *CommandCall) string {
	var start *uint32
	if v, ok := call.Param(0); ok {
		start = &v.U32
	}

	entries, remaining := svc.Log.DrainView(start, logPageSize)
	_, out, _ := svc.Log.Cursor()
	base := out - len(entries)

	result := fmt.Sprintf("%d entries:", len(entries)+remaining)
	for i, e := range entries {
		result += fmt.Sprintf("\n%3d %s %s", base+i, e.Timestamp.Format("2006-01-02 15:04:05"), e.Text)
	}
	if remaining > 0 {
		result += fmt.Sprintf("\n[%d more]", remaining)
	}
	return result
}

func uintPtr(v uint32) *uint32 { return &v }
