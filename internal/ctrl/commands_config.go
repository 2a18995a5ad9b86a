package ctrl

import "fmt"

func registerConfigCommands(d *Dispatcher, svc *Services) {
	d.Register(&Command{
		Name: "config-dump", Alias: "cd", Help: "dump all config entries",
		Handler: func(call *CommandCall) string { return svc.Config.Dump() },
	})

	d.Register(&Command{
		Name: "config-show", Alias: "cs", Help: "show the config namespace",
		Handler: func(call *CommandCall) string { return svc.Config.Show() },
	})

	d.Register(&Command{
		Name: "config-info", Alias: "ci", Help: "show config store statistics",
		Handler: func(call *CommandCall) string { return svc.Config.Info() },
	})

	d.Register(&Command{
		Name: "config-erase", Alias: "ce", Help: "erase a config entry",
		Params: []ParameterSpec{
			{Kind: KindString, Required: true, Description: "key"},
		},
		Handler: func(call *CommandCall) string {
			key, _ := call.Param(0)
			if svc.Config.Erase(key.String) {
				return fmt.Sprintf("erase %s OK", key.String)
			}
			return fmt.Sprintf("ERROR: erase %s not found", key.String)
		},
	})

	d.Register(&Command{
		Name: "config-set-uint", Alias: "csu", Help: "set an unsigned integer config entry",
		Params: []ParameterSpec{
			{Kind: KindString, Required: true, Description: "key"},
			{Kind: KindU32, Required: true, Base: 0, Description: "value"},
		},
		Handler: func(call *CommandCall) string {
			key, _ := call.Param(0)
			val, _ := call.Param(1)
			svc.Config.SetUint(key.String, val.U32)
			v, _ := svc.Config.Get(key.String)
			return fmt.Sprintf("%s[%s]=%s", key.String, v.Kind, v.Formatted())
		},
	})

	d.Register(&Command{
		Name: "config-set-int", Alias: "csi", Help: "set a signed integer config entry",
		Params: []ParameterSpec{
			{Kind: KindString, Required: true, Description: "key"},
			{Kind: KindI32, Required: true, Base: 0, Description: "value"},
		},
		Handler: func(call *CommandCall) string {
			key, _ := call.Param(0)
			val, _ := call.Param(1)
			svc.Config.SetInt(key.String, val.I32)
			v, _ := svc.Config.Get(key.String)
			return fmt.Sprintf("%s[%s]=%s", key.String, v.Kind, v.Formatted())
		},
	})

	d.Register(&Command{
		Name: "config-set-string", Alias: "css", Help: "set a string config entry",
		Params: []ParameterSpec{
			{Kind: KindString, Required: true, Description: "key"},
			{Kind: KindRawString, Required: true, Description: "value"},
		},
		Handler: func(call *CommandCall) string {
			key, _ := call.Param(0)
			val, _ := call.Param(1)
			svc.Config.SetString(key.String, val.String)
			v, _ := svc.Config.Get(key.String)
			return fmt.Sprintf("%s[%s]=%s", key.String, v.Kind, v.Formatted())
		},
	})
}
