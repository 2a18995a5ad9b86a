package ctrl

// registerScriptCommands installs the "run" command
// (original_source/main/script.cpp's command_run): a script name plus
// up to four positional arguments, launched on the script transport
// and not waited on.
func registerScriptCommands(d *Dispatcher, svc *Services) {
	d.Register(&Command{
		Name: "run", Help: "run a script",
		Params: []ParameterSpec{
			{Kind: KindString, Required: true, Description: "script name"},
			{Kind: KindString, Required: false, Description: "$0"},
			{Kind: KindString, Required: false, Description: "$1"},
			{Kind: KindString, Required: false, Description: "$2"},
			{Kind: KindString, Required: false, Description: "$3"},
		},
		Handler: func(call *CommandCall) string {
			if svc.Script == nil {
				return "ERROR: script runner not available"
			}

			name, ok := call.Param(0)
			if !ok || name.String == "" {
				return "ERROR: run: missing script name"
			}

			var params [4]string
			for i := 0; i < len(params); i++ {
				if v, ok := call.Param(i + 1); ok {
					params[i] = v.String
				}
			}

			if err := svc.Script.Start(name.String, params); err != nil {
				return ioError("run", err)
			}
			return "OK"
		},
	})
}
