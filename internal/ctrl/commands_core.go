package ctrl

import (
	"fmt"
	"sort"
	"strings"
)

func registerCoreCommands(d *Dispatcher, svc *Services) {
	d.Register(&Command{
		Name: "help", Alias: "?", Help: "list commands",
		Handler: func(call *CommandCall) string { return helpText(d) },
	})

	d.Register(&Command{
		Name: "alias", Help: "set or remove a command alias",
		Params: []ParameterSpec{
			{Kind: KindString, Required: false, Description: "alias"},
			{Kind: KindRawString, Required: false, Description: "substitution text"},
		},
		Handler: d.Aliases().Command,
	})

	d.Register(&Command{
		Name: "hostname", Help: "get or set the hostname",
		Params: []ParameterSpec{
			{Kind: KindString, Required: false, Description: "new hostname"},
			{Kind: KindRawString, Required: false, Description: "description, '_' becomes ' '"},
		},
		Handler: func(call *CommandCall) string {
			if v, ok := call.Param(0); ok && v.String != "" {
				svc.Config.SetString("hostname", v.String)
			}
			if v, ok := call.Param(1); ok {
				svc.Config.SetString("hostname_desc", strings.ReplaceAll(v.String, "_", " "))
			}
			host := "<unset>"
			if v, ok := svc.Config.Get("hostname"); ok {
				host = v.Str
			}
			desc := "<unset>"
			if v, ok := svc.Config.Get("hostname_desc"); ok {
				desc = v.Str
			}
			return fmt.Sprintf("hostname: %s (%s)", host, desc)
		},
	})

	d.Register(&Command{
		Name: "reset", Alias: "r", Help: "reset the device",
		Handler: func(call *CommandCall) string {
			svc.OTA.Reboot()
			return "OK reset"
		},
	})

	d.Register(&Command{
		Name: "write", Alias: "w", Help: "echo to output",
		Params: []ParameterSpec{
			{Kind: KindRawString, Required: false, Description: "text"},
		},
		Handler: func(call *CommandCall) string {
			if v, ok := call.Param(0); ok {
				return v.String
			}
			return ""
		},
	})
}

func helpText(d *Dispatcher) string {
	names := make([]string, 0, len(d.byName))
	for name := range d.byName {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("HELP\ncommands:")
	for _, name := range names {
		cmd := d.byName[name]
		if cmd.Alias != "" {
			fmt.Fprintf(&b, "\n  %s/%s: %s", cmd.Name, cmd.Alias, cmd.Help)
		} else {
			fmt.Fprintf(&b, "\n  %s: %s", cmd.Name, cmd.Help)
		}
	}
	return b.String()
}
