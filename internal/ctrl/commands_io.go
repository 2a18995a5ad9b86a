package ctrl

// registerIoCommands installs the hardware-collaborator command
// names spec.md §4.6 lists as "opaque collaborators" — GPIO, display,
// I2C, PWM, LED driver, sensor, and networking-peripheral
// introspection. None of these have a host-simulable HAL (spec.md
// §1's Non-goals exclude peripheral drivers), so every handler here
// reports a fixed not-implemented reply. They still need table
// entries: a name absent from this table would surface as "unknown
// command" instead of the expected "not implemented", which is the
// wrong failure for anything real firmware actually recognizes.
func registerIoCommands(d *Dispatcher, svc *Services) {
	notImplemented := func(call *CommandCall) string {
		return "ERROR: not implemented"
	}

	type stub struct {
		name, alias, help string
	}

	stubs := []stub{
		{"io-read", "ior", "read from I/O pin"},
		{"io-write", "iow", "write to I/O pin"},
		{"io-dump", "iod", "dump I/O pin configuration"},
		{"io-stats", "ios", "show I/O statistics"},
		{"display-brightness", "db", "display brightness"},
		{"display-configure", "dc", "configure display"},
		{"display-erase", "de", "erase display configuration"},
		{"display-info", "di", "display information"},
		{"display-page-add-text", "dpat", "add text page to display"},
		{"display-page-add-image", "dpai", "add image page to display"},
		{"display-page-remove", "dpr", "remove page from display"},
		{"i2c-info", "i2i", "info about the I2C interfaces"},
		{"i2c-speed", "i2s", "set speed of I2C interface"},
		{"ledpixel-info", "lpxi", "info about LEDpixel channels"},
		{"ledpwm-info", "lpi", "info about LED PWM channels and timers"},
		{"mcpwm-info", "mpi", "info about MCPWM channels and timers"},
		{"pdm-info", "pin", "info about PDM channels"},
		{"sensor-dump", "sd", "dump registered sensors"},
		{"sensor-info", "si", "info about registered sensors"},
		{"sensor-json", "sj", "sensor values in json layout"},
		{"sensor-stats", "ss", "sensor statistics"},
		{"bt-info", "bi", "show information about bluetooth"},
		{"wlan-info", "wi", "show information about wlan"},
		{"wlan-client-config", "wcc", "set wireless ssid and password in client mode"},
		{"tcp-info", "ti", "show information about tcp"},
		{"udp-info", "ui", "show information about udp"},
		{"console-info", "coni", "show information about the console"},
		{"string-info", "sti", "show information about all strings"},
	}

	for _, s := range stubs {
		d.Register(&Command{
			Name: s.name, Alias: s.alias, Help: s.help,
			Handler: notImplemented,
		})
	}
}
