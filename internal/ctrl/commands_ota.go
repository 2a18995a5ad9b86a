package ctrl

func registerOtaCommands(d *Dispatcher, svc *Services) {
	d.Register(&Command{
		Name: "ota-start", Help: "begin staging a firmware image",
		Params: []ParameterSpec{
			{Kind: KindU32, Required: true, Base: 0, Description: "image length"},
		},
		Handler: func(call *CommandCall) string {
			length, _ := call.Param(0)
			return svc.OTA.Start(length.U32)
		},
	})

	d.Register(&Command{
		Name: "ota-write", Help: "write one chunk of the staged image",
		Params: []ParameterSpec{
			{Kind: KindU32, Required: true, Base: 0, Description: "chunk length"},
			{Kind: KindU32, Required: true, Base: 0, Description: "checksum chunk flag"},
		},
		Handler: func(call *CommandCall) string {
			length, _ := call.Param(0)
			checksumFlag, _ := call.Param(1)
			return svc.OTA.Write(length.U32, checksumFlag.U32 != 0, call.OOB)
		},
	})

	d.Register(&Command{
		Name: "ota-finish", Help: "finalize the staged image's checksum",
		Handler: func(call *CommandCall) string { return svc.OTA.Finish() },
	})

	d.Register(&Command{
		Name: "ota-commit", Help: "commit the staged image as bootable",
		Params: []ParameterSpec{
			{Kind: KindString, Required: true, Description: "expected sha256 checksum"},
		},
		Handler: func(call *CommandCall) string {
			checksum, _ := call.Param(0)
			return svc.OTA.Commit(checksum.String)
		},
	})

	d.Register(&Command{
		Name: "ota-confirm", Help: "confirm the running image after a reboot",
		Params: []ParameterSpec{
			{Kind: KindU32, Required: true, Base: 0, Description: "running slot"},
		},
		Handler: func(call *CommandCall) string {
			slot, _ := call.Param(0)
			return svc.OTA.Confirm(int(slot.U32))
		},
	})
}
