package ctrl

import (
	"fmt"

	"github.com/eriksl/esp32ctl/internal/config"
	"github.com/eriksl/esp32ctl/internal/logring"
	"github.com/eriksl/esp32ctl/internal/ota"
	"github.com/eriksl/esp32ctl/internal/ramfs"
)

// Services bundles the collaborators the command table's handlers
// operate on (spec §2's "invoked only through dispatcher handlers"
// rule). A single instance is shared by every handler; none of them
// may be invoked except from the intake worker, per §5.
type Services struct {
	Ramfs  *ramfs.Root
	OTA    *ota.Engine
	Config *config.Store
	Log    *logring.Ring
	Script ScriptRunner

	StartTime int64 // unix seconds, stamped by the caller at construction
}

// ScriptRunner is the seam the "run" command uses to launch a script
// transport's interpreter without this package importing
// internal/transport (which would create an import cycle, since
// transport's Submitter interface is satisfied by the root package
// that also wires ctrl). Start is fire-and-forget: it mirrors
// original_source/main/script.cpp's command_run, which detaches a
// thread and returns immediately, logging failures asynchronously.
type ScriptRunner interface {
	Start(name string, params [4]string) error
}

// NewServices wires a fresh set of collaborators, suitable for a
// single simulated device instance.
func NewServices(otaPartitionCapacity int64) *Services {
	return &Services{
		Ramfs:  ramfs.New(),
		OTA:    ota.New(otaPartitionCapacity),
		Config: config.New(),
		Log:    logring.New(),
	}
}

// RegisterAll installs the full command table (spec §4.6) on d.
func RegisterAll(d *Dispatcher, svc *Services) {
	registerCoreCommands(d, svc)
	registerConfigCommands(d, svc)
	registerFsCommands(d, svc)
	registerOtaCommands(d, svc)
	registerInfoCommands(d, svc)
	registerLogCommands(d, svc)
	registerIoCommands(d, svc)
	registerScriptCommands(d, svc)
}

func ioError(op string, err error) string {
	return fmt.Sprintf("ERROR: %s failed: %s", op, err)
}
