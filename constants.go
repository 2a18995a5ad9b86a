package esp32ctl

import "github.com/eriksl/esp32ctl/internal/constants"

// Re-exported tuning constants for callers that build Options without
// reaching into internal/constants directly.
const (
	QueueCapacity      = constants.QueueCapacity
	MaxParameters      = constants.MaxParameters
	MaxAliases         = constants.MaxAliases
	MaxOpenFiles       = constants.MaxOpenFiles
	MaxScriptCallDepth = constants.MaxScriptCallDepth
	TCPServicePort     = constants.TCPServicePort
	NumPartitions      = constants.NumPartitions
)
