package transport

import (
	"errors"

	"github.com/eriksl/esp32ctl/internal/interfaces"
	"github.com/eriksl/esp32ctl/internal/uapi"
)

// Submitter is the seam a transport uses to hand a decoded frame to
// the shared pipeline, without importing the root esp32ctl package
// (which assembles transports together and would create an import
// cycle if transports imported it back).
type Submitter interface {
	Submit(frame interfaces.InboundFrame) bool
}

// malformedFrameReply is the fixed single-line reply spec §4.2
// prescribes for a frame that fails to decapsulate.
const malformedFrameReply = "ERROR: malformed frame\n"

// decodeFrame runs uapi.Decapsulate over raw reassembled bytes and
// builds the dispatcher-facing InboundFrame, bumping the right
// per-transport counter on failure. ok is false if raw did not
// decapsulate; the caller should send back malformedFrameReply itself
// rather than submitting anything to the pipeline.
func decodeFrame(raw []byte, source string, mtu int, reply interfaces.ReplyHandle, observer interfaces.Observer) (interfaces.InboundFrame, bool) {
	dec, err := uapi.Decapsulate(raw)
	if err != nil {
		if observer != nil {
			if errors.Is(err, uapi.ErrChecksumMismatch) {
				observer.ObserveChecksumFailure(source)
			} else {
				observer.ObserveMalformedFrame(source)
			}
		}
		return interfaces.InboundFrame{}, false
	}

	frame := interfaces.InboundFrame{
		Source:            source,
		TransportMTU:      mtu,
		Packetised:        dec.Packetised,
		Command:           dec.Command,
		OOB:               dec.OOB,
		Groups:            dec.Groups,
		ChecksumRequested: dec.ChecksumRequested,
		Reply:             reply,
	}
	if dec.HasTxID {
		frame.HasTxID = true
		frame.TxID = dec.TxID
	}
	return frame, true
}
