package temporal

// ProgressSignalName is sent to a record's lifecycle workflow after every
// synchronous mutation so the workflow re-reads the record and re-arms its
// timers.
const ProgressSignalName = "clearanceProgress"

type ProgressSignal struct {
	ClearanceID string `json:"clearance_id"`
	Reason      string `json:"reason,omitempty"`
}
