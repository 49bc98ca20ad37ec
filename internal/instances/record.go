// Package instances implements multi-instance discovery: each running
// Houdini bridge advertises itself with a small JSON record in a shared
// user-scoped directory, keyed by the TCP port it bound. Clients scan
// the directory, drop records whose process is gone, and pick among the
// survivors. There is no central coordinator — staleness is reconciled
// by whoever reads a record, never assumed away by the writer.
package instances

import "fmt"

const (
	// BasePort is the first candidate port an instance tries to bind.
	BasePort = 9877

	// PortCount is the size of the contiguous candidate range. Both the
	// registry (server) and discovery (client) share this constant, so
	// a client never needs to know in advance which port a given
	// instance claimed.
	PortCount = 10

	// DefaultPort is the legacy fixed port, used as a last-resort
	// connection target when discovery finds nothing (instances started
	// by older addon versions never wrote a record).
	DefaultPort = BasePort
)

// PortRange returns the candidate ports in ascending order.
func PortRange() []int {
	ports := make([]int, PortCount)
	for i := range ports {
		ports[i] = BasePort + i
	}
	return ports
}

// Record advertises one live instance. Field names match the JSON the
// Python addon writes, so both implementations can discover each other.
type Record struct {
	Port           int    `json:"port"`
	PID            int    `json:"pid"`
	HipFile        string `json:"hip_file"`
	HipName        string `json:"hip_name"`
	HoudiniVersion string `json:"houdini_version"`
	StartedAt      string `json:"started_at"` // RFC 3339, UTC
	Hostname       string `json:"hostname"`
}

// fileName is the deterministic per-port record file name. One record
// per port at any time, by construction.
func fileName(port int) string {
	return fmt.Sprintf("houdini_%d.json", port)
}
