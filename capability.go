package mediaio

import "strings"

// Capability is a bitmask of the stream operations a bridge exposes to the engine.
type Capability uint8

const (
	CapRead  Capability = 1 << iota // read_packet is installed
	CapWrite                        // write_packet is installed, write_flag set
	CapSeek                         // seek is installed
)

// Has returns true if all specified capabilities are present.
func (c Capability) Has(want Capability) bool { return c&want == want }

func (c Capability) String() string {
	if c == 0 {
		return "none"
	}
	var parts []string
	if c.Has(CapRead) {
		parts = append(parts, "read")
	}
	if c.Has(CapWrite) {
		parts = append(parts, "write")
	}
	if c.Has(CapSeek) {
		parts = append(parts, "seek")
	}
	return strings.Join(parts, "+")
}
