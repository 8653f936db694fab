//go:build !unix

package mediaio

// FFmpeg builds outside unix use the C runtime's errno numbering.
const (
	crtEINTR  = 4
	crtEIO    = 5
	crtEAGAIN = 11
	crtENOMEM = 12
	crtEINVAL = 22
	crtENOSYS = 40
)

var (
	averrorEINTR  int32 = -crtEINTR
	averrorEAGAIN int32 = -crtEAGAIN
	averrorEIO    int32 = -crtEIO
	averrorEINVAL int32 = -crtEINVAL
	averrorENOSYS int32 = -crtENOSYS
	averrorENOMEM int32 = -crtENOMEM
)

// There is no portable errno to match here. Deadlines and Timeout() errors
// still map to AVERROR(EAGAIN) in statusFromError.
func isInterrupted(error) bool { return false }
func wouldBlock(error) bool    { return false }
