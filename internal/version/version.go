// ABOUTME: Version and product identity constants
// ABOUTME: Reported in server/hello and client/hello device info
package version

const (
	// Product is the name reported to peers
	Product = "loopdec"

	// Manufacturer is reported alongside Product
	Manufacturer = "Sendspin"
)

// Version is set at build time with -ldflags "-X .../version.Version=..."
var Version = "0.1.0"
