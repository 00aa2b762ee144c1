// ABOUTME: Version information for tonegen
// ABOUTME: Reported in the startup log line and the -version flag
package version

const (
	// Version is the release version
	Version = "0.1.0"

	// Product is the program name
	Product = "tonegen"

	// Manufacturer is the publisher
	Manufacturer = "Resonate"
)

// String returns the product and version for log lines
func String() string {
	return Product + " " + Version
}
