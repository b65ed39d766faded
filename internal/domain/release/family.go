package release

import "strings"

// Family is the closed set of host platform families the pipeline knows about.
type Family int

const (
	// FamilyUnsupported is any host that neither packager can serve.
	FamilyUnsupported Family = iota
	// FamilyArchive produces a portable compressed archive (Windows hosts).
	FamilyArchive
	// FamilyDiskImage produces a disk-image installer (macOS hosts).
	FamilyDiskImage
)

// DetectFamily maps a GOOS value to its platform family.
func DetectFamily(goos string) Family {
	switch strings.ToLower(strings.TrimSpace(goos)) {
	case "windows":
		return FamilyArchive
	case "darwin":
		return FamilyDiskImage
	default:
		return FamilyUnsupported
	}
}

// String returns a short name used in logs and release descriptions.
func (f Family) String() string {
	switch f {
	case FamilyArchive:
		return "archive"
	case FamilyDiskImage:
		return "disk-image"
	case FamilyUnsupported:
		return "unsupported"
	default:
		return "unsupported"
	}
}

// ExecutableName returns the name of the product binary on hosts of this family.
func (f Family) ExecutableName(product string) string {
	if f == FamilyArchive {
		return product + ".exe"
	}

	return product
}
