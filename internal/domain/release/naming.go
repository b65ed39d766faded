package release

// FallbackVersion is used for naming when the manifest declares no version.
const FallbackVersion = "0.0.0"

// ArchiveName returns the portable archive file name, e.g. minnowsnap-v2.3.0-portable.zip.
func ArchiveName(slug, version, ext string) string {
	return slug + "-v" + version + "-portable." + ext
}

// DiskImageName returns the installer image file name, e.g. MinnowSnap-v1.0.5.dmg.
func DiskImageName(product, version string) string {
	return product + "-v" + version + ".dmg"
}

// BundleName returns the directory name of the native application bundle.
func BundleName(product string) string {
	return product + ".app"
}
