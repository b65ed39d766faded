package packager

import (
	"crypto"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/minnow-bundle/internal/config"
	"github.com/oshokin/minnow-bundle/internal/domain/release"

	// Ensure SHA512 available for checksum calculation.
	_ "crypto/sha512"
)

const (
	// DescriptionSuffix is appended to the artifact path to name its description.
	DescriptionSuffix = ".yaml"

	// DefaultChecksumFunction is used to calculate artifact hashes.
	DefaultChecksumFunction crypto.Hash = crypto.SHA512
)

var errHashUnavailable = errors.New("hash function unavailable")

// Description contains metadata about a produced artifact.
type Description struct {
	// Product is the application name.
	Product string `yaml:"product"`
	// Version is the manifest version the artifact is named after.
	Version string `yaml:"version"`
	// Platform is the family that produced the artifact.
	Platform string `yaml:"platform"`
	// Artifact is the artifact file name.
	Artifact string `yaml:"artifact"`
	// Size is the artifact size in bytes.
	Size int64 `yaml:"size"`
	// ChecksumAlgorithm names the hash used for Checksum.
	ChecksumAlgorithm string `yaml:"checksum_algorithm"`
	// Checksum is the base64-encoded artifact hash.
	Checksum string `yaml:"checksum"`
	// CreatedAt is when the description was written, in UTC.
	CreatedAt time.Time `yaml:"created_at"`
}

// Describe writes a Description of artifact next to it and returns its path.
func Describe(artifact *Artifact, product string, family release.Family, now time.Time) (string, error) {
	info, err := os.Stat(artifact.Path)
	if err != nil {
		return "", fmt.Errorf("stat artifact: %w", err)
	}

	checksum, err := GetFileChecksum(artifact.Path)
	if err != nil {
		return "", err
	}

	desc := &Description{
		Product:           product,
		Version:           artifact.Version,
		Platform:          family.String(),
		Artifact:          filepath.Base(artifact.Path),
		Size:              info.Size(),
		ChecksumAlgorithm: "sha512",
		Checksum:          base64.StdEncoding.EncodeToString(checksum),
		CreatedAt:         now.UTC(),
	}

	contents, err := yaml.Marshal(desc)
	if err != nil {
		return "", fmt.Errorf("marshal description: %w", err)
	}

	path := artifact.Path + DescriptionSuffix
	if err = os.WriteFile(path, contents, config.DefaultFilePermissions); err != nil {
		return "", fmt.Errorf("write description: %w", err)
	}

	return path, nil
}

// GetFileChecksum returns checksum bytes for a file using DefaultChecksumFunction.
func GetFileChecksum(path string) ([]byte, error) {
	if !DefaultChecksumFunction.Available() {
		return nil, fmt.Errorf("checksum calculation not possible: %w", errHashUnavailable)
	}

	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = file.Close()
	}()

	hasher := DefaultChecksumFunction.New()
	if _, err = io.Copy(hasher, file); err != nil {
		return nil, fmt.Errorf("calculate checksum: %w", err)
	}

	return hasher.Sum(nil), nil
}
