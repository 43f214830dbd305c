// Package project provides project file handling and persistence.
//
// A project file is a small binary container: a magic signature, a
// little-endian format version, and a gzip-compressed JSON payload. Saves
// go through a temp-file swap so a crash never leaves a truncated project.
package project

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"time"

	"chart-tracer/internal/calibration"
	"chart-tracer/internal/trace"
	"chart-tracer/pkg/geometry"
)

// Magic is the project file signature prefix.
var Magic = [5]byte{'C', 'H', 'T', 'R', 'C'}

// Version is the current project format version.
const Version uint32 = 1

// SnapSettingsRecord is the serializable subset of the snap settings.
type SnapSettingsRecord struct {
	InputMode           int     `json:"input_mode"`
	TargetR             uint8   `json:"target_r"`
	TargetG             uint8   `json:"target_g"`
	TargetB             uint8   `json:"target_b"`
	ColorTolerance      float64 `json:"color_tolerance"`
	SearchRadius        float64 `json:"search_radius"`
	ContrastThreshold   float64 `json:"contrast_threshold"`
	CenterlineThreshold float64 `json:"centerline_threshold"`
	FeatureSource       int     `json:"feature_source"`
	ThresholdKind       int     `json:"threshold_kind"`
}

// Payload is the JSON document stored inside a project file.
type Payload struct {
	Name     string    `json:"name"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`

	// Image reference; the checksum detects a swapped or edited image on load.
	ImagePath  string `json:"image_path,omitempty"`
	ImageCRC32 uint32 `json:"image_crc32,omitempty"`

	Calibration calibration.Calibration `json:"calibration"`
	Snap        SnapSettingsRecord      `json:"snap"`
	Trace       trace.Config            `json:"trace"`
	Points      []geometry.Point2D      `json:"points"`
}

// LoadOutcome is a loaded payload plus any non-fatal warnings.
type LoadOutcome struct {
	Payload  Payload
	Version  uint32
	Warnings []string
}

// Save writes the payload to path: JSON-encode, gzip, prepend the header,
// then atomically swap the file into place.
func Save(path string, payload *Payload) error {
	payload.Modified = time.Now().UTC()
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to serialize project payload: %w", err)
	}

	var buf bytes.Buffer
	buf.Write(Magic[:])
	var version [4]byte
	binary.LittleEndian.PutUint32(version[:], Version)
	buf.Write(version[:])

	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(encoded); err != nil {
		return fmt.Errorf("failed to compress project payload: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish compression: %w", err)
	}

	return writeAtomic(path, buf.Bytes())
}

// Load reads a project file: validate the header, decompress, and decode.
// A stored image checksum that no longer matches the file on disk produces
// a warning, not an error.
func Load(path string) (*LoadOutcome, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project %s: %w", path, err)
	}
	headerLen := len(Magic) + 4
	if len(raw) < headerLen {
		return nil, fmt.Errorf("project file too small or missing header")
	}
	if !bytes.Equal(raw[:len(Magic)], Magic[:]) {
		return nil, fmt.Errorf("not a chart-tracer project file: magic signature mismatch")
	}
	version := binary.LittleEndian.Uint32(raw[len(Magic):headerLen])
	if version != Version {
		return nil, fmt.Errorf("unsupported project version %d (supported: %d)", version, Version)
	}

	zr, err := gzip.NewReader(bytes.NewReader(raw[headerLen:]))
	if err != nil {
		return nil, fmt.Errorf("failed to decompress project payload: %w", err)
	}
	defer zr.Close()
	decoded, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress project payload: %w", err)
	}

	var payload Payload
	if err := json.Unmarshal(decoded, &payload); err != nil {
		return nil, fmt.Errorf("failed to deserialize project payload: %w", err)
	}

	outcome := &LoadOutcome{Payload: payload, Version: version}
	if payload.ImagePath != "" && payload.ImageCRC32 != 0 {
		imagePath := payload.ImagePath
		if !filepath.IsAbs(imagePath) {
			imagePath = filepath.Join(filepath.Dir(path), imagePath)
		}
		crc, err := ComputeImageCRC32(imagePath)
		switch {
		case err != nil:
			outcome.Warnings = append(outcome.Warnings,
				fmt.Sprintf("referenced image %s could not be read", payload.ImagePath))
		case crc != payload.ImageCRC32:
			outcome.Warnings = append(outcome.Warnings,
				fmt.Sprintf("image %s changed since the project was saved", payload.ImagePath))
		}
	}
	return outcome, nil
}

// ComputeImageCRC32 checksums an image file's bytes.
func ComputeImageCRC32(path string) (uint32, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open image for checksum: %w", err)
	}
	defer file.Close()

	hasher := crc32.NewIEEE()
	if _, err := io.Copy(hasher, file); err != nil {
		return 0, fmt.Errorf("failed to checksum image: %w", err)
	}
	return hasher.Sum32(), nil
}

// writeAtomic writes data to a temp file in the target directory and
// renames it over the destination.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".project-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp project file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp project file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp project file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace project file: %w", err)
	}
	return nil
}
