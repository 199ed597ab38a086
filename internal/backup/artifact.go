package backup

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// TimestampLayout is the second-resolution clock stamped into every
// artifact filename; unique per run.
const TimestampLayout = "20060102_150405"

// Category prefixes used in artifact filenames.
var categoryPrefixes = map[string]string{
	"database": "db",
	"data":     "data",
	"config":   "config",
	"volumes":  "vol",
	"logs":     "logs",
}

var prefixCategories = map[string]string{
	"db":     "database",
	"data":   "data",
	"config": "config",
	"vol":    "volumes",
	"logs":   "logs",
}

// Extensions per category; the .gpg marker is appended on top when the
// encryption policy applies.
var categoryExtensions = map[string]string{
	"database": ".sql.gz",
	"data":     ".tar.gz",
	"config":   ".tar.gz",
	"volumes":  ".tar.gz",
	"logs":     ".tar.gz",
}

// ArtifactName builds `{prefix}-{name}-{timestamp}{ext}`.
func ArtifactName(category, name string, ts time.Time) string {
	return fmt.Sprintf("%s-%s-%s%s",
		categoryPrefixes[category], name, ts.Format(TimestampLayout), categoryExtensions[category])
}

// ParsedArtifact is the metadata recoverable from an artifact filename.
type ParsedArtifact struct {
	Category  string
	Name      string
	Timestamp time.Time
	Encrypted bool
}

// ParseArtifactName recovers category, logical name, timestamp and the
// encrypted marker from a filename produced by ArtifactName.
func ParseArtifactName(filename string) (*ParsedArtifact, error) {
	base := filepath.Base(filename)

	encrypted := strings.HasSuffix(base, ".gpg")
	trimmed := strings.TrimSuffix(base, ".gpg")

	var ext string
	for _, e := range []string{".sql.gz", ".tar.gz"} {
		if strings.HasSuffix(trimmed, e) {
			ext = e
			break
		}
	}
	if ext == "" {
		return nil, fmt.Errorf("unrecognized artifact extension: %s", base)
	}
	trimmed = strings.TrimSuffix(trimmed, ext)

	parts := strings.Split(trimmed, "-")
	if len(parts) < 3 {
		return nil, fmt.Errorf("malformed artifact name: %s", base)
	}

	prefix := parts[0]
	category, ok := prefixCategories[prefix]
	if !ok {
		return nil, fmt.Errorf("unknown category prefix %q in %s", prefix, base)
	}

	tsPart := parts[len(parts)-1]
	ts, err := time.ParseInLocation(TimestampLayout, tsPart, time.Local)
	if err != nil {
		return nil, fmt.Errorf("bad timestamp in artifact name %s: %w", base, err)
	}

	return &ParsedArtifact{
		Category:  category,
		Name:      strings.Join(parts[1:len(parts)-1], "-"),
		Timestamp: ts,
		Encrypted: encrypted,
	}, nil
}

// CategoryPrefix exposes the filename prefix for a category.
func CategoryPrefix(category string) string {
	return categoryPrefixes[category]
}
