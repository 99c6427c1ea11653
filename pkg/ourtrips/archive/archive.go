// Package archive serializes a complete trip for export: JSON and
// MessagePack for machines, DOCX for people.
package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/himanishpuri/ourtrips/pkg/models"
)

// Version is bumped whenever the archive layout changes.
const Version = 1

type Format string

const (
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
	FormatDOCX    Format = "docx"
)

// ParseFormat accepts the names used on the CLI and HTTP API.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "msgpack", "mp":
		return FormatMsgpack, nil
	case "docx":
		return FormatDOCX, nil
	}
	return "", fmt.Errorf("unknown archive format %q", s)
}

// ContentType is the MIME type served for a format.
func (f Format) ContentType() string {
	switch f {
	case FormatMsgpack:
		return "application/msgpack"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "application/json"
	}
}

// Trip is a self-contained snapshot. Plans are in chronological order.
type Trip struct {
	Version    int                   `json:"version" msgpack:"version"`
	ExportedAt int64                 `json:"exported_at_ms" msgpack:"exported_at_ms"`
	Trip       models.Trip           `json:"trip" msgpack:"trip"`
	Plans      []models.Plan         `json:"plans" msgpack:"plans"`
	Locations  []models.TripLocation `json:"locations" msgpack:"locations"`
	Photos     []models.Photo        `json:"photos" msgpack:"photos"`
}

// Encode writes t to w. DOCX needs a file path; use SaveDOCX for it.
func Encode(w io.Writer, f Format, t *Trip) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(t); err != nil {
			return fmt.Errorf("encoding json archive: %w", err)
		}
		return nil
	case FormatMsgpack:
		if err := msgpack.NewEncoder(w).Encode(t); err != nil {
			return fmt.Errorf("encoding msgpack archive: %w", err)
		}
		return nil
	}
	return fmt.Errorf("format %s cannot be streamed", f)
}

// Decode reads an archive written by Encode.
func Decode(r io.Reader, f Format) (*Trip, error) {
	var t Trip
	switch f {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&t); err != nil {
			return nil, fmt.Errorf("decoding json archive: %w", err)
		}
	case FormatMsgpack:
		if err := msgpack.NewDecoder(r).Decode(&t); err != nil {
			return nil, fmt.Errorf("decoding msgpack archive: %w", err)
		}
	default:
		return nil, fmt.Errorf("format %s cannot be decoded", f)
	}
	if t.Version != Version {
		return nil, fmt.Errorf("unsupported archive version %d", t.Version)
	}
	return &t, nil
}
