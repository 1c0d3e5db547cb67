package ingest

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/jbustamante27/Fitness-AI-agent/internal/domain"
)

// Format identifies a supported activity file format.
type Format string

const (
	FormatCSV Format = "csv"
	FormatFIT Format = "fit"
)

// ErrUnknownFormat reports a file whose extension maps to no parser.
var ErrUnknownFormat = errors.New("unsupported activity file format")

// DetectFormat infers the format from a file name's extension,
// case-insensitively.
func DetectFormat(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return FormatCSV, nil
	case ".fit":
		return FormatFIT, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// ParseFile routes the reader to the parser matching the file name.
func ParseFile(name string, r io.Reader, defaultUnit string) ([]domain.Run, error) {
	format, err := DetectFormat(name)
	if err != nil {
		return nil, err
	}
	if format == FormatFIT {
		return ParseFIT(r)
	}
	return ParseCSV(r, defaultUnit)
}
