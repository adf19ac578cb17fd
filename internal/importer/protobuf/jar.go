package protobuf

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"

	"contractkit/internal/core"
)

// extractProtoFromJAR pulls every *.proto entry out of a JAR/ZIP archive,
// optionally restricting to entries whose content contains the literal
// substring "message <name>", and concatenates them with blank-line
// separators into one source unit (spec.md §4.4.2's JAR ingestion rule).
func extractProtoFromJAR(data []byte, messageNameFilter string) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &core.ParseError{Format: "protobuf", Detail: "jar is not a valid zip archive", Err: err}
	}

	var needle string
	if messageNameFilter != "" {
		needle = "message " + messageNameFilter
	}

	var parts []string
	for _, f := range zr.File {
		if !strings.HasSuffix(f.Name, ".proto") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", &core.ParseError{Format: "protobuf", Detail: "opening " + f.Name, Err: err}
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", &core.ParseError{Format: "protobuf", Detail: "reading " + f.Name, Err: err}
		}
		if needle != "" && !strings.Contains(string(content), needle) {
			continue
		}
		parts = append(parts, string(content))
	}

	if len(parts) == 0 {
		return "", &core.ParseError{Format: "protobuf", Detail: "jar contained no matching .proto entries"}
	}

	return strings.Join(parts, "\n\n"), nil
}
