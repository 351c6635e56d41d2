package ply

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Encode writes a file at path from verbatim header lines and a pre-built
// binary body. The element vertex line is rewritten with vertexCount, and a
// non-empty extraComment is written as a comment line immediately before the
// end_header terminator. Every other header line is carried through
// untouched, so decode followed by encode reproduces the source header apart
// from those two edits.
//
// body must hold exactly vertexCount × RECORD_SIZE bytes. On write failure
// the destination may be left partially written.
func Encode(path string, hdr *Header, vertexCount int, body []byte, extraComment string) error {
	if vertexCount < 0 {
		return fmt.Errorf("negative vertex count %d", vertexCount)
	}
	if len(body) != vertexCount*RECORD_SIZE {
		return fmt.Errorf("body size mismatch: %d vertices need %d bytes, got %d",
			vertexCount, vertexCount*RECORD_SIZE, len(body))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	wroteVertex := false
	wroteEnd := false
	for _, line := range hdr.Lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == HEADER_TERMINATOR:
			if extraComment != "" {
				fmt.Fprintf(w, "%s %s\n", COMMENT_KEYWORD, extraComment)
			}
			fmt.Fprintln(w, line)
			wroteEnd = true
		case !wroteVertex && isVertexElement(trimmed):
			fmt.Fprintf(w, "%s %d\n", VERTEX_ELEMENT, vertexCount)
			wroteVertex = true
		default:
			fmt.Fprintln(w, line)
		}
		if wroteEnd {
			break
		}
	}
	if !wroteVertex {
		return fmt.Errorf("header has no %s line to rewrite", VERTEX_ELEMENT)
	}
	if !wroteEnd {
		return fmt.Errorf("header has no %s terminator", HEADER_TERMINATOR)
	}

	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("write body of %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return nil
}

func isVertexElement(trimmed string) bool {
	fields := strings.Fields(trimmed)
	return len(fields) >= 3 && fields[0] == "element" && fields[1] == "vertex"
}
