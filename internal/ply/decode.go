package ply

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"
)

// DecodeHeader reads and parses the ASCII header of the file at path without
// touching the binary body. This is the cheap path for callers that only need
// the vertex count or metadata, and for body reads driven by record offsets.
func DecodeHeader(path string) (*Header, error) {
	f, err := openCloud(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return readHeader(bufio.NewReader(f), path)
}

// Decode reads the complete file at path: header plus exactly
// VertexCount × RECORD_SIZE body bytes. Trailing bytes beyond the declared
// body are ignored.
func Decode(path string) (*Cloud, error) {
	f, err := openCloud(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	hdr, err := readHeader(br, path)
	if err != nil {
		return nil, err
	}

	need := int64(hdr.VertexCount) * RECORD_SIZE
	// Check the body size up front so a bad vertex count fails before the
	// allocation rather than after reading the file to EOF.
	if fi, err := f.Stat(); err == nil {
		if got := fi.Size() - hdr.DataOffset; got < need {
			return nil, fmt.Errorf("%s: expected %d body bytes for %d vertices, got %d: %w",
				path, need, hdr.VertexCount, got, ErrTruncated)
		}
	}

	body := make([]byte, need)
	if _, err := io.ReadFull(br, body); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("%s: short body for %d vertices: %w", path, hdr.VertexCount, ErrTruncated)
		}
		return nil, fmt.Errorf("read body of %s: %w", path, err)
	}

	records, err := DecodeRecords(body, hdr.VertexCount)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &Cloud{Header: *hdr, Records: records}, nil
}

// openCloud opens path for reading, mapping a missing file onto ErrNotFound.
func openCloud(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("open point cloud: %w", err)
	}
	return f, nil
}

// readHeader consumes ASCII lines from br up to and including the end_header
// terminator, tracking the byte offset where the binary body begins.
func readHeader(br *bufio.Reader, path string) (*Header, error) {
	hdr := &Header{}
	var offset int64
	vertexSeen := false

	for {
		if offset > MAX_HEADER_BYTES {
			return nil, fmt.Errorf("%s: no %s within %d bytes: %w", path, HEADER_TERMINATOR, MAX_HEADER_BYTES, ErrFormat)
		}

		line, err := br.ReadString('\n')
		offset += int64(len(line))

		if len(line) > 0 {
			stored := strings.TrimRight(line, "\r\n")
			hdr.Lines = append(hdr.Lines, stored)
			trimmed := strings.TrimSpace(stored)

			switch {
			case trimmed == HEADER_TERMINATOR:
				if !vertexSeen {
					return nil, fmt.Errorf("%s: missing %s declaration: %w", path, VERTEX_ELEMENT, ErrFormat)
				}
				if hdr.VertexCount == 0 {
					return nil, fmt.Errorf("%s: %w", path, ErrEmptyCloud)
				}
				hdr.DataOffset = offset
				return hdr, nil

			case !vertexSeen && strings.HasPrefix(trimmed, "element"):
				fields := strings.Fields(trimmed)
				if len(fields) >= 3 && fields[1] == "vertex" {
					n, err := strconv.Atoi(fields[2])
					if err != nil || n < 0 || n > math.MaxInt32 {
						return nil, fmt.Errorf("%s: bad vertex count %q: %w", path, fields[2], ErrFormat)
					}
					hdr.VertexCount = n
					vertexSeen = true
				}

			case strings.HasPrefix(trimmed, COMMENT_KEYWORD):
				payload := strings.TrimSpace(trimmed[len(COMMENT_KEYWORD):])
				hdr.Meta.Comments = append(hdr.Meta.Comments, payload)
				parseCommentMarkers(&hdr.Meta, payload)
			}
		}

		if err != nil {
			if err == io.EOF {
				return nil, fmt.Errorf("%s: missing %s terminator: %w", path, HEADER_TERMINATOR, ErrFormat)
			}
			return nil, fmt.Errorf("read header of %s: %w", path, err)
		}
	}
}

// parseCommentMarkers extracts recognised metadata markers from one comment
// payload. Malformed payloads leave the corresponding field absent; they
// never fail the decode.
func parseCommentMarkers(meta *Metadata, payload string) {
	if i := strings.Index(payload, TORSO_POSITION_MARKER); i >= 0 {
		fields := strings.Fields(payload[i+len(TORSO_POSITION_MARKER):])
		if len(fields) != 3 {
			return
		}
		var pos [3]float64
		for j, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return
			}
			pos[j] = v
		}
		meta.TorsoPosition = &pos
		return
	}
	if i := strings.Index(payload, CLOUD_FRAME_MARKER); i >= 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(payload[i+len(CLOUD_FRAME_MARKER):])); err == nil {
			meta.PointCloudFrame = &n
		}
		return
	}
	if i := strings.Index(payload, BVH_FRAME_MARKER); i >= 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(payload[i+len(BVH_FRAME_MARKER):])); err == nil {
			meta.BvhFrame = &n
		}
	}
}
