// Package ply reads and writes the fixed-layout PLY files produced by the
// motion capture exporter. Each file is an ASCII header terminated by an
// end_header line, followed by a binary body of little-endian 27-byte vertex
// records. Only this one layout is supported: general PLY (schema-driven
// properties, ASCII bodies, big-endian) is out of scope.
package ply

import (
	"encoding/binary"
	"fmt"
	"math"
)

/*
Exporter PLY File Layout

HEADER (ASCII, newline-terminated lines):
├── ply / format / property lines  - carried verbatim, never interpreted
├── element vertex N               - the only line the codec rewrites
├── comment <payload>              - may carry recognised metadata markers
└── end_header                     - terminator; binary body starts after it

BODY (binary, N × 27 bytes, little-endian):
├── position  - 3 × float32 (bytes 0-11)   capture-space metres
├── color     - 3 × uint8   (bytes 12-14)  0-255 per channel
└── velocity  - 3 × float32 (bytes 15-26)  capture-space metres/second

Comment payloads the decoder recognises (all optional, all non-fatal when
malformed):
  torso_7_global_position: <x> <y> <z>   three floats
  PointCloudFrame: <n>                   integer
  BvhFrame: <n>                          integer
  camera_data: <json>                    opaque, carried through untouched
*/

// Vertex record layout constants. These define the fixed binary body format
// written by the capture exporter.
const (
	RECORD_SIZE     = 27 // Total bytes per vertex record
	POSITION_OFFSET = 0  // x,y,z float32 little-endian (bytes 0-11)
	COLOR_OFFSET    = 12 // r,g,b uint8 (bytes 12-14)
	VELOCITY_OFFSET = 15 // vx,vy,vz float32 little-endian (bytes 15-26)

	HEADER_TERMINATOR = "end_header"     // Last header line; body starts immediately after
	VERTEX_ELEMENT    = "element vertex" // Prefix of the vertex count declaration
	COMMENT_KEYWORD   = "comment"        // Prefix of free-form header comment lines

	// Metadata markers recognised inside comment payloads
	TORSO_POSITION_MARKER = "torso_7_global_position:"
	CLOUD_FRAME_MARKER    = "PointCloudFrame:"
	BVH_FRAME_MARKER      = "BvhFrame:"
	CAMERA_DATA_MARKER    = "camera_data:"

	// MAX_HEADER_BYTES bounds the header scan so a binary file handed to the
	// decoder by mistake fails fast instead of being consumed to EOF.
	MAX_HEADER_BYTES = 1 << 20
)

// Record is one decoded vertex: capture-space position, 8-bit color and
// capture-space velocity. Field order matches the on-disk layout.
type Record struct {
	X, Y, Z    float32 // Position in metres
	R, G, B    uint8   // Color channels, 0-255
	VX, VY, VZ float32 // Velocity in metres/second
}

// Speed returns the velocity magnitude in metres/second.
func (r Record) Speed() float64 {
	vx, vy, vz := float64(r.VX), float64(r.VY), float64(r.VZ)
	return math.Sqrt(vx*vx + vy*vy + vz*vz)
}

// Metadata holds the recognised comment payloads from a file header. Fields
// are pointers so absent keys are distinguishable from zero values; payloads
// that fail to parse leave their field nil rather than failing the decode.
// Comments carries every comment payload verbatim (recognised or not) so
// re-encoding preserves markers the codec does not interpret, camera_data
// included.
type Metadata struct {
	TorsoPosition   *[3]float64 // torso_7_global_position: three floats
	PointCloudFrame *int        // PointCloudFrame: integer
	BvhFrame        *int        // BvhFrame: integer
	Comments        []string    // All comment payloads in header order
}

// Header is the decoded ASCII header of one file. Lines carries every header
// line verbatim (end_header included) so an encode can reproduce the header
// byte-for-byte apart from the fields it intentionally rewrites.
type Header struct {
	Lines       []string // Verbatim header lines in file order, EOL stripped
	VertexCount int      // N from the element vertex line
	Meta        Metadata // Recognised comment metadata
	DataOffset  int64    // Byte offset of the binary body within the file
}

// Cloud is one fully decoded point cloud file.
type Cloud struct {
	Header  Header
	Records []Record
}

// UnmarshalRecord decodes a single 27-byte vertex record.
func UnmarshalRecord(data []byte) (Record, error) {
	if len(data) < RECORD_SIZE {
		return Record{}, fmt.Errorf("short vertex record: expected %d bytes, got %d", RECORD_SIZE, len(data))
	}
	return decodeRecord(data), nil
}

// decodeRecord decodes one record from data, which must hold at least
// RECORD_SIZE bytes. Float fields are reinterpreted bit-for-bit so a
// marshal round trip reproduces the source bytes exactly.
func decodeRecord(data []byte) Record {
	return Record{
		X:  math.Float32frombits(binary.LittleEndian.Uint32(data[0:4])),
		Y:  math.Float32frombits(binary.LittleEndian.Uint32(data[4:8])),
		Z:  math.Float32frombits(binary.LittleEndian.Uint32(data[8:12])),
		R:  data[12],
		G:  data[13],
		B:  data[14],
		VX: math.Float32frombits(binary.LittleEndian.Uint32(data[15:19])),
		VY: math.Float32frombits(binary.LittleEndian.Uint32(data[19:23])),
		VZ: math.Float32frombits(binary.LittleEndian.Uint32(data[23:27])),
	}
}

// AppendRecord appends the 27-byte encoding of r to dst and returns the
// extended slice.
func AppendRecord(dst []byte, r Record) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(r.X))
	dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(r.Y))
	dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(r.Z))
	dst = append(dst, r.R, r.G, r.B)
	dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(r.VX))
	dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(r.VY))
	dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(r.VZ))
	return dst
}

// DecodeRecords decodes count records from body, which must hold exactly
// count × RECORD_SIZE bytes.
func DecodeRecords(body []byte, count int) ([]Record, error) {
	if len(body) != count*RECORD_SIZE {
		return nil, fmt.Errorf("body size mismatch: expected %d bytes for %d records, got %d",
			count*RECORD_SIZE, count, len(body))
	}
	records := make([]Record, count)
	for i := 0; i < count; i++ {
		records[i] = decodeRecord(body[i*RECORD_SIZE:])
	}
	return records, nil
}
