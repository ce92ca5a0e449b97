// Package stl reads and writes the single serialization the engine speaks:
// a well-formed triangulated solid in STL form. Binary STL is written;
// both binary and ASCII are accepted on read. Parsing produces the raw
// vertex/face arrays that mesh.Load validates — this package does no
// geometric checking of its own.
package stl

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"strconv"
	"strings"

	vec3 "github.com/flywave/go3d/float64/vec3"
	"github.com/pkg/errors"

	"github.com/chazu/voronoimaker/pkg/mesh"
)

const binaryHeaderSize = 80

// weldEpsilon merges the per-facet duplicate corners an STL file stores into
// shared indexed vertices.
const weldEpsilon = 1e-9

// Read parses an STL stream and returns indexed vertex/face arrays. The
// facet soup is welded so that shared corners map to one vertex, ready for
// mesh.Load.
func Read(r io.Reader) ([]vec3.T, [][3]int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, errors.Wrap(err, "stl: read")
	}
	if looksASCII(data) {
		return readASCII(data)
	}
	return readBinary(data)
}

// Write serializes a mesh as binary STL.
func Write(w io.Writer, m *mesh.Mesh) error {
	bw := bufio.NewWriter(w)

	var header [binaryHeaderSize]byte
	copy(header[:], "voronoimaker binary STL")
	if _, err := bw.Write(header[:]); err != nil {
		return errors.Wrap(err, "stl: write header")
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(m.FaceCount())); err != nil {
		return errors.Wrap(err, "stl: write count")
	}

	var rec [50]byte
	for i := 0; i < m.FaceCount(); i++ {
		f := m.Face(i)
		n := m.FaceNormal(i)
		l := n.Length()
		if l > 1e-30 {
			n.Scale(1 / l)
		}
		putVec(rec[0:], n)
		putVec(rec[12:], m.Vertex(f[0]))
		putVec(rec[24:], m.Vertex(f[1]))
		putVec(rec[36:], m.Vertex(f[2]))
		rec[48], rec[49] = 0, 0
		if _, err := bw.Write(rec[:]); err != nil {
			return errors.Wrapf(err, "stl: write facet %d", i)
		}
	}
	return errors.Wrap(bw.Flush(), "stl: flush")
}

func putVec(dst []byte, v vec3.T) {
	binary.LittleEndian.PutUint32(dst[0:], math.Float32bits(float32(v[0])))
	binary.LittleEndian.PutUint32(dst[4:], math.Float32bits(float32(v[1])))
	binary.LittleEndian.PutUint32(dst[8:], math.Float32bits(float32(v[2])))
}

func getVec(src []byte) vec3.T {
	return vec3.T{
		float64(math.Float32frombits(binary.LittleEndian.Uint32(src[0:]))),
		float64(math.Float32frombits(binary.LittleEndian.Uint32(src[4:]))),
		float64(math.Float32frombits(binary.LittleEndian.Uint32(src[8:]))),
	}
}

// looksASCII detects the ASCII variant. A binary file may also begin with
// "solid", so the body is checked for a facet keyword.
func looksASCII(data []byte) bool {
	if !bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("solid")) {
		return false
	}
	probe := data
	if len(probe) > 1024 {
		probe = probe[:1024]
	}
	return bytes.Contains(probe, []byte("facet"))
}

func readBinary(data []byte) ([]vec3.T, [][3]int, error) {
	if len(data) < binaryHeaderSize+4 {
		return nil, nil, errors.New("stl: truncated binary header")
	}
	count := binary.LittleEndian.Uint32(data[binaryHeaderSize:])
	body := data[binaryHeaderSize+4:]
	if uint64(len(body)) < uint64(count)*50 {
		return nil, nil, errors.Errorf("stl: %d facets declared but body holds %d bytes", count, len(body))
	}

	soup := make([][3]vec3.T, 0, count)
	for i := uint32(0); i < count; i++ {
		rec := body[i*50:]
		soup = append(soup, [3]vec3.T{getVec(rec[12:]), getVec(rec[24:]), getVec(rec[36:])})
	}
	return weld(soup)
}

func readASCII(data []byte) ([]vec3.T, [][3]int, error) {
	var soup [][3]vec3.T
	var tri [3]vec3.T
	corner := 0

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || fields[0] != "vertex" {
			continue
		}
		if len(fields) != 4 {
			return nil, nil, errors.Errorf("stl: malformed vertex on line %d", line)
		}
		var v vec3.T
		for i := 0; i < 3; i++ {
			val, err := strconv.ParseFloat(fields[i+1], 64)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "stl: vertex on line %d", line)
			}
			v[i] = val
		}
		tri[corner] = v
		corner++
		if corner == 3 {
			soup = append(soup, tri)
			corner = 0
		}
	}
	if err := sc.Err(); err != nil {
		return nil, nil, errors.Wrap(err, "stl: scan")
	}
	if corner != 0 {
		return nil, nil, errors.New("stl: facet with incomplete vertex list")
	}
	if len(soup) == 0 {
		return nil, nil, errors.New("stl: no facets found")
	}
	return weld(soup)
}

func weld(soup [][3]vec3.T) ([]vec3.T, [][3]int, error) {
	if len(soup) == 0 {
		return nil, nil, errors.New("stl: no facets found")
	}
	type key [3]int64
	quantize := func(v vec3.T) key {
		var k key
		for i := 0; i < 3; i++ {
			k[i] = int64(math.Round(v[i] / weldEpsilon))
		}
		return k
	}

	index := make(map[key]int, len(soup))
	var vertices []vec3.T
	faces := make([][3]int, 0, len(soup))
	for _, tri := range soup {
		var f [3]int
		for i, p := range tri {
			k := quantize(p)
			j, ok := index[k]
			if !ok {
				j = len(vertices)
				index[k] = j
				vertices = append(vertices, p)
			}
			f[i] = j
		}
		faces = append(faces, f)
	}
	return vertices, faces, nil
}
