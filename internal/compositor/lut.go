package compositor

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// LUT is a 3D color lookup table loaded from an Adobe .cube file.
type LUT struct {
	Title     string
	Size      int
	DomainMin RGB
	DomainMax RGB
	// Intensity mixes the looked-up color with the input, 0..1.
	Intensity float64

	// table is indexed r + g*Size + b*Size*Size.
	table []RGB
}

// LoadCube reads a .cube file.
func LoadCube(path string) (*LUT, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open lut: %w", err)
	}
	defer f.Close()

	lut, err := ParseCube(f)
	if err != nil {
		return nil, fmt.Errorf("parse lut %s: %w", path, err)
	}
	return lut, nil
}

// ParseCube parses the .cube text format. Only 3D tables are supported.
func ParseCube(r io.Reader) (*LUT, error) {
	lut := &LUT{DomainMax: RGB{1, 1, 1}, Intensity: 1}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		fields := strings.Fields(s)
		switch fields[0] {
		case "TITLE":
			lut.Title = strings.Trim(strings.TrimSpace(strings.TrimPrefix(s, "TITLE")), `"`)
			continue
		case "LUT_1D_SIZE":
			return nil, fmt.Errorf("line %d: 1D LUTs are not supported", line)
		case "LUT_3D_SIZE":
			if len(fields) != 2 {
				return nil, fmt.Errorf("line %d: malformed LUT_3D_SIZE", line)
			}
			n, err := strconv.Atoi(fields[1])
			if err != nil || n < 2 || n > 256 {
				return nil, fmt.Errorf("line %d: invalid LUT_3D_SIZE %q", line, fields[1])
			}
			lut.Size = n
			lut.table = make([]RGB, 0, n*n*n)
			continue
		case "DOMAIN_MIN", "DOMAIN_MAX":
			c, err := parseTriple(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			if fields[0] == "DOMAIN_MIN" {
				lut.DomainMin = c
			} else {
				lut.DomainMax = c
			}
			continue
		}

		if lut.Size == 0 {
			return nil, fmt.Errorf("line %d: table data before LUT_3D_SIZE", line)
		}
		c, err := parseTriple(fields)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		lut.table = append(lut.table, c)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if lut.Size == 0 {
		return nil, fmt.Errorf("missing LUT_3D_SIZE")
	}
	if want := lut.Size * lut.Size * lut.Size; len(lut.table) != want {
		return nil, fmt.Errorf("expected %d entries, got %d", want, len(lut.table))
	}
	return lut, nil
}

func parseTriple(fields []string) (RGB, error) {
	if len(fields) != 3 {
		return RGB{}, fmt.Errorf("expected 3 values, got %d", len(fields))
	}
	var v [3]float64
	for i, f := range fields {
		x, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return RGB{}, err
		}
		v[i] = x
	}
	return RGB{v[0], v[1], v[2]}, nil
}

// Apply looks c up with trilinear interpolation and mixes by Intensity.
func (l *LUT) Apply(c RGB) RGB {
	if l.Size == 0 || l.Intensity <= 0 {
		return c
	}
	n := float64(l.Size - 1)
	fr := normDomain(c.R, l.DomainMin.R, l.DomainMax.R) * n
	fg := normDomain(c.G, l.DomainMin.G, l.DomainMax.G) * n
	fb := normDomain(c.B, l.DomainMin.B, l.DomainMax.B) * n

	r0, g0, b0 := int(math.Floor(fr)), int(math.Floor(fg)), int(math.Floor(fb))
	r1, g1, b1 := min(r0+1, l.Size-1), min(g0+1, l.Size-1), min(b0+1, l.Size-1)
	dr, dg, db := fr-float64(r0), fg-float64(g0), fb-float64(b0)

	c00 := lerpRGB(l.at(r0, g0, b0), l.at(r1, g0, b0), dr)
	c10 := lerpRGB(l.at(r0, g1, b0), l.at(r1, g1, b0), dr)
	c01 := lerpRGB(l.at(r0, g0, b1), l.at(r1, g0, b1), dr)
	c11 := lerpRGB(l.at(r0, g1, b1), l.at(r1, g1, b1), dr)
	out := lerpRGB(lerpRGB(c00, c10, dg), lerpRGB(c01, c11, dg), db)

	return lerpRGB(c, out, math.Min(l.Intensity, 1))
}

func (l *LUT) at(r, g, b int) RGB {
	return l.table[r+g*l.Size+b*l.Size*l.Size]
}

func normDomain(v, lo, hi float64) float64 {
	if hi <= lo {
		return clamp01(v)
	}
	return clamp01((v - lo) / (hi - lo))
}

func lerpRGB(a, b RGB, t float64) RGB {
	return RGB{a.R + (b.R-a.R)*t, a.G + (b.G-a.G)*t, a.B + (b.B-a.B)*t}
}
