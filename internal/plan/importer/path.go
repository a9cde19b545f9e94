package importer

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"floorplan/internal/plan/models"
)

// ============================================================
// Path Parser
// ============================================================

var (
	errEmptyPath = errors.New("empty path")

	commandRe = regexp.MustCompile(`([MmLlHhVvZz])([^MmLlHhVvZz]*)`)
	numberRe  = regexp.MustCompile(`[-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?`)
)

// ParsePath reads the straight-line subset of SVG path data (M, L, H, V, Z
// in absolute and relative form) into a point list. Extra coordinate pairs
// after M or L continue as line-to. Z repeats the subpath's first point.
func ParsePath(d string) ([]models.Point, error) {
	d = strings.TrimSpace(d)
	if d == "" {
		return nil, errEmptyPath
	}

	var points []models.Point
	var cur, start models.Point

	for _, match := range commandRe.FindAllStringSubmatch(d, -1) {
		cmd := match[1]
		args := parseCoords(match[2])
		relative := strings.ToLower(cmd) == cmd

		switch strings.ToUpper(cmd) {
		case "M", "L":
			for i := 0; i+1 < len(args); i += 2 {
				if relative {
					cur = models.Point{X: cur.X + args[i], Y: cur.Y + args[i+1]}
				} else {
					cur = models.Point{X: args[i], Y: args[i+1]}
				}
				if i == 0 && strings.ToUpper(cmd) == "M" {
					start = cur
				}
				points = append(points, cur)
			}

		case "H":
			for _, x := range args {
				if relative {
					cur.X += x
				} else {
					cur.X = x
				}
				points = append(points, cur)
			}

		case "V":
			for _, y := range args {
				if relative {
					cur.Y += y
				} else {
					cur.Y = y
				}
				points = append(points, cur)
			}

		case "Z":
			if len(points) > 0 {
				cur = start
				points = append(points, start)
			}
		}
	}

	return points, nil
}

func parseCoords(s string) []float64 {
	var coords []float64
	for _, part := range numberRe.FindAllString(s, -1) {
		if val, err := strconv.ParseFloat(part, 64); err == nil {
			coords = append(coords, val)
		}
	}
	return coords
}
