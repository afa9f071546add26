package job

import (
	"regexp"
	"strings"
)

var framePattern = regexp.MustCompile(`\.([0-9]+)`)

// PadFramePath rewrites a rendered file name so Deadline can group output
// frames: the last dot-delimited run of digits becomes an equal-width run
// of '#'. Names with no frame number come back unchanged.
//
//	render.0101.exr -> render.####.exr
//	render.exr      -> render.exr
func PadFramePath(name string) string {
	matches := framePattern.FindAllStringSubmatchIndex(name, -1)
	if len(matches) == 0 {
		return name
	}
	last := matches[len(matches)-1]
	start, end := last[2], last[3]
	return name[:start] + strings.Repeat("#", end-start) + name[end:]
}
