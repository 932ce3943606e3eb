package catalog

import (
	"regexp"
	"strconv"
)

var versionPrefix = regexp.MustCompile(`^[vV]?(\d+)(?:\.(\d+))?`)

// ParseCompatibility derives a "<major>.<minor>+" floor from a tag name.
// A missing minor component counts as 0.
func ParseCompatibility(tag string) (string, bool) {
	m := versionPrefix.FindStringSubmatch(tag)
	if m == nil {
		return "", false
	}
	major, err := strconv.Atoi(m[1])
	if err != nil {
		return "", false
	}
	minor := 0
	if m[2] != "" {
		if minor, err = strconv.Atoi(m[2]); err != nil {
			return "", false
		}
	}
	return strconv.Itoa(major) + "." + strconv.Itoa(minor) + "+", true
}
