package domain

import (
	"regexp"
	"strconv"
	"strings"

	"go.trai.ch/zerr"
)

// versionBumpPattern accepts a named bump or an explicit one to three part version.
var versionBumpPattern = regexp.MustCompile(`^(major|minor|patch|\d+(\.\d+(\.\d+)?)?)$`)

// IsValidVersionBump reports whether bump can be passed to BumpVersion.
func IsValidVersionBump(bump string) bool {
	return versionBumpPattern.MatchString(bump)
}

// BumpVersion applies bump to version.
//
// "major", "minor" and "patch" increment that part of version and zero the parts after it.
// An explicit version replaces it, with missing parts filled by zeros.
func BumpVersion(version, bump string) (string, error) {
	if !IsValidVersionBump(bump) {
		return "", zerr.With(zerr.Wrap(ErrInvalidVersionBump, "expected major, minor, patch or N[.N[.N]]"), "bump", bump)
	}

	switch bump {
	case "major", "minor", "patch":
	default:
		switch strings.Count(bump, ".") {
		case 0:
			return bump + ".0.0", nil
		case 1:
			return bump + ".0", nil
		default:
			return bump, nil
		}
	}

	parts := strings.Split(version, ".")
	need := map[string]int{"major": 1, "minor": 2, "patch": 3}[bump]
	if len(parts) < need {
		return "", zerr.With(zerr.With(zerr.Wrap(ErrInvalidVersion, "version has too few parts"), "version", version), "bump", bump)
	}

	part, err := leadingInt(parts[need-1])
	if err != nil {
		return "", zerr.With(zerr.With(zerr.Wrap(ErrInvalidVersion, "version part is not a number"), "version", version), "bump", bump)
	}

	switch bump {
	case "major":
		return strconv.Itoa(part+1) + ".0.0", nil
	case "minor":
		return parts[0] + "." + strconv.Itoa(part+1) + ".0", nil
	default:
		return parts[0] + "." + parts[1] + "." + strconv.Itoa(part+1), nil
	}
}

// leadingInt parses the decimal digits at the start of s, so "3-beta.1" yields 3.
func leadingInt(s string) (int, error) {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return strconv.Atoi(s[:end])
}
