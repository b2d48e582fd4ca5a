// Copyright 2024 The OSS Rebuild Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package semver parses and orders Semantic Versioning 2.0.0 versions as Cargo accepts them.
package semver

import (
	"cmp"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Semver is a parsed version. Numeric components are kept as uint64 to match
// the range Cargo accepts.
type Semver struct {
	Major      uint64
	Minor      uint64
	Patch      uint64
	Prerelease string
	Build      string
}

// Adapted from: https://semver.org/spec/v2.0.0#is-there-a-suggested-regular-expression-regex-to-check-a-semver-string
// Unlike Go module versions, Cargo does not accept a leading "v".
var semverRE = regexp.MustCompile(`^(?P<Major>0|[1-9]\d*)\.(?P<Minor>0|[1-9]\d*)\.(?P<Patch>0|[1-9]\d*)(?:-(?P<Prerelease>(?:0|[1-9]\d*|\d*[a-zA-Z-][0-9a-zA-Z-]*)(?:\.(?:0|[1-9]\d*|\d*[a-zA-Z-][0-9a-zA-Z-]*))*))?(?:\+(?P<Build>[0-9a-zA-Z-]+(?:\.[0-9a-zA-Z-]+)*))?$`)

// Parse parses s as a strict semantic version.
func Parse(s string) (Semver, error) {
	matches := semverRE.FindStringSubmatch(s)
	if matches == nil {
		return Semver{}, errors.Errorf("invalid semver %q", s)
	}
	var nums [3]uint64
	for i, name := range []string{"Major", "Minor", "Patch"} {
		n, err := strconv.ParseUint(matches[semverRE.SubexpIndex(name)], 10, 64)
		if err != nil {
			return Semver{}, errors.Wrapf(err, "parsing %s component of %q", strings.ToLower(name), s)
		}
		nums[i] = n
	}
	return Semver{
		Major:      nums[0],
		Minor:      nums[1],
		Patch:      nums[2],
		Prerelease: matches[semverRE.SubexpIndex("Prerelease")],
		Build:      matches[semverRE.SubexpIndex("Build")],
	}, nil
}

func (v Semver) String() string {
	var b strings.Builder
	b.WriteString(strconv.FormatUint(v.Major, 10))
	b.WriteByte('.')
	b.WriteString(strconv.FormatUint(v.Minor, 10))
	b.WriteByte('.')
	b.WriteString(strconv.FormatUint(v.Patch, 10))
	if v.Prerelease != "" {
		b.WriteByte('-')
		b.WriteString(v.Prerelease)
	}
	if v.Build != "" {
		b.WriteByte('+')
		b.WriteString(v.Build)
	}
	return b.String()
}

// Compare returns -1, 0, or 1 comparing a to b.
//
// Precedence follows SemVer 2.0: a prerelease sorts below its release. Build
// metadata carries no precedence but is compared last so that the order is
// total: no metadata sorts first, then identifiers compare as for prereleases.
func Compare(a, b Semver) int {
	switch {
	case a.Major != b.Major:
		return cmp.Compare(a.Major, b.Major)
	case a.Minor != b.Minor:
		return cmp.Compare(a.Minor, b.Minor)
	case a.Patch != b.Patch:
		return cmp.Compare(a.Patch, b.Patch)
	}
	if c := comparePrerelease(a.Prerelease, b.Prerelease); c != 0 {
		return c
	}
	return compareBuild(a.Build, b.Build)
}

func comparePrerelease(a, b string) int {
	switch {
	case a == b:
		return 0
	case a == "":
		return 1
	case b == "":
		return -1
	}
	return compareIdentifiers(a, b)
}

func compareBuild(a, b string) int {
	switch {
	case a == b:
		return 0
	case a == "":
		return -1
	case b == "":
		return 1
	}
	return compareIdentifiers(a, b)
}

// compareIdentifiers compares dot-separated identifier lists. Numeric
// identifiers compare numerically and sort below alphanumeric ones, which
// compare in ASCII order. A shorter list sorts first when it is a prefix.
func compareIdentifiers(a, b string) int {
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < min(len(as), len(bs)); i++ {
		if c := compareIdentifier(as[i], bs[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(as), len(bs))
}

func compareIdentifier(a, b string) int {
	aNumeric, bNumeric := isNumeric(a), isNumeric(b)
	switch {
	case aNumeric && bNumeric:
		// Compare by magnitude without parsing so that overlong identifiers
		// still order correctly. Leading zeros (legal in build metadata) only
		// break ties.
		at, bt := strings.TrimLeft(a, "0"), strings.TrimLeft(b, "0")
		if c := cmp.Compare(len(at), len(bt)); c != 0 {
			return c
		}
		if c := strings.Compare(at, bt); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	case aNumeric:
		return -1
	case bNumeric:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
