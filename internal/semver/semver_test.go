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

package semver

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		input    string
		expected Semver
		wantErr  bool
	}{
		{"1.2.3", Semver{1, 2, 3, "", ""}, false},                       // Basic version
		{"0.0.0", Semver{0, 0, 0, "", ""}, false},                       // Zero version
		{"v1.0.0", Semver{}, true},                                      // Leading 'v' is not Cargo syntax
		{"1.2", Semver{}, true},                                         // Missing patch
		{"1", Semver{}, true},                                           // Missing minor and patch
		{"01.2.3", Semver{}, true},                                      // Leading zero
		{"1.2.3-alpha", Semver{1, 2, 3, "alpha", ""}, false},            // Prerelease
		{"1.2.3-alpha.1", Semver{1, 2, 3, "alpha.1", ""}, false},        // Complex prerelease
		{"1.2.3+build", Semver{1, 2, 3, "", "build"}, false},            // Build metadata
		{"1.2.3-alpha+build", Semver{1, 2, 3, "alpha", "build"}, false}, // Both
		{"", Semver{}, true},                                            // Empty string
		{"1.2.x", Semver{}, true},                                       // Non-numeric component
		{"1.2.3-alpha.", Semver{}, true},                                // Empty prerelease
		{"1.2.3+", Semver{}, true},                                      // Empty build metadata
		{"99999999999999999999.0.0", Semver{}, true},                    // Overflow
	}

	for _, tt := range tests {
		actual, err := Parse(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("Parse(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if err == nil && actual != tt.expected {
			t.Errorf("Parse(%q) = %v, expected %v", tt.input, actual, tt.expected)
		}
	}
}

func TestString(t *testing.T) {
	for _, s := range []string{"1.2.3", "0.1.0-rc.1", "1.0.0+build.5", "2.0.0-beta+exp.sha.5114f85"} {
		v, err := Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q): %v", s, err)
		}
		if got := v.String(); got != s {
			t.Errorf("Parse(%q).String() = %q", s, got)
		}
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a        string
		b        string
		expected int
	}{
		{"1.0.0", "1.0.0", 0},                     // Equal
		{"1.0.0", "2.0.0", -1},                    // Major difference
		{"1.0.0", "1.1.0", -1},                    // Minor difference
		{"1.0.0", "1.0.1", -1},                    // Patch difference
		{"1.0.1", "1.0.0", 1},                     // Patch difference (swapped)
		{"1.10.0", "1.9.0", 1},                    // Numeric, not lexical
		{"1.0.0-alpha", "1.0.0", -1},              // Prerelease vs. release
		{"1.0.0", "1.0.0-alpha", 1},               // Release vs. prerelease
		{"1.0.0-alpha", "1.0.0-beta", -1},         // Alphabetical prerelease
		{"1.0.0-alpha.1", "1.0.0-alpha.beta", -1}, // Numeric below alphanumeric
		{"1.0.0-beta", "1.0.0-beta.2", -1},        // Length precedence
		{"1.0.0-beta.2", "1.0.0-beta.11", -1},     // Numeric identifiers
		{"1.0.0-rc.1", "1.0.0-rc1", -1},           // Separate identifiers
		{"1.0.0", "1.0.0+build", -1},              // Metadata sorts after none
		{"1.0.0+build.1", "1.0.0+build.2", -1},    // Metadata tiebreak
		{"1.0.0+001", "1.0.0+1", -1},              // Leading zeros break ties
		{"1.0.0-alpha+z", "1.0.0-beta+a", -1},     // Prerelease before metadata
	}

	for _, tt := range tests {
		a, err := Parse(tt.a)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.a, err)
		}
		b, err := Parse(tt.b)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.b, err)
		}
		if actual := Compare(a, b); actual != tt.expected {
			t.Errorf("Compare(%q, %q) = %d, expected %d", tt.a, tt.b, actual, tt.expected)
		}
		if actual := Compare(b, a); actual != -tt.expected {
			t.Errorf("Compare(%q, %q) = %d, expected %d", tt.b, tt.a, actual, -tt.expected)
		}
	}
}
