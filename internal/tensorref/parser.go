// internal/tensorref/parser.go
package tensorref

import (
	"fmt"
	"regexp"
	"strings"
)

// nameRegex restricts tensor names to identifier-like strings.
var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)

// ParseDevice converts a device tag into a Device. The aliases `cpu` and
// `gpu` are accepted for host and accelerator.
func ParseDevice(s string) (Device, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "host", "cpu":
		return Host, nil
	case "accelerator", "gpu":
		return Accelerator, nil
	default:
		return 0, fmt.Errorf("unknown device %q", s)
	}
}

// ValidateName checks a bare tensor name.
func ValidateName(name string) error {
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("invalid tensor name %q", name)
	}
	return nil
}

// Parse converts a canonical `<name>_<device>` string into a Ref.
func Parse(s string) (Ref, error) {
	if s == "" {
		return Ref{}, fmt.Errorf("tensor reference cannot be empty")
	}

	idx := strings.LastIndex(s, "_")
	if idx <= 0 || idx == len(s)-1 {
		return Ref{}, fmt.Errorf("invalid tensor reference %q: expected <name>_<device>", s)
	}

	device, err := ParseDevice(s[idx+1:])
	if err != nil {
		return Ref{}, fmt.Errorf("invalid tensor reference %q: %w", s, err)
	}

	name := s[:idx]
	if err := ValidateName(name); err != nil {
		return Ref{}, fmt.Errorf("invalid tensor reference %q: %w", s, err)
	}

	return Ref{Name: name, Device: device}, nil
}

// ParseAll parses every string in order, failing on the first invalid one.
func ParseAll(names []string) ([]Ref, error) {
	refs := make([]Ref, 0, len(names))
	for _, n := range names {
		r, err := Parse(n)
		if err != nil {
			return nil, err
		}
		refs = append(refs, r)
	}
	return refs, nil
}
