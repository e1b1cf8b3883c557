package rbac

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/expertpos/expert-pos/internal/shared"
)

// PermissionSet is a deduplicated set of permission codes.
type PermissionSet map[string]struct{}

// NewPermissionSet builds a set from codes, normalising case and dropping blanks.
func NewPermissionSet(codes ...string) PermissionSet {
	set := make(PermissionSet, len(codes))
	for _, code := range codes {
		code = normalizeCode(code)
		if code == "" {
			continue
		}
		set[code] = struct{}{}
	}
	return set
}

// Has reports whether code is in the set.
func (s PermissionSet) Has(code string) bool {
	_, ok := s[normalizeCode(code)]
	return ok
}

// HasAny reports whether at least one of codes is in the set. An empty list is
// never satisfied.
func (s PermissionSet) HasAny(codes ...string) bool {
	for _, code := range codes {
		if s.Has(code) {
			return true
		}
	}
	return false
}

// Codes returns the set as a sorted slice.
func (s PermissionSet) Codes() []string {
	codes := make([]string, 0, len(s))
	for code := range s {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// MarshalJSON encodes the set as a sorted array.
func (s PermissionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Codes())
}

// Authorize checks a single permission. See AuthorizeAny.
func Authorize(p *Principal, code string) error {
	return AuthorizeAny(p, code)
}

// AuthorizeAny returns nil when p holds the super-role or at least one of codes.
// A nil principal is unauthenticated; a principal lacking every code is forbidden.
// An empty code list denies everyone, the super-role included.
func AuthorizeAny(p *Principal, codes ...string) error {
	if p == nil {
		return shared.ErrUnauthenticated
	}
	if len(codes) == 0 {
		return fmt.Errorf("%w: no permission configured", shared.ErrForbidden)
	}
	if p.IsSuper() || p.Permissions.HasAny(codes...) {
		return nil
	}
	return fmt.Errorf("%w: requires %s", shared.ErrForbidden, strings.Join(codes, " or "))
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
