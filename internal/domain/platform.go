package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Platform is the closed set of chat platforms an order can originate from.
// Unknown or empty values normalize to PlatformLine.
type Platform string

const (
	PlatformLine     Platform = "line"
	PlatformFacebook Platform = "facebook"
)

// NormalizePlatform maps free-form input onto the Platform enumeration.
func NormalizePlatform(s string) Platform {
	if strings.EqualFold(strings.TrimSpace(s), string(PlatformFacebook)) {
		return PlatformFacebook
	}
	return PlatformLine
}

// UnmarshalJSON normalizes the platform when decoding channel sources and
// API payloads.
func (p *Platform) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		// non-string values fall back to the default platform
		*p = PlatformLine
		return nil
	}
	*p = NormalizePlatform(s)
	return nil
}

// Scan implements sql.Scanner so rows read from storage are normalized.
func (p *Platform) Scan(v any) error {
	switch x := v.(type) {
	case nil:
		*p = PlatformLine
	case string:
		*p = NormalizePlatform(x)
	case []byte:
		*p = NormalizePlatform(string(x))
	default:
		return fmt.Errorf("platform: unsupported scan type %T", v)
	}
	return nil
}

// Value implements driver.Valuer.
func (p Platform) Value() (driver.Value, error) {
	return string(NormalizePlatform(string(p))), nil
}

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidID reports whether s is a well-formed record identifier. Callers use
// it to fail fast before touching storage.
func ValidID(s string) bool {
	return idPattern.MatchString(strings.TrimSpace(s))
}
