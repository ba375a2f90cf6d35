// Package chatimage finds base64 images embedded in stored chat content.
//
// Chat turns are stored either as plain text or as JSON documents produced
// by the chat frontends. Images appear as nodes with type "image" carrying
// a base64 payload or a data URL, optionally wrapped in a "data" object or
// nested inside "content" arrays.
package chatimage

import (
	"encoding/base64"
	"encoding/json"
	"regexp"
	"strings"
)

// Image is one embedded image. MIME is empty unless a data URL declared it.
type Image struct {
	Base64 string
	MIME   string
}

var (
	dataURL   = regexp.MustCompile(`^data:(image/[a-zA-Z0-9.+-]+);base64,(.*)$`)
	base64Set = regexp.MustCompile(`^[A-Za-z0-9+/=]+$`)
	spaces    = regexp.MustCompile(`\s+`)
)

// Extract returns the images found in content, in document order. Content
// that is not JSON yields nothing.
func Extract(content string) []Image {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
		return nil
	}
	var doc any
	if err := json.Unmarshal([]byte(trimmed), &doc); err != nil {
		return nil
	}
	var out []Image
	visit(doc, &out)
	return out
}

func visit(node any, out *[]Image) {
	switch n := node.(type) {
	case []any:
		for _, child := range n {
			visit(child, out)
		}
	case map[string]any:
		if n["type"] == "image" {
			if img, ok := normalize(firstString(n, "base64", "content")); ok {
				*out = append(*out, img)
			}
			return
		}
		switch data := n["data"].(type) {
		case map[string]any:
			if data["type"] == "image" {
				if img, ok := normalize(firstString(data, "base64", "content")); ok {
					*out = append(*out, img)
				}
				return
			}
		case []any:
			visit(data, out)
		}
		if content, ok := n["content"].([]any); ok {
			visit(content, out)
		}
	}
}

// firstString returns the first key holding a non-empty string.
func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func normalize(v string) (Image, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return Image{}, false
	}
	var img Image
	if m := dataURL.FindStringSubmatch(v); m != nil {
		img.MIME = m[1]
		v = m[2]
	}
	compact := spaces.ReplaceAllString(v, "")
	if compact == "" || !base64Set.MatchString(compact) {
		return Image{}, false
	}
	img.Base64 = compact
	return img, true
}

// DetectMIME sniffs the image type from the leading base64 characters and
// returns fallback when nothing matches. An empty fallback means image/jpeg.
func DetectMIME(b64, fallback string) string {
	if fallback == "" {
		fallback = "image/jpeg"
	}
	s := strings.TrimSpace(b64)
	switch {
	case strings.HasPrefix(s, "/9j/"):
		return "image/jpeg"
	case strings.HasPrefix(s, "iVBORw0KGgo"):
		return "image/png"
	case strings.HasPrefix(s, "R0lGOD"):
		return "image/gif"
	case strings.HasPrefix(s, "UklGR"):
		return "image/webp"
	}
	return fallback
}

// Decode returns the raw image bytes and the MIME type to serve them with.
// Both padded and unpadded base64 are accepted.
func Decode(img Image) ([]byte, string, error) {
	raw, err := base64.StdEncoding.DecodeString(img.Base64)
	if err != nil {
		var rawErr error
		if raw, rawErr = base64.RawStdEncoding.DecodeString(strings.TrimRight(img.Base64, "=")); rawErr != nil {
			return nil, "", err
		}
	}
	return raw, DetectMIME(img.Base64, img.MIME), nil
}
