// Package services – ShortLinkService
//
// ShortLinkService maps long admin URLs to short stable codes. Creation
// reuses a live mapping for the exact URL (an expired one is replaced),
// otherwise it runs a bounded generate-and-insert loop. A unique-key
// conflict triggers a re-read by URL (another writer may have won) before
// the next attempt.
package services

import (
	"context"
	"crypto/rand"
	"errors"
	"io"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/order-notifier/internal/domain"
	"github.com/tbourn/order-notifier/internal/repo"
)

const (
	base62 = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

	DefaultCodeLength  = 7
	DefaultMaxAttempts = 6
	minCodeLength      = 5
	maxCodeLength      = 20
)

var (
	codePattern = regexp.MustCompile(`^[0-9A-Za-z]{5,20}$`)
	httpPattern = regexp.MustCompile(`(?i)^https?://`)
)

// ShortLinkStore is the storage contract for short links. Lookups return
// repo.ErrNotFound when nothing matches; Insert returns repo.ErrDuplicate
// on a unique violation.
type ShortLinkStore interface {
	FindByTargetURL(ctx context.Context, url string) (*domain.ShortLink, error)
	FindByCode(ctx context.Context, code string) (*domain.ShortLink, error)
	Insert(ctx context.Context, l *domain.ShortLink) error
	Delete(ctx context.Context, code string) error
}

// ShortLinkOptions overrides the service defaults for one Create call.
// Zero values use the service configuration.
type ShortLinkOptions struct {
	CodeLength  int
	MaxAttempts int
	ExpiresAt   *time.Time
}

// ShortLinkOutcome is either a code or, when every attempt collided,
// Exhausted.
type ShortLinkOutcome struct {
	Code      string
	Exhausted bool
}

// ShortLinkService creates and resolves short links.
type ShortLinkService struct {
	Store       ShortLinkStore
	CodeLength  int
	MaxAttempts int

	// Rand is the entropy source for codes; crypto/rand when nil.
	Rand io.Reader
	// Now is the clock used for expiry; time.Now when nil.
	Now func() time.Time
}

// NewShortLinkService constructs a ShortLinkService. Out-of-range settings
// fall back to the defaults.
func NewShortLinkService(store ShortLinkStore, codeLength, maxAttempts int) *ShortLinkService {
	return &ShortLinkService{
		Store:       store,
		CodeLength:  codeLength,
		MaxAttempts: maxAttempts,
	}
}

// Create returns the code for url, creating a mapping when none exists.
func (s *ShortLinkService) Create(ctx context.Context, url string, opts ShortLinkOptions) (ShortLinkOutcome, error) {
	tr := otel.Tracer("services/ShortLinkService")
	ctx, span := tr.Start(ctx, "Create", trace.WithAttributes(attribute.String("target_url", url)))
	defer span.End()

	url = strings.TrimSpace(url)
	if url == "" || !httpPattern.MatchString(url) {
		return ShortLinkOutcome{}, ErrInvalidTargetURL
	}

	if l, err := s.liveByURL(ctx, url); err == nil {
		return ShortLinkOutcome{Code: l.Code}, nil
	} else if !errors.Is(err, repo.ErrNotFound) {
		return ShortLinkOutcome{}, err
	}

	length := pick(opts.CodeLength, s.CodeLength, DefaultCodeLength)
	if length < minCodeLength || length > maxCodeLength {
		length = DefaultCodeLength
	}
	attempts := pick(opts.MaxAttempts, s.MaxAttempts, DefaultMaxAttempts)

	for i := 0; i < attempts; i++ {
		code, err := GenerateCode(s.rand(), length)
		if err != nil {
			return ShortLinkOutcome{}, err
		}
		now := s.now().UTC()
		err = s.Store.Insert(ctx, &domain.ShortLink{
			Code:      code,
			TargetURL: url,
			CreatedAt: now,
			UpdatedAt: now,
			ExpiresAt: opts.ExpiresAt,
		})
		if err == nil {
			return ShortLinkOutcome{Code: code}, nil
		}
		if !errors.Is(err, repo.ErrDuplicate) {
			return ShortLinkOutcome{}, err
		}
		if l, ferr := s.liveByURL(ctx, url); ferr == nil {
			return ShortLinkOutcome{Code: l.Code}, nil
		} else if !errors.Is(ferr, repo.ErrNotFound) {
			return ShortLinkOutcome{}, ferr
		}
	}

	span.SetAttributes(attribute.Bool("exhausted", true))
	return ShortLinkOutcome{Exhausted: true}, nil
}

// liveByURL returns the unexpired mapping for url. An expired mapping is
// removed so the URL can take a fresh code, and reported as ErrNotFound.
func (s *ShortLinkService) liveByURL(ctx context.Context, url string) (*domain.ShortLink, error) {
	l, err := s.Store.FindByTargetURL(ctx, url)
	if err != nil {
		return nil, err
	}
	if !l.Expired(s.now()) {
		return l, nil
	}
	if err := s.Store.Delete(ctx, l.Code); err != nil && !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	return nil, repo.ErrNotFound
}

// Resolve returns the live mapping for code. Malformed, unknown and expired
// codes all yield ErrShortLinkNotFound.
func (s *ShortLinkService) Resolve(ctx context.Context, code string) (*domain.ShortLink, error) {
	tr := otel.Tracer("services/ShortLinkService")
	ctx, span := tr.Start(ctx, "Resolve", trace.WithAttributes(attribute.String("code", code)))
	defer span.End()

	code = strings.TrimSpace(code)
	if !ValidShortCode(code) {
		return nil, ErrShortLinkNotFound
	}
	l, err := s.Store.FindByCode(ctx, code)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrShortLinkNotFound
	}
	if err != nil {
		return nil, err
	}
	if l.Expired(s.now()) {
		return nil, ErrShortLinkNotFound
	}
	return l, nil
}

// Shorten returns the public short URL for target under baseURL.
func (s *ShortLinkService) Shorten(ctx context.Context, baseURL, target string) (string, error) {
	out, err := s.Create(ctx, target, ShortLinkOptions{})
	if err != nil {
		return "", err
	}
	if out.Exhausted {
		return "", ErrShortLinkExhausted
	}
	return BuildShortLinkURL(baseURL, out.Code), nil
}

// BuildShortLinkURL returns "{base}/s/{code}", or "" when either is empty.
func BuildShortLinkURL(baseURL, code string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" || code == "" {
		return ""
	}
	return base + "/s/" + code
}

// ValidShortCode reports whether code has the 5-20 alphanumeric shape.
func ValidShortCode(code string) bool {
	return codePattern.MatchString(code)
}

// GenerateCode draws n symbols from the base62 alphabet, one random byte
// per symbol reduced modulo 62.
func GenerateCode(r io.Reader, n int) (string, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = base62[int(b)%len(base62)]
	}
	return string(buf), nil
}

func (s *ShortLinkService) rand() io.Reader {
	if s.Rand != nil {
		return s.Rand
	}
	return rand.Reader
}

func (s *ShortLinkService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// pick returns the first positive value.
func pick(vals ...int) int {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 0
}
