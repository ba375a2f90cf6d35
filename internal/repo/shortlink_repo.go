// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the short link store.
//
// ShortLinks wraps a *gorm.DB so the short-link service can depend on a
// narrow interface. Inserts map unique violations (on code or target URL)
// to ErrDuplicate so callers can run their retry-on-conflict loop.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/order-notifier/internal/domain"
)

// ShortLinks is a GORM-backed short link store.
type ShortLinks struct {
	DB *gorm.DB
}

// FindByTargetURL returns the mapping for url, or ErrNotFound.
func (s ShortLinks) FindByTargetURL(ctx context.Context, url string) (*domain.ShortLink, error) {
	var l domain.ShortLink
	err := s.DB.WithContext(ctx).Where("target_url = ?", url).First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// FindByCode returns the mapping for code, or ErrNotFound.
func (s ShortLinks) FindByCode(ctx context.Context, code string) (*domain.ShortLink, error) {
	var l domain.ShortLink
	err := s.DB.WithContext(ctx).Where("code = ?", code).First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Insert stores a new mapping and returns ErrDuplicate on unique violation.
func (s ShortLinks) Insert(ctx context.Context, l *domain.ShortLink) error {
	if err := s.DB.WithContext(ctx).Create(l).Error; err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// Delete removes the mapping for code, or returns ErrNotFound.
func (s ShortLinks) Delete(ctx context.Context, code string) error {
	res := s.DB.WithContext(ctx).Where("code = ?", code).Delete(&domain.ShortLink{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
