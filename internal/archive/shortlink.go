package archive

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const codeAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const codeLength = 7

// Input limits for stored links.
const (
	maxTargetLength     = 2048
	maxCustomCodeLength = 20
)

var (
	// ErrInvalidTarget is returned for targets that are not absolute
	// http/https URLs or exceed the length cap.
	ErrInvalidTarget = errors.New("target must be an http or https URL of at most 2048 characters")

	// ErrInvalidCode is returned for custom codes that are not alphanumeric
	// or exceed the length cap.
	ErrInvalidCode = errors.New("custom code must be alphanumeric and at most 20 characters")
)

// CreateShortlink stores target under customCode, or under a fresh random
// code when customCode is empty. Reusing a custom code for the same URL is
// idempotent; reusing it for a different URL fails with ErrCodeTaken.
func (s *Store) CreateShortlink(ctx context.Context, target, customCode string) (string, error) {
	target = strings.TrimSpace(target)
	if !validTarget(target) {
		return "", ErrInvalidTarget
	}
	if customCode != "" && !validCode(customCode) {
		return "", ErrInvalidCode
	}

	if customCode != "" {
		existing, err := s.ResolveShortlink(ctx, customCode)
		switch {
		case err == nil && existing == target:
			return customCode, nil
		case err == nil:
			return "", ErrCodeTaken
		case !errors.Is(err, ErrNotFound):
			return "", err
		}
		if err := s.insertShortlink(ctx, customCode, target); err != nil {
			return "", err
		}
		return customCode, nil
	}

	// Random codes can collide; retry with a fresh one.
	for attempt := 0; attempt < 5; attempt++ {
		code, err := randomCode()
		if err != nil {
			return "", err
		}
		err = s.insertShortlink(ctx, code, target)
		if err == nil {
			return code, nil
		}
		if !isUniqueViolation(err) {
			return "", err
		}
	}
	return "", fmt.Errorf("archive: could not allocate a unique short code")
}

// ResolveShortlink returns the URL stored under code.
func (s *Store) ResolveShortlink(ctx context.Context, code string) (string, error) {
	var target string
	err := s.db.QueryRowContext(ctx,
		`SELECT url FROM shortlinks WHERE code = ?`, code).Scan(&target)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return target, err
}

func (s *Store) insertShortlink(ctx context.Context, code, target string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO shortlinks (code, url) VALUES (?, ?)`, code, target)
	return err
}

func validTarget(target string) bool {
	if target == "" || len(target) > maxTargetLength {
		return false
	}
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func validCode(code string) bool {
	if len(code) > maxCustomCodeLength {
		return false
	}
	for _, r := range code {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

func randomCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	var b strings.Builder
	for _, c := range buf {
		b.WriteByte(codeAlphabet[int(c)%len(codeAlphabet)])
	}
	return b.String(), nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE")
}
