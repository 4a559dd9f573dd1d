package archive

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestStore_CreateShortlink_WithRandomCode_ShouldResolve(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	code, err := s.CreateShortlink(ctx, "https://example.com/a", "")
	if err != nil {
		t.Fatalf("CreateShortlink: %v", err)
	}
	if len(code) != codeLength {
		t.Errorf("Expected %d-character code, got %q", codeLength, code)
	}

	url, err := s.ResolveShortlink(ctx, code)
	if err != nil {
		t.Fatalf("ResolveShortlink: %v", err)
	}
	if url != "https://example.com/a" {
		t.Errorf("Expected stored URL, got %q", url)
	}
}

func TestStore_CreateShortlink_WithCustomCode_ShouldBeIdempotentForSameURL(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first, err := s.CreateShortlink(ctx, "https://example.com/page", "docs")
	if err != nil || first != "docs" {
		t.Fatalf("CreateShortlink: %q, %v", first, err)
	}

	again, err := s.CreateShortlink(ctx, "https://example.com/page", "docs")
	if err != nil || again != "docs" {
		t.Errorf("Same URL under same code must be idempotent: %q, %v", again, err)
	}
}

func TestStore_CreateShortlink_WithTakenCustomCode_ShouldFail(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateShortlink(ctx, "https://example.com/one", "docs"); err != nil {
		t.Fatalf("CreateShortlink: %v", err)
	}

	_, err := s.CreateShortlink(ctx, "https://example.com/two", "docs")
	if !errors.Is(err, ErrCodeTaken) {
		t.Errorf("Expected ErrCodeTaken, got: %v", err)
	}
}

func TestStore_CreateShortlink_WithInvalidTarget_ShouldFail(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	targets := []string{
		"not a url",
		"ftp://example.com/file",
		"example.com/no-scheme",
		"https://",
		"",
		"https://example.com/" + strings.Repeat("x", 2048),
	}
	for _, target := range targets {
		if _, err := s.CreateShortlink(ctx, target, ""); !errors.Is(err, ErrInvalidTarget) {
			t.Errorf("Target %.40q: expected ErrInvalidTarget, got: %v", target, err)
		}
	}
}

func TestStore_CreateShortlink_WithInvalidCustomCode_ShouldFail(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	codes := []string{
		"has space",
		"slash/inside",
		"dots..",
		strings.Repeat("a", 21),
	}
	for _, code := range codes {
		if _, err := s.CreateShortlink(ctx, "https://example.com", code); !errors.Is(err, ErrInvalidCode) {
			t.Errorf("Code %q: expected ErrInvalidCode, got: %v", code, err)
		}
	}
}

func TestStore_CreateShortlink_ShouldTrimTargetWhitespace(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	code, err := s.CreateShortlink(ctx, "  https://example.com/padded \n", "")
	if err != nil {
		t.Fatalf("CreateShortlink: %v", err)
	}
	url, err := s.ResolveShortlink(ctx, code)
	if err != nil || url != "https://example.com/padded" {
		t.Errorf("Expected trimmed URL stored, got %q, %v", url, err)
	}
}

func TestStore_ResolveShortlink_WhenAbsent_ShouldReturnErrNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.ResolveShortlink(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got: %v", err)
	}
}
