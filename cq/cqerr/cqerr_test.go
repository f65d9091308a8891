package cqerr

import (
	"errors"
	"testing"
)

func TestWrapClassification(t *testing.T) {
	cause := errors.New("no such file")
	err := Wrap(ErrIO, "reading schema.txt", cause)

	if !errors.Is(err, ErrIO) {
		t.Fatal("expected errors.Is to classify as ErrIO")
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected errors.Is to find the original cause")
	}
	if errors.Is(err, ErrCatalog) {
		t.Fatal("expected err not to match an unrelated sentinel")
	}
}

func TestNewWithoutCause(t *testing.T) {
	err := New(ErrMalformedInput, "head variable missing from body")
	if !errors.Is(err, ErrMalformedInput) {
		t.Fatal("expected errors.Is to classify as ErrMalformedInput")
	}
	if err.Error() != "head variable missing from body" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}
