// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package ingesterr

import (
	"errors"
	"testing"
)

func TestKindOf_ClassifiedError(t *testing.T) {
	err := New(Transient, "embedding.Embed", errors.New("timeout"))
	if KindOf(err) != Transient {
		t.Fatalf("expected Transient, got %v", KindOf(err))
	}
	if !IsTransient(err) {
		t.Fatal("expected IsTransient to be true")
	}
}

func TestKindOf_UnclassifiedDefaultsToPermanentClient(t *testing.T) {
	err := errors.New("some plain error")
	if KindOf(err) != PermanentClient {
		t.Fatalf("expected PermanentClient default, got %v", KindOf(err))
	}
}

func TestNew_NilErrorReturnsNil(t *testing.T) {
	if New(Transient, "op", nil) != nil {
		t.Fatal("expected New(kind, op, nil) to return nil")
	}
}

func TestError_UnwrapsUnderlyingError(t *testing.T) {
	cause := errors.New("root cause")
	err := New(Fatal, "bootstrap.CreateCollection", cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected errors.Is to find the wrapped cause")
	}
}
