package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

var errSample = New(KindConflict, "SAMPLE", "sample conflict")

func TestIsMatchesByKindAndCode(t *testing.T) {
	remessaged := errSample.WithMessage("another wording")
	if !errors.Is(remessaged, errSample) {
		t.Fatal("WithMessage copy should match its sentinel")
	}

	wrapped := fmt.Errorf("send: %w", remessaged)
	if !errors.Is(wrapped, errSample) {
		t.Fatal("fmt wrapped copy should match its sentinel")
	}

	other := New(KindConflict, "OTHER", "sample conflict")
	if errors.Is(other, errSample) {
		t.Fatal("different code must not match")
	}

	sameCode := New(KindAuthentication, "SAMPLE", "sample conflict")
	if errors.Is(sameCode, errSample) || errors.Is(errSample, sameCode) {
		t.Fatal("same code under another kind must not match")
	}

	if errSample.Message != "sample conflict" {
		t.Fatal("WithMessage must not mutate the sentinel")
	}
}

func TestFromUnknownIsInternal(t *testing.T) {
	cause := errors.New("connection reset")
	ae := From(cause)
	if ae.Kind != KindInternal || ae.Code != CodeInternal {
		t.Fatalf("From(unknown) = %+v, want internal", ae)
	}
	if !errors.Is(ae, cause) {
		t.Fatal("internal error should unwrap to the cause")
	}
	if ae.Message != "Internal server error" {
		t.Fatalf("internal message leaks detail: %q", ae.Message)
	}
	if !Retryable(cause) {
		t.Fatal("internal errors are retryable")
	}
	if !Retryable(ErrRateLimited) {
		t.Fatal("rate limited errors are retryable")
	}
	if Retryable(errSample) {
		t.Fatal("conflicts are not retryable")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := map[Kind]int{
		KindValidation:     http.StatusBadRequest,
		KindNotFound:       http.StatusNotFound,
		KindConflict:       http.StatusConflict,
		KindAuthorization:  http.StatusForbidden,
		KindAuthentication: http.StatusUnauthorized,
		KindRateLimited:    http.StatusTooManyRequests,
		KindInternal:       http.StatusInternalServerError,
	}
	for kind, want := range tests {
		if got := HTTPStatus(kind); got != want {
			t.Errorf("HTTPStatus(%s) = %d, want %d", kind, got, want)
		}
	}
}

func TestWithFieldsCopies(t *testing.T) {
	base := Validation(CodeValidation, "Validation Error")
	withFields := base.WithFields(FieldError{Field: "text", Message: "required"})
	if len(base.Fields) != 0 {
		t.Fatal("WithFields mutated the receiver")
	}
	if len(withFields.Fields) != 1 || withFields.Fields[0].Field != "text" {
		t.Fatalf("unexpected fields: %+v", withFields.Fields)
	}
}
