package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/sugicreations/sugi-backend/pkg/errors"
)

type sampleBody struct {
	CustomerEmail string `json:"customerEmail" validate:"required,email"`
	Quantity      int    `json:"quantity" validate:"gt=0"`
}

func TestDecodeJSONBodyReportsJSONFieldNames(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"customerEmail":"nope","quantity":0}`))
	var body sampleBody
	err := DecodeJSONBody(req, &body)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := pkgerrors.As(err).Details().(map[string]string)
	if !ok {
		t.Fatalf("expected field details, got %#v", pkgerrors.As(err).Details())
	}
	if details["customerEmail"] != "must be a valid email" {
		t.Fatalf("unexpected email detail %q", details["customerEmail"])
	}
	if details["quantity"] != "must be greater than 0" {
		t.Fatalf("unexpected quantity detail %q", details["quantity"])
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"customerEmail":"a@b.co","quantity":1,"total":"0.01"}`))
	var body sampleBody
	if err := DecodeJSONBody(req, &body); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected unknown field to be rejected, got %v", err)
	}
}

func TestDecodeJSONBodyEmpty(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	var body sampleBody
	err := DecodeJSONBody(req, &body)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) || pkgerrors.As(err).Message() != "request body is required" {
		t.Fatalf("expected empty body error, got %v", err)
	}
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=30&bad=x&big=500", nil)
	if v, err := ParseQueryInt(req, "limit", 25, 1, 100); err != nil || v != 30 {
		t.Fatalf("expected 30, got %d (%v)", v, err)
	}
	if v, err := ParseQueryInt(req, "missing", 25, 1, 100); err != nil || v != 25 {
		t.Fatalf("expected default, got %d (%v)", v, err)
	}
	if _, err := ParseQueryInt(req, "bad", 25, 1, 100); err == nil {
		t.Fatalf("expected non-numeric error")
	}
	if _, err := ParseQueryInt(req, "big", 25, 1, 100); err == nil {
		t.Fatalf("expected range error")
	}
}

func TestParseOptionalUUID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?categoryId=6f1c2a9e-9f55-4d4b-8f55-4f4c5f0f6a11&materialId=oops", nil)
	id, err := ParseOptionalUUID(req, "categoryId")
	if err != nil || id == nil || id.String() != "6f1c2a9e-9f55-4d4b-8f55-4f4c5f0f6a11" {
		t.Fatalf("unexpected parse result %v (%v)", id, err)
	}
	if id, err := ParseOptionalUUID(req, "absent"); err != nil || id != nil {
		t.Fatalf("expected nil for absent param, got %v (%v)", id, err)
	}
	if _, err := ParseOptionalUUID(req, "materialId"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  gold ring  ", 4); got != "gold" {
		t.Fatalf("unexpected %q", got)
	}
}
