// File: error_test.go
// Title: Error Module Tests
// Description: Tests for error creation, wrapping, codes and user messages.
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19

package error

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New("unterminated string")

	if err.Error() != "unterminated string" {
		t.Errorf("Error() = %q, want %q", err.Error(), "unterminated string")
	}

	if err.Code() != CodeUnknown {
		t.Errorf("Code() = %v, want %v", err.Code(), CodeUnknown)
	}

	if err.Severity() != SeverityMedium {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityMedium)
	}

	if err.Timestamp().IsZero() {
		t.Error("Timestamp() should not be zero")
	}
}

func TestWithCodeSetsSeverity(t *testing.T) {
	tests := []struct {
		code Code
		want Severity
	}{
		{CodeSyntax, SeverityLow},
		{CodeNoMatch, SeverityLow},
		{CodePermission, SeverityMedium},
		{CodeDatabase, SeverityHigh},
		{CodeInternal, SeverityCritical},
	}

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			err := New("x").WithCode(tt.code)
			if err.Severity() != tt.want {
				t.Errorf("Severity() = %v, want %v", err.Severity(), tt.want)
			}
		})
	}

	explicit := New("x").WithSeverity(SeverityHigh).WithCode(CodeSyntax)
	if explicit.Severity() != SeverityHigh {
		t.Errorf("explicit severity overwritten: %v", explicit.Severity())
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "ignored") != nil {
		t.Fatal("Wrap(nil) should return nil")
	}

	base := errors.New("strconv.Atoi: parsing \"x\": invalid syntax")
	wrapped := Wrap(base, "invalid page").WithCode(CodeInvalidFormat)

	if !errors.Is(wrapped, base) {
		t.Error("errors.Is should find the cause")
	}

	if !strings.HasPrefix(wrapped.Error(), "invalid page: ") {
		t.Errorf("Error() = %q", wrapped.Error())
	}

	inner := New("no chain").WithCode(CodeNoMatch).WithDetail("tokens", 2)
	outer := Wrap(inner, "executing ban")
	if outer.Code() != CodeNoMatch {
		t.Errorf("Code() = %v, want %v", outer.Code(), CodeNoMatch)
	}
	if v, ok := outer.Detail("tokens"); !ok || v != 2 {
		t.Errorf("Detail(tokens) = %v, %v", v, ok)
	}
}

func TestWrapTruncatesDeepChains(t *testing.T) {
	var err error = New("root").WithCode(CodeDatabase)
	for i := 0; i < MaxErrorChainDepth+2; i++ {
		err = Wrap(err, fmt.Sprintf("level %d", i))
	}

	if chainDepth(err) > MaxErrorChainDepth+1 {
		t.Errorf("chain depth %d exceeds limit", chainDepth(err))
	}
	if GetCode(err) != CodeDatabase {
		t.Errorf("GetCode() = %v, want %v", GetCode(err), CodeDatabase)
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("dispatch: %w", New("tie").WithCode(CodeAmbiguous))

	if !HasCode(err, CodeAmbiguous) {
		t.Error("HasCode should see through fmt wrapping")
	}
	if HasCode(err, CodeNoMatch) {
		t.Error("HasCode matched the wrong code")
	}
	if HasCode(errors.New("plain"), CodeAmbiguous) {
		t.Error("plain errors have no code")
	}
	if GetCode(errors.New("plain")) != CodeUnknown {
		t.Error("GetCode of a plain error should be CodeUnknown")
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"user facing", New("Arguments not acceptable").WithCode(CodeNoMatch), "Arguments not acceptable"},
		{"wrapped user facing", Wrap(New("unexpected token: -").WithCode(CodeSyntax), "search"), "search"},
		{"internal", New("disk on fire").WithCode(CodeDatabase), "fallback"},
		{"plain", errors.New("boom"), "fallback"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err, "fallback"); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMarshalJSON(t *testing.T) {
	err := New("bad page").WithCode(CodeInvalidFormat).WithOperation("search.Parse").WithDetail("value", "x")

	data, marshalErr := json.Marshal(err)
	if marshalErr != nil {
		t.Fatalf("Marshal failed: %v", marshalErr)
	}

	var decoded map[string]interface{}
	if uErr := json.Unmarshal(data, &decoded); uErr != nil {
		t.Fatalf("Unmarshal failed: %v", uErr)
	}

	if decoded["code"] != string(CodeInvalidFormat) {
		t.Errorf("code = %v", decoded["code"])
	}
	if decoded["operation"] != "search.Parse" {
		t.Errorf("operation = %v", decoded["operation"])
	}
}
