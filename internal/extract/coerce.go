package extract

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bwdmonkey/givvu-irs-501c3-data/internal/concordance"
)

// CoercionError reports a raw value that could not be converted to its
// declared semantic type. It is always recovered: the assembler records
// the field as absent and keeps a warning, it never fails the record.
type CoercionError struct {
	Type   concordance.SemanticType
	Raw    string
	Reason string
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("coerce %q as %s: %s", e.Raw, e.Type, e.Reason)
}

// CoerceInt converts a numeric string, tolerating surrounding whitespace
// and thousands separators. A fractional part is truncated.
func CoerceInt(raw string) (int64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if s == "" {
		return 0, &CoercionError{Type: concordance.TypeInt, Raw: raw, Reason: "empty"}
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &CoercionError{Type: concordance.TypeInt, Raw: raw, Reason: "not numeric"}
	}
	return int64(f), nil
}

// CoerceMoney converts a currency amount to whole currency units.
// Fractional cents are truncated; the warehouse schema stores whole
// dollars and sub-unit precision has no downstream consumer today.
func CoerceMoney(raw string) (int64, error) {
	v, err := CoerceInt(raw)
	if err != nil {
		if ce, ok := err.(*CoercionError); ok {
			ce.Type = concordance.TypeMoney
		}
		return 0, err
	}
	return v, nil
}

// CoerceBool accepts the closed set of truthy/falsy tokens observed
// across schema versions, including the bare "X" checkbox convention.
// Any other token is a coercion error, not a false.
func CoerceBool(raw string) (bool, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "1", "TRUE", "X", "YES", "Y":
		return true, nil
	case "0", "FALSE", "NO", "N":
		return false, nil
	default:
		return false, &CoercionError{Type: concordance.TypeBool, Raw: raw, Reason: "unrecognized token"}
	}
}

// CoerceDate normalizes the two fixed-width encodings used by the source
// documents: YYYY-MM-DD (kept as-is), YYYYMMDD (re-punctuated), and the
// year-month form YYYYMM used by ruling dates (normalized to YYYY-MM).
func CoerceDate(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	switch {
	case len(s) == 10 && s[4] == '-' && s[7] == '-' && allDigits(s[:4]) && allDigits(s[5:7]) && allDigits(s[8:]):
		return s, nil
	case len(s) == 8 && allDigits(s):
		return s[:4] + "-" + s[4:6] + "-" + s[6:], nil
	case len(s) == 6 && allDigits(s):
		return s[:4] + "-" + s[4:], nil
	default:
		return "", &CoercionError{Type: concordance.TypeDate, Raw: raw, Reason: "unrecognized encoding"}
	}
}

// CoercePercent parses a percentage, tolerating a trailing percent sign.
func CoercePercent(raw string) (float64, error) {
	s := strings.TrimSuffix(strings.TrimSpace(raw), "%")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, &CoercionError{Type: concordance.TypePercent, Raw: raw, Reason: "empty"}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &CoercionError{Type: concordance.TypePercent, Raw: raw, Reason: "not numeric"}
	}
	return f, nil
}

// CoerceString trims surrounding whitespace. Empty-after-trim returns
// ok=false: "reported but blank" and "not reported" collapse into the
// same absent state on purpose.
func CoerceString(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	return s, s != ""
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
