package parser

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/csv-backend/backend/internal/models"
)

// Common utilities for cell typing

var (
	floatRegex = regexp.MustCompile(`^[+-]?(?:\d+\.\d*|\.\d+|\d+)(?:[eE][+-]?\d+)?$`)

	boolTrue  = map[string]bool{"TRUE": true}
	boolFalse = map[string]bool{"FALSE": true}
)

// InferType guesses the CellType of a single raw value.
// An empty value carries no type information and reports string.
func InferType(raw string) models.CellType {
	s := strings.TrimSpace(raw)
	if s == "" {
		return models.CellTypeString
	}
	if isIntegerFast(s) {
		return models.CellTypeInteger
	}
	if isFloat(s) {
		return models.CellTypeFloat
	}
	u := strings.ToUpper(s)
	if boolTrue[u] || boolFalse[u] {
		return models.CellTypeBoolean
	}
	return models.CellTypeString
}

// InferColumnType picks one type for a whole column. Integers widen to
// float when mixed with floats; any other mix falls back to string.
func InferColumnType(values []string) models.CellType {
	allInt, allFloat, allBool := true, true, true
	seen := false

	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		seen = true
		switch InferType(v) {
		case models.CellTypeInteger:
			allBool = false
		case models.CellTypeFloat:
			allInt, allBool = false, false
		case models.CellTypeBoolean:
			allInt, allFloat = false, false
		default:
			return models.CellTypeString
		}
	}

	switch {
	case !seen:
		return models.CellTypeString
	case allInt:
		return models.CellTypeInteger
	case allFloat:
		return models.CellTypeFloat
	case allBool:
		return models.CellTypeBoolean
	}
	return models.CellTypeString
}

// isIntegerFast checks for a base-10 integer that fits in an int64.
func isIntegerFast(s string) bool {
	i := 0
	if s[0] == '+' || s[0] == '-' {
		i++
		if i >= len(s) {
			return false
		}
	}
	for ; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

func isFloat(s string) bool {
	if !floatRegex.MatchString(s) {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// ParseValue converts a raw string to its typed value based on CellType.
// Empty values become nil; values that do not fit the type stay strings.
func ParseValue(raw string, ctype models.CellType) interface{} {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}

	switch ctype {
	case models.CellTypeInteger:
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return raw // Fallback
		}
		return v

	case models.CellTypeFloat:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return raw
		}
		return v

	case models.CellTypeBoolean:
		u := strings.ToUpper(s)
		if boolTrue[u] {
			return true
		}
		if boolFalse[u] {
			return false
		}
		return raw

	default:
		return raw
	}
}

// FormatValue renders a cell in the canonical text encoding.
func FormatValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case float64:
		return formatFloat(t)
	case bool:
		if t {
			return "True"
		}
		return "False"
	default:
		return fmt.Sprint(t)
	}
}

// formatFloat prints the shortest representation that reads back as a
// float: integral values keep a ".0" suffix and very large or very small
// magnitudes switch to exponent form.
func formatFloat(f float64) string {
	if math.IsNaN(f) {
		return ""
	}
	if math.IsInf(f, 0) {
		if f > 0 {
			return "inf"
		}
		return "-inf"
	}

	abs := math.Abs(f)
	if abs != 0 && (abs >= 1e16 || abs < 1e-4) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}
