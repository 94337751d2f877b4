// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// JSON bodies, month selectors and list filters.

package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cofre/internal/core"

	"github.com/gorilla/mux"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

var (
	errEmptyBody     = core.NewValidationError("request body is required")
	errMalformedBody = core.NewValidationError("malformed JSON body")
	errBodyTooLarge  = core.NewValidationError("request body too large")
	errInvalidYear   = core.NewValidationError("year must be a number")
	errInvalidMonth  = core.NewValidationError("month must be a number between 1 and 12")
	errInvalidBool   = core.NewValidationError("boolean query parameters must be true or false")
)

// DecodeJSON reads a single JSON object from the request body into dst.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return errEmptyBody
		case errors.As(err, &maxErr):
			return errBodyTooLarge
		case core.IsValidation(err):
			// raised by a field's UnmarshalJSON, e.g. an unparseable amount
			return err
		default:
			return errMalformedBody
		}
	}
	if dec.More() {
		return errMalformedBody
	}
	return nil
}

// MonthParams holds parsed year/month values from request parameters.
// Zero values mean "current".
type MonthParams struct {
	Year  int
	Month time.Month
}

// ParseMonthParams extracts year and month from query parameters. Missing
// values stay zero so the service falls back to the current month.
func ParseMonthParams(query url.Values) (MonthParams, error) {
	var params MonthParams
	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 {
			return MonthParams{}, errInvalidYear
		}
		params.Year = y
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return MonthParams{}, errInvalidMonth
		}
		params.Month = time.Month(m)
	}
	return params, nil
}

// ParseTransactionFilter reads the transaction list filters.
func ParseTransactionFilter(query url.Values) (core.TransactionFilter, error) {
	f := core.TransactionFilter{
		AccountID:  strings.TrimSpace(query.Get("account_id")),
		CategoryID: strings.TrimSpace(query.Get("category_id")),
		Type:       core.TransactionType(strings.TrimSpace(query.Get("type"))),
	}
	var err error
	if f.From, err = parseOptionalDate(query.Get("from")); err != nil {
		return core.TransactionFilter{}, err
	}
	if f.To, err = parseOptionalDate(query.Get("to")); err != nil {
		return core.TransactionFilter{}, err
	}
	return f, nil
}

// ParseBool reads an optional boolean query parameter.
func ParseBool(query url.Values, key string) (bool, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errInvalidBool
	}
	return b, nil
}

func parseOptionalDate(s string) (core.Date, error) {
	if strings.TrimSpace(s) == "" {
		return core.Date{}, nil
	}
	return core.ParseDate(s)
}

func parseOptionalDatePtr(s *string) (*core.Date, error) {
	if s == nil {
		return nil, nil
	}
	d, err := parseOptionalDate(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func pathID(r *http.Request) string {
	return mux.Vars(r)["id"]
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func sanitizePtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := sanitizeInput(*s)
	return &v
}
