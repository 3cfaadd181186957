// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"ledger/internal/core"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// DecodeJSON reads the request body into dst. An empty body is an error, as is
// trailing data after the first value.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return errors.New("request body is empty")
		case errors.As(err, &maxErr):
			return fmt.Errorf("request body exceeds %d bytes", maxErr.Limit)
		default:
			return fmt.Errorf("invalid JSON: %w", err)
		}
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON value")
	}
	return nil
}

// PathID parses the positive integer path value name.
func PathID(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(r.PathValue(name))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}

// sanitizeCustomer strips control characters from every customer field.
func sanitizeCustomer(in core.CustomerInput) core.CustomerInput {
	return core.CustomerInput{
		Name:       sanitizeInput(in.Name),
		Phone:      sanitizeInput(in.Phone),
		ProfilePic: strings.TrimSpace(in.ProfilePic),
	}
}

// sanitizeRecord strips control characters from every record field. Only date
// and amount are trimmed; free text is stored as entered.
func sanitizeRecord(in core.RecordInput) core.RecordInput {
	return core.RecordInput{
		Date:        sanitizeInput(in.Date),
		Vehicle:     stripControl(in.Vehicle),
		Place:       stripControl(in.Place),
		Amount:      sanitizeInput(in.Amount),
		Description: stripControl(in.Description),
	}
}

func sanitizeRecords(rows []core.RecordInput) []core.RecordInput {
	out := make([]core.RecordInput, len(rows))
	for i, r := range rows {
		out[i] = sanitizeRecord(r)
	}
	return out
}
