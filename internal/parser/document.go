package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/dgallion1/mdsplit/internal/doctree"
)

// ErrMissingField is returned when an input document lacks a required key.
var ErrMissingField = errors.New("missing required field")

// requiredFields are the keys every input document must carry.
var requiredFields = []string{"title", "link", "year", "category", "markdown"}

// DecodeBatch reads a JSON array of documents without decoding the
// elements, so that one malformed document can fail on its own.
func DecodeBatch(r io.Reader) ([]json.RawMessage, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read batch: %w", err)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode batch: expected a JSON array of documents: %w", err)
	}
	return items, nil
}

// DecodeDocument decodes one batch element. index is the element's
// position in the batch and becomes the doc_id when none is given.
func DecodeDocument(raw json.RawMessage, index int) (doctree.Document, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return doctree.Document{}, fmt.Errorf("document %d: %w", index, err)
	}
	for _, key := range requiredFields {
		if _, ok := fields[key]; !ok {
			return doctree.Document{}, fmt.Errorf("document %d: %w: %s", index, ErrMissingField, key)
		}
	}

	var doc doctree.Document
	var err error
	get := func(key string) string {
		if err != nil {
			return ""
		}
		var s string
		s, err = scalar(fields[key])
		if err != nil {
			err = fmt.Errorf("document %d: field %s: %w", index, key, err)
		}
		return s
	}

	doc.Title = get("title")
	doc.Link = get("link")
	doc.Year = get("year")
	doc.Category = get("category")
	doc.Markdown = get("markdown")
	if _, ok := fields["doc_id"]; ok {
		doc.DocID = get("doc_id")
	}
	if err != nil {
		return doctree.Document{}, err
	}
	if doc.DocID == "" {
		doc.DocID = strconv.Itoa(index)
	}
	return doc, nil
}

// scalar renders a JSON string, number, boolean or null as a string.
func scalar(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	case '{', '[':
		return "", fmt.Errorf("expected a scalar, got %s", raw[:1])
	default:
		return string(raw), nil
	}
}
