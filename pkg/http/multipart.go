package http

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"sort"
)

// FilePart is a file attached to a multipart body.
type FilePart struct {
	Field    string
	Filename string
	Content  io.Reader
}

// Multipart describes a multipart/form-data request body.
type Multipart struct {
	Fields url.Values
	Files  []FilePart
}

// NewMultipart returns an empty multipart body.
func NewMultipart() *Multipart {
	return &Multipart{Fields: url.Values{}}
}

// Set replaces the values of a field.
func (m *Multipart) Set(key, value string) {
	m.Fields.Set(key, value)
}

// Add appends a value to a field. Repeated fields are how list values
// such as column selections travel.
func (m *Multipart) Add(key, value string) {
	m.Fields.Add(key, value)
}

// AddFile attaches a file.
func (m *Multipart) AddFile(field, filename string, content io.Reader) {
	m.Files = append(m.Files, FilePart{Field: field, Filename: filename, Content: content})
}

// Encode writes the body into memory and returns it with its content type.
// Fields are written in key order so encoded bodies are deterministic.
func (m *Multipart) Encode() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(m.Fields))
	for k := range m.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		for _, v := range m.Fields[k] {
			if err := w.WriteField(k, v); err != nil {
				return nil, "", fmt.Errorf("automodeler: write field %q: %w", k, err)
			}
		}
	}

	for _, f := range m.Files {
		part, err := w.CreateFormFile(f.Field, f.Filename)
		if err != nil {
			return nil, "", fmt.Errorf("automodeler: create file part %q: %w", f.Field, err)
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, "", fmt.Errorf("automodeler: copy file %q: %w", f.Filename, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("automodeler: close multipart writer: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
