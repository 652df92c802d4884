package client

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"sort"
)

// FormFile is a file part of a multipart upload
type FormFile struct {
	Field    string
	Filename string
	Content  io.Reader
}

// Multipart is a multipart/form-data body. It is sent as-is; the client sets
// Content-Type from the generated boundary.
type Multipart struct {
	Fields map[string]string
	Files  []FormFile
}

// NewMultipart creates an empty form
func NewMultipart() *Multipart {
	return &Multipart{Fields: make(map[string]string)}
}

// AddField adds a plain form field
func (m *Multipart) AddField(name, value string) *Multipart {
	if m.Fields == nil {
		m.Fields = make(map[string]string)
	}
	m.Fields[name] = value
	return m
}

// AddFile adds a file part read from r
func (m *Multipart) AddFile(field, filename string, r io.Reader) *Multipart {
	m.Files = append(m.Files, FormFile{Field: field, Filename: filename, Content: r})
	return m
}

// AddFileFromPath reads the file at path into a file part
func (m *Multipart) AddFileFromPath(field, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	m.AddFile(field, filepath.Base(path), bytes.NewReader(data))
	return nil
}

// encode writes the form and returns it with its Content-Type
func (m *Multipart) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	// Stable field order keeps request bodies reproducible
	names := make([]string, 0, len(m.Fields))
	for name := range m.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := w.WriteField(name, m.Fields[name]); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", name, err)
		}
	}

	for _, f := range m.Files {
		part, err := w.CreateFormFile(f.Field, f.Filename)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create file part %s: %w", f.Field, err)
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, "", fmt.Errorf("failed to write file part %s: %w", f.Field, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize form: %w", err)
	}

	return &buf, w.FormDataContentType(), nil
}
