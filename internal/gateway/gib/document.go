package gib

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/reyhansunduk/efatura-mcp-server/internal/model"
)

var zipMagic = []byte("PK\x03\x04")

// decodeDocument turns a GetInvoiceDocument payload into a Document.
// The payload is base64, either a ZIP bundle (XML and HTML views) or a
// single document. A bundle yields its XML entry when there is one.
func decodeDocument(invoiceID, formatHint, content string) (*model.Document, error) {
	raw := []byte(content)
	compact := strings.Join(strings.Fields(content), "")
	if decoded, err := base64.StdEncoding.DecodeString(compact); err == nil {
		raw = decoded
	}

	if bytes.HasPrefix(raw, zipMagic) {
		return unzipDocument(invoiceID, raw)
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, fmt.Errorf("empty document")
	}

	return &model.Document{
		InvoiceID: invoiceID,
		Format:    sniffFormat(formatHint, raw),
		Content:   raw,
	}, nil
}

func unzipDocument(invoiceID string, raw []byte) (*model.Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("invalid document archive: %w", err)
	}

	var xmlFile, htmlFile *zip.File
	for _, f := range zr.File {
		switch strings.ToLower(path.Ext(f.Name)) {
		case ".xml":
			if xmlFile == nil {
				xmlFile = f
			}
		case ".html", ".htm":
			if htmlFile == nil {
				htmlFile = f
			}
		}
	}

	pick, format := xmlFile, model.FormatXML
	if pick == nil {
		pick, format = htmlFile, model.FormatHTML
	}
	if pick == nil {
		return nil, fmt.Errorf("document archive has no XML or HTML entry")
	}

	rc, err := pick.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", pick.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", pick.Name, err)
	}

	return &model.Document{InvoiceID: invoiceID, Format: format, Content: data}, nil
}

func sniffFormat(hint string, data []byte) model.DocumentFormat {
	switch strings.ToLower(strings.TrimSpace(hint)) {
	case "xml":
		return model.FormatXML
	case "html":
		return model.FormatHTML
	}

	head := strings.ToLower(string(bytes.TrimSpace(data[:min(len(data), 512)])))
	if strings.HasPrefix(head, "<!doctype html") || strings.Contains(head, "<html") {
		return model.FormatHTML
	}
	return model.FormatXML
}
