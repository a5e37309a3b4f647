package parser

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"clausewise/internal/models"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/rs/zerolog/log"
)

const utf8BOM = "\ufeff"

// DetectFormat maps a filename suffix, case-insensitively, to a decode path.
func DetectFormat(filename string) (models.Format, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return models.FormatPDF, nil
	case ".docx":
		return models.FormatDOCX, nil
	case ".txt":
		return models.FormatText, nil
	default:
		return "", &DecodeError{Kind: ErrUnsupportedFormat, Filename: filename}
	}
}

// Decode reads r to completion and returns the document text. The filename is only
// used to select the format. The reader is not retained after Decode returns.
func Decode(r io.Reader, filename string) (string, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return "", err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", &DecodeError{Kind: ErrDecodeFailure, Format: format, Filename: filename, Err: err}
	}
	log.Debug().Str("filename", filename).Str("format", string(format)).Int("bytes", len(data)).Msg("Decoding document")

	if len(data) == 0 {
		return "", &DecodeError{Kind: ErrEmptyContent, Format: format, Filename: filename}
	}

	var text string
	switch format {
	case models.FormatPDF:
		text, err = parsePDF(data)
	case models.FormatDOCX:
		text, err = parseDOCX(data)
	case models.FormatText:
		text, err = parseText(data)
	}
	if err != nil {
		return "", &DecodeError{Kind: ErrDecodeFailure, Format: format, Filename: filename, Err: err}
	}

	text = normalizeLineEndings(text)
	if strings.TrimSpace(text) == "" {
		return "", &DecodeError{Kind: ErrEmptyContent, Format: format, Filename: filename}
	}
	return text, nil
}

// FromText validates pasted text the same way decoded text is validated.
func FromText(text string) (string, error) {
	text = normalizeLineEndings(strings.TrimPrefix(text, utf8BOM))
	if strings.TrimSpace(text) == "" {
		return "", &DecodeError{Kind: ErrEmptyContent, Format: models.FormatText, Filename: "pasted text"}
	}
	return text, nil
}

func parsePDF(data []byte) (text string, err error) {
	// ledongthuc/pdf panics on some malformed xref tables
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var pages []string
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := pageLines(page)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		if pageText != "" {
			pages = append(pages, pageText)
		}
	}
	return strings.Join(pages, "\n"), nil
}

// pageLines rebuilds the page text one visual row per line, top to bottom.
// GetPlainText runs the rows together, which hides clause markers.
func pageLines(page pdf.Page) (string, error) {
	rows, err := page.GetTextByRow()
	if err != nil {
		return "", err
	}
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		var line strings.Builder
		for _, word := range row.Content {
			line.WriteString(word.S)
		}
		if l := strings.TrimRight(line.String(), " \t"); l != "" {
			lines = append(lines, l)
		}
	}
	return strings.Join(lines, "\n"), nil
}

func parseDOCX(data []byte) (string, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	defer r.Close()

	paragraphs, err := docxParagraphs(r.Editable().GetContent())
	if err != nil {
		return "", fmt.Errorf("parse word/document.xml: %w", err)
	}
	return strings.Join(paragraphs, "\n"), nil
}

// docxParagraphs returns the text of every body-level paragraph in document order.
// Paragraphs inside tables and text boxes are not part of the body text.
func docxParagraphs(content string) ([]string, error) {
	decoder := xml.NewDecoder(strings.NewReader(content))

	var (
		stack      []string
		paragraphs []string
		current    strings.Builder
		inPara     bool
		textBoxes  int
	)
	parent := func() string {
		if len(stack) == 0 {
			return ""
		}
		return stack[len(stack)-1]
	}

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			switch {
			case name == "txbxContent":
				textBoxes++
			case name == "p" && parent() == "body":
				inPara = true
				current.Reset()
			case inPara && textBoxes == 0 && parent() == "r":
				switch name {
				case "tab":
					current.WriteByte('\t')
				case "br", "cr":
					current.WriteByte('\n')
				}
			}
			stack = append(stack, name)

		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			switch {
			case t.Name.Local == "txbxContent":
				textBoxes--
			case t.Name.Local == "p" && inPara && parent() == "body":
				paragraphs = append(paragraphs, current.String())
				inPara = false
			}

		case xml.CharData:
			n := len(stack)
			if inPara && textBoxes == 0 && n >= 2 && stack[n-1] == "t" && stack[n-2] == "r" {
				current.Write(t)
			}
		}
	}
	return paragraphs, nil
}

func parseText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("content is not valid UTF-8")
	}
	return strings.TrimPrefix(string(data), utf8BOM), nil
}

func normalizeLineEndings(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}
