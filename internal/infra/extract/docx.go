package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// docxBodyPart は本文を保持する OOXML パート
const docxBodyPart = "word/document.xml"

// extractDOCX は DOCX の本文段落を改行区切りのテキストとして返す
// 表の中の段落も文書順に含める
func extractDOCX(data []byte, name string) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrCorruptContent, name, err)
	}

	for _, file := range reader.File {
		if file.Name != docxBodyPart {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("%w: %s: %w", ErrCorruptContent, name, err)
		}
		defer rc.Close()

		text, err := parseDocumentXML(rc)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %w", ErrCorruptContent, name, err)
		}
		return text, nil
	}

	return "", fmt.Errorf("%w: %s: missing %s", ErrCorruptContent, name, docxBodyPart)
}

// parseDocumentXML は w:t の文字列を段落ごとにまとめる
// w:tab はタブ、w:br と w:cr は改行として扱う
func parseDocumentXML(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)

	var (
		paragraphs []string
		current    strings.Builder
		inText     bool
	)

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				current.WriteByte('\t')
			case "br", "cr":
				current.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}

	return strings.TrimSpace(strings.Join(paragraphs, "\n")), nil
}
