// Package extract はアップロードファイルから本文テキストを取り出す。
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/go-enry/go-enry/v2"

	"github.com/jinford/polidex/internal/core/document"
)

var (
	// ErrUnsupportedType は抽出に対応していないファイル形式を表す
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrBinaryContent はテキストとして扱えないバイナリ内容を表す
	ErrBinaryContent = errors.New("binary content")

	// ErrInvalidEncoding は UTF-8 として不正な内容を表す
	ErrInvalidEncoding = errors.New("invalid utf-8 content")

	// ErrCorruptContent は形式どおりに読めない文書を表す
	ErrCorruptContent = errors.New("corrupt document")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// テキスト以外の文書形式
var documentTypes = map[string]string{
	".pdf":  mimePDF,
	".docx": mimeDOCX,
}

var plainTypes = map[string]string{
	".txt":      "text/plain",
	".md":       "text/markdown",
	".markdown": "text/markdown",
}

// Extractor は拡張子と go-enry の言語判定に基づいてテキストを抽出する
type Extractor struct {
	runner CommandRunner
}

// Option は Extractor のオプション
type Option func(*Extractor)

// WithCommandRunner は PDF 変換コマンドの実行方法を差し替える
func WithCommandRunner(runner CommandRunner) Option {
	return func(e *Extractor) {
		e.runner = runner
	}
}

// NewExtractor は新しい Extractor を作成する
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{runner: execRunner{}}
	for _, opt := range opts {
		opt(e)
	}
	if e.runner == nil {
		e.runner = execRunner{}
	}
	return e
}

// Supported はアップロードを受け付けるファイル形式かどうかを返す
func (e *Extractor) Supported(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := plainTypes[ext]; ok {
		return true
	}
	if _, ok := documentTypes[ext]; ok {
		return true
	}
	return isProse(filename)
}

// ContentType はファイル名から MIME タイプを判定する
func (e *Extractor) ContentType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if mime, ok := plainTypes[ext]; ok {
		return mime
	}
	if mime, ok := documentTypes[ext]; ok {
		return mime
	}
	language, _ := enry.GetLanguageByExtension(filepath.Base(filename))
	if mime := languageToMimeType(language); mime != "" {
		return mime
	}
	return "text/plain"
}

// Extract はファイル内容を UTF-8 テキストとして返す
// PDF は pdftotext、DOCX は word/document.xml から本文を取り出す
func (e *Extractor) Extract(ctx context.Context, data []byte, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch documentTypes[ext] {
	case mimePDF:
		return e.extractPDF(ctx, data, filepath.Base(filename))
	case mimeDOCX:
		return extractDOCX(data, filepath.Base(filename))
	}
	if !e.Supported(filename) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, ext)
	}

	if enry.IsBinary(data) {
		return "", fmt.Errorf("%w: %s", ErrBinaryContent, filepath.Base(filename))
	}

	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: %s", ErrInvalidEncoding, filepath.Base(filename))
	}

	return string(data), nil
}

func isProse(filename string) bool {
	language, _ := enry.GetLanguageByExtension(filepath.Base(filename))
	if language == "" {
		return false
	}
	return enry.GetLanguageType(language) == enry.Prose
}

func languageToMimeType(language string) string {
	mapping := map[string]string{
		"Markdown":         "text/markdown",
		"reStructuredText": "text/x-rst",
		"AsciiDoc":         "text/asciidoc",
		"Org":              "text/org",
		"Text":             "text/plain",
	}
	return mapping[language]
}

var _ document.Extractor = (*Extractor)(nil)
