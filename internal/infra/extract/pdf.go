package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/jinford/polidex/internal/core/apperr"
)

// pdfToolName は PDF からテキストを取り出す外部コマンド
const pdfToolName = "pdftotext"

// ErrPDFToolNotFound は pdftotext が PATH に見つからないことを表す
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH (install poppler-utils)")

var pdfMagic = []byte("%PDF-")

// CommandRunner は外部コマンドを実行して標準出力を返す
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner は os/exec でコマンドを実行する
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return nil, ErrPDFToolNotFound
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return out, nil
}

// extractPDF は一時ファイル経由で pdftotext を実行し本文を返す
func (e *Extractor) extractPDF(ctx context.Context, data []byte, name string) (string, error) {
	if !bytes.HasPrefix(data, pdfMagic) {
		return "", fmt.Errorf("%w: %s: missing PDF header", ErrCorruptContent, name)
	}

	tmp, err := os.CreateTemp("", "polidex-*.pdf")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	out, err := e.runner.Run(ctx, pdfToolName, "-enc", "UTF-8", "-q", tmp.Name(), "-")
	if err != nil {
		if errors.Is(err, ErrPDFToolNotFound) {
			return "", apperr.Upstream("extract pdf", err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("%w: %s: pdftotext failed: %w", ErrCorruptContent, name, err)
	}

	// ページ区切りのフォームフィードは段落区切りにそろえる
	text := strings.ReplaceAll(string(out), "\f", "\n\n")
	return strings.TrimSpace(strings.ToValidUTF8(text, "")), nil
}
