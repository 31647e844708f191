package extract

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/polidex/internal/core/apperr"
)

type stubRunner struct {
	output []byte
	err    error

	name     string
	args     []string
	inputPDF []byte
}

func (r *stubRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	r.name = name
	r.args = args
	// 入力ファイルは引数の最後から2番目
	if len(args) >= 2 {
		data, err := os.ReadFile(args[len(args)-2])
		if err == nil {
			r.inputPDF = data
		}
	}
	return r.output, r.err
}

var samplePDF = []byte("%PDF-1.4 sample")

func TestExtractPDF(t *testing.T) {
	runner := &stubRunner{output: []byte("服務規程\n\n第1条\fページ2\n")}
	e := NewExtractor(WithCommandRunner(runner))

	got, err := e.Extract(context.Background(), samplePDF, "handbook.pdf")
	require.NoError(t, err)
	assert.Equal(t, "服務規程\n\n第1条\n\nページ2", got)

	assert.Equal(t, "pdftotext", runner.name)
	assert.Contains(t, runner.args, "UTF-8")
	assert.Equal(t, "-", runner.args[len(runner.args)-1])
	assert.Equal(t, samplePDF, runner.inputPDF)

	_, statErr := os.Stat(runner.args[len(runner.args)-2])
	assert.True(t, os.IsNotExist(statErr), "一時ファイルは削除される")
}

func TestExtractPDF_Errors(t *testing.T) {
	tests := []struct {
		name         string
		data         []byte
		runnerErr    error
		wantErr      error
		wantUpstream bool
	}{
		{
			name:    "ヘッダがない",
			data:    []byte("hello"),
			wantErr: ErrCorruptContent,
		},
		{
			name:      "変換コマンドの失敗",
			data:      samplePDF,
			runnerErr: errors.New("Syntax Error: Couldn't find trailer dictionary"),
			wantErr:   ErrCorruptContent,
		},
		{
			name:         "変換コマンドがない",
			data:         samplePDF,
			runnerErr:    ErrPDFToolNotFound,
			wantErr:      ErrPDFToolNotFound,
			wantUpstream: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewExtractor(WithCommandRunner(&stubRunner{err: tt.runnerErr}))

			_, err := e.Extract(context.Background(), tt.data, "broken.pdf")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantUpstream, apperr.IsUpstream(err))
		})
	}
}

func TestExtractPDF_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := NewExtractor(WithCommandRunner(&stubRunner{err: errors.New("signal: killed")}))

	_, err := e.Extract(ctx, samplePDF, "slow.pdf")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewExtractor_NilRunnerFallsBack(t *testing.T) {
	e := NewExtractor(WithCommandRunner(nil))
	assert.IsType(t, execRunner{}, e.runner)
}
