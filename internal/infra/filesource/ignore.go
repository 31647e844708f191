package filesource

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// ignoreFileNames はルート直下から読み込む除外設定ファイル
var ignoreFileNames = []string{".gitignore", ".polidexignore"}

// IgnoreFilter は .gitignore と .polidexignore のパターンマッチングを提供する
type IgnoreFilter struct {
	patterns *gitignore.GitIgnore
}

// NewIgnoreFilter は root 配下の除外設定とデフォルトパターンから IgnoreFilter を作成する
func NewIgnoreFilter(root string, extra ...string) (*IgnoreFilter, error) {
	var patterns []string
	for _, name := range ignoreFileNames {
		lines, err := readIgnoreFile(filepath.Join(root, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		patterns = append(patterns, lines...)
	}
	patterns = append(patterns, defaultIgnorePatterns...)
	patterns = append(patterns, extra...)

	return &IgnoreFilter{
		patterns: gitignore.CompileIgnoreLines(patterns...),
	}, nil
}

// ShouldIgnore は root からの相対パスが除外対象かどうかを判定する
func (f *IgnoreFilter) ShouldIgnore(relPath string) bool {
	if f == nil || f.patterns == nil {
		return false
	}
	return f.patterns.MatchesPath(filepath.ToSlash(relPath))
}

func readIgnoreFile(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var patterns []string
	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns, scanner.Err()
}

var defaultIgnorePatterns = []string{
	".git",
	".gitignore",
	".polidexignore",

	"node_modules",
	"vendor",
	"dist",
	"build",

	".vscode",
	".idea",
	".DS_Store",
	"*.swp",
	"*~",

	"*.log",
	"*.tmp",

	".env",
	".env.*",
	"*.pem",
	"*.key",
}
