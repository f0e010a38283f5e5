package extract

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	appErr "github.com/xxxsen/docchat/internal/pkg/errors"
)

// Func turns raw file bytes into plain text.
type Func func(data []byte) (string, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Func{}
)

func Register(ext string, fn Func) {
	key := normalizeExt(ext)
	if key == "" || fn == nil {
		return
	}
	registryMu.Lock()
	registry[key] = fn
	registryMu.Unlock()
}

func Supported(filename string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[normalizeExt(filepath.Ext(filename))]
	return ok
}

// Text extracts plain text from the file content, dispatching on the file
// extension. Unsupported extensions fail before anything is touched.
func Text(filename string, data []byte) (string, error) {
	ext := normalizeExt(filepath.Ext(filename))
	registryMu.RLock()
	fn := registry[ext]
	registryMu.RUnlock()
	if fn == nil {
		return "", fmt.Errorf("%w: %s", appErr.ErrUnsupportedFile, ext)
	}
	return fn(data)
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}
