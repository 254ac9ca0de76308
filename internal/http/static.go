package httpx

import (
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	apperrors "github.com/slicehq/slice/internal/errors"
)

// StaticHandlerOptions configures StaticHandler.
type StaticHandlerOptions struct {
	// WebRoot is the only directory files are served from.
	WebRoot string

	// CacheMaxAge is the Cache-Control lifetime for static files. Data
	// files (*.json) always get no-store because refresh scripts rewrite
	// them in place.
	CacheMaxAge time.Duration
}

// StaticHandler serves dashboard assets from a fixed root directory. Request
// paths are normalized and checked against the root before any file is
// opened, so traversal sequences can never escape it.
type StaticHandler struct {
	webRoot     string
	cacheMaxAge time.Duration
}

// NewStaticHandler creates a static file handler rooted at opts.WebRoot.
func NewStaticHandler(opts StaticHandlerOptions) *StaticHandler {
	return &StaticHandler{
		webRoot:     filepath.Clean(opts.WebRoot),
		cacheMaxAge: opts.CacheMaxAge,
	}
}

func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		WriteError(w, ErrorParams{
			Code:    http.StatusMethodNotAllowed,
			ErrCode: "method_not_allowed",
			Err:     errors.New("method not allowed"),
		})
		return
	}

	reqPath := r.URL.Path
	if reqPath == "/" {
		reqPath = "/index.html"
	}

	full, ok := h.resolve(reqPath)
	if !ok {
		WriteAppError(w, apperrors.Forbidden("path is outside the web root"))
		return
	}

	h.serveFile(w, r, full)
}

// ServeFile serves a single named file from the web root, bypassing URL path
// mapping. Used for fixed pages like the login screen.
func (h *StaticHandler) ServeFile(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		full, ok := h.resolve("/" + name)
		if !ok {
			WriteAppError(w, apperrors.NotFound("page not found"))
			return
		}
		h.serveFile(w, r, full)
	}
}

// resolve maps a request path to a filesystem path confined to the web root.
// The second return is false when the path would escape the root.
func (h *StaticHandler) resolve(reqPath string) (string, bool) {
	// Reject raw traversal tokens before any cleaning so an encoded ".."
	// never reaches the filesystem layer.
	if strings.Contains(reqPath, "..") {
		return "", false
	}

	cleaned := path.Clean("/" + reqPath)
	full := filepath.Join(h.webRoot, filepath.FromSlash(cleaned))

	rel, err := filepath.Rel(h.webRoot, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return full, true
}

func (h *StaticHandler) serveFile(w http.ResponseWriter, r *http.Request, full string) {
	f, err := os.Open(full)
	if err != nil {
		WriteAppError(w, apperrors.NotFound("asset not found"))
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		WriteAppError(w, apperrors.NotFound("asset not found"))
		return
	}

	h.setHeaders(w, full)
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

func (h *StaticHandler) setHeaders(w http.ResponseWriter, full string) {
	ext := strings.ToLower(filepath.Ext(full))

	if ctype := mime.TypeByExtension(ext); ctype != "" {
		w.Header().Set("Content-Type", ctype)
	}

	// Dataset files are rewritten in place by the refresh scripts, so the
	// browser must revalidate them on every load.
	if ext == ".json" {
		w.Header().Set("Cache-Control", "no-store")
		return
	}
	w.Header().Set("Cache-Control", fmt.Sprintf("max-age=%d", int(h.cacheMaxAge.Seconds())))
}

// Stat reports whether the named file exists under the web root. Bootstrap
// uses it to warn about a missing index page at startup.
func (h *StaticHandler) Stat(name string) (fs.FileInfo, error) {
	full, ok := h.resolve("/" + name)
	if !ok {
		return nil, fs.ErrNotExist
	}
	return os.Stat(full)
}
