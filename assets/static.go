package assets

import (
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/lemmi/glubapi/backend"
)

// Files serves the files of a backend like http.FileServer, but without
// directory listings and without anything below a dot file or dot
// directory. Files also implements http.FileSystem.
type Files struct {
	fs   backend.Backend
	root string
}

func NewFiles(b backend.Backend) Files {
	return Files{fs: b, root: "/"}
}

// Sub returns Files rooted at dir.
func (f Files) Sub(dir string) Files {
	f.root = path.Join(f.root, path.Clean("/"+dir))
	return f
}

func (f Files) Open(name string) (http.File, error) {
	name = path.Clean("/" + name)
	for _, part := range strings.Split(name, "/") {
		if strings.HasPrefix(part, ".") {
			return nil, &os.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
		}
	}
	return f.fs.Open(path.Join(f.root, name))
}

func (f Files) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	file, err := f.Open(r.URL.Path)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer file.Close()
	stat, err := file.Stat()
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if stat.IsDir() {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeContent(w, r, stat.Name(), stat.ModTime(), file)
}
