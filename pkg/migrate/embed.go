package migrate

import (
	"embed"
	"io/fs"
	"os"
)

//go:embed migrations/*.sql
var bundled embed.FS

// Embedded returns the migrations compiled into the binary, rooted so that
// files sit at the top level like they do under DefaultDir.
func Embedded() fs.FS {
	sub, err := fs.Sub(bundled, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// Dir exposes an on-disk migrations directory as an fs.FS.
func Dir(path string) fs.FS {
	return os.DirFS(path)
}

// Files lists the .sql files in src in apply order.
func Files(src fs.FS) ([]string, error) {
	return fs.Glob(src, "*.sql")
}
