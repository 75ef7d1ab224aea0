package bench

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"

	"github.com/mattn/go-sqlite3"
)

// bannerModules are the access layers whose versions the environment
// banner names, in print order.
var bannerModules = []string{
	"gorm.io/gorm",
	"github.com/beego/beego/v2",
	"github.com/mattn/go-sqlite3",
	"github.com/jackc/pgx/v5",
	"github.com/go-sql-driver/mysql",
}

// Banner writes the one-time environment block: runtime version, SQLite
// library version and the module versions of every access layer under
// test. Emitted before the first trial and excluded from timing.
func Banner(w io.Writer) {
	fmt.Fprintf(w, "Go: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)

	libVersion, _, _ := sqlite3.Version()
	fmt.Fprintf(w, "SQLite: %s\n", libVersion)

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	versions := make(map[string]string, len(info.Deps))
	for _, dep := range info.Deps {
		versions[dep.Path] = dep.Version
	}
	for _, path := range bannerModules {
		if v, found := versions[path]; found {
			fmt.Fprintf(w, "%s %s\n", path, v)
		}
	}
}
