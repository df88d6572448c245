package deps

import (
	"fmt"
	"os"
	"strings"
)

// CheckPath reports whether path exists and has the expected kind. An empty
// path is reported as not configured.
func CheckPath(name, path string, wantDir bool) Status {
	status := Status{Name: name, Command: strings.TrimSpace(path)}
	if status.Command == "" {
		status.Detail = "path not configured"
		return status
	}
	info, err := os.Stat(status.Command)
	switch {
	case err != nil && os.IsNotExist(err):
		status.Detail = "does not exist"
	case err != nil:
		status.Detail = fmt.Sprintf("stat failed: %v", err)
	case wantDir && !info.IsDir():
		status.Detail = "not a directory"
	case !wantDir && info.IsDir():
		status.Detail = "is a directory"
	default:
		status.Available = true
	}
	return status
}
