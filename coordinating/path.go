package coordinating

import (
	"fmt"
	"strings"
)

// ValidatePath accepts absolute node paths without empty segments or a trailing slash.
func ValidatePath(path string) error {
	if path == "/" {
		return nil
	}
	if !strings.HasPrefix(path, "/") || strings.HasSuffix(path, "/") || strings.Contains(path, "//") {
		return fmt.Errorf("%q is not an absolute node path", path)
	}
	return nil
}

func ParentPath(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx <= 0 {
		return "/"
	}
	return path[:idx]
}

// BaseName is the last segment of path, the name it is listed under by its parent.
func BaseName(path string) string {
	return path[strings.LastIndex(path, "/")+1:]
}

func JoinPath(parent, child string) string {
	if parent == "/" {
		return "/" + child
	}
	return parent + "/" + child
}
