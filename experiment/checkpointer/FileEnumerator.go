package checkpointer

import (
	"fmt"
	"strings"
)

// FilenameEnumerator returns a function which returns filenames with
// an increasing integer suffix, starting at start+1. The filename
// parameter is the full filename with its path, and extension is the
// file extension, with or without its leading dot. For example,
// FilenameEnumerator(0, "runs/weights", "bin") returns a function that
// produces runs/weights1.bin, runs/weights2.bin, and so on.
func FilenameEnumerator(start int, filename, extension string) func() string {
	if extension != "" && !strings.HasPrefix(extension, ".") {
		extension = "." + extension
	}

	i := start
	return func() string {
		i++
		return fmt.Sprintf("%v%v%v", filename, i, extension)
	}
}
