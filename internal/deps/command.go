package deps

import (
	"errors"
	"strings"
)

// ErrEmptyCommand is returned when a configured command line has no tokens.
var ErrEmptyCommand = errors.New("command line is empty")

// SplitCommand tokenizes a command line on whitespace into the executable and
// its leading arguments. Quoting is not interpreted.
func SplitCommand(line string) (string, []string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil, ErrEmptyCommand
	}
	return fields[0], fields[1:], nil
}
