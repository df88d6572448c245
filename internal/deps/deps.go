package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement defines an external command optflow relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries evaluates the provided requirements and reports availability.
// Command may be a full command line; only its executable is resolved.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		binary, _, err := SplitCommand(cmd)
		if err != nil {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		resolved, err := exec.LookPath(binary)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", binary)
			results = append(results, status)
			continue
		}
		status.Available = true
		if resolved != binary {
			status.Detail = resolved
		}
		results = append(results, status)
	}
	return results
}
