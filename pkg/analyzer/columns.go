package analyzer

import (
	"fmt"
	"strings"
)

// Column roles a history table can carry
const (
	roleID        = "id"
	roleStatus    = "status"
	roleError     = "error"
	roleTimestamp = "timestamp"
)

var columnAliases = map[string][]string{
	roleID:        {"zap id", "zapid", "automation id", "zap"},
	roleStatus:    {"status", "run status", "task status", "state"},
	roleError:     {"error message", "error", "error details"},
	roleTimestamp: {"timestamp", "date", "time", "created at", "run at", "start time", "started at"},
}

var roleOrder = []string{roleID, roleStatus, roleError, roleTimestamp}

// Columns holds the header positions of a history table, -1 when absent
type Columns struct {
	ID        int
	Status    int
	Error     int
	Timestamp int
}

// IsHistory reports whether the table has the minimal column set
func (c Columns) IsHistory() bool {
	return c.ID >= 0 && c.Status >= 0
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.NewReplacer("_", " ", "-", " ").Replace(h)
	return strings.Join(strings.Fields(h), " ")
}

// DetectColumns maps header names onto column roles. The first matching column wins;
// later matches for the same role are reported as ambiguous.
func DetectColumns(header []string) (Columns, []string) {
	found := map[string]int{}
	var warnings []string

	for i, h := range header {
		name := normalizeHeader(h)
		for _, role := range roleOrder {
			if !matches(name, columnAliases[role]) {
				continue
			}
			if first, ok := found[role]; ok {
				warnings = append(warnings, fmt.Sprintf("ambiguous %s column: using %q, ignoring %q",
					role, header[first], h))
				break
			}
			found[role] = i
			break
		}
	}

	pos := func(role string) int {
		if i, ok := found[role]; ok {
			return i
		}
		return -1
	}
	return Columns{
		ID:        pos(roleID),
		Status:    pos(roleStatus),
		Error:     pos(roleError),
		Timestamp: pos(roleTimestamp),
	}, warnings
}

func matches(name string, aliases []string) bool {
	for _, a := range aliases {
		if name == a {
			return true
		}
	}
	return false
}
