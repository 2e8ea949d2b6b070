package task

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"taskhub/internal/domain"
)

const dueDateLayout = "2006-01-02"

// Summarize describes what changed between before and after, one clause per field in the
// order status, assignee, priority, due date. names resolves assignee ids to display names.
func Summarize(before, after *domain.Task, names map[uuid.UUID]string) string {
	var clauses []string

	if before.Status != after.Status {
		clauses = append(clauses, fmt.Sprintf("Status changed from %s to %s.", before.Status, after.Status))
	}
	if !sameAssignee(before.AssignedTo, after.AssignedTo) {
		clauses = append(clauses, fmt.Sprintf("Assigned from %s to %s.",
			assigneeName(before.AssignedTo, names), assigneeName(after.AssignedTo, names)))
	}
	if before.Priority != after.Priority {
		clauses = append(clauses, fmt.Sprintf("Priority changed from %s to %s.", before.Priority, after.Priority))
	}
	if !sameDay(before.DueDate, after.DueDate) {
		clauses = append(clauses, fmt.Sprintf("Due date changed from %s to %s.",
			formatDueDate(before.DueDate), formatDueDate(after.DueDate)))
	}

	details := fmt.Sprintf("Task %q updated.", after.Title)
	if len(clauses) > 0 {
		details += " " + strings.Join(clauses, " ")
	}
	return details
}

func sameAssignee(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func sameDay(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return formatDueDate(a) == formatDueDate(b)
}

func assigneeName(id *uuid.UUID, names map[uuid.UUID]string) string {
	if id == nil {
		return domain.Unassigned
	}
	if name, ok := names[*id]; ok {
		return name
	}
	return domain.PlaceholderUser
}

func formatDueDate(t *time.Time) string {
	if t == nil {
		return "none"
	}
	return t.UTC().Format(dueDateLayout)
}
