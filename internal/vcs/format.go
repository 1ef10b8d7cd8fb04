package vcs

import (
	"fmt"
	"strings"
)

// LogEntry renders c the way log and global-log print it, including the
// trailing blank line.
func (c *Commit) LogEntry() string {
	var b strings.Builder
	b.WriteString("===\n")
	fmt.Fprintf(&b, "commit %s\n", c.ID)
	if c.IsMerge() {
		fmt.Fprintf(&b, "Merge: %s %s\n", c.Parents[0].Short(), c.Parents[1].Short())
	}
	fmt.Fprintf(&b, "Date: %s\n", c.Timestamp)
	b.WriteString(c.Message)
	b.WriteString("\n\n")
	return b.String()
}
