package cli

import (
	"fmt"
	"io"

	"github.com/systemshift/gitlet/internal/vcs"
)

func renderLog(w io.Writer, commits []*vcs.Commit) {
	for _, c := range commits {
		io.WriteString(w, c.LogEntry())
	}
}

// renderStatus prints the five status sections. Every section but the last
// is followed by a blank line.
func renderStatus(w io.Writer, st *vcs.Status) {
	fmt.Fprintln(w, "=== Branches ===")
	for _, b := range st.Branches {
		if b == st.Current {
			fmt.Fprintf(w, "*%s\n", b)
		} else {
			fmt.Fprintln(w, b)
		}
	}
	fmt.Fprintln(w)

	renderSection(w, "Staged Files", st.Staged)
	fmt.Fprintln(w)
	renderSection(w, "Removed Files", st.Removed)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Modifications Not Staged For Commit ===")
	for _, m := range st.Unstaged {
		fmt.Fprintf(w, "%s (%s)\n", m.Path, m.Kind)
	}
	fmt.Fprintln(w)

	renderSection(w, "Untracked Files", st.Untracked)
}

func renderSection(w io.Writer, title string, paths []string) {
	fmt.Fprintf(w, "=== %s ===\n", title)
	for _, p := range paths {
		fmt.Fprintln(w, p)
	}
}
