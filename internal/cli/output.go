// # Naming Conventions
//
// Functions in this package follow consistent naming patterns based on their behavior:
//
//   - Display* functions write formatted output to an [io.Writer].
//     Examples: [DisplayProgress].
//
//   - Format* and Colorize functions return a string without performing I/O.
//
//   - Write* functions write data to files on the filesystem.
//     They handle file creation, directory setup, and error handling.
//     Examples: [WriteLogToFile], [WriteSweepToFile].

package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/agbru/narrowfind/internal/orchestration"
)

// WriteLogToFile writes the full output log of a search to path, preceded by
// a commented header. An empty path writes nothing.
//
// Parameters:
//   - path: The destination file.
//   - o: The outcome to record.
//
// Returns:
//   - error: An error if the file cannot be written.
func WriteLogToFile(path string, o orchestration.Outcome) error {
	return writeFile(path, func(w io.Writer) {
		fmt.Fprintf(w, "# narrowfind search log\n")
		fmt.Fprintf(w, "# Generated: %s\n", time.Now().Format(time.RFC3339))
		writeOutcome(w, o)
	})
}

// WriteSweepToFile writes the output logs of every search of a sweep to path.
func WriteSweepToFile(path string, outcomes []orchestration.Outcome) error {
	return writeFile(path, func(w io.Writer) {
		fmt.Fprintf(w, "# narrowfind sweep log\n")
		fmt.Fprintf(w, "# Generated: %s\n", time.Now().Format(time.RFC3339))
		fmt.Fprintf(w, "# Searches: %d\n", len(outcomes))
		for _, o := range outcomes {
			fmt.Fprintln(w)
			writeOutcome(w, o)
		}
	})
}

func writeOutcome(w io.Writer, o orchestration.Outcome) {
	fmt.Fprintf(w, "# Run: %s\n", o.ID)
	fmt.Fprintf(w, "# Group: %s, Left: %s, Right: %s, Tolerance: %s\n",
		o.Fields.GroupPos, o.Fields.LeftBound, o.Fields.RightBound, o.Fields.Tolerance)
	fmt.Fprintf(w, "# Duration: %s\n", o.Duration)
	if o.Err != nil {
		fmt.Fprintf(w, "# Error: %v\n", o.Err)
	}
	if o.LinesDropped > 0 {
		fmt.Fprintf(w, "# Lines omitted: %d (only the header and the last %d are kept)\n",
			o.LinesDropped, orchestration.MaxRecordedLines-1)
	}
	fmt.Fprintln(w)
	for _, line := range o.Report.Lines() {
		fmt.Fprintln(w, line)
	}
	for _, line := range o.Lines {
		fmt.Fprintln(w, line)
	}
}

func writeFile(path string, body func(io.Writer)) error {
	if path == "" {
		return nil
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	w := bufio.NewWriter(file)
	body(w)
	if err := w.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return file.Close()
}
