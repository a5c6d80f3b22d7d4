package cli

import (
	"errors"
	"fmt"
	"io"
)

// PreflightError reports a condition the user can fix before retrying.
type PreflightError struct {
	Message  string
	Hint     string
	NextStep string
}

func (e *PreflightError) Error() string {
	return e.Message
}

func printError(out io.Writer, err error) {
	fmt.Fprintf(out, "Error: %v\n", err)
	var pre *PreflightError
	if errors.As(err, &pre) {
		if pre.Hint != "" {
			fmt.Fprintf(out, "Hint: %s\n", pre.Hint)
		}
		if pre.NextStep != "" {
			fmt.Fprintf(out, "Next: %s\n", pre.NextStep)
		}
	}
}
