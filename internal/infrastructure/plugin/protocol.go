// Package plugin manages plugin process lifecycles and interprets the
// line-oriented call protocol plugins speak over their standard
// output/input pipes.
package plugin

import (
	"fmt"
	"strings"

	"github.com/doeshing/dirsh/internal/domain"
)

// Shell-side API verbs a plugin may emit on its standard output. One
// line is one call: a verb followed by space-separated arguments, with
// single or double quotes around arguments containing spaces.
const (
	verbShowError      = "showerror"
	verbShowOutput     = "showoutput"
	verbSetOption      = "setoption"
	verbRemoveOption   = "removeoption"
	verbGetOption      = "getoption"
	verbAnswer         = "answer"
	verbAddCommand     = "addcommand"
	verbDeleteCommand  = "deletecommand"
	verbReplaceCommand = "replacecommand"
	verbAddHelp        = "addhelp"
	verbDeleteHelp     = "deletehelp"
	verbUpdateHelp     = "updatehelp"
)

// parseCall splits one protocol line into a lower-cased verb and its
// arguments. Quotes group words; the quote characters themselves are
// stripped. An unterminated quote makes the line malformed.
func parseCall(line string) (string, []string, error) {
	tokens, err := splitQuoted(line)
	if err != nil {
		return "", nil, err
	}
	if len(tokens) == 0 {
		return "", nil, fmt.Errorf("empty call: %w", domain.ErrProtocolViolation)
	}
	return strings.ToLower(tokens[0]), tokens[1:], nil
}

func splitQuoted(line string) ([]string, error) {
	var tokens []string
	var current strings.Builder
	inToken := false
	var quote byte

	flush := func() {
		if inToken {
			tokens = append(tokens, current.String())
			current.Reset()
			inToken = false
		}
	}

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			} else {
				current.WriteByte(c)
			}
		case c == '\'' || c == '"':
			quote = c
			inToken = true
		case c == ' ' || c == '\t':
			flush()
		default:
			current.WriteByte(c)
			inToken = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote: %w", domain.ErrProtocolViolation)
	}
	flush()
	return tokens, nil
}

func requireArgs(verb string, args []string, min int) error {
	if len(args) < min {
		return fmt.Errorf("%s needs %d argument(s): %w", verb, min, domain.ErrProtocolViolation)
	}
	return nil
}
