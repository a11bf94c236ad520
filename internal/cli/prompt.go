package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/coworking-reservation/internal/model"
	"github.com/iliyamo/coworking-reservation/internal/policy"
)

// errAbort is returned by prompts when the user types CANCEL.
var errAbort = errors.New("aborted by user")

// cancelWord leaves a selection prompt without doing anything.
const cancelWord = "CANCEL"

// prompter reads answers line by line.  End of input surfaces as io.EOF
// from every method.
type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func (p *prompter) printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}

func (p *prompter) println(args ...any) {
	fmt.Fprintln(p.out, args...)
}

// line prints prompt and returns the next input line, trimmed.
func (p *prompter) line(prompt string) (string, error) {
	p.printf("%s", prompt)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(p.in.Text()), nil
}

// nonEmpty asks until the answer has at least one non-space character.
func (p *prompter) nonEmpty(prompt string) (string, error) {
	for {
		v, err := p.line(prompt)
		if err != nil {
			return "", err
		}
		if v != "" {
			return v, nil
		}
		p.println("! The value cannot be empty or blank.")
	}
}

// integer asks until the answer is a whole number of at least min.
func (p *prompter) integer(prompt string, min int) (int, error) {
	for {
		v, err := p.line(prompt)
		if err != nil {
			return 0, err
		}
		n, convErr := strconv.Atoi(v)
		switch {
		case convErr != nil:
			p.println("! Enter a valid number.")
		case n < min:
			p.printf("! The value must be at least %d.\n", min)
		default:
			return n, nil
		}
	}
}

// date asks for an mm-dd-yyyy date.  With allowEmpty an empty answer
// yields today.
func (p *prompter) date(prompt string, allowEmpty bool, today time.Time) (time.Time, error) {
	for {
		v, err := p.line(prompt)
		if err != nil {
			return time.Time{}, err
		}
		if v == "" && allowEmpty {
			return today, nil
		}
		d, parseErr := time.Parse(policy.DisplayLayout, v)
		if parseErr == nil {
			return model.DateOf(d), nil
		}
		p.println("! Invalid format. Use mm-dd-yyyy (for example 12-25-2026).")
	}
}

// confirm reads a yes/no answer.  Y and S count as yes.
func (p *prompter) confirm(prompt string) (bool, error) {
	v, err := p.line(prompt)
	if err != nil {
		return false, err
	}
	switch strings.ToUpper(v) {
	case "Y", "YES", "S", "SI", "SÍ":
		return true, nil
	}
	return false, nil
}

// selection reads answers until valid accepts one.  CANCEL returns
// errAbort.
func (p *prompter) selection(prompt string, valid func(string) bool, onInvalid func()) (string, error) {
	for {
		v, err := p.line(prompt)
		if err != nil {
			return "", err
		}
		if strings.EqualFold(v, cancelWord) {
			return "", errAbort
		}
		if valid(v) {
			return v, nil
		}
		onInvalid()
	}
}

func rule() string { return strings.Repeat("-", 80) }

func formatDate(d time.Time) string { return d.Format(policy.DisplayLayout) }
