// ABOUTME: Menu machine offering numbered options to pick from
// ABOUTME: An Input whose filter accepts an option number or its label

package machines

import (
	"fmt"
	"strconv"
	"strings"
)

// Menu is an Input restricted to a fixed list of options.
type Menu struct {
	*Input
}

// NewMenu builds a menu. The question is followed by one numbered line per
// option and the stored value is the chosen label.
func NewMenu(bot Bot, options []string, opts InputOptions) (*Menu, error) {
	if len(options) == 0 {
		return nil, fmt.Errorf("menu needs at least one option")
	}

	lines := []string{opts.Question}
	for i, option := range options {
		lines = append(lines, fmt.Sprintf("%d) %s", i+1, option))
	}
	opts.Question = strings.Join(lines, "\n")
	if opts.OnRetry == "" {
		opts.OnRetry = fmt.Sprintf("Please pick a number between 1 and %d", len(options))
	}
	opts.Filter = optionFilter(options)
	opts.Mask, opts.Regex = "", ""

	input, err := NewInput(bot, opts)
	if err != nil {
		return nil, err
	}
	return &Menu{Input: input}, nil
}

func optionFilter(options []string) Filter {
	return func(text string) (string, error) {
		text = strings.TrimSpace(text)
		if n, err := strconv.Atoi(strings.TrimSuffix(text, ")")); err == nil {
			if n >= 1 && n <= len(options) {
				return options[n-1], nil
			}
			return "", fmt.Errorf("%w: option %d out of range", ErrValidation, n)
		}
		for _, option := range options {
			if strings.EqualFold(option, text) {
				return option, nil
			}
		}
		return "", fmt.Errorf("%w: %q", ErrValidation, text)
	}
}
