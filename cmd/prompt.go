package cmd

import (
	"errors"

	"github.com/charmbracelet/huh"
)

// errWizardAborted is returned when the user leaves a form with Ctrl-C or Esc.
var errWizardAborted = errors.New("aborted")

// SelectOption is one entry of a select prompt.
type SelectOption[T any] struct {
	Label string
	Value T
}

// filterThreshold: lists longer than this get type-to-filter.
const filterThreshold = 5

func runField(field huh.Field) error {
	err := huh.NewForm(huh.NewGroup(field)).WithShowHelp(true).Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return errWizardAborted
	}
	return err
}

// promptString asks for a line of text. An empty answer returns defaultVal,
// which is shown as the placeholder.
func promptString(title, description, defaultVal string) (string, error) {
	var value string
	inp := huh.NewInput().Title(title).Value(&value)
	if description != "" {
		inp = inp.Description(description)
	}
	if defaultVal != "" {
		inp = inp.Placeholder(defaultVal)
	}
	if err := runField(inp); err != nil {
		return "", err
	}
	if value == "" {
		return defaultVal, nil
	}
	return value, nil
}

// promptPassword asks for a secret without echoing it.
func promptPassword(title, description string) (string, error) {
	var value string
	inp := huh.NewInput().Title(title).EchoMode(huh.EchoModePassword).Value(&value)
	if description != "" {
		inp = inp.Description(description)
	}
	if err := runField(inp); err != nil {
		return "", err
	}
	return value, nil
}

func promptSelect[T comparable](title, description string, options []SelectOption[T], defaultIdx int) (T, error) {
	var value T
	opts := make([]huh.Option[T], len(options))
	for i, opt := range options {
		opts[i] = huh.NewOption(opt.Label, opt.Value).Selected(i == defaultIdx)
	}

	sel := huh.NewSelect[T]().Title(title).Options(opts...).Value(&value)
	if description != "" {
		sel = sel.Description(description)
	}
	if len(options) > filterThreshold {
		sel = sel.Filtering(true)
	}
	if err := runField(sel); err != nil {
		var zero T
		return zero, err
	}
	return value, nil
}

func promptMultiSelect[T comparable](title, description string, options []SelectOption[T], preselected []T) ([]T, error) {
	chosen := make(map[T]bool, len(preselected))
	for _, v := range preselected {
		chosen[v] = true
	}
	opts := make([]huh.Option[T], len(options))
	for i, opt := range options {
		opts[i] = huh.NewOption(opt.Label, opt.Value).Selected(chosen[opt.Value])
	}

	var values []T
	ms := huh.NewMultiSelect[T]().Title(title).Options(opts...).Value(&values)
	if description != "" {
		ms = ms.Description(description)
	}
	if len(options) > filterThreshold {
		ms = ms.Filtering(true)
	}
	if err := runField(ms); err != nil {
		return nil, err
	}
	return values, nil
}

func promptConfirm(title string, defaultYes bool) (bool, error) {
	value := defaultYes
	c := huh.NewConfirm().Title(title).Affirmative("Yes").Negative("No").Value(&value)
	if err := runField(c); err != nil {
		return false, err
	}
	return value, nil
}
