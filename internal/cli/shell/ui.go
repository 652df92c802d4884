package shell

import (
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
)

// ErrAborted is returned by a UI when the user interrupts a prompt
var ErrAborted = errors.New("aborted")

// UI is the interactive input used by Run
type UI interface {
	Select(label string, items []string) (int, error)
	Input(label, defaultValue string, secret bool) (string, error)
}

// PromptUI implements UI on a terminal with promptui
type PromptUI struct{}

func (PromptUI) Select(label string, items []string) (int, error) {
	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "> {{ . | cyan }}",
		Inactive: "  {{ . }}",
		Selected: "{{ . | green }}",
	}

	prompt := promptui.Select{
		Label:     label,
		Items:     items,
		Templates: templates,
		Size:      10,
	}

	index, _, err := prompt.Run()
	if err != nil {
		return 0, promptError(err)
	}
	return index, nil
}

func (PromptUI) Input(label, defaultValue string, secret bool) (string, error) {
	prompt := promptui.Prompt{
		Label:   label,
		Default: defaultValue,
		Validate: func(s string) error {
			if s == "" {
				return fmt.Errorf("%s is required", label)
			}
			return nil
		},
	}
	if secret {
		prompt.Mask = '*'
	}

	value, err := prompt.Run()
	if err != nil {
		return "", promptError(err)
	}
	return value, nil
}

func promptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
		return ErrAborted
	}
	return fmt.Errorf("prompt failed: %w", err)
}
