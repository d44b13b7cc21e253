package cli

import (
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
)

// BackfillPrompt is shown before an initial fetch
const BackfillPrompt = "Using the initial fetch might result in duplicated records. Do you want to proceed? (yes/no)"

// Confirmer asks the operator a yes/no question
type Confirmer interface {
	Confirm(message string) (bool, error)
}

// SurveyConfirmer prompts on the terminal. Only a typed "yes" confirms.
type SurveyConfirmer struct {
	opts []survey.AskOpt
}

// NewSurveyConfirmer creates a terminal confirmer
func NewSurveyConfirmer(opts ...survey.AskOpt) *SurveyConfirmer {
	return &SurveyConfirmer{opts: opts}
}

// Confirm implements Confirmer
func (c *SurveyConfirmer) Confirm(message string) (bool, error) {
	var answer string
	prompt := &survey.Input{Message: message}
	if err := survey.AskOne(prompt, &answer, c.opts...); err != nil {
		return false, fmt.Errorf("confirmation prompt failed: %w", err)
	}
	return IsYes(answer), nil
}

// IsYes reports whether answer is "yes", ignoring case and surrounding space
func IsYes(answer string) bool {
	return strings.ToLower(strings.TrimSpace(answer)) == "yes"
}
