package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/classifier.txt
	classifierRaw string

	//go:embed template/askme.txt
	askMeRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Classifier string
	AskMe      string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Classifier: strings.TrimSpace(classifierRaw),
		AskMe:      strings.TrimSpace(askMeRaw),
	}
}
