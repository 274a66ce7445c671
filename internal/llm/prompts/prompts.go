package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"
)

// Templates holds the built-in writing assessment prompts.
//
//go:embed templates/*.txt
var Templates embed.FS

var (
	studentAnswerRegex      = regexp.MustCompile(`(?i)</?\s*student-answer\b[^>]*>`)
	systemInstructionsRegex = regexp.MustCompile(`(?i)</?\s*system-instructions\b[^>]*>`)
)

// maxResponseRunes bounds the response text sent to the model.
const maxResponseRunes = 10000

// PromptVariant represents an assessment prompt variant.
type PromptVariant string

const (
	// PromptStrict resolves borderline responses to the lower band.
	PromptStrict PromptVariant = "strict"
	// PromptStandard is the default assessment variant.
	PromptStandard PromptVariant = "standard"
	// PromptLenient resolves borderline responses to the higher band.
	PromptLenient PromptVariant = "lenient"
)

var validVariants = map[PromptVariant]bool{
	PromptStrict:   true,
	PromptStandard: true,
	PromptLenient:  true,
}

var (
	loadOnce         sync.Once
	loadErr          error
	writingTemplates map[PromptVariant]*template.Template
)

// IsValidVariant checks if a prompt variant name is valid.
func IsValidVariant(v string) bool {
	return validVariants[PromptVariant(v)]
}

// WritingData holds template data for writing assessment prompts.
type WritingData struct {
	TaskNumber int
	TaskPrompt string
	MinWords   int
	WordCount  int
	Response   string
}

// Load parses templates/writing_<variant>.txt from fsys once per process.
func Load(fsys fs.FS) error {
	loadOnce.Do(func() {
		writingTemplates = make(map[PromptVariant]*template.Template)
		for _, v := range []PromptVariant{PromptStrict, PromptStandard, PromptLenient} {
			file := "templates/writing_" + string(v) + ".txt"
			content, err := fs.ReadFile(fsys, file)
			if err != nil {
				loadErr = fmt.Errorf("read prompt file %s: %w", file, err)
				return
			}
			tmpl, err := template.New("writing").Parse(string(content))
			if err != nil {
				loadErr = fmt.Errorf("parse prompt template %s: %w", file, err)
				return
			}
			writingTemplates[v] = tmpl
		}
	})
	return loadErr
}

// BuildWritingPrompt renders the assessment prompt for one response.
func BuildWritingPrompt(variant PromptVariant, data WritingData) (string, error) {
	if writingTemplates == nil {
		return "", errors.New("templates not initialized: call Load first")
	}
	tmpl, ok := writingTemplates[variant]
	if !ok {
		if loadErr != nil {
			return "", fmt.Errorf("templates load failed: %w", loadErr)
		}
		return "", errors.New("invalid prompt variant: " + string(variant))
	}

	data.TaskPrompt = sanitize(data.TaskPrompt, "[No task prompt provided]")
	data.Response = sanitize(data.Response, "[No answer provided]")

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// sanitize strips the delimiter tags so a response cannot close its own
// block, and truncates overly long text.
func sanitize(text, empty string) string {
	text = studentAnswerRegex.ReplaceAllString(text, "")
	text = systemInstructionsRegex.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)

	if text == "" {
		return empty
	}

	if utf8.RuneCountInString(text) > maxResponseRunes {
		runes := []rune(text)
		text = string(runes[:maxResponseRunes]) + "\n\n[Answer truncated due to length]"
	}
	return text
}
