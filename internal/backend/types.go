package backend

import (
	"fmt"
	"strings"
)

// AskRequest is the body of POST /ask-qa.
type AskRequest struct {
	Question string `json:"question"`
	Code     string `json:"code"`
	Stream   bool   `json:"stream,omitempty"`
}

type askResponse struct {
	Response string `json:"response"`
	Message  string `json:"message"`
	Answer   string `json:"answer"`
}

// text returns the first populated answer field.
func (r askResponse) text() string {
	switch {
	case r.Response != "":
		return r.Response
	case r.Message != "":
		return r.Message
	default:
		return r.Answer
	}
}

// ClaudeQARequest is the body of POST /claude-qa.
type ClaudeQARequest struct {
	Context  string `json:"context"`
	Question string `json:"question"`
}

type claudeQAResponse struct {
	Answer  string `json:"answer"`
	Content string `json:"content"`
}

// NoAnswer replaces an empty /claude-qa answer.
const NoAnswer = "No answer received."

func (r claudeQAResponse) text() string {
	switch {
	case r.Answer != "":
		return r.Answer
	case r.Content != "":
		return r.Content
	default:
		return NoAnswer
	}
}

// PromptTemplates are the starting prompts offered by the prompt explorer.
var PromptTemplates = []string{
	"Explain this code in simple terms.",
	"What does this function do?",
	"Summarize the logic of the following code.",
	"Convert this code into TypeScript.",
}

// RefactorMode selects what the backend optimizes for.
type RefactorMode string

const (
	ModeClean    RefactorMode = "clean"
	ModeOptimize RefactorMode = "optimize"
	ModeSecurity RefactorMode = "security"
	ModeModern   RefactorMode = "modern"
)

// ModeInfo describes a refactor mode.
type ModeInfo struct {
	Mode  RefactorMode
	Label string
}

// RefactorModes lists the supported modes in display order.
var RefactorModes = []ModeInfo{
	{ModeClean, "Readability"},
	{ModeOptimize, "Performance"},
	{ModeSecurity, "Security"},
	{ModeModern, "Modern Style"},
}

// SameLanguage keeps the input language.
const SameLanguage = "same"

// TargetLanguages lists the languages code may be translated to in modern mode.
var TargetLanguages = []string{
	SameLanguage, "Python", "JavaScript", "TypeScript", "Java", "C++", "Go", "Rust", "Ruby", "PHP",
}

// ParseMode validates a mode name.
func ParseMode(s string) (RefactorMode, error) {
	for _, m := range RefactorModes {
		if strings.EqualFold(string(m.Mode), s) {
			return m.Mode, nil
		}
	}
	return "", fmt.Errorf("unknown refactor mode %q (valid: clean, optimize, security, modern)", s)
}

// ParseTargetLanguage validates a target language name, case-insensitively.
func ParseTargetLanguage(s string) (string, error) {
	if s == "" {
		return SameLanguage, nil
	}
	for _, l := range TargetLanguages {
		if strings.EqualFold(l, s) {
			return l, nil
		}
	}
	return "", fmt.Errorf("unsupported target language %q", s)
}

// RefactorRequest is the body of POST /refactor.
type RefactorRequest struct {
	Code           string       `json:"code"`
	Mode           RefactorMode `json:"mode"`
	TargetLanguage string       `json:"target_language"`
}

// Normalize forces the target language to "same" unless the mode is modern.
func (r *RefactorRequest) Normalize() {
	if r.Mode != ModeModern || r.TargetLanguage == "" {
		r.TargetLanguage = SameLanguage
	}
}

type refactorResponse struct {
	Refactored string `json:"refactored"`
}

// GitOpsRequest is the body of POST /gitops. Either Instruction or
// ScenarioType is set.
type GitOpsRequest struct {
	Instruction  string `json:"instruction,omitempty"`
	ScenarioType string `json:"scenario_type,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	ExplainTerms bool   `json:"explain_terms"`
}

// GitOpsResult is the decoded /gitops response.
type GitOpsResult struct {
	Command             string   `json:"command"`
	GitCommand          string   `json:"git_command"`
	Summary             string   `json:"summary"`
	Suggestions         []string `json:"suggestions"`
	Steps               []string `json:"steps"`
	BeginnerExplanation string   `json:"beginner_explanation"`
	Warnings            []string `json:"warnings"`
}

// NoCommand is shown when the response carries nothing displayable.
const NoCommand = "No command generated."

// Display picks the text to show: command, then summary, then suggestions.
func (r *GitOpsResult) Display() string {
	switch {
	case r.Command != "":
		return r.Command
	case r.GitCommand != "":
		return r.GitCommand
	case r.Summary != "":
		return r.Summary
	case len(r.Suggestions) > 0:
		return strings.Join(r.Suggestions, "\n")
	default:
		return NoCommand
	}
}

// Warning joins the response warnings, or returns "".
func (r *GitOpsResult) Warning() string {
	return strings.Join(r.Warnings, "\n")
}

// Scenario is one entry of GET /git-scenarios.
type Scenario struct {
	Key   string
	Label string
}

type scenariosResponse struct {
	Scenarios map[string]string `json:"scenarios"`
}

// ScreenRequest is the body of POST /screen-assist. Frames go in
// ImageBase64List; single-shot mode uses ImageBase64.
type ScreenRequest struct {
	ImageBase64List []string `json:"image_base64_list,omitempty"`
	ImageBase64     string   `json:"image_base64,omitempty"`
	Query           string   `json:"query"`
	SessionID       string   `json:"session_id"`
	IsFinal         bool     `json:"is_final"`
}

// ScreenResult is the decoded /screen-assist response.
type ScreenResult struct {
	Analysis string `json:"analysis"`
	Simple   string `json:"simple"`
}

// NoAnalysis replaces an empty analysis.
const NoAnalysis = "No analysis."
