package agents

import (
	"sort"
	"strings"

	"tradeanalysis/internal/adapters/ai"
	"tradeanalysis/pkg/errors"
	"tradeanalysis/pkg/templates"
)

const (
	orchestratorSystemTemplate = "agents/orchestrator_system"
	synthesisRequestTemplate   = "agents/synthesis_request"
)

func systemTemplate(name AgentName) string  { return "agents/" + string(name) + "_system" }
func requestTemplate(name AgentName) string { return "agents/" + string(name) + "_request" }

// Prompts renders agent conversations from the template registry.
type Prompts struct {
	templates *templates.Registry
}

// NewPrompts checks that every template the agents need is present and
// names all missing ones at once.
func NewPrompts(registry *templates.Registry) (*Prompts, error) {
	if registry == nil {
		return nil, errors.Wrap(errors.ErrInvalidInput, "template registry is required")
	}

	ids := []string{orchestratorSystemTemplate, synthesisRequestTemplate}
	for _, name := range RequiredAgents {
		ids = append(ids, systemTemplate(name), requestTemplate(name))
	}

	known := registry.List()
	var missing []string
	for _, id := range ids {
		if i := sort.SearchStrings(known, id); i == len(known) || known[i] != id {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, errors.Wrapf(errors.ErrInvalidConfig, "missing prompt templates: %s", strings.Join(missing, ", "))
	}

	return &Prompts{templates: registry}, nil
}

// Specialist builds the system and user messages for one specialist.
func (p *Prompts) Specialist(name AgentName, query Query) ([]ai.Message, error) {
	system, err := p.templates.Render(systemTemplate(name), nil)
	if err != nil {
		return nil, errors.Wrapf(err, "render %s instructions", name)
	}

	request, err := p.templates.Render(requestTemplate(name), struct{ Query Query }{query})
	if err != nil {
		return nil, errors.Wrapf(err, "render %s request", name)
	}

	return []ai.Message{ai.SystemMessage(system), ai.UserMessage(request)}, nil
}

type synthesisSection struct {
	Title string
	Text  string
}

// Synthesis builds the orchestrator conversation from the collected results.
// Required perspectives come first in their fixed order, any extra sources
// follow sorted by name.
func (p *Prompts) Synthesis(query Query, results map[AgentName]AnalysisResult) ([]ai.Message, error) {
	system, err := p.templates.Render(orchestratorSystemTemplate, nil)
	if err != nil {
		return nil, errors.Wrap(err, "render orchestrator instructions")
	}

	data := struct {
		Query    Query
		Sections []synthesisSection
	}{Query: query}
	for _, name := range sectionOrder(results) {
		data.Sections = append(data.Sections, synthesisSection{
			Title: strings.ToUpper(string(name)),
			Text:  results[name].Text,
		})
	}

	request, err := p.templates.Render(synthesisRequestTemplate, data)
	if err != nil {
		return nil, errors.Wrap(err, "render synthesis request")
	}

	return []ai.Message{ai.SystemMessage(system), ai.UserMessage(request)}, nil
}

func sectionOrder(results map[AgentName]AnalysisResult) []AgentName {
	order := make([]AgentName, 0, len(results))
	required := make(map[AgentName]bool, len(RequiredAgents))
	for _, name := range RequiredAgents {
		required[name] = true
		if _, ok := results[name]; ok {
			order = append(order, name)
		}
	}

	var extra []AgentName
	for name := range results {
		if !required[name] {
			extra = append(extra, name)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })

	return append(order, extra...)
}
