package chat

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// planPlaceholder is substituted with the upper-cased plan tier when the
// system instruction is rendered.
const planPlaceholder = "{{PLAN}}"

// Persona defines the assistant's system prompt. The prompt may reference
// the user's plan tier via {{PLAN}}.
type Persona struct {
	Name         string `yaml:"name"`
	SystemPrompt string `yaml:"system_prompt"`
}

// DefaultPersona is the TradeLM trading-analyst persona.
func DefaultPersona() *Persona {
	return &Persona{
		Name: "tradelm-analyst",
		SystemPrompt: `You are TradeLM, an expert AI Trading Analyst. Your persona is professional,
data-driven, and focused on helping the user improve their trading performance.
The user's current plan is: {{PLAN}}.
If the user asks an analytical question (e.g., 'What is my win rate?', 'Why did I lose money?'),
you MUST use the available tool: 'get_user_trade_summary' to gather data
before generating your final answer.`,
	}
}

// LoadPersona reads a persona from a YAML file.
func LoadPersona(path string) (*Persona, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading persona %s: %w", path, err)
	}

	var p Persona
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing persona %s: %w", path, err)
	}
	if p.SystemPrompt == "" {
		return nil, fmt.Errorf("persona %s has no system_prompt", path)
	}
	return &p, nil
}

// Instruction renders the system instruction for the given plan tier.
func (p *Persona) Instruction(plan string) string {
	return strings.ReplaceAll(p.SystemPrompt, planPlaceholder, strings.ToUpper(plan))
}
