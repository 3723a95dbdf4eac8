//
// Copyright (C) 2025 AIFlowForge.  All rights reserved.
//
// AIFlowForge is licensed under the Apache License Version 2.0.
//
//

package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/chavannishanthrao/AIFlowForge/llm"
	"github.com/chavannishanthrao/AIFlowForge/log"
	"github.com/chavannishanthrao/AIFlowForge/skill"
)

// Service runs an agent against accumulated upstream output and returns
// the agent's result map. It is the Agent/LLM collaborator the workflow
// engine's agent executor consumes.
type Service interface {
	Run(ctx context.Context, agentID string, input map[string]any) (map[string]any, error)
}

var _ Service = (*Runner)(nil)

// Runner resolves agent records and drives the configured llm.Model.
type Runner struct {
	registry *Registry
	skills   *skill.Registry
	model    llm.Model
}

// NewRunner creates an agent runner. The skill registry may be nil when
// agents carry no skills.
func NewRunner(registry *Registry, skills *skill.Registry, model llm.Model) *Runner {
	return &Runner{registry: registry, skills: skills, model: model}
}

// Run executes the agent: its prompt settings and active skills form
// the system prompt, the input map is serialized as the user prompt.
func (r *Runner) Run(ctx context.Context, agentID string, input map[string]any) (map[string]any, error) {
	a, err := r.registry.Get(agentID)
	if err != nil {
		return nil, err
	}
	if !a.Active {
		return nil, fmt.Errorf("agent %s is not active", a.Name)
	}

	req := llm.Request{
		System: r.systemPrompt(a),
		Prompt: renderInput(input),
	}
	if model, ok := a.PromptSettings["model"].(string); ok {
		req.Model = model
	}
	if temp, ok := a.PromptSettings["temperature"].(float64); ok {
		req.Temperature = temp
	}
	resp, err := r.model.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	log.Debugf("agent %s responded using model %s", a.Name, resp.Model)
	return map[string]any{
		"agent_id":    a.ID,
		"agent_name":  a.Name,
		"response":    resp.Text,
		"model":       resp.Model,
		"executed_at": time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func (r *Runner) systemPrompt(a *Agent) string {
	var b strings.Builder
	if sys, ok := a.PromptSettings["system_prompt"].(string); ok && sys != "" {
		b.WriteString(sys)
	} else {
		b.WriteString("You are " + a.Name + ", an automation agent.")
	}
	if r.skills == nil {
		return b.String()
	}
	var names []string
	for _, id := range a.SkillIDs {
		if s, err := r.skills.Get(id); err == nil && s.Active {
			names = append(names, s.Name)
		}
	}
	if len(names) > 0 {
		b.WriteString("\nAvailable skills: ")
		b.WriteString(strings.Join(names, ", "))
	}
	return b.String()
}

func renderInput(input map[string]any) string {
	if len(input) == 0 {
		return "{}"
	}
	data, err := json.Marshal(input)
	if err != nil {
		return fmt.Sprintf("%v", input)
	}
	return string(data)
}
