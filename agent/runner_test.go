//
// Copyright (C) 2025 AIFlowForge.  All rights reserved.
//
// AIFlowForge is licensed under the Apache License Version 2.0.
//
//

package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chavannishanthrao/AIFlowForge/llm"
	"github.com/chavannishanthrao/AIFlowForge/skill"
)

type recordingModel struct {
	lastReq llm.Request
	resp    *llm.Response
	err     error
}

func (m *recordingModel) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

func TestRunnerRun(t *testing.T) {
	agents := NewRegistry()
	skills := skill.NewRegistry()
	model := &recordingModel{resp: &llm.Response{Text: "14 deals look healthy", Model: "gpt-4o-mini"}}

	sk := skills.Create(skill.Skill{Name: "Deal Analysis", Type: skill.TypeAnalysis, Active: true})
	a := agents.Create(Agent{
		Name:     "Deal Reviewer",
		SkillIDs: []string{sk.ID},
		PromptSettings: map[string]any{
			"system_prompt": "You review sales pipelines.",
			"model":         "gpt-4o-mini",
			"temperature":   0.2,
		},
		Active: true,
	})

	r := NewRunner(agents, skills, model)
	out, err := r.Run(context.Background(), a.ID, map[string]any{"records": 15})
	require.NoError(t, err)

	assert.Equal(t, a.ID, out["agent_id"])
	assert.Equal(t, "Deal Reviewer", out["agent_name"])
	assert.Equal(t, "14 deals look healthy", out["response"])
	assert.Equal(t, "gpt-4o-mini", out["model"])
	assert.NotEmpty(t, out["executed_at"])

	assert.Equal(t, "gpt-4o-mini", model.lastReq.Model)
	assert.Equal(t, 0.2, model.lastReq.Temperature)
	assert.Contains(t, model.lastReq.System, "You review sales pipelines.")
	assert.Contains(t, model.lastReq.System, "Deal Analysis")
	assert.Contains(t, model.lastReq.Prompt, "\"records\":15")
}

func TestRunnerDefaultSystemPrompt(t *testing.T) {
	agents := NewRegistry()
	model := &recordingModel{resp: &llm.Response{Text: "ok", Model: "static"}}
	a := agents.Create(Agent{Name: "Bare Agent", Active: true})

	r := NewRunner(agents, nil, model)
	_, err := r.Run(context.Background(), a.ID, nil)
	require.NoError(t, err)
	assert.Contains(t, model.lastReq.System, "Bare Agent")
	assert.Equal(t, "{}", model.lastReq.Prompt)
}

func TestRunnerSkipsInactiveSkills(t *testing.T) {
	agents := NewRegistry()
	skills := skill.NewRegistry()
	model := &recordingModel{resp: &llm.Response{Text: "ok", Model: "static"}}

	dormant := skills.Create(skill.Skill{Name: "Dormant", Type: skill.TypeAutomation, Active: false})
	a := agents.Create(Agent{Name: "Agent", SkillIDs: []string{dormant.ID}, Active: true})

	r := NewRunner(agents, skills, model)
	_, err := r.Run(context.Background(), a.ID, nil)
	require.NoError(t, err)
	assert.NotContains(t, model.lastReq.System, "Dormant")
}

func TestRunnerErrors(t *testing.T) {
	agents := NewRegistry()
	model := &recordingModel{resp: &llm.Response{Text: "ok", Model: "static"}}
	r := NewRunner(agents, nil, model)
	ctx := context.Background()

	_, err := r.Run(ctx, "missing", nil)
	assert.ErrorIs(t, err, ErrNotFound)

	inactive := agents.Create(Agent{Name: "Paused", Active: false})
	_, err = r.Run(ctx, inactive.ID, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not active")

	model.err = errors.New("LLM unavailable")
	active := agents.Create(Agent{Name: "Live", Active: true})
	_, err = r.Run(ctx, active.ID, nil)
	require.Error(t, err)
	assert.Equal(t, "LLM unavailable", err.Error())
}

func TestRegistryDefaultsMemoryPolicy(t *testing.T) {
	agents := NewRegistry()
	a := agents.Create(Agent{Name: "Agent"})
	assert.Equal(t, MemorySession, a.MemoryPolicy)
}
