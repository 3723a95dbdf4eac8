//
// Copyright (C) 2025 AIFlowForge.  All rights reserved.
//
// AIFlowForge is licensed under the Apache License Version 2.0.
//
//

// Command aiflowforge runs the workflow execution platform: the HTTP
// API, the orchestration engine and the in-memory registries.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/chavannishanthrao/AIFlowForge/agent"
	"github.com/chavannishanthrao/AIFlowForge/connector"
	"github.com/chavannishanthrao/AIFlowForge/engine"
	"github.com/chavannishanthrao/AIFlowForge/execution"
	"github.com/chavannishanthrao/AIFlowForge/executor"
	"github.com/chavannishanthrao/AIFlowForge/llm"
	"github.com/chavannishanthrao/AIFlowForge/llm/openai"
	"github.com/chavannishanthrao/AIFlowForge/log"
	"github.com/chavannishanthrao/AIFlowForge/notify"
	"github.com/chavannishanthrao/AIFlowForge/server"
	"github.com/chavannishanthrao/AIFlowForge/skill"
	badgerstore "github.com/chavannishanthrao/AIFlowForge/storage/badger"
	"github.com/chavannishanthrao/AIFlowForge/telemetry/trace"
	"github.com/chavannishanthrao/AIFlowForge/workflow"
)

func main() {
	log.SetLevel(envString("LOG_LEVEL", "info"))

	ctx := context.Background()
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		clean, err := trace.Start(ctx, trace.WithEndpoint(endpoint))
		if err != nil {
			log.Warnf("telemetry disabled: %v", err)
		} else {
			defer func() {
				if err := clean(); err != nil {
					log.Warnf("telemetry shutdown: %v", err)
				}
			}()
		}
	}

	// Registries and services.
	workflows := workflow.NewRegistry()
	skills := skill.NewRegistry()
	agents := agent.NewRegistry()
	connectors := connector.NewRegistry()
	connSvc := connector.NewManager(connectors)

	var model llm.Model = &llm.Static{}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		model = openai.New(
			openai.WithAPIKey(key),
			openai.WithModel(envString("OPENAI_MODEL", "gpt-4o-mini")),
		)
		log.Infof("llm provider: openai")
	} else {
		log.Infof("llm provider: static (set OPENAI_API_KEY to enable openai)")
	}
	agentSvc := agent.NewRunner(agents, skills, model)

	registry := executor.NewRegistry()
	registry.Register(workflow.NodeTypeTrigger, executor.NewTrigger())
	registry.Register(workflow.NodeTypeConnector, executor.NewConnector(connSvc))
	registry.Register(workflow.NodeTypeAgent, executor.NewAgent(agentSvc))
	registry.Register(workflow.NodeTypeAction, executor.NewAction(notify.NewDispatcher()))
	registry.Register(workflow.NodeTypeCondition, executor.NewCondition())

	engineOpts := []engine.Option{
		engine.WithMaxConcurrentNodes(envInt("MAX_CONCURRENT_NODES", 4)),
		engine.WithMaxConcurrentExecutions(envInt("MAX_CONCURRENT_EXECUTIONS", 64)),
		engine.WithRunTimeout(envDuration("RUN_TIMEOUT", 10*time.Minute)),
	}
	if dir := os.Getenv("SNAPSHOT_DIR"); dir != "" {
		snapshots, err := badgerstore.Open(dir)
		if err != nil {
			log.Fatalf("open snapshot store: %v", err)
		}
		defer func() {
			if err := snapshots.Close(); err != nil {
				log.Warnf("close snapshot store: %v", err)
			}
		}()
		engineOpts = append(engineOpts, engine.WithSnapshotStore(snapshots))
		log.Infof("execution snapshots enabled at %s", dir)
	}
	eng := engine.New(execution.NewStore(), registry, engineOpts...)

	srv := server.New(eng, workflows,
		server.WithSkillRegistry(skills),
		server.WithAgentRegistry(agents),
		server.WithConnectorRegistry(connectors, connSvc),
	)

	addr := ":" + envString("PORT", "8080")
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      srv.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("aiflowforge listening on %s", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server: %v", err)
		}
	case sig := <-stop:
		log.Infof("received %s, shutting down", sig)
		shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Errorf("shutdown: %v", err)
		}
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warnf("invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Warnf("invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}
