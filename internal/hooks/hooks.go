// Package hooks implements the stdin-JSON, environment-variable-driven
// hook surface: a host agent runtime (the Claude Code hook convention)
// invokes the driver once per lifecycle event, passing the event payload
// on stdin and naming the event and scope via MEMLAYER_* environment
// variables.
package hooks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/untoldecay/memlayer/internal/ingestion"
	"github.com/untoldecay/memlayer/internal/log"
	"github.com/untoldecay/memlayer/internal/model"
	"github.com/untoldecay/memlayer/internal/retrieval"
)

// Event names the driver dispatches on, read from MEMLAYER_HOOK_EVENT.
const (
	EventSessionStart     = "SessionStart"
	EventUserPromptSubmit = "UserPromptSubmit"
	EventPostToolUse      = "PostToolUse"
	EventPreCompact       = "PreCompact"
	EventStop             = "Stop"
)

// envelope is the loosely-typed payload shape the driver reads from
// stdin; host runtimes vary in which fields they populate.
type envelope struct {
	SessionID      string          `json:"session_id"`
	Prompt         string          `json:"prompt"`
	ToolName       string          `json:"tool_name"`
	ToolInput      json.RawMessage `json:"tool_input"`
	ToolOutput     json.RawMessage `json:"tool_output"`
	TranscriptPath string          `json:"transcript_path"`
}

// Driver runs the core ingestion/retrieval operations a hook event implies.
type Driver struct {
	ingest   *ingestion.Engine
	retrieve *retrieval.Engine
	log      *zap.Logger
}

// New builds a hook Driver.
func New(ing *ingestion.Engine, ret *retrieval.Engine) *Driver {
	return &Driver{ingest: ing, retrieve: ret, log: log.Component("hooks")}
}

// ScopeFromEnv builds a Scope from the MEMLAYER_* environment variables;
// only TenantID and WorkspaceID are required.
func ScopeFromEnv() model.Scope {
	return model.Scope{
		TenantID:    os.Getenv("MEMLAYER_TENANT_ID"),
		WorkspaceID: os.Getenv("MEMLAYER_WORKSPACE_ID"),
		RepoID:      os.Getenv("MEMLAYER_REPO_ID"),
		SessionID:   os.Getenv("MEMLAYER_SESSION_ID"),
		TaskID:      os.Getenv("MEMLAYER_TASK_ID"),
		UserID:      os.Getenv("MEMLAYER_USER_ID"),
		Module:      os.Getenv("MEMLAYER_MODULE"),
		Environment: os.Getenv("MEMLAYER_ENVIRONMENT"),
	}
}

// Run reads one event payload from r, dispatches on event, and writes any
// driver output (UserPromptSubmit's context lines) to w.
func (d *Driver) Run(ctx context.Context, event string, r io.Reader, w io.Writer) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("hooks: reading event payload: %w", err)
	}
	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			return fmt.Errorf("hooks: decoding event payload: %w", err)
		}
	}
	scope := ScopeFromEnv()

	switch event {
	case EventSessionStart:
		return d.sessionStart(ctx, scope, raw)
	case EventUserPromptSubmit:
		return d.userPromptSubmit(ctx, scope, env, raw, w)
	case EventPostToolUse:
		return d.postToolUse(ctx, scope, env, raw)
	case EventPreCompact:
		return d.preCompact(ctx, scope, env)
	case EventStop:
		return d.stop(ctx, scope, env)
	default:
		return fmt.Errorf("hooks: unknown event %q", event)
	}
}

func (d *Driver) sessionStart(ctx context.Context, scope model.Scope, raw []byte) error {
	key := ""
	if scope.SessionID != "" {
		key = scope.SessionID + ":session_start"
	}
	_, err := d.ingest.UpsertEvent(ctx, scope, raw, key, false, scope.SessionID)
	if err != nil {
		return fmt.Errorf("hooks: session_start: %w", err)
	}
	return nil
}

func (d *Driver) userPromptSubmit(ctx context.Context, scope model.Scope, env envelope, raw []byte, w io.Writer) error {
	if _, err := d.ingest.UpsertEvent(ctx, scope, raw, "", true, scope.SessionID); err != nil {
		return fmt.Errorf("hooks: user_prompt_submit ingest: %w", err)
	}
	if env.Prompt == "" {
		return nil
	}

	result, err := d.retrieve.SearchMemory(ctx, nil, scope, env.Prompt, retrieval.ViewDetail, 2000, 5, retrieval.Filters{})
	if err != nil {
		return fmt.Errorf("hooks: user_prompt_submit search: %w", err)
	}
	for _, item := range result.Items {
		fmt.Fprintf(w, "[%s] %s: %s\n", item.Type, item.Title, item.Summary)
	}
	return nil
}

func (d *Driver) postToolUse(ctx context.Context, scope model.Scope, env envelope, raw []byte) error {
	_, err := d.ingest.UpsertEvent(ctx, scope, raw, "", false, scope.SessionID)
	if err != nil {
		return fmt.Errorf("hooks: post_tool_use: %w", err)
	}
	return nil
}

func (d *Driver) preCompact(ctx context.Context, scope model.Scope, env envelope) error {
	_, err := d.ingest.CommitEpisode(ctx, scope, ingestion.EpisodeDraft{
		Title:         "Episode: " + scope.SessionID,
		Summary:       "Session compacted mid-run; partial transcript at " + env.TranscriptPath,
		Tags:          []string{"pre_compact"},
		Entities:      []string{},
		Claims:        []string{},
		Applicability: map[string]string{},
	}, "")
	if err != nil {
		return fmt.Errorf("hooks: pre_compact: %w", err)
	}
	return nil
}

func (d *Driver) stop(ctx context.Context, scope model.Scope, env envelope) error {
	_, err := d.ingest.CommitEpisode(ctx, scope, ingestion.EpisodeDraft{
		Title:         "Episode: " + scope.SessionID,
		Summary:       "Session ended; transcript at " + env.TranscriptPath,
		Tags:          []string{"session_end"},
		Entities:      []string{},
		Claims:        []string{},
		Applicability: map[string]string{},
	}, "")
	if err != nil {
		return fmt.Errorf("hooks: stop: %w", err)
	}
	return nil
}
