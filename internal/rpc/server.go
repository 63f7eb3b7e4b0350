package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/untoldecay/memlayer/internal/governance"
	"github.com/untoldecay/memlayer/internal/graph"
	"github.com/untoldecay/memlayer/internal/ingestion"
	"github.com/untoldecay/memlayer/internal/log"
	"github.com/untoldecay/memlayer/internal/model"
	"github.com/untoldecay/memlayer/internal/retrieval"
	"github.com/untoldecay/memlayer/internal/store"
)

// Server dispatches Requests to the ingestion, retrieval, graph, and
// governance engines, translating engine errors into wire error codes.
type Server struct {
	store    *store.Store
	ingest   *ingestion.Engine
	retrieve *retrieval.Engine
	graph    graph.Accelerator
	govern   *governance.Engine
	log      *zap.Logger
}

// New builds a Server wired to the engine's core components.
func New(s *store.Store, ing *ingestion.Engine, ret *retrieval.Engine, accel graph.Accelerator, gov *governance.Engine) *Server {
	return &Server{store: s, ingest: ing, retrieve: ret, graph: accel, govern: gov, log: log.Component("rpc")}
}

// Dispatch routes a Request to its handler and always returns a Response;
// it never returns an error itself (the error, if any, is in the envelope).
func (s *Server) Dispatch(ctx context.Context, req Request) Response {
	switch req.Operation {
	case OpUpsertEvent:
		return s.handleUpsertEvent(ctx, req)
	case OpCommitEpisode:
		return s.handleCommitEpisode(ctx, req)
	case OpPromoteToL2:
		return s.handlePromoteToL2(ctx, req)
	case OpLinkMemories:
		return s.handleLinkMemories(ctx, req)
	case OpSearchMemory:
		return s.handleSearchMemory(ctx, req)
	case OpExpandMemory:
		return s.handleExpandMemory(ctx, req)
	case OpDeprecate:
		return s.handleDeprecate(ctx, req)
	case OpForget:
		return s.handleForget(ctx, req)
	case OpGCSweep:
		return s.handleGCSweep(ctx, req)
	case OpGCCompact:
		return s.handleGCCompact(ctx, req)
	default:
		return errResponse(ErrCodeValidation, fmt.Sprintf("unknown operation: %s", req.Operation))
	}
}

// translate maps an engine error to its wire error code; everything
// unrecognized degrades to the generic INTERNAL code with its message.
func translate(err error) Response {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return errResponse(ErrCodeNotFound, err.Error())
	case errors.Is(err, ingestion.ErrPromotionValidation):
		return errResponse(ErrCodePromotionValidation, err.Error())
	case errors.Is(err, retrieval.ErrTokenBudget):
		return errResponse(ErrCodeTokenBudget, err.Error())
	default:
		return errResponse(ErrCodeInternal, err.Error())
	}
}

func decodeArgs[T any](raw json.RawMessage) (T, error) {
	var v T
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &v); err != nil {
			var zero T
			return zero, fmt.Errorf("rpc: decoding args: %w", err)
		}
	}
	return v, nil
}

type upsertEventArgs struct {
	Scope          model.Scope     `json:"scope"`
	Payload        json.RawMessage `json:"payload"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
	Distill        bool            `json:"distill,omitempty"`
	SourceSession  string          `json:"source_session,omitempty"`
}

func (s *Server) handleUpsertEvent(ctx context.Context, req Request) Response {
	args, err := decodeArgs[upsertEventArgs](req.Args)
	if err != nil {
		return errResponse(ErrCodeValidation, err.Error())
	}
	result, err := s.ingest.UpsertEvent(ctx, args.Scope, args.Payload, args.IdempotencyKey, args.Distill, args.SourceSession)
	if err != nil {
		return translate(err)
	}
	return ok(result)
}

type commitEpisodeArgs struct {
	Scope          model.Scope            `json:"scope"`
	Draft          ingestion.EpisodeDraft `json:"draft"`
	IdempotencyKey string                 `json:"idempotency_key,omitempty"`
}

func (s *Server) handleCommitEpisode(ctx context.Context, req Request) Response {
	args, err := decodeArgs[commitEpisodeArgs](req.Args)
	if err != nil {
		return errResponse(ErrCodeValidation, err.Error())
	}
	result, err := s.ingest.CommitEpisode(ctx, args.Scope, args.Draft, args.IdempotencyKey)
	if err != nil {
		return translate(err)
	}
	return ok(result)
}

type promoteToL2Args struct {
	Scope          model.Scope              `json:"scope"`
	Draft          ingestion.PromotionDraft `json:"draft"`
	Artifact       *model.ArtifactRef       `json:"artifact,omitempty"`
	IdempotencyKey string                   `json:"idempotency_key,omitempty"`
}

func (s *Server) handlePromoteToL2(ctx context.Context, req Request) Response {
	args, err := decodeArgs[promoteToL2Args](req.Args)
	if err != nil {
		return errResponse(ErrCodeValidation, err.Error())
	}
	result, err := s.ingest.PromoteToL2(ctx, args.Scope, args.Draft, args.Artifact, args.IdempotencyKey)
	if err != nil {
		return translate(err)
	}
	return ok(result)
}

type linkMemoriesArgs struct {
	Scope          model.Scope `json:"scope"`
	FromID         string      `json:"from_id"`
	ToID           string      `json:"to_id"`
	Rel            string      `json:"rel"`
	Weight         float64     `json:"weight"`
	IdempotencyKey string      `json:"idempotency_key,omitempty"`
}

func (s *Server) handleLinkMemories(ctx context.Context, req Request) Response {
	args, err := decodeArgs[linkMemoriesArgs](req.Args)
	if err != nil {
		return errResponse(ErrCodeValidation, err.Error())
	}
	result, err := s.ingest.LinkMemories(ctx, args.Scope, args.FromID, args.ToID, args.Rel, args.Weight, args.IdempotencyKey)
	if err != nil {
		return translate(err)
	}
	return ok(result)
}

type searchMemoryArgs struct {
	Scope   model.Scope       `json:"scope"`
	Query   string            `json:"query"`
	View    retrieval.View    `json:"view,omitempty"`
	Budget  int               `json:"budget"`
	TopK    int               `json:"top_k"`
	Filters retrieval.Filters `json:"filters,omitempty"`
}

func (s *Server) handleSearchMemory(ctx context.Context, req Request) Response {
	args, err := decodeArgs[searchMemoryArgs](req.Args)
	if err != nil {
		return errResponse(ErrCodeValidation, err.Error())
	}
	view := args.View
	if view == "" {
		view = retrieval.ViewDetail
	}
	result, err := s.retrieve.SearchMemory(ctx, nil, args.Scope, args.Query, view, args.Budget, args.TopK, args.Filters)
	if err != nil {
		return translate(err)
	}
	resp := ok(result)
	if result.Truncation.Truncated {
		resp.ErrorCode = ErrCodeTokenBudget
	}
	return resp
}

type expandMemoryArgs struct {
	Scope  model.Scope    `json:"scope"`
	SeedID string         `json:"seed_id"`
	Hops   int            `json:"hops"`
	View   retrieval.View `json:"view,omitempty"`
	Budget int            `json:"budget"`
}

func (s *Server) handleExpandMemory(ctx context.Context, req Request) Response {
	args, err := decodeArgs[expandMemoryArgs](req.Args)
	if err != nil {
		return errResponse(ErrCodeValidation, err.Error())
	}
	view := args.View
	if view == "" {
		view = retrieval.ViewDetail
	}
	result, err := graph.ExpandMemory(ctx, s.store, s.graph, args.Scope, args.SeedID, args.Hops, view, args.Budget)
	if err != nil {
		return translate(err)
	}
	resp := ok(result)
	if result.Truncation.Truncated {
		resp.ErrorCode = ErrCodeTokenBudget
	}
	return resp
}

type deprecateArgs struct {
	Scope        model.Scope `json:"scope"`
	ID           string      `json:"id"`
	Reason       string      `json:"reason"`
	SupersededBy *string     `json:"superseded_by,omitempty"`
}

func (s *Server) handleDeprecate(ctx context.Context, req Request) Response {
	args, err := decodeArgs[deprecateArgs](req.Args)
	if err != nil {
		return errResponse(ErrCodeValidation, err.Error())
	}
	result, err := s.govern.DeprecateMemory(ctx, args.Scope, args.ID, args.Reason, args.SupersededBy)
	if err != nil {
		return translate(err)
	}
	return ok(result)
}

type forgetArgs struct {
	Scope    model.Scope         `json:"scope"`
	Selector governance.Selector `json:"selector"`
}

func (s *Server) handleForget(ctx context.Context, req Request) Response {
	args, err := decodeArgs[forgetArgs](req.Args)
	if err != nil {
		return errResponse(ErrCodeValidation, err.Error())
	}
	result, err := s.govern.ForgetMemory(ctx, args.Scope, args.Selector)
	if err != nil {
		return translate(err)
	}
	return ok(result)
}

func (s *Server) handleGCSweep(ctx context.Context, req Request) Response {
	n, err := s.govern.GCSweep(ctx)
	if err != nil {
		return translate(err)
	}
	return ok(map[string]int{"deleted": n})
}

type gcCompactArgs struct {
	Scope model.Scope `json:"scope"`
}

func (s *Server) handleGCCompact(ctx context.Context, req Request) Response {
	args, err := decodeArgs[gcCompactArgs](req.Args)
	if err != nil {
		return errResponse(ErrCodeValidation, err.Error())
	}
	result, err := s.govern.GCCompact(ctx, args.Scope)
	if err != nil {
		return translate(err)
	}
	return ok(result)
}
