package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/untoldecay/memlayer/internal/config"
	"github.com/untoldecay/memlayer/internal/governance"
	"github.com/untoldecay/memlayer/internal/graph"
	"github.com/untoldecay/memlayer/internal/idempotency"
	"github.com/untoldecay/memlayer/internal/ingestion"
	"github.com/untoldecay/memlayer/internal/log"
	"github.com/untoldecay/memlayer/internal/model"
	"github.com/untoldecay/memlayer/internal/retrieval"
	"github.com/untoldecay/memlayer/internal/store"
)

var rootCtx = context.Background()

// These three flags are persistent on every command. Mutating commands use
// all three; search and expand use --scope and --db-path; gc sweep uses
// only --db-path.
var (
	scopeFlag          string
	idempotencyKeyFlag string
	dbPathFlag         string
)

var rootCmd = &cobra.Command{
	Use:           "memlayer",
	Short:         "Lifecycle-aware memory engine for autonomous agents",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(func() {
		if err := config.Initialize(); err != nil {
			fmt.Fprintf(os.Stderr, "memlayer: config: %v\n", err)
		}
		log.Init(config.GetBool("debug") || os.Getenv("MEMLAYER_DEBUG") != "", config.GetString("log-file"))
	})

	rootCmd.PersistentFlags().StringVar(&scopeFlag, "scope", "", `scope as JSON or @file (e.g. '{"tenant_id":"t1","workspace_id":"w1"}')`)
	rootCmd.PersistentFlags().StringVar(&idempotencyKeyFlag, "idempotency-key", "", "idempotency key for mutating operations")
	rootCmd.PersistentFlags().StringVar(&dbPathFlag, "db-path", "", "path to the embedded store file (defaults to config db-path)")

	rootCmd.AddGroup(
		&cobra.Group{ID: "ingestion", Title: "Ingestion:"},
		&cobra.Group{ID: "retrieval", Title: "Retrieval:"},
		&cobra.Group{ID: "governance", Title: "Governance:"},
		&cobra.Group{ID: "ops", Title: "Operations:"},
	)
}

// envelope is the result shape every command prints exactly one line of.
type envelope struct {
	Status    string `json:"status"`
	Data      any    `json:"data,omitempty"`
	Message   string `json:"message,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`
}

// printOK emits {"status":"ok","data":...} to stdout.
func printOK(data any) {
	b, err := json.Marshal(envelope{Status: "ok", Data: data})
	if err != nil {
		printErr(err)
		return
	}
	fmt.Println(string(b))
}

// errCoder is implemented by errors that know their own error code.
type errCoder interface {
	ErrorCode() string
}

// printErr emits {"status":"error","message":...} (plus error_code when the
// error carries one) to stdout; exit code stays zero unless the invocation
// itself fails (flag parsing, file I/O before dispatch).
func printErr(err error) {
	env := envelope{Status: "error", Message: err.Error()}
	if ec, ok := err.(errCoder); ok {
		env.ErrorCode = ec.ErrorCode()
	} else {
		switch {
		case isNotFound(err):
			env.ErrorCode = "NOT_FOUND"
		case isPromotionValidation(err):
			env.ErrorCode = "PROMOTION_VALIDATION_FAILED"
		}
	}
	b, merr := json.Marshal(env)
	if merr != nil {
		fmt.Println(`{"status":"error","message":"memlayer: failed to encode error envelope"}`)
		return
	}
	fmt.Println(string(b))
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}

func isPromotionValidation(err error) bool {
	return errors.Is(err, ingestion.ErrPromotionValidation)
}

// parseScope loads the --scope flag via config.LoadScope, failing the
// command if it is missing or malformed.
func parseScope() (model.Scope, error) {
	if scopeFlag == "" {
		return model.Scope{}, fmt.Errorf("memlayer: --scope is required")
	}
	scope, err := config.LoadScope(scopeFlag)
	if err != nil {
		return scope, err
	}
	return scope, scope.Validate()
}

// resolvedDBPath returns --db-path if set, else the config-resolved default.
func resolvedDBPath() string {
	if dbPathFlag != "" {
		return dbPathFlag
	}
	return config.DBPath()
}

// engines bundles every engine a command might need, opened against one
// Store. Callers must defer Close().
type engines struct {
	store    *store.Store
	idem     *idempotency.Gate
	ingest   *ingestion.Engine
	retrieve *retrieval.Engine
	govern   *governance.Engine
	graph    graph.Accelerator
}

func (e *engines) Close() error {
	return e.store.Close()
}

// openEngines opens the store at the resolved db path and wires every
// engine against it. The graph accelerator is a NullAccelerator unless
// graph-accelerator-url names a reachable service.
func openEngines(ctx context.Context) (*engines, error) {
	s, err := store.Open(ctx, resolvedDBPath(), store.Options{BusyTimeout: config.BusyTimeout()})
	if err != nil {
		return nil, fmt.Errorf("memlayer: opening store: %w", err)
	}

	var accel graph.Accelerator = graph.NullAccelerator{}
	if url := config.GetString("graph-accelerator-url"); url != "" {
		accel = graph.NewNetAccelerator(ctx, url, nil)
	}

	idem := idempotency.New(s)
	return &engines{
		store:    s,
		idem:     idem,
		ingest:   ingestion.New(s, idem, accel),
		retrieve: retrieval.New(s),
		govern:   governance.New(s, accel),
		graph:    accel,
	}, nil
}
