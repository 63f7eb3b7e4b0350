package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/untoldecay/memlayer/internal/log"
)

// NetAccelerator speaks to an external property-graph service over plain
// JSON/HTTP. No client SDK for such a service appears anywhere in the
// retrieval pack, so the transport is an injectable *http.Client and base
// URL rather than a fabricated library (see DESIGN.md). Construction
// attempts a single best-effort ping; a failed ping disables the
// accelerator for the lifetime of the process, so callers never see an
// error from an unreachable service.
type NetAccelerator struct {
	client  *http.Client
	baseURL string
	log     *zap.Logger
	enabled bool
}

var _ Accelerator = (*NetAccelerator)(nil)

// NewNetAccelerator pings baseURL+"/health" with client (defaulting to a
// 2-second-timeout client if nil) and returns an accelerator whose Enabled
// reflects whether that ping succeeded.
func NewNetAccelerator(ctx context.Context, baseURL string, client *http.Client) *NetAccelerator {
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Second}
	}
	a := &NetAccelerator{client: client, baseURL: baseURL, log: log.Component("graph")}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		a.log.Debug("graph accelerator disabled: bad health check request", zap.Error(err))
		return a
	}
	resp, err := a.client.Do(req)
	if err != nil {
		a.log.Debug("graph accelerator disabled: health check failed", zap.Error(err))
		return a
	}
	defer resp.Body.Close()
	a.enabled = resp.StatusCode == http.StatusOK
	if !a.enabled {
		a.log.Debug("graph accelerator disabled: health check status", zap.Int("status", resp.StatusCode))
	}
	return a
}

func (a *NetAccelerator) Enabled() bool { return a.enabled }

func (a *NetAccelerator) UpsertNode(ctx context.Context, n Node) {
	if !a.enabled {
		return
	}
	if err := a.post(ctx, "/nodes", n); err != nil {
		a.log.Debug("graph upsert_node failed", zap.String("id", n.ID), zap.Error(err))
	}
}

func (a *NetAccelerator) UpsertEdge(ctx context.Context, fromID, toID, rel string, weight float64) {
	if !a.enabled {
		return
	}
	body := map[string]any{"from_id": fromID, "to_id": toID, "rel": rel, "weight": weight}
	if err := a.post(ctx, "/edges", body); err != nil {
		a.log.Debug("graph upsert_edge failed", zap.String("from", fromID), zap.String("to", toID), zap.Error(err))
	}
}

func (a *NetAccelerator) Expand(ctx context.Context, seedID string, hops int) (*ExpandResult, bool) {
	if !a.enabled {
		return nil, false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/expand?seed=%s&hops=%d", a.baseURL, seedID, hops), nil)
	if err != nil {
		return nil, false
	}
	resp, err := a.client.Do(req)
	if err != nil {
		a.log.Debug("graph expand failed", zap.String("seed", seedID), zap.Error(err))
		return nil, false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, false
	}
	var result ExpandResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		a.log.Debug("graph expand decode failed", zap.Error(err))
		return nil, false
	}
	if len(result.NodeIDs) == 0 && len(result.Paths) == 0 {
		return nil, false
	}
	return &result, true
}

func (a *NetAccelerator) post(ctx context.Context, path string, body any) error {
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(body); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("graph: %s returned status %d", path, resp.StatusCode)
	}
	return nil
}
