package rpc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// ServeStdio runs a line-delimited JSON-RPC loop: one Request per input
// line, one Response per output line. The engine has no background daemon
// to keep warm, so a host process (an agent runtime) pipes requests over
// the command's stdio instead of a socket file.
func ServeStdio(ctx context.Context, s *Server, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	enc := json.NewEncoder(w)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			if encErr := enc.Encode(errResponse(ErrCodeValidation, fmt.Sprintf("rpc: malformed request: %v", err))); encErr != nil {
				return encErr
			}
			continue
		}
		resp := s.Dispatch(ctx, req)
		if err := enc.Encode(resp); err != nil {
			return err
		}
	}
	return scanner.Err()
}
