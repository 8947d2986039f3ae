package fsmonitor

import (
	"bytes"
	"context"
	"net"

	"github.com/fsmonitor/fsmcore/internal/core/interfaces"
)

// ipcDialer opens the connection to the daemon. Locating the daemon's
// socket belongs to the surrounding system, which is out of scope for
// this core (spec.md §1 names IPC daemon protocol negotiation
// as an external collaborator).
type ipcDialer func(ctx context.Context) (net.Conn, error)

// ipcOracle implements interfaces.Oracle by sending the token to a local
// daemon over a Unix-domain-style connection and parsing its
// NUL-delimited response, per spec.md §4.2 and §6.
type ipcOracle struct {
	socketToken string
	dial        ipcDialer
}

func (o *ipcOracle) Query(ctx context.Context, token string) interfaces.QueryOutcome {
	if token == "" {
		token = o.socketToken
	}

	if o.dial == nil {
		// No transport configured: this core never ships a concrete IPC
		// transport (that belongs to the surrounding daemon subsystem,
		// out of scope per spec.md §1); without one, every query fails.
		return interfaces.Failed()
	}

	conn, err := o.dial(ctx)
	if err != nil {
		return interfaces.Failed()
	}
	defer conn.Close()

	if _, err := conn.Write(append([]byte(token), 0)); err != nil {
		return interfaces.Failed()
	}

	buf := make([]byte, 0, 1024) // small initial buffer hint, per spec.md §4.2
	chunk := make([]byte, 4096)
	for {
		n, err := conn.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if err != nil {
			break
		}
	}

	return parseIPCResponse(buf)
}

// parseIPCResponse decodes `new_token \0 path1 \0 path2 \0 …`, treating a
// body whose first byte is `/` as the trivial sentinel.
func parseIPCResponse(buf []byte) interfaces.QueryOutcome {
	nul := bytes.IndexByte(buf, 0)
	if nul < 0 {
		return interfaces.Failed()
	}
	newToken := string(buf[:nul])
	if newToken == "" {
		return interfaces.Failed()
	}
	body := buf[nul+1:]

	if len(body) > 0 && body[0] == '/' {
		return interfaces.Trivial(newToken)
	}

	return interfaces.Paths(newToken, splitNulDelimited(body))
}

// splitNulDelimited splits a NUL-delimited byte sequence into strings,
// tolerating a final, unterminated entry.
func splitNulDelimited(body []byte) []string {
	var out []string
	for len(body) > 0 {
		i := bytes.IndexByte(body, 0)
		if i < 0 {
			out = append(out, string(body))
			break
		}
		if i > 0 {
			out = append(out, string(body[:i]))
		}
		body = body[i+1:]
	}
	return out
}
