//go:build e2e

package e2e

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
)

// StubGateway stands in for the card provider. The default behavior approves
// every charge; tests flip it into decline, redirect or outage mode before
// hitting the API.
type StubGateway struct {
	srv *httptest.Server

	mu          sync.Mutex
	code        string
	message     string
	redirectURL string
	httpStatus  int

	refSeq  atomic.Int64
	lastRef atomic.Value // string
}

func NewStubGateway() *StubGateway {
	g := &StubGateway{}
	g.Reset()
	g.srv = httptest.NewServer(http.HandlerFunc(g.handle))
	return g
}

func (g *StubGateway) URL() string { return g.srv.URL }

func (g *StubGateway) Close() { g.srv.Close() }

// Reset restores approve-everything mode.
func (g *StubGateway) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.code = "G12345"
	g.message = "Approved"
	g.redirectURL = ""
	g.httpStatus = http.StatusOK
}

func (g *StubGateway) Decline(code, message string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.code = code
	g.message = message
	g.redirectURL = ""
}

func (g *StubGateway) Redirect(url string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.redirectURL = url
}

// FailWith makes every response a bare HTTP error, simulating an outage.
func (g *StubGateway) FailWith(status int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.httpStatus = status
}

// LastRef returns the transaction reference issued for the most recent charge.
func (g *StubGateway) LastRef() string {
	if v := g.lastRef.Load(); v != nil {
		return v.(string)
	}
	return ""
}

func (g *StubGateway) handle(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	code, message, redirectURL, httpStatus := g.code, g.message, g.redirectURL, g.httpStatus
	g.mu.Unlock()

	if httpStatus >= http.StatusInternalServerError {
		w.WriteHeader(httpStatus)
		return
	}

	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)

	ref, _ := body["tran_ref"].(string)
	if r.URL.Path == "/payment/request" {
		ref = fmt.Sprintf("TST%010d", g.refSeq.Add(1))
		g.lastRef.Store(ref)
	}

	resp := map[string]any{
		"tran_ref": ref,
		"payment_result": map[string]any{
			"response_status":  "A",
			"response_code":    code,
			"response_message": message,
		},
	}
	if redirectURL != "" {
		resp["redirect_url"] = redirectURL
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
