package airdrop

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func handlerServer(t *testing.T, x *Executor) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	NewHandler(x, nil, nil).Mount(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, path, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+path, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHandleValidate_Counts(t *testing.T) {
	srv := handlerServer(t, nil)

	resp := post(t, srv, "/api/airdrop",
		`{"tokenMint":"`+testMint+`","recipients":["`+addrA+`","junk","`+addrB+`","`+addrA+`"]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		ValidCount   int      `json:"validCount"`
		InvalidCount int      `json:"invalidCount"`
		Invalid      []string `json:"invalid"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.ValidCount != 2 {
		t.Errorf("validCount = %d, want 2", body.ValidCount)
	}
	if body.InvalidCount != 1 || len(body.Invalid) != 1 || body.Invalid[0] != "junk" {
		t.Errorf("invalid = %v (count %d), want [junk]", body.Invalid, body.InvalidCount)
	}
}

func TestHandleValidate_EmptyList(t *testing.T) {
	srv := handlerServer(t, nil)

	resp := post(t, srv, "/api/airdrop", `{"tokenMint":"`+testMint+`","recipients":[]}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHandleValidate_RejectsBadMint(t *testing.T) {
	srv := handlerServer(t, nil)

	resp := post(t, srv, "/api/airdrop",
		`{"tokenMint":"not-a-mint","recipients":["`+addrA+`"]}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHandleExecute_NoSignerConfigured(t *testing.T) {
	srv := handlerServer(t, nil)

	resp := post(t, srv, "/api/airdrop/execute",
		`{"mint":"`+testMint+`","recipients":[{"address":"`+addrA+`"}],"amount":1}`)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}

func TestHandleExecute_Success(t *testing.T) {
	chain := &fakeChain{name: "a", balance: 10_000_000}
	srv := handlerServer(t, testExecutor(t, chain))

	resp := post(t, srv, "/api/airdrop/execute",
		`{"mint":"`+testMint+`","recipients":[{"address":"`+addrA+`"}],"amount":1}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		Batches   int      `json:"batches"`
		Confirmed int      `json:"confirmed"`
		Results   []Result `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Batches != 1 || body.Confirmed != 1 {
		t.Errorf("batches = %d confirmed = %d, want 1/1", body.Batches, body.Confirmed)
	}
}

func TestHandleExecute_InsufficientFundsIs422(t *testing.T) {
	chain := &fakeChain{name: "a", balance: 10}
	srv := handlerServer(t, testExecutor(t, chain))

	resp := post(t, srv, "/api/airdrop/execute",
		`{"mint":"`+testMint+`","recipients":[{"address":"`+addrA+`"}],"amount":1}`)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", resp.StatusCode)
	}
}

func TestHandleExecute_NoEndpointIs502(t *testing.T) {
	srv := handlerServer(t, testExecutor(t))

	resp := post(t, srv, "/api/airdrop/execute",
		`{"mint":"`+testMint+`","recipients":[{"address":"`+addrA+`"}],"amount":1}`)
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", resp.StatusCode)
	}
}

func TestHandleExecute_PlanErrorsAre400(t *testing.T) {
	chain := &fakeChain{name: "a", balance: 10_000_000}
	srv := handlerServer(t, testExecutor(t, chain))

	for name, body := range map[string]string{
		"duplicate": `{"mint":"` + testMint + `","recipients":[{"address":"` + addrA + `"},{"address":"` + addrA + `"}],"amount":1}`,
		"zero amount": `{"mint":"` + testMint + `","recipients":[{"address":"` + addrA + `"}],"amount":0}`,
		"missing mint": `{"recipients":[{"address":"` + addrA + `"}],"amount":1}`,
		"no recipients": `{"mint":"` + testMint + `","recipients":[],"amount":1}`,
	} {
		resp := post(t, srv, "/api/airdrop/execute", body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", name, resp.StatusCode)
		}
	}
}
