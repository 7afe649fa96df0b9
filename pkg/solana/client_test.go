package solana

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unity-vault/vault-client/pkg/retry"
)

type rpcHandler func(params []json.RawMessage) (result interface{}, rpcErr map[string]interface{}, status int)

type testRPCServer struct {
	mu       sync.Mutex
	handlers map[string]rpcHandler
	calls    map[string]int
}

func newTestRPCServer(t *testing.T) (*testRPCServer, Client) {
	s := &testRPCServer{
		handlers: make(map[string]rpcHandler),
		calls:    make(map[string]int),
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     int               `json:"id"`
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		s.mu.Lock()
		s.calls[req.Method]++
		h, ok := s.handlers[req.Method]
		s.mu.Unlock()

		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		result, rpcErr, status := h(req.Params)
		if status >= 400 {
			w.WriteHeader(status)
			_, _ = w.Write([]byte("unavailable"))
			return
		}

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
		}
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(server.Close)

	c := New(server.URL, WithRetrier(retry.NewRetrier(
		retry.RetriableErrors(errRateLimited, errServiceError),
		retry.Limit(3),
	)))
	return s, c
}

func (s *testRPCServer) handle(method string, h rpcHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[method] = h
}

func (s *testRPCServer) callCount(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

func TestClient_GetMinimumBalanceForRentExemption(t *testing.T) {
	s, c := newTestRPCServer(t)
	s.handle("getMinimumBalanceForRentExemption", func(params []json.RawMessage) (interface{}, map[string]interface{}, int) {
		var size uint64
		require.NoError(t, json.Unmarshal(params[0], &size))
		assert.EqualValues(t, 1024, size)
		return 8017920, nil, 200
	})

	lamports, err := c.GetMinimumBalanceForRentExemption(context.Background(), 1024)
	require.NoError(t, err)
	assert.EqualValues(t, 8017920, lamports)
}

func TestClient_GetLatestBlockhash(t *testing.T) {
	s, c := newTestRPCServer(t)

	expected := Blockhash{1, 2, 3, 4}
	s.handle("getLatestBlockhash", func(_ []json.RawMessage) (interface{}, map[string]interface{}, int) {
		return map[string]interface{}{
			"context": map[string]interface{}{"slot": 10},
			"value": map[string]interface{}{
				"blockhash":            base58.Encode(expected[:]),
				"lastValidBlockHeight": 100,
			},
		}, nil, 200
	})

	for i := 0; i < 3; i++ {
		actual, err := c.GetLatestBlockhash(context.Background())
		require.NoError(t, err)
		assert.Equal(t, expected, actual)
	}

	// No caching across calls
	assert.Equal(t, 3, s.callCount("getLatestBlockhash"))
}

func TestClient_GetAccountInfo(t *testing.T) {
	s, c := newTestRPCServer(t)

	owner := ed25519.PublicKey(make([]byte, 32))
	owner[0] = 9
	data := []byte("community")

	var found atomic.Bool
	s.handle("getAccountInfo", func(_ []json.RawMessage) (interface{}, map[string]interface{}, int) {
		if !found.Load() {
			return map[string]interface{}{"value": nil}, nil, 200
		}
		return map[string]interface{}{
			"value": map[string]interface{}{
				"lamports":   8017920,
				"owner":      base58.Encode(owner),
				"data":       []string{base64.StdEncoding.EncodeToString(data), "base64"},
				"executable": false,
			},
		}, nil, 200
	})

	account := ed25519.PublicKey(make([]byte, 32))

	_, err := c.GetAccountInfo(context.Background(), account, CommitmentConfirmed)
	assert.Equal(t, ErrNoAccountInfo, err)

	found.Store(true)
	info, err := c.GetAccountInfo(context.Background(), account, CommitmentConfirmed)
	require.NoError(t, err)
	assert.Equal(t, data, info.Data)
	assert.EqualValues(t, owner, info.Owner)
	assert.EqualValues(t, 8017920, info.Lamports)
}

func TestClient_GetProgramAccounts(t *testing.T) {
	s, c := newTestRPCServer(t)

	program := ed25519.PublicKey(make([]byte, 32))
	program[0] = 1
	a := ed25519.PublicKey(make([]byte, 32))
	a[0] = 2
	b := ed25519.PublicKey(make([]byte, 32))
	b[0] = 3

	s.handle("getProgramAccounts", func(params []json.RawMessage) (interface{}, map[string]interface{}, int) {
		var config map[string]interface{}
		require.NoError(t, json.Unmarshal(params[1], &config))
		assert.NotContains(t, config, "filters")

		var res []map[string]interface{}
		for i, key := range []ed25519.PublicKey{a, b} {
			res = append(res, map[string]interface{}{
				"pubkey": base58.Encode(key),
				"account": map[string]interface{}{
					"lamports": 100 + i,
					"owner":    base58.Encode(program),
					"data":     []string{base64.StdEncoding.EncodeToString([]byte{byte(i)}), "base64"},
				},
			})
		}
		return res, nil, 200
	})

	accounts, err := c.GetProgramAccounts(context.Background(), program, CommitmentConfirmed)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.EqualValues(t, a, accounts[0].PublicKey)
	assert.EqualValues(t, b, accounts[1].PublicKey)
	assert.Equal(t, []byte{1}, accounts[1].Account.Data)
	assert.EqualValues(t, 101, accounts[1].Account.Lamports)
}

func TestClient_SubmitTransaction_Rejected(t *testing.T) {
	s, c := newTestRPCServer(t)

	signers := generateSigners(t, 2)
	tx := NewTransaction(signers[0].PublicKey(), NewInstruction(signers[1].PublicKey(), []byte{1}))
	require.NoError(t, tx.Sign(signers[0]))

	var rejection atomic.Value
	rejection.Store("")
	s.handle("sendTransaction", func(params []json.RawMessage) (interface{}, map[string]interface{}, int) {
		var encoded string
		require.NoError(t, json.Unmarshal(params[0], &encoded))
		raw, err := base64.StdEncoding.DecodeString(encoded)
		require.NoError(t, err)
		assert.Equal(t, tx.Marshal(), raw)

		rejected := rejection.Load().(string)
		if rejected == "" {
			return base58.Encode(tx.Signature()), nil, 200
		}

		var txErr interface{}
		require.NoError(t, json.Unmarshal([]byte(rejected), &txErr))
		return nil, map[string]interface{}{
			"code":    -32002,
			"message": "Transaction simulation failed",
			"data":    map[string]interface{}{"err": txErr},
		}, 200
	})

	sig, err := c.SubmitTransaction(context.Background(), tx, CommitmentConfirmed)
	require.NoError(t, err)
	assert.EqualValues(t, tx.Signature(), sig[:])

	rejection.Store(`"BlockhashNotFound"`)
	_, err = c.SubmitTransaction(context.Background(), tx, CommitmentConfirmed)
	var txErr *TransactionError
	require.True(t, errors.As(err, &txErr))
	assert.True(t, txErr.IsBlockhashNotFound())

	rejection.Store(`{"InstructionError":[0,{"Custom":1}]}`)
	_, err = c.SubmitTransaction(context.Background(), tx, CommitmentConfirmed)
	require.True(t, errors.As(err, &txErr))
	assert.Equal(t, CustomError(1), *txErr.InstructionError().CustomError())

	// Refusals are not retried
	assert.Equal(t, 3, s.callCount("sendTransaction"))
}

func TestClient_RemoteUnavailable(t *testing.T) {
	s, c := newTestRPCServer(t)
	s.handle("getMinimumBalanceForRentExemption", func(_ []json.RawMessage) (interface{}, map[string]interface{}, int) {
		return nil, nil, http.StatusServiceUnavailable
	})
	s.handle("getBalance", func(_ []json.RawMessage) (interface{}, map[string]interface{}, int) {
		return nil, map[string]interface{}{"code": rpcNodeUnhealthyCode, "message": "node is unhealthy"}, 200
	})

	_, err := c.GetMinimumBalanceForRentExemption(context.Background(), 1024)
	assert.True(t, errors.Is(err, ErrRemoteUnavailable))
	assert.Equal(t, 3, s.callCount("getMinimumBalanceForRentExemption"))

	_, err = c.GetBalance(context.Background(), make([]byte, 32))
	assert.True(t, errors.Is(err, ErrRemoteUnavailable))
	assert.Equal(t, 3, s.callCount("getBalance"))

	unreachable := New("http://127.0.0.1:1", WithRetrier(retry.NewRetrier(
		retry.RetriableErrors(errRateLimited, errServiceError),
		retry.Limit(2),
	)))
	_, err = unreachable.GetLatestBlockhash(context.Background())
	assert.True(t, errors.Is(err, ErrRemoteUnavailable))
}

func TestClient_ContextCancelled(t *testing.T) {
	s, c := newTestRPCServer(t)

	release := make(chan struct{})
	defer close(release)
	s.handle("getSignatureStatuses", func(_ []json.RawMessage) (interface{}, map[string]interface{}, int) {
		<-release
		return map[string]interface{}{"value": []interface{}{nil}}, nil, 200
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.GetSignatureStatuses(ctx, []Signature{{1}})
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.True(t, time.Since(start) < time.Second)
}

func TestClient_GetSignatureStatuses(t *testing.T) {
	s, c := newTestRPCServer(t)

	one := 1
	s.handle("getSignatureStatuses", func(_ []json.RawMessage) (interface{}, map[string]interface{}, int) {
		return map[string]interface{}{
			"context": map[string]interface{}{"slot": 12},
			"value": []interface{}{
				nil,
				map[string]interface{}{"slot": 10, "confirmations": one, "confirmationStatus": "confirmed", "err": nil},
				map[string]interface{}{"slot": 11, "confirmations": 0, "confirmationStatus": "processed", "err": map[string]interface{}{
					"InstructionError": []interface{}{1, "InvalidAccountData"},
				}},
			},
		}, nil, 200
	})

	statuses, err := c.GetSignatureStatuses(context.Background(), []Signature{{1}, {2}, {3}})
	require.NoError(t, err)
	require.Len(t, statuses, 3)

	assert.Nil(t, statuses[0])

	require.NotNil(t, statuses[1])
	assert.Nil(t, statuses[1].ErrorResult)
	assert.True(t, statuses[1].Reached(CommitmentConfirmed))
	assert.False(t, statuses[1].Reached(CommitmentFinalized))

	require.NotNil(t, statuses[2])
	require.NotNil(t, statuses[2].ErrorResult)
	assert.Equal(t, InstructionErrorInvalidAccountData, statuses[2].ErrorResult.InstructionError().ErrorKey())
	assert.False(t, statuses[2].Reached(CommitmentConfirmed))
}

func TestSignatureStatus(t *testing.T) {
	zero, one := 0, 1

	testCases := []struct {
		s         SignatureStatus
		confirmed bool
		finalized bool
	}{
		{
			s: SignatureStatus{Slot: 10, Confirmations: &zero},
		},
		{
			s: SignatureStatus{Slot: 10, Confirmations: &zero, ConfirmationStatus: confirmationStatusProcessed},
		},
		{
			s:         SignatureStatus{Slot: 10, Confirmations: &one},
			confirmed: true,
		},
		{
			s:         SignatureStatus{Slot: 10, Confirmations: &zero, ConfirmationStatus: confirmationStatusConfirmed},
			confirmed: true,
		},
		{
			s:         SignatureStatus{Slot: 10, Confirmations: &zero, ConfirmationStatus: confirmationStatusFinalized},
			confirmed: true,
			finalized: true,
		},
		{
			s:         SignatureStatus{Slot: 10},
			confirmed: true,
			finalized: true,
		},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.confirmed, tc.s.Confirmed())
		assert.Equal(t, tc.finalized, tc.s.Finalized())
		assert.True(t, tc.s.Reached(CommitmentProcessed))
	}
}

func TestCommitmentFromString(t *testing.T) {
	c, err := CommitmentFromString("confirmed")
	require.NoError(t, err)
	assert.Equal(t, CommitmentConfirmed, c)

	_, err = CommitmentFromString("max")
	assert.Error(t, err)
}
