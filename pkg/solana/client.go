package solana

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/ybbus/jsonrpc"

	"github.com/unity-vault/vault-client/pkg/rate"
	"github.com/unity-vault/vault-client/pkg/retry"
	"github.com/unity-vault/vault-client/pkg/retry/backoff"
)

const (
	// todo: we can retrieve these from the Syscall account
	//       but they're unlikely to change.
	ticksPerSec  = 160
	ticksPerSlot = 64
	slotsPerSec  = ticksPerSec / ticksPerSlot

	// PollRate is the rate at which blocks should be polled at.
	PollRate = (time.Second / slotsPerSec) / 2

	// Reference: https://github.com/solana-labs/solana/blob/71e9958e061493d7545bd28d4ac7a85aaed6ffbb/client/src/rpc_custom_error.rs#L11
	rpcNodeUnhealthyCode = -32005

	invalidParamCode = -32602

	defaultHTTPTimeout = 30 * time.Second
)

type Commitment struct {
	Commitment string `json:"commitment"`
}

const (
	confirmationStatusProcessed = "processed"
	confirmationStatusConfirmed = "confirmed"
	confirmationStatusFinalized = "finalized"
)

var (
	CommitmentProcessed = Commitment{Commitment: confirmationStatusProcessed}
	CommitmentConfirmed = Commitment{Commitment: confirmationStatusConfirmed}
	CommitmentFinalized = Commitment{Commitment: confirmationStatusFinalized}
)

// CommitmentFromString parses a commitment level name.
func CommitmentFromString(s string) (Commitment, error) {
	switch s {
	case confirmationStatusProcessed:
		return CommitmentProcessed, nil
	case confirmationStatusConfirmed:
		return CommitmentConfirmed, nil
	case confirmationStatusFinalized:
		return CommitmentFinalized, nil
	}
	return Commitment{}, errors.Errorf("unknown commitment level: %q", s)
}

var (
	ErrNoAccountInfo     = errors.New("no account info")
	ErrSignatureNotFound = errors.New("signature not found")
	ErrNoBalance         = errors.New("no balance")

	// ErrRemoteUnavailable is returned when the RPC endpoint could not serve
	// a request after the client's own bounded retries.
	ErrRemoteUnavailable = errors.New("remote unavailable")
)

// AccountInfo contains the Solana account information (not to be confused with a TokenAccount)
type AccountInfo struct {
	Data       []byte
	Owner      ed25519.PublicKey
	Lamports   uint64
	Executable bool
}

// KeyedAccount is an account along with its address.
type KeyedAccount struct {
	PublicKey ed25519.PublicKey
	Account   AccountInfo
}

type SignatureStatus struct {
	Slot        uint64
	ErrorResult *TransactionError

	// Confirmations will be nil if the transaction has been rooted.
	Confirmations      *int
	ConfirmationStatus string
}

func (s SignatureStatus) Confirmed() bool {
	if s.Finalized() {
		return true
	}

	if s.ConfirmationStatus == confirmationStatusConfirmed {
		return true
	}

	return *s.Confirmations >= 1
}

func (s SignatureStatus) Finalized() bool {
	return s.Confirmations == nil || s.ConfirmationStatus == confirmationStatusFinalized
}

// Reached reports whether the status satisfies the commitment level.
func (s SignatureStatus) Reached(commitment Commitment) bool {
	switch commitment {
	case CommitmentProcessed:
		return true
	case CommitmentConfirmed:
		return s.Confirmed()
	case CommitmentFinalized:
		return s.Finalized()
	}
	return false
}

// Client provides an interaction with the Solana JSON RPC API. All methods
// are safe for concurrent use.
//
// Reference: https://docs.solana.com/apps/jsonrpc-api
type Client interface {
	GetAccountInfo(ctx context.Context, account ed25519.PublicKey, commitment Commitment) (AccountInfo, error)
	GetBalance(ctx context.Context, account ed25519.PublicKey) (uint64, error)
	GetLatestBlockhash(ctx context.Context) (Blockhash, error)
	GetMinimumBalanceForRentExemption(ctx context.Context, size uint64) (lamports uint64, err error)
	GetProgramAccounts(ctx context.Context, program ed25519.PublicKey, commitment Commitment) ([]KeyedAccount, error)
	GetSignatureStatuses(ctx context.Context, sigs []Signature) ([]*SignatureStatus, error)
	RequestAirdrop(ctx context.Context, account ed25519.PublicKey, lamports uint64, commitment Commitment) (Signature, error)
	SubmitTransaction(ctx context.Context, txn Transaction, commitment Commitment) (Signature, error)
}

var (
	errRateLimited  = errors.New("rate limited")
	errServiceError = errors.New("service error")
)

type rpcResponse struct {
	Context struct {
		Slot int64 `json:"slot"`
	} `json:"context"`
	Value interface{} `json:"value"`
}

type client struct {
	log     *logrus.Entry
	client  jsonrpc.RPCClient
	retrier retry.Retrier
	limiter rate.Limiter
}

// Option configures a client.
type Option func(*client)

// WithRetrier overrides the retrier used for rate limited and service errors.
func WithRetrier(r retry.Retrier) Option {
	return func(c *client) {
		c.retrier = r
	}
}

// WithLimiter throttles requests per RPC method.
func WithLimiter(l rate.Limiter) Option {
	return func(c *client) {
		c.limiter = l
	}
}

// New returns a client using the specified endpoint.
func New(endpoint string, opts ...Option) Client {
	return NewWithRPCOptions(endpoint, &jsonrpc.RPCClientOpts{
		HTTPClient: &http.Client{Timeout: defaultHTTPTimeout},
	}, opts...)
}

// NewWithRPCOptions returns a client configured with the specified RPC options.
func NewWithRPCOptions(endpoint string, rpcOpts *jsonrpc.RPCClientOpts, opts ...Option) Client {
	c := &client{
		log:    logrus.StandardLogger().WithField("type", "solana/client"),
		client: jsonrpc.NewClientWithOpts(endpoint, rpcOpts),
		retrier: retry.NewRetrier(
			retry.RetriableErrors(errRateLimited, errServiceError),
			retry.Limit(3),
			retry.BackoffWithJitter(backoff.BinaryExponential(time.Second), 10*time.Second, 0.1),
		),
		limiter: &rate.NoLimiter{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *client) call(ctx context.Context, out interface{}, method string, params ...interface{}) error {
	_, err := c.retrier.Retry(ctx, func() error {
		if err := c.limiter.Wait(ctx, method); err != nil {
			return err
		}

		err := c.callFor(ctx, out, method, params...)
		if err == nil {
			return nil
		}

		return c.handleRpcError(method, err)
	})

	if errors.Is(err, errRateLimited) || errors.Is(err, errServiceError) {
		return errors.Wrapf(ErrRemoteUnavailable, "%s: %v", method, err)
	}
	return err
}

// callFor runs the request off the caller's goroutine so that the wait can be
// abandoned when ctx is done. The request itself is bounded by the HTTP
// client timeout.
func (c *client) callFor(ctx context.Context, out interface{}, method string, params ...interface{}) error {
	done := make(chan error, 1)
	go func() {
		done <- c.client.CallFor(out, method, params...)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

func (c *client) handleRpcError(method string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	switch typed := err.(type) {
	case *jsonrpc.RPCError:
		if typed.Code == http.StatusTooManyRequests {
			c.log.WithField("method", method).Warn("rate limited")
			return errRateLimited
		}
		if typed.Code >= 500 || typed.Code == rpcNodeUnhealthyCode {
			return errors.Wrap(errServiceError, typed.Message)
		}
		return err
	case *jsonrpc.HTTPError:
		if typed.Code == http.StatusTooManyRequests {
			c.log.WithField("method", method).Warn("rate limited")
			return errRateLimited
		}
		return errors.Wrap(errServiceError, typed.Error())
	default:
		c.log.WithError(err).WithField("method", method).Debug("transport failure")
		return errors.Wrap(errServiceError, err.Error())
	}
}

func (c *client) GetMinimumBalanceForRentExemption(ctx context.Context, dataSize uint64) (lamports uint64, err error) {
	if err := c.call(ctx, &lamports, "getMinimumBalanceForRentExemption", dataSize); err != nil {
		return 0, errors.Wrapf(err, "getMinimumBalanceForRentExemption() failed to send request")
	}

	return lamports, nil
}

// GetLatestBlockhash always queries the endpoint. Blockhashes are never
// shared between transactions built by different operations.
func (c *client) GetLatestBlockhash(ctx context.Context) (hash Blockhash, err error) {
	type response struct {
		Value struct {
			Blockhash string `json:"blockhash"`
		} `json:"value"`
	}

	// note: the commitment has to be wrapped in an []interface{}, otherwise
	//       the jsonrpc library sends it as a named parameter object.
	var resp response
	if err := c.call(ctx, &resp, "getLatestBlockhash", []interface{}{CommitmentConfirmed}); err != nil {
		return hash, errors.Wrapf(err, "getLatestBlockhash() failed to send request")
	}

	hashBytes, err := base58.Decode(resp.Value.Blockhash)
	if err != nil {
		return hash, errors.Wrap(err, "invalid base58 encoded hash in response")
	}
	if len(hashBytes) != len(hash) {
		return hash, errors.Errorf("invalid blockhash length: %d", len(hashBytes))
	}

	copy(hash[:], hashBytes)
	return hash, nil
}

func (c *client) GetBalance(ctx context.Context, account ed25519.PublicKey) (uint64, error) {
	var resp rpcResponse
	if err := c.call(ctx, &resp, "getBalance", base58.Encode(account[:]), CommitmentConfirmed); err != nil {
		jsonRPCErr, ok := errors.Cause(err).(*jsonrpc.RPCError)
		if ok && jsonRPCErr.Code == invalidParamCode {
			return 0, ErrNoBalance
		}

		return 0, errors.Wrapf(err, "getBalance() failed to send request")
	}

	if balance, ok := resp.Value.(float64); ok {
		return uint64(balance), nil
	}

	return 0, errors.Errorf("invalid value in response")
}

// SubmitTransaction sends the transaction with preflight checks enabled, so
// validation failures (bad signature, unknown blockhash, instruction errors)
// are returned synchronously as a *TransactionError.
func (c *client) SubmitTransaction(ctx context.Context, txn Transaction, commitment Commitment) (Signature, error) {
	sig := txn.Signatures[0]
	if err := txn.CheckSize(); err != nil {
		return sig, err
	}
	txnBytes := txn.Marshal()

	config := struct {
		SkipPreflight       bool   `json:"skipPreflight"`
		PreflightCommitment string `json:"preflightCommitment"`
		Encoding            string `json:"encoding"`
	}{
		SkipPreflight:       false,
		PreflightCommitment: commitment.Commitment,
		Encoding:            "base64",
	}

	var sigStr string
	err := c.call(ctx, &sigStr, "sendTransaction", base64.StdEncoding.EncodeToString(txnBytes), config)
	if err == nil {
		return sig, nil
	}

	jsonRPCErr, ok := errors.Cause(err).(*jsonrpc.RPCError)
	if !ok {
		return sig, errors.Wrapf(err, "sendTransaction() failed to send request")
	}

	txResult, parseErr := ParseRPCError(jsonRPCErr)
	if parseErr != nil || txResult == nil {
		c.log.WithFields(logrus.Fields{
			"method":    "SubmitTransaction",
			"signature": base58.Encode(sig[:]),
			"code":      jsonRPCErr.Code,
		}).Info("transaction refused without a transaction error")
		return sig, jsonRPCErr
	}

	return sig, txResult
}

func (c *client) GetAccountInfo(ctx context.Context, account ed25519.PublicKey, commitment Commitment) (accountInfo AccountInfo, err error) {
	type rpcResponse struct {
		Value *rawAccount `json:"value"`
	}

	rpcConfig := struct {
		Commitment string `json:"commitment"`
		Encoding   string `json:"encoding"`
	}{
		Commitment: commitment.Commitment,
		Encoding:   "base64",
	}

	var resp rpcResponse
	if err := c.call(ctx, &resp, "getAccountInfo", base58.Encode(account[:]), rpcConfig); err != nil {
		return accountInfo, errors.Wrap(err, "getAccountInfo() failed to send request")
	}

	if resp.Value == nil {
		return accountInfo, ErrNoAccountInfo
	}

	return resp.Value.decode()
}

// GetProgramAccounts returns every account owned by the program. No server
// side filters are applied.
func (c *client) GetProgramAccounts(ctx context.Context, program ed25519.PublicKey, commitment Commitment) ([]KeyedAccount, error) {
	config := struct {
		Commitment string `json:"commitment"`
		Encoding   string `json:"encoding"`
	}{
		Commitment: commitment.Commitment,
		Encoding:   "base64",
	}

	var resp []struct {
		PubKey  string     `json:"pubkey"`
		Account rawAccount `json:"account"`
	}
	if err := c.call(ctx, &resp, "getProgramAccounts", base58.Encode(program), config); err != nil {
		return nil, errors.Wrap(err, "getProgramAccounts() failed to send request")
	}

	res := make([]KeyedAccount, 0, len(resp))
	for _, result := range resp {
		pub, err := base58.Decode(result.PubKey)
		if err != nil {
			return nil, errors.Wrap(err, "invalid base58 encoded account address")
		}

		info, err := result.Account.decode()
		if err != nil {
			return nil, errors.Wrapf(err, "invalid account %s", result.PubKey)
		}

		res = append(res, KeyedAccount{
			PublicKey: pub,
			Account:   info,
		})
	}
	return res, nil
}

func (c *client) RequestAirdrop(ctx context.Context, account ed25519.PublicKey, lamports uint64, commitment Commitment) (Signature, error) {
	var sigStr string
	if err := c.call(ctx, &sigStr, "requestAirdrop", base58.Encode(account[:]), lamports, commitment); err != nil {
		return Signature{}, errors.Wrapf(err, "requestAirdrop() failed to send request")
	}

	sigBytes, err := base58.Decode(sigStr)
	if err != nil {
		return Signature{}, errors.Wrap(err, "invalid signature in response")
	}

	var sig Signature
	copy(sig[:], sigBytes)

	if sig == (Signature{}) {
		return Signature{}, errors.New("empty signature returned")
	}

	return sig, nil
}

func (c *client) GetSignatureStatuses(ctx context.Context, sigs []Signature) ([]*SignatureStatus, error) {
	b58Sigs := make([]string, len(sigs))
	for i := range sigs {
		b58Sigs[i] = base58.Encode(sigs[i][:])
	}

	req := struct {
		SearchTransactionHistory bool `json:"searchTransactionHistory"`
	}{
		SearchTransactionHistory: true,
	}

	type signatureStatus struct {
		Slot               uint64          `json:"slot"`
		Confirmations      *int            `json:"confirmations"`
		ConfirmationStatus string          `json:"confirmationStatus"`
		Err                json.RawMessage `json:"err"`
	}

	type rpcResp struct {
		Context struct {
			Slot int `json:"slot"`
		} `json:"context"`
		Value []*signatureStatus `json:"value"`
	}

	var resp rpcResp
	if err := c.call(ctx, &resp, "getSignatureStatuses", b58Sigs, req); err != nil {
		return nil, errors.Wrap(err, "getSignatureStatuses() failed to send request")
	}

	statuses := make([]*SignatureStatus, len(sigs))
	for i, v := range resp.Value {
		if v == nil || i >= len(statuses) {
			continue
		}

		statuses[i] = &SignatureStatus{
			Confirmations:      v.Confirmations,
			ConfirmationStatus: v.ConfirmationStatus,
			Slot:               v.Slot,
		}

		if len(v.Err) > 0 && !bytes.Equal(v.Err, []byte("null")) {
			var txError interface{}
			err := json.NewDecoder(bytes.NewBuffer(v.Err)).Decode(&txError)
			if err != nil {
				return nil, errors.Wrap(err, "failed to parse transaction result")
			}

			statuses[i].ErrorResult, err = ParseTransactionError(txError)
			if err != nil {
				return nil, errors.Wrap(err, "failed to parse transaction result")
			}
		}
	}

	return statuses, nil
}

type rawAccount struct {
	Lamports   uint64   `json:"lamports"`
	Owner      string   `json:"owner"`
	Data       []string `json:"data"`
	Executable bool     `json:"executable"`
}

func (r *rawAccount) decode() (info AccountInfo, err error) {
	info.Owner, err = base58.Decode(r.Owner)
	if err != nil {
		return info, errors.Wrap(err, "invalid base58 encoded owner")
	}

	if len(r.Data) > 0 {
		info.Data, err = base64.StdEncoding.DecodeString(r.Data[0])
		if err != nil {
			return info, errors.Wrap(err, "invalid base64 encoded data")
		}
	}

	info.Lamports = r.Lamports
	info.Executable = r.Executable
	return info, nil
}
