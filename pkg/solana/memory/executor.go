// Package memory provides an in-process ledger that implements solana.Client.
//
// Transactions are applied atomically: every instruction runs against a
// staged copy of the ledger and the copy is committed only if all of them
// succeed. Faults (transport failures, expired blockhashes, dropped
// confirmations) can be injected for tests.
package memory

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/binary"
	"sort"
	"sync"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/unity-vault/vault-client/pkg/solana"
	"github.com/unity-vault/vault-client/pkg/solana/system"
)

const (
	// Reference: https://github.com/solana-labs/solana/blob/master/sdk/program/src/rent.rs
	lamportsPerByteYear     = 3480
	exemptionThresholdYears = 2
	accountStorageOverhead  = 128

	// Reference: https://github.com/solana-labs/solana/blob/master/sdk/program/src/system_instruction.rs
	maxPermittedDataLength = 10 * 1024 * 1024

	DefaultLamportsPerSignature = 5000
	DefaultMaxBlockhashAge      = 150
)

// System program error codes.
//
// Reference: https://github.com/solana-labs/solana/blob/master/sdk/program/src/system_instruction.rs#L22
const (
	ErrorAccountAlreadyInUse solana.CustomError = iota
	ErrorResultWithNegativeLamports
)

// MinimumBalance returns the rent-exempt reserve for an account holding size
// bytes of data.
func MinimumBalance(size uint64) uint64 {
	return (accountStorageOverhead + size) * lamportsPerByteYear * exemptionThresholdYears
}

// Fail returns an instruction failure with a well known key.
func Fail(key solana.InstructionErrorKey) error {
	return errors.New(string(key))
}

// Program executes the instructions addressed to a registered program id.
type Program func(inv *Invocation) error

// Executor is an in-memory ledger. All methods are safe for concurrent use.
type Executor struct {
	log *logrus.Entry

	mu          sync.Mutex
	accounts    map[string]*solana.AccountInfo
	programs    map[string]Program
	blockhashes []solana.Blockhash
	hashCount   uint64
	statuses    map[solana.Signature]*solana.SignatureStatus
	submissions []solana.Transaction
	slot        uint64

	now                  func() time.Time
	lamportsPerSignature uint64
	maxBlockhashAge      int

	neverConfirm bool
	unavailable  int
	submitHook   func(solana.Transaction) error
}

// Option configures an Executor.
type Option func(*Executor)

// WithClock sets the clock exposed to programs.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) {
		e.now = now
	}
}

// WithLamportsPerSignature sets the fee charged per transaction signature.
func WithLamportsPerSignature(lamports uint64) Option {
	return func(e *Executor) {
		e.lamportsPerSignature = lamports
	}
}

// WithMaxBlockhashAge sets how many blockhashes remain valid.
func WithMaxBlockhashAge(age int) Option {
	return func(e *Executor) {
		e.maxBlockhashAge = age
	}
}

// WithProgram registers a program at construction.
func WithProgram(id ed25519.PublicKey, p Program) Option {
	return func(e *Executor) {
		e.programs[string(id)] = p
	}
}

// New returns an empty ledger that only knows the system program.
func New(opts ...Option) *Executor {
	e := &Executor{
		log:                  logrus.StandardLogger().WithField("type", "solana/memory"),
		accounts:             make(map[string]*solana.AccountInfo),
		programs:             make(map[string]Program),
		statuses:             make(map[solana.Signature]*solana.SignatureStatus),
		now:                  time.Now,
		lamportsPerSignature: DefaultLamportsPerSignature,
		maxBlockhashAge:      DefaultMaxBlockhashAge,
	}

	for _, o := range opts {
		o(e)
	}

	return e
}

// RegisterProgram routes instructions for id to p.
func (e *Executor) RegisterProgram(id ed25519.PublicKey, p Program) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.programs[string(id)] = p
}

// Fund credits lamports to a system owned account, creating it if needed.
func (e *Executor) Fund(account ed25519.PublicKey, lamports uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	credit(e.accounts, account, lamports)
}

// SetAccount overwrites the account at address.
func (e *Executor) SetAccount(address ed25519.PublicKey, info solana.AccountInfo) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.accounts[string(address)] = cloneAccount(&info)
}

// Account returns a copy of the account at address.
func (e *Executor) Account(address ed25519.PublicKey) (solana.AccountInfo, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	info, ok := e.accounts[string(address)]
	if !ok {
		return solana.AccountInfo{}, false
	}
	return *cloneAccount(info), true
}

// Submissions returns every transaction passed to SubmitTransaction, in
// order, including the ones that were refused.
func (e *Executor) Submissions() []solana.Transaction {
	e.mu.Lock()
	defer e.mu.Unlock()

	res := make([]solana.Transaction, len(e.submissions))
	copy(res, e.submissions)
	return res
}

// SetNeverConfirm makes accepted transactions apply without ever reporting
// a status.
func (e *Executor) SetNeverConfirm(v bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.neverConfirm = v
}

// SetUnavailable fails the next n RPC calls with solana.ErrRemoteUnavailable.
func (e *Executor) SetUnavailable(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.unavailable = n
}

// SetSubmitHook installs a hook that runs before validation of every
// submission. A non-nil error refuses the transaction with that error.
func (e *Executor) SetSubmitHook(hook func(solana.Transaction) error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.submitHook = hook
}

// ExpireBlockhashes invalidates every blockhash handed out so far.
func (e *Executor) ExpireBlockhashes() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.blockhashes = nil
}

func (e *Executor) GetAccountInfo(ctx context.Context, account ed25519.PublicKey, _ solana.Commitment) (solana.AccountInfo, error) {
	if err := e.enter(ctx); err != nil {
		return solana.AccountInfo{}, err
	}
	defer e.mu.Unlock()

	info, ok := e.accounts[string(account)]
	if !ok {
		return solana.AccountInfo{}, solana.ErrNoAccountInfo
	}
	return *cloneAccount(info), nil
}

func (e *Executor) GetBalance(ctx context.Context, account ed25519.PublicKey) (uint64, error) {
	if err := e.enter(ctx); err != nil {
		return 0, err
	}
	defer e.mu.Unlock()

	info, ok := e.accounts[string(account)]
	if !ok {
		return 0, solana.ErrNoBalance
	}
	return info.Lamports, nil
}

func (e *Executor) GetLatestBlockhash(ctx context.Context) (solana.Blockhash, error) {
	if err := e.enter(ctx); err != nil {
		return solana.Blockhash{}, err
	}
	defer e.mu.Unlock()

	e.hashCount++
	var seed [8]byte
	binary.LittleEndian.PutUint64(seed[:], e.hashCount)
	hash := solana.Blockhash(sha256.Sum256(seed[:]))

	e.blockhashes = append(e.blockhashes, hash)
	if len(e.blockhashes) > e.maxBlockhashAge {
		e.blockhashes = e.blockhashes[len(e.blockhashes)-e.maxBlockhashAge:]
	}

	return hash, nil
}

func (e *Executor) GetMinimumBalanceForRentExemption(ctx context.Context, size uint64) (uint64, error) {
	if err := e.enter(ctx); err != nil {
		return 0, err
	}
	defer e.mu.Unlock()

	return MinimumBalance(size), nil
}

func (e *Executor) GetProgramAccounts(ctx context.Context, program ed25519.PublicKey, _ solana.Commitment) ([]solana.KeyedAccount, error) {
	if err := e.enter(ctx); err != nil {
		return nil, err
	}
	defer e.mu.Unlock()

	var res []solana.KeyedAccount
	for key, info := range e.accounts {
		if !bytes.Equal(info.Owner, program) {
			continue
		}
		res = append(res, solana.KeyedAccount{
			PublicKey: ed25519.PublicKey(key),
			Account:   *cloneAccount(info),
		})
	}

	sort.Slice(res, func(i, j int) bool {
		return bytes.Compare(res[i].PublicKey, res[j].PublicKey) < 0
	})
	return res, nil
}

func (e *Executor) GetSignatureStatuses(ctx context.Context, sigs []solana.Signature) ([]*solana.SignatureStatus, error) {
	if err := e.enter(ctx); err != nil {
		return nil, err
	}
	defer e.mu.Unlock()

	res := make([]*solana.SignatureStatus, len(sigs))
	for i, sig := range sigs {
		if status, ok := e.statuses[sig]; ok {
			copied := *status
			res[i] = &copied
		}
	}
	return res, nil
}

func (e *Executor) RequestAirdrop(ctx context.Context, account ed25519.PublicKey, lamports uint64, _ solana.Commitment) (solana.Signature, error) {
	if err := e.enter(ctx); err != nil {
		return solana.Signature{}, err
	}
	defer e.mu.Unlock()

	credit(e.accounts, account, lamports)

	e.slot++
	var sig solana.Signature
	binary.LittleEndian.PutUint64(sig[:], e.slot)
	copy(sig[8:], account)
	e.statuses[sig] = e.confirmedStatus()

	return sig, nil
}

// SubmitTransaction validates and applies the transaction. Refusals are
// returned synchronously as a *solana.TransactionError and leave the ledger
// untouched.
func (e *Executor) SubmitTransaction(ctx context.Context, txn solana.Transaction, _ solana.Commitment) (solana.Signature, error) {
	if err := e.enter(ctx); err != nil {
		return solana.Signature{}, err
	}
	defer e.mu.Unlock()

	e.submissions = append(e.submissions, txn)

	var sig solana.Signature
	if len(txn.Signatures) > 0 {
		sig = txn.Signatures[0]
	}

	log := e.log.WithFields(logrus.Fields{
		"method":    "SubmitTransaction",
		"signature": base58.Encode(sig[:]),
	})

	if e.submitHook != nil {
		if err := e.submitHook(txn); err != nil {
			log.WithError(err).Debug("submission refused by hook")
			return sig, err
		}
	}

	if err := txn.CheckSize(); err != nil {
		return sig, err
	}
	if len(txn.Signatures) == 0 || txn.VerifySignatures() != nil {
		return sig, solana.NewTransactionError(solana.TransactionErrorSignatureFailure)
	}
	if !e.isRecentBlockhash(txn.Message.RecentBlockhash) {
		return sig, solana.NewTransactionError(solana.TransactionErrorBlockhashNotFound)
	}
	if _, ok := e.statuses[sig]; ok {
		return sig, solana.NewTransactionError(solana.TransactionErrorDuplicateSignature)
	}

	staged := make(map[string]*solana.AccountInfo, len(e.accounts))
	for k, v := range e.accounts {
		staged[k] = cloneAccount(v)
	}

	fee := e.lamportsPerSignature * uint64(len(txn.Signatures))
	payer, ok := staged[string(txn.Message.Accounts[0])]
	if !ok || payer.Lamports < fee {
		return sig, solana.NewTransactionError(solana.TransactionErrorInsufficientFundsForFee)
	}
	payer.Lamports -= fee

	for i := range txn.Message.Instructions {
		if err := e.execute(staged, txn.Message, i); err != nil {
			log.WithError(err).Debug("transaction failed simulation")

			var txErr *solana.TransactionError
			if errors.As(err, &txErr) {
				return sig, txErr
			}

			ixErr := err.(*solana.InstructionError)
			txErr, convErr := solana.TransactionErrorFromInstructionError(ixErr)
			if convErr != nil {
				return sig, errors.Wrap(convErr, "failed to encode instruction error")
			}
			return sig, txErr
		}
	}

	e.accounts = staged
	e.slot++
	if !e.neverConfirm {
		e.statuses[sig] = e.confirmedStatus()
	}

	log.WithField("slot", e.slot).Debug("transaction applied")
	return sig, nil
}

// enter acquires the ledger lock after checking for cancellation and
// injected transport failures. On success the caller must unlock.
func (e *Executor) enter(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	if e.unavailable > 0 {
		e.unavailable--
		e.mu.Unlock()
		return errors.Wrap(solana.ErrRemoteUnavailable, "injected transport failure")
	}
	return nil
}

func (e *Executor) confirmedStatus() *solana.SignatureStatus {
	confirmations := 1
	return &solana.SignatureStatus{
		Slot:               e.slot,
		Confirmations:      &confirmations,
		ConfirmationStatus: "confirmed",
	}
}

func (e *Executor) isRecentBlockhash(hash solana.Blockhash) bool {
	for _, h := range e.blockhashes {
		if h == hash {
			return true
		}
	}
	return false
}

// execute returns either a *solana.InstructionError or a
// *solana.TransactionError.
func (e *Executor) execute(staged map[string]*solana.AccountInfo, m solana.Message, index int) error {
	ix, err := m.Instruction(index)
	if err != nil {
		return solana.NewTransactionError(solana.TransactionErrorInvalidAccountIndex)
	}

	if system.IsSystemInstruction(m, index) {
		if err := e.executeSystem(staged, m, index); err != nil {
			return instructionError(index, err)
		}
		return nil
	}

	p, ok := e.programs[string(ix.Program)]
	if !ok {
		return solana.NewTransactionError(solana.TransactionErrorProgramAccountNotFound)
	}

	inv := &Invocation{
		Instruction: ix,
		Index:       index,
		Slot:        e.slot + 1,
		Time:        e.now(),
		accounts:    staged,
	}
	if err := p(inv); err != nil {
		return instructionError(index, err)
	}
	return nil
}

func (e *Executor) executeSystem(staged map[string]*solana.AccountInfo, m solana.Message, index int) error {
	if create, err := system.DecompileCreateAccount(m, index); err == nil {
		return e.createAccount(staged, m, create)
	}
	if transfer, err := system.DecompileTransfer(m, index); err == nil {
		return transferLamports(staged, m, transfer)
	}
	return Fail(solana.InstructionErrorInvalidInstructionData)
}

func (e *Executor) createAccount(staged map[string]*solana.AccountInfo, m solana.Message, create *system.DecompiledCreateAccount) error {
	if !isSigner(m, create.Funder) {
		return Fail(solana.InstructionErrorMissingRequiredSignature)
	}
	if !create.AddressSigned {
		// Unsigned creation is only valid for addresses derived from a
		// program that can authorize it.
		if _, ok := e.programs[string(create.Owner)]; !ok {
			return Fail(solana.InstructionErrorMissingRequiredSignature)
		}
		if solana.IsOnCurve(create.Address) {
			return Fail(solana.InstructionErrorInvalidSeeds)
		}
	}
	if create.Size > maxPermittedDataLength {
		return Fail(solana.InstructionErrorInvalidArgument)
	}

	if existing, ok := staged[string(create.Address)]; ok && (existing.Lamports > 0 || len(existing.Data) > 0) {
		return ErrorAccountAlreadyInUse
	}

	funder, ok := staged[string(create.Funder)]
	if !ok || funder.Lamports < create.Lamports {
		return ErrorResultWithNegativeLamports
	}

	funder.Lamports -= create.Lamports
	staged[string(create.Address)] = &solana.AccountInfo{
		Data:     make([]byte, create.Size),
		Owner:    append(ed25519.PublicKey{}, create.Owner...),
		Lamports: create.Lamports,
	}
	return nil
}

func transferLamports(staged map[string]*solana.AccountInfo, m solana.Message, transfer *system.DecompiledTransfer) error {
	if !isSigner(m, transfer.From) {
		return Fail(solana.InstructionErrorMissingRequiredSignature)
	}

	from, ok := staged[string(transfer.From)]
	if !ok || from.Lamports < transfer.Lamports {
		return ErrorResultWithNegativeLamports
	}
	if len(from.Data) > 0 {
		return Fail(solana.InstructionErrorInvalidArgument)
	}

	from.Lamports -= transfer.Lamports
	credit(staged, transfer.To, transfer.Lamports)
	return nil
}

func instructionError(index int, err error) *solana.InstructionError {
	var ixErr *solana.InstructionError
	if errors.As(err, &ixErr) {
		return &solana.InstructionError{Index: index, Err: ixErr.Err}
	}
	return &solana.InstructionError{Index: index, Err: err}
}

func isSigner(m solana.Message, key ed25519.PublicKey) bool {
	for i, account := range m.Accounts {
		if bytes.Equal(account, key) {
			return m.IsSigner(i)
		}
	}
	return false
}

func credit(accounts map[string]*solana.AccountInfo, key ed25519.PublicKey, lamports uint64) {
	info, ok := accounts[string(key)]
	if !ok {
		info = &solana.AccountInfo{Owner: system.ProgramKey[:]}
		accounts[string(key)] = info
	}
	info.Lamports += lamports
}

func cloneAccount(info *solana.AccountInfo) *solana.AccountInfo {
	return &solana.AccountInfo{
		Data:       append([]byte(nil), info.Data...),
		Owner:      append(ed25519.PublicKey(nil), info.Owner...),
		Lamports:   info.Lamports,
		Executable: info.Executable,
	}
}
