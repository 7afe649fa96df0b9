package main

import (
	"context"
	"crypto/ed25519"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/unity-vault/vault-client/pkg/solana/keyfile"
	"github.com/unity-vault/vault-client/pkg/solana/unityvault"
	"github.com/unity-vault/vault-client/pkg/vault"
	"github.com/unity-vault/vault-client/pkg/vault/community"
	"github.com/unity-vault/vault-client/pkg/vault/governance"
	"github.com/unity-vault/vault-client/pkg/vault/lending"
	"github.com/unity-vault/vault-client/pkg/vault/profile"
	"github.com/unity-vault/vault-client/pkg/vault/tokenization"
)

const (
	lamportsPerSol = 1_000_000_000

	defaultShutdownTimeout = 5 * time.Second
)

var out io.Writer = os.Stdout

type command struct {
	usage      string
	needsPayer bool
	run        func(ctx context.Context, env *environment, args []string) error
}

var commands = map[string]command{
	"keygen":           {usage: "<path>  write a new key file", run: runKeygen},
	"address":          {usage: "print the payer address", needsPayer: true, run: runAddress},
	"balance":          {usage: "[address]  print a balance in lamports", needsPayer: true, run: runBalance},
	"airdrop":          {usage: "<sol>  request an airdrop to the payer", needsPayer: true, run: runAirdrop},
	"community-create": {usage: "-name -description -rules -private", needsPayer: true, run: runCommunityCreate},
	"community-list":   {usage: "[-owner address]  list communities", run: runCommunityList},
	"proposal-create":  {usage: "-title -description -duration -min-votes -min-approval", needsPayer: true, run: runProposalCreate},
	"vote":             {usage: "<proposal> <approve|reject|abstain>", needsPayer: true, run: runVote},
	"results":          {usage: "<proposal>  print the voting results", run: runResults},
	"pool-init":        {usage: "-mint -vault -rate -min -max [-resume]", needsPayer: true, run: runPoolInit},
	"loan-create":      {usage: "<pool> <amount> <duration>", needsPayer: true, run: runLoanCreate},
	"loan-repay":       {usage: "<pool>", needsPayer: true, run: runLoanRepay},
	"token-create":     {usage: "-name -symbol -decimals -supply", needsPayer: true, run: runTokenCreate},
	"token-transfer":   {usage: "<from> <to> <recipient> <amount>", needsPayer: true, run: runTokenTransfer},
	"token-burn":       {usage: "<token account> <amount>", needsPayer: true, run: runTokenBurn},
	"profile-create":   {usage: "-username -email -bio", needsPayer: true, run: runProfileCreate},
	"profile-get":      {usage: "[wallet]  print a profile", needsPayer: true, run: runProfileGet},
	"demo":             {usage: "run every domain flow with the payer", needsPayer: true, run: runDemo},
}

func runKeygen(_ context.Context, _ *environment, args []string) error {
	if len(args) != 1 {
		return errors.New("expected a key file path")
	}

	path, err := expandPath(args[0])
	if err != nil {
		return err
	}

	pub, key, err := ed25519.GenerateKey(nil)
	if err != nil {
		return errors.Wrap(err, "failed to generate key")
	}
	if err := keyfile.Write(path, key); err != nil {
		return err
	}

	fmt.Fprintln(out, base58.Encode(pub))
	return nil
}

func runAddress(_ context.Context, env *environment, _ []string) error {
	fmt.Fprintln(out, base58.Encode(env.payer.PublicKey()))
	return nil
}

func runBalance(ctx context.Context, env *environment, args []string) error {
	account := env.payer.PublicKey()
	if len(args) > 0 {
		var err error
		if account, err = parseAddress(args[0]); err != nil {
			return err
		}
	}

	balance, err := env.client.GetBalance(ctx, account)
	if err != nil {
		return errors.Wrap(err, "failed to get balance")
	}

	fmt.Fprintf(out, "%d\n", balance)
	return nil
}

func runAirdrop(ctx context.Context, env *environment, args []string) error {
	if len(args) != 1 {
		return errors.New("expected an amount in sol")
	}

	lamports, err := parseSol(args[0])
	if err != nil {
		return err
	}

	sig, err := env.client.RequestAirdrop(ctx, env.payer.PublicKey(), lamports, env.orchestrator.Config().Commitment)
	if err != nil {
		return errors.Wrap(err, "failed to request airdrop")
	}

	fmt.Fprintln(out, base58.Encode(sig[:]))
	return nil
}

func runCommunityCreate(ctx context.Context, env *environment, args []string) error {
	fs := flag.NewFlagSet("community-create", flag.ContinueOnError)
	params := &unityvault.CommunityParams{}
	fs.StringVar(&params.Name, "name", "", "community name")
	fs.StringVar(&params.Description, "description", "", "community description")
	rules := fs.String("rules", "", "comma separated rules")
	fs.BoolVar(&params.IsPrivate, "private", false, "private community")
	if err := fs.Parse(args); err != nil {
		return err
	}
	params.Rules = splitList(*rules)

	address, receipt, err := community.NewClient(env.orchestrator).CreateCommunity(ctx, env.payer, params)
	if err != nil {
		return err
	}

	printCreated("community", address, receipt)
	return nil
}

func runCommunityList(ctx context.Context, env *environment, args []string) error {
	fs := flag.NewFlagSet("community-list", flag.ContinueOnError)
	ownerFlag := fs.String("owner", "", "only list communities owned by this address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var owner ed25519.PublicKey
	if len(*ownerFlag) > 0 {
		var err error
		if owner, err = parseAddress(*ownerFlag); err != nil {
			return err
		}
	}

	communities, err := community.NewClient(env.orchestrator).ListCommunities(ctx, owner)
	if err != nil {
		return err
	}

	for _, c := range communities {
		fmt.Fprintf(out, "%s\t%s\tmembers=%d\tprivate=%t\n", base58.Encode(c.Address), c.State.Name, c.State.MemberCount, c.State.IsPrivate)
	}
	return nil
}

func runProposalCreate(ctx context.Context, env *environment, args []string) error {
	fs := flag.NewFlagSet("proposal-create", flag.ContinueOnError)
	params := &unityvault.ProposalParams{}
	fs.StringVar(&params.Title, "title", "", "proposal title")
	fs.StringVar(&params.Description, "description", "", "proposal description")
	duration := fs.Duration("duration", 7*24*time.Hour, "voting period")
	minVotes := fs.Uint("min-votes", 1, "minimum number of votes")
	minApproval := fs.Uint("min-approval", 51, "minimum approval percentage")
	if err := fs.Parse(args); err != nil {
		return err
	}
	params.VotingDuration = int64(duration.Seconds())
	params.MinVotes = uint32(*minVotes)
	params.MinApprovalPercentage = uint8(*minApproval)

	address, receipt, err := governance.NewClient(env.orchestrator).CreateProposal(ctx, env.payer, params)
	if err != nil {
		return err
	}

	printCreated("proposal", address, receipt)
	return nil
}

func runVote(ctx context.Context, env *environment, args []string) error {
	if len(args) != 2 {
		return errors.New("expected a proposal and a vote")
	}

	proposal, err := parseAddress(args[0])
	if err != nil {
		return err
	}
	voteType, err := parseVoteType(args[1])
	if err != nil {
		return err
	}

	address, receipt, err := governance.NewClient(env.orchestrator).Vote(ctx, env.payer, proposal, voteType)
	if err != nil {
		return err
	}

	printCreated("vote", address, receipt)
	return nil
}

func runResults(ctx context.Context, env *environment, args []string) error {
	if len(args) != 1 {
		return errors.New("expected a proposal")
	}

	proposal, err := parseAddress(args[0])
	if err != nil {
		return err
	}

	results, err := governance.NewClient(env.orchestrator).GetVotingResults(ctx, proposal)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "approve=%d reject=%d abstain=%d approval=%d%% passes=%t\n",
		results.Approve, results.Reject, results.Abstain, results.ApprovalPercentage(), results.Passes())
	return nil
}

func runPoolInit(ctx context.Context, env *environment, args []string) error {
	fs := flag.NewFlagSet("pool-init", flag.ContinueOnError)
	mint := fs.String("mint", "", "token mint")
	tokenVault := fs.String("vault", "", "token account holding the pool funds")
	params := &unityvault.LendingPoolParams{}
	fs.Uint64Var(&params.InterestRate, "rate", 500, "interest rate in basis points")
	fs.Uint64Var(&params.MinLoanAmount, "min", 1, "minimum loan amount")
	fs.Uint64Var(&params.MaxLoanAmount, "max", 1_000_000, "maximum loan amount")
	resume := fs.Bool("resume", false, "only run the init step of a funded pool")
	if err := fs.Parse(args); err != nil {
		return err
	}

	accounts := &lending.PoolAccounts{}
	var err error
	if accounts.TokenMint, err = parseAddress(*mint); err != nil {
		return errors.Wrap(err, "invalid mint")
	}
	if accounts.TokenVault, err = parseAddress(*tokenVault); err != nil {
		return errors.Wrap(err, "invalid vault")
	}

	client := lending.NewClient(env.orchestrator)
	if *resume {
		receipt, err := client.ResumeLendingPool(ctx, env.payer, accounts, params)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "init %s\n", receipt)
		return nil
	}

	address, result, err := client.InitLendingPool(ctx, env.payer, accounts, params)
	printResult("lending pool", address, result)
	return err
}

func runLoanCreate(ctx context.Context, env *environment, args []string) error {
	if len(args) != 3 {
		return errors.New("expected a pool, an amount and a duration")
	}

	pool, err := parseAddress(args[0])
	if err != nil {
		return err
	}
	amount, err := strconv.ParseUint(args[1], 10, 64)
	if err != nil {
		return errors.Wrap(err, "invalid amount")
	}
	duration, err := time.ParseDuration(args[2])
	if err != nil {
		return errors.Wrap(err, "invalid duration")
	}

	address, receipt, err := lending.NewClient(env.orchestrator).CreateLoan(ctx, env.payer, pool, &unityvault.LoanParams{
		Amount:   amount,
		Duration: int64(duration.Seconds()),
	})
	if err != nil {
		return err
	}

	printCreated("loan", address, receipt)
	return nil
}

func runLoanRepay(ctx context.Context, env *environment, args []string) error {
	if len(args) != 1 {
		return errors.New("expected a pool")
	}

	pool, err := parseAddress(args[0])
	if err != nil {
		return err
	}

	receipt, err := lending.NewClient(env.orchestrator).RepayLoan(ctx, env.payer, pool)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "repaid %s\n", receipt)
	return nil
}

func runTokenCreate(ctx context.Context, env *environment, args []string) error {
	fs := flag.NewFlagSet("token-create", flag.ContinueOnError)
	params := &unityvault.TokenParams{}
	fs.StringVar(&params.Name, "name", "", "token name")
	fs.StringVar(&params.Symbol, "symbol", "", "token symbol")
	decimals := fs.Uint("decimals", 9, "token decimals")
	fs.Uint64Var(&params.TotalSupply, "supply", 0, "total supply in base units")
	if err := fs.Parse(args); err != nil {
		return err
	}
	params.Decimals = uint8(*decimals)

	created, result, err := tokenization.NewClient(env.orchestrator).CreateToken(ctx, env.payer, params)
	if created != nil {
		fmt.Fprintf(out, "mint %s\ntoken account %s\n", base58.Encode(created.Mint), base58.Encode(created.TokenAccount))
		printResult("token info", created.TokenInfo, result)
	}
	return err
}

func runTokenTransfer(ctx context.Context, env *environment, args []string) error {
	if len(args) != 4 {
		return errors.New("expected a source, a destination, a recipient and an amount")
	}

	addresses := make([]ed25519.PublicKey, 3)
	for i := range addresses {
		var err error
		if addresses[i], err = parseAddress(args[i]); err != nil {
			return err
		}
	}
	amount, err := strconv.ParseUint(args[3], 10, 64)
	if err != nil {
		return errors.Wrap(err, "invalid amount")
	}

	receipt, err := tokenization.NewClient(env.orchestrator).TransferTokens(ctx, env.payer, addresses[0], addresses[1], addresses[2], amount)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "transferred %s\n", receipt)
	return nil
}

func runTokenBurn(ctx context.Context, env *environment, args []string) error {
	if len(args) != 2 {
		return errors.New("expected a token account and an amount")
	}

	account, err := parseAddress(args[0])
	if err != nil {
		return err
	}
	amount, err := strconv.ParseUint(args[1], 10, 64)
	if err != nil {
		return errors.Wrap(err, "invalid amount")
	}

	receipt, err := tokenization.NewClient(env.orchestrator).BurnTokens(ctx, env.payer, account, amount)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "burned %s\n", receipt)
	return nil
}

func runProfileCreate(ctx context.Context, env *environment, args []string) error {
	fs := flag.NewFlagSet("profile-create", flag.ContinueOnError)
	params := &unityvault.UserProfileParams{}
	fs.StringVar(&params.Username, "username", "", "username")
	fs.StringVar(&params.Email, "email", "", "email address")
	fs.StringVar(&params.Bio, "bio", "", "short bio")
	fs.StringVar(&params.ProfileImage, "image", "", "profile image url")
	links := fs.String("links", "", "comma separated social links")
	if err := fs.Parse(args); err != nil {
		return err
	}
	params.SocialLinks = splitList(*links)

	address, receipt, err := profile.NewClient(env.orchestrator).CreateProfile(ctx, env.payer, params)
	if err != nil {
		return err
	}

	printCreated("profile", address, receipt)
	return nil
}

func runProfileGet(ctx context.Context, env *environment, args []string) error {
	wallet := env.payer.PublicKey()
	if len(args) > 0 {
		var err error
		if wallet, err = parseAddress(args[0]); err != nil {
			return err
		}
	}

	p, err := profile.NewClient(env.orchestrator).GetProfile(ctx, wallet)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "username=%s email=%s 2fa=%t kyc=%t\n", p.Username, p.Email, p.TwoFactorEnabled, p.KycVerified)
	return nil
}

func parseAddress(s string) (ed25519.PublicKey, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid address %q", s)
	}
	if len(b) != ed25519.PublicKeySize {
		return nil, errors.Errorf("invalid address %q: expected %d bytes, got %d", s, ed25519.PublicKeySize, len(b))
	}
	return b, nil
}

func parseVoteType(s string) (unityvault.VoteType, error) {
	for _, v := range []unityvault.VoteType{unityvault.VoteTypeApprove, unityvault.VoteTypeReject, unityvault.VoteTypeAbstain} {
		if strings.EqualFold(s, v.String()) {
			return v, nil
		}
	}
	return 0, errors.Errorf("unknown vote type %q", s)
}

// parseSol converts a decimal sol amount into lamports.
func parseSol(s string) (uint64, error) {
	whole, frac, _ := strings.Cut(s, ".")
	if len(frac) > 9 {
		return 0, errors.Errorf("too many decimal places in %q", s)
	}

	w, err := strconv.ParseUint(whole, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid amount %q", s)
	}

	var f uint64
	if len(frac) > 0 {
		f, err = strconv.ParseUint(frac+strings.Repeat("0", 9-len(frac)), 10, 64)
		if err != nil {
			return 0, errors.Wrapf(err, "invalid amount %q", s)
		}
	}

	if w > (^uint64(0)-f)/lamportsPerSol {
		return 0, errors.Errorf("amount %q overflows", s)
	}
	return w*lamportsPerSol + f, nil
}

func splitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); len(item) > 0 {
			items = append(items, item)
		}
	}
	return items
}

func printCreated(kind string, address ed25519.PublicKey, receipt *vault.Receipt) {
	fmt.Fprintf(out, "%s %s\n%s\n", kind, base58.Encode(address), receipt)
}

func printResult(kind string, address ed25519.PublicKey, result *vault.Result) {
	fmt.Fprintf(out, "%s %s\n", kind, base58.Encode(address))
	if result == nil {
		return
	}
	if result.Funding != nil {
		fmt.Fprintf(out, "funding %s\n", result.Funding)
	}
	if result.Receipt != nil {
		fmt.Fprintf(out, "init %s\n", result.Receipt)
	}
}
