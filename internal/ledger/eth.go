package ledger

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"credo/internal/credential/models"
	"credo/internal/platform/tracer"
	id "credo/pkg/domain"
)

// ErrNotConfigured is returned by calls to a contract whose address was not set.
var ErrNotConfigured = errors.New("ledger contract not configured")

// Backend is what EthLedger needs from a chain client. *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// EthConfig configures an EthLedger. Zero contract addresses leave that
// contract unconfigured; a nil PrivateKey makes the ledger read-only.
type EthConfig struct {
	ChainID               *big.Int
	RegistryAddress       common.Address
	TrustRegistryAddress  common.Address
	InteractionHubAddress common.Address
	PrivateKey            *ecdsa.PrivateKey
	ReceiptTimeout        time.Duration
	Tracer                tracer.Tracer
	Logger                *slog.Logger
}

// EthLedger talks to the deployed contracts over JSON-RPC.
type EthLedger struct {
	backend        Backend
	registry       *bind.BoundContract
	trust          *bind.BoundContract
	hub            *bind.BoundContract
	chainID        *big.Int
	key            *ecdsa.PrivateKey
	issuer         id.Account
	receiptTimeout time.Duration
	tracer         tracer.Tracer
	logger         *slog.Logger

	// submitMu serializes nonce selection and submission for the signing key.
	submitMu sync.Mutex
}

// onchainCredential mirrors the registry's credential tuple.
type onchainCredential struct {
	CredentialHash [32]byte
	IpfsCID        string
	Issuer         common.Address
	IsValid        bool
	IssuedAt       *big.Int
}

// Dial connects to rpcURL and builds an EthLedger over the connection.
func Dial(ctx context.Context, rpcURL string, cfg EthConfig) (*EthLedger, *ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, nil, fmt.Errorf("dial chain rpc: %w", err)
	}
	if cfg.ChainID == nil {
		chainID, err := client.ChainID(ctx)
		if err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("read chain id: %w", err)
		}
		cfg.ChainID = chainID
	}
	l, err := NewEthLedger(client, cfg)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return l, client, nil
}

func NewEthLedger(backend Backend, cfg EthConfig) (*EthLedger, error) {
	if cfg.RegistryAddress == (common.Address{}) {
		return nil, fmt.Errorf("credential registry address is required")
	}
	if cfg.ReceiptTimeout <= 0 {
		cfg.ReceiptTimeout = 2 * time.Minute
	}
	if cfg.Tracer == nil {
		cfg.Tracer = tracer.NewNoop()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	registry, err := bindContract(backend, cfg.RegistryAddress, credentialRegistryABI)
	if err != nil {
		return nil, fmt.Errorf("bind credential registry: %w", err)
	}
	l := &EthLedger{
		backend:        backend,
		registry:       registry,
		chainID:        cfg.ChainID,
		key:            cfg.PrivateKey,
		receiptTimeout: cfg.ReceiptTimeout,
		tracer:         cfg.Tracer,
		logger:         cfg.Logger,
	}
	if cfg.TrustRegistryAddress != (common.Address{}) {
		if l.trust, err = bindContract(backend, cfg.TrustRegistryAddress, trustRegistryABI); err != nil {
			return nil, fmt.Errorf("bind trust registry: %w", err)
		}
	}
	if cfg.InteractionHubAddress != (common.Address{}) {
		if l.hub, err = bindContract(backend, cfg.InteractionHubAddress, interactionHubABI); err != nil {
			return nil, fmt.Errorf("bind interaction hub: %w", err)
		}
	}
	if cfg.PrivateKey != nil {
		l.issuer = id.AccountFromAddress(crypto.PubkeyToAddress(cfg.PrivateKey.PublicKey))
	}
	return l, nil
}

func bindContract(backend Backend, addr common.Address, definition string) (*bind.BoundContract, error) {
	parsed, err := abi.JSON(strings.NewReader(definition))
	if err != nil {
		return nil, err
	}
	return bind.NewBoundContract(addr, parsed, backend, backend, backend), nil
}

// ParsePrivateKey accepts a hex secp256k1 key with or without 0x.
func ParsePrivateKey(s string) (*ecdsa.PrivateKey, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	key, err := crypto.HexToECDSA(s)
	if err != nil {
		return nil, fmt.Errorf("parse issuer private key: %w", err)
	}
	return key, nil
}

// Issuer is the signing account, empty when read-only.
func (l *EthLedger) Issuer() id.Account { return l.issuer }

// ListCredentials calls getUserCredentials and returns the records in ledger order.
func (l *EthLedger) ListCredentials(ctx context.Context, account id.Account) (records []models.CredentialRecord, err error) {
	ctx, span := l.tracer.Start(ctx, tracer.SpanLedgerList, tracer.String(tracer.AttrAccount, account.String()))
	defer func() { span.End(err) }()

	var out []any
	if err := l.registry.Call(&bind.CallOpts{Context: ctx}, &out, "getUserCredentials", account.Address()); err != nil {
		return nil, fmt.Errorf("%w: getUserCredentials: %w", ErrUnavailable, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: getUserCredentials returned no values", ErrUnavailable)
	}
	raw := *abi.ConvertType(out[0], new([]onchainCredential)).(*[]onchainCredential)

	records = make([]models.CredentialRecord, 0, len(raw))
	for _, c := range raw {
		records = append(records, c.toRecord())
	}
	span.SetAttributes(tracer.Int64(tracer.AttrRecordCount, int64(len(records))))
	return records, nil
}

func (c onchainCredential) toRecord() models.CredentialRecord {
	var issuedAt time.Time
	if c.IssuedAt != nil && c.IssuedAt.IsInt64() {
		issuedAt = time.Unix(c.IssuedAt.Int64(), 0).UTC()
	}
	return models.CredentialRecord{
		CredentialHash: models.Digest(c.CredentialHash),
		IpfsCID:        c.IpfsCID,
		Issuer:         id.AccountFromAddress(c.Issuer),
		IsValid:        c.IsValid,
		IssuedAt:       issuedAt,
	}
}

func (l *EthLedger) Issue(ctx context.Context, to id.Account, hash models.Digest, contentID string) (Receipt, error) {
	r, err := l.transact(ctx, l.registry, "issueCredential", to.Address(), [32]byte(hash), contentID)
	if err != nil && revertMentions(err, "exist", "issued") {
		return Receipt{}, fmt.Errorf("%w: %w", ErrAlreadyIssued, err)
	}
	return r, err
}

// Revoke calls revokeCredential(bytes32). Contract reverts are mapped onto
// ErrAlreadyRevoked or ErrNotFound when the revert reason says so.
func (l *EthLedger) Revoke(ctx context.Context, hash models.Digest) (Receipt, error) {
	r, err := l.transact(ctx, l.registry, "revokeCredential", [32]byte(hash))
	switch {
	case err == nil:
		return r, nil
	case revertMentions(err, "already revoked", "not valid", "inactive"):
		return Receipt{}, fmt.Errorf("%w: %w", ErrAlreadyRevoked, err)
	case revertMentions(err, "not found", "does not exist", "unknown"):
		return Receipt{}, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return Receipt{}, err
}

func (l *EthLedger) IsTrusted(ctx context.Context, account id.Account) (bool, error) {
	if l.trust == nil {
		return false, fmt.Errorf("trust registry: %w", ErrNotConfigured)
	}
	var out []any
	if err := l.trust.Call(&bind.CallOpts{Context: ctx}, &out, "isTrusted", account.Address()); err != nil {
		return false, fmt.Errorf("%w: isTrusted: %w", ErrUnavailable, err)
	}
	if len(out) == 0 {
		return false, fmt.Errorf("%w: isTrusted returned no values", ErrUnavailable)
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

func (l *EthLedger) CreateClaimRequest(ctx context.Context, target id.Account, fields []string, reason string) (Receipt, error) {
	if l.hub == nil {
		return Receipt{}, fmt.Errorf("interaction hub: %w", ErrNotConfigured)
	}
	return l.transact(ctx, l.hub, "createClaimRequest", target.Address(), fields, reason)
}

func (l *EthLedger) CreateAttestation(ctx context.Context, target id.Account, text string) (Receipt, error) {
	if l.hub == nil {
		return Receipt{}, fmt.Errorf("interaction hub: %w", ErrNotConfigured)
	}
	return l.transact(ctx, l.hub, "createAttestation", target.Address(), text)
}

// Health reads the latest header.
func (l *EthLedger) Health(ctx context.Context) error {
	if _, err := l.backend.HeaderByNumber(ctx, nil); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

// transact signs, submits and waits for a transaction to be mined.
func (l *EthLedger) transact(ctx context.Context, contract *bind.BoundContract, method string, args ...any) (receipt Receipt, err error) {
	ctx, span := l.tracer.Start(ctx, tracer.SpanLedgerTransact, tracer.String("ledger.method", method))
	defer func() { span.End(err) }()

	if l.key == nil {
		return Receipt{}, ErrReadOnly
	}
	opts, err := bind.NewKeyedTransactorWithChainID(l.key, l.chainID)
	if err != nil {
		return Receipt{}, fmt.Errorf("build transactor: %w", err)
	}
	opts.Context = ctx

	l.submitMu.Lock()
	tx, err := contract.Transact(opts, method, args...)
	l.submitMu.Unlock()
	if err != nil {
		return Receipt{}, fmt.Errorf("%s: %w", method, err)
	}
	l.logger.InfoContext(ctx, "transaction submitted", "method", method, "tx_hash", tx.Hash().Hex())

	waitCtx, cancel := context.WithTimeout(ctx, l.receiptTimeout)
	defer cancel()
	mined, err := bind.WaitMined(waitCtx, l.backend, tx)
	if err != nil {
		return Receipt{}, fmt.Errorf("%s: wait for receipt %s: %w", method, tx.Hash().Hex(), err)
	}
	if mined.Status == types.ReceiptStatusFailed {
		return Receipt{}, fmt.Errorf("%s: transaction %s reverted", method, tx.Hash().Hex())
	}
	return Receipt{TxHash: tx.Hash().Hex(), BlockNumber: mined.BlockNumber.Uint64()}, nil
}

func revertMentions(err error, fragments ...string) bool {
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "revert") {
		return false
	}
	for _, f := range fragments {
		if strings.Contains(msg, f) {
			return true
		}
	}
	return false
}

var (
	_ Reader         = (*EthLedger)(nil)
	_ Writer         = (*EthLedger)(nil)
	_ TrustRegistry  = (*EthLedger)(nil)
	_ InteractionHub = (*EthLedger)(nil)
)
