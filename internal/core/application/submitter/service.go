package submitter

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/slab-network/oracled/internal/core/ports"
	"github.com/slab-network/oracled/pkg/explorer"
	"github.com/slab-network/oracled/pkg/soltx"
	"github.com/slab-network/oracled/pkg/stats"
)

const (
	DefaultMaxAttempts      = 3
	DefaultComputeUnitLimit = 200_000
	// DefaultMinPriorityFee is in micro-lamports per compute unit.
	DefaultMinPriorityFee  = 1_000
	DefaultConfirmInterval = 2 * time.Second
	DefaultConfirmTimeout  = 60 * time.Second
)

type Config struct {
	MaxAttempts      int
	ComputeUnitLimit uint32
	MinPriorityFee   uint64
	ConfirmInterval  time.Duration
	ConfirmTimeout   time.Duration
	Backoff          BackoffPolicy
	RateLimitBackoff BackoffPolicy
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts == 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.ComputeUnitLimit == 0 {
		c.ComputeUnitLimit = DefaultComputeUnitLimit
	}
	if c.MinPriorityFee == 0 {
		c.MinPriorityFee = DefaultMinPriorityFee
	}
	if c.ConfirmInterval <= 0 {
		c.ConfirmInterval = DefaultConfirmInterval
	}
	if c.ConfirmTimeout <= 0 {
		c.ConfirmTimeout = DefaultConfirmTimeout
	}
	if c.Backoff == (BackoffPolicy{}) {
		c.Backoff = DefaultBackoff
	}
	if c.RateLimitBackoff == (BackoffPolicy{}) {
		c.RateLimitBackoff = DefaultRateLimitBackoff
	}
	return c
}

// Service lands single-instruction transactions on chain, paying a priority
// fee derived from the recent fee market and retrying transient failures.
type Service struct {
	rpc ports.ChainRPC
	cfg Config

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewService(rpc ports.ChainRPC, cfg Config) (*Service, error) {
	if cfg.MaxAttempts < 0 {
		return nil, ErrInvalidMaxAttempts
	}
	return &Service{
		rpc:   rpc,
		cfg:   cfg.withDefaults(),
		now:   time.Now,
		sleep: sleepContext,
	}, nil
}

// Send submits the instruction signed by signer and waits for its
// confirmation. It returns the transaction signature.
func (s *Service) Send(
	ctx context.Context, ix soltx.Instruction, signer ports.Signer,
) (string, error) {
	fee := s.priorityFee(ctx, ix)
	retryBackoff := s.cfg.Backoff.NewBackOff()
	rateLimitBackoff := s.cfg.RateLimitBackoff.NewBackOff()

	var lastErr error
	for attempt := 0; attempt < s.cfg.MaxAttempts; attempt++ {
		signature, err := s.attempt(ctx, ix, signer, fee)
		if err == nil {
			stats.TxAttempts.WithLabelValues("ok").Inc()
			return signature, nil
		}
		if IsFatal(err) || ctx.Err() != nil {
			stats.TxAttempts.WithLabelValues("fatal").Inc()
			return "", err
		}
		stats.TxAttempts.WithLabelValues("retry").Inc()
		lastErr = err

		if attempt == s.cfg.MaxAttempts-1 {
			break
		}

		var delay time.Duration
		if explorer.IsRateLimited(err) {
			delay = rateLimitBackoff.NextBackOff()
		} else {
			delay = retryBackoff.NextBackOff()
		}
		log.WithError(err).Warnf(
			"transaction attempt %d/%d failed, retrying in %s",
			attempt+1, s.cfg.MaxAttempts, delay,
		)
		if err := s.sleep(ctx, delay); err != nil {
			return "", err
		}
	}

	return "", fmt.Errorf(
		"transaction failed after %d attempts: %w", s.cfg.MaxAttempts, lastErr,
	)
}

func (s *Service) priorityFee(ctx context.Context, ix soltx.Instruction) uint64 {
	accounts := make([]string, 0, len(ix.Accounts()))
	for _, a := range ix.Accounts() {
		if a.IsWritable {
			accounts = append(accounts, a.PublicKey.String())
		}
	}

	fees, err := s.rpc.GetRecentPrioritizationFees(ctx, accounts)
	if err != nil {
		log.WithError(err).Warn("failed to fetch recent priority fees, using minimum")
	}
	fee := PriorityFee(fees, s.cfg.MinPriorityFee)
	stats.PriorityFee.Set(float64(fee))
	return fee
}

func (s *Service) attempt(
	ctx context.Context, ix soltx.Instruction, signer ports.Signer, fee uint64,
) (string, error) {
	blockhash, err := s.rpc.GetLatestBlockhash(ctx)
	if err != nil {
		return "", err
	}

	tx, err := soltx.NewTransaction(
		signer.PublicKey(), blockhash.Blockhash,
		soltx.SetComputeUnitLimit(s.cfg.ComputeUnitLimit),
		soltx.SetComputeUnitPrice(fee),
		ix,
	)
	if err != nil {
		return "", err
	}
	if err := tx.Sign(signer); err != nil {
		return "", err
	}

	raw, err := tx.Serialize()
	if err != nil {
		return "", err
	}
	if err := soltx.CheckTransactionSize(raw); err != nil {
		return "", err
	}

	signature, err := s.rpc.SendRawTransaction(ctx, raw)
	if err != nil {
		return "", err
	}
	if signature == "" {
		signature = tx.Signature()
	}
	log.Debugf("sent transaction %s, waiting for confirmation", signature)

	if err := s.confirm(ctx, signature); err != nil {
		return "", err
	}
	return signature, nil
}

// confirm polls the signature status until the transaction is confirmed,
// fails, or the confirmation timeout elapses.
func (s *Service) confirm(ctx context.Context, signature string) error {
	deadline := s.now().Add(s.cfg.ConfirmTimeout)

	for {
		statuses, err := s.rpc.GetSignatureStatuses(ctx, signature)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.WithError(err).Debugf("failed to get status of %s", signature)
		}
		if len(statuses) > 0 && statuses[0] != nil {
			status := statuses[0]
			if status.Failed() {
				return &TransactionError{signature, status.Err}
			}
			if status.Confirmed() {
				return nil
			}
		}

		if !s.now().Before(deadline) {
			return fmt.Errorf("%w: %s", ErrConfirmationTimeout, signature)
		}
		if err := s.sleep(ctx, s.cfg.ConfirmInterval); err != nil {
			return err
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
