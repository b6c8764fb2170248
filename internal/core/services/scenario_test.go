package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/billing_ledger/internal/apperrors"
	"github.com/SscSPs/billing_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/billing_ledger/internal/core/ports/services"
	"github.com/SscSPs/billing_ledger/internal/core/services"
	"github.com/SscSPs/billing_ledger/internal/platform/config"
	"github.com/SscSPs/billing_ledger/internal/repositories/memory"
	"github.com/SscSPs/billing_ledger/pkg/rabbitmq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMemoryContainer wires every service over one in-memory store.
func newMemoryContainer(t *testing.T) (*portssvc.ServiceContainer, *memory.Store) {
	t.Helper()
	store := memory.New()
	cfg := &config.Config{
		BillingEnabled:         true,
		BillingExchange:        "billing_events",
		ChargeRoutingKey:       "billing.charge",
		ChargeMaxRetries:       3,
		EventClaimTTL:          time.Second,
		FirstGrantBusinessType: grantBusinessType,
	}
	return services.NewServiceContainer(cfg, store.Provider(), &rabbitmq.EventProducerFallback{}, store), store
}

func syncUser(t *testing.T, store *memory.Store, user domain.User) {
	t.Helper()
	require.NoError(t, store.SaveUser(context.Background(), user))
}

func TestScenario_SubAccountChargeIsAppliedOnce(t *testing.T) {
	ctx := context.Background()
	c, store := newMemoryContainer(t)
	syncUser(t, store, domain.User{UserID: 7, RoleKey: "main_account"})
	syncUser(t, store, domain.User{UserID: 12, RoleKey: "sub_account", ParentUserID: int64Ptr(7)})

	_, err := c.Lifecycle.OnAccountCreated(ctx, 7)
	require.NoError(t, err)
	_, err = c.Ledger.Apply(ctx, domain.ApplyRequest{UserID: 7, Amount: dec("100"), BillType: domain.Credit, BillingType: domain.BillingTypeRecharge})
	require.NoError(t, err)

	event := chargeEvent("evt-70", "30")
	first := c.Processor.Process(ctx, event)
	require.Equal(t, domain.ChargeApplied, first.State, first.Err)
	assert.Equal(t, int64(12), first.Entry.OperatorUserID)

	redelivered := c.Processor.Process(ctx, event)
	assert.Equal(t, domain.ChargeDiscarded, redelivered.State)
	assert.Equal(t, services.ReasonDuplicate, redelivered.Reason)

	account, err := c.Ledger.GetBalance(ctx, 7)
	require.NoError(t, err)
	assert.True(t, account.Balance.Equal(dec("70")), "balance %s", account.Balance)

	r, err := c.Reconciliation.Reconcile(ctx, 7)
	require.NoError(t, err)
	assert.True(t, r.Consistent)
	assert.Equal(t, int64(2), r.EntryCount)
}

func TestScenario_GuardRejectsLowBalance(t *testing.T) {
	ctx := context.Background()
	c, store := newMemoryContainer(t)
	syncUser(t, store, domain.User{UserID: 7, RoleKey: "enterprise"})
	_, err := c.Lifecycle.OnAccountCreated(ctx, 7)
	require.NoError(t, err)
	_, err = c.Ledger.Apply(ctx, domain.ApplyRequest{UserID: 7, Amount: dec("10"), BillType: domain.Credit, BillingType: domain.BillingTypeRecharge})
	require.NoError(t, err)

	_, err = c.Guard.EnsureSufficient(ctx, 7, decPtr("50"), "report")
	assert.ErrorIs(t, err, apperrors.ErrInsufficientFunds)

	account, _ := c.Ledger.GetBalance(ctx, 7)
	assert.True(t, account.Balance.Equal(dec("10")), "guard must not mutate")
}

func TestScenario_FirstTimeGrant(t *testing.T) {
	ctx := context.Background()
	c, store := newMemoryContainer(t)
	syncUser(t, store, domain.User{UserID: 7, RoleKey: "main_account"})
	syncUser(t, store, domain.User{UserID: 8, RoleKey: "main_account"})

	// No price configured yet.
	result, err := c.Lifecycle.OnAccountCreated(ctx, 8)
	require.NoError(t, err)
	assert.Nil(t, result.GrantEntry)
	assert.True(t, result.Account.Balance.IsZero())

	require.NoError(t, store.SavePrice(ctx, domain.Price{BusinessType: grantBusinessType, Amount: dec("20")}))
	result, err = c.Lifecycle.OnAccountCreated(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, result.GrantEntry)
	assert.True(t, result.Account.Balance.Equal(dec("20")))

	// Re-running the hook grants nothing twice.
	again, err := c.Lifecycle.OnAccountCreated(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, again.GrantEntry)
	assert.True(t, again.Account.Balance.Equal(dec("20")))
}

func TestScenario_ZeroAmountEventDiscarded(t *testing.T) {
	ctx := context.Background()
	c, store := newMemoryContainer(t)
	syncUser(t, store, domain.User{UserID: 7, RoleKey: "main_account"})
	_, err := c.Lifecycle.OnAccountCreated(ctx, 7)
	require.NoError(t, err)

	event := chargeEvent("evt-zero", "0")
	event.RequestUserID = 7
	outcome := c.Processor.Process(ctx, event)

	assert.Equal(t, domain.ChargeDiscarded, outcome.State)
	_, err = c.Ledger.FindEntryByEventID(ctx, "evt-zero")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestScenario_InsufficientChargeIsTerminalAndUntouched(t *testing.T) {
	ctx := context.Background()
	c, store := newMemoryContainer(t)
	syncUser(t, store, domain.User{UserID: 7, RoleKey: "main_account"})
	_, err := c.Lifecycle.OnAccountCreated(ctx, 7)
	require.NoError(t, err)

	event := chargeEvent("evt-big", "5")
	event.RequestUserID = 7
	outcome := c.Processor.Process(ctx, event)

	assert.Equal(t, domain.ChargeFailedTerminal, outcome.State)
	assert.ErrorIs(t, outcome.Err, apperrors.ErrInsufficientFunds)

	dl, err := c.DeadLetter.Record(ctx, outcome)
	require.NoError(t, err)
	assert.Equal(t, "evt-big", dl.EventID)

	account, _ := c.Ledger.GetBalance(ctx, 7)
	assert.True(t, account.Balance.IsZero())
}
