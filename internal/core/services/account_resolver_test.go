package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/SscSPs/billing_ledger/internal/apperrors"
	"github.com/SscSPs/billing_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/billing_ledger/internal/core/ports/services"
	"github.com/SscSPs/billing_ledger/internal/core/services"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type AccountResolverTestSuite struct {
	suite.Suite
	mockUsers *MockUserRepository
	resolver  portssvc.AccountResolverSvc
}

func (suite *AccountResolverTestSuite) SetupTest() {
	suite.mockUsers = new(MockUserRepository)
	suite.resolver = services.NewAccountResolver(suite.mockUsers)
}

func (suite *AccountResolverTestSuite) TestResolve_Primary() {
	ctx := context.Background()
	suite.mockUsers.On("FindUserByID", ctx, int64(7)).Return(&domain.User{UserID: 7, RoleKey: "main_account"}, nil).Once()

	ca, err := suite.resolver.Resolve(ctx, 7)

	suite.Require().NoError(err)
	suite.Equal(domain.ChargeAccount{ChargeUserID: 7, OperatorUserID: 7, IsMainAccount: true}, *ca)
	suite.mockUsers.AssertExpectations(suite.T())
}

func (suite *AccountResolverTestSuite) TestResolve_SubAccountChargesParent() {
	ctx := context.Background()
	suite.mockUsers.On("FindUserByID", ctx, int64(12)).Return(&domain.User{UserID: 12, RoleKey: "sub_account", ParentUserID: int64Ptr(7)}, nil).Once()
	suite.mockUsers.On("FindUserByID", ctx, int64(7)).Return(&domain.User{UserID: 7, RoleKey: "enterprise"}, nil).Once()

	ca, err := suite.resolver.Resolve(ctx, 12)

	suite.Require().NoError(err)
	suite.Equal(int64(7), ca.ChargeUserID)
	suite.Equal(int64(12), ca.OperatorUserID)
	suite.False(ca.IsMainAccount)
	suite.mockUsers.AssertExpectations(suite.T())
}

func (suite *AccountResolverTestSuite) TestResolve_SubAccountWithoutParent() {
	ctx := context.Background()
	suite.mockUsers.On("FindUserByID", ctx, int64(12)).Return(&domain.User{UserID: 12, RoleKey: "team_member"}, nil).Once()

	ca, err := suite.resolver.Resolve(ctx, 12)

	suite.Nil(ca)
	suite.ErrorIs(err, apperrors.ErrConfiguration)
	suite.ErrorIs(err, services.ErrSubAccountUnbound)
}

func (suite *AccountResolverTestSuite) TestResolve_ParentMissing() {
	ctx := context.Background()
	suite.mockUsers.On("FindUserByID", ctx, int64(12)).Return(&domain.User{UserID: 12, RoleKey: "sub_account", ParentUserID: int64Ptr(99)}, nil).Once()
	suite.mockUsers.On("FindUserByID", ctx, int64(99)).Return(nil, fmt.Errorf("%w: user 99", apperrors.ErrNotFound)).Once()

	_, err := suite.resolver.Resolve(ctx, 12)

	suite.ErrorIs(err, apperrors.ErrConfiguration)
	suite.NotErrorIs(err, apperrors.ErrNotFound)
}

func (suite *AccountResolverTestSuite) TestResolve_ParentNotPrimary() {
	ctx := context.Background()
	suite.mockUsers.On("FindUserByID", ctx, int64(12)).Return(&domain.User{UserID: 12, RoleKey: "sub_account", ParentUserID: int64Ptr(13)}, nil).Once()
	suite.mockUsers.On("FindUserByID", ctx, int64(13)).Return(&domain.User{UserID: 13, RoleKey: "sub_account", ParentUserID: int64Ptr(7)}, nil).Once()

	_, err := suite.resolver.Resolve(ctx, 12)

	suite.ErrorIs(err, services.ErrSubAccountUnbound)
}

func (suite *AccountResolverTestSuite) TestResolve_OtherIdentityForbidden() {
	ctx := context.Background()
	suite.mockUsers.On("FindUserByID", ctx, int64(3)).Return(&domain.User{UserID: 3, RoleKey: "admin"}, nil).Once()

	_, err := suite.resolver.Resolve(ctx, 3)

	suite.ErrorIs(err, apperrors.ErrForbidden)
	suite.ErrorIs(err, services.ErrNotChargeable)
}

func (suite *AccountResolverTestSuite) TestResolve_UnknownUser() {
	ctx := context.Background()
	suite.mockUsers.On("FindUserByID", ctx, int64(4)).Return(nil, fmt.Errorf("%w: user 4", apperrors.ErrNotFound)).Once()

	_, err := suite.resolver.Resolve(ctx, 4)

	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *AccountResolverTestSuite) TestResolve_InvalidID() {
	_, err := suite.resolver.Resolve(context.Background(), 0)

	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockUsers.AssertNotCalled(suite.T(), "FindUserByID", mock.Anything, mock.Anything)
}

func TestAccountResolverTestSuite(t *testing.T) {
	suite.Run(t, new(AccountResolverTestSuite))
}

// --- Balance guard ---

type BalanceGuardTestSuite struct {
	suite.Suite
	mockResolver *MockResolver
	mockBalances *MockBalanceRepository
	guard        portssvc.BalanceGuardSvc
}

func (suite *BalanceGuardTestSuite) SetupTest() {
	suite.mockResolver = new(MockResolver)
	suite.mockBalances = new(MockBalanceRepository)
	suite.guard = services.NewBalanceGuard(suite.mockResolver, suite.mockBalances)
}

func (suite *BalanceGuardTestSuite) expectAccount(balance string, status domain.AccountStatus) {
	suite.mockResolver.On("Resolve", mock.Anything, int64(12)).
		Return(&domain.ChargeAccount{ChargeUserID: 7, OperatorUserID: 12}, nil).Once()
	suite.mockBalances.On("FindBalanceByUserID", mock.Anything, int64(7)).
		Return(&domain.BillingAccount{UserID: 7, Balance: dec(balance), Status: status}, nil).Once()
}

func (suite *BalanceGuardTestSuite) TestEnsureSufficient_Passes() {
	suite.expectAccount("50", domain.AccountStatusNormal)

	ca, err := suite.guard.EnsureSufficient(context.Background(), 12, decPtr("50"), "report")

	suite.Require().NoError(err)
	suite.Equal(int64(7), ca.ChargeUserID)
	suite.Equal(int64(12), ca.OperatorUserID)
}

func (suite *BalanceGuardTestSuite) TestEnsureSufficient_BelowMinimum() {
	suite.expectAccount("10", domain.AccountStatusNormal)

	ca, err := suite.guard.EnsureSufficient(context.Background(), 12, decPtr("50"), "report")

	suite.Nil(ca)
	suite.ErrorIs(err, apperrors.ErrInsufficientFunds)
	suite.Contains(err.Error(), "report")
}

func (suite *BalanceGuardTestSuite) TestEnsureSufficient_DefaultMinimumIsZero() {
	suite.expectAccount("0", domain.AccountStatusNormal)

	_, err := suite.guard.EnsureSufficient(context.Background(), 12, nil, "")

	suite.NoError(err)
}

func (suite *BalanceGuardTestSuite) TestEnsureSufficient_FrozenAccount() {
	suite.expectAccount("100", domain.AccountStatusFrozen)

	_, err := suite.guard.EnsureSufficient(context.Background(), 12, nil, "")

	suite.ErrorIs(err, apperrors.ErrAccountAbnormal)
}

func (suite *BalanceGuardTestSuite) TestEnsureSufficient_NoBillingAccount() {
	suite.mockResolver.On("Resolve", mock.Anything, int64(12)).
		Return(&domain.ChargeAccount{ChargeUserID: 7, OperatorUserID: 12}, nil).Once()
	suite.mockBalances.On("FindBalanceByUserID", mock.Anything, int64(7)).
		Return(nil, fmt.Errorf("%w: billing account", apperrors.ErrNotFound)).Once()

	_, err := suite.guard.EnsureSufficient(context.Background(), 12, nil, "")

	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *BalanceGuardTestSuite) TestEnsureSufficient_ResolverErrorPassesThrough() {
	suite.mockResolver.On("Resolve", mock.Anything, int64(12)).Return(nil, apperrors.ErrForbidden).Once()

	_, err := suite.guard.EnsureSufficient(context.Background(), 12, nil, "")

	suite.True(errors.Is(err, apperrors.ErrForbidden))
	suite.mockBalances.AssertNotCalled(suite.T(), "FindBalanceByUserID", mock.Anything, mock.Anything)
}

func TestBalanceGuardTestSuite(t *testing.T) {
	suite.Run(t, new(BalanceGuardTestSuite))
}
