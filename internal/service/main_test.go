package service

import (
	"log/slog"
	"os"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/mzhurov/feature-lifecycle-service/internal/config"
	"github.com/stretchr/testify/require"
)

func newMockDBAndTx(t *testing.T) (*sqlx.DB, *sqlx.Tx, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, smock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(mockDB, "sqlmock")

	smock.ExpectBegin()

	tx, err := sqlxDB.Beginx()
	require.NoError(t, err)

	return sqlxDB, tx, smock
}

// newCommittedTx returns a transaction whose underlying mock expects a
// commit. Operations that run several transactions get one of these per
// BeginTxx expectation.
func newCommittedTx(t *testing.T) *sqlx.Tx {
	t.Helper()

	_, tx, smock := newMockDBAndTx(t)
	smock.ExpectCommit()

	return tx
}

// newRolledBackTx returns a transaction whose underlying mock expects a
// rollback, for failure paths.
func newRolledBackTx(t *testing.T) *sqlx.Tx {
	t.Helper()

	_, tx, smock := newMockDBAndTx(t)
	smock.ExpectRollback()

	return tx
}

type serviceMocks struct {
	transactor  *TransactorMock
	propCmd     *ProposalCommandRepositoryMock
	propQuery   *ProposalQueryRepositoryMock
	validations *ValidationRepositoryMock
	approvals   *ApprovalRepositoryMock
	deployments *DeploymentRepositoryMock
	generator   *CodeGeneratorMock
	validator   *CodeValidatorMock
	publisher   *IntegrationPublisherMock
}

func (m *serviceMocks) assertExpectations(t *testing.T) {
	t.Helper()

	m.transactor.AssertExpectations(t)
	m.propCmd.AssertExpectations(t)
	m.propQuery.AssertExpectations(t)
	m.validations.AssertExpectations(t)
	m.approvals.AssertExpectations(t)
	m.deployments.AssertExpectations(t)
	m.generator.AssertExpectations(t)
	m.validator.AssertExpectations(t)
	m.publisher.AssertExpectations(t)
}

func newTestService(t *testing.T) (*LifecycleServiceImpl, *serviceMocks) {
	t.Helper()

	mocks := &serviceMocks{
		transactor:  new(TransactorMock),
		propCmd:     new(ProposalCommandRepositoryMock),
		propQuery:   new(ProposalQueryRepositoryMock),
		validations: new(ValidationRepositoryMock),
		approvals:   new(ApprovalRepositoryMock),
		deployments: new(DeploymentRepositoryMock),
		generator:   new(CodeGeneratorMock),
		validator:   new(CodeValidatorMock),
		publisher:   new(IntegrationPublisherMock),
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	svc := NewLifecycleService(
		mocks.transactor,
		logger,
		config.Lifecycle{RequiredApprovals: 1},
		mocks.propCmd,
		mocks.propQuery,
		mocks.validations,
		mocks.approvals,
		mocks.deployments,
		mocks.generator,
		mocks.validator,
		mocks.publisher,
	)

	return svc, mocks
}
