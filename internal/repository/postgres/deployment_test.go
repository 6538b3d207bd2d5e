//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mzhurov/feature-lifecycle-service/internal/apperrors"
	"github.com/mzhurov/feature-lifecycle-service/internal/domain"
	"github.com/mzhurov/feature-lifecycle-service/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDeploymentFixture(proposalID string) *domain.Deployment {
	prURL := "https://git.example.com/acme/app/pull/42"

	return &domain.Deployment{
		ID:          uuid.NewString(),
		ProposalID:  proposalID,
		PRURL:       &prURL,
		Environment: api.EnvironmentStaging,
		Status:      api.DeploymentPending,
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
}

func insertDeployment(t *testing.T, repo *DeploymentRepository, dep *domain.Deployment) {
	t.Helper()

	tx, err := testDB.Beginx()
	require.NoError(t, err)

	require.NoError(t, repo.Create(context.Background(), tx, dep))
	require.NoError(t, tx.Commit())
}

func TestDeploymentRepository_CreateAndGetByProposalID(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	truncateTables(t, testDB)

	proposalRepo := NewProposalRepository(testDB, logger)
	repo := NewDeploymentRepository(testDB, logger)
	ctx := context.Background()

	proposal := newProposalFixture()
	insertProposal(t, proposalRepo, proposal)

	dep := newDeploymentFixture(proposal.ID)
	insertDeployment(t, repo, dep)

	deps, err := repo.GetByProposalID(ctx, proposal.ID)
	require.NoError(t, err)
	require.Len(t, deps, 1)

	assert.Equal(t, dep.ID, deps[0].ID)
	assert.Equal(t, api.EnvironmentStaging, deps[0].Environment)
	assert.Equal(t, api.DeploymentPending, deps[0].Status)
	require.NotNil(t, deps[0].PRURL)
	assert.Equal(t, *dep.PRURL, *deps[0].PRURL)
	assert.Nil(t, deps[0].DeployedAt)
	assert.Nil(t, deps[0].DeployedBy)
}

func TestDeploymentRepository_GetLatestPendingWithLock(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	truncateTables(t, testDB)

	proposalRepo := NewProposalRepository(testDB, logger)
	repo := NewDeploymentRepository(testDB, logger)
	ctx := context.Background()

	proposal := newProposalFixture()
	insertProposal(t, proposalRepo, proposal)

	confirmed := newDeploymentFixture(proposal.ID)
	confirmed.Status = api.DeploymentSuccess
	confirmed.CreatedAt = time.Now().UTC().Add(-2 * time.Hour).Truncate(time.Microsecond)
	insertDeployment(t, repo, confirmed)

	olderPending := newDeploymentFixture(proposal.ID)
	olderPending.CreatedAt = time.Now().UTC().Add(-time.Hour).Truncate(time.Microsecond)
	insertDeployment(t, repo, olderPending)

	newestPending := newDeploymentFixture(proposal.ID)
	insertDeployment(t, repo, newestPending)

	tx, err := testDB.Beginx()
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	got, err := repo.GetLatestPendingWithLock(ctx, tx, proposal.ID)
	require.NoError(t, err)
	assert.Equal(t, newestPending.ID, got.ID, "newest pending row wins")

	t.Run("No pending deployment yields not found", func(t *testing.T) {
		other := newProposalFixture()
		insertProposal(t, proposalRepo, other)

		_, err := repo.GetLatestPendingWithLock(ctx, tx, other.ID)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestDeploymentRepository_MarkDeployed(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	truncateTables(t, testDB)

	proposalRepo := NewProposalRepository(testDB, logger)
	repo := NewDeploymentRepository(testDB, logger)
	ctx := context.Background()

	proposal := newProposalFixture()
	insertProposal(t, proposalRepo, proposal)

	dep := newDeploymentFixture(proposal.ID)
	insertDeployment(t, repo, dep)

	deployedAt := time.Now().UTC().Truncate(time.Microsecond)

	tx, err := testDB.Beginx()
	require.NoError(t, err)
	require.NoError(t, repo.MarkDeployed(ctx, tx, dep.ID, "ops-dana", deployedAt))
	require.NoError(t, tx.Commit())

	deps, err := repo.GetByProposalID(ctx, proposal.ID)
	require.NoError(t, err)
	require.Len(t, deps, 1)

	assert.Equal(t, api.DeploymentSuccess, deps[0].Status)
	require.NotNil(t, deps[0].DeployedBy)
	assert.Equal(t, "ops-dana", *deps[0].DeployedBy)
	require.NotNil(t, deps[0].DeployedAt)
	assert.True(t, deps[0].DeployedAt.Equal(deployedAt))

	t.Run("Unknown deployment yields not found", func(t *testing.T) {
		tx, err := testDB.Beginx()
		require.NoError(t, err)
		defer func() { _ = tx.Rollback() }()

		err = repo.MarkDeployed(ctx, tx, uuid.NewString(), "ops-dana", deployedAt)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}
