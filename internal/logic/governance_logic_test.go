package logic

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/blues/propdao/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newGovernance(db *gorm.DB, now time.Time) *GovernanceLogic {
	g := NewGovernanceLogic(db)
	g.now = func() time.Time { return now }
	return g
}

func createProposal(t *testing.T, g *GovernanceLogic, permission model.PermissionType, target *int64, seconds int64) *model.ProposalModel {
	t.Helper()

	proposal, err := g.CreateProposal(context.Background(), "admin", ProposalInput{
		Description:     "Repaint the lobby",
		PermissionType:  permission,
		TargetTokenId:   target,
		DurationSeconds: seconds,
	})
	require.NoError(t, err)
	return proposal
}

func TestCreateProposal(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	g := newGovernance(db, now)
	property := createProperty(t, db, "Marina Heights")

	proposal := createProposal(t, g, model.PermissionAnyInvestor, nil, 3600)
	assert.Equal(t, now, proposal.StartTime)
	assert.Equal(t, now.Add(time.Hour), proposal.EndTime)
	assert.Equal(t, "admin", proposal.CreatorId)

	holders := createProposal(t, g, model.PermissionSpecificHolders, &property.Id, 60)
	require.NotNil(t, holders.TargetPropertyId)
	assert.Equal(t, property.Id, *holders.TargetPropertyId)

	missing := int64(9999)
	tests := []struct {
		name  string
		input ProposalInput
		want  error
	}{
		{"empty description", ProposalInput{Description: "  ", PermissionType: model.PermissionGlobal, DurationSeconds: 60}, nil},
		{"unknown permission", ProposalInput{Description: "x", PermissionType: "Everyone", DurationSeconds: 60}, nil},
		{"zero duration", ProposalInput{Description: "x", PermissionType: model.PermissionGlobal}, nil},
		{"holders without target", ProposalInput{Description: "x", PermissionType: model.PermissionSpecificHolders, DurationSeconds: 60}, nil},
		{"target on global", ProposalInput{Description: "x", PermissionType: model.PermissionGlobal, TargetTokenId: &property.Id, DurationSeconds: 60}, nil},
		{"missing target property", ProposalInput{Description: "x", PermissionType: model.PermissionSpecificHolders, TargetTokenId: &missing, DurationSeconds: 60}, ErrPropertyNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.CreateProposal(context.Background(), "admin", tt.input)
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				return
			}
			var validationErr *ValidationError
			assert.ErrorAs(t, err, &validationErr)
		})
	}
}

func TestCastVoteEligibilityMatrix(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		permission model.PermissionType
		kyc        model.KycStatus
		investIn   string // "", "target", "other"
		elapsed    time.Duration
		votedFirst bool
		wantReason string
		wantErr    error
	}{
		{name: "global verified", permission: model.PermissionGlobal, kyc: model.KycStatusVerified},
		{name: "global pending", permission: model.PermissionGlobal, kyc: model.KycStatusPending, wantReason: ReasonKyc},
		{name: "global unverified investor", permission: model.PermissionGlobal, kyc: model.KycStatusUnverified, investIn: "target", wantReason: ReasonKyc},
		{name: "any investor with investment", permission: model.PermissionAnyInvestor, kyc: model.KycStatusUnverified, investIn: "other"},
		{name: "any investor without investment", permission: model.PermissionAnyInvestor, kyc: model.KycStatusVerified, wantReason: ReasonNoInvestment},
		{name: "holder of target", permission: model.PermissionSpecificHolders, kyc: model.KycStatusUnverified, investIn: "target"},
		{name: "holder of other property", permission: model.PermissionSpecificHolders, kyc: model.KycStatusVerified, investIn: "other", wantReason: ReasonNotHolder},
		{name: "exactly at end time", permission: model.PermissionGlobal, kyc: model.KycStatusVerified, elapsed: time.Hour},
		{name: "after end time", permission: model.PermissionGlobal, kyc: model.KycStatusVerified, elapsed: time.Hour + time.Second, wantErr: ErrVotingClosed},
		{name: "closed beats ineligible", permission: model.PermissionAnyInvestor, kyc: model.KycStatusUnverified, elapsed: 2 * time.Hour, wantErr: ErrVotingClosed},
		{name: "already voted", permission: model.PermissionGlobal, kyc: model.KycStatusVerified, votedFirst: true, wantErr: ErrAlreadyVoted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newTestDB(t)
			target := createProperty(t, db, "Target")
			other := createProperty(t, db, "Other")
			user := createUser(t, db, "u1", tt.kyc)

			switch tt.investIn {
			case "target":
				invest(t, db, user.Id, target.Id, 500)
			case "other":
				invest(t, db, user.Id, other.Id, 500)
			}

			var targetId *int64
			if tt.permission == model.PermissionSpecificHolders {
				targetId = &target.Id
			}
			proposal := createProposal(t, newGovernance(db, now), tt.permission, targetId, 3600)

			g := newGovernance(db, now.Add(tt.elapsed))
			if tt.votedFirst {
				_, err := g.CastVote(context.Background(), proposal.Id, user.Id, true)
				require.NoError(t, err)
			}

			vote, err := g.CastVote(context.Background(), proposal.Id, user.Id, false)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, vote)
			case tt.wantReason != "":
				var eligibilityErr *EligibilityError
				require.ErrorAs(t, err, &eligibilityErr)
				assert.Equal(t, tt.wantReason, eligibilityErr.Reason)
			default:
				require.NoError(t, err)
				assert.Equal(t, proposal.Id, vote.ProposalId)
				assert.False(t, vote.Support)
			}
		})
	}
}

func TestCastVoteNotFound(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()
	g := newGovernance(db, now)
	createUser(t, db, "u1", model.KycStatusVerified)

	_, err := g.CastVote(context.Background(), 42, "u1", true)
	assert.ErrorIs(t, err, ErrProposalNotFound)

	proposal := createProposal(t, g, model.PermissionGlobal, nil, 60)
	_, err = g.CastVote(context.Background(), proposal.Id, "ghost", true)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSecondVoteRejectedRegardlessOfSupport(t *testing.T) {
	for _, second := range []bool{true, false} {
		db := newTestDB(t)
		g := newGovernance(db, time.Now())
		createUser(t, db, "u1", model.KycStatusVerified)
		proposal := createProposal(t, g, model.PermissionGlobal, nil, 60)

		_, err := g.CastVote(context.Background(), proposal.Id, "u1", true)
		require.NoError(t, err)

		_, err = g.CastVote(context.Background(), proposal.Id, "u1", second)
		assert.ErrorIs(t, err, ErrAlreadyVoted)

		tally, err := g.Tally(context.Background(), proposal.Id)
		require.NoError(t, err)
		assert.Equal(t, Tally{For: 1, Total: 1}, tally)
	}
}

func TestSpecificHoldersWithoutTargetIsConfigurationError(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()
	g := newGovernance(db, now)
	property := createProperty(t, db, "Anything")

	// 绕过创建校验，模拟历史数据
	proposal := &model.ProposalModel{
		Description:    "legacy",
		PermissionType: model.PermissionSpecificHolders,
		StartTime:      now,
		EndTime:        now.Add(time.Hour),
	}
	require.NoError(t, db.Create(proposal).Error)

	for _, id := range []string{"holder", "verified", "nobody"} {
		kyc := model.KycStatusUnverified
		if id == "verified" {
			kyc = model.KycStatusVerified
		}
		createUser(t, db, id, kyc)
		if id == "holder" {
			invest(t, db, id, property.Id, 100)
		}

		_, err := g.CastVote(context.Background(), proposal.Id, id, true)
		assert.ErrorIs(t, err, ErrInvalidProposal, id)
		var eligibilityErr *EligibilityError
		assert.False(t, errors.As(err, &eligibilityErr), id)
	}
}

func TestAnyInvestorScenario(t *testing.T) {
	db := newTestDB(t)
	g := newGovernance(db, time.Now())
	property := createProperty(t, db, "Lekki Gardens")
	createUser(t, db, "alice", model.KycStatusVerified)
	createUser(t, db, "bob", model.KycStatusUnverified)
	invest(t, db, "bob", property.Id, 250)

	proposal := createProposal(t, g, model.PermissionAnyInvestor, nil, 3600)

	_, err := g.CastVote(context.Background(), proposal.Id, "alice", true)
	var eligibilityErr *EligibilityError
	require.ErrorAs(t, err, &eligibilityErr)
	assert.Equal(t, ReasonNoInvestment, eligibilityErr.Reason)

	_, err = g.CastVote(context.Background(), proposal.Id, "bob", false)
	require.NoError(t, err)

	tally, err := g.Tally(context.Background(), proposal.Id)
	require.NoError(t, err)
	assert.Equal(t, Tally{For: 0, Against: 1, Total: 1}, tally)

	view, err := g.GetProposal(context.Background(), proposal.Id)
	require.NoError(t, err)
	require.Len(t, view.Votes, 1)
	assert.Equal(t, "bob", view.Votes[0].UserId)
	assert.False(t, view.Votes[0].Support)
	assert.Equal(t, tally, view.Tally)
	assert.Equal(t, model.ProposalStatusOpen, view.Status)
}

func TestGlobalScenarioAfterKycVerified(t *testing.T) {
	db := newTestDB(t)
	g := newGovernance(db, time.Now())
	createUser(t, db, "carol", model.KycStatusUnverified)
	proposal := createProposal(t, g, model.PermissionGlobal, nil, 86400)

	_, err := g.CastVote(context.Background(), proposal.Id, "carol", true)
	var eligibilityErr *EligibilityError
	require.ErrorAs(t, err, &eligibilityErr)
	assert.Equal(t, ReasonKyc, eligibilityErr.Reason)

	_, err = NewUserLogic(db).SetKycStatus(context.Background(), "carol", model.KycStatusVerified)
	require.NoError(t, err)

	vote, err := g.CastVote(context.Background(), proposal.Id, "carol", true)
	require.NoError(t, err)
	assert.True(t, vote.Support)
}

func TestConcurrentVotesOnlyOneSucceeds(t *testing.T) {
	db := newTestDB(t)
	g := newGovernance(db, time.Now())
	createUser(t, db, "u1", model.KycStatusVerified)
	proposal := createProposal(t, g, model.PermissionGlobal, nil, 3600)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = g.CastVote(context.Background(), proposal.Id, "u1", i%2 == 0)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrAlreadyVoted)
	}
	assert.Equal(t, 1, succeeded)

	var count int64
	require.NoError(t, db.Model(&model.VoteModel{}).Where("proposal_id = ?", proposal.Id).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestListProposalsStatus(t *testing.T) {
	db := newTestDB(t)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	createProposal(t, newGovernance(db, start), model.PermissionGlobal, nil, 60)
	createProposal(t, newGovernance(db, start), model.PermissionAnyInvestor, nil, 7200)

	views, err := newGovernance(db, start.Add(time.Hour)).ListProposals(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 2)

	// 按ID倒序
	assert.Equal(t, model.PermissionAnyInvestor, views[0].PermissionType)
	assert.Equal(t, model.ProposalStatusOpen, views[0].Status)
	assert.Equal(t, model.ProposalStatusClosed, views[1].Status)
	assert.Equal(t, Tally{}, views[1].Tally)
}

func TestGetProposalNotFound(t *testing.T) {
	_, err := NewGovernanceLogic(newTestDB(t)).GetProposal(context.Background(), 1)
	assert.ErrorIs(t, err, ErrProposalNotFound)
}
