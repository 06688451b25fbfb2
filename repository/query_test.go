package repository

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestIssueFilter(t *testing.T) {
	assert.Empty(t, issueFilter(IssueQuery{}))

	f := issueFilter(IssueQuery{Colony: "Sector 5", Pincode: "110001"})
	assert.Equal(t, bson.M{"colony": "Sector 5", "pincode": "110001"}, f)

	owner := primitive.NewObjectID()
	f = issueFilter(IssueQuery{ReportedBy: &owner})
	assert.Equal(t, owner, f["reportedBy"])
}

func TestIssueFilterNear(t *testing.T) {
	f := issueFilter(IssueQuery{Near: &NearQuery{Longitude: 77.2, Latitude: 28.6, RadiusMeters: 2500}})

	loc, ok := f["location"].(bson.M)
	require.True(t, ok)
	near, ok := loc["$near"].(bson.M)
	require.True(t, ok)

	assert.Equal(t, 2500.0, near["$maxDistance"])
	geometry := near["$geometry"].(bson.M)
	assert.Equal(t, "Point", geometry["type"])
	assert.Equal(t, bson.A{77.2, 28.6}, geometry["coordinates"], "longitude comes first")
}

func TestIssueSort(t *testing.T) {
	near := &NearQuery{Longitude: 1, Latitude: 1, RadiusMeters: 1}

	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}}, issueSort(IssueQuery{}))
	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}}, issueSort(IssueQuery{Sort: SortRecent}))
	assert.Equal(t,
		bson.D{{Key: "upvotes.count", Value: -1}, {Key: "createdAt", Value: -1}},
		issueSort(IssueQuery{Sort: SortSupported}))
	assert.Nil(t, issueSort(IssueQuery{Sort: SortDistance, Near: near}))
	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}}, issueSort(IssueQuery{Sort: SortDistance}))
}

func TestIssueFindOptionsPagination(t *testing.T) {
	opts := issueFindOptions(IssueQuery{Page: 3, Limit: 10})
	require.NotNil(t, opts.Skip)
	require.NotNil(t, opts.Limit)
	assert.Equal(t, int64(20), *opts.Skip)
	assert.Equal(t, int64(10), *opts.Limit)

	opts = issueFindOptions(IssueQuery{Page: 0, Limit: 5})
	assert.Equal(t, int64(0), *opts.Skip)

	opts = issueFindOptions(IssueQuery{})
	assert.Nil(t, opts.Limit, "no limit means every matching issue")
	assert.Nil(t, opts.Skip)
}

func TestPageOffset(t *testing.T) {
	skip, ok := pageOffset(3, 10)
	assert.True(t, ok)
	assert.Equal(t, 20, skip)

	skip, ok = pageOffset(0, 10)
	assert.True(t, ok)
	assert.Zero(t, skip)

	_, ok = pageOffset(math.MaxInt, 2)
	assert.False(t, ok, "an offset past MaxInt cannot be represented")

	opts := issueFindOptions(IssueQuery{Page: math.MaxInt, Limit: 2})
	assert.GreaterOrEqual(t, *opts.Skip, int64(0))
}
