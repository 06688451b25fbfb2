package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"civicreport-be/controllers"
	"civicreport-be/repository"
	"civicreport-be/routes"
	"civicreport-be/services"
	"civicreport-be/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := utils.NewTokenManager("client-test-secret-123", time.Hour)
	require.NoError(t, err)
	users := repository.NewMemoryUserStore()
	validate := services.NewValidator()
	auth := services.NewAuthService(users, tokens, utils.NewPasswordHasher(bcrypt.MinCost), validate, zerolog.Nop())

	r := routes.NewRouter(routes.RouterConfig{
		Auth:     &controllers.AuthController{Auth: auth},
		Issues:   &controllers.IssueController{Issues: services.NewIssueService(repository.NewMemoryIssueStore(), users, validate, nil, zerolog.Nop())},
		Images:   &controllers.ImageController{Images: services.NewImageService(nil, zerolog.Nop())},
		Verifier: auth,
		Logger:   zerolog.Nop(),
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func signupRequest() SignupRequest {
	return SignupRequest{
		Name: "A", Email: "a@x.com", Phone: "9999999999", Password: "secret1",
		Address: "12 Main Road", Landmark: "Near the park",
	}
}

func sampleIssue() NewIssue {
	return NewIssue{
		Title:            "Broken footpath",
		Description:      "Tiles missing outside the market",
		Priority:         "high",
		ConcernAuthority: "Municipal Corporation",
		Reporter:         "A",
		Tags:             []string{"roads"},
		Colony:           "Sector 5",
		Pincode:          "110001",
		Location:         Point(77.209, 28.6139),
	}
}

func TestClientSessionFlow(t *testing.T) {
	srv := newTestServer(t)
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	session, err := LoadSession(path)
	require.NoError(t, err)
	assert.False(t, session.LoggedIn())

	c := New(srv.URL, session)
	ctx := context.Background()

	signed, err := c.Signup(ctx, signupRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, signed.Token)

	reloaded, err := LoadSession(path)
	require.NoError(t, err)
	assert.True(t, reloaded.LoggedIn())
	assert.Equal(t, signed.User.ID, reloaded.UserID)

	me, err := New(srv.URL, reloaded).Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Near the park", me.Landmark)

	require.NoError(t, c.Logout())
	_, err = os.Stat(path)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, err = c.Me(ctx)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)

	logged, err := c.Login(ctx, "a@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, signed.User.ID, logged.User.ID)
}

func TestClientIssues(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	c := New(srv.URL, nil)
	_, err := c.Signup(ctx, signupRequest())
	require.NoError(t, err)

	created, err := c.CreateIssue(ctx, sampleIssue())
	require.NoError(t, err)
	assert.Equal(t, "open", created.Status)
	assert.Empty(t, created.Images)

	tooMany := sampleIssue()
	tooMany.Images = []string{"1", "2", "3", "4"}
	_, err = c.CreateIssue(ctx, tooMany)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "validation_error", apiErr.Kind)

	state, err := c.Upvote(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), state.UpvoteCount)
	state, err = c.Upvote(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), state.UpvoteCount)

	state, err = c.UpvoteStatus(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, state.HasUpvoted)

	state, err = c.RemoveUpvote(ctx, created.ID)
	require.NoError(t, err)
	assert.Zero(t, state.UpvoteCount)

	updated, err := c.UpdateStatus(ctx, created.ID, "in-progress")
	require.NoError(t, err)
	assert.Equal(t, "in-progress", updated.Status)

	near, err := c.ListIssues(ctx, ListOptions{Near: &Near{Longitude: 77.209, Latitude: 28.62, RadiusKm: 2}})
	require.NoError(t, err)
	require.Len(t, near, 1)
	require.NotNil(t, near[0].DistanceKm)

	got, err := c.GetIssue(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Title, got.Title)

	_, err = c.UploadImages(ctx)
	require.ErrorAs(t, err, &apiErr)
}

func TestListOptionsValues(t *testing.T) {
	v := ListOptions{
		Colony: "Sector 5", Pincode: "110001",
		Near: &Near{Longitude: 77.2, Latitude: 28.5, RadiusKm: 1.5},
		Sort: SortDistance, Page: 2, Limit: 10,
	}.Values()

	assert.Equal(t, "Sector 5", v.Get("colony"))
	assert.Equal(t, "1.5", v.Get("radius"))
	assert.Equal(t, "77.2", v.Get("longitude"))
	assert.Equal(t, "2", v.Get("page"))
	assert.Equal(t, "10", v.Get("limit"))
	assert.Empty(t, ListOptions{}.Values().Encode())
}

func TestBoardPollsUntilCancelled(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		assert.Equal(t, SortSupported, r.URL.Query().Get("sort"))
		if n == 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[{"id":"1","title":"Pothole","upvotes":{"count":4}}]`))
	}))
	defer srv.Close()

	board := NewBoard(New(srv.URL, nil), ListOptions{})
	board.interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	var renders, failures int
	done := make(chan struct{})
	go func() {
		defer close(done)
		board.Run(ctx, func(issues []Issue, err error) {
			renders++
			if err != nil {
				failures++
			} else {
				assert.Equal(t, int64(4), issues[0].Upvotes.Count)
			}
			if renders == 3 {
				cancel()
			}
		})
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("board did not stop after cancel")
	}
	assert.Equal(t, 3, renders)
	assert.Equal(t, 1, failures, "a failed fetch is reported and polling continues")
}

func TestTopAndRecentBoards(t *testing.T) {
	c := New("http://example.invalid", nil)
	assert.Equal(t, SortSupported, Top(c, 5).opts.Sort)
	assert.Equal(t, 5, Top(c, 5).opts.Limit)
	assert.Equal(t, SortRecent, Recent(c, 5).opts.Sort)
	assert.Equal(t, RefreshInterval, Recent(c, 5).interval)
}
