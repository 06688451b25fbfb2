package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"civicreport-be/apperror"
	"civicreport-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	_ UserStore  = (*MongoUserStore)(nil)
	_ UserStore  = (*MemoryUserStore)(nil)
	_ IssueStore = (*MongoIssueStore)(nil)
	_ IssueStore = (*MemoryIssueStore)(nil)
)

// MemoryUserStore keeps users in process. It and MemoryIssueStore follow the
// Mongo stores' semantics, including the inclusive $near radius.
type MemoryUserStore struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: map[primitive.ObjectID]*models.User{}}
}

func (s *MemoryUserStore) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email || existing.Phone == u.Phone {
			return apperror.Conflict("User with this email or phone already exists")
		}
	}
	u.ID = primitive.NewObjectID()
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *MemoryUserStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id.Hex())
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryUserStore) FindByEmailOrPhone(_ context.Context, email, phone string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if (email != "" && u.Email == email) || (phone != "" && u.Phone == phone) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (s *MemoryUserStore) TouchLastLogin(_ context.Context, id primitive.ObjectID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.LastLogin = at
	}
	return nil
}

func (s *MemoryUserStore) UpdateProfile(_ context.Context, id primitive.ObjectID, fields map[string]string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id.Hex())
	}
	for k, v := range fields {
		switch k {
		case "name":
			u.Name = v
		case "address":
			u.Address = v
		case "landmark":
			u.Landmark = v
		}
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryUserStore) AddUpvotedIssue(_ context.Context, userID, issueID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil
	}
	for _, id := range u.UpvotedIssues {
		if id == issueID {
			return nil
		}
	}
	u.UpvotedIssues = append(u.UpvotedIssues, issueID)
	return nil
}

func (s *MemoryUserStore) RemoveUpvotedIssue(_ context.Context, userID, issueID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil
	}
	kept := u.UpvotedIssues[:0]
	for _, id := range u.UpvotedIssues {
		if id != issueID {
			kept = append(kept, id)
		}
	}
	u.UpvotedIssues = kept
	return nil
}

type MemoryIssueStore struct {
	mu        sync.Mutex
	issues    []*models.Issue
	lastQuery IssueQuery
}

func (s *MemoryIssueStore) Create(_ context.Context, issue *models.Issue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if issue.ID.IsZero() {
		issue.ID = primitive.NewObjectID()
	}
	cp := *issue
	s.issues = append(s.issues, &cp)
	return nil
}

func (s *MemoryIssueStore) find(id primitive.ObjectID) *models.Issue {
	for _, i := range s.issues {
		if i.ID == id {
			return i
		}
	}
	return nil
}

func (s *MemoryIssueStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(id)
	if i == nil {
		return nil, apperror.NotFound("issue", id.Hex())
	}
	cp := *i
	return &cp, nil
}

func (s *MemoryIssueStore) List(_ context.Context, q IssueQuery) ([]models.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastQuery = q

	var center models.GeoPoint
	if q.Near != nil {
		center = models.NewPoint(q.Near.Longitude, q.Near.Latitude)
	}

	out := []models.Issue{}
	for _, i := range s.issues {
		if q.Colony != "" && (i.Colony != q.Colony || i.Pincode != q.Pincode) {
			continue
		}
		if q.ReportedBy != nil && (i.ReportedBy == nil || *i.ReportedBy != *q.ReportedBy) {
			continue
		}
		if q.Near != nil && !center.WithinRadius(i.Location, q.Near.RadiusMeters) {
			continue
		}
		out = append(out, *i)
	}

	switch {
	case q.Sort == SortDistance && q.Near != nil:
		sort.SliceStable(out, func(a, b int) bool {
			return center.DistanceMeters(out[a].Location) < center.DistanceMeters(out[b].Location)
		})
	case q.Sort == SortSupported:
		sort.SliceStable(out, func(a, b int) bool {
			if out[a].Upvotes.Count != out[b].Upvotes.Count {
				return out[a].Upvotes.Count > out[b].Upvotes.Count
			}
			return out[a].CreatedAt.After(out[b].CreatedAt)
		})
	default:
		sort.SliceStable(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	}

	if q.Limit > 0 {
		skip, ok := pageOffset(q.Page, q.Limit)
		if !ok {
			return []models.Issue{}, nil
		}
		start := min(skip, len(out))
		out = out[start : start+min(q.Limit, len(out)-start)]
	}
	return out, nil
}

func (s *MemoryIssueStore) Upvote(_ context.Context, issueID, userID primitive.ObjectID) (*models.UpvoteState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(issueID)
	if i == nil {
		return nil, apperror.NotFound("issue", issueID.Hex())
	}
	if !i.Upvotes.Has(userID) {
		i.Upvotes.Users = append(i.Upvotes.Users, userID)
		i.Upvotes.Count++
	}
	return i.Upvotes.StateFor(issueID, userID), nil
}

func (s *MemoryIssueStore) RemoveUpvote(_ context.Context, issueID, userID primitive.ObjectID) (*models.UpvoteState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(issueID)
	if i == nil {
		return nil, apperror.NotFound("issue", issueID.Hex())
	}
	if i.Upvotes.Has(userID) {
		kept := []primitive.ObjectID{}
		for _, u := range i.Upvotes.Users {
			if u != userID {
				kept = append(kept, u)
			}
		}
		i.Upvotes.Users = kept
		i.Upvotes.Count--
	}
	return i.Upvotes.StateFor(issueID, userID), nil
}

func (s *MemoryIssueStore) UpvoteStatus(_ context.Context, issueID, userID primitive.ObjectID) (*models.UpvoteState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(issueID)
	if i == nil {
		return nil, apperror.NotFound("issue", issueID.Hex())
	}
	return i.Upvotes.StateFor(issueID, userID), nil
}

func (s *MemoryIssueStore) UpdateStatus(_ context.Context, issueID primitive.ObjectID, from, to models.IssueStatus) (*models.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(issueID)
	if i == nil {
		return nil, apperror.NotFound("issue", issueID.Hex())
	}
	if i.Status != from {
		return nil, apperror.Conflict("Issue status was changed by another request")
	}
	i.Status = to
	i.UpdatedAt = time.Now().UTC()
	cp := *i
	return &cp, nil
}

func (s *MemoryIssueStore) Stats(_ context.Context) (*models.IssueStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := &models.IssueStats{
		ByStatus:     map[string]int64{},
		ByAuthority:  map[string]int64{},
		TopSupported: []models.IssueSummary{},
		GeneratedAt:  time.Now().UTC(),
	}
	ranked := make([]*models.Issue, 0, len(s.issues))
	for _, i := range s.issues {
		stats.TotalIssues++
		stats.TotalUpvotes += i.Upvotes.Count
		stats.ByStatus[string(i.Status)]++
		stats.ByAuthority[i.ConcernAuthority]++
		ranked = append(ranked, i)
	}

	sort.SliceStable(ranked, func(a, b int) bool {
		if ranked[a].Upvotes.Count != ranked[b].Upvotes.Count {
			return ranked[a].Upvotes.Count > ranked[b].Upvotes.Count
		}
		return ranked[a].CreatedAt.After(ranked[b].CreatedAt)
	})
	for _, i := range ranked[:min(len(ranked), topSupportedLimit)] {
		stats.TopSupported = append(stats.TopSupported, models.IssueSummary{
			ID:               i.ID,
			Title:            i.Title,
			ConcernAuthority: i.ConcernAuthority,
			Status:           i.Status,
			UpvoteCount:      i.Upvotes.Count,
		})
	}
	return stats, nil
}

func NewMemoryIssueStore() *MemoryIssueStore {
	return &MemoryIssueStore{}
}

// Count is the number of stored users.
func (s *MemoryUserStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// Delete removes a user outright.
func (s *MemoryUserStore) Delete(id primitive.ObjectID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
}

// Count is the number of stored issues.
func (s *MemoryIssueStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.issues)
}

// LastQuery is the query of the most recent List call.
func (s *MemoryIssueStore) LastQuery() IssueQuery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastQuery
}
