package services

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"civicreport-be/apperror"
	"civicreport-be/events"
	"civicreport-be/models"
	"civicreport-be/repository"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxPageSize caps an explicit limit.
const MaxPageSize = 100

// MaxRadiusKm is half the Earth's equatorial circumference; no point is further away.
const MaxRadiusKm = 20037.5

type LocationInput struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates" validate:"required"`
}

// CreateIssueInput mirrors the request body. The list fields are pointers so an
// absent list can be told apart from an empty one.
type CreateIssueInput struct {
	Title            string         `json:"title" validate:"required,max=200"`
	Description      string         `json:"description" validate:"required"`
	Status           string         `json:"status" validate:"omitempty,oneof=open in-progress resolved closed complete"`
	Priority         string         `json:"priority" validate:"required"`
	ConcernAuthority string         `json:"concernAuthority" validate:"required"`
	Reporter         string         `json:"reporter" validate:"required"`
	Comments         *[]string      `json:"comments" validate:"required"`
	Images           *[]string      `json:"images" validate:"required"`
	Tags             *[]string      `json:"tags" validate:"required"`
	Colony           string         `json:"colony" validate:"required"`
	Pincode          string         `json:"pincode" validate:"required"`
	Location         *LocationInput `json:"location" validate:"required"`
}

// ListParams are the raw query parameters of a listing.
type ListParams struct {
	Colony    string
	Pincode   string
	Longitude string
	Latitude  string
	Radius    string // kilometres
	Sort      string
	Page      string
	Limit     string
}

// IssueView is an issue as seen by one caller.
type IssueView struct {
	models.Issue
	HasUpvoted bool     `json:"hasUpvoted"`
	DistanceKm *float64 `json:"distanceKm,omitempty"`
}

type IssueService struct {
	issues    repository.IssueStore
	users     repository.UserStore
	validate  *Validator
	publisher events.Publisher
	logger    zerolog.Logger
	now       func() time.Time
}

func NewIssueService(issues repository.IssueStore, users repository.UserStore, validate *Validator, publisher events.Publisher, logger zerolog.Logger) *IssueService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &IssueService{
		issues:    issues,
		users:     users,
		validate:  validate,
		publisher: publisher,
		logger:    logger.With().Str("component", "issues").Logger(),
		now:       time.Now,
	}
}

func (s *IssueService) Create(ctx context.Context, in CreateIssueInput, reporterID primitive.ObjectID) (*models.Issue, error) {
	trimFields(&in.Title, &in.Description, &in.Priority, &in.ConcernAuthority, &in.Reporter, &in.Colony, &in.Pincode, &in.Status)
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}
	if len(*in.Images) > models.MaxIssueImages {
		return nil, apperror.ValidationFailed("images", fmt.Sprintf("You can upload a maximum of %d images.", models.MaxIssueImages))
	}
	if len(in.Location.Coordinates) != 2 {
		return nil, apperror.ValidationFailed("coordinates", "coordinates must be [longitude, latitude]")
	}
	lng, lat := in.Location.Coordinates[0], in.Location.Coordinates[1]
	if err := checkCoordinates(lng, lat); err != nil {
		return nil, err
	}

	status := models.StatusOpen
	if in.Status != "" {
		status = models.IssueStatus(in.Status)
	}

	now := s.now().UTC()
	issue := &models.Issue{
		Title:            in.Title,
		Description:      in.Description,
		Status:           status,
		Priority:         in.Priority,
		ConcernAuthority: in.ConcernAuthority,
		Reporter:         in.Reporter,
		ReportedBy:       &reporterID,
		Comments:         append([]string{}, *in.Comments...),
		Images:           append([]string{}, *in.Images...),
		Tags:             dedupe(*in.Tags),
		Colony:           in.Colony,
		Pincode:          in.Pincode,
		Location:         models.NewPoint(lng, lat),
		Upvotes:          models.UpvoteAggregate{Count: 0, Users: []primitive.ObjectID{}},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.issues.Create(ctx, issue); err != nil {
		return nil, err
	}

	s.logger.Info().Str("issue_id", issue.ID.Hex()).Str("reporter_id", reporterID.Hex()).Msg("issue created")
	s.publish(ctx, events.NewIssueEvent(events.IssueCreated, issue, reporterID.Hex()))
	return issue, nil
}

// List runs a listing. viewer may be nil for anonymous callers. Address and geo
// queries that match nothing are not-found errors; a plain listing is not.
func (s *IssueService) List(ctx context.Context, p ListParams, viewer *primitive.ObjectID) ([]IssueView, error) {
	q, err := parseListParams(p)
	if err != nil {
		return nil, err
	}

	issues, err := s.issues.List(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(issues) == 0 {
		switch {
		case q.Near != nil:
			return nil, apperror.NoResults("No issues found within the specified radius.")
		case q.Colony != "":
			return nil, apperror.NoResults("No issues found for the given address details.")
		}
	}
	return s.views(issues, viewer, q.Near), nil
}

// ListMine returns the caller's own reports, most recent first.
func (s *IssueService) ListMine(ctx context.Context, userID primitive.ObjectID) ([]IssueView, error) {
	issues, err := s.issues.List(ctx, repository.IssueQuery{ReportedBy: &userID, Sort: repository.SortRecent})
	if err != nil {
		return nil, err
	}
	return s.views(issues, &userID, nil), nil
}

func (s *IssueService) Get(ctx context.Context, id string, viewer *primitive.ObjectID) (*IssueView, error) {
	issueID, err := parseIssueID(id)
	if err != nil {
		return nil, err
	}
	issue, err := s.issues.FindByID(ctx, issueID)
	if err != nil {
		return nil, err
	}
	view := s.views([]models.Issue{*issue}, viewer, nil)[0]
	return &view, nil
}

func (s *IssueService) Upvote(ctx context.Context, id string, userID primitive.ObjectID) (*models.UpvoteState, error) {
	issueID, err := parseIssueID(id)
	if err != nil {
		return nil, err
	}
	state, err := s.issues.Upvote(ctx, issueID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.users.AddUpvotedIssue(ctx, userID, issueID); err != nil {
		s.logger.Warn().Err(err).Str("issue_id", id).Str("user_id", userID.Hex()).Msg("recording upvote on user failed")
	}
	return state, nil
}

func (s *IssueService) RemoveUpvote(ctx context.Context, id string, userID primitive.ObjectID) (*models.UpvoteState, error) {
	issueID, err := parseIssueID(id)
	if err != nil {
		return nil, err
	}
	state, err := s.issues.RemoveUpvote(ctx, issueID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.users.RemoveUpvotedIssue(ctx, userID, issueID); err != nil {
		s.logger.Warn().Err(err).Str("issue_id", id).Str("user_id", userID.Hex()).Msg("removing upvote from user failed")
	}
	return state, nil
}

func (s *IssueService) UpvoteStatus(ctx context.Context, id string, userID primitive.ObjectID) (*models.UpvoteState, error) {
	issueID, err := parseIssueID(id)
	if err != nil {
		return nil, err
	}
	return s.issues.UpvoteStatus(ctx, issueID, userID)
}

// UpdateStatus moves an issue along the status graph. Only its reporter may do
// so; setting the current status again is a no-op.
func (s *IssueService) UpdateStatus(ctx context.Context, id string, userID primitive.ObjectID, status string) (*models.Issue, error) {
	issueID, err := parseIssueID(id)
	if err != nil {
		return nil, err
	}
	to := models.IssueStatus(strings.TrimSpace(status))
	if !to.Valid() {
		return nil, apperror.ValidationFailed("status", "Invalid status value")
	}

	issue, err := s.issues.FindByID(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if issue.ReportedBy == nil || *issue.ReportedBy != userID {
		return nil, apperror.Forbidden("Only the reporter of an issue can change its status")
	}
	if issue.Status == to {
		return issue, nil
	}
	if !issue.Status.CanTransitionTo(to) {
		return nil, apperror.ValidationFailed("status", fmt.Sprintf("Cannot change status from %s to %s", issue.Status, to))
	}

	from := issue.Status
	updated, err := s.issues.UpdateStatus(ctx, issueID, from, to)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("issue_id", id).Str("from", string(from)).Str("to", string(to)).Msg("issue status changed")
	event := events.NewIssueEvent(events.IssueStatusChanged, updated, userID.Hex())
	event.PreviousStatus = from
	s.publish(ctx, event)
	return updated, nil
}

func (s *IssueService) Stats(ctx context.Context) (*models.IssueStats, error) {
	return s.issues.Stats(ctx)
}

// publish never fails the request; the issue is already stored.
func (s *IssueService) publish(ctx context.Context, event events.IssueEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("type", event.Type).Str("issue_id", event.IssueID).Msg("publishing issue event failed")
	}
}

func (s *IssueService) views(issues []models.Issue, viewer *primitive.ObjectID, near *repository.NearQuery) []IssueView {
	var center models.GeoPoint
	if near != nil {
		center = models.NewPoint(near.Longitude, near.Latitude)
	}

	out := make([]IssueView, 0, len(issues))
	for _, issue := range issues {
		v := IssueView{Issue: issue}
		if viewer != nil {
			v.HasUpvoted = issue.Upvotes.Has(*viewer)
		}
		if near != nil {
			km := math.Round(center.DistanceMeters(issue.Location)) / 1000
			v.DistanceKm = &km
		}
		out = append(out, v)
	}
	return out
}

func parseListParams(p ListParams) (repository.IssueQuery, error) {
	q := repository.IssueQuery{Page: 1}

	colony, pincode := strings.TrimSpace(p.Colony), strings.TrimSpace(p.Pincode)
	if (colony == "") != (pincode == "") {
		return q, apperror.ValidationFailed("colony", "colony and pincode are required together")
	}
	q.Colony, q.Pincode = colony, pincode

	geo := []string{strings.TrimSpace(p.Longitude), strings.TrimSpace(p.Latitude), strings.TrimSpace(p.Radius)}
	given := 0
	for _, v := range geo {
		if v != "" {
			given++
		}
	}
	if given > 0 && given < len(geo) {
		return q, apperror.ValidationFailed("radius", "Longitude, latitude, and radius are required")
	}
	if given == len(geo) {
		near, err := parseNear(geo[0], geo[1], geo[2])
		if err != nil {
			return q, err
		}
		q.Near = near
	}

	switch repository.SortKey(strings.TrimSpace(p.Sort)) {
	case repository.SortSupported:
		q.Sort = repository.SortSupported
	case repository.SortRecent:
		q.Sort = repository.SortRecent
	default:
		q.Sort = repository.SortRecent
		if q.Near != nil {
			q.Sort = repository.SortDistance
		}
	}

	if v := strings.TrimSpace(p.Page); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return q, apperror.ValidationFailed("page", "page must be a positive integer")
		}
		q.Page = page
	}
	if v := strings.TrimSpace(p.Limit); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			return q, apperror.ValidationFailed("limit", "limit must be a positive integer")
		}
		q.Limit = min(limit, MaxPageSize)
	}
	if q.Limit > 0 && q.Page-1 > math.MaxInt/q.Limit {
		return q, apperror.ValidationFailed("page", "page is too large")
	}
	return q, nil
}

func parseNear(lngRaw, latRaw, radiusRaw string) (*repository.NearQuery, error) {
	lng, err := strconv.ParseFloat(lngRaw, 64)
	if err != nil {
		return nil, apperror.ValidationFailed("longitude", "longitude must be a number")
	}
	lat, err := strconv.ParseFloat(latRaw, 64)
	if err != nil {
		return nil, apperror.ValidationFailed("latitude", "latitude must be a number")
	}
	radius, err := strconv.ParseFloat(radiusRaw, 64)
	if err != nil || math.IsNaN(radius) || radius <= 0 || radius > MaxRadiusKm {
		return nil, apperror.ValidationFailed("radius", "radius must be a positive number of kilometres")
	}
	if err := checkCoordinates(lng, lat); err != nil {
		return nil, err
	}
	return &repository.NearQuery{Longitude: lng, Latitude: lat, RadiusMeters: radius * 1000}, nil
}

func checkCoordinates(lng, lat float64) error {
	if math.IsNaN(lng) || lng < -180 || lng > 180 {
		return apperror.ValidationFailed("longitude", "longitude must be between -180 and 180")
	}
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return apperror.ValidationFailed("latitude", "latitude must be between -90 and 90")
	}
	return nil
}

func parseIssueID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, apperror.ValidationFailed("id", "Invalid issue id")
	}
	return oid, nil
}

// dedupe drops repeated tags, keeping the first occurrence.
func dedupe(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func trimFields(fields ...*string) {
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
	}
}
