package repository

import (
	"math"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func issueFilter(q IssueQuery) bson.M {
	filter := bson.M{}

	if q.Colony != "" {
		filter["colony"] = q.Colony
	}
	if q.Pincode != "" {
		filter["pincode"] = q.Pincode
	}
	if q.ReportedBy != nil {
		filter["reportedBy"] = *q.ReportedBy
	}
	if q.Near != nil {
		filter["location"] = bson.M{
			"$near": bson.M{
				"$geometry": bson.M{
					"type":        "Point",
					"coordinates": bson.A{q.Near.Longitude, q.Near.Latitude},
				},
				"$maxDistance": q.Near.RadiusMeters,
			},
		}
	}
	return filter
}

// issueSort returns nil when $near should keep its distance ordering.
func issueSort(q IssueQuery) bson.D {
	switch q.Sort {
	case SortSupported:
		return bson.D{{Key: "upvotes.count", Value: -1}, {Key: "createdAt", Value: -1}}
	case SortDistance:
		if q.Near != nil {
			return nil
		}
	}
	return bson.D{{Key: "createdAt", Value: -1}}
}

func issueFindOptions(q IssueQuery) *options.FindOptions {
	opts := options.Find()
	if sort := issueSort(q); sort != nil {
		opts.SetSort(sort)
	}
	if q.Limit > 0 {
		skip, _ := pageOffset(q.Page, q.Limit)
		opts.SetSkip(int64(skip)).SetLimit(int64(q.Limit))
	}
	return opts
}

// pageOffset returns how many matches precede the page. ok is false when
// the offset does not fit in an int, which means the page is past any result set.
func pageOffset(page, limit int) (skip int, ok bool) {
	page = max(page, 1)
	if limit <= 0 {
		return 0, true
	}
	if page-1 > math.MaxInt/limit {
		return 0, false
	}
	return (page - 1) * limit, true
}
