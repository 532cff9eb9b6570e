package query

import (
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Document renders the filter as a MongoDB query document.
// Search is a case-insensitive substring match over title and description.
func (f Filter) Document() bson.D {
	doc := bson.D{}

	if f.Completed != nil {
		doc = append(doc, bson.E{Key: "completed", Value: *f.Completed})
	}

	if f.Priority != nil {
		doc = append(doc, bson.E{Key: "priority", Value: f.Priority.String()})
	}

	if f.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}

		doc = append(doc, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "title", Value: pattern}},
			bson.D{{Key: "description", Value: pattern}},
		}})
	}

	return doc
}

// Document renders the sort with _id as a tie-breaker so pages never overlap.
func (s Sort) Document() bson.D {
	direction := 1
	if s.Descending {
		direction = -1
	}

	return bson.D{
		{Key: s.Field, Value: direction},
		{Key: "_id", Value: direction},
	}
}

// OverdueDocument selects incomplete todos whose deadline passed before now.
func OverdueDocument(now time.Time) bson.D {
	return bson.D{
		{Key: "completed", Value: false},
		{Key: "dueDate", Value: bson.D{
			{Key: "$ne", Value: nil},
			{Key: "$lt", Value: now},
		}},
	}
}

func CompletedDocument() bson.D {
	return bson.D{{Key: "completed", Value: true}}
}
