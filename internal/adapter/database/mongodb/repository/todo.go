package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"todoapi/internal/core/domain"
	"todoapi/internal/core/port"
	"todoapi/internal/core/query"
	"todoapi/pkg/tracing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const collectionName = "todos"

var _ port.TodoRepository = (*TodoRepository)(nil)

type todoDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Completed   bool               `bson:"completed"`
	Priority    string             `bson:"priority"`
	DueDate     *time.Time         `bson:"dueDate"`
	Tags        []string           `bson:"tags"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func newTodoDocument(todo domain.Todo) todoDocument {
	tags := todo.Tags
	if tags == nil {
		tags = []string{}
	}

	return todoDocument{
		Title:       todo.Title,
		Description: todo.Description,
		Completed:   todo.Completed,
		Priority:    todo.Priority.String(),
		DueDate:     todo.DueDate,
		Tags:        tags,
		CreatedAt:   todo.CreatedAt,
		UpdatedAt:   todo.UpdatedAt,
	}
}

func (d todoDocument) toDomain() domain.Todo {
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}

	var due *time.Time
	if d.DueDate != nil {
		t := d.DueDate.UTC()
		due = &t
	}

	return domain.Todo{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Completed:   d.Completed,
		Priority:    domain.Priority(d.Priority),
		DueDate:     due,
		Tags:        tags,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

type TodoRepository struct {
	coll    *mongo.Collection
	metrics port.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

func NewTodoRepository(coll *mongo.Collection, metrics port.Metrics, logger *zap.Logger) *TodoRepository {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &TodoRepository{
		coll:    coll,
		metrics: metrics,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// run wraps one round-trip in a span and records its latency and outcome.
func (r *TodoRepository) run(ctx context.Context, operation string, fn func(context.Context) error) error {
	start := time.Now()

	err := tracing.DatabaseSpanWrapper(ctx, collectionName, operation, fn)

	var recorded error
	if err != nil && !errors.Is(err, domain.ErrTodoNotFound) {
		recorded = err
	}

	r.metrics.RecordDatabaseOperation(ctx, operation, time.Since(start), recorded)

	return err
}

func (r *TodoRepository) Insert(ctx context.Context, todo domain.Todo) (domain.Todo, error) {
	now := r.now()
	todo.CreatedAt = now
	todo.UpdatedAt = now

	doc := newTodoDocument(todo)
	doc.ID = primitive.NewObjectID()

	err := r.run(ctx, "insert", func(ctx context.Context) error {
		_, err := r.coll.InsertOne(ctx, doc)
		return err
	})

	if err != nil {
		r.logger.Error("Error inserting todo", zap.Error(err))
		return domain.Todo{}, fmt.Errorf("inserting todo: %w", err)
	}

	return doc.toDomain(), nil
}

// FindMany returns one page and the total number of matches. The two reads
// are not isolated from each other; concurrent writes may skew the total.
func (r *TodoRepository) FindMany(ctx context.Context, spec query.Spec) ([]domain.Todo, int64, error) {
	filter := spec.Filter.Document()

	opts := options.Find().
		SetSort(spec.Sort.Document()).
		SetSkip(spec.Skip).
		SetLimit(spec.Limit)

	todos := make([]domain.Todo, 0, spec.Limit)

	err := r.run(ctx, "find", func(ctx context.Context) error {
		cursor, err := r.coll.Find(ctx, filter, opts)
		if err != nil {
			return err
		}

		defer cursor.Close(ctx)

		for cursor.Next(ctx) {
			var doc todoDocument

			if err := cursor.Decode(&doc); err != nil {
				return err
			}

			todos = append(todos, doc.toDomain())
		}

		return cursor.Err()
	})

	if err != nil {
		r.logger.Error("Error fetching todos", zap.Error(err))
		return nil, 0, fmt.Errorf("finding todos: %w", err)
	}

	var total int64

	err = r.run(ctx, "count", func(ctx context.Context) error {
		var err error
		total, err = r.coll.CountDocuments(ctx, filter)
		return err
	})

	if err != nil {
		r.logger.Error("Error counting todos", zap.Error(err))
		return nil, 0, fmt.Errorf("counting todos: %w", err)
	}

	return todos, total, nil
}

func (r *TodoRepository) FindOne(ctx context.Context, id string) (domain.Todo, error) {
	oid, err := objectID(id)
	if err != nil {
		return domain.Todo{}, err
	}

	var doc todoDocument

	err = r.run(ctx, "findOne", func(ctx context.Context) error {
		return notFound(r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc))
	})

	if err != nil {
		return domain.Todo{}, r.wrap("finding todo", err)
	}

	return doc.toDomain(), nil
}

// Update applies only the supplied fields and returns the post-update document.
func (r *TodoRepository) Update(ctx context.Context, id string, patch domain.TodoPatch) (domain.Todo, error) {
	oid, err := objectID(id)
	if err != nil {
		return domain.Todo{}, err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: updateDocument(patch, r.now())}},
	}

	return r.findOneAndUpdate(ctx, "update", oid, pipeline)
}

// ToggleCompletion flips completed atomically on the server.
func (r *TodoRepository) ToggleCompletion(ctx context.Context, id string) (domain.Todo, error) {
	oid, err := objectID(id)
	if err != nil {
		return domain.Todo{}, err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "completed", Value: bson.D{{Key: "$not", Value: bson.A{"$completed"}}}},
			{Key: "updatedAt", Value: bson.D{{Key: "$max", Value: bson.A{r.now(), "$createdAt"}}}},
		}}},
	}

	return r.findOneAndUpdate(ctx, "toggle", oid, pipeline)
}

func (r *TodoRepository) findOneAndUpdate(ctx context.Context, operation string, oid primitive.ObjectID, update any) (domain.Todo, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc todoDocument

	err := r.run(ctx, operation, func(ctx context.Context) error {
		return notFound(r.coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: oid}}, update, opts).Decode(&doc))
	})

	if err != nil {
		return domain.Todo{}, r.wrap(operation+" todo", err)
	}

	return doc.toDomain(), nil
}

func (r *TodoRepository) Delete(ctx context.Context, id string) (domain.Todo, error) {
	oid, err := objectID(id)
	if err != nil {
		return domain.Todo{}, err
	}

	var doc todoDocument

	err = r.run(ctx, "delete", func(ctx context.Context) error {
		return notFound(r.coll.FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc))
	})

	if err != nil {
		return domain.Todo{}, r.wrap("deleting todo", err)
	}

	return doc.toDomain(), nil
}

func (r *TodoRepository) DeleteCompleted(ctx context.Context) (int64, error) {
	var deleted int64

	err := r.run(ctx, "deleteMany", func(ctx context.Context) error {
		res, err := r.coll.DeleteMany(ctx, query.CompletedDocument())
		if err != nil {
			return err
		}

		deleted = res.DeletedCount
		return nil
	})

	if err != nil {
		r.logger.Error("Error deleting completed todos", zap.Error(err))
		return 0, fmt.Errorf("deleting completed todos: %w", err)
	}

	return deleted, nil
}

type priorityBucket struct {
	Priority  string `bson:"_id"`
	Count     int64  `bson:"count"`
	Completed int64  `bson:"completed"`
}

// Statistics computes every figure in a single aggregation grouped by priority.
func (r *TodoRepository) Statistics(ctx context.Context) (domain.Statistics, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$priority"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "completed", Value: bson.D{{Key: "$sum", Value: bson.D{
				{Key: "$cond", Value: bson.A{"$completed", 1, 0}},
			}}}},
		}}},
	}

	stats := domain.NewStatistics()

	err := r.run(ctx, "aggregate", func(ctx context.Context) error {
		cursor, err := r.coll.Aggregate(ctx, pipeline)
		if err != nil {
			return err
		}

		var buckets []priorityBucket
		if err := cursor.All(ctx, &buckets); err != nil {
			return err
		}

		for _, b := range buckets {
			stats.Add(domain.Priority(b.Priority), b.Count, b.Completed)
		}

		return nil
	})

	if err != nil {
		r.logger.Error("Error aggregating statistics", zap.Error(err))
		return domain.Statistics{}, fmt.Errorf("aggregating statistics: %w", err)
	}

	return stats, nil
}

func (r *TodoRepository) OverdueIncomplete(ctx context.Context, now time.Time) ([]domain.Todo, error) {
	opts := options.Find().SetSort(query.Sort{Field: "dueDate"}.Document())

	todos := make([]domain.Todo, 0)

	err := r.run(ctx, "findOverdue", func(ctx context.Context) error {
		cursor, err := r.coll.Find(ctx, query.OverdueDocument(now), opts)
		if err != nil {
			return err
		}

		var docs []todoDocument
		if err := cursor.All(ctx, &docs); err != nil {
			return err
		}

		for _, doc := range docs {
			todos = append(todos, doc.toDomain())
		}

		return nil
	})

	if err != nil {
		r.logger.Error("Error fetching overdue todos", zap.Error(err))
		return nil, fmt.Errorf("finding overdue todos: %w", err)
	}

	return todos, nil
}

// EnsureIndexes creates the indexes backing the default sort, the list
// filters and the overdue query. Creating an existing index is a no-op.
func (r *TodoRepository) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "updatedAt", Value: -1}}},
		{Keys: bson.D{{Key: "priority", Value: 1}}},
		{Keys: bson.D{{Key: "completed", Value: 1}, {Key: "priority", Value: 1}}},
		{Keys: bson.D{{Key: "completed", Value: 1}, {Key: "dueDate", Value: 1}}},
	}

	var names []string

	err := r.run(ctx, "createIndexes", func(ctx context.Context) error {
		var err error
		names, err = r.coll.Indexes().CreateMany(ctx, models)
		return err
	})

	if err != nil {
		return fmt.Errorf("creating indexes: %w", err)
	}

	r.logger.Info("Ensured todo indexes", zap.Strings("indexes", names))

	return nil
}

func (r *TodoRepository) Ping(ctx context.Context) error {
	return tracing.SpanWrapper(ctx, "db.ping", []attribute.KeyValue{
		attribute.String("db.system", "mongodb"),
	}, func(ctx context.Context) error {
		return r.coll.Database().Client().Ping(ctx, nil)
	})
}

func (r *TodoRepository) wrap(action string, err error) error {
	if errors.Is(err, domain.ErrTodoNotFound) {
		return err
	}

	r.logger.Error("Error "+action, zap.Error(err))

	return fmt.Errorf("%s: %w", action, err)
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, domain.ErrInvalidTodoID
	}

	return oid, nil
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.ErrTodoNotFound
	}

	return err
}

// updateDocument builds the $set stage of an update pipeline. Values are
// wrapped in $literal so user text starting with "$" is never read as a field
// path, and updatedAt never precedes createdAt.
func updateDocument(patch domain.TodoPatch, now time.Time) bson.D {
	set := bson.D{}

	literal := func(key string, value any) {
		set = append(set, bson.E{Key: key, Value: bson.D{{Key: "$literal", Value: value}}})
	}

	if patch.Title != nil {
		literal("title", *patch.Title)
	}

	if patch.Description != nil {
		literal("description", *patch.Description)
	}

	if patch.Completed != nil {
		literal("completed", *patch.Completed)
	}

	if patch.Priority != nil {
		literal("priority", patch.Priority.String())
	}

	if patch.DueDateSet {
		literal("dueDate", patch.DueDate)
	}

	if patch.TagsSet {
		tags := patch.Tags
		if tags == nil {
			tags = []string{}
		}

		literal("tags", tags)
	}

	return append(set, bson.E{Key: "updatedAt", Value: bson.D{
		{Key: "$max", Value: bson.A{now, "$createdAt"}},
	}})
}
