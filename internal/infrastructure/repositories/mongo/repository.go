package mongo

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"objstore-backend/internal/domain/models"
	"objstore-backend/internal/domain/ports"
)

const backendName = "mongodb"

// Ensure Repository implements the repository contract
var _ ports.Repository = (*Repository)(nil)

// Repository is the document-store adapter. Each tenant maps to its own
// database (prefixed with the configured database prefix) and each resource
// type to a collection within it; the serialized identity triple is the
// document's _id.
//
// Update performs a read-then-replace; two concurrent updates observing the
// same pre-image can both pass the version check with the second write
// winning silently. The version protocol is enforced by the use-case layer
// and the race is a documented property of this adapter.
type Repository struct {
	conn *ConnectionManager
}

// NewRepository creates a new MongoDB repository
func NewRepository(conn *ConnectionManager) *Repository {
	return &Repository{conn: conn}
}

// Create stores a new resource
func (r *Repository) Create(ctx context.Context, resource *models.Resource) (*models.Resource, error) {
	col, err := r.collection(ctx, resource.TenantID, resource.ResourceType)
	if err != nil {
		return nil, err
	}

	if _, err := col.InsertOne(ctx, toDocument(resource)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ports.NewDuplicateError(resource.Key(), "")
		}
		return nil, ports.NewBackendError(backendName, err)
	}
	return resource.DeepCopy(), nil
}

// Update replaces the stored resource wholesale
func (r *Repository) Update(ctx context.Context, resource *models.Resource) (*models.Resource, error) {
	key := resource.Key()
	existing, err := r.FindByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ports.NewNotFoundError(key)
	}
	if resource.Version != existing.Version+1 {
		return nil, ports.NewVersionConflictError(key, existing.Version+1, resource.Version)
	}

	col, err := r.collection(ctx, resource.TenantID, resource.ResourceType)
	if err != nil {
		return nil, err
	}
	if _, err := col.ReplaceOne(ctx, bson.M{"_id": key.Key()}, toDocument(resource)); err != nil {
		return nil, ports.NewBackendError(backendName, err)
	}
	return resource.DeepCopy(), nil
}

// Delete removes a resource by key, reporting whether it existed
func (r *Repository) Delete(ctx context.Context, key models.ResourceKey) (bool, error) {
	col, err := r.collection(ctx, key.TenantID, key.ResourceType)
	if err != nil {
		return false, err
	}

	res, err := col.DeleteOne(ctx, bson.M{"_id": key.Key()})
	if err != nil {
		return false, ports.NewBackendError(backendName, err)
	}
	return res.DeletedCount > 0, nil
}

// FindByKey returns the resource for the identity triple, or nil when absent
func (r *Repository) FindByKey(ctx context.Context, key models.ResourceKey) (*models.Resource, error) {
	col, err := r.collection(ctx, key.TenantID, key.ResourceType)
	if err != nil {
		return nil, err
	}

	var doc bson.M
	if err := col.FindOne(ctx, bson.M{"_id": key.Key()}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, ports.NewBackendError(backendName, err)
	}
	return fromDocument(doc), nil
}

// Search targets a single collection when the condition pins one resource
// type, otherwise fans out across every collection in the tenant's database,
// merging and re-sorting before paginating. The fan-out path costs one round
// trip per collection; total stays correct across the union.
func (r *Repository) Search(ctx context.Context, condition *models.SearchCondition, pagination *models.Pagination) (*models.SearchResult, error) {
	if pagination == nil {
		pagination = &models.Pagination{}
	}

	db, err := r.tenantDatabase(ctx, condition)
	if err != nil {
		return nil, err
	}
	filter := toFilter(condition)

	if resourceType, ok := condition.PinnedValue(models.FieldResourceType); ok {
		return r.searchCollection(ctx, db.Collection(resourceType), filter, pagination)
	}

	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return nil, ports.NewBackendError(backendName, err)
	}

	merged := make([]models.Resource, 0)
	for _, name := range names {
		resources, err := findAll(ctx, db.Collection(name), filter)
		if err != nil {
			return nil, err
		}
		merged = append(merged, resources...)
	}

	models.SortResources(merged, pagination.SortField, pagination.SortDirection)
	start, end := models.PageBounds(pagination.PageValue(), pagination.LimitValue(), len(merged))
	return &models.SearchResult{
		Results: merged[start:end],
		Total:   int64(len(merged)),
	}, nil
}

// Exists reports whether any resource matches the condition
func (r *Repository) Exists(ctx context.Context, condition *models.SearchCondition) (bool, error) {
	db, err := r.tenantDatabase(ctx, condition)
	if err != nil {
		return false, err
	}
	filter := toFilter(condition)
	limitOne := options.Count().SetLimit(1)

	if resourceType, ok := condition.PinnedValue(models.FieldResourceType); ok {
		n, err := db.Collection(resourceType).CountDocuments(ctx, filter, limitOne)
		if err != nil {
			return false, ports.NewBackendError(backendName, err)
		}
		return n > 0, nil
	}

	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, ports.NewBackendError(backendName, err)
	}
	for _, name := range names {
		n, err := db.Collection(name).CountDocuments(ctx, filter, limitOne)
		if err != nil {
			return false, ports.NewBackendError(backendName, err)
		}
		if n > 0 {
			return true, nil
		}
	}
	return false, nil
}

// Count returns the number of resources matching the condition
func (r *Repository) Count(ctx context.Context, condition *models.SearchCondition) (int64, error) {
	db, err := r.tenantDatabase(ctx, condition)
	if err != nil {
		return 0, err
	}
	filter := toFilter(condition)

	if resourceType, ok := condition.PinnedValue(models.FieldResourceType); ok {
		n, err := db.Collection(resourceType).CountDocuments(ctx, filter)
		if err != nil {
			return 0, ports.NewBackendError(backendName, err)
		}
		return n, nil
	}

	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return 0, ports.NewBackendError(backendName, err)
	}
	var total int64
	for _, name := range names {
		n, err := db.Collection(name).CountDocuments(ctx, filter)
		if err != nil {
			return 0, ports.NewBackendError(backendName, err)
		}
		total += n
	}
	return total, nil
}

// Close disconnects the underlying client
func (r *Repository) Close(ctx context.Context) error {
	return r.conn.Close(ctx)
}

func (r *Repository) collection(ctx context.Context, tenantID, resourceType string) (*mongo.Collection, error) {
	client, err := r.conn.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Database(r.databaseName(tenantID)).Collection(resourceType), nil
}

// tenantDatabase resolves the tenant database from the condition; queries
// must constrain tenantId to a single value because tenants map to databases
func (r *Repository) tenantDatabase(ctx context.Context, condition *models.SearchCondition) (*mongo.Database, error) {
	tenantID, ok := condition.PinnedValue(models.FieldTenantID)
	if !ok {
		return nil, ports.NewInvalidConditionError("search condition must constrain tenantId to a single tenant")
	}
	client, err := r.conn.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Database(r.databaseName(tenantID)), nil
}

func (r *Repository) databaseName(tenantID string) string {
	return r.conn.DatabasePrefix() + tenantID
}

func (r *Repository) searchCollection(ctx context.Context, col *mongo.Collection, filter bson.M, pagination *models.Pagination) (*models.SearchResult, error) {
	total, err := col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, ports.NewBackendError(backendName, err)
	}

	page, limit := pagination.PageValue(), pagination.LimitValue()
	if page <= 0 || limit <= 0 {
		return &models.SearchResult{Results: []models.Resource{}, Total: total}, nil
	}

	opts := options.Find().
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit)).
		SetSort(searchSort(pagination))

	cursor, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, ports.NewBackendError(backendName, err)
	}
	resources, err := decodeAll(ctx, cursor)
	if err != nil {
		return nil, err
	}
	return &models.SearchResult{Results: resources, Total: total}, nil
}

// searchSort builds the server-side sort for the pinned-collection path. The
// sort always ends on _id: skip/limit pagination over an unordered or tied
// result set would let consecutive pages overlap or drop documents, so every
// query orders on a unique key last. Note that the server's descending sort
// places documents missing the sort field last, unlike the client-side sort
// used by the fan-out path, which places them first in both directions.
func searchSort(pagination *models.Pagination) bson.D {
	sort := bson.D{}
	if pagination.SortField != "" {
		direction := 1
		if pagination.SortDirection == models.SortDesc {
			direction = -1
		}
		sort = append(sort, bson.E{Key: pagination.SortField, Value: direction})
	}
	return append(sort, bson.E{Key: "_id", Value: 1})
}

func findAll(ctx context.Context, col *mongo.Collection, filter bson.M) ([]models.Resource, error) {
	cursor, err := col.Find(ctx, filter)
	if err != nil {
		return nil, ports.NewBackendError(backendName, err)
	}
	return decodeAll(ctx, cursor)
}

func decodeAll(ctx context.Context, cursor *mongo.Cursor) ([]models.Resource, error) {
	defer cursor.Close(ctx)

	resources := make([]models.Resource, 0)
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, ports.NewBackendError(backendName, err)
		}
		resources = append(resources, *fromDocument(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, ports.NewBackendError(backendName, err)
	}
	return resources, nil
}

func toDocument(resource *models.Resource) bson.M {
	doc := bson.M(resource.Flatten())
	doc["_id"] = resource.Key().Key()
	return doc
}

func fromDocument(doc bson.M) *models.Resource {
	flat := make(map[string]any, len(doc))
	for k, v := range doc {
		if k == "_id" {
			continue
		}
		flat[k] = normalizeBSON(v)
	}
	return models.FromFlat(flat)
}

// normalizeBSON converts driver-specific container types back into the plain
// map/slice shapes the condition evaluator and JSON layer expect
func normalizeBSON(v any) any {
	switch t := v.(type) {
	case bson.M:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = normalizeBSON(e)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = normalizeBSON(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeBSON(e)
		}
		return out
	default:
		return v
	}
}
