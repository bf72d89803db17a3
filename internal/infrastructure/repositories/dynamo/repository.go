package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"objstore-backend/internal/domain/models"
	"objstore-backend/internal/domain/ports"
)

const (
	backendName = "dynamodb"

	// attrPartition is the partition key attribute; it doubles as the
	// resource's tenantId field
	attrPartition = "tenantId"

	// attrSort is the sort key attribute, shaped type#id#version
	attrSort = "sk"
)

// Ensure Repository implements the repository contract
var _ ports.Repository = (*Repository)(nil)

// Repository is the key-value adapter. All records live in a single table
// partitioned by tenant, with sort key type#id#version.
//
// DynamoDB has no generic multi-field secondary query path for arbitrary
// predicate trees, so Search/Exists/Count run a table scan with the translated
// predicate applied server-side as a post-filter and paginate client-side on
// the returned page. Result totals therefore depend on scan completeness,
// which the backend caps at its page size (1 MB of evaluated items); callers
// needing exhaustive totals over large tables must account for that.
//
// Update performs a read-then-write; two concurrent updates observing the
// same pre-image can both pass the version check with the second write
// winning silently. The version protocol is enforced by the use-case layer
// and the race is a documented property of this adapter.
type Repository struct {
	conn *ConnectionManager
}

// NewRepository creates a new DynamoDB repository
func NewRepository(conn *ConnectionManager) *Repository {
	return &Repository{conn: conn}
}

// Create stores a new resource
func (r *Repository) Create(ctx context.Context, resource *models.Resource) (*models.Resource, error) {
	key := resource.Key()
	existing, err := r.FindByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ports.NewDuplicateError(key, "")
	}

	if err := r.putItem(ctx, resource); err != nil {
		return nil, err
	}
	return resource.DeepCopy(), nil
}

// Update replaces the stored resource wholesale. The version is part of the
// sort key, so the superseded item is removed after the new one is written.
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

	if err := r.putItem(ctx, resource); err != nil {
		return nil, err
	}
	if existing.Version != resource.Version {
		if err := r.deleteItem(ctx, key.TenantID, sortKey(key, existing.Version)); err != nil {
			return nil, err
		}
	}
	return resource.DeepCopy(), nil
}

// Delete removes a resource by key, reporting whether it existed
func (r *Repository) Delete(ctx context.Context, key models.ResourceKey) (bool, error) {
	existing, err := r.FindByKey(ctx, key)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, nil
	}
	if err := r.deleteItem(ctx, key.TenantID, sortKey(key, existing.Version)); err != nil {
		return false, err
	}
	return true, nil
}

// FindByKey queries the partition for the identity's sort key prefix; only
// the latest version is stored, so at most one item matches
func (r *Repository) FindByKey(ctx context.Context, key models.ResourceKey) (*models.Resource, error) {
	client, err := r.conn.Client(ctx)
	if err != nil {
		return nil, err
	}

	keyCond := expression.KeyEqual(expression.Key(attrPartition), expression.Value(key.TenantID)).
		And(expression.KeyBeginsWith(expression.Key(attrSort), sortKeyPrefix(key)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, ports.NewBackendError(backendName, err)
	}

	out, err := client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.conn.Table()),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, ports.NewBackendError(backendName, err)
	}
	if len(out.Items) == 0 {
		return nil, nil
	}
	return fromItem(out.Items[0])
}

// Search scans the table with the translated predicate as a server-side
// filter, then sorts and paginates client-side on the returned page
func (r *Repository) Search(ctx context.Context, condition *models.SearchCondition, pagination *models.Pagination) (*models.SearchResult, error) {
	if pagination == nil {
		pagination = &models.Pagination{}
	}

	matched, err := r.scan(ctx, condition)
	if err != nil {
		return nil, err
	}

	models.SortResources(matched, pagination.SortField, pagination.SortDirection)
	start, end := models.PageBounds(pagination.PageValue(), pagination.LimitValue(), len(matched))
	return &models.SearchResult{
		Results: matched[start:end],
		Total:   int64(len(matched)),
	}, nil
}

// Exists reports whether any resource matches the condition
func (r *Repository) Exists(ctx context.Context, condition *models.SearchCondition) (bool, error) {
	matched, err := r.scan(ctx, condition)
	if err != nil {
		return false, err
	}
	return len(matched) > 0, nil
}

// Count returns the number of resources matching the condition
func (r *Repository) Count(ctx context.Context, condition *models.SearchCondition) (int64, error) {
	matched, err := r.scan(ctx, condition)
	if err != nil {
		return 0, err
	}
	return int64(len(matched)), nil
}

// Close releases the connection manager
func (r *Repository) Close(ctx context.Context) error {
	return r.conn.Close(ctx)
}

func (r *Repository) scan(ctx context.Context, condition *models.SearchCondition) ([]models.Resource, error) {
	client, err := r.conn.Client(ctx)
	if err != nil {
		return nil, err
	}

	input := &dynamodb.ScanInput{
		TableName: aws.String(r.conn.Table()),
	}
	if filter, ok := toFilterCondition(condition); ok {
		expr, err := expression.NewBuilder().WithFilter(filter).Build()
		if err != nil {
			return nil, ports.NewBackendError(backendName, err)
		}
		input.FilterExpression = expr.Filter()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}

	out, err := client.Scan(ctx, input)
	if err != nil {
		return nil, ports.NewBackendError(backendName, err)
	}

	resources := make([]models.Resource, 0, len(out.Items))
	for _, item := range out.Items {
		resource, err := fromItem(item)
		if err != nil {
			return nil, err
		}
		resources = append(resources, *resource)
	}
	return resources, nil
}

func (r *Repository) putItem(ctx context.Context, resource *models.Resource) error {
	client, err := r.conn.Client(ctx)
	if err != nil {
		return err
	}
	item, err := toItem(resource)
	if err != nil {
		return err
	}
	if _, err := client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.conn.Table()),
		Item:      item,
	}); err != nil {
		return ports.NewBackendError(backendName, err)
	}
	return nil
}

func (r *Repository) deleteItem(ctx context.Context, tenantID, sk string) error {
	client, err := r.conn.Client(ctx)
	if err != nil {
		return err
	}
	if _, err := client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.conn.Table()),
		Key: map[string]types.AttributeValue{
			attrPartition: &types.AttributeValueMemberS{Value: tenantID},
			attrSort:      &types.AttributeValueMemberS{Value: sk},
		},
	}); err != nil {
		return ports.NewBackendError(backendName, err)
	}
	return nil
}

func sortKey(key models.ResourceKey, version int64) string {
	return fmt.Sprintf("%s#%s#%d", key.ResourceType, key.ResourceID, version)
}

// sortKeyPrefix addresses every version of an identity; the trailing
// separator keeps id "d1" from matching "d10"
func sortKeyPrefix(key models.ResourceKey) string {
	return fmt.Sprintf("%s#%s#", key.ResourceType, key.ResourceID)
}

func toItem(resource *models.Resource) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(resource.Flatten())
	if err != nil {
		return nil, ports.NewBackendError(backendName, err)
	}
	item[attrSort] = &types.AttributeValueMemberS{Value: sortKey(resource.Key(), resource.Version)}
	return item, nil
}

func fromItem(item map[string]types.AttributeValue) (*models.Resource, error) {
	var flat map[string]any
	if err := attributevalue.UnmarshalMap(item, &flat); err != nil {
		return nil, ports.NewBackendError(backendName, err)
	}
	delete(flat, attrSort)
	return models.FromFlat(flat), nil
}
