package models

import (
	"encoding/json"
	"fmt"
)

// Reserved field names shared by every resource. Search conditions may
// reference them like any caller-defined field.
const (
	FieldTenantID     = "tenantId"
	FieldResourceType = "resourceType"
	FieldResourceID   = "resourceId"
	FieldVersion      = "version"
)

// ResourceKey is the identity triple of a resource. It carries no version.
type ResourceKey struct {
	TenantID     string `json:"tenantId"`
	ResourceType string `json:"resourceType"`
	ResourceID   string `json:"resourceId"`
}

// NewResourceKey creates a new resource key
func NewResourceKey(tenantID, resourceType, resourceID string) ResourceKey {
	return ResourceKey{
		TenantID:     tenantID,
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// Key returns the serialized form of the identity triple
func (k ResourceKey) Key() string {
	return fmt.Sprintf("%s/%s/%s", k.TenantID, k.ResourceType, k.ResourceID)
}

// Resource is a versioned, tenant-scoped record. The four identity fields are
// fixed struct members; all caller-defined fields live in the open Data map.
// Exactly one resource exists per (tenant, type, id) at any time, carrying the
// latest version reachable through that identity.
type Resource struct {
	TenantID     string
	ResourceType string
	ResourceID   string
	Version      int64
	Data         map[string]any
}

// Key returns the resource's identity triple
func (r *Resource) Key() ResourceKey {
	return ResourceKey{
		TenantID:     r.TenantID,
		ResourceType: r.ResourceType,
		ResourceID:   r.ResourceID,
	}
}

// Field returns the named field's value. Identity fields resolve before the
// open Data map. The second result reports whether the field is present.
func (r *Resource) Field(name string) (any, bool) {
	switch name {
	case FieldTenantID:
		return r.TenantID, true
	case FieldResourceType:
		return r.ResourceType, true
	case FieldResourceID:
		return r.ResourceID, true
	case FieldVersion:
		return r.Version, true
	}
	v, ok := r.Data[name]
	return v, ok
}

// Flatten merges identity fields and caller-defined fields into a single map,
// the shape backend codecs store.
func (r *Resource) Flatten() map[string]any {
	out := make(map[string]any, len(r.Data)+4)
	for k, v := range r.Data {
		out[k] = v
	}
	out[FieldTenantID] = r.TenantID
	out[FieldResourceType] = r.ResourceType
	out[FieldResourceID] = r.ResourceID
	out[FieldVersion] = r.Version
	return out
}

// FromFlat rebuilds a Resource from a flattened map. Identity fields are
// pulled out; everything else lands in Data.
func FromFlat(m map[string]any) *Resource {
	r := &Resource{Data: make(map[string]any, len(m))}
	for k, v := range m {
		switch k {
		case FieldTenantID:
			r.TenantID, _ = v.(string)
		case FieldResourceType:
			r.ResourceType, _ = v.(string)
		case FieldResourceID:
			r.ResourceID, _ = v.(string)
		case FieldVersion:
			r.Version = toInt64(v)
		default:
			r.Data[k] = v
		}
	}
	return r
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float64:
		return int64(n)
	case float32:
		return int64(n)
	case json.Number:
		i, _ := n.Int64()
		return i
	}
	return 0
}

// DeepCopy creates a deep copy of the resource
func (r *Resource) DeepCopy() *Resource {
	if r == nil {
		return nil
	}
	out := &Resource{
		TenantID:     r.TenantID,
		ResourceType: r.ResourceType,
		ResourceID:   r.ResourceID,
		Version:      r.Version,
	}
	if r.Data != nil {
		out.Data = deepCopyMap(r.Data)
	}
	return out
}

func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = deepCopyValue(e)
		}
		return out
	default:
		return v
	}
}

// MarshalJSON renders the resource as a single flat object
func (r *Resource) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Flatten())
}

// UnmarshalJSON accepts a single flat object, splitting identity fields from
// caller-defined ones
func (r *Resource) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*r = *FromFlat(m)
	return nil
}
