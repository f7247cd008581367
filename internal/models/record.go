package models

import (
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/fintrack/internal/common"
)

// Record is the generic envelope for one row of any collection: the shared
// base fields plus the collection-specific payload as raw JSON.
//
// Timestamps are wall-clock milliseconds at the originating device.
// UpdatedAt is the sole ordering signal for conflict resolution; CreatedAt
// is informational only.
type Record struct {
	// Id is a globally unique, immutable identifier within its collection.
	Id string

	// UserId is the owning user, attached at creation. It partitions the
	// remote store and never participates in merge logic.
	UserId string

	CreatedAt int64
	UpdatedAt int64

	// IsSynced is local-only: true iff the local copy is known to equal (or
	// be older than) what the remote store has acknowledged. It is never an
	// ordering signal.
	IsSynced bool

	// IsDeleted marks a tombstone. Tombstoned rows are kept so the deletion
	// itself can reach other replicas; nothing in this engine ever removes
	// a row physically.
	IsDeleted bool

	// Payload holds the collection-specific fields as a JSON object.
	Payload json.RawMessage
}

// base field keys inside the serialized record (camelCase, matching the
// application's on-disk and remote blob format).
const (
	keyId        = "id"
	keyUserId    = "userId"
	keyCreatedAt = "createdAt"
	keyUpdatedAt = "updatedAt"
	keyIsSynced  = "isSynced"
	keyIsDeleted = "isDeleted"
)

// EncodeRecord flattens the base fields and the payload into one JSON
// object. This is the whole-record blob stored in the remote `data` column.
func EncodeRecord(r Record) ([]byte, error) {
	fields := map[string]any{}
	if len(r.Payload) > 0 {
		if err := json.Unmarshal(r.Payload, &fields); err != nil {
			return nil, fmt.Errorf("record %s: invalid payload: %w", r.Id, err)
		}
	}

	fields[keyId] = r.Id
	fields[keyCreatedAt] = r.CreatedAt
	fields[keyUpdatedAt] = r.UpdatedAt
	fields[keyIsSynced] = r.IsSynced
	fields[keyIsDeleted] = r.IsDeleted
	if r.UserId != "" {
		fields[keyUserId] = r.UserId
	}

	return json.Marshal(fields)
}

// DecodeRecord parses a whole-record blob back into a Record. It is the
// explicit typed boundary for data arriving from the remote store: a blob
// with a missing or ill-typed id or updatedAt fails here, wrapping
// common.ErrDecode, instead of leaking zero values into the local replica.
func DecodeRecord(raw []byte) (Record, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Record{}, fmt.Errorf("%w: not a JSON object: %v", common.ErrDecode, err)
	}

	var r Record

	if err := requireField(fields, keyId, &r.Id); err != nil {
		return Record{}, err
	}
	if r.Id == "" {
		return Record{}, fmt.Errorf("%w: empty id", common.ErrDecode)
	}
	if err := requireField(fields, keyUpdatedAt, &r.UpdatedAt); err != nil {
		return Record{}, err
	}

	if err := optionalField(fields, keyUserId, &r.UserId); err != nil {
		return Record{}, err
	}
	if err := optionalField(fields, keyCreatedAt, &r.CreatedAt); err != nil {
		return Record{}, err
	}
	if err := optionalField(fields, keyIsSynced, &r.IsSynced); err != nil {
		return Record{}, err
	}
	if err := optionalField(fields, keyIsDeleted, &r.IsDeleted); err != nil {
		return Record{}, err
	}

	for _, k := range []string{keyId, keyUserId, keyCreatedAt, keyUpdatedAt, keyIsSynced, keyIsDeleted} {
		delete(fields, k)
	}
	payload, err := json.Marshal(fields)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", common.ErrDecode, err)
	}
	r.Payload = payload

	return r, nil
}

func requireField[T any](fields map[string]json.RawMessage, key string, dst *T) error {
	raw, ok := fields[key]
	if !ok {
		return fmt.Errorf("%w: missing %q", common.ErrDecode, key)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: field %q: %v", common.ErrDecode, key, err)
	}
	return nil
}

func optionalField[T any](fields map[string]json.RawMessage, key string, dst *T) error {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: field %q: %v", common.ErrDecode, key, err)
	}
	return nil
}

// MarshalPayload serializes a typed domain value into a record payload.
func MarshalPayload(v any) (json.RawMessage, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return b, nil
}

// DecodePayload deserializes the record payload into a typed domain value.
func (r Record) DecodePayload(v any) error {
	if len(r.Payload) == 0 {
		return fmt.Errorf("%w: record %s has no payload", common.ErrDecode, r.Id)
	}
	if err := json.Unmarshal(r.Payload, v); err != nil {
		return fmt.Errorf("%w: record %s: %v", common.ErrDecode, r.Id, err)
	}
	return nil
}
