package vault

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/doodlesbykumbi/piivault/pkg/model"
	"github.com/doodlesbykumbi/piivault/pkg/policy"
	"github.com/doodlesbykumbi/piivault/pkg/ptype"
	"github.com/doodlesbykumbi/piivault/pkg/server/store"
)

// Reserved field names map to record columns instead of the encrypted
// payload.
const (
	SubjectIDField      = "subject_id"
	ParentRecordIDField = "parent_record_id"
)

var collectionNameRgx = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,64}$`)
var fieldNameRgx = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// CreateCollection creates a collection with a validated schema. A
// non-empty parent makes records in this collection ownable by records
// of the parent collection via the parent_record_id reserved field.
func (v *Vault) CreateCollection(ctx context.Context, name, parent string, schema model.CollectionSchema) (*model.Collection, error) {
	if err := v.ValidateAction(ctx, policy.ActionWrite, CollectionsResource()); err != nil {
		return nil, err
	}

	if !collectionNameRgx.MatchString(name) {
		return nil, &ValueError{Msg: fmt.Sprintf("invalid collection name %q", name)}
	}
	if parent != "" {
		if err := v.checkParentChain(name, parent); err != nil {
			return nil, err
		}
	}
	if len(schema) == 0 {
		return nil, &ValueError{Msg: "collection schema must declare at least one field"}
	}
	for field, fieldSchema := range schema {
		if !fieldNameRgx.MatchString(field) {
			return nil, &ValueError{Msg: fmt.Sprintf("invalid field name %q", field)}
		}
		if field == SubjectIDField || field == ParentRecordIDField {
			return nil, &ValueError{Msg: fmt.Sprintf("field name %q is reserved", field)}
		}
		if !ptype.Valid(ptype.TypeName(fieldSchema.Type)) {
			return nil, &ValueError{Msg: fmt.Sprintf("unknown type %q for field %q", fieldSchema.Type, field)}
		}
	}

	collection := &model.Collection{
		ID:     model.NewCollectionID(),
		Name:   name,
		Parent: parent,
	}
	if err := collection.SetSchema(schema); err != nil {
		return nil, err
	}

	if err := v.Collections.CreateCollection(collection); err != nil {
		if errors.Is(err, store.ErrCollectionExists) {
			return nil, &ConflictError{Msg: fmt.Sprintf("collection %q already exists", name)}
		}
		return nil, err
	}

	return collection, nil
}

// GetCollection retrieves a collection by name.
func (v *Vault) GetCollection(ctx context.Context, name string) (*model.Collection, error) {
	if err := v.ValidateAction(ctx, policy.ActionRead, CollectionResource(name)); err != nil {
		return nil, err
	}
	return v.getCollection(name)
}

// ListCollections lists collection names the caller may read.
func (v *Vault) ListCollections(ctx context.Context) ([]string, error) {
	if err := v.ValidateAction(ctx, policy.ActionRead, CollectionsResource()); err != nil {
		return nil, err
	}

	collections, err := v.Collections.ListCollections()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(collections))
	for _, collection := range collections {
		if err := v.ValidateAction(ctx, policy.ActionRead, CollectionResource(collection.Name)); err != nil {
			continue
		}
		names = append(names, collection.Name)
	}
	return names, nil
}

// DeleteCollection removes a collection and everything in it.
func (v *Vault) DeleteCollection(ctx context.Context, name string) error {
	if err := v.ValidateAction(ctx, policy.ActionWrite, CollectionResource(name)); err != nil {
		return err
	}

	err := v.Collections.DeleteCollection(name)
	if errors.Is(err, store.ErrCollectionNotFound) {
		return &NotFoundError{Kind: "collection", ID: name}
	}
	return err
}

// checkParentChain verifies the parent exists and that following parent
// links from it never loops back to the collection being created.
func (v *Vault) checkParentChain(name, parent string) error {
	seen := map[string]bool{name: true}
	for current := parent; current != ""; {
		if seen[current] {
			return &IntegrityError{Msg: fmt.Sprintf("parent chain through %q forms a cycle", current)}
		}
		seen[current] = true

		collection, err := v.Collections.GetCollection(current)
		if err != nil {
			if errors.Is(err, store.ErrCollectionNotFound) {
				return &IntegrityError{Msg: fmt.Sprintf("parent collection %q does not exist", current)}
			}
			return err
		}
		current = collection.Parent
	}
	return nil
}

func (v *Vault) getCollection(name string) (*model.Collection, error) {
	collection, err := v.Collections.GetCollection(name)
	if err != nil {
		if errors.Is(err, store.ErrCollectionNotFound) {
			return nil, &NotFoundError{Kind: "collection", ID: name}
		}
		return nil, err
	}
	return collection, nil
}
