package vault

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/doodlesbykumbi/piivault/pkg/audit"
	"github.com/doodlesbykumbi/piivault/pkg/model"
	"github.com/doodlesbykumbi/piivault/pkg/policy"
	"github.com/doodlesbykumbi/piivault/pkg/ptype"
	"github.com/doodlesbykumbi/piivault/pkg/server/store"
)

// Selector names one field rendering, e.g. "phone.masked".
type Selector struct {
	Field  string
	Format string
}

func (s Selector) String() string {
	return s.Field + "." + s.Format
}

// ParseSelector parses a "field.format" (or "field:format") selector.
func ParseSelector(raw string) (Selector, error) {
	sep := strings.LastIndexAny(raw, ".:")
	if sep < 0 {
		return Selector{}, &ValueError{Msg: fmt.Sprintf("selector %q must be field.format", raw)}
	}
	selector := Selector{Field: raw[:sep], Format: raw[sep+1:]}
	if selector.Field == "" || !ptype.ValidFormat(selector.Format) {
		return Selector{}, &ValueError{Msg: fmt.Sprintf("invalid selector %q", raw)}
	}
	return selector, nil
}

// CreateRecord validates a payload against the collection schema and
// persists it. Reserved fields pin the record to a subject or a parent
// record. Returns the created record ID.
func (v *Vault) CreateRecord(ctx context.Context, collectionName string, payload map[string]string) (string, error) {
	if err := v.ValidateAction(ctx, policy.ActionWrite, RecordsResource(collectionName)); err != nil {
		return "", err
	}

	collection, err := v.getCollection(collectionName)
	if err != nil {
		return "", err
	}
	schema, err := collection.ParseSchema()
	if err != nil {
		return "", err
	}

	record := &model.Record{
		ID:           model.NewRecordID(),
		CollectionID: collection.ID,
	}

	fields := map[string]string{}
	var indexes []model.RecordIndex
	for field, raw := range payload {
		switch field {
		case SubjectIDField:
			subject, err := v.Subjects.GetSubject(raw)
			if err != nil {
				if errors.Is(err, store.ErrSubjectNotFound) {
					return "", &NotFoundError{Kind: "subject", ID: raw}
				}
				return "", err
			}
			record.SubjectID = &subject.ID
		case ParentRecordIDField:
			// the parent record lives in the declared parent collection
			// when the schema has one, otherwise in this collection
			parentCollectionID := collection.ID
			if collection.Parent != "" {
				parentCollection, err := v.getCollection(collection.Parent)
				if err != nil {
					return "", err
				}
				parentCollectionID = parentCollection.ID
			}
			if _, err := v.Records.GetRecord(parentCollectionID, raw); err != nil {
				if errors.Is(err, store.ErrRecordNotFound) {
					return "", &NotFoundError{Kind: "record", ID: raw}
				}
				return "", err
			}
			parent := raw
			record.ParentRecordID = &parent
		default:
			fieldSchema, ok := schema[field]
			if !ok {
				return "", &ValueError{Msg: fmt.Sprintf("field %q is not in the schema of collection %q", field, collectionName)}
			}

			canonical, err := ptype.Canonical(ptype.TypeName(fieldSchema.Type), raw)
			if err != nil {
				return "", &ValueError{Msg: fmt.Sprintf("invalid value for field %q", field)}
			}
			fields[field] = canonical

			if fieldSchema.IsIndexed {
				indexes = append(indexes, model.RecordIndex{
					RecordID:     record.ID,
					Field:        field,
					CollectionID: collection.ID,
					Digest:       v.Indexer.Digest(collection.ID, field, canonical),
				})
			}
		}
	}

	if err := record.EncodeFields(fields); err != nil {
		return "", err
	}

	if err := v.Records.CreateRecord(record, indexes); err != nil {
		if errors.Is(err, store.ErrDuplicateValue) {
			return "", &ConflictError{Msg: "duplicate value for indexed field"}
		}
		return "", err
	}

	audit.Log(audit.AccessEvent{
		Username:   username(ctx),
		ClientIP:   clientIP(ctx),
		Collection: collectionName,
		RecordID:   record.ID,
		Operation:  "create",
		Success:    true,
	})

	return record.ID, nil
}

// GetRecord renders the selected fields of a record. Selectors default to
// every schema field in the masked format. Authorization is all or
// nothing: one denied selector fails the whole read.
func (v *Vault) GetRecord(ctx context.Context, collectionName, recordID string, rawSelectors []string) (map[string]string, error) {
	selectors := make([]Selector, 0, len(rawSelectors))
	for _, raw := range rawSelectors {
		selector, err := ParseSelector(raw)
		if err != nil {
			return nil, err
		}
		selectors = append(selectors, selector)
	}

	// authorization comes before the collection and schema lookups, so an
	// unauthorized caller learns nothing about what exists
	defaulted := len(selectors) == 0
	if defaulted {
		if err := v.ValidateAction(ctx, policy.ActionRead, RecordResource(collectionName, recordID)); err != nil {
			return nil, err
		}
	} else {
		resources := make([]string, 0, len(selectors))
		for _, selector := range selectors {
			resources = append(resources, RenderedFieldResource(collectionName, recordID, selector.Field, selector.Format))
		}
		if err := v.validateActions(ctx, policy.ActionRead, resources); err != nil {
			return nil, err
		}
	}

	collection, err := v.getCollection(collectionName)
	if err != nil {
		return nil, err
	}
	schema, err := collection.ParseSchema()
	if err != nil {
		return nil, err
	}

	if defaulted {
		resources := make([]string, 0, len(schema))
		for field := range schema {
			selectors = append(selectors, Selector{Field: field, Format: ptype.MaskedFormat})
			resources = append(resources, RenderedFieldResource(collectionName, recordID, field, ptype.MaskedFormat))
		}
		if err := v.validateActions(ctx, policy.ActionRead, resources); err != nil {
			return nil, err
		}
	} else {
		for _, selector := range selectors {
			if _, ok := schema[selector.Field]; !ok {
				return nil, &ValueError{Msg: fmt.Sprintf("field %q is not in the schema of collection %q", selector.Field, collectionName)}
			}
		}
	}

	record, err := v.Records.GetRecord(collection.ID, recordID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, &NotFoundError{Kind: "record", ID: recordID}
		}
		return nil, err
	}

	fields, err := record.DecodeFields()
	if err != nil {
		return nil, err
	}

	rendered := map[string]string{}
	selectorNames := make([]string, 0, len(selectors))
	for _, selector := range selectors {
		selectorNames = append(selectorNames, selector.String())

		canonical, ok := fields[selector.Field]
		if !ok {
			// schema fields the record never set are omitted from default
			// reads but are an error when asked for by name
			if defaulted {
				continue
			}
			return nil, &NotFoundError{Kind: "field", ID: selector.Field}
		}

		value, err := ptype.Parse(ptype.TypeName(schema[selector.Field].Type), canonical)
		if err != nil {
			return nil, err
		}
		out, err := value.Get(selector.Format)
		if err != nil {
			return nil, &ValueError{Msg: fmt.Sprintf("format %q not supported for field %q", selector.Format, selector.Field)}
		}
		rendered[selector.String()] = out
	}

	audit.Log(audit.AccessEvent{
		Username:   username(ctx),
		ClientIP:   clientIP(ctx),
		Collection: collectionName,
		RecordID:   recordID,
		Selectors:  selectorNames,
		Operation:  "read",
		Success:    true,
	})

	return rendered, nil
}

// ListRecords lists the record IDs of a collection.
func (v *Vault) ListRecords(ctx context.Context, collectionName string) ([]string, error) {
	if err := v.ValidateAction(ctx, policy.ActionRead, RecordsResource(collectionName)); err != nil {
		return nil, err
	}

	collection, err := v.getCollection(collectionName)
	if err != nil {
		return nil, err
	}

	records, err := v.Records.ListRecords(collection.ID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(records))
	for _, record := range records {
		ids = append(ids, record.ID)
	}
	return ids, nil
}

// UpdateRecord merges a payload into an existing record and recomputes its
// index rows. Reserved fields cannot be changed after creation.
func (v *Vault) UpdateRecord(ctx context.Context, collectionName, recordID string, payload map[string]string) error {
	if len(payload) == 0 {
		return &ValueError{Msg: "update payload is empty"}
	}

	resources := make([]string, 0, len(payload))
	for field := range payload {
		if field == SubjectIDField || field == ParentRecordIDField {
			return &ValueError{Msg: fmt.Sprintf("field %q cannot be changed", field)}
		}
		resources = append(resources, FieldResource(collectionName, recordID, field))
	}
	if err := v.validateActions(ctx, policy.ActionWrite, resources); err != nil {
		return err
	}

	collection, err := v.getCollection(collectionName)
	if err != nil {
		return err
	}
	schema, err := collection.ParseSchema()
	if err != nil {
		return err
	}

	canonicals := map[string]string{}
	for field, raw := range payload {
		fieldSchema, ok := schema[field]
		if !ok {
			return &ValueError{Msg: fmt.Sprintf("field %q is not in the schema of collection %q", field, collectionName)}
		}
		canonical, err := ptype.Canonical(ptype.TypeName(fieldSchema.Type), raw)
		if err != nil {
			return &ValueError{Msg: fmt.Sprintf("invalid value for field %q", field)}
		}
		canonicals[field] = canonical
	}

	// the merge runs inside the store transaction against the row-locked
	// record, so a concurrent writer's committed fields survive it
	err = v.Records.UpdateRecord(collection.ID, recordID, func(record *model.Record) ([]model.RecordIndex, error) {
		fields, err := record.DecodeFields()
		if err != nil {
			return nil, err
		}
		for field, canonical := range canonicals {
			fields[field] = canonical
		}

		var indexes []model.RecordIndex
		for field, canonical := range fields {
			if schema[field].IsIndexed {
				indexes = append(indexes, model.RecordIndex{
					RecordID:     record.ID,
					Field:        field,
					CollectionID: collection.ID,
					Digest:       v.Indexer.Digest(collection.ID, field, canonical),
				})
			}
		}

		if err := record.EncodeFields(fields); err != nil {
			return nil, err
		}
		return indexes, nil
	})
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return &NotFoundError{Kind: "record", ID: recordID}
		}
		if errors.Is(err, store.ErrDuplicateValue) {
			return &ConflictError{Msg: "duplicate value for indexed field"}
		}
		return err
	}

	audit.Log(audit.AccessEvent{
		Username:   username(ctx),
		ClientIP:   clientIP(ctx),
		Collection: collectionName,
		RecordID:   recordID,
		Operation:  "update",
		Success:    true,
	})

	return nil
}

// DeleteRecord removes a record and its child records.
func (v *Vault) DeleteRecord(ctx context.Context, collectionName, recordID string) error {
	if err := v.ValidateAction(ctx, policy.ActionWrite, RecordResource(collectionName, recordID)); err != nil {
		return err
	}

	collection, err := v.getCollection(collectionName)
	if err != nil {
		return err
	}

	if err := v.Records.DeleteRecord(collection.ID, recordID, v.PurgeTokensOnDelete); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return &NotFoundError{Kind: "record", ID: recordID}
		}
		return err
	}

	audit.Log(audit.AccessEvent{
		Username:   username(ctx),
		ClientIP:   clientIP(ctx),
		Collection: collectionName,
		RecordID:   recordID,
		Operation:  "delete",
		Success:    true,
	})

	return nil
}

// SearchRecords finds the IDs of records whose indexed field equals a
// value. Only indexed fields are searchable.
func (v *Vault) SearchRecords(ctx context.Context, collectionName, field, value string) ([]string, error) {
	if err := v.ValidateAction(ctx, policy.ActionRead, RecordsResource(collectionName)); err != nil {
		return nil, err
	}

	collection, err := v.getCollection(collectionName)
	if err != nil {
		return nil, err
	}
	schema, err := collection.ParseSchema()
	if err != nil {
		return nil, err
	}

	fieldSchema, ok := schema[field]
	if !ok {
		return nil, &ValueError{Msg: fmt.Sprintf("field %q is not in the schema of collection %q", field, collectionName)}
	}
	if !fieldSchema.IsIndexed {
		return nil, &ValueError{Msg: fmt.Sprintf("field %q is not indexed", field)}
	}

	canonical, err := ptype.Canonical(ptype.TypeName(fieldSchema.Type), value)
	if err != nil {
		return nil, &ValueError{Msg: fmt.Sprintf("invalid value for field %q", field)}
	}

	records, err := v.Records.SearchRecords(collection.ID, field, v.Indexer.Digest(collection.ID, field, canonical))
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(records))
	for _, record := range records {
		ids = append(ids, record.ID)
	}
	return ids, nil
}
