package vault

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/piivault/pkg/identity"
	"github.com/doodlesbykumbi/piivault/pkg/model"
	"github.com/doodlesbykumbi/piivault/pkg/policy"
	"github.com/doodlesbykumbi/piivault/pkg/seal"
)

func newTestVault(t *testing.T) (*Vault, *fakeStore) {
	t.Helper()
	f := newFakeStore()
	indexer, err := seal.NewIndexer(bytes.Repeat([]byte{7}, 32))
	require.NoError(t, err)
	return New(f, f, f, f, f, f, indexer), f
}

func ctxAs(principalID, username string) context.Context {
	now := time.Now()
	return identity.Set(context.Background(), identity.New(principalID, username, now, now.Add(time.Hour)))
}

// grant attaches a fresh policy to a principal directly in the store.
func grant(f *fakeStore, principalID, effect string, actions, resources []string) {
	row := &model.Policy{
		ID:        model.NewPolicyID(),
		Effect:    effect,
		Actions:   actions,
		Resources: resources,
	}
	f.policies[row.ID] = row
	f.attachments[principalID] = append(f.attachments[principalID], row.ID)
}

// adminCtx returns a context for a principal allowed to do everything.
func adminCtx(f *fakeStore) context.Context {
	grant(f, "prn_admin", "allow", []string{"read", "write"}, []string{"*"})
	return ctxAs("prn_admin", "admin")
}

func peopleSchema() model.CollectionSchema {
	return model.CollectionSchema{
		"full_name": {Type: "name"},
		"email":     {Type: "email", IsIndexed: true},
		"notes":     {Type: "string"},
	}
}

func mustCreateRecord(t *testing.T, v *Vault, ctx context.Context, collection string, payload map[string]string) string {
	t.Helper()
	id, err := v.CreateRecord(ctx, collection, payload)
	require.NoError(t, err)
	return id
}

func TestParseSelector(t *testing.T) {
	selector, err := ParseSelector("email.plain")
	require.NoError(t, err)
	assert.Equal(t, Selector{Field: "email", Format: "plain"}, selector)

	selector, err = ParseSelector("email:masked")
	require.NoError(t, err)
	assert.Equal(t, Selector{Field: "email", Format: "masked"}, selector)

	for _, raw := range []string{"email", ".plain", "email.", "email.hex", ""} {
		_, err := ParseSelector(raw)
		assert.Error(t, err, "selector %q", raw)
	}
}

func TestValidateActionUnauthenticated(t *testing.T) {
	v, _ := newTestVault(t)

	err := v.ValidateAction(context.Background(), policy.ActionRead, "/collections")

	var notAuthenticated *NotAuthenticatedError
	assert.ErrorAs(t, err, &notAuthenticated)
}

func TestValidateActionDefaultDeny(t *testing.T) {
	v, _ := newTestVault(t)

	err := v.ValidateAction(ctxAs("prn_nobody", "nobody"), policy.ActionRead, "/collections")

	var forbidden *ForbiddenError
	require.ErrorAs(t, err, &forbidden)
	assert.Equal(t, "read", forbidden.Action)
	assert.Equal(t, "/collections", forbidden.Resource)
}

func TestValidateActionDenyOverridesAllow(t *testing.T) {
	v, f := newTestVault(t)
	grant(f, "prn_a", "allow", []string{"read", "write"}, []string{"*"})
	grant(f, "prn_a", "deny", []string{"write"}, []string{"/collections/people/*"})
	ctx := ctxAs("prn_a", "a")

	assert.NoError(t, v.ValidateAction(ctx, policy.ActionRead, "/collections/people/records"))
	assert.NoError(t, v.ValidateAction(ctx, policy.ActionWrite, "/collections/pets/records"))

	err := v.ValidateAction(ctx, policy.ActionWrite, "/collections/people/records")
	var forbidden *ForbiddenError
	assert.ErrorAs(t, err, &forbidden)
}

func TestCreateCollection(t *testing.T) {
	v, f := newTestVault(t)
	ctx := adminCtx(f)

	collection, err := v.CreateCollection(ctx, "people", "", peopleSchema())
	require.NoError(t, err)
	assert.NotEmpty(t, collection.ID)

	schema, err := collection.ParseSchema()
	require.NoError(t, err)
	assert.True(t, schema["email"].IsIndexed)

	_, err = v.CreateCollection(ctx, "people", "", peopleSchema())
	var conflict *ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestCreateCollectionValidation(t *testing.T) {
	v, f := newTestVault(t)
	ctx := adminCtx(f)

	testCases := []struct {
		description string
		name        string
		schema      model.CollectionSchema
	}{
		{"empty name", "", peopleSchema()},
		{"name with slash", "a/b", peopleSchema()},
		{"empty schema", "people", model.CollectionSchema{}},
		{"bad field name", "people", model.CollectionSchema{"a b": {Type: "string"}}},
		{"reserved subject field", "people", model.CollectionSchema{"subject_id": {Type: "string"}}},
		{"reserved parent field", "people", model.CollectionSchema{"parent_record_id": {Type: "string"}}},
		{"unknown type", "people", model.CollectionSchema{"email": {Type: "emale"}}},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			_, err := v.CreateCollection(ctx, tc.name, "", tc.schema)
			var valueErr *ValueError
			assert.ErrorAs(t, err, &valueErr)
		})
	}
}

func TestListCollectionsFiltersUnreadable(t *testing.T) {
	v, f := newTestVault(t)
	admin := adminCtx(f)
	_, err := v.CreateCollection(admin, "people", "", peopleSchema())
	require.NoError(t, err)
	_, err = v.CreateCollection(admin, "pets", "", peopleSchema())
	require.NoError(t, err)

	grant(f, "prn_vet", "allow", []string{"read"}, []string{"/collections", "/collections/pets"})
	names, err := v.ListCollections(ctxAs("prn_vet", "vet"))
	require.NoError(t, err)
	assert.Equal(t, []string{"pets"}, names)
}

func TestCreateRecord(t *testing.T) {
	v, f := newTestVault(t)
	ctx := adminCtx(f)
	_, err := v.CreateCollection(ctx, "people", "", peopleSchema())
	require.NoError(t, err)

	id := mustCreateRecord(t, v, ctx, "people", map[string]string{
		"full_name": "Ada Lovelace",
		"email":     "ada@example.com",
	})
	assert.NotEmpty(t, id)

	_, err = v.CreateRecord(ctx, "people", map[string]string{"shoe_size": "42"})
	var valueErr *ValueError
	assert.ErrorAs(t, err, &valueErr, "unknown field")

	_, err = v.CreateRecord(ctx, "people", map[string]string{"email": "not an email"})
	assert.ErrorAs(t, err, &valueErr, "invalid value")

	_, err = v.CreateRecord(ctx, "missing", map[string]string{"email": "ada@example.com"})
	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound, "unknown collection")
}

func TestCreateRecordDuplicateIndexedValue(t *testing.T) {
	v, f := newTestVault(t)
	ctx := adminCtx(f)
	_, err := v.CreateCollection(ctx, "people", "", peopleSchema())
	require.NoError(t, err)

	mustCreateRecord(t, v, ctx, "people", map[string]string{"email": "ada@example.com"})

	_, err = v.CreateRecord(ctx, "people", map[string]string{"email": "ada@example.com"})
	var conflict *ConflictError
	assert.ErrorAs(t, err, &conflict)

	// the same value in another collection is not a conflict
	_, err = v.CreateCollection(ctx, "staff", "", peopleSchema())
	require.NoError(t, err)
	mustCreateRecord(t, v, ctx, "staff", map[string]string{"email": "ada@example.com"})
}

func TestCreateRecordReservedFields(t *testing.T) {
	v, f := newTestVault(t)
	ctx := adminCtx(f)
	_, err := v.CreateCollection(ctx, "people", "", peopleSchema())
	require.NoError(t, err)

	subject, err := v.CreateSubject(ctx, "ada@corp")
	require.NoError(t, err)

	parentID := mustCreateRecord(t, v, ctx, "people", map[string]string{
		"subject_id": "ada@corp",
		"email":      "ada@example.com",
	})
	record, err := v.Records.GetRecord(f.collections["people"].ID, parentID)
	require.NoError(t, err)
	require.NotNil(t, record.SubjectID)
	assert.Equal(t, subject.ID, *record.SubjectID)

	childID := mustCreateRecord(t, v, ctx, "people", map[string]string{
		"parent_record_id": parentID,
		"notes":            "next of kin",
	})
	child, err := v.Records.GetRecord(f.collections["people"].ID, childID)
	require.NoError(t, err)
	require.NotNil(t, child.ParentRecordID)
	assert.Equal(t, parentID, *child.ParentRecordID)

	var notFound *NotFoundError
	_, err = v.CreateRecord(ctx, "people", map[string]string{"subject_id": "nobody@corp"})
	assert.ErrorAs(t, err, &notFound, "unknown subject")

	_, err = v.CreateRecord(ctx, "people", map[string]string{"parent_record_id": "rec_missing"})
	assert.ErrorAs(t, err, &notFound, "unknown parent")
}

func TestGetRecordDefaultsToMasked(t *testing.T) {
	v, f := newTestVault(t)
	ctx := adminCtx(f)
	_, err := v.CreateCollection(ctx, "people", "", peopleSchema())
	require.NoError(t, err)

	id := mustCreateRecord(t, v, ctx, "people", map[string]string{
		"full_name": "Ada Lovelace",
		"email":     "ada@example.com",
		"notes":     "likes punched cards",
	})

	rendered, err := v.GetRecord(ctx, "people", id, nil)
	require.NoError(t, err)
	assert.Len(t, rendered, len(peopleSchema()))
	assert.Equal(t, "*** ********", rendered["full_name.masked"])
	assert.NotContains(t, rendered["email.masked"], "ada@example.com")

	// unset schema fields are omitted from default reads
	partial := mustCreateRecord(t, v, ctx, "people", map[string]string{"email": "grace@example.com"})
	rendered, err = v.GetRecord(ctx, "people", partial, nil)
	require.NoError(t, err)
	assert.Len(t, rendered, 1)
	assert.Contains(t, rendered, "email.masked")
}

func TestGetRecordSelectors(t *testing.T) {
	v, f := newTestVault(t)
	ctx := adminCtx(f)
	_, err := v.CreateCollection(ctx, "people", "", peopleSchema())
	require.NoError(t, err)

	id := mustCreateRecord(t, v, ctx, "people", map[string]string{
		"full_name": "Ada Lovelace",
		"email":     "ada@example.com",
	})

	rendered, err := v.GetRecord(ctx, "people", id, []string{"email.plain", "full_name.masked"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"email.plain":      "ada@example.com",
		"full_name.masked": "*** ********",
	}, rendered)

	_, err = v.GetRecord(ctx, "people", id, []string{"shoe_size.plain"})
	var valueErr *ValueError
	assert.ErrorAs(t, err, &valueErr, "unknown selector field")

	_, err = v.GetRecord(ctx, "people", id, []string{"notes.plain"})
	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound, "field absent from the record")
}

func TestGetRecordAllOrNothing(t *testing.T) {
	v, f := newTestVault(t)
	admin := adminCtx(f)
	_, err := v.CreateCollection(admin, "people", "", peopleSchema())
	require.NoError(t, err)
	id := mustCreateRecord(t, v, admin, "people", map[string]string{
		"full_name": "Ada Lovelace",
		"email":     "ada@example.com",
	})

	// analyst may only see masked renderings
	grant(f, "prn_analyst", "allow", []string{"read"}, []string{"/collections/people/records/*/*.masked"})
	ctx := ctxAs("prn_analyst", "analyst")

	rendered, err := v.GetRecord(ctx, "people", id, []string{"email.masked"})
	require.NoError(t, err)
	assert.Len(t, rendered, 1)

	// one plain selector poisons the whole read
	_, err = v.GetRecord(ctx, "people", id, []string{"email.masked", "full_name.plain"})
	var forbidden *ForbiddenError
	require.ErrorAs(t, err, &forbidden)
	assert.Equal(t, RenderedFieldResource("people", id, "full_name", "plain"), forbidden.Resource)
}

func TestUpdateRecord(t *testing.T) {
	v, f := newTestVault(t)
	ctx := adminCtx(f)
	_, err := v.CreateCollection(ctx, "people", "", peopleSchema())
	require.NoError(t, err)
	id := mustCreateRecord(t, v, ctx, "people", map[string]string{
		"full_name": "Ada Lovelace",
		"email":     "ada@example.com",
	})

	require.NoError(t, v.UpdateRecord(ctx, "people", id, map[string]string{"email": "countess@example.com"}))

	rendered, err := v.GetRecord(ctx, "people", id, []string{"email.plain", "full_name.plain"})
	require.NoError(t, err)
	assert.Equal(t, "countess@example.com", rendered["email.plain"])
	assert.Equal(t, "Ada Lovelace", rendered["full_name.plain"], "unmentioned fields survive the merge")

	// index rows follow the new value
	ids, err := v.SearchRecords(ctx, "people", "email", "countess@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{id}, ids)
	ids, err = v.SearchRecords(ctx, "people", "email", "ada@example.com")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestUpdateRecordValidation(t *testing.T) {
	v, f := newTestVault(t)
	ctx := adminCtx(f)
	_, err := v.CreateCollection(ctx, "people", "", peopleSchema())
	require.NoError(t, err)
	id := mustCreateRecord(t, v, ctx, "people", map[string]string{"email": "ada@example.com"})
	other := mustCreateRecord(t, v, ctx, "people", map[string]string{"email": "grace@example.com"})

	var valueErr *ValueError
	assert.ErrorAs(t, v.UpdateRecord(ctx, "people", id, nil), &valueErr, "empty payload")
	assert.ErrorAs(t, v.UpdateRecord(ctx, "people", id, map[string]string{"subject_id": "x"}), &valueErr, "reserved field")
	assert.ErrorAs(t, v.UpdateRecord(ctx, "people", id, map[string]string{"shoe_size": "42"}), &valueErr, "unknown field")

	var conflict *ConflictError
	err = v.UpdateRecord(ctx, "people", other, map[string]string{"email": "ada@example.com"})
	assert.ErrorAs(t, err, &conflict, "stealing an indexed value")
}

// contendedRecordsStore lets another writer commit between an update's
// authorization and its row read, the window a concurrent transaction
// gets in the database-backed store.
type contendedRecordsStore struct {
	*fakeStore
	before func()
}

func (s *contendedRecordsStore) UpdateRecord(collectionID, recordID string, mutate func(record *model.Record) ([]model.RecordIndex, error)) error {
	if s.before != nil {
		interleave := s.before
		s.before = nil
		interleave()
	}
	return s.fakeStore.UpdateRecord(collectionID, recordID, mutate)
}

func TestUpdateRecordKeepsConcurrentWrites(t *testing.T) {
	f := newFakeStore()
	indexer, err := seal.NewIndexer(bytes.Repeat([]byte{7}, 32))
	require.NoError(t, err)
	contended := &contendedRecordsStore{fakeStore: f}
	v := New(f, contended, f, f, f, f, indexer)
	ctx := adminCtx(f)

	_, err = v.CreateCollection(ctx, "people", "", peopleSchema())
	require.NoError(t, err)
	id := mustCreateRecord(t, v, ctx, "people", map[string]string{
		"full_name": "Jo Original",
		"notes":     "old-notes",
	})

	// the first writer's update commits while the second is in flight
	contended.before = func() {
		first := New(f, f, f, f, f, f, indexer)
		require.NoError(t, first.UpdateRecord(ctx, "people", id, map[string]string{"full_name": "Jo Updated"}))
	}
	require.NoError(t, v.UpdateRecord(ctx, "people", id, map[string]string{"notes": "new-notes"}))

	rendered, err := v.GetRecord(ctx, "people", id, []string{"full_name.plain", "notes.plain"})
	require.NoError(t, err)
	assert.Equal(t, "Jo Updated", rendered["full_name.plain"], "the first writer's field survives")
	assert.Equal(t, "new-notes", rendered["notes.plain"])
}

func TestGetRecordAuthorizesBeforeSchemaLookup(t *testing.T) {
	v, f := newTestVault(t)
	admin := adminCtx(f)
	_, err := v.CreateCollection(admin, "people", "", peopleSchema())
	require.NoError(t, err)
	id := mustCreateRecord(t, v, admin, "people", map[string]string{"email": "ada@example.com"})

	// a caller with no grants gets the same answer whether the collection,
	// the record or the field exists
	stranger := ctxAs("prn_stranger", "stranger")
	var forbidden *ForbiddenError

	_, err = v.GetRecord(stranger, "people", id, []string{"email.plain"})
	require.ErrorAs(t, err, &forbidden)
	_, err = v.GetRecord(stranger, "ghosts", id, []string{"email.plain"})
	require.ErrorAs(t, err, &forbidden)
	_, err = v.GetRecord(stranger, "people", id, []string{"shoe_size.plain"})
	require.ErrorAs(t, err, &forbidden)

	_, err = v.GetRecord(stranger, "people", id, nil)
	require.ErrorAs(t, err, &forbidden, "defaulted reads are gated the same way")
}

func TestDeleteRecordCascades(t *testing.T) {
	v, f := newTestVault(t)
	ctx := adminCtx(f)
	_, err := v.CreateCollection(ctx, "people", "", peopleSchema())
	require.NoError(t, err)

	parent := mustCreateRecord(t, v, ctx, "people", map[string]string{"email": "ada@example.com"})
	child := mustCreateRecord(t, v, ctx, "people", map[string]string{"parent_record_id": parent})
	grandchild := mustCreateRecord(t, v, ctx, "people", map[string]string{"parent_record_id": child})

	require.NoError(t, v.DeleteRecord(ctx, "people", parent))

	for _, id := range []string{parent, child, grandchild} {
		_, err := v.GetRecord(ctx, "people", id, []string{"notes.masked"})
		var notFound *NotFoundError
		assert.ErrorAs(t, err, &notFound, "record %s", id)
	}

	// the freed index slot can be reused
	mustCreateRecord(t, v, ctx, "people", map[string]string{"email": "ada@example.com"})
}

func TestSearchRecords(t *testing.T) {
	v, f := newTestVault(t)
	ctx := adminCtx(f)
	_, err := v.CreateCollection(ctx, "people", "", peopleSchema())
	require.NoError(t, err)
	id := mustCreateRecord(t, v, ctx, "people", map[string]string{
		"email": "ada@example.com",
		"notes": "likes punched cards",
	})

	ids, err := v.SearchRecords(ctx, "people", "email", "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{id}, ids)

	ids, err = v.SearchRecords(ctx, "people", "email", "nobody@example.com")
	require.NoError(t, err)
	assert.Empty(t, ids)

	var valueErr *ValueError
	_, err = v.SearchRecords(ctx, "people", "notes", "likes punched cards")
	assert.ErrorAs(t, err, &valueErr, "unindexed field")
	_, err = v.SearchRecords(ctx, "people", "shoe_size", "42")
	assert.ErrorAs(t, err, &valueErr, "unknown field")
}

func TestEraseSubject(t *testing.T) {
	v, f := newTestVault(t)
	ctx := adminCtx(f)
	_, err := v.CreateCollection(ctx, "people", "", peopleSchema())
	require.NoError(t, err)
	_, err = v.CreateSubject(ctx, "ada@corp")
	require.NoError(t, err)

	root := mustCreateRecord(t, v, ctx, "people", map[string]string{
		"subject_id": "ada@corp",
		"email":      "ada@example.com",
	})
	child := mustCreateRecord(t, v, ctx, "people", map[string]string{"parent_record_id": root})
	bystander := mustCreateRecord(t, v, ctx, "people", map[string]string{"email": "grace@example.com"})

	token, err := v.Tokenize(ctx, "people", root, "email", "plain")
	require.NoError(t, err)

	require.NoError(t, v.EraseSubject(ctx, "ada@corp"))

	_, err = v.GetSubject(ctx, "ada@corp")
	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)

	for _, id := range []string{root, child} {
		_, err := v.GetRecord(ctx, "people", id, []string{"notes.masked"})
		assert.ErrorAs(t, err, &notFound, "record %s", id)
	}
	_, err = v.GetRecord(ctx, "people", bystander, []string{"email.masked"})
	assert.NoError(t, err, "unpinned records survive")

	// tokens outlive the erasure unless purging is switched on
	value, err := v.Detokenize(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", value)
}

func TestEraseSubjectPurgesTokens(t *testing.T) {
	v, f := newTestVault(t)
	ctx := adminCtx(f)
	v.PurgeTokensOnDelete = true
	_, err := v.CreateCollection(ctx, "people", "", peopleSchema())
	require.NoError(t, err)
	_, err = v.CreateSubject(ctx, "ada@corp")
	require.NoError(t, err)

	root := mustCreateRecord(t, v, ctx, "people", map[string]string{
		"subject_id": "ada@corp",
		"email":      "ada@example.com",
	})
	token, err := v.Tokenize(ctx, "people", root, "email", "plain")
	require.NoError(t, err)

	require.NoError(t, v.EraseSubject(ctx, "ada@corp"))

	_, err = v.Detokenize(ctx, token)
	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestCreateSubjectValidation(t *testing.T) {
	v, f := newTestVault(t)
	ctx := adminCtx(f)

	_, err := v.CreateSubject(ctx, "ada@corp")
	require.NoError(t, err)

	_, err = v.CreateSubject(ctx, "ada@corp")
	var conflict *ConflictError
	assert.ErrorAs(t, err, &conflict)

	_, err = v.CreateSubject(ctx, "bad subject id")
	var valueErr *ValueError
	assert.ErrorAs(t, err, &valueErr)
}

func TestTokenizeDetokenize(t *testing.T) {
	v, f := newTestVault(t)
	ctx := adminCtx(f)
	_, err := v.CreateCollection(ctx, "people", "", peopleSchema())
	require.NoError(t, err)
	id := mustCreateRecord(t, v, ctx, "people", map[string]string{"email": "ada@example.com"})

	token, err := v.Tokenize(ctx, "people", id, "email", "plain")
	require.NoError(t, err)

	value, err := v.Detokenize(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", value)

	// the token snapshots the value at issue time
	require.NoError(t, v.UpdateRecord(ctx, "people", id, map[string]string{"email": "countess@example.com"}))
	value, err = v.Detokenize(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", value)

	require.NoError(t, v.DeleteToken(ctx, token))
	_, err = v.Detokenize(ctx, token)
	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)

	_, err = v.Tokenize(ctx, "people", id, "notes", "plain")
	assert.ErrorAs(t, err, &notFound, "field absent from the record")
	var valueErr *ValueError
	_, err = v.Tokenize(ctx, "people", id, "shoe_size", "plain")
	assert.ErrorAs(t, err, &valueErr, "field outside the schema")
}

func TestTokenizeAuthorizesRequestedRendering(t *testing.T) {
	v, f := newTestVault(t)
	admin := adminCtx(f)
	_, err := v.CreateCollection(admin, "people", "", peopleSchema())
	require.NoError(t, err)
	id := mustCreateRecord(t, v, admin, "people", map[string]string{"email": "ada@example.com"})

	// a masked-only grant tokenizes masked renderings but never plain ones
	grant(f, "prn_analyst", "allow", []string{"read"}, []string{"/collections/people/records/*/*.masked", "/tokens/*"})
	ctx := ctxAs("prn_analyst", "analyst")

	_, err = v.Tokenize(ctx, "people", id, "email", "plain")
	var forbidden *ForbiddenError
	require.ErrorAs(t, err, &forbidden)
	assert.Equal(t, RenderedFieldResource("people", id, "email", "plain"), forbidden.Resource)

	token, err := v.Tokenize(ctx, "people", id, "email", "masked")
	require.NoError(t, err)

	// the snapshot holds the masked rendering, not the plain value
	value, err := v.Detokenize(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "***@example.com", value)
}

func TestTokenizeRejectsUnknownFormat(t *testing.T) {
	v, f := newTestVault(t)
	ctx := adminCtx(f)
	_, err := v.CreateCollection(ctx, "people", "", peopleSchema())
	require.NoError(t, err)
	id := mustCreateRecord(t, v, ctx, "people", map[string]string{"email": "ada@example.com"})

	var valueErr *ValueError
	_, err = v.Tokenize(ctx, "people", id, "email", "hex")
	assert.ErrorAs(t, err, &valueErr)
}

func TestDetokenizeRequiresTokenRead(t *testing.T) {
	v, f := newTestVault(t)
	admin := adminCtx(f)
	_, err := v.CreateCollection(admin, "people", "", peopleSchema())
	require.NoError(t, err)
	id := mustCreateRecord(t, v, admin, "people", map[string]string{"email": "ada@example.com"})
	token, err := v.Tokenize(admin, "people", id, "email", "plain")
	require.NoError(t, err)

	// plain read on the field does not imply read on the token
	grant(f, "prn_app", "allow", []string{"read"}, []string{"/collections/people/*"})
	_, err = v.Detokenize(ctxAs("prn_app", "app"), token)
	var forbidden *ForbiddenError
	assert.ErrorAs(t, err, &forbidden)

	grant(f, "prn_app", "allow", []string{"read"}, []string{TokenResource(token)})
	value, err := v.Detokenize(ctxAs("prn_app", "app"), token)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", value)
}

func TestCreatePolicyValidation(t *testing.T) {
	v, f := newTestVault(t)
	ctx := adminCtx(f)

	var valueErr *ValueError
	_, err := v.CreatePolicy(ctx, &policy.Policy{Effect: policy.EffectAllow, Resources: []string{"*"}})
	assert.ErrorAs(t, err, &valueErr, "no actions")
	_, err = v.CreatePolicy(ctx, &policy.Policy{Effect: policy.EffectAllow, Actions: []policy.Action{policy.ActionRead}})
	assert.ErrorAs(t, err, &valueErr, "no resources")
	_, err = v.CreatePolicy(ctx, &policy.Policy{
		Effect:    policy.EffectAllow,
		Actions:   []policy.Action{policy.ActionRead},
		Resources: []string{"collections"},
	})
	assert.ErrorAs(t, err, &valueErr, "pattern without a leading slash")

	created, err := v.CreatePolicy(ctx, &policy.Policy{
		Effect:    policy.EffectAllow,
		Actions:   []policy.Action{policy.ActionRead},
		Resources: []string{"/collections/people/records/*/*.masked"},
	})
	require.NoError(t, err)

	rule, err := v.GetPolicy(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, policy.EffectAllow, rule.Effect)
}

func TestPrincipalLifecycleAndLogin(t *testing.T) {
	v, f := newTestVault(t)
	ctx := adminCtx(f)

	rule, err := v.CreatePolicy(ctx, &policy.Policy{
		Effect:    policy.EffectAllow,
		Actions:   []policy.Action{policy.ActionRead},
		Resources: []string{"/collections/*"},
	})
	require.NoError(t, err)

	principal, err := v.CreatePrincipal(ctx, "svc-billing", "s3cret-pass", "billing service", []string{rule.ID})
	require.NoError(t, err)
	assert.NotEmpty(t, principal.ID)

	var valueErr *ValueError
	_, err = v.CreatePrincipal(ctx, "svc-other", "short", "", nil)
	assert.ErrorAs(t, err, &valueErr, "password too short")

	var conflict *ConflictError
	_, err = v.CreatePrincipal(ctx, "svc-billing", "s3cret-pass", "", nil)
	assert.ErrorAs(t, err, &conflict)

	var notFound *NotFoundError
	_, err = v.CreatePrincipal(ctx, "svc-x", "s3cret-pass", "", []string{"pol_missing"})
	assert.ErrorAs(t, err, &notFound, "attachment to a missing policy")

	loggedIn, err := v.Login(context.Background(), "svc-billing", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, principal.ID, loggedIn.ID)

	var notAuthenticated *NotAuthenticatedError
	_, err = v.Login(context.Background(), "svc-billing", "wrong-pass")
	assert.ErrorAs(t, err, &notAuthenticated)
	_, err = v.Login(context.Background(), "svc-nobody", "s3cret-pass")
	assert.ErrorAs(t, err, &notAuthenticated, "unknown user looks like a bad password")

	require.NoError(t, v.DeletePrincipal(ctx, "svc-billing"))
	assert.True(t, errors.As(v.DeletePrincipal(ctx, "svc-billing"), &notFound))
}

func TestBootstrap(t *testing.T) {
	v, _ := newTestVault(t)

	require.NoError(t, v.Bootstrap("admin", "changeme-now"))

	admin, err := v.Login(context.Background(), "admin", "changeme-now")
	require.NoError(t, err)

	ctx := ctxAs(admin.ID, admin.Username)
	_, err = v.CreateCollection(ctx, "people", "", peopleSchema())
	require.NoError(t, err, "bootstrap admin can do everything")

	// bootstrap is idempotent and keeps the original credentials
	require.NoError(t, v.Bootstrap("admin", "another-pass"))
	_, err = v.Login(context.Background(), "admin", "changeme-now")
	assert.NoError(t, err)
}
