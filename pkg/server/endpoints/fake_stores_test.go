package endpoints

import (
	"strings"

	"github.com/doodlesbykumbi/piivault/pkg/model"
	"github.com/doodlesbykumbi/piivault/pkg/server/store"
)

// fakeStore backs endpoint tests with an in-memory implementation of every
// store interface, honouring the same error contracts as the real stores.
type fakeStore struct {
	collections map[string]*model.Collection
	records     map[string]*model.Record
	indexes     map[string]model.RecordIndex
	subjects    map[string]*model.Subject
	policies    map[string]*model.Policy
	attachments map[string][]string
	principals  map[string]*model.Principal
	tokens      map[string]*model.Token
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		collections: map[string]*model.Collection{},
		records:     map[string]*model.Record{},
		indexes:     map[string]model.RecordIndex{},
		subjects:    map[string]*model.Subject{},
		policies:    map[string]*model.Policy{},
		attachments: map[string][]string{},
		principals:  map[string]*model.Principal{},
		tokens:      map[string]*model.Token{},
	}
}

var _ store.CollectionsStore = (*fakeStore)(nil)
var _ store.RecordsStore = (*fakeStore)(nil)
var _ store.SubjectsStore = (*fakeStore)(nil)
var _ store.PoliciesStore = (*fakeStore)(nil)
var _ store.PrincipalsStore = (*fakeStore)(nil)
var _ store.TokensStore = (*fakeStore)(nil)
var _ store.HealthStore = (*fakeStore)(nil)

func (f *fakeStore) CheckConnectivity() error { return nil }

func (f *fakeStore) CreateCollection(collection *model.Collection) error {
	if _, ok := f.collections[collection.Name]; ok {
		return store.ErrCollectionExists
	}
	f.collections[collection.Name] = collection
	return nil
}

func (f *fakeStore) GetCollection(name string) (*model.Collection, error) {
	collection, ok := f.collections[name]
	if !ok {
		return nil, store.ErrCollectionNotFound
	}
	return collection, nil
}

func (f *fakeStore) ListCollections() ([]*model.Collection, error) {
	out := make([]*model.Collection, 0, len(f.collections))
	for _, collection := range f.collections {
		out = append(out, collection)
	}
	return out, nil
}

func (f *fakeStore) DeleteCollection(name string) error {
	collection, ok := f.collections[name]
	if !ok {
		return store.ErrCollectionNotFound
	}
	for id, record := range f.records {
		if record.CollectionID == collection.ID {
			delete(f.records, id)
		}
	}
	delete(f.collections, name)
	return nil
}

func fakeIndexKey(index model.RecordIndex) string {
	return strings.Join([]string{index.CollectionID, index.Field, index.Digest}, "\x00")
}

func (f *fakeStore) putIndexes(record *model.Record, indexes []model.RecordIndex) error {
	for _, index := range indexes {
		if existing, ok := f.indexes[fakeIndexKey(index)]; ok && existing.RecordID != record.ID {
			return store.ErrDuplicateValue
		}
	}
	for key, index := range f.indexes {
		if index.RecordID == record.ID {
			delete(f.indexes, key)
		}
	}
	for _, index := range indexes {
		f.indexes[fakeIndexKey(index)] = index
	}
	return nil
}

func (f *fakeStore) CreateRecord(record *model.Record, indexes []model.RecordIndex) error {
	if err := f.putIndexes(record, indexes); err != nil {
		return err
	}
	f.records[record.ID] = record
	return nil
}

func (f *fakeStore) GetRecord(collectionID, recordID string) (*model.Record, error) {
	record, ok := f.records[recordID]
	if !ok || record.CollectionID != collectionID {
		return nil, store.ErrRecordNotFound
	}
	return record, nil
}

func (f *fakeStore) ListRecords(collectionID string) ([]*model.Record, error) {
	var out []*model.Record
	for _, record := range f.records {
		if record.CollectionID == collectionID {
			out = append(out, record)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateRecord(collectionID, recordID string, mutate func(record *model.Record) ([]model.RecordIndex, error)) error {
	current, ok := f.records[recordID]
	if !ok || current.CollectionID != collectionID {
		return store.ErrRecordNotFound
	}
	updated := *current
	indexes, err := mutate(&updated)
	if err != nil {
		return err
	}
	if err := f.putIndexes(&updated, indexes); err != nil {
		return err
	}
	f.records[recordID] = &updated
	return nil
}

func (f *fakeStore) descendants(roots []string) []string {
	all := append([]string{}, roots...)
	frontier := roots
	for len(frontier) > 0 {
		var next []string
		for _, record := range f.records {
			if record.ParentRecordID == nil {
				continue
			}
			for _, parent := range frontier {
				if *record.ParentRecordID == parent {
					next = append(next, record.ID)
				}
			}
		}
		all = append(all, next...)
		frontier = next
	}
	return all
}

func (f *fakeStore) deleteRecords(ids []string, purgeTokens bool) (records, tokens int) {
	for _, id := range ids {
		if _, ok := f.records[id]; !ok {
			continue
		}
		delete(f.records, id)
		records++
		for key, index := range f.indexes {
			if index.RecordID == id {
				delete(f.indexes, key)
			}
		}
		if purgeTokens {
			for tokenID, token := range f.tokens {
				if token.RecordID == id {
					delete(f.tokens, tokenID)
					tokens++
				}
			}
		}
	}
	return records, tokens
}

func (f *fakeStore) DeleteRecord(collectionID, recordID string, purgeTokens bool) error {
	record, ok := f.records[recordID]
	if !ok || record.CollectionID != collectionID {
		return store.ErrRecordNotFound
	}
	f.deleteRecords(f.descendants([]string{recordID}), purgeTokens)
	return nil
}

func (f *fakeStore) SearchRecords(collectionID, field, digest string) ([]*model.Record, error) {
	var out []*model.Record
	for _, index := range f.indexes {
		if index.CollectionID == collectionID && index.Field == field && index.Digest == digest {
			if record, ok := f.records[index.RecordID]; ok {
				out = append(out, record)
			}
		}
	}
	return out, nil
}

func (f *fakeStore) CreateSubject(subject *model.Subject) error {
	if _, ok := f.subjects[subject.EID]; ok {
		return store.ErrSubjectExists
	}
	f.subjects[subject.EID] = subject
	return nil
}

func (f *fakeStore) GetSubject(eid string) (*model.Subject, error) {
	subject, ok := f.subjects[eid]
	if !ok {
		return nil, store.ErrSubjectNotFound
	}
	return subject, nil
}

func (f *fakeStore) ListSubjects() ([]*model.Subject, error) {
	out := make([]*model.Subject, 0, len(f.subjects))
	for _, subject := range f.subjects {
		out = append(out, subject)
	}
	return out, nil
}

func (f *fakeStore) EraseSubject(eid string, purgeTokens bool) (*store.EraseResult, error) {
	subject, ok := f.subjects[eid]
	if !ok {
		return nil, store.ErrSubjectNotFound
	}
	var roots []string
	for _, record := range f.records {
		if record.SubjectID != nil && *record.SubjectID == subject.ID {
			roots = append(roots, record.ID)
		}
	}
	records, tokens := f.deleteRecords(f.descendants(roots), purgeTokens)
	delete(f.subjects, eid)
	return &store.EraseResult{RecordsDeleted: records, TokensPurged: tokens}, nil
}

func (f *fakeStore) CreatePolicy(policy *model.Policy) error {
	f.policies[policy.ID] = policy
	return nil
}

func (f *fakeStore) GetPolicy(id string) (*model.Policy, error) {
	policy, ok := f.policies[id]
	if !ok {
		return nil, store.ErrPolicyNotFound
	}
	return policy, nil
}

func (f *fakeStore) ListPolicies() ([]*model.Policy, error) {
	out := make([]*model.Policy, 0, len(f.policies))
	for _, policy := range f.policies {
		out = append(out, policy)
	}
	return out, nil
}

func (f *fakeStore) DeletePolicy(id string) error {
	if _, ok := f.policies[id]; !ok {
		return store.ErrPolicyNotFound
	}
	delete(f.policies, id)
	for principalID, policyIDs := range f.attachments {
		var kept []string
		for _, policyID := range policyIDs {
			if policyID != id {
				kept = append(kept, policyID)
			}
		}
		f.attachments[principalID] = kept
	}
	return nil
}

func (f *fakeStore) GetPoliciesForPrincipal(principalID string) ([]*model.Policy, error) {
	var out []*model.Policy
	for _, policyID := range f.attachments[principalID] {
		if policy, ok := f.policies[policyID]; ok {
			out = append(out, policy)
		}
	}
	return out, nil
}

func (f *fakeStore) CreatePrincipal(principal *model.Principal, policyIDs []string) error {
	if _, ok := f.principals[principal.Username]; ok {
		return store.ErrPrincipalExists
	}
	for _, policyID := range policyIDs {
		if _, ok := f.policies[policyID]; !ok {
			return store.ErrPolicyNotFound
		}
	}
	f.principals[principal.Username] = principal
	f.attachments[principal.ID] = append([]string{}, policyIDs...)
	return nil
}

func (f *fakeStore) GetPrincipal(username string) (*model.Principal, error) {
	principal, ok := f.principals[username]
	if !ok {
		return nil, store.ErrPrincipalNotFound
	}
	return principal, nil
}

func (f *fakeStore) GetPrincipalByID(id string) (*model.Principal, error) {
	for _, principal := range f.principals {
		if principal.ID == id {
			return principal, nil
		}
	}
	return nil, store.ErrPrincipalNotFound
}

func (f *fakeStore) DeletePrincipal(username string) error {
	principal, ok := f.principals[username]
	if !ok {
		return store.ErrPrincipalNotFound
	}
	delete(f.attachments, principal.ID)
	delete(f.principals, username)
	return nil
}

func (f *fakeStore) CreateTokenForRecord(collectionID, recordID string, capture func(record *model.Record) (*model.Token, error)) error {
	record, ok := f.records[recordID]
	if !ok || record.CollectionID != collectionID {
		return store.ErrRecordNotFound
	}
	token, err := capture(record)
	if err != nil {
		return err
	}
	f.tokens[token.ID] = token
	return nil
}

func (f *fakeStore) GetToken(id string) (*model.Token, error) {
	token, ok := f.tokens[id]
	if !ok {
		return nil, store.ErrTokenNotFound
	}
	return token, nil
}

func (f *fakeStore) DeleteToken(id string) error {
	if _, ok := f.tokens[id]; !ok {
		return store.ErrTokenNotFound
	}
	delete(f.tokens, id)
	return nil
}
