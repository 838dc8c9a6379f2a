package vault

import "fmt"

// Resource path constructors. Paths are hierarchical so policy patterns can
// grant access at any granularity, from a whole collection down to a single
// field rendering.

func CollectionsResource() string {
	return "/collections"
}

func CollectionResource(name string) string {
	return fmt.Sprintf("/collections/%s", name)
}

func RecordsResource(collection string) string {
	return fmt.Sprintf("/collections/%s/records", collection)
}

func RecordResource(collection, recordID string) string {
	return fmt.Sprintf("/collections/%s/records/%s", collection, recordID)
}

func FieldResource(collection, recordID, field string) string {
	return fmt.Sprintf("/collections/%s/records/%s/%s", collection, recordID, field)
}

func RenderedFieldResource(collection, recordID, field, format string) string {
	return fmt.Sprintf("/collections/%s/records/%s/%s.%s", collection, recordID, field, format)
}

func SubjectsResource() string {
	return "/subjects"
}

func SubjectResource(eid string) string {
	return fmt.Sprintf("/subjects/%s", eid)
}

func PoliciesResource() string {
	return "/policies"
}

func PolicyResource(id string) string {
	return fmt.Sprintf("/policies/%s", id)
}

func PrincipalsResource() string {
	return "/principals"
}

func PrincipalResource(username string) string {
	return fmt.Sprintf("/principals/%s", username)
}

func TokensResource() string {
	return "/tokens"
}

func TokenResource(id string) string {
	return fmt.Sprintf("/tokens/%s", id)
}
