package endpoints

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubjectsEndpoints(t *testing.T) {
	srv := newTestServer(t)
	token := adminToken(t, srv)
	createPeopleCollection(t, srv, token)

	t.Run("create and get", func(t *testing.T) {
		response := doJSON(t, srv, "POST", "/subjects", token, map[string]string{"eid": "ada@corp"})
		require.Equal(t, http.StatusCreated, response.StatusCode)

		response = doJSON(t, srv, "GET", "/subjects/ada@corp", token, nil)
		require.Equal(t, http.StatusOK, response.StatusCode)
		var body map[string]string
		decodeBody(t, response, &body)
		assert.Equal(t, "ada@corp", body["eid"])
		assert.NotEmpty(t, body["id"])
	})

	t.Run("duplicate eid conflicts", func(t *testing.T) {
		response := doJSON(t, srv, "POST", "/subjects", token, map[string]string{"eid": "ada@corp"})
		assert.Equal(t, http.StatusConflict, response.StatusCode)
	})

	t.Run("list", func(t *testing.T) {
		response := doJSON(t, srv, "GET", "/subjects", token, nil)
		require.Equal(t, http.StatusOK, response.StatusCode)
		var body map[string][]string
		decodeBody(t, response, &body)
		assert.Contains(t, body["subjects"], "ada@corp")
	})

	t.Run("erase cascades through pinned records", func(t *testing.T) {
		root := createRecord(t, srv, token, map[string]string{
			"subject_id": "ada@corp",
			"email":      "ada@example.com",
		})
		child := createRecord(t, srv, token, map[string]string{
			"parent_record_id": root,
			"notes":            "next of kin",
		})
		bystander := createRecord(t, srv, token, map[string]string{
			"email": "grace@example.com",
		})

		response := doJSON(t, srv, "DELETE", "/subjects/ada@corp", token, nil)
		require.Equal(t, http.StatusNoContent, response.StatusCode)

		for _, id := range []string{root, child} {
			response := doJSON(t, srv, "GET", "/collections/people/records/"+id, token, nil)
			assert.Equal(t, http.StatusNotFound, response.StatusCode)
		}
		response = doJSON(t, srv, "GET", "/collections/people/records/"+bystander, token, nil)
		assert.Equal(t, http.StatusOK, response.StatusCode)

		response = doJSON(t, srv, "GET", "/subjects/ada@corp", token, nil)
		assert.Equal(t, http.StatusNotFound, response.StatusCode)
	})

	t.Run("erase unknown subject", func(t *testing.T) {
		response := doJSON(t, srv, "DELETE", "/subjects/nobody@corp", token, nil)
		assert.Equal(t, http.StatusNotFound, response.StatusCode)
	})
}
