package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cucumber/godog"
)

// StepsContext holds state shared between step definitions
type StepsContext struct {
	tc           *TestContext
	response     *http.Response
	responseBody []byte
	authToken    string
	recordIDs    map[string]string // collection name -> last created record
	policyIDs    map[string]string // scenario policy name -> server id
	fieldToken   string
}

// NewStepsContext creates a new steps context
func NewStepsContext(tc *TestContext) *StepsContext {
	return &StepsContext{
		tc:        tc,
		recordIDs: make(map[string]string),
		policyIDs: make(map[string]string),
	}
}

// RegisterSteps registers all step definitions
func (s *StepsContext) RegisterSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a vault server is running$`, s.aVaultServerIsRunning)
	sc.Step(`^an admin "([^"]*)" with password "([^"]*)" is bootstrapped$`, s.anAdminIsBootstrapped)
	sc.Step(`^I am authenticated as "([^"]*)" with password "([^"]*)"$`, s.iAmAuthenticatedAs)

	sc.Step(`^I create a collection "([^"]*)" with schema:$`, s.iCreateACollectionWithSchema)
	sc.Step(`^I create a record in "([^"]*)" with:$`, s.iCreateARecordWith)
	sc.Step(`^I read the record from "([^"]*)"$`, s.iReadTheRecord)
	sc.Step(`^I read the record from "([^"]*)" with fields "([^"]*)"$`, s.iReadTheRecordWithFields)
	sc.Step(`^I delete the record from "([^"]*)"$`, s.iDeleteTheRecord)
	sc.Step(`^I search "([^"]*)" where "([^"]*)" is "([^"]*)"$`, s.iSearchWhere)
	sc.Step(`^the search should find the record from "([^"]*)"$`, s.theSearchShouldFindTheRecord)

	sc.Step(`^I tokenize the "([^"]*)" field of the record in "([^"]*)"$`, s.iTokenizeTheField)
	sc.Step(`^I detokenize the token$`, s.iDetokenizeTheToken)

	sc.Step(`^a subject "([^"]*)" exists$`, s.aSubjectExists)
	sc.Step(`^I erase subject "([^"]*)"$`, s.iEraseSubject)
	sc.Step(`^no records should remain in "([^"]*)"$`, s.noRecordsShouldRemainIn)

	sc.Step(`^a policy "([^"]*)" that allows "([^"]*)" on "([^"]*)"$`, s.aPolicyThatAllows)
	sc.Step(`^a principal "([^"]*)" with password "([^"]*)" holding policy "([^"]*)"$`, s.aPrincipalHoldingPolicy)

	sc.Step(`^the response status should be (\d+)$`, s.theResponseStatusShouldBe)
	sc.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, s.theResponseFieldShouldBe)
	sc.Step(`^the response should not contain "([^"]*)"$`, s.theResponseShouldNotContain)
	sc.Step(`^the response value should be "([^"]*)"$`, s.theResponseValueShouldBe)
}

func (s *StepsContext) aVaultServerIsRunning() error {
	// the server is started once per suite by TestContext
	return nil
}

func (s *StepsContext) anAdminIsBootstrapped(username, password string) error {
	return s.tc.Vault.Bootstrap(username, password)
}

func (s *StepsContext) iAmAuthenticatedAs(username, password string) error {
	req, err := http.NewRequest("POST", s.tc.ServerURL+"/auth/token", nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(username, password)

	if err := s.do(req); err != nil {
		return err
	}
	if s.response.StatusCode != http.StatusOK {
		return fmt.Errorf("authentication failed with status %d: %s", s.response.StatusCode, s.responseBody)
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(s.responseBody, &body); err != nil {
		return err
	}
	s.authToken = body.Token
	return nil
}

func (s *StepsContext) iCreateACollectionWithSchema(name string, schema *godog.DocString) error {
	body, err := json.Marshal(map[string]json.RawMessage{
		"name":   json.RawMessage(fmt.Sprintf("%q", name)),
		"schema": json.RawMessage(schema.Content),
	})
	if err != nil {
		return err
	}
	return s.authedRequest("POST", "/collections", body)
}

func (s *StepsContext) iCreateARecordWith(collection string, payload *godog.DocString) error {
	if err := s.authedRequest("POST", "/collections/"+collection+"/records", []byte(payload.Content)); err != nil {
		return err
	}
	if s.response.StatusCode == http.StatusCreated {
		var body struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(s.responseBody, &body); err != nil {
			return err
		}
		s.recordIDs[collection] = body.ID
	}
	return nil
}

func (s *StepsContext) iReadTheRecord(collection string) error {
	return s.authedRequest("GET", s.recordPath(collection), nil)
}

func (s *StepsContext) iReadTheRecordWithFields(collection, fields string) error {
	return s.authedRequest("GET", s.recordPath(collection)+"?fields="+fields, nil)
}

func (s *StepsContext) iDeleteTheRecord(collection string) error {
	return s.authedRequest("DELETE", s.recordPath(collection), nil)
}

func (s *StepsContext) iSearchWhere(collection, field, value string) error {
	return s.authedRequest("GET", fmt.Sprintf("/collections/%s/records?field=%s&value=%s", collection, field, value), nil)
}

func (s *StepsContext) theSearchShouldFindTheRecord(collection string) error {
	var body struct {
		Records []string `json:"records"`
	}
	if err := json.Unmarshal(s.responseBody, &body); err != nil {
		return fmt.Errorf("failed to parse search response: %w", err)
	}
	want := s.recordIDs[collection]
	for _, id := range body.Records {
		if id == want {
			return nil
		}
	}
	return fmt.Errorf("record %s not found in search results %v", want, body.Records)
}

func (s *StepsContext) iTokenizeTheField(field, collection string) error {
	body, _ := json.Marshal(map[string]string{"field": field})
	if err := s.authedRequest("POST", s.recordPath(collection)+"/tokens", body); err != nil {
		return err
	}
	if s.response.StatusCode == http.StatusCreated {
		var resp struct {
			Token string `json:"token"`
		}
		if err := json.Unmarshal(s.responseBody, &resp); err != nil {
			return err
		}
		s.fieldToken = resp.Token
	}
	return nil
}

func (s *StepsContext) iDetokenizeTheToken() error {
	return s.authedRequest("GET", "/tokens/"+s.fieldToken, nil)
}

func (s *StepsContext) aSubjectExists(eid string) error {
	body, _ := json.Marshal(map[string]string{"eid": eid})
	if err := s.authedRequest("POST", "/subjects", body); err != nil {
		return err
	}
	if s.response.StatusCode != http.StatusCreated && s.response.StatusCode != http.StatusConflict {
		return fmt.Errorf("creating subject %s failed with status %d: %s", eid, s.response.StatusCode, s.responseBody)
	}
	return nil
}

func (s *StepsContext) iEraseSubject(eid string) error {
	return s.authedRequest("DELETE", "/subjects/"+eid, nil)
}

func (s *StepsContext) noRecordsShouldRemainIn(collection string) error {
	var count int64
	err := s.tc.DB.Raw(`
		SELECT COUNT(*) FROM records r
		JOIN collections c ON r.collection_id = c.id
		WHERE c.name = ?
	`, collection).Scan(&count).Error
	if err != nil {
		return err
	}
	if count != 0 {
		return fmt.Errorf("expected no records in %s, found %d", collection, count)
	}
	return nil
}

func (s *StepsContext) aPolicyThatAllows(name, actions, resource string) error {
	body, _ := json.Marshal(map[string]interface{}{
		"id":        "",
		"effect":    "allow",
		"actions":   strings.Split(actions, ","),
		"resources": []string{resource},
	})
	if err := s.authedRequest("POST", "/policies", body); err != nil {
		return err
	}
	if s.response.StatusCode != http.StatusCreated {
		return fmt.Errorf("creating policy failed with status %d: %s", s.response.StatusCode, s.responseBody)
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(s.responseBody, &resp); err != nil {
		return err
	}
	s.policyIDs[name] = resp.ID
	return nil
}

func (s *StepsContext) aPrincipalHoldingPolicy(username, password, policyName string) error {
	policyID, ok := s.policyIDs[policyName]
	if !ok {
		return fmt.Errorf("no policy named %q was created in this scenario", policyName)
	}
	body, _ := json.Marshal(map[string]interface{}{
		"username":   username,
		"password":   password,
		"policy_ids": []string{policyID},
	})
	if err := s.authedRequest("POST", "/principals", body); err != nil {
		return err
	}
	if s.response.StatusCode != http.StatusCreated {
		return fmt.Errorf("creating principal failed with status %d: %s", s.response.StatusCode, s.responseBody)
	}
	return nil
}

func (s *StepsContext) theResponseStatusShouldBe(expectedStatus int) error {
	if s.response.StatusCode != expectedStatus {
		return fmt.Errorf("expected status %d, got %d: %s", expectedStatus, s.response.StatusCode, string(s.responseBody))
	}
	return nil
}

func (s *StepsContext) theResponseFieldShouldBe(field, expected string) error {
	var body map[string]string
	if err := json.Unmarshal(s.responseBody, &body); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	actual, ok := body[field]
	if !ok {
		return fmt.Errorf("field %q not present in response: %s", field, s.responseBody)
	}
	if actual != expected {
		return fmt.Errorf("expected %q to be %q, got %q", field, expected, actual)
	}
	return nil
}

func (s *StepsContext) theResponseShouldNotContain(field string) error {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(s.responseBody, &body); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if _, ok := body[field]; ok {
		return fmt.Errorf("expected %q to be absent from response: %s", field, s.responseBody)
	}
	return nil
}

func (s *StepsContext) theResponseValueShouldBe(expected string) error {
	return s.theResponseFieldShouldBe("value", expected)
}

func (s *StepsContext) recordPath(collection string) string {
	return fmt.Sprintf("/collections/%s/records/%s", collection, s.recordIDs[collection])
}

func (s *StepsContext) authedRequest(method, path string, body []byte) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, s.tc.ServerURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.authToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.do(req)
}

func (s *StepsContext) do(req *http.Request) error {
	resp, err := s.tc.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	s.response = resp
	s.responseBody, err = io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return err
}
