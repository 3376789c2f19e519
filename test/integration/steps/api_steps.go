package steps

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cucumber/godog"
)

func (t *testContext) theAPIServerIsRunning() error {
	if t.server == nil {
		return fmt.Errorf("test server is not running")
	}
	return nil
}

func (t *testContext) iAmAuthenticatedAsService(service string) error {
	t.token = serviceToken(service)
	return nil
}

func (t *testContext) theHeaderContainsTheKeyWith(key, value string) error {
	t.headers[key] = value
	return nil
}

func (t *testContext) iSendARequestTo(method, endpoint string) error {
	return t.executeRequest(method, endpoint, nil)
}

func (t *testContext) iSendARequestToWithBody(method, endpoint string, body *godog.DocString) error {
	return t.executeRequest(method, endpoint, []byte(body.Content))
}

func (t *testContext) iStoreTheResponseFieldAs(field, name string) error {
	value, err := t.responseField(field)
	if err != nil {
		return err
	}
	t.saved[name] = fmt.Sprintf("%v", value)
	return nil
}

// replacePlaceholders substitutes {name} tokens with values stored from
// earlier responses.
func (t *testContext) replacePlaceholders(s string) string {
	for name, value := range t.saved {
		s = strings.ReplaceAll(s, "{"+name+"}", value)
	}
	return s
}

func (t *testContext) executeRequest(method, endpoint string, payload []byte) error {
	endpoint = t.replacePlaceholders(endpoint)
	if payload != nil {
		payload = []byte(t.replacePlaceholders(string(payload)))
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, t.server.URL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range t.headers {
		req.Header.Set(key, value)
	}
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	t.response = resp
	t.responseBody, err = io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	return nil
}

func (t *testContext) theResponseStatusShouldBe(expectedStatus int) error {
	if t.response == nil {
		return fmt.Errorf("no response received")
	}
	if t.response.StatusCode != expectedStatus {
		return fmt.Errorf("expected status %d, got %d. Body: %s", expectedStatus, t.response.StatusCode, string(t.responseBody))
	}
	return nil
}

func (t *testContext) theResponseShouldContain(expected string) error {
	if !strings.Contains(string(t.responseBody), expected) {
		return fmt.Errorf("response does not contain %q. Body: %s", expected, string(t.responseBody))
	}
	return nil
}

func (t *testContext) theResponseFieldShouldBe(field, expected string) error {
	value, err := t.responseField(field)
	if err != nil {
		return err
	}

	actual := fmt.Sprintf("%v", value)
	if actual != expected {
		return fmt.Errorf("field %q expected %q, got %q. Body: %s", field, expected, actual, string(t.responseBody))
	}
	return nil
}

func (t *testContext) theResponseFieldShouldExist(field string) error {
	_, err := t.responseField(field)
	return err
}

// responseField resolves a dot-separated path into the response JSON. Numeric
// segments index into arrays.
func (t *testContext) responseField(path string) (any, error) {
	var data any
	if err := json.Unmarshal(t.responseBody, &data); err != nil {
		return nil, fmt.Errorf("failed to parse response JSON: %w", err)
	}

	current := data
	for _, segment := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]any:
			value, ok := node[segment]
			if !ok {
				return nil, fmt.Errorf("field %q not found in response. Body: %s", path, string(t.responseBody))
			}
			current = value
		case []any:
			var index int
			if _, err := fmt.Sscanf(segment, "%d", &index); err != nil {
				return nil, fmt.Errorf("field path %q indexes an array with %q", path, segment)
			}
			if index < 0 || index >= len(node) {
				return nil, fmt.Errorf("field path %q index %d out of range", path, index)
			}
			current = node[index]
		default:
			return nil, fmt.Errorf("field path %q descends into a scalar", path)
		}
	}

	// JSON numbers decode as float64; render integers without the fraction.
	if f, ok := current.(float64); ok && f == float64(int64(f)) {
		return int64(f), nil
	}
	return current, nil
}
