package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultBaseURL = "http://localhost:8080"

// TestContext carries the HTTP client and the values scenarios pass between
// steps. A fresh context is built for every scenario.
type TestContext struct {
	BaseURL       string
	AdminPassword string
	HTTPClient    *http.Client

	LastResponse     *http.Response
	LastResponseBody []byte

	adminToken string
	values     map[string]string
}

func NewTestContext() *TestContext {
	baseURL := os.Getenv("NUMERANO_E2E_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &TestContext{
		BaseURL:       strings.TrimRight(baseURL, "/"),
		AdminPassword: os.Getenv("NUMERANO_E2E_ADMIN_PASSWORD"),
		HTTPClient:    &http.Client{Timeout: 10 * time.Second},
		values:        map[string]string{},
	}
}

// Reset clears per-scenario state.
func (tc *TestContext) Reset() {
	tc.LastResponse = nil
	tc.LastResponseBody = nil
	tc.adminToken = ""
	tc.values = map[string]string{}
}

func (tc *TestContext) POST(path string, body interface{}) error {
	return tc.sendJSON(http.MethodPost, path, body)
}

func (tc *TestContext) PATCH(path string, body interface{}) error {
	return tc.sendJSON(http.MethodPatch, path, body)
}

func (tc *TestContext) DELETE(path string) error {
	return tc.do(http.MethodDelete, path, nil, nil)
}

func (tc *TestContext) GET(path string, headers map[string]string) error {
	return tc.do(http.MethodGet, path, nil, headers)
}

// UploadFile sends a multipart form with a single "file" part.
func (tc *TestContext) UploadFile(path, fileName, contentType string, data []byte) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, fileName))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}
	return tc.do(http.MethodPut, path, &buf, map[string]string{"Content-Type": mw.FormDataContentType()})
}

func (tc *TestContext) sendJSON(method, path string, body interface{}) error {
	var reader io.Reader = http.NoBody
	headers := map[string]string{}
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
		headers["Content-Type"] = "application/json"
	}
	return tc.do(method, path, reader, headers)
}

func (tc *TestContext) do(method, path string, body io.Reader, headers map[string]string) error {
	if body == nil {
		body = http.NoBody
	}
	req, err := http.NewRequest(method, tc.BaseURL+path, body)
	if err != nil {
		return err
	}
	if _, ok := headers["Content-Type"]; !ok && method != http.MethodGet && method != http.MethodDelete {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if tc.adminToken != "" && strings.HasPrefix(path, "/admin/registrations") {
		req.Header.Set("Authorization", "Bearer "+tc.adminToken)
	}

	resp, err := tc.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	tc.LastResponse = resp
	tc.LastResponseBody = data
	return nil
}

// GetResponseField resolves a dotted path such as "registration.status" or
// "draft.members.0.email" in the last JSON response.
func (tc *TestContext) GetResponseField(field string) (interface{}, error) {
	var doc interface{}
	if err := json.Unmarshal(tc.LastResponseBody, &doc); err != nil {
		return nil, fmt.Errorf("response is not JSON: %w", err)
	}
	current := doc
	for _, segment := range strings.Split(field, ".") {
		switch node := current.(type) {
		case map[string]interface{}:
			value, ok := node[segment]
			if !ok {
				return nil, fmt.Errorf("field %q not found in response", field)
			}
			current = value
		case []interface{}:
			i, err := strconv.Atoi(segment)
			if err != nil || i < 0 || i >= len(node) {
				return nil, fmt.Errorf("index %q out of range in %q", segment, field)
			}
			current = node[i]
		default:
			return nil, fmt.Errorf("field %q not found in response", field)
		}
	}
	return current, nil
}

// GetResponseString is GetResponseField rendered as a string.
func (tc *TestContext) GetResponseString(field string) (string, error) {
	value, err := tc.GetResponseField(field)
	if err != nil {
		return "", err
	}
	switch v := value.(type) {
	case string:
		return v, nil
	case nil:
		return "", nil
	default:
		return fmt.Sprint(v), nil
	}
}

func (tc *TestContext) GetLastResponseStatus() int {
	if tc.LastResponse == nil {
		return 0
	}
	return tc.LastResponse.StatusCode
}

func (tc *TestContext) GetLastResponseBody() []byte {
	return tc.LastResponseBody
}

func (tc *TestContext) GetLastResponseHeader(name string) string {
	if tc.LastResponse == nil {
		return ""
	}
	return tc.LastResponse.Header.Get(name)
}

func (tc *TestContext) SetAdminToken(token string) {
	tc.adminToken = token
}

func (tc *TestContext) GetAdminPassword() string {
	return tc.AdminPassword
}

func (tc *TestContext) Remember(key, value string) {
	tc.values[key] = value
}

func (tc *TestContext) Recall(key string) string {
	return tc.values[key]
}
