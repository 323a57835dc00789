package trail

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func newTestApp(svc *Service) *fiber.App {
	app := fiber.New()
	RegisterRoutes(app.Group("/trails"), svc, func(c *fiber.Ctx) error { return c.Next() })
	return app
}

func TestTrailHandlers(t *testing.T) {
	svc := NewService(NewMemoryStore())
	app := newTestApp(svc)

	body, _ := json.Marshal(map[string]any{"name": "imported", "path": samplePath()})
	req := httptest.NewRequest(http.MethodPost, "/trails", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status: %v %d", err, resp.StatusCode)
	}
	var created Trail
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/trails", nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("list status: %v", err)
	}
	var summaries []Summary
	if err := json.NewDecoder(resp.Body).Decode(&summaries); err != nil || len(summaries) != 1 {
		t.Fatalf("unexpected list: %v %+v", err, summaries)
	}
	if summaries[0].PointCount != 3 {
		t.Fatalf("unexpected summary %+v", summaries[0])
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/trails/"+created.ID, nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("get status: %v", err)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/trails/"+created.ID, nil))
	if err != nil || resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status: %v", err)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/trails/"+created.ID, nil))
	if err != nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected not found after delete")
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/trails/"+created.ID, nil))
	if err != nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected not found on repeat delete")
	}
}

func TestTrailHandlersBadRequest(t *testing.T) {
	app := newTestApp(NewService(NewMemoryStore()))

	req := httptest.NewRequest(http.MethodPost, "/trails", bytes.NewReader([]byte("{")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request for parse error")
	}

	body, _ := json.Marshal(map[string]any{"path": samplePath()[:1]})
	req = httptest.NewRequest(http.MethodPost, "/trails", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	if err != nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request for single point path")
	}
}

func TestTrailHandlersStoreError(t *testing.T) {
	app := newTestApp(NewService(&failingStore{loadErr: errStore}))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/trails", nil))
	if err != nil || resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected list error")
	}
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/trails/a", nil))
	if err != nil || resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected get error")
	}
	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/trails/a", nil))
	if err != nil || resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected delete error")
	}

	body, _ := json.Marshal(map[string]any{"path": samplePath()})
	req := httptest.NewRequest(http.MethodPost, "/trails", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	if err != nil || resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected create error")
	}
}
