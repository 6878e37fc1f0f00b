package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"sdagate/internal/catalog"
	"sdagate/internal/evaluation"
	"sdagate/internal/export"
)

type EvaluationHandlerSuite struct {
	suite.Suite
	router     chi.Router
	catalog    *catalog.InMemoryStore
	allowedID  int64
	prohibited int64
	threatID   int64
}

func TestEvaluationHandlerSuite(t *testing.T) {
	suite.Run(t, new(EvaluationHandlerSuite))
}

func (s *EvaluationHandlerSuite) SetupTest() {
	ctx := context.Background()
	s.catalog = catalog.NewInMemoryStore()
	s.Require().NoError(catalog.Seed(ctx, s.catalog))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := evaluation.NewInMemoryStore()
	service := evaluation.NewService(s.catalog, store, logger, nil)
	exporter := export.NewService(service, s.catalog)

	s.router = chi.NewRouter()
	New(service, exporter, logger).Register(s.router)

	s.allowedID = s.serviceIDByCode(ctx, "SVC-ADV-02")
	s.prohibited = s.serviceIDByCode(ctx, "SVC-ACC-01")
	threats, err := s.catalog.ListThreats(ctx)
	s.Require().NoError(err)
	s.Require().NotEmpty(threats)
	s.threatID = threats[0].ID
}

func (s *EvaluationHandlerSuite) serviceIDByCode(ctx context.Context, code string) int64 {
	services, err := s.catalog.ListServices(ctx, catalog.ServiceFilter{Search: code})
	s.Require().NoError(err)
	s.Require().Len(services, 1)
	return services[0].ID
}

func (s *EvaluationHandlerSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, reader)
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *EvaluationHandlerSuite) createValid() map[string]any {
	rec := s.do(http.MethodPost, "/api/evaluations", map[string]any{
		"entity_name":       "Acme Holdings",
		"entity_category":   "EIP",
		"relationship_kind": "AUDITED",
		"service_id":        s.allowedID,
	})
	s.Require().Equal(http.StatusCreated, rec.Code)
	var created map[string]any
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&created))
	return created
}

func (s *EvaluationHandlerSuite) TestCreate() {
	s.Run("valid request creates and classifies", func() {
		created := s.createValid()
		s.Equal("C1", created["conclusion"])
		s.Regexp(`^SDA-\d{8}-[A-Z0-9]{8}$`, created["reference_number"])
	})

	s.Run("prohibited service is created with forced C5", func() {
		rec := s.do(http.MethodPost, "/api/evaluations", map[string]any{
			"entity_name":       "Acme Holdings",
			"entity_category":   "EIP",
			"relationship_kind": "AUDITED",
			"service_id":        s.prohibited,
		})
		s.Require().Equal(http.StatusCreated, rec.Code)
		var created map[string]any
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&created))
		s.Equal("C5", created["conclusion"])
		s.Equal(false, created["legal_gate_passed"])
	})

	s.Run("malformed body is 400", func() {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/evaluations", bytes.NewReader([]byte("{not json")))
		s.router.ServeHTTP(rec, req)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("missing entity name is 400", func() {
		rec := s.do(http.MethodPost, "/api/evaluations", map[string]any{
			"entity_category":   "EIP",
			"relationship_kind": "AUDITED",
			"service_id":        s.allowedID,
		})
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("unknown service is 404", func() {
		rec := s.do(http.MethodPost, "/api/evaluations", map[string]any{
			"entity_name":       "Acme Holdings",
			"entity_category":   "EIP",
			"relationship_kind": "AUDITED",
			"service_id":        999999,
		})
		s.Equal(http.StatusNotFound, rec.Code)
	})

	s.Run("unknown threat reference is 404", func() {
		rec := s.do(http.MethodPost, "/api/evaluations", map[string]any{
			"entity_name":       "Acme Holdings",
			"entity_category":   "EIP",
			"relationship_kind": "AUDITED",
			"service_id":        s.allowedID,
			"threats":           []map[string]any{{"threat_id": 999999, "significance": "LOW"}},
		})
		s.Equal(http.StatusNotFound, rec.Code)
	})
}

func (s *EvaluationHandlerSuite) TestClassifyPreview() {
	s.Run("previews without persisting", func() {
		rec := s.do(http.MethodPost, "/api/evaluations/classify", map[string]any{
			"permission_code": "2",
			"significances":   []string{"LOW"},
			"safeguard_count": 1,
		})
		s.Require().Equal(http.StatusOK, rec.Code)
		var resp struct {
			Conclusion string `json:"conclusion"`
			Display    struct {
				Color string `json:"color"`
			} `json:"display"`
		}
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
		s.Equal("C4", resp.Conclusion)
		s.Equal("orange", resp.Display.Color)

		list := s.do(http.MethodGet, "/api/evaluations", nil)
		var envelope struct {
			Evaluations []json.RawMessage `json:"evaluations"`
		}
		s.Require().NoError(json.NewDecoder(list.Body).Decode(&envelope))
		s.Empty(envelope.Evaluations)
	})

	s.Run("prohibited permission previews C5", func() {
		rec := s.do(http.MethodPost, "/api/evaluations/classify", map[string]any{
			"permission_code": "NO",
			"significances":   []string{"HIGH"},
			"safeguard_count": 3,
		})
		s.Require().Equal(http.StatusOK, rec.Code)
		var resp struct {
			Conclusion string `json:"conclusion"`
		}
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
		s.Equal("C5", resp.Conclusion)
	})
}

func (s *EvaluationHandlerSuite) TestLifecycle() {
	created := s.createValid()
	id := created["id"].(string)

	s.Run("get returns the stored aggregate", func() {
		rec := s.do(http.MethodGet, "/api/evaluations/"+id, nil)
		s.Require().Equal(http.StatusOK, rec.Code)
		var got map[string]any
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&got))
		s.Equal(created["reference_number"], got["reference_number"])
	})

	s.Run("list pages with the envelope", func() {
		rec := s.do(http.MethodGet, "/api/evaluations?limit=10", nil)
		s.Require().Equal(http.StatusOK, rec.Code)
		var envelope struct {
			Evaluations []json.RawMessage `json:"evaluations"`
			Limit       int               `json:"limit"`
		}
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&envelope))
		s.Equal(10, envelope.Limit)
		s.Len(envelope.Evaluations, 1)
	})

	s.Run("malformed id is 400", func() {
		rec := s.do(http.MethodGet, "/api/evaluations/not-a-uuid", nil)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("unknown id is 404", func() {
		rec := s.do(http.MethodGet, "/api/evaluations/"+uuid.NewString(), nil)
		s.Equal(http.StatusNotFound, rec.Code)
	})

	s.Run("delete then get is 404", func() {
		rec := s.do(http.MethodDelete, "/api/evaluations/"+id, nil)
		s.Equal(http.StatusNoContent, rec.Code)

		rec = s.do(http.MethodGet, "/api/evaluations/"+id, nil)
		s.Equal(http.StatusNotFound, rec.Code)

		rec = s.do(http.MethodDelete, "/api/evaluations/"+id, nil)
		s.Equal(http.StatusNotFound, rec.Code)
	})
}

func (s *EvaluationHandlerSuite) TestExport() {
	created := s.createValid()
	id := created["id"].(string)
	reference := created["reference_number"].(string)

	s.Run("streams a markdown attachment", func() {
		rec := s.do(http.MethodGet, "/api/evaluations/"+id+"/export", nil)
		s.Require().Equal(http.StatusOK, rec.Code)
		s.Contains(rec.Header().Get("Content-Type"), "text/markdown")
		s.Contains(rec.Header().Get("Content-Disposition"), "SDA_Evaluation_"+reference)
		s.Contains(rec.Body.String(), reference)
	})

	s.Run("unknown evaluation is 404", func() {
		rec := s.do(http.MethodGet, "/api/evaluations/"+uuid.NewString()+"/export", nil)
		s.Equal(http.StatusNotFound, rec.Code)
	})
}
