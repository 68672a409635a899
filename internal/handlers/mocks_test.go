package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	apierrors "github.com/stwalsh4118/rackplan/internal/errors"
	"github.com/stwalsh4118/rackplan/internal/models"
	"github.com/stwalsh4118/rackplan/internal/reference"
	"github.com/stwalsh4118/rackplan/internal/seismic"
	"github.com/stwalsh4118/rackplan/internal/services"
)

// MockSiteService is a mock implementation of services.SiteService for testing
type MockSiteService struct {
	mock.Mock
}

func (m *MockSiteService) Lookup(ctx context.Context, address string, ov models.SiteOverrides) (*seismic.Resolution, error) {
	args := m.Called(ctx, address, ov)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*seismic.Resolution), args.Error(1)
}

func (m *MockSiteService) Market(location string) (*seismic.Resolution, error) {
	args := m.Called(location)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*seismic.Resolution), args.Error(1)
}

func (m *MockSiteService) Markets() ([]reference.Market, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]reference.Market), args.Error(1)
}

func (m *MockSiteService) Requirements(sdc models.SDC, code models.BuildingCode) (models.EngineeringRequirements, error) {
	args := m.Called(sdc, code)
	return args.Get(0).(models.EngineeringRequirements), args.Error(1)
}

// MockDesignService is a mock implementation of services.DesignService for testing
type MockDesignService struct {
	mock.Mock
}

func (m *MockDesignService) Design(ctx context.Context, req services.DesignRequest) (*services.Design, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Design), args.Error(1)
}

// MockFireService is a mock implementation of services.FireService for testing
type MockFireService struct {
	mock.Mock
}

func (m *MockFireService) Assess(req services.FireRequest) (*services.FireAssessment, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.FireAssessment), args.Error(1)
}

// MockBOMService is a mock implementation of services.BOMService for testing
type MockBOMService struct {
	mock.Mock
}

func (m *MockBOMService) Compute(req services.BOMRequest) (*models.BOM, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BOM), args.Error(1)
}

// MockPricingService is a mock implementation of services.PricingService for testing
type MockPricingService struct {
	mock.Mock
}

func (m *MockPricingService) Build(req services.PricingRequest) (*models.PricingModel, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PricingModel), args.Error(1)
}

func (m *MockPricingService) Workbook(req services.PricingRequest) (*services.Workbook, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Workbook), args.Error(1)
}

// MockLayoutService is a mock implementation of services.LayoutService for testing
type MockLayoutService struct {
	mock.Mock
}

func (m *MockLayoutService) FloorPlan(req services.LayoutRequest) (*services.FloorPlan, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.FloorPlan), args.Error(1)
}

// doJSON sends body as JSON and returns the recorder.
func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// decodeError decodes the error envelope.
func decodeError(t *testing.T, w *httptest.ResponseRecorder) apierrors.ErrorDetail {
	t.Helper()
	var resp apierrors.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp.Error
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}
