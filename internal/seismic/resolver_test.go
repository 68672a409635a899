package seismic

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/rackplan/internal/logger"
	"github.com/stwalsh4118/rackplan/internal/models"
)

// MockGeocoder is a mock implementation of Geocoder for testing
type MockGeocoder struct {
	mock.Mock
}

func (m *MockGeocoder) Geocode(ctx context.Context, address string) (*models.Coordinates, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Coordinates), args.Error(1)
}

// MockHazard is a mock implementation of HazardService for testing
type MockHazard struct {
	mock.Mock
}

func (m *MockHazard) Query(ctx context.Context, at models.Coordinates, rc models.RiskCategory, sc models.SiteClass) (*models.HazardValues, error) {
	args := m.Called(ctx, at, rc, sc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.HazardValues), args.Error(1)
}

func fastOptions() Options {
	return Options{
		Policy:   RetryPolicy{Timeout: time.Second, MaxRetries: 2, Backoff: time.Millisecond},
		CacheTTL: time.Hour,
	}
}

var ontario = &models.Coordinates{Latitude: 34.0633, Longitude: -117.6509}

func TestResolve_LiveLookup(t *testing.T) {
	// Arrange
	geo := new(MockGeocoder)
	hz := new(MockHazard)
	r := NewResolver(geo, hz, fastOptions(), logger.New("test"))

	geo.On("Geocode", mock.Anything, "Ontario, CA").Return(ontario, nil).Once()
	hz.On("Query", mock.Anything, *ontario, models.RiskCategoryII, models.SiteClass("D")).
		Return(&models.HazardValues{SDS: 1.3, SD1: 0.62, S1: 0.55, ReportedSDC: models.SDCD}, nil).Once()

	// Act
	res, err := r.Resolve(context.Background(), "Ontario, CA", models.SiteOverrides{})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, models.SDCD, res.Site.SDC.Value)
	assert.Equal(t, models.SourceLiveLookup, res.Site.SDC.Source)
	assert.Equal(t, models.ConfidenceHigh, res.Site.SDC.Confidence)
	require.NotNil(t, res.Site.SDS)
	assert.Equal(t, 1.3, res.Site.SDS.Value)
	assert.Equal(t, models.CodeCBC, res.Site.Jurisdiction.Value.BuildingCode)
	assert.Equal(t, 8, res.Requirements.AnchorsPerFrame)
	assert.Equal(t, "CBC", res.Requirements.BuildingCode)
	// Risk category and site class defaults are recorded.
	assert.True(t, res.Site.Advisories.Has("risk_category"))
	assert.True(t, res.Site.Advisories.Has("site_class"))
	geo.AssertExpectations(t)
	hz.AssertExpectations(t)
}

func TestResolve_ReportedSDCMismatchTakesMoreSevere(t *testing.T) {
	geo := new(MockGeocoder)
	hz := new(MockHazard)
	r := NewResolver(geo, hz, fastOptions(), logger.New("test"))

	joliet := &models.Coordinates{Latitude: 41.525, Longitude: -88.0817}
	geo.On("Geocode", mock.Anything, "Joliet, IL").Return(joliet, nil)
	hz.On("Query", mock.Anything, *joliet, models.RiskCategoryII, models.SiteClass("D")).
		Return(&models.HazardValues{SDS: 0.15, SD1: 0.08, S1: 0.06, ReportedSDC: models.SDCC}, nil)

	res, err := r.Resolve(context.Background(), "Joliet, IL", models.SiteOverrides{})

	require.NoError(t, err)
	assert.Equal(t, models.SDCC, res.Site.SDC.Value)
	assert.Equal(t, models.ConfidenceMedium, res.Site.SDC.Confidence)
	assert.Len(t, res.Site.Advisories.ByCode(models.AdvisorySDCMismatch), 1)
	assert.Equal(t, models.CodeIBC, res.Site.Jurisdiction.Value.BuildingCode)
}

func TestResolve_GeocoderFailureFallsBackToMarket(t *testing.T) {
	geo := new(MockGeocoder)
	hz := new(MockHazard)
	r := NewResolver(geo, hz, fastOptions(), logger.New("test"))

	geo.On("Geocode", mock.Anything, "500 Harley Knox Blvd, Perris, CA").
		Return(nil, errors.New("connection refused"))

	res, err := r.Resolve(context.Background(), "500 Harley Knox Blvd, Perris, CA", models.SiteOverrides{})

	require.NoError(t, err)
	assert.Equal(t, models.SDCD, res.Site.SDC.Value)
	assert.Equal(t, models.SourceMarketDefault, res.Site.SDC.Source)
	assert.Equal(t, models.ConfidenceDefault, res.Site.Confidence)
	assert.Equal(t, "Inland Empire / SoCal", res.Site.Market)
	assert.Nil(t, res.Site.SDS)
	assert.Equal(t, models.CodeCBC, res.Site.Jurisdiction.Value.BuildingCode)

	fallbacks := res.Site.Advisories.ByCode(models.AdvisoryLookupFallback)
	require.Len(t, fallbacks, 1)
	assert.Equal(t, models.SourceEngineDefault, fallbacks[0].Source)
	assert.Contains(t, fallbacks[0].Reference, "inland_empire")

	// One attempt plus two retries.
	geo.AssertNumberOfCalls(t, "Geocode", 3)
	hz.AssertNotCalled(t, "Query", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestResolve_HazardFailureUsesNearestMarket(t *testing.T) {
	geo := new(MockGeocoder)
	hz := new(MockHazard)
	r := NewResolver(geo, hz, fastOptions(), logger.New("test"))

	nearJoliet := &models.Coordinates{Latitude: 41.52, Longitude: -88.09}
	geo.On("Geocode", mock.Anything, "some industrial park").Return(nearJoliet, nil)
	hz.On("Query", mock.Anything, *nearJoliet, models.RiskCategoryII, models.SiteClass("D")).
		Return(nil, errors.New("HTTP 503"))

	res, err := r.Resolve(context.Background(), "some industrial park", models.SiteOverrides{})

	require.NoError(t, err)
	assert.Equal(t, models.SDCB, res.Site.SDC.Value)
	assert.Equal(t, models.SourceMarketDefault, res.Site.SDC.Source)
	assert.Equal(t, "Chicago / Chicagoland", res.Site.Market)
	require.NotNil(t, res.Site.Coordinates)
	assert.Equal(t, models.SourceLiveLookup, res.Site.Jurisdiction.Source)
	assert.Equal(t, 2, res.Requirements.AnchorsPerFrame)
	hz.AssertNumberOfCalls(t, "Query", 3)
}

func TestResolve_NoMarketUsesConservativeDefault(t *testing.T) {
	geo := new(MockGeocoder)
	hz := new(MockHazard)
	r := NewResolver(geo, hz, fastOptions(), logger.New("test"))

	geo.On("Geocode", mock.Anything, "nowhere in particular").
		Return(nil, ErrNoMatch)

	res, err := r.Resolve(context.Background(), "nowhere in particular", models.SiteOverrides{})

	require.NoError(t, err)
	assert.Equal(t, models.SDCD, res.Site.SDC.Value)
	assert.Equal(t, models.SourceEngineDefault, res.Site.SDC.Source)
	assert.Equal(t, models.ConfidenceDefault, res.Site.SDC.Confidence)
	assert.True(t, res.Site.Advisories.Has("jurisdiction"))
	// No-match is not retried.
	geo.AssertNumberOfCalls(t, "Geocode", 1)
}

func TestResolve_UserOverrideWins(t *testing.T) {
	geo := new(MockGeocoder)
	hz := new(MockHazard)
	r := NewResolver(geo, hz, fastOptions(), logger.New("test"))

	geo.On("Geocode", mock.Anything, "Ontario, CA").Return(ontario, nil)
	hz.On("Query", mock.Anything, *ontario, models.RiskCategoryIV, models.SiteClass("C")).
		Return(&models.HazardValues{SDS: 1.3, SD1: 0.62, S1: 0.55}, nil)

	res, err := r.Resolve(context.Background(), "Ontario, CA", models.SiteOverrides{
		RiskCategory: models.RiskCategoryIV,
		SiteClass:    "C",
		SDC:          models.SDCC,
	})

	require.NoError(t, err)
	assert.Equal(t, models.SDCC, res.Site.SDC.Value)
	assert.Equal(t, models.SourceUserOverride, res.Site.SDC.Source)
	assert.Equal(t, 4, res.Requirements.AnchorsPerFrame)
	assert.Len(t, res.Site.Advisories.ByCode(models.AdvisorySDCMismatch), 1)
	assert.False(t, res.Site.Advisories.Has("risk_category"))
}

func TestResolve_InvalidOverride(t *testing.T) {
	r := NewResolver(new(MockGeocoder), new(MockHazard), fastOptions(), logger.New("test"))

	_, err := r.Resolve(context.Background(), "Ontario, CA", models.SiteOverrides{RiskCategory: "V"})

	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "risk_category", verr.Field)
}

func TestResolve_CancelledBeforeStart(t *testing.T) {
	geo := new(MockGeocoder)
	r := NewResolver(geo, new(MockHazard), fastOptions(), logger.New("test"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := r.Resolve(ctx, "Ontario, CA", models.SiteOverrides{})

	assert.Nil(t, res)
	assert.ErrorIs(t, err, models.ErrCancelled)
	geo.AssertNotCalled(t, "Geocode", mock.Anything, mock.Anything)
}

// blockingGeocoder blocks until its context ends or release is closed.
type blockingGeocoder struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlockingGeocoder() *blockingGeocoder {
	return &blockingGeocoder{started: make(chan struct{}), release: make(chan struct{})}
}

func (b *blockingGeocoder) Geocode(ctx context.Context, address string) (*models.Coordinates, error) {
	b.calls.Add(1)
	b.once.Do(func() { close(b.started) })
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-b.release:
		c := *ontario
		return &c, nil
	}
}

func TestResolve_CancelMidLookupCommitsNothing(t *testing.T) {
	geo := newBlockingGeocoder()
	r := NewResolver(geo, new(MockHazard), fastOptions(), logger.New("test"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := r.Resolve(ctx, "Ontario, CA", models.SiteOverrides{})
		done <- err
	}()

	<-geo.started
	cancel()

	err := <-done
	assert.ErrorIs(t, err, models.ErrCancelled)
	assert.Equal(t, 0, r.geocodes.Len())
}

func TestCache_ConcurrentCallersShareOneFetch(t *testing.T) {
	c := NewCache[int]("test", time.Hour, nil, logger.New("test"))

	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(ctx context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 42, nil
	}

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.Get(context.Background(), "k", fetch)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	// Let the goroutines pile onto the in-flight fetch.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, v := range results {
		assert.Equal(t, 42, v)
	}
	assert.LessOrEqual(t, calls.Load(), int32(8))
	assert.GreaterOrEqual(t, calls.Load(), int32(1))

	// A later call is served from memory.
	before := calls.Load()
	v, err := c.Get(context.Background(), "k", fetch)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, before, calls.Load())
}

func TestCache_FailedFetchIsNotCached(t *testing.T) {
	c := NewCache[int]("test", time.Hour, nil, logger.New("test"))

	_, err := c.Get(context.Background(), "k", func(ctx context.Context) (int, error) {
		return 0, errors.New("boom")
	})
	require.Error(t, err)
	assert.Equal(t, 0, c.Len())

	v, err := c.Get(context.Background(), "k", func(ctx context.Context) (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestCache_FollowerSurvivesLeaderCancellation(t *testing.T) {
	c := NewCache[int]("test", time.Hour, nil, logger.New("test"))

	started := make(chan struct{})
	var once sync.Once
	var calls atomic.Int32
	fetch := func(ctx context.Context) (int, error) {
		n := calls.Add(1)
		if n == 1 {
			once.Do(func() { close(started) })
			<-ctx.Done()
			return 0, ctx.Err()
		}
		return 9, nil
	}

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leaderDone := make(chan error, 1)
	go func() {
		_, err := c.Get(leaderCtx, "k", fetch)
		leaderDone <- err
	}()
	<-started

	followerDone := make(chan int, 1)
	go func() {
		v, err := c.Get(context.Background(), "k", fetch)
		assert.NoError(t, err)
		followerDone <- v
	}()

	time.Sleep(10 * time.Millisecond)
	cancelLeader()

	assert.ErrorIs(t, <-leaderDone, context.Canceled)
	assert.Equal(t, 9, <-followerDone)
	assert.Equal(t, 1, c.Len())
}

func TestCache_ExpiredEntryIsRefetched(t *testing.T) {
	c := NewCache[int]("test", time.Minute, nil, logger.New("test"))
	now := time.Now()
	c.now = func() time.Time { return now }

	_, err := c.Get(context.Background(), "k", func(ctx context.Context) (int, error) { return 1, nil })
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	v, err := c.Get(context.Background(), "k", func(ctx context.Context) (int, error) { return 2, nil })
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

// memStore is an in-memory Store.
type memStore struct {
	mu   sync.Mutex
	rows map[string][]byte
}

func (s *memStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows[key], nil
}

func (s *memStore) Put(ctx context.Context, key string, payload []byte, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[key] = payload
	return nil
}

func TestCache_PersistsAndReloadsFromStore(t *testing.T) {
	store := &memStore{rows: map[string][]byte{}}

	first := NewCache[models.Coordinates]("geocode", time.Hour, store, logger.New("test"))
	_, err := first.Get(context.Background(), "geo:ontario", func(ctx context.Context) (models.Coordinates, error) {
		return *ontario, nil
	})
	require.NoError(t, err)
	require.Contains(t, store.rows, "geo:ontario")

	second := NewCache[models.Coordinates]("geocode", time.Hour, store, logger.New("test"))
	v, err := second.Get(context.Background(), "geo:ontario", func(ctx context.Context) (models.Coordinates, error) {
		t.Fatal("fetch should not be called")
		return models.Coordinates{}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, ontario.Latitude, v.Latitude)
}

func TestDo_RetriesThenSucceeds(t *testing.T) {
	var calls int
	v, err := do(context.Background(), RetryPolicy{Timeout: time.Second, MaxRetries: 2, Backoff: time.Millisecond}, "geocoder", logger.New("test"),
		func(ctx context.Context) (int, error) {
			calls++
			if calls < 3 {
				return 0, errors.New("transient")
			}
			return 5, nil
		})

	require.NoError(t, err)
	assert.Equal(t, 5, v)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustedReturnsLookupError(t *testing.T) {
	_, err := do(context.Background(), RetryPolicy{Timeout: time.Second, MaxRetries: 1, Backoff: time.Millisecond}, "hazard", logger.New("test"),
		func(ctx context.Context) (int, error) {
			return 0, errors.New("down")
		})

	var lerr *models.LookupError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, "hazard", lerr.Service)
	assert.Equal(t, 2, lerr.Attempts)
}

func TestFromMarket(t *testing.T) {
	r := NewResolver(new(MockGeocoder), new(MockHazard), fastOptions(), logger.New("test"))

	res, err := r.FromMarket("Kent")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, models.SDCD, res.Site.SDC.Value)
	assert.Equal(t, models.SourceMarketDefault, res.Site.SDC.Source)
	assert.Equal(t, models.CodeIBC, res.Site.Jurisdiction.Value.BuildingCode)
	assert.Equal(t, "WA", res.Site.Jurisdiction.Value.State)

	res, err = r.FromMarket("Atlantis")
	require.NoError(t, err)
	assert.Nil(t, res)
}
