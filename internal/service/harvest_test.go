package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"listing_harvester/internal/config"
	"listing_harvester/internal/domain"
	"listing_harvester/internal/service/mocks"
	"listing_harvester/internal/source/bazos"
	"listing_harvester/testdata/utils"
)

type HarvestServiceTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	scraper   *mocks.MockScraper
	runs      *mocks.MockRunRegistry
	listings  *mocks.MockListingStore
	pool      *mocks.MockPoolRefresher
	publisher *mocks.MockPublisher

	cfg    config.ScrapeConfig
	logger *slog.Logger
}

func (s *HarvestServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())

	s.scraper = mocks.NewMockScraper(s.ctrl)
	s.runs = mocks.NewMockRunRegistry(s.ctrl)
	s.listings = mocks.NewMockListingStore(s.ctrl)
	s.pool = mocks.NewMockPoolRefresher(s.ctrl)
	s.publisher = mocks.NewMockPublisher(s.ctrl)

	s.cfg = config.ScrapeConfig{
		Categories:          []string{"auto"},
		MaxListings:         utils.Ptr(50),
		IncludeDetailedData: utils.Ptr(false),
	}

	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func (s *HarvestServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestHarvestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(HarvestServiceTestSuite))
}

func (s *HarvestServiceTestSuite) newService() *HarvestService {
	return NewHarvestService(
		s.scraper,
		&Storage{Runs: s.runs, Listings: s.listings, Pool: s.pool},
		s.publisher,
		s.logger,
		s.cfg,
		nil,
	)
}

func sampleListings(category string, ids ...string) []domain.Listing {
	listings := make([]domain.Listing, len(ids))
	for i, id := range ids {
		listings[i] = domain.Listing{ID: id, Title: "Inzerát " + id, Category: category}
	}
	return listings
}

func scraped(category string, ids ...string) *bazos.CategoryResult {
	return &bazos.CategoryResult{
		Category:     category,
		Listings:     sampleListings(category, ids...),
		PagesFetched: 1,
		Stop:         bazos.StopNoNextPage,
	}
}

func (s *HarvestServiceTestSuite) expectRun(id int64) {
	s.runs.EXPECT().CreateOrReuse(gomock.Any(), gomock.Any()).Return(id, nil)
}

func (s *HarvestServiceTestSuite) TestHarvest_PersistsAndPublishesEachCategory() {
	ctx := context.Background()
	s.cfg.Categories = []string{"auto", "sport"}
	s.cfg.SearchQuery = "kolo"
	s.cfg.PriceMax = 900

	s.runs.EXPECT().CreateOrReuse(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, run *domain.Run) (int64, error) {
			s.Equal("run-1", run.Token)
			s.Equal([]string{"auto", "sport"}, run.Categories)
			s.Equal(50, run.MaxListings)
			s.Require().NotNil(run.SearchQuery)
			s.Equal("kolo", *run.SearchQuery)
			s.Nil(run.PriceMin)
			s.Equal(900, *run.PriceMax)
			return 7, nil
		})

	query := bazos.Query{SearchQuery: "kolo", PriceMax: 900}
	s.scraper.EXPECT().ScrapeCategory(gomock.Any(), "auto", 50, query).Return(scraped("auto", "1", "2"), nil)
	s.scraper.EXPECT().ScrapeCategory(gomock.Any(), "sport", 50, query).Return(scraped("sport", "3"), nil)

	s.publisher.EXPECT().PublishBatch(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, batch *domain.ListingBatch) error {
			s.Equal("run-1", batch.RunToken)
			return nil
		}).Times(2)

	s.listings.EXPECT().UpsertBatch(gomock.Any(), int64(7), sampleListings("auto", "1", "2")).Return(2, nil)
	s.listings.EXPECT().UpsertBatch(gomock.Any(), int64(7), sampleListings("sport", "3")).Return(1, nil)
	s.runs.EXPECT().Finalize(gomock.Any(), int64(7), domain.RunStatusCompleted, 3).Return(nil)

	stats, err := s.newService().Harvest(ctx, "run-1")

	s.Require().NoError(err)
	s.Equal(int64(7), stats.RunID)
	s.Equal(3, stats.Total)
	s.False(stats.ScrapeOnly)
	s.Require().Len(stats.Categories, 2)
	s.True(stats.Categories[0].Persisted)
	s.True(stats.Categories[0].Published)
	s.Equal(2, stats.Categories[0].Listings)
}

func (s *HarvestServiceTestSuite) TestHarvest_EnrichesWhenDetailed() {
	ctx := context.Background()
	s.cfg.IncludeDetailedData = utils.Ptr(true)

	enriched := sampleListings("auto", "1", "2")
	enriched[0].Phone = utils.Ptr("777 123 456")

	s.expectRun(1)
	s.scraper.EXPECT().ScrapeCategory(gomock.Any(), "auto", 50, bazos.Query{}).Return(scraped("auto", "1", "2"), nil)
	s.scraper.EXPECT().Enrich(gomock.Any(), sampleListings("auto", "1", "2")).Return(enriched, 1)
	s.publisher.EXPECT().PublishBatch(gomock.Any(), gomock.Any()).Return(nil)
	s.listings.EXPECT().UpsertBatch(gomock.Any(), int64(1), enriched).Return(2, nil)
	s.runs.EXPECT().Finalize(gomock.Any(), int64(1), domain.RunStatusCompleted, 2).Return(nil)

	stats, err := s.newService().Harvest(ctx, "run-1")

	s.Require().NoError(err)
	s.Equal(1, stats.Categories[0].Enriched)
}

func (s *HarvestServiceTestSuite) TestHarvest_ScrapeOnlyWhenRunCannotBeRegistered() {
	ctx := context.Background()

	s.runs.EXPECT().CreateOrReuse(gomock.Any(), gomock.Any()).Return(int64(0), errors.New("connection refused"))
	s.scraper.EXPECT().ScrapeCategory(gomock.Any(), "auto", 50, bazos.Query{}).Return(scraped("auto", "1"), nil)
	s.publisher.EXPECT().PublishBatch(gomock.Any(), gomock.Any()).Return(nil)

	stats, err := s.newService().Harvest(ctx, "run-1")

	s.Require().NoError(err)
	s.True(stats.ScrapeOnly)
	s.Equal(1, stats.Total)
	s.False(stats.Categories[0].Persisted)
	s.True(stats.Categories[0].Published)
}

func (s *HarvestServiceTestSuite) TestHarvest_NoStorage() {
	ctx := context.Background()
	service := NewHarvestService(s.scraper, nil, nil, s.logger, s.cfg, nil)

	s.scraper.EXPECT().ScrapeCategory(gomock.Any(), "auto", 50, bazos.Query{}).Return(scraped("auto", "1", "2"), nil)

	stats, err := service.Harvest(ctx, "run-1")

	s.Require().NoError(err)
	s.True(stats.ScrapeOnly)
	s.Equal(2, stats.Total)
}

func (s *HarvestServiceTestSuite) TestHarvest_RefreshesPoolEveryThirdCategory() {
	ctx := context.Background()
	s.cfg.Categories = []string{"auto", "deti", "dum", "elektro", "foto", "hudba", "knihy"}

	s.expectRun(1)
	for _, c := range s.cfg.Categories {
		s.scraper.EXPECT().ScrapeCategory(gomock.Any(), c, 50, bazos.Query{}).Return(&bazos.CategoryResult{Category: c}, nil)
	}
	s.pool.EXPECT().Refresh(gomock.Any()).Return(nil).Times(2)
	s.runs.EXPECT().Finalize(gomock.Any(), int64(1), domain.RunStatusCompleted, 0).Return(nil)

	stats, err := s.newService().Harvest(ctx, "run-1")

	s.Require().NoError(err)
	s.Len(stats.Categories, 7)
}

func (s *HarvestServiceTestSuite) TestHarvest_RetriesStoreOnceAfterConnectivityFailure() {
	ctx := context.Background()
	connErr := fmt.Errorf("upsert listings: %w", domain.ErrConnectivity)

	s.expectRun(1)
	s.scraper.EXPECT().ScrapeCategory(gomock.Any(), "auto", 50, bazos.Query{}).Return(scraped("auto", "1"), nil)
	s.publisher.EXPECT().PublishBatch(gomock.Any(), gomock.Any()).Return(nil)
	gomock.InOrder(
		s.listings.EXPECT().UpsertBatch(gomock.Any(), int64(1), gomock.Any()).Return(0, connErr),
		s.pool.EXPECT().Refresh(gomock.Any()).Return(nil),
		s.listings.EXPECT().UpsertBatch(gomock.Any(), int64(1), gomock.Any()).Return(1, nil),
	)
	s.runs.EXPECT().Finalize(gomock.Any(), int64(1), domain.RunStatusCompleted, 1).Return(nil)

	stats, err := s.newService().Harvest(ctx, "run-1")

	s.Require().NoError(err)
	s.True(stats.Categories[0].Persisted)
}

func (s *HarvestServiceTestSuite) TestHarvest_DoesNotRetryDeterministicStoreFailure() {
	ctx := context.Background()

	s.expectRun(1)
	s.scraper.EXPECT().ScrapeCategory(gomock.Any(), "auto", 50, bazos.Query{}).Return(scraped("auto", "1"), nil)
	s.publisher.EXPECT().PublishBatch(gomock.Any(), gomock.Any()).Return(nil)
	s.listings.EXPECT().UpsertBatch(gomock.Any(), int64(1), gomock.Any()).Return(0, errors.New("value too long"))
	s.runs.EXPECT().Finalize(gomock.Any(), int64(1), domain.RunStatusCompleted, 1).Return(nil)

	stats, err := s.newService().Harvest(ctx, "run-1")

	s.Require().NoError(err)
	s.False(stats.Categories[0].Persisted)
}

func (s *HarvestServiceTestSuite) TestHarvest_SkipsUnknownCategory() {
	ctx := context.Background()
	s.cfg.Categories = []string{"spaceships", "auto"}

	s.expectRun(1)
	s.scraper.EXPECT().ScrapeCategory(gomock.Any(), "spaceships", 50, bazos.Query{}).Return(nil, bazos.ErrUnknownCategory)
	s.scraper.EXPECT().ScrapeCategory(gomock.Any(), "auto", 50, bazos.Query{}).Return(scraped("auto", "1"), nil)
	s.publisher.EXPECT().PublishBatch(gomock.Any(), gomock.Any()).Return(nil)
	s.listings.EXPECT().UpsertBatch(gomock.Any(), int64(1), gomock.Any()).Return(1, nil)
	s.runs.EXPECT().Finalize(gomock.Any(), int64(1), domain.RunStatusCompleted, 1).Return(nil)

	stats, err := s.newService().Harvest(ctx, "run-1")

	s.Require().NoError(err)
	s.Require().Len(stats.Categories, 2)
	s.ErrorIs(stats.Categories[0].Err, bazos.ErrUnknownCategory)
	s.Equal(1, stats.Total)
}

func (s *HarvestServiceTestSuite) TestHarvest_KeepsPartialCategoryResults() {
	ctx := context.Background()
	pageErr := &bazos.FetchError{URL: "https://auto.bazos.cz/20/", Kind: bazos.FetchStatus, StatusCode: 503}

	result := scraped("auto", "1", "2")
	result.Stop = bazos.StopFetchFailed
	result.Err = pageErr

	s.expectRun(1)
	s.scraper.EXPECT().ScrapeCategory(gomock.Any(), "auto", 50, bazos.Query{}).Return(result, nil)
	s.publisher.EXPECT().PublishBatch(gomock.Any(), gomock.Any()).Return(nil)
	s.listings.EXPECT().UpsertBatch(gomock.Any(), int64(1), gomock.Any()).Return(2, nil)
	s.runs.EXPECT().Finalize(gomock.Any(), int64(1), domain.RunStatusCompleted, 2).Return(nil)

	stats, err := s.newService().Harvest(ctx, "run-1")

	s.Require().NoError(err)
	s.True(stats.Categories[0].Persisted)
	s.ErrorIs(stats.Categories[0].Err, pageErr)
}

func (s *HarvestServiceTestSuite) TestHarvest_PublishFailureDoesNotBlockStore() {
	ctx := context.Background()

	s.expectRun(1)
	s.scraper.EXPECT().ScrapeCategory(gomock.Any(), "auto", 50, bazos.Query{}).Return(scraped("auto", "1"), nil)
	s.publisher.EXPECT().PublishBatch(gomock.Any(), gomock.Any()).Return(errors.New("channel closed"))
	s.listings.EXPECT().UpsertBatch(gomock.Any(), int64(1), gomock.Any()).Return(1, nil)
	s.runs.EXPECT().Finalize(gomock.Any(), int64(1), domain.RunStatusCompleted, 1).Return(nil)

	stats, err := s.newService().Harvest(ctx, "run-1")

	s.Require().NoError(err)
	s.False(stats.Categories[0].Published)
	s.True(stats.Categories[0].Persisted)
}

func (s *HarvestServiceTestSuite) TestHarvest_CancelledRunIsMarkedFailed() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.cfg.Categories = []string{"auto", "sport"}

	s.expectRun(1)
	s.scraper.EXPECT().ScrapeCategory(gomock.Any(), "auto", 50, bazos.Query{}).
		DoAndReturn(func(context.Context, string, int, bazos.Query) (*bazos.CategoryResult, error) {
			cancel()
			return scraped("auto", "1"), nil
		})
	s.publisher.EXPECT().PublishBatch(gomock.Any(), gomock.Any()).Return(nil)
	s.listings.EXPECT().UpsertBatch(gomock.Any(), int64(1), gomock.Any()).Return(1, nil)
	s.runs.EXPECT().Finalize(gomock.Any(), int64(1), domain.RunStatusFailed, 1).
		DoAndReturn(func(ctx context.Context, _ int64, _ domain.RunStatus, _ int) error {
			s.NoError(ctx.Err())
			return nil
		})

	stats, err := s.newService().Harvest(ctx, "run-1")

	s.ErrorIs(err, context.Canceled)
	s.Len(stats.Categories, 1)
}

func (s *HarvestServiceTestSuite) TestHarvest_FinalizeFailureIsReturned() {
	ctx := context.Background()

	s.expectRun(1)
	s.scraper.EXPECT().ScrapeCategory(gomock.Any(), "auto", 50, bazos.Query{}).Return(&bazos.CategoryResult{Category: "auto"}, nil)
	s.runs.EXPECT().Finalize(gomock.Any(), int64(1), domain.RunStatusCompleted, 0).Return(errors.New("run not found"))

	stats, err := s.newService().Harvest(ctx, "run-1")

	s.Error(err)
	s.NotNil(stats)
}
