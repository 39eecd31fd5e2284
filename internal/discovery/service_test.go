package discovery_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/lead-manager/internal/discovery"
	"github.com/jonesrussell/north-cloud/lead-manager/internal/events"
	"github.com/jonesrussell/north-cloud/lead-manager/internal/models"
	"github.com/jonesrussell/north-cloud/lead-manager/internal/repository"
	"github.com/jonesrussell/north-cloud/lead-manager/internal/testhelpers"
)

var fixedNow = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

// memSources is an in-memory SourceStore.
type memSources struct {
	mu      sync.Mutex
	sources map[string]*models.DiscoverySource
}

func newMemSources(sources ...models.DiscoverySource) *memSources {
	m := &memSources{sources: map[string]*models.DiscoverySource{}}
	for i := range sources {
		s := sources[i]
		m.sources[s.ID] = &s
	}
	return m
}

func (m *memSources) GetByID(_ context.Context, id string) (*models.DiscoverySource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sources[id]
	if !ok {
		return nil, fmt.Errorf("source %s: %w", id, repository.ErrNotFound)
	}
	cp := *s
	return &cp, nil
}

func (m *memSources) ListDue(_ context.Context, now time.Time) ([]models.DiscoverySource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var due []models.DiscoverySource
	for _, s := range m.sources {
		if s.IsActive && (s.NextCrawl == nil || !s.NextCrawl.After(now)) {
			due = append(due, *s)
		}
	}
	return due, nil
}

func (m *memSources) UpdateCrawlTimes(_ context.Context, id string, last, next time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sources[id]
	if !ok {
		return repository.ErrNotFound
	}
	s.LastCrawled = &last
	s.NextCrawl = &next
	return nil
}

// memStaged is an in-memory StagedLeadStore.
type memStaged struct {
	mu    sync.Mutex
	leads map[string]*models.StagedLead
	order []string
}

func newMemStaged() *memStaged {
	return &memStaged{leads: map[string]*models.StagedLead{}}
}

func (m *memStaged) ExistsByEmailAndSourceURL(_ context.Context, email, sourceURL string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.leads {
		if l.Email == email && l.SourceURL == sourceURL {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStaged) Create(_ context.Context, lead *models.StagedLead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	lead.ID = fmt.Sprintf("lead-%d", len(m.order)+1)
	cp := *lead
	m.leads[lead.ID] = &cp
	m.order = append(m.order, lead.ID)
	return nil
}

func (m *memStaged) GetByID(_ context.Context, id string) (*models.StagedLead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leads[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *memStaged) transition(id string, to models.DiscoveryStatus, leadID *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leads[id]
	if !ok {
		return repository.ErrNotFound
	}
	if l.DiscoveryStatus != models.DiscoveryPending {
		return repository.ErrStatusConflict
	}
	l.DiscoveryStatus = to
	l.ImportedLeadID = leadID
	return nil
}

func (m *memStaged) MarkImported(_ context.Context, id, leadID string) error {
	return m.transition(id, models.DiscoveryImported, &leadID)
}

func (m *memStaged) MarkIgnored(_ context.Context, id string) error {
	return m.transition(id, models.DiscoveryIgnored, nil)
}

func (m *memStaged) all() []models.StagedLead {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.StagedLead, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.leads[id])
	}
	return out
}

type mockLeadStore struct {
	mock.Mock
}

func (m *mockLeadStore) Create(ctx context.Context, input models.LeadInput) (string, error) {
	args := m.Called(ctx, input)
	return args.String(0), args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishAsync(event events.DiscoveryEvent) {
	m.Called(event)
}

func websiteSource(id, url string) models.DiscoverySource {
	return models.DiscoverySource{
		ID:             id,
		Name:           "Example",
		SourceType:     models.SourceTypeWebsite,
		SourceURL:      url,
		IsActive:       true,
		CrawlFrequency: models.CrawlMonthly,
		CrawlSettings:  models.CrawlSettings{},
	}
}

// staticExtractor returns the website heuristics applied to a fixed page.
func staticExtractor(page string) discovery.Extractors {
	return discovery.Extractors{
		models.SourceTypeWebsite: discovery.ExtractorFunc(
			func(_ context.Context, sourceURL string, _ models.CrawlSettings) ([]models.Candidate, error) {
				return discovery.ParseWebsite(sourceURL, []byte(page)), nil
			}),
	}
}

func newService(
	sources *memSources, staged *memStaged, leads discovery.LeadStore, extractors discovery.Extractors,
	opts ...discovery.Option,
) *discovery.Service {
	opts = append([]discovery.Option{discovery.WithClock(func() time.Time { return fixedNow })}, opts...)
	return discovery.NewService(sources, staged, leads, extractors, testhelpers.NewTestLogger(), opts...)
}

func TestService_Run_StagesAndSchedules(t *testing.T) {
	t.Parallel()

	sources := newMemSources(websiteSource("src-1", "http://example.test"))
	staged := newMemStaged()
	svc := newService(sources, staged, nil, staticExtractor(twoEmailPage))

	result, err := svc.Run(context.Background(), "src-1")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Discovered)
	assert.Equal(t, 2, result.Staged)
	assert.Zero(t, result.Skipped)
	assert.Equal(t, fixedNow, result.LastCrawled)
	assert.Equal(t, fixedNow.Add(30*24*time.Hour), result.NextCrawl)

	leads := staged.all()
	require.Len(t, leads, 2)
	assert.Equal(t, "Jane Doe", leads[0].Name)
	assert.Equal(t, 90, leads[0].ConfidenceScore)
	assert.Equal(t, 70, leads[1].ConfidenceScore)
	for _, l := range leads {
		assert.Equal(t, models.DiscoveryPending, l.DiscoveryStatus)
		assert.Equal(t, "src-1", l.SourceID)
		assert.Equal(t, "http://example.test", l.SourceURL)
		assert.Equal(t, models.SourceTypeWebsite, l.SourceType)
		assert.Contains(t, string(l.RawData), l.Email)
	}

	source, err := sources.GetByID(context.Background(), "src-1")
	require.NoError(t, err)
	require.NotNil(t, source.LastCrawled)
	require.NotNil(t, source.NextCrawl)
	assert.Equal(t, source.LastCrawled.Add(30*24*time.Hour), *source.NextCrawl)
}

func TestService_Run_IsIdempotent(t *testing.T) {
	t.Parallel()

	sources := newMemSources(websiteSource("src-1", "http://example.test"))
	staged := newMemStaged()
	svc := newService(sources, staged, nil, staticExtractor(twoEmailPage))

	_, err := svc.Run(context.Background(), "src-1")
	require.NoError(t, err)

	second, err := svc.Run(context.Background(), "src-1")
	require.NoError(t, err)
	assert.Zero(t, second.Staged)
	assert.Equal(t, 2, second.Skipped)
	assert.Len(t, staged.all(), 2)
}

func TestService_Run_DedupKeyIsEmailAndSourceURL(t *testing.T) {
	t.Parallel()

	sources := newMemSources(
		websiteSource("src-1", "http://example.test"),
		websiteSource("src-2", "http://example.test/contact"),
	)
	staged := newMemStaged()
	svc := newService(sources, staged, nil, staticExtractor(`reach us: jane@example.test`))

	for _, id := range []string{"src-1", "src-2"} {
		result, err := svc.Run(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Staged, id)
	}
	assert.Len(t, staged.all(), 2)
}

func TestService_Run_Errors(t *testing.T) {
	t.Parallel()

	inactive := websiteSource("src-off", "http://example.test")
	inactive.IsActive = false
	api := websiteSource("src-api", "http://api.example.test")
	api.SourceType = models.SourceTypeAPI
	failing := websiteSource("src-fail", "http://down.example.test")

	extractErr := &discovery.TransportError{URL: failing.SourceURL, Err: errors.New("connection refused")}
	extractors := discovery.Extractors{
		models.SourceTypeWebsite: discovery.ExtractorFunc(
			func(context.Context, string, models.CrawlSettings) ([]models.Candidate, error) {
				return nil, extractErr
			}),
	}

	sources := newMemSources(inactive, api, failing)
	svc := newService(sources, newMemStaged(), nil, extractors)
	ctx := context.Background()

	t.Run("missing source", func(t *testing.T) {
		_, err := svc.Run(ctx, "nope")
		require.ErrorIs(t, err, discovery.ErrSourceNotFound)
		assert.NotErrorIs(t, err, discovery.ErrSourceInactive)
	})

	t.Run("inactive source also matches not found", func(t *testing.T) {
		_, err := svc.Run(ctx, "src-off")
		require.ErrorIs(t, err, discovery.ErrSourceInactive)
		require.ErrorIs(t, err, discovery.ErrSourceNotFound)
	})

	t.Run("no extractor registered", func(t *testing.T) {
		_, err := svc.Run(ctx, "src-api")
		require.ErrorIs(t, err, discovery.ErrUnsupportedSourceType)
	})

	t.Run("extractor failure leaves schedule untouched", func(t *testing.T) {
		_, err := svc.Run(ctx, "src-fail")
		require.ErrorIs(t, err, discovery.ErrTransport)

		source, getErr := sources.GetByID(ctx, "src-fail")
		require.NoError(t, getErr)
		assert.Nil(t, source.LastCrawled)
		assert.Nil(t, source.NextCrawl)
	})
}

func TestService_Run_PublishesCompletion(t *testing.T) {
	t.Parallel()

	pub := &mockPublisher{}
	pub.On("PublishAsync", mock.MatchedBy(func(e events.DiscoveryEvent) bool {
		payload, ok := e.Payload.(events.RunCompletedPayload)
		return e.EventType == events.DiscoveryRunCompleted && e.SourceID == "src-1" && ok && payload.Staged == 2
	})).Once()

	sources := newMemSources(websiteSource("src-1", "http://example.test"))
	svc := newService(sources, newMemStaged(), nil, staticExtractor(twoEmailPage), discovery.WithPublisher(pub))

	_, err := svc.Run(context.Background(), "src-1")
	require.NoError(t, err)
	pub.AssertExpectations(t)
}

func TestService_RunDue(t *testing.T) {
	t.Parallel()

	future := fixedNow.Add(time.Hour)
	past := fixedNow.Add(-time.Minute)

	notDue := websiteSource("src-later", "http://later.example.test")
	notDue.NextCrawl = &future
	due := websiteSource("src-due", "http://due.example.test")
	due.NextCrawl = &past
	never := websiteSource("src-new", "http://new.example.test")
	broken := websiteSource("src-broken", "http://broken.example.test")
	broken.SourceType = models.SourceTypeSocialMedia

	sources := newMemSources(notDue, due, never, broken)
	svc := newService(sources, newMemStaged(), nil, staticExtractor(`hello@example.test`))

	result, err := svc.RunDue(context.Background())
	require.NoError(t, err)
	assert.Len(t, result.Runs, 2)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "src-broken", result.Failures[0].SourceID)

	later, err := sources.GetByID(context.Background(), "src-later")
	require.NoError(t, err)
	assert.Nil(t, later.LastCrawled)
}

func stagedFixture(t *testing.T) (*memStaged, string) {
	t.Helper()

	staged := newMemStaged()
	source := websiteSource("src-1", "http://example.test")
	lead := models.NewStagedLead(models.Candidate{
		Name:    "Jane Doe",
		Email:   "jane@example.test",
		Company: "example.test",
		Website: "http://example.test",
		Title:   "Owner",
	}, &source, 90)
	require.NoError(t, staged.Create(context.Background(), lead))
	return staged, lead.ID
}

func TestService_Import(t *testing.T) {
	t.Parallel()

	staged, id := stagedFixture(t)
	leads := &mockLeadStore{}
	leads.On("Create", mock.Anything, mock.MatchedBy(func(in models.LeadInput) bool {
		return in.Email == "jane@example.test" &&
			in.Name == "Jane Doe" &&
			in.Source == models.LeadSourceDiscovery &&
			in.Status == models.LeadStatusNew &&
			in.Priority == models.LeadPriorityMedium &&
			in.AssignedUser == nil &&
			in.Metadata["discovered_lead_id"] == id &&
			in.Metadata["title"] == "Owner"
	})).Return("crm-42", nil).Once()

	pub := &mockPublisher{}
	pub.On("PublishAsync", mock.MatchedBy(func(e events.DiscoveryEvent) bool {
		return e.EventType == events.LeadImported && e.LeadID == "crm-42" && e.DiscoveredLeadID == id
	})).Once()

	svc := newService(newMemSources(), staged, leads, nil, discovery.WithPublisher(pub))
	ctx := context.Background()

	leadID, err := svc.Import(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "crm-42", leadID)

	lead, err := staged.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.DiscoveryImported, lead.DiscoveryStatus)
	require.NotNil(t, lead.ImportedLeadID)
	assert.Equal(t, "crm-42", *lead.ImportedLeadID)

	_, err = svc.Import(ctx, id)
	require.ErrorIs(t, err, discovery.ErrInvalidTransition)

	leads.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestService_Import_ValidationFailureKeepsPending(t *testing.T) {
	t.Parallel()

	staged, id := stagedFixture(t)
	validationErr := &models.ValidationError{Field: "email", Message: "already exists"}
	leads := &mockLeadStore{}
	leads.On("Create", mock.Anything, mock.Anything).Return("", validationErr).Once()

	svc := newService(newMemSources(), staged, leads, nil)

	_, err := svc.Import(context.Background(), id)
	require.ErrorIs(t, err, validationErr)

	lead, err := staged.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.DiscoveryPending, lead.DiscoveryStatus)
	assert.Nil(t, lead.ImportedLeadID)
}

func TestService_Import_NotFound(t *testing.T) {
	t.Parallel()

	svc := newService(newMemSources(), newMemStaged(), &mockLeadStore{}, nil)
	_, err := svc.Import(context.Background(), "ghost")
	require.ErrorIs(t, err, discovery.ErrLeadNotFound)
}

func TestService_Reject(t *testing.T) {
	t.Parallel()

	staged, id := stagedFixture(t)
	leads := &mockLeadStore{}
	svc := newService(newMemSources(), staged, leads, nil)
	ctx := context.Background()

	require.NoError(t, svc.Reject(ctx, id))

	lead, err := staged.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.DiscoveryIgnored, lead.DiscoveryStatus)

	_, err = svc.Import(ctx, id)
	require.ErrorIs(t, err, discovery.ErrInvalidTransition)
	require.ErrorIs(t, svc.Reject(ctx, id), discovery.ErrInvalidTransition)
	require.ErrorIs(t, svc.Reject(ctx, "ghost"), discovery.ErrLeadNotFound)

	leads.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestService_BulkImport(t *testing.T) {
	t.Parallel()

	staged, first := stagedFixture(t)
	source := websiteSource("src-1", "http://example.test")
	second := models.NewStagedLead(models.Candidate{Email: "bob@example.test"}, &source, 50)
	require.NoError(t, staged.Create(context.Background(), second))

	leads := &mockLeadStore{}
	leads.On("Create", mock.Anything, mock.MatchedBy(func(in models.LeadInput) bool {
		return in.Email == "jane@example.test"
	})).Return("crm-1", nil)
	leads.On("Create", mock.Anything, mock.MatchedBy(func(in models.LeadInput) bool {
		return in.Email == "bob@example.test"
	})).Return("", &models.ValidationError{Field: "email", Message: "already exists"})

	svc := newService(newMemSources(), staged, leads, nil)
	result := svc.BulkImport(context.Background(), []string{first, second.ID, "ghost"})

	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 2, result.Failed)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, second.ID, result.Errors[0].ID)
	assert.Equal(t, "ghost", result.Errors[1].ID)

	kept, err := staged.GetByID(context.Background(), first)
	require.NoError(t, err)
	assert.Equal(t, models.DiscoveryImported, kept.DiscoveryStatus)
}

func TestBuildLeadInput(t *testing.T) {
	t.Parallel()

	in := discovery.BuildLeadInput(&models.StagedLead{
		ID:       "lead-7",
		Name:     "Jane",
		Email:    "jane@example.test",
		Phone:    "705-555-0101",
		Company:  "example.test",
		Website:  "http://example.test",
		Location: "Sudbury",
		Title:    "Owner",
	})

	assert.Equal(t, models.LeadInput{
		Name:     "Jane",
		Email:    "jane@example.test",
		Phone:    "705-555-0101",
		Source:   "discovery",
		Status:   "new",
		Priority: "medium",
		Metadata: map[string]string{
			"company":            "example.test",
			"website":            "http://example.test",
			"location":           "Sudbury",
			"title":              "Owner",
			"discovered_lead_id": "lead-7",
		},
	}, in)
}
