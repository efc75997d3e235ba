package app

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"whatflower/internal/domain/entity"
	"whatflower/internal/infrastructure/storage"
)

type fakeClassifier struct {
	result *entity.ClassificationResult
	err    error

	mu    sync.Mutex
	calls int

	// entered получает сигнал при каждом входе в Classify, block задерживает возврат.
	entered chan struct{}
	block   chan struct{}
}

func (f *fakeClassifier) Classify(ctx context.Context, imageData []byte) (*entity.ClassificationResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	return f.result, f.err
}

func (f *fakeClassifier) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeEncyclopedia struct {
	info *entity.FlowerInfo
	err  error

	mu     sync.Mutex
	titles []string
}

func (f *fakeEncyclopedia) Summary(ctx context.Context, title string) (*entity.FlowerInfo, error) {
	f.mu.Lock()
	f.titles = append(f.titles, title)
	f.mu.Unlock()
	return f.info, f.err
}

type fakeInspector struct{ err error }

func (f fakeInspector) Check(ctx context.Context, imageData []byte) error { return f.err }

func newTestService(c *fakeClassifier, e *fakeEncyclopedia, ins *fakeInspector) (*IdentificationService, *storage.MemoryUserRepository) {
	users := storage.NewMemoryUserRepository()
	lookups := storage.NewMemoryLookupRepository()
	svc := NewIdentificationService(NewUserService(users), c, e, nil, lookups)
	if ins != nil {
		svc.inspector = *ins
	}
	return svc, users
}

func ranked(items ...entity.Classification) *entity.ClassificationResult {
	return entity.NewClassificationResult(items)
}

func TestIdentify_TopLabelAndSummary(t *testing.T) {
	c := &fakeClassifier{result: ranked(
		entity.Classification{Label: "sunflower", Confidence: 0.2},
		entity.Classification{Label: "pink primrose", Confidence: 0.7},
	)}
	e := &fakeEncyclopedia{info: &entity.FlowerInfo{
		PageID:       "2425718",
		Extract:      "Oenothera speciosa is a species of flowering plant.",
		ThumbnailURL: "https://upload.wikimedia.org/x.jpg",
	}}
	svc, users := newTestService(c, e, nil)
	ctx := context.Background()

	ident, err := svc.Identify(ctx, 1, 10, []byte("jpeg"))
	require.NoError(t, err)
	require.Equal(t, "pink primrose", ident.Label)
	require.Equal(t, "Pink Primrose", ident.Title)
	require.True(t, ident.Described)
	require.Equal(t, "https://upload.wikimedia.org/x.jpg", ident.Info.ThumbnailURL)
	require.Equal(t, []string{"pink primrose"}, e.titles)

	user, err := users.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, user.State)

	history, err := svc.History(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, "2425718", history[0].PageID)
}

func TestIdentify_EncyclopediaFailureIsNotFatal(t *testing.T) {
	c := &fakeClassifier{result: ranked(entity.Classification{Label: "daisy", Confidence: 0.9})}
	e := &fakeEncyclopedia{err: errors.New("connection refused")}
	svc, _ := newTestService(c, e, nil)

	ident, err := svc.Identify(context.Background(), 1, 10, []byte("jpeg"))
	require.NoError(t, err)
	require.Equal(t, "Daisy", ident.Title)
	require.False(t, ident.Described)
	require.Empty(t, ident.Info.Extract)
}

func TestIdentify_MissingPageIsNotDescribed(t *testing.T) {
	c := &fakeClassifier{result: ranked(entity.Classification{Label: "moon orchid", Confidence: 0.4})}
	e := &fakeEncyclopedia{info: &entity.FlowerInfo{PageID: "-1", Missing: true}}
	svc, _ := newTestService(c, e, nil)

	ident, err := svc.Identify(context.Background(), 1, 10, []byte("jpeg"))
	require.NoError(t, err)
	require.False(t, ident.Described)
}

func TestIdentify_NoClassification(t *testing.T) {
	c := &fakeClassifier{result: ranked()}
	e := &fakeEncyclopedia{}
	svc, users := newTestService(c, e, nil)
	ctx := context.Background()

	_, err := svc.Identify(ctx, 1, 10, []byte("jpeg"))
	require.ErrorIs(t, err, entity.ErrNoClassification)
	require.Empty(t, e.titles)

	user, err := users.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, user.State)
}

func TestIdentify_ClassifierError(t *testing.T) {
	c := &fakeClassifier{err: errors.New("inference failed")}
	svc, _ := newTestService(c, &fakeEncyclopedia{}, nil)

	_, err := svc.Identify(context.Background(), 1, 10, []byte("jpeg"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "inference failed")
}

func TestIdentify_PoorQuality(t *testing.T) {
	c := &fakeClassifier{result: ranked(entity.Classification{Label: "daisy", Confidence: 0.9})}
	svc, _ := newTestService(c, &fakeEncyclopedia{}, &fakeInspector{err: errors.New("image is blurry")})

	_, err := svc.Identify(context.Background(), 1, 10, []byte("jpeg"))
	require.ErrorIs(t, err, ErrPoorQuality)
	require.Zero(t, c.callCount())
}

func TestIdentify_InputValidation(t *testing.T) {
	svc, _ := newTestService(&fakeClassifier{}, &fakeEncyclopedia{}, nil)
	_, err := svc.Identify(context.Background(), 1, 10, nil)
	require.ErrorIs(t, err, ErrEmptyPhoto)

	noModel := NewIdentificationService(NewUserService(storage.NewMemoryUserRepository()), nil, nil, nil, nil)
	_, err = noModel.Identify(context.Background(), 1, 10, []byte("jpeg"))
	require.ErrorIs(t, err, ErrClassifierNotConfigured)
}

func blockingClassifier() *fakeClassifier {
	return &fakeClassifier{
		result:  ranked(entity.Classification{Label: "daisy", Confidence: 0.9}),
		entered: make(chan struct{}, 8),
		block:   make(chan struct{}),
	}
}

func TestIdentify_RejectsConcurrentPhoto(t *testing.T) {
	c := blockingClassifier()
	svc, _ := newTestService(c, &fakeEncyclopedia{info: &entity.FlowerInfo{}}, nil)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := svc.Identify(ctx, 1, 10, []byte("first"))
		done <- err
	}()

	<-c.entered
	_, err := svc.Identify(ctx, 1, 10, []byte("second"))
	require.ErrorIs(t, err, ErrBusy)

	close(c.block)
	require.NoError(t, <-done)

	_, err = svc.Identify(ctx, 1, 10, []byte("third"))
	require.NoError(t, err)
}

func TestIdentify_ResetDuringProcessingKeepsGuard(t *testing.T) {
	c := blockingClassifier()
	svc, users := newTestService(c, &fakeEncyclopedia{info: &entity.FlowerInfo{}}, nil)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := svc.Identify(ctx, 1, 10, []byte("first"))
		done <- err
	}()

	<-c.entered
	user, err := svc.users.Reset(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateProcessing, user.State)

	_, err = svc.Identify(ctx, 1, 10, []byte("second"))
	require.ErrorIs(t, err, ErrBusy)

	close(c.block)
	require.NoError(t, <-done)

	user, err = users.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, user.State)
}

func TestIdentifyAnonymous_ConcurrentCallsDoNotBlockEachOther(t *testing.T) {
	c := blockingClassifier()
	svc, users := newTestService(c, &fakeEncyclopedia{info: &entity.FlowerInfo{}}, nil)
	ctx := context.Background()

	first := make(chan error, 1)
	go func() {
		_, err := svc.IdentifyAnonymous(ctx, []byte("client a"))
		first <- err
	}()
	<-c.entered

	second := make(chan error, 1)
	go func() {
		_, err := svc.IdentifyAnonymous(ctx, []byte("client b"))
		second <- err
	}()

	// Второй клиент входит в Classify, пока первый ещё там.
	<-c.entered
	require.Equal(t, 2, c.callCount())

	close(c.block)
	require.NoError(t, <-first)
	require.NoError(t, <-second)

	// Анонимные запросы не занимают пользователя 0 и не пишут историю.
	ok, err := users.TryBegin(ctx, 0, 0)
	require.NoError(t, err)
	require.True(t, ok)

	history, err := svc.History(ctx, 0, 10)
	require.NoError(t, err)
	require.Empty(t, history)
}

func TestIdentifyAnonymous_Validation(t *testing.T) {
	svc, _ := newTestService(&fakeClassifier{}, &fakeEncyclopedia{}, nil)
	_, err := svc.IdentifyAnonymous(context.Background(), nil)
	require.ErrorIs(t, err, ErrEmptyPhoto)
}

func TestHistory_WithoutRepository(t *testing.T) {
	svc := NewIdentificationService(NewUserService(storage.NewMemoryUserRepository()), nil, nil, nil, nil)
	got, err := svc.History(context.Background(), 1, 5)
	require.NoError(t, err)
	require.Empty(t, got)
}
