package regenerate

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"regenerate-thumbnails/internal/domain"
	"regenerate-thumbnails/internal/repository/file"
	fsrepo "regenerate-thumbnails/internal/repository/file/fs"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/zlog"
)

type fakeAttachments struct {
	items     []domain.Attachment
	listErr   error
	updateErr error
	updated   map[string]*domain.AttachmentMetadata
}

func (f *fakeAttachments) ListImages(ctx context.Context) ([]domain.Attachment, error) {
	return f.items, f.listErr
}

func (f *fakeAttachments) UpdateMetadata(ctx context.Context, id string, meta *domain.AttachmentMetadata) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if f.updated == nil {
		f.updated = make(map[string]*domain.AttachmentMetadata)
	}
	f.updated[id] = meta
	return nil
}

// fakeProcessor writes one thumbnail per attachment and reports it.
type fakeProcessor struct {
	files *fsrepo.FileRepository
	err   error
	calls int
}

func (f *fakeProcessor) GenerateMetadata(ctx context.Context, att domain.Attachment, source string) (*domain.AttachmentMetadata, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}

	name := "thumb-" + att.ID + ".jpg"
	if err := f.files.Save(ctx, "2024/"+name, bytes.NewReader([]byte("jpeg")), 4, "image/jpeg"); err != nil {
		return nil, err
	}

	return &domain.AttachmentMetadata{
		Width:  1600,
		Height: 1200,
		File:   att.File,
		Sizes: map[string]domain.SizeVariant{
			"thumbnail": {File: name, Width: 150, Height: 150, MimeType: "image/jpeg"},
		},
	}, nil
}

type fakePublisher struct {
	events []domain.RegenerationEvent
	err    error
}

func (f *fakePublisher) PublishRegenerated(ctx context.Context, event domain.RegenerationEvent) error {
	f.events = append(f.events, event)
	return f.err
}

type fixture struct {
	files       *fsrepo.FileRepository
	attachments *fakeAttachments
	processor   *fakeProcessor
	events      *fakePublisher
	usecase     *Usecase
}

func newFixture(t *testing.T, items ...domain.Attachment) *fixture {
	t.Helper()
	zlog.Init()

	files := fsrepo.NewRepository(afero.NewMemMapFs(), &zlog.Logger)
	f := &fixture{
		files:       files,
		attachments: &fakeAttachments{items: items},
		processor:   &fakeProcessor{files: files},
		events:      &fakePublisher{},
	}
	f.usecase = New(f.attachments, f.files, f.processor, f.events, &zlog.Logger)
	return f
}

func (f *fixture) put(t *testing.T, name string) {
	t.Helper()
	require.NoError(t, f.files.Save(context.Background(), name, bytes.NewReader([]byte("data")), 4, "image/jpeg"))
}

func (f *fixture) exists(t *testing.T, name string) bool {
	t.Helper()
	ok, err := f.files.Exists(context.Background(), name)
	require.NoError(t, err)
	return ok
}

func imageAttachment(id, name string) domain.Attachment {
	return domain.Attachment{
		ID:       id,
		Type:     domain.AttachmentType,
		Status:   domain.StatusInherit,
		MimeType: "image/jpeg",
		File:     name,
	}
}

func TestRun(t *testing.T) {
	tests := []struct {
		name    string
		items   []domain.Attachment
		present []string
		found   int
		created int
	}{
		{
			name:    "all regenerated",
			items:   []domain.Attachment{imageAttachment("1", "2024/a.jpg"), imageAttachment("2", "2024/b.jpg"), imageAttachment("3", "2024/c.jpg")},
			present: []string{"2024/a.jpg", "2024/b.jpg", "2024/c.jpg"},
			found:   3,
			created: 3,
		},
		{
			name:    "missing original",
			items:   []domain.Attachment{imageAttachment("1", "2024/a.jpg"), imageAttachment("2", "2024/gone.jpg")},
			present: []string{"2024/a.jpg"},
			found:   2,
			created: 1,
		},
		{
			name:    "empty path",
			items:   []domain.Attachment{imageAttachment("1", "")},
			found:   1,
			created: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.items...)
			for _, name := range tt.present {
				f.put(t, name)
			}

			result, err := f.usecase.Run(context.Background())
			require.NoError(t, err)

			assert.NotEmpty(t, result.ID)
			assert.Equal(t, tt.found, result.Found)
			assert.Equal(t, tt.created, result.Created)
			assert.Len(t, f.attachments.updated, tt.created)
			assert.Len(t, f.events.events, tt.created)
			for _, event := range f.events.events {
				assert.Equal(t, result.ID, event.RunID)
				assert.Equal(t, []string{"thumbnail"}, event.Sizes)
			}
		})
	}
}

func TestRunNoImages(t *testing.T) {
	f := newFixture(t)

	result, err := f.usecase.Run(context.Background())

	assert.ErrorIs(t, err, ErrNoImagesFound)
	require.NotNil(t, result)
	assert.Zero(t, result.Found)
	assert.Zero(t, result.Created)
	assert.Zero(t, f.processor.calls)
}

func TestRunListFailure(t *testing.T) {
	f := newFixture(t)
	f.attachments.listErr = errors.New("connection refused")

	_, err := f.usecase.Run(context.Background())

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoImagesFound)
}

func TestRunStopsOnCancel(t *testing.T) {
	f := newFixture(t, imageAttachment("1", "2024/a.jpg"))
	f.put(t, "2024/a.jpg")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := f.usecase.Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, result.Found)
	assert.Zero(t, result.Created)
}

func TestRunPublishFailureDoesNotFailItem(t *testing.T) {
	f := newFixture(t, imageAttachment("1", "2024/a.jpg"))
	f.put(t, "2024/a.jpg")
	f.events.err = errors.New("broker down")

	result, err := f.usecase.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
}

func TestRecreateImageVariationsReplacesStaleSizes(t *testing.T) {
	att := imageAttachment("1", "2024/a.jpg")
	att.Metadata = &domain.AttachmentMetadata{
		File: "2024/a.jpg",
		Sizes: map[string]domain.SizeVariant{
			"thumbnail": {File: "thumb-1.jpg"},
			"retired":   {File: "a-50x50.jpg"},
		},
	}

	f := newFixture(t, att)
	f.put(t, "2024/a.jpg")
	f.put(t, "2024/thumb-1.jpg")
	f.put(t, "2024/a-50x50.jpg")

	ok := f.usecase.RecreateImageVariations(context.Background(), "run", att, att.OriginalImagePath())
	require.True(t, ok)

	meta := f.attachments.updated["1"]
	require.NotNil(t, meta)
	assert.Equal(t, []string{"thumbnail"}, keys(meta.Sizes))

	assert.True(t, f.exists(t, "2024/a.jpg"))
	assert.True(t, f.exists(t, "2024/thumb-1.jpg"))
	assert.False(t, f.exists(t, "2024/a-50x50.jpg"))

	// the caller's copy is left intact
	assert.Len(t, att.Metadata.Sizes, 2)
}

func TestRecreateImageVariationsFailureKeepsOldState(t *testing.T) {
	tests := []struct {
		name      string
		procErr   error
		updateErr error
	}{
		{name: "processor fails", procErr: errors.New("decode failed")},
		{name: "metadata update fails", updateErr: errors.New("deadlock")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			att := imageAttachment("1", "2024/a.jpg")
			att.Metadata = &domain.AttachmentMetadata{
				Sizes: map[string]domain.SizeVariant{"old": {File: "a-50x50.jpg"}},
			}

			f := newFixture(t, att)
			f.put(t, "2024/a.jpg")
			f.put(t, "2024/a-50x50.jpg")
			f.processor.err = tt.procErr
			f.attachments.updateErr = tt.updateErr

			ok := f.usecase.RecreateImageVariations(context.Background(), "run", att, att.File)

			assert.False(t, ok)
			assert.Empty(t, f.attachments.updated)
			assert.Empty(t, f.events.events)
			assert.True(t, f.exists(t, "2024/a-50x50.jpg"))
		})
	}
}

func TestRemoveSizeVariations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.put(t, "2024/05/a-150x150.jpg")
	f.put(t, "2024/05/a-300x200.jpg")
	f.put(t, "secret.txt")

	newMeta := func() *domain.AttachmentMetadata {
		return &domain.AttachmentMetadata{
			Sizes: map[string]domain.SizeVariant{
				"thumbnail": {File: "a-150x150.jpg"},
				"medium":    {File: "a-300x200.jpg"},
			},
		}
	}

	meta := newMeta()
	require.NoError(t, RemoveSizeVariations(ctx, f.files, "2024/05/a.jpg", meta, nil))
	assert.Empty(t, meta.Sizes)
	assert.False(t, f.exists(t, "2024/05/a-150x150.jpg"))
	assert.False(t, f.exists(t, "2024/05/a-300x200.jpg"))

	// second pass finds nothing to delete and still succeeds
	require.NoError(t, RemoveSizeVariations(ctx, f.files, "2024/05/a.jpg", newMeta(), nil))

	evil := &domain.AttachmentMetadata{
		Sizes: map[string]domain.SizeVariant{"evil": {File: "../../secret.txt"}},
	}
	err := RemoveSizeVariations(ctx, f.files, "2024/05/a.jpg", evil, nil)
	assert.ErrorIs(t, err, file.ErrOutsideDirectory)
	assert.True(t, f.exists(t, "secret.txt"))
	assert.Empty(t, evil.Sizes)

	assert.NoError(t, RemoveSizeVariations(ctx, f.files, "2024/05/a.jpg", nil, nil))
}

func keys(m map[string]domain.SizeVariant) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
