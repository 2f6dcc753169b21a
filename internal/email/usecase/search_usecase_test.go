package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	emaildomain "mail-assistant-backend/internal/email/domain"
	"mail-assistant-backend/internal/email/repository"
)

type fakeSearchEmailRepo struct {
	fakeSummaryRepo
	emails map[uint32]*emaildomain.Email
}

func (f *fakeSearchEmailRepo) GetByUID(_ string, uid uint32) (*emaildomain.Email, error) {
	return f.emails[uid], nil
}

type fakeVectorRepo struct {
	matches []repository.ChunkMatch
	lastK   int
}

func (f *fakeVectorRepo) InsertChunks(uint32, [][]float32) error { return nil }
func (f *fakeVectorRepo) DeleteByUID(uint32) error               { return nil }
func (f *fakeVectorRepo) SearchNearest(_ []float32, _ string, k int) ([]repository.ChunkMatch, error) {
	f.lastK = k
	if len(f.matches) > k {
		return f.matches[:k], nil
	}
	return f.matches, nil
}

type fakeEmbedder struct{}

func (fakeEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

func (fakeEmbedder) Dimension() int { return 3 }

func TestDedupMatchesKeepsBestChunkPerMessage(t *testing.T) {
	matches := []repository.ChunkMatch{
		{UID: 1, Distance: 0.5},
		{UID: 2, Distance: 0.3},
		{UID: 1, Distance: 0.2},
	}

	deduped := DedupMatches(matches, 5)
	require.Len(t, deduped, 2)
	assert.Equal(t, repository.ChunkMatch{UID: 1, Distance: 0.2}, deduped[0])
	assert.Equal(t, repository.ChunkMatch{UID: 2, Distance: 0.3}, deduped[1])
}

func TestDedupMatchesTruncatesToTopK(t *testing.T) {
	matches := []repository.ChunkMatch{
		{UID: 1, Distance: 0.1},
		{UID: 2, Distance: 0.2},
		{UID: 3, Distance: 0.3},
	}

	deduped := DedupMatches(matches, 2)
	require.Len(t, deduped, 2)
	assert.Equal(t, uint32(1), deduped[0].UID)
	assert.Equal(t, uint32(2), deduped[1].UID)
}

func TestSearchRanksDistinctMessages(t *testing.T) {
	date := time.Date(2025, 9, 1, 9, 30, 0, 0, time.Local)
	emailRepo := &fakeSearchEmailRepo{emails: map[uint32]*emaildomain.Email{
		1: {UID: 1, Subject: "JVM工具", Sender: "dev@example.com", Date: date},
		2: {UID: 2, Subject: "堡垒机报价", Sender: "sales@example.com", Date: date},
	}}
	attrRepo := newFakeAttributeRepo()
	require.NoError(t, attrRepo.Upsert(&emaildomain.EmailAttribute{UID: 1, Gist: "安装JVM工具"}))

	vectorRepo := &fakeVectorRepo{matches: []repository.ChunkMatch{
		{UID: 1, Distance: 0.5},
		{UID: 2, Distance: 0.3},
		{UID: 1, Distance: 0.2},
	}}

	uc := NewSearchUsecase(emailRepo, attrRepo, vectorRepo, fakeEmbedder{})
	results, err := uc.Search(context.Background(), "jvm 监控", "", 5)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, uint32(1), results[0].UID)
	assert.Equal(t, 0.2, results[0].Distance)
	assert.Equal(t, "安装JVM工具", results[0].Gist)
	assert.Equal(t, "2025-09-01 09:30:00", results[0].Date)
	assert.Equal(t, uint32(2), results[1].UID)
	assert.Empty(t, results[1].Gist)

	// The chunk pass over-fetches so dedup can still fill topK.
	assert.Equal(t, 5*searchOverfetch, vectorRepo.lastK)
}

func TestSearchSkipsOrphanedIndexRows(t *testing.T) {
	emailRepo := &fakeSearchEmailRepo{emails: map[uint32]*emaildomain.Email{
		2: {UID: 2, Subject: "堡垒机报价", Date: time.Now()},
	}}
	vectorRepo := &fakeVectorRepo{matches: []repository.ChunkMatch{
		{UID: 1, Distance: 0.1},
		{UID: 2, Distance: 0.3},
	}}

	uc := NewSearchUsecase(emailRepo, newFakeAttributeRepo(), vectorRepo, fakeEmbedder{})
	results, err := uc.Search(context.Background(), "报价", "", 5)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, uint32(2), results[0].UID)
}

func TestSearchEmptyQuery(t *testing.T) {
	uc := NewSearchUsecase(&fakeSearchEmailRepo{}, newFakeAttributeRepo(), &fakeVectorRepo{}, fakeEmbedder{})
	results, err := uc.Search(context.Background(), "   ", "", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}
