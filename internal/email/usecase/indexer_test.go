package usecase

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	emaildomain "mail-assistant-backend/internal/email/domain"
)

func TestSplitChunksGroupsLines(t *testing.T) {
	lines := make([]string, 12)
	for i := range lines {
		lines[i] = fmt.Sprintf("第%d行", i+1)
	}
	text := strings.Join(lines, "\n")

	chunks := SplitChunks(text, 5)
	require.Len(t, chunks, 3)
	assert.Equal(t, strings.Join(lines[0:5], "\n"), chunks[0])
	assert.Equal(t, strings.Join(lines[5:10], "\n"), chunks[1])
	// The partial tail is kept as its own chunk.
	assert.Equal(t, strings.Join(lines[10:12], "\n"), chunks[2])
}

func TestSplitChunksBlankInput(t *testing.T) {
	assert.Empty(t, SplitChunks("", 5))
	assert.Empty(t, SplitChunks("   \n\n  ", 5))
}

func TestSplitChunksShortInput(t *testing.T) {
	chunks := SplitChunks("主题\n正文", 5)
	require.Len(t, chunks, 1)
	assert.Equal(t, "主题\n正文", chunks[0])
}

type recordingVectorRepo struct {
	fakeVectorRepo
	deleted  []uint32
	inserted map[uint32][][]float32
}

func (r *recordingVectorRepo) DeleteByUID(uid uint32) error {
	r.deleted = append(r.deleted, uid)
	return nil
}

func (r *recordingVectorRepo) InsertChunks(uid uint32, embeddings [][]float32) error {
	if r.inserted == nil {
		r.inserted = map[uint32][][]float32{}
	}
	r.inserted[uid] = embeddings
	return nil
}

func TestIndexReplacesOldChunks(t *testing.T) {
	vectorRepo := &recordingVectorRepo{}
	uc := NewIndexerUsecase(vectorRepo, fakeEmbedder{}, 5)

	email := &emaildomain.Email{
		UID:     7,
		Subject: "周报",
		Content: strings.Repeat("内容行\n", 9),
	}
	require.NoError(t, uc.Index(context.Background(), email))

	// Subject line plus nine content lines: ten lines, two chunks.
	assert.Equal(t, []uint32{7}, vectorRepo.deleted)
	assert.Len(t, vectorRepo.inserted[7], 2)
}

func TestIndexEmptyBody(t *testing.T) {
	vectorRepo := &recordingVectorRepo{}
	uc := NewIndexerUsecase(vectorRepo, fakeEmbedder{}, 5)

	require.NoError(t, uc.Index(context.Background(), &emaildomain.Email{UID: 8}))
	assert.Empty(t, vectorRepo.deleted)
	assert.Empty(t, vectorRepo.inserted)
}
