package usecase

import (
	"context"
	"fmt"
	"strings"

	emaildomain "mail-assistant-backend/internal/email/domain"
	"mail-assistant-backend/internal/email/repository"
	"mail-assistant-backend/pkg/ai"
)

// IndexerUsecase writes mail content into the vector index, one
// embedding row per chunk.
type IndexerUsecase interface {
	// Index embeds and persists all chunks of one record. Indexing is
	// all-or-nothing per record: any failure leaves the record unindexed
	// and returns an error for the caller to count.
	Index(ctx context.Context, email *emaildomain.Email) error
}

// indexerUsecase implements IndexerUsecase
type indexerUsecase struct {
	vectorRepo repository.VectorRepository
	embedder   ai.Embedder
	chunkLines int
}

// NewIndexerUsecase creates a new indexer usecase. chunkLines is the
// number of lines grouped into one chunk.
func NewIndexerUsecase(vectorRepo repository.VectorRepository, embedder ai.Embedder, chunkLines int) IndexerUsecase {
	if chunkLines <= 0 {
		chunkLines = 5
	}
	return &indexerUsecase{
		vectorRepo: vectorRepo,
		embedder:   embedder,
		chunkLines: chunkLines,
	}
}

func (u *indexerUsecase) Index(ctx context.Context, email *emaildomain.Email) error {
	chunks := SplitChunks(email.Subject+"\n"+email.Content, u.chunkLines)
	if len(chunks) == 0 {
		// Empty bodies are excluded upstream; nothing to index.
		return nil
	}

	embeddings := make([][]float32, 0, len(chunks))
	for _, chunk := range chunks {
		vectors, err := u.embedder.EmbedTexts(ctx, []string{chunk})
		if err != nil {
			return fmt.Errorf("embedding chunk for uid %d: %w", email.UID, err)
		}
		embeddings = append(embeddings, vectors[0])
	}

	// A re-fetched record replaces its old chunk rows wholesale.
	if err := u.vectorRepo.DeleteByUID(email.UID); err != nil {
		return fmt.Errorf("clearing old chunks for uid %d: %w", email.UID, err)
	}
	if err := u.vectorRepo.InsertChunks(email.UID, embeddings); err != nil {
		return fmt.Errorf("storing chunks for uid %d: %w", email.UID, err)
	}
	return nil
}

// SplitChunks groups the rendered text into fixed-size line groups; a
// final partial group is kept as its own chunk. Blank-only input yields
// no chunks.
func SplitChunks(text string, linesPerChunk int) []string {
	lines := strings.Split(strings.TrimSpace(text), "\n")

	var chunks []string
	for start := 0; start < len(lines); start += linesPerChunk {
		end := start + linesPerChunk
		if end > len(lines) {
			end = len(lines)
		}
		chunk := strings.TrimSpace(strings.Join(lines[start:end], "\n"))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}
