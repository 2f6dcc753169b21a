package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	emaildomain "mail-assistant-backend/internal/email/domain"
	"mail-assistant-backend/internal/email/repository"
	"mail-assistant-backend/pkg/ai"
)

// Over-fetch factor for the chunk-level KNN pass, so that per-message
// deduplication still leaves enough distinct messages to fill topK.
const searchOverfetch = 4

// SearchUsecase performs semantic search over indexed mail.
type SearchUsecase interface {
	// Search returns up to topK distinct messages ranked by the distance
	// of their best-matching chunk, ascending.
	Search(ctx context.Context, query, folder string, topK int) ([]*emaildomain.SearchResult, error)
}

// searchUsecase implements SearchUsecase
type searchUsecase struct {
	emailRepo  repository.EmailRepository
	attrRepo   repository.AttributeRepository
	vectorRepo repository.VectorRepository
	embedder   ai.Embedder
}

// NewSearchUsecase creates a new search usecase
func NewSearchUsecase(
	emailRepo repository.EmailRepository,
	attrRepo repository.AttributeRepository,
	vectorRepo repository.VectorRepository,
	embedder ai.Embedder,
) SearchUsecase {
	return &searchUsecase{
		emailRepo:  emailRepo,
		attrRepo:   attrRepo,
		vectorRepo: vectorRepo,
		embedder:   embedder,
	}
}

func (u *searchUsecase) Search(ctx context.Context, query, folder string, topK int) ([]*emaildomain.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*emaildomain.SearchResult{}, nil
	}
	if topK <= 0 {
		topK = 5
	}

	vectors, err := u.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	matches, err := u.vectorRepo.SearchNearest(vectors[0], folder, topK*searchOverfetch)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	if len(matches) == 0 {
		return []*emaildomain.SearchResult{}, nil
	}

	deduped := DedupMatches(matches, topK)

	return u.hydrate(deduped, folder)
}

// DedupMatches keeps the minimum distance per UID, orders by that
// distance ascending, and truncates to topK distinct messages.
func DedupMatches(matches []repository.ChunkMatch, topK int) []repository.ChunkMatch {
	best := make(map[uint32]float64, len(matches))
	for _, m := range matches {
		if d, ok := best[m.UID]; !ok || m.Distance < d {
			best[m.UID] = m.Distance
		}
	}

	deduped := make([]repository.ChunkMatch, 0, len(best))
	for uid, distance := range best {
		deduped = append(deduped, repository.ChunkMatch{UID: uid, Distance: distance})
	}
	sort.Slice(deduped, func(i, j int) bool {
		if deduped[i].Distance == deduped[j].Distance {
			return deduped[i].UID < deduped[j].UID
		}
		return deduped[i].Distance < deduped[j].Distance
	})

	if len(deduped) > topK {
		deduped = deduped[:topK]
	}
	return deduped
}

func (u *searchUsecase) hydrate(matches []repository.ChunkMatch, folder string) ([]*emaildomain.SearchResult, error) {
	uids := make([]uint32, 0, len(matches))
	for _, m := range matches {
		uids = append(uids, m.UID)
	}
	attrs, err := u.attrRepo.GetByUIDs(uids)
	if err != nil {
		return nil, fmt.Errorf("loading attributes: %w", err)
	}

	results := make([]*emaildomain.SearchResult, 0, len(matches))
	for _, m := range matches {
		email, err := u.emailRepo.GetByUID(folder, m.UID)
		if err != nil {
			return nil, fmt.Errorf("loading mail %d: %w", m.UID, err)
		}
		if email == nil {
			// Index row orphaned by a record that was never stored;
			// skip rather than fail the search.
			continue
		}
		result := &emaildomain.SearchResult{
			UID:      m.UID,
			Subject:  email.Subject,
			Sender:   email.Sender,
			Date:     email.Date.Format("2006-01-02 15:04:05"),
			Distance: m.Distance,
		}
		if attr, ok := attrs[m.UID]; ok {
			result.Gist = attr.Gist
		}
		results = append(results, result)
	}
	return results, nil
}
