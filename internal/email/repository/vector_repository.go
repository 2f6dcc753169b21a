package repository

import (
	"fmt"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"gorm.io/gorm"
)

// vectorRepository implements VectorRepository on the sqlite-vec vec0
// virtual table.
type vectorRepository struct {
	db *gorm.DB
}

// NewVectorRepository creates a new instance of vectorRepository
func NewVectorRepository(db *gorm.DB) VectorRepository {
	return &vectorRepository{
		db: db,
	}
}

func (r *vectorRepository) InsertChunks(uid uint32, embeddings [][]float32) error {
	written := 0
	for _, embedding := range embeddings {
		blob, err := sqlite_vec.SerializeFloat32(embedding)
		if err != nil {
			r.rollback(uid, written)
			return fmt.Errorf("serializing embedding for uid %d: %w", uid, err)
		}
		err = r.db.Exec(
			"INSERT INTO email_vectors (uid, embedding) VALUES (?, ?)",
			uid, blob,
		).Error
		if err != nil {
			r.rollback(uid, written)
			return fmt.Errorf("inserting chunk for uid %d: %w", uid, err)
		}
		written++
	}
	return nil
}

// rollback drops the rows written so far in a failed InsertChunks so the
// record is left unindexed rather than half-indexed.
func (r *vectorRepository) rollback(uid uint32, written int) {
	if written > 0 {
		_ = r.DeleteByUID(uid)
	}
}

func (r *vectorRepository) DeleteByUID(uid uint32) error {
	return r.db.Exec("DELETE FROM email_vectors WHERE uid = ?", uid).Error
}

func (r *vectorRepository) SearchNearest(embedding []float32, folder string, k int) ([]ChunkMatch, error) {
	blob, err := sqlite_vec.SerializeFloat32(embedding)
	if err != nil {
		return nil, fmt.Errorf("serializing query embedding: %w", err)
	}

	// vec0 KNN queries require the k constraint alongside MATCH.
	rows, err := r.db.Raw(`
		SELECT uid, distance
		FROM email_vectors
		WHERE embedding MATCH ? AND k = ?
		ORDER BY distance`,
		blob, k,
	).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []ChunkMatch
	for rows.Next() {
		var m ChunkMatch
		if err := rows.Scan(&m.UID, &m.Distance); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if folder == "" || len(matches) == 0 {
		return matches, nil
	}
	return r.filterByFolder(matches, folder)
}

// filterByFolder keeps matches whose owning mail lives in folder. The
// folder restriction runs after the KNN pass because vec0 cannot join
// mid-query.
func (r *vectorRepository) filterByFolder(matches []ChunkMatch, folder string) ([]ChunkMatch, error) {
	uids := make([]uint32, 0, len(matches))
	for _, m := range matches {
		uids = append(uids, m.UID)
	}

	var inFolder []uint32
	err := r.db.Table("emails").
		Where("folder = ? AND uid IN ?", folder, uids).
		Pluck("uid", &inFolder).Error
	if err != nil {
		return nil, err
	}

	keep := make(map[uint32]bool, len(inFolder))
	for _, uid := range inFolder {
		keep[uid] = true
	}

	filtered := matches[:0]
	for _, m := range matches {
		if keep[m.UID] {
			filtered = append(filtered, m)
		}
	}
	return filtered, nil
}
