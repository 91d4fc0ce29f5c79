package note

import (
	"context"
	"time"

	"note-sharing-service/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SharedIndexRepository owns the reverse index from grantees to notes
// shared with them. It is derived state: the service layer rebuilds it
// from the ACL when the two disagree.
type SharedIndexRepository interface {
	Add(ctx context.Context, granteeID, ownerID string, noteID uint64) error
	Remove(ctx context.Context, granteeID, ownerID string, noteID uint64) error
	List(ctx context.Context, granteeID string) ([]domain.SharedNote, error)
	Rebuild(ctx context.Context, ownerID string, noteID uint64, granteeIDs []string) error
}

type SharedIndexRepositoryImpl struct {
	db *gorm.DB
}

func NewSharedIndexRepository(db *gorm.DB) SharedIndexRepository {
	return &SharedIndexRepositoryImpl{db: db}
}

// Add inserts an index row. Inserting an existing row is a no-op, so
// repeated shares stay idempotent.
func (r *SharedIndexRepositoryImpl) Add(ctx context.Context, granteeID, ownerID string, noteID uint64) error {
	entry := domain.SharedNote{
		GranteeID: granteeID,
		OwnerID:   ownerID,
		NoteID:    noteID,
		CreatedAt: time.Now().UTC(),
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entry).Error
}

// Remove deletes an index row; removing an absent row is not an error
func (r *SharedIndexRepositoryImpl) Remove(ctx context.Context, granteeID, ownerID string, noteID uint64) error {
	return r.db.WithContext(ctx).
		Where("grantee_id = ? AND owner_id = ? AND note_id = ?", granteeID, ownerID, noteID).
		Delete(&domain.SharedNote{}).Error
}

// List returns every note shared with the grantee
func (r *SharedIndexRepositoryImpl) List(ctx context.Context, granteeID string) ([]domain.SharedNote, error) {
	var entries []domain.SharedNote
	err := r.db.WithContext(ctx).
		Where("grantee_id = ?", granteeID).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}

// Rebuild replaces every index row for one note with rows for exactly
// the given grantees. Used by the repair pass after a partial
// grant/revoke left the index out of step with the ACL.
func (r *SharedIndexRepositoryImpl) Rebuild(ctx context.Context, ownerID string, noteID uint64, granteeIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("owner_id = ? AND note_id = ?", ownerID, noteID).
			Delete(&domain.SharedNote{}).Error; err != nil {
			return err
		}

		if len(granteeIDs) == 0 {
			return nil
		}

		now := time.Now().UTC()
		entries := make([]domain.SharedNote, 0, len(granteeIDs))
		for _, granteeID := range granteeIDs {
			entries = append(entries, domain.SharedNote{
				GranteeID: granteeID,
				OwnerID:   ownerID,
				NoteID:    noteID,
				CreatedAt: now,
			})
		}
		return tx.Create(&entries).Error
	})
}
