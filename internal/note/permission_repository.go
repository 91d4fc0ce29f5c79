package note

import (
	"context"
	defError "errors"
	"time"

	"note-sharing-service/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PermissionRepository owns the ACL rows for notes. A missing row reads
// as no access; it never reports "not found" to callers.
type PermissionRepository interface {
	Set(ctx context.Context, ownerID string, noteID uint64, granteeID string, perm domain.Permission, value bool) error
	Get(ctx context.Context, ownerID string, noteID uint64, granteeID string) (domain.PermissionSet, error)
	RevokeAll(ctx context.Context, ownerID string, noteID uint64, granteeID string) error
	ListGrantees(ctx context.Context, ownerID string, noteID uint64) ([]string, error)
}

type PermissionRepositoryImpl struct {
	db *gorm.DB
}

func NewPermissionRepository(db *gorm.DB) PermissionRepository {
	return &PermissionRepositoryImpl{db: db}
}

// Set upserts one capability flag. When no ACL row exists yet one is
// created with the other capabilities false. The upsert is a single
// statement, so concurrent grants for the same grantee serialize on the
// row instead of racing an existence check.
func (r *PermissionRepositoryImpl) Set(ctx context.Context, ownerID string, noteID uint64, granteeID string, perm domain.Permission, value bool) error {
	now := time.Now().UTC()
	entry := domain.AccessEntry{
		OwnerID:   ownerID,
		NoteID:    noteID,
		GranteeID: granteeID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	switch perm {
	case domain.PermissionRead:
		entry.CanRead = value
	case domain.PermissionWrite:
		entry.CanWrite = value
	case domain.PermissionDelete:
		entry.CanDelete = value
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "owner_id"}, {Name: "note_id"}, {Name: "grantee_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			string(perm): value,
			"updated_at": now,
		}),
	}).Create(&entry).Error
}

// Get returns the capability flags for one grantee. An absent row is
// all-false, not an error.
func (r *PermissionRepositoryImpl) Get(ctx context.Context, ownerID string, noteID uint64, granteeID string) (domain.PermissionSet, error) {
	var entry domain.AccessEntry
	err := r.db.WithContext(ctx).
		First(&entry, "owner_id = ? AND note_id = ? AND grantee_id = ?", ownerID, noteID, granteeID).Error
	if defError.Is(err, gorm.ErrRecordNotFound) {
		return domain.PermissionSet{}, nil
	}
	if err != nil {
		return domain.PermissionSet{}, err
	}
	return entry.Permissions(), nil
}

// RevokeAll deletes the ACL row entirely
func (r *PermissionRepositoryImpl) RevokeAll(ctx context.Context, ownerID string, noteID uint64, granteeID string) error {
	return r.db.WithContext(ctx).
		Where("owner_id = ? AND note_id = ? AND grantee_id = ?", ownerID, noteID, granteeID).
		Delete(&domain.AccessEntry{}).Error
}

// ListGrantees returns every user with any ACL row for the note
func (r *PermissionRepositoryImpl) ListGrantees(ctx context.Context, ownerID string, noteID uint64) ([]string, error) {
	var grantees []string
	err := r.db.WithContext(ctx).
		Model(&domain.AccessEntry{}).
		Where("owner_id = ? AND note_id = ?", ownerID, noteID).
		Pluck("grantee_id", &grantees).Error
	return grantees, err
}
