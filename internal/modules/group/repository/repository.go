package repository

import (
	"context"
	"errors"

	"campusshare.app/api/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Membership errors surfaced from the join/leave transactions.
var (
	ErrGroupFull     = errors.New("group is at capacity")
	ErrAlreadyMember = errors.New("user is already a member")
)

// Query is the filter set for browsing study groups. Empty fields are ignored.
type Query struct {
	Subject string
	Status  string
	Search  string
}

type GroupRepository interface {
	Create(ctx context.Context, group *entity.StudyGroup) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.StudyGroup, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.StudyGroup, error)
	FindAll(ctx context.Context, q Query, offset, limit int) ([]*entity.StudyGroup, int64, error)
	FindByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*entity.StudyGroup, int64, error)
	AddMember(ctx context.Context, groupID, userID uuid.UUID) error
	RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error
	CountMembers(ctx context.Context, groupID uuid.UUID) (int64, error)
	Save(ctx context.Context, group *entity.StudyGroup) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountAll(ctx context.Context) (int64, error)
}

type groupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

// Create stores the group together with the creator's admin membership row.
func (r *groupRepository) Create(ctx context.Context, group *entity.StudyGroup) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return err
		}

		member := &entity.GroupMember{
			GroupID: group.ID,
			UserID:  group.CreatorID,
			Role:    entity.GroupRoleAdmin,
		}
		return tx.Create(member).Error
	})
}

func (r *groupRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.StudyGroup, error) {
	var group entity.StudyGroup
	if err := r.db.WithContext(ctx).
		Preload("Members", func(db *gorm.DB) *gorm.DB {
			return db.Order("joined_at ASC")
		}).
		Preload("Members.User").
		Where("id = ?", id).
		First(&group).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

// FindByIDs returns groups in the order of ids; missing ids are skipped.
func (r *groupRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.StudyGroup, error) {
	if len(ids) == 0 {
		return []*entity.StudyGroup{}, nil
	}

	var groups []*entity.StudyGroup
	if err := r.db.WithContext(ctx).
		Preload("Members").
		Where("id IN ?", ids).
		Find(&groups).Error; err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*entity.StudyGroup, len(groups))
	for _, g := range groups {
		byID[g.ID] = g
	}

	ordered := make([]*entity.StudyGroup, 0, len(ids))
	for _, id := range ids {
		if g, ok := byID[id]; ok {
			ordered = append(ordered, g)
		}
	}

	return ordered, nil
}

func (r *groupRepository) FindAll(ctx context.Context, q Query, offset, limit int) ([]*entity.StudyGroup, int64, error) {
	var groups []*entity.StudyGroup
	var total int64

	query := r.db.WithContext(ctx).Preload("Members")

	if q.Subject != "" {
		query = query.Where("subject = ?", q.Subject)
	}
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}
	if q.Search != "" {
		query = query.Where("name ILIKE ? OR description ILIKE ? OR course ILIKE ?",
			"%"+q.Search+"%", "%"+q.Search+"%", "%"+q.Search+"%")
	}

	if err := query.Model(&entity.StudyGroup{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&groups).Error; err != nil {
		return nil, 0, err
	}

	return groups, total, nil
}

// FindByUser lists groups the user belongs to, via the membership join.
func (r *groupRepository) FindByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*entity.StudyGroup, int64, error) {
	var groups []*entity.StudyGroup
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.StudyGroup{}).
		Joins("JOIN group_members ON group_members.group_id = study_groups.id").
		Where("group_members.user_id = ?", userID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Preload("Members").
		Order("group_members.joined_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&groups).Error; err != nil {
		return nil, 0, err
	}

	return groups, total, nil
}

// AddMember inserts a membership row after re-checking capacity and
// duplicates under a row lock, and flips the group to full when the last
// seat is taken.
func (r *groupRepository) AddMember(ctx context.Context, groupID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var group entity.StudyGroup
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", groupID).
			First(&group).Error; err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&entity.GroupMember{}).
			Where("group_id = ? AND user_id = ?", groupID, userID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrAlreadyMember
		}

		var members int64
		if err := tx.Model(&entity.GroupMember{}).
			Where("group_id = ?", groupID).
			Count(&members).Error; err != nil {
			return err
		}
		if members >= int64(group.MaxMembers) {
			return ErrGroupFull
		}

		member := &entity.GroupMember{
			GroupID: groupID,
			UserID:  userID,
			Role:    entity.GroupRoleMember,
		}
		if err := tx.Create(member).Error; err != nil {
			return err
		}

		if members+1 >= int64(group.MaxMembers) {
			return tx.Model(&entity.StudyGroup{}).
				Where("id = ?", groupID).
				Update("status", entity.GroupStatusFull).Error
		}
		return nil
	})
}

// RemoveMember deletes the membership row and reopens a full group.
func (r *groupRepository) RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.
			Where("group_id = ? AND user_id = ?", groupID, userID).
			Delete(&entity.GroupMember{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return tx.Model(&entity.StudyGroup{}).
			Where("id = ? AND status = ?", groupID, entity.GroupStatusFull).
			Update("status", entity.GroupStatusActive).Error
	})
}

func (r *groupRepository) CountMembers(ctx context.Context, groupID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.GroupMember{}).
		Where("group_id = ?", groupID).
		Count(&count).Error
	return count, err
}

func (r *groupRepository) Save(ctx context.Context, group *entity.StudyGroup) error {
	return r.db.WithContext(ctx).Save(group).Error
}

// Delete removes the group and its membership rows together.
func (r *groupRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ?", id).Delete(&entity.GroupMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.StudyGroup{}, "id = ?", id).Error
	})
}

func (r *groupRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.StudyGroup{}).Count(&count).Error
	return count, err
}
