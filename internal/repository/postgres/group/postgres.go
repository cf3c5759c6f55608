package group

import (
	"context"
	"errors"

	"gorm.io/gorm"

	groupdomain "github.com/Alpayozd/intern-betting-app-sub000/internal/domain/group"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(groupdomain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

func (r *PostgresRepository) CreateGroup(ctx context.Context, created *groupdomain.Group) error {
	return r.db.WithContext(ctx).Create(created).Error
}

func (r *PostgresRepository) GetGroupByID(ctx context.Context, groupID string) (*groupdomain.Group, error) {
	var found groupdomain.Group
	if err := r.db.WithContext(ctx).Where("id = ?", groupID).First(&found).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, groupdomain.ErrGroupNotFound
		}
		return nil, err
	}
	return &found, nil
}

func (r *PostgresRepository) GetGroupByCode(ctx context.Context, code string) (*groupdomain.Group, error) {
	var found groupdomain.Group
	if err := r.db.WithContext(ctx).Where("invite_code = ?", code).First(&found).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, groupdomain.ErrInviteCodeNotFound
		}
		return nil, err
	}
	return &found, nil
}

func (r *PostgresRepository) AddMember(ctx context.Context, member *groupdomain.Membership) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *PostgresRepository) GetMember(ctx context.Context, groupID, userID string) (*groupdomain.Membership, error) {
	var member groupdomain.Membership
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, groupdomain.ErrMemberNotFound
		}
		return nil, err
	}
	return &member, nil
}

func (r *PostgresRepository) ListMembers(ctx context.Context, groupID string) ([]groupdomain.MemberProfile, error) {
	var members []groupdomain.MemberProfile
	err := r.db.WithContext(ctx).
		Table("memberships").
		Select("memberships.user_id, users.name, users.email, memberships.role, memberships.joined_at").
		Joins("join users on users.id = memberships.user_id").
		Where("memberships.group_id = ?", groupID).
		Order("memberships.joined_at asc").
		Scan(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (r *PostgresRepository) UpdateMemberRole(ctx context.Context, groupID, userID, role string) error {
	return r.db.WithContext(ctx).Model(&groupdomain.Membership{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Update("role", role).Error
}

func (r *PostgresRepository) DeleteMember(ctx context.Context, groupID, userID string) error {
	return r.db.WithContext(ctx).
		Delete(&groupdomain.Membership{}, "group_id = ? AND user_id = ?", groupID, userID).Error
}

func (r *PostgresRepository) CountAdmins(ctx context.Context, groupID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&groupdomain.Membership{}).
		Where("group_id = ? AND role = ?", groupID, groupdomain.RoleAdmin).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PostgresRepository) IsCodeTaken(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&groupdomain.Group{}).
		Where("invite_code = ?", code).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
