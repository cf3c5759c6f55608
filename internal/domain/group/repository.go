package group

import "context"

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error
	CreateGroup(ctx context.Context, group *Group) error
	GetGroupByID(ctx context.Context, groupID string) (*Group, error)
	GetGroupByCode(ctx context.Context, code string) (*Group, error)
	AddMember(ctx context.Context, member *Membership) error
	GetMember(ctx context.Context, groupID, userID string) (*Membership, error)
	ListMembers(ctx context.Context, groupID string) ([]MemberProfile, error)
	UpdateMemberRole(ctx context.Context, groupID, userID, role string) error
	DeleteMember(ctx context.Context, groupID, userID string) error
	CountAdmins(ctx context.Context, groupID string) (int64, error)
	IsCodeTaken(ctx context.Context, code string) (bool, error)
}
