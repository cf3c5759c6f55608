package group

import "errors"

var (
	ErrGroupNotFound        = errors.New("group not found")
	ErrInviteCodeNotFound   = errors.New("invite code not found")
	ErrAlreadyMember        = errors.New("already a member of this group")
	ErrNotAMember           = errors.New("not a member of this group")
	ErrNotAdmin             = errors.New("admin role required")
	ErrMemberNotFound       = errors.New("member not found")
	ErrLastAdmin            = errors.New("group must keep at least one admin")
	ErrInvalidRole          = errors.New("invalid role")
	ErrCodeGenerationFailed = errors.New("invite code generation failed")
)
