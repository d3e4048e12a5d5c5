package util

import "errors"

var (
	ErrCourseNotFound       = errors.New("course not found")
	ErrSessionNotFound      = errors.New("authoring session not found")
	ErrNotCourseOwner       = errors.New("course belongs to another instructor")
	ErrNotEnrolled          = errors.New("not enrolled in this course")
	ErrAlreadyEnrolled      = errors.New("already enrolled in this course")
	ErrAlreadyReviewed      = errors.New("course already reviewed")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotConversationPeer  = errors.New("not a member of this conversation")
	ErrInvalidRating        = errors.New("rating must be between 1 and 5")
)
