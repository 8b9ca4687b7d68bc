package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// StudentSessionKey returns the cache key for a student's login session
func (r *CacheKeyStruct) StudentSessionKey(studentID int) string {
	return fmt.Sprintf("login:%d", studentID)
}

// SubjectPaperKey returns the cache key for a subject's student-facing paper
func (r *CacheKeyStruct) SubjectPaperKey(subjectID int64) string {
	return fmt.Sprintf("subject:%d:paper", subjectID)
}

// SubjectAnswerKey returns the cache key for a subject's answer key hash
func (r *CacheKeyStruct) SubjectAnswerKey(subjectID int64) string {
	return fmt.Sprintf("subject:%d:key", subjectID)
}

var CacheKey = NewCacheKeyStruct()
