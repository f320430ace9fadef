package handlers

import (
	"strings"
	"unicode/utf8"

	"folio/internal/apperr"
)

// Validation limits for post and comment fields.
const (
	maxTitleLen      = 300
	maxSlugLen       = 300
	maxContentLen    = 100_000
	maxExcerptLen    = 1_000
	maxMetaDescLen   = 500
	maxMetaKwLen     = 500
	maxTagLen        = 100
	maxTagCount      = 20
	maxNameLen       = 200
	maxAuthorLen     = 200
	maxEmailLen      = 320
	maxWebsiteLen    = 500
	maxCommentLen    = 5_000
	maxSettingKeyLen = 200
	maxSettingValLen = 5_000
)

// validatePost checks post inputs and returns the first error found.
func validatePost(title, slug, content string, tags []string) error {
	if strings.TrimSpace(title) == "" {
		return apperr.Validation("title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return apperr.Validation("title is too long (max 300 characters)")
	}
	if utf8.RuneCountInString(slug) > maxSlugLen {
		return apperr.Validation("slug is too long (max 300 characters)")
	}
	if strings.TrimSpace(content) == "" {
		return apperr.Validation("content is required")
	}
	if utf8.RuneCountInString(content) > maxContentLen {
		return apperr.Validation("content is too long (max 100,000 characters)")
	}
	if len(tags) > maxTagCount {
		return apperr.Validation("too many tags (max 20)")
	}
	for _, tag := range tags {
		if strings.TrimSpace(tag) == "" {
			return apperr.Validation("tags must not be empty")
		}
		if utf8.RuneCountInString(tag) > maxTagLen {
			return apperr.Validation("tag is too long (max 100 characters)")
		}
	}
	return nil
}

// validateMetadata checks the optional SEO fields of a post.
func validateMetadata(excerpt, metaDesc, metaKw *string) error {
	if excerpt != nil && utf8.RuneCountInString(*excerpt) > maxExcerptLen {
		return apperr.Validation("excerpt is too long (max 1,000 characters)")
	}
	if metaDesc != nil && utf8.RuneCountInString(*metaDesc) > maxMetaDescLen {
		return apperr.Validation("meta description is too long (max 500 characters)")
	}
	if metaKw != nil && utf8.RuneCountInString(*metaKw) > maxMetaKwLen {
		return apperr.Validation("meta keywords are too long (max 500 characters)")
	}
	return nil
}

// validateName checks a category or series display name.
func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return apperr.Validation("name is required")
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return apperr.Validation("name is too long (max 200 characters)")
	}
	return nil
}

// validateComment checks visitor comment inputs.
func validateComment(author, email, content string, website *string) error {
	if website != nil && utf8.RuneCountInString(*website) > maxWebsiteLen {
		return apperr.Validation("website is too long (max 500 characters)")
	}
	if strings.TrimSpace(author) == "" {
		return apperr.Validation("author name is required")
	}
	if utf8.RuneCountInString(author) > maxAuthorLen {
		return apperr.Validation("author name is too long (max 200 characters)")
	}
	if strings.TrimSpace(email) == "" {
		return apperr.Validation("email is required")
	}
	if utf8.RuneCountInString(email) > maxEmailLen || !strings.Contains(email, "@") {
		return apperr.Validation("email address is invalid")
	}
	if strings.TrimSpace(content) == "" {
		return apperr.Validation("comment text is required")
	}
	if utf8.RuneCountInString(content) > maxCommentLen {
		return apperr.Validation("comment is too long (max 5,000 characters)")
	}
	return nil
}

// validateSettings checks profile setting keys and values.
func validateSettings(settings map[string]string) error {
	if len(settings) == 0 {
		return apperr.Validation("no settings provided")
	}
	for key, val := range settings {
		if strings.TrimSpace(key) == "" {
			return apperr.Validation("setting keys must not be empty")
		}
		if utf8.RuneCountInString(key) > maxSettingKeyLen {
			return apperr.Validation("setting key is too long (max 200 characters)")
		}
		if utf8.RuneCountInString(val) > maxSettingValLen {
			return apperr.Validation("setting value is too long (max 5,000 characters)")
		}
	}
	return nil
}
