// Package publish delivers generated content to the destination CMS
// and resolves featured images.
package publish

import "context"

// Artifact is a finished piece of content ready for the CMS.
type Artifact struct {
	Title    string
	Body     string
	Excerpt  string
	Status   string // draft, publish, pending
	Category string
	Author   string

	// SEO metadata rendered alongside the post.
	MetaTitle       string
	MetaDescription string
	FocusKeyword    string

	FeaturedImage *FeaturedImage
}

// FeaturedImage is the image attached to an artifact, either by
// upload bytes or by referencing an already-hosted URL or media ID.
type FeaturedImage struct {
	MediaID  string
	URL      string
	Bytes    []byte
	MimeType string
	AltText  string
}

// ArtifactStore persists finished artifacts.
type ArtifactStore interface {
	// CreateArtifact stores the artifact and returns its external ID.
	CreateArtifact(ctx context.Context, a *Artifact) (string, error)
}
