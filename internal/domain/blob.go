package domain

// UploadOptions control how a blob is written to the store.
type UploadOptions struct {
	ContentType string
	// CacheControl is the max-age in seconds served with the blob.
	CacheControl int
	// Upsert replaces an existing blob at the same path instead of failing.
	Upsert bool
}

// BlobInfo describes a stored blob.
type BlobInfo struct {
	Path         string
	ContentType  string
	Size         int64
	CacheControl int
}

// Certificate is one entry of brand_assets.certificates.
type Certificate struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	URL        string `json:"url"`
	Path       string `json:"path"`
	UploadedAt string `json:"uploaded_at"`
}

// CertificatesFromValue decodes a stored certificates value. Nil yields an
// empty list.
func CertificatesFromValue(v any) ([]Certificate, error) {
	if IsEmptyValue(v) {
		return []Certificate{}, nil
	}
	var out []Certificate
	if err := DecodeInto(v, &out); err != nil {
		return nil, err
	}
	return out, nil
}
