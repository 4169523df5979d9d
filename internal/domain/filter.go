package domain

// ListOptions contains ordering and bounding parameters for collection reads.
type ListOptions struct {
	// OrderBy is a key inside the record, or one of created_at/updated_at.
	OrderBy string
	Desc    bool
	Limit   uint64
}

// RecentFirst orders by creation time, newest first, keeping at most limit rows.
func RecentFirst(limit int) ListOptions {
	if limit < 0 {
		limit = 0
	}
	return ListOptions{OrderBy: FieldCreatedAt, Desc: true, Limit: uint64(limit)}
}
