package core

// Query returns one page of a dataset. The status filter applies only to
// datasets that declare a StatusFilterField; others ignore it.
func (s *Service) Query(key DatasetKey, q Query) (Page, error) {
	store, err := s.Store(key)
	if err != nil {
		return Page{}, err
	}
	ds := store.Dataset()

	records := store.List()
	status := q.Status
	if status == "" || ds.StatusFilterField == "" {
		status = FilterAll
	}
	if status != FilterAll {
		filtered := records[:0]
		for _, r := range records {
			if status.Match(r.Fields.String(ds.StatusFilterField)) {
				filtered = append(filtered, r)
			}
		}
		records = filtered
	}

	size := normalizePageSize(q.PageSize)
	pageRecords, page, totalPages := paginate(records, q.Page, size)

	return Page{
		Dataset:    key,
		Columns:    store.Columns(),
		Records:    pageRecords,
		Total:      len(records),
		Page:       page,
		PageSize:   size,
		TotalPages: totalPages,
		Status:     status,
	}, nil
}
