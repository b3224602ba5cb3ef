package books

// MoveRow returns a copy of rows with the row at from moved to index to.
// Out-of-range indexes return an unchanged copy.
func MoveRow(rows []MetadataRow, from, to int) []MetadataRow {
	out := append([]MetadataRow(nil), rows...)
	if from < 0 || from >= len(out) || to < 0 || to >= len(out) || from == to {
		return out
	}

	row := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append([]MetadataRow{row}, out[to:]...)...)
	return out
}

// RemoveRow returns a copy of rows without index i
func RemoveRow(rows []MetadataRow, i int) []MetadataRow {
	out := make([]MetadataRow, 0, len(rows))
	for j, row := range rows {
		if j != i {
			out = append(out, row)
		}
	}
	return out
}

// UpdateRow returns a copy of rows with index i replaced, keeping its ID
func UpdateRow(rows []MetadataRow, i int, key, value string) []MetadataRow {
	out := append([]MetadataRow(nil), rows...)
	if i < 0 || i >= len(out) {
		return out
	}
	out[i].Key = key
	out[i].Value = value
	return out
}
