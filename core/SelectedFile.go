package core

const ZipContentType = "application/zip"

// SelectedFile is the archive chosen by the user. It lives only in memory.
type SelectedFile struct {
	Name        string
	Content     []byte
	ContentType string
}

func (f SelectedFile) Size() int {
	return len(f.Content)
}

// MimeType falls back to the zip content type when none was supplied.
func (f SelectedFile) MimeType() string {
	if f.ContentType == "" {
		return ZipContentType
	}
	return f.ContentType
}
