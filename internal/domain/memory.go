package domain

type MemoryType string

const (
	MemoryTypePDF   MemoryType = "PDF"
	MemoryTypeNote  MemoryType = "Note"
	MemoryTypeOther MemoryType = "Other"
)

// Memory is a piece of uploaded study material. Only the metadata lives here;
// the file itself is referenced by FileURL.
type Memory struct {
	ID          string     `json:"id"`
	UserID      int32      `json:"user_id"`
	Title       string     `json:"title"`
	Type        MemoryType `json:"type"`
	Description string     `json:"description"`
	FileURL     string     `json:"file_url"`
	FileName    string     `json:"file_name"`
	FileSize    string     `json:"file_size"`
	Tags        []string   `json:"tags"`
	Favorite    bool       `json:"favorite"`
	UploadedOn  string     `json:"uploaded_on"`
}
