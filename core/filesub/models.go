package filesub

import (
	"strings"
	"time"
)

const (
	StatusPending  = "pending"
	StatusUploaded = "uploaded"
	StatusRejected = "rejected"
)

// FolderFruitsVeg replaced the legacy separate Fruits and Vegetables
// folders; stored records may still carry the old names.
const FolderFruitsVeg = "Fruits & Vegetables"

var validFolders = []string{
	FolderFruitsVeg,
	"Meat",
	"NutriBun",
	"Patties",
	"Groceries",
	"Consumables",
	"Water",
	"LPG",
	"Rice",
	"COA",
	"Others",
}

// NormalizeFolder maps the legacy Fruits/Vegetables folder names onto the
// merged folder. Other names pass through unchanged.
func NormalizeFolder(folder string) string {
	if folder == "Fruits" || folder == "Vegetables" {
		return FolderFruitsVeg
	}
	return folder
}

// IsValidFolder reports whether folder (after normalization) is one of the
// known submission folders.
func IsValidFolder(folder string) bool {
	for _, f := range validFolders {
		if f == folder {
			return true
		}
	}
	return false
}

// LegacyFolderNames returns the set of stored folder names that match the
// given client-facing folder. Needed when filtering since old records kept
// their original names.
func LegacyFolderNames(folder string) []string {
	if folder == FolderFruitsVeg {
		return []string{FolderFruitsVeg, "Fruits", "Vegetables"}
	}
	return []string{folder}
}

// Submission is a single uploaded file.
type Submission struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Folder       string    `json:"folder"`
	FileName     string    `json:"fileName"`
	OriginalName string    `json:"name"`
	FileSize     int64     `json:"size"`
	MimeType     string    `json:"type"`
	Description  string    `json:"description"`
	UploadDate   time.Time `json:"uploadedAt"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

// URL is the static path the file is served from.
func (s Submission) URL() string {
	return "/uploads/" + UploadFolder + "/" + s.FileName
}

// Coordinator is the joined uploader shown in the admin history.
type Coordinator struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Username     string `json:"username"`
	Municipality string `json:"municipality"`
	School       string `json:"school"`
	HLARoleType  string `json:"hlaRoleType"`
}

// AdminSubmission is a submission joined with its uploader.
type AdminSubmission struct {
	Submission
	Coordinator Coordinator `json:"coordinator"`
}

// Upload is the metadata accompanying an upload request; the files
// themselves arrive as multipart parts.
type Upload struct {
	Folder      string `json:"folder" form:"folder"`
	Description string `json:"description" form:"description"`
	UploadDate  string `json:"uploadDate" form:"uploadDate"`
}

func (u *Upload) Clean() {
	u.Folder = NormalizeFolder(strings.TrimSpace(u.Folder))
	u.Description = strings.TrimSpace(u.Description)
	u.UploadDate = strings.TrimSpace(u.UploadDate)
}

// UploadedFile describes one stored file from a multipart upload.
type UploadedFile struct {
	FileName     string
	OriginalName string
	Size         int64
	MimeType     string
}

// QueryFilter narrows a user's own submission listing.
type QueryFilter struct {
	Folder string `query:"folder"`
	Date   string `query:"date"`
}

// AdminFilter narrows the admin submission history.
type AdminFilter struct {
	From          string `query:"from"`
	To            string `query:"to"`
	Folder        string `query:"folder"`
	CoordinatorID string `query:"coordinatorId"`
	Municipality  string `query:"municipality"`
	School        string `query:"school"`
	Search        string `query:"search"`
}

func (f *AdminFilter) Clean() {
	f.From = strings.TrimSpace(f.From)
	f.To = strings.TrimSpace(f.To)
	f.Folder = strings.TrimSpace(f.Folder)
	f.CoordinatorID = strings.TrimSpace(f.CoordinatorID)
	f.Municipality = strings.TrimSpace(f.Municipality)
	f.School = strings.TrimSpace(f.School)
	f.Search = strings.TrimSpace(f.Search)
}
